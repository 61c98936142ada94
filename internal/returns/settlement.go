package returns

import (
	"fmt"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/utils"
)

// Settle builds the ledger entries for a completed request and decides whether
// the order is now fully returned. returnedBefore must not include req itself.
func (e *Engine) Settle(req *domain.ReturnRequest, order *domain.RentalOrder, returnedBefore map[string]int32) (*domain.Settlement, error) {
	if req.ReturnStatus != domain.ReturnStatusCompleted || req.RefundAmount == nil {
		return nil, domain.NewInvalidArgumentError(fmt.Sprintf("return request %s is not settled", req.RMANumber))
	}

	now := e.clock.Now()
	s := &domain.Settlement{}
	// The refund row carries the gross credit and the fee row debits it back,
	// so a request's rows always sum to RefundAmount.
	if gross := *req.RefundAmount + req.AdditionalFees; gross > 0 {
		s.Transactions = append(s.Transactions, domain.LedgerTransaction{
			UserID:          req.CustomerID,
			Amount:          gross,
			Type:            domain.TransactionTypeRefund,
			RelatedOrderID:  req.RentalOrderID,
			RelatedReturnID: req.ID,
			Description:     fmt.Sprintf("Hoàn tiền %s cho yêu cầu trả %s", utils.FormatVND(gross), req.RMANumber),
			ChargedOn:       now,
			CreatedOn:       now,
		})
	}
	if req.AdditionalFees > 0 {
		s.Transactions = append(s.Transactions, domain.LedgerTransaction{
			UserID:          req.CustomerID,
			Amount:          -req.AdditionalFees,
			Type:            domain.TransactionTypeReturnFee,
			RelatedOrderID:  req.RentalOrderID,
			RelatedReturnID: req.ID,
			Description:     req.FeeDescription,
			ChargedOn:       now,
			CreatedOn:       now,
		})
	}

	if fullyReturned(order, returnedBefore, req.QuantityByProduct()) {
		s.CloseOrderID = order.ID
	}
	return s, nil
}

func fullyReturned(order *domain.RentalOrder, before, now map[string]int32) bool {
	for _, it := range order.Items {
		if before[it.ProductID]+now[it.ProductID] < it.Quantity {
			return false
		}
	}
	return true
}
