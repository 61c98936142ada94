package grpc

import (
	"context"

	"book-rental-backend/internal/api/dto"
	"book-rental-backend/internal/service"
)

type LedgerHandler struct {
	ledgerSvc service.LedgerService
}

func NewLedgerHandler(ledgerSvc service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

func (h *LedgerHandler) GetTransactions(ctx context.Context, req *dto.GetTransactionsRequest) (*dto.GetTransactionsResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	txs, count, err := h.ledgerSvc.GetTransactions(ctx, actor.UserID, req.Page, pageSize(req.PageSize))
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]dto.LedgerTransaction, len(txs))
	for i := range txs {
		out[i] = dto.MapDomainTransaction(&txs[i])
	}
	return &dto.GetTransactionsResponse{
		Transactions: out,
		TotalCount:   count,
	}, nil
}

func pageSize(n int32) int32 {
	if n <= 0 || n > 100 {
		return 20
	}
	return n
}
