package domain

import "time"

type TransactionType string

const (
	TransactionTypeRefund    TransactionType = "REFUND"
	TransactionTypeReturnFee TransactionType = "RETURN_FEE"
)

type LedgerTransaction struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"user_id"`
	Amount          int64           `json:"amount"` // positive for credit, negative for debit
	Type            TransactionType `json:"type"`
	RelatedOrderID  string          `json:"related_order_id,omitempty"`
	RelatedReturnID string          `json:"related_return_id,omitempty"`
	Description     string          `json:"description"`
	ChargedOn       time.Time       `json:"charged_on"`
	CreatedOn       time.Time       `json:"created_on"`
}

// Settlement is everything that must be persisted together with a completed
// return request.
type Settlement struct {
	Transactions []LedgerTransaction
	// CloseOrderID is set when the completion returns the last outstanding item.
	CloseOrderID string
}
