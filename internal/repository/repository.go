package repository

import (
	"context"
	"time"

	"book-rental-backend/internal/domain"
)

type RentalOrderRepository interface {
	// GetByID fails with domain.ErrOrderNotFound when no order has id.
	GetByID(ctx context.Context, id string) (*domain.RentalOrder, error)
	ListByCustomer(ctx context.Context, customerID string, statuses ...domain.OrderStatus) ([]domain.RentalOrder, error)
	// MarkOverdue persists active -> overdue for orders whose rental ended
	// before asOf's date and returns the orders it changed.
	MarkOverdue(ctx context.Context, asOf time.Time) ([]domain.RentalOrder, error)
	// ListReturnWindowClosing returns non-closed orders whose return window
	// deadline falls in [from, to).
	ListReturnWindowClosing(ctx context.Context, from, to time.Time) ([]domain.RentalOrder, error)
}

// ReturnRequestFilter narrows Find. A nil Status means every status.
type ReturnRequestFilter struct {
	SearchText string
	Status     *domain.ReturnStatus
	CustomerID string
}

type ReturnRequestRepository interface {
	// Create fails with domain.ErrDuplicateOpenRequest when the order already
	// has an open request. The check and the insert are atomic.
	Create(ctx context.Context, req *domain.ReturnRequest) error
	// GetByRMA fails with domain.ErrRequestNotFound when nothing matches.
	GetByRMA(ctx context.Context, rmaNumber string) (*domain.ReturnRequest, error)
	// Find returns matches newest first, with Customer populated.
	Find(ctx context.Context, filter ReturnRequestFilter) ([]domain.ReturnRequest, error)
	// OpenOrderIDs returns the orders of customerID that have an open request.
	OpenOrderIDs(ctx context.Context, customerID string) (map[string]bool, error)
	// ReturnedQuantities sums item quantities of completed requests on orderID.
	ReturnedQuantities(ctx context.Context, orderID string) (map[string]int32, error)
	// Update stores req only if the stored version still equals
	// expectedVersion, otherwise it fails with domain.ErrConflictRetry. A
	// non-nil settlement is written in the same transaction.
	Update(ctx context.Context, req *domain.ReturnRequest, expectedVersion int64, settlement *domain.Settlement) error
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

type LedgerRepository interface {
	CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]domain.LedgerTransaction, int32, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id int64, userID string) error
}
