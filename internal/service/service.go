package service

import (
	"context"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/events"
	"book-rental-backend/internal/returns"
)

type RentalOrderService interface {
	// ListReturnable returns the actor's orders that can start a return,
	// soonest rental end date first.
	ListReturnable(ctx context.Context, actor domain.Actor) ([]domain.RentalOrder, error)
	GetForCustomer(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error)
	MarkOverdueOrders(ctx context.Context, asOf time.Time) ([]domain.RentalOrder, error)
}

type CreateReturnInput struct {
	OrderID        string
	Method         domain.ReturnMethod
	Items          []domain.ReturnItem
	IdempotencyKey string
}

// ReturnFilter is the caller-facing search. Status is a status name or
// domain.ReturnStatusAll; empty means all.
type ReturnFilter struct {
	SearchText string
	Status     string
	CustomerID string
}

type ReturnRequestService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateReturnInput) (*domain.ReturnRequest, error)
	Find(ctx context.Context, actor domain.Actor, filter ReturnFilter) ([]domain.ReturnRequest, error)
	Get(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error)
	Update(ctx context.Context, actor domain.Actor, rmaNumber string, in returns.TransitionInput) (*domain.ReturnRequest, error)
	Cancel(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error)
	// ConfirmHandover records that the customer shipped the books or dropped
	// them off at the store, depending on the request's return method.
	ConfirmHandover(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error)
}

type LedgerService interface {
	GetTransactions(ctx context.Context, userID string, page, pageSize int32) ([]domain.LedgerTransaction, int32, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID string, notificationID int64) error
}

type EmailService interface {
	SendReturnStatusNotification(ctx context.Context, email, name string, req *domain.ReturnRequest) error
	SendReturnReminder(ctx context.Context, email, name string, order *domain.RentalOrder) error
	SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error
}

// EventPublisher is satisfied by events.Producer and events.LogPublisher.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Envelope) error
}

// IdempotencyStore is satisfied by cache.IdempotencyStore.
type IdempotencyStore interface {
	Lookup(ctx context.Context, customerID, key string) (string, bool, error)
	Remember(ctx context.Context, customerID, key, rma string) error
}

// pageOffset turns a 1-based page into a row offset.
func pageOffset(page, pageSize int32) int32 {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
