// Package memory keeps every repository in process memory. It backs local
// runs with database.type=memory and the service tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/repository"

	"golang.org/x/text/cases"
)

type Store struct {
	mu sync.RWMutex

	orders        map[string]*domain.RentalOrder
	customers     map[string]*domain.Customer
	requests      map[string]*domain.ReturnRequest // by RMA number
	ledger        []domain.LedgerTransaction
	notifications []domain.Notification
	nextLedgerID  int64
	nextNoteID    int64

	now func() time.Time

	Orders        repository.RentalOrderRepository
	Returns       repository.ReturnRequestRepository
	Customers     repository.CustomerRepository
	Ledger        repository.LedgerRepository
	Notifications repository.NotificationRepository
}

func NewStore() *Store {
	s := &Store{
		orders:    make(map[string]*domain.RentalOrder),
		customers: make(map[string]*domain.Customer),
		requests:  make(map[string]*domain.ReturnRequest),
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.Orders = orderRepo{s}
	s.Returns = returnRepo{s}
	s.Customers = customerRepo{s}
	s.Ledger = ledgerRepo{s}
	s.Notifications = notificationRepo{s}
	return s
}

// PutCustomer inserts or replaces a customer.
func (s *Store) PutCustomer(c domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = &c
}

// PutOrder inserts or replaces an order.
func (s *Store) PutOrder(o domain.RentalOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
}

// Transactions returns a copy of the ledger.
func (s *Store) Transactions() []domain.LedgerTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LedgerTransaction(nil), s.ledger...)
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ErrUpstreamTimeout
		}
		return err
	}
	return nil
}

type orderRepo struct{ s *Store }

func (r orderRepo) GetByID(ctx context.Context, id string) (*domain.RentalOrder, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (r orderRepo) ListByCustomer(ctx context.Context, customerID string, statuses ...domain.OrderStatus) ([]domain.RentalOrder, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.RentalOrder
	for _, o := range r.s.orders {
		if o.CustomerID != customerID || !hasStatus(statuses, o.Status) {
			continue
		}
		out = append(out, *o.Clone())
	}
	sortOrders(out, func(o domain.RentalOrder) time.Time { return o.RentalEndDate })
	return out, nil
}

func hasStatus(statuses []domain.OrderStatus, s domain.OrderStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func sortOrders(orders []domain.RentalOrder, key func(domain.RentalOrder) time.Time) {
	sort.Slice(orders, func(i, j int) bool {
		ki, kj := key(orders[i]), key(orders[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return orders[i].ID < orders[j].ID
	})
}

func (r orderRepo) MarkOverdue(ctx context.Context, asOf time.Time) ([]domain.RentalOrder, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var changed []domain.RentalOrder
	for _, o := range r.s.orders {
		if o.StatusAt(asOf) == domain.OrderStatusOverdue && o.Status == domain.OrderStatusActive {
			o.Status = domain.OrderStatusOverdue
			o.UpdatedAt = r.s.now()
			changed = append(changed, *o.Clone())
		}
	}
	sortOrders(changed, func(o domain.RentalOrder) time.Time { return o.RentalEndDate })
	return changed, nil
}

func (r orderRepo) ListReturnWindowClosing(ctx context.Context, from, to time.Time) ([]domain.RentalOrder, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.RentalOrder
	for _, o := range r.s.orders {
		d := o.ReturnWindowDeadline
		if o.Status != domain.OrderStatusClosed && !d.Before(from) && d.Before(to) {
			out = append(out, *o.Clone())
		}
	}
	sortOrders(out, func(o domain.RentalOrder) time.Time { return o.ReturnWindowDeadline })
	return out, nil
}

type returnRepo struct{ s *Store }

// withCustomer attaches display fields. Caller holds the lock.
func (r returnRepo) withCustomer(rr *domain.ReturnRequest) *domain.ReturnRequest {
	out := rr.Clone()
	if c, ok := r.s.customers[rr.CustomerID]; ok {
		cp := *c
		out.Customer = &cp
	}
	return out
}

func (r returnRepo) Create(ctx context.Context, req *domain.ReturnRequest) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.requests {
		if existing.RentalOrderID == req.RentalOrderID && existing.IsOpen() {
			return domain.ErrDuplicateOpenRequest
		}
	}
	if _, ok := r.s.requests[req.RMANumber]; ok {
		return domain.NewInvalidArgumentError("rma number already issued: " + req.RMANumber)
	}
	stored := req.Clone()
	stored.Customer = nil
	r.s.requests[req.RMANumber] = stored
	return nil
}

func (r returnRepo) GetByRMA(ctx context.Context, rmaNumber string) (*domain.ReturnRequest, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rr, ok := r.s.requests[rmaNumber]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return r.withCustomer(rr), nil
}

func containsFold(fold cases.Caser, haystack, needle string) bool {
	return strings.Contains(fold.String(haystack), needle)
}

func (r returnRepo) Find(ctx context.Context, filter repository.ReturnRequestFilter) ([]domain.ReturnRequest, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(filter.SearchText))
	var out []domain.ReturnRequest
	for _, rr := range r.s.requests {
		if filter.CustomerID != "" && rr.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != nil && rr.ReturnStatus != *filter.Status {
			continue
		}
		full := r.withCustomer(rr)
		if needle != "" {
			match := containsFold(fold, full.RMANumber, needle)
			if !match && full.Customer != nil {
				match = containsFold(fold, full.Customer.FullName, needle) || containsFold(fold, full.Customer.Email, needle)
			}
			if !match {
				continue
			}
		}
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RMANumber > out[j].RMANumber
	})
	return out, nil
}

func (r returnRepo) OpenOrderIDs(ctx context.Context, customerID string) (map[string]bool, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]bool)
	for _, rr := range r.s.requests {
		if rr.CustomerID == customerID && rr.IsOpen() {
			out[rr.RentalOrderID] = true
		}
	}
	return out, nil
}

func (r returnRepo) ReturnedQuantities(ctx context.Context, orderID string) (map[string]int32, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]int32)
	for _, rr := range r.s.requests {
		if rr.RentalOrderID != orderID || rr.ReturnStatus != domain.ReturnStatusCompleted {
			continue
		}
		for _, it := range rr.Items {
			out[it.ProductID] += it.Quantity
		}
	}
	return out, nil
}

func (r returnRepo) Update(ctx context.Context, req *domain.ReturnRequest, expectedVersion int64, settlement *domain.Settlement) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.requests[req.RMANumber]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrConflictRetry
	}
	stored := req.Clone()
	stored.Customer = nil
	r.s.requests[req.RMANumber] = stored

	if settlement == nil {
		return nil
	}
	for _, tx := range settlement.Transactions {
		r.s.nextLedgerID++
		tx.ID = r.s.nextLedgerID
		r.s.ledger = append(r.s.ledger, tx)
	}
	if o, ok := r.s.orders[settlement.CloseOrderID]; ok {
		o.Status = domain.OrderStatusClosed
		o.UpdatedAt = req.UpdatedAt
	}
	return nil
}

type customerRepo struct{ s *Store }

func (r customerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, domain.NewInvalidArgumentError("unknown customer " + id)
	}
	cp := *c
	return &cp, nil
}

type ledgerRepo struct{ s *Store }

func (r ledgerRepo) CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextLedgerID++
	tx.ID = r.s.nextLedgerID
	r.s.ledger = append(r.s.ledger, *tx)
	return nil
}

func (r ledgerRepo) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]domain.LedgerTransaction, int32, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var mine []domain.LedgerTransaction
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		if r.s.ledger[i].UserID == userID {
			mine = append(mine, r.s.ledger[i])
		}
	}
	return page(mine, limit, offset), int32(len(mine)), nil
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextNoteID++
	n.ID = r.s.nextNoteID
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var mine []domain.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if r.s.notifications[i].UserID == userID {
			mine = append(mine, r.s.notifications[i])
		}
	}
	return page(mine, limit, offset), int32(len(mine)), nil
}

func (r notificationRepo) MarkAsRead(ctx context.Context, id int64, userID string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id && r.s.notifications[i].UserID == userID {
			r.s.notifications[i].IsRead = true
			return nil
		}
	}
	return domain.ErrRequestNotFound
}

func page[T any](items []T, limit, offset int32) []T {
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}
