package service_test

import (
	"context"
	"sync"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/events"
	"book-rental-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// MockReturnRepo
type MockReturnRepo struct {
	mock.Mock
}

func (m *MockReturnRepo) Create(ctx context.Context, req *domain.ReturnRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockReturnRepo) GetByRMA(ctx context.Context, rmaNumber string) (*domain.ReturnRequest, error) {
	args := m.Called(ctx, rmaNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRequest).Clone(), args.Error(1)
}
func (m *MockReturnRepo) Find(ctx context.Context, filter repository.ReturnRequestFilter) ([]domain.ReturnRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReturnRequest), args.Error(1)
}
func (m *MockReturnRepo) OpenOrderIDs(ctx context.Context, customerID string) (map[string]bool, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(map[string]bool), args.Error(1)
}
func (m *MockReturnRepo) ReturnedQuantities(ctx context.Context, orderID string) (map[string]int32, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(map[string]int32), args.Error(1)
}
func (m *MockReturnRepo) Update(ctx context.Context, req *domain.ReturnRequest, expectedVersion int64, settlement *domain.Settlement) error {
	args := m.Called(ctx, req, expectedVersion, settlement)
	return args.Error(0)
}

// MockOrderRepo
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) GetByID(ctx context.Context, id string) (*domain.RentalOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalOrder), args.Error(1)
}
func (m *MockOrderRepo) ListByCustomer(ctx context.Context, customerID string, statuses ...domain.OrderStatus) ([]domain.RentalOrder, error) {
	args := m.Called(ctx, customerID, statuses)
	return args.Get(0).([]domain.RentalOrder), args.Error(1)
}
func (m *MockOrderRepo) MarkOverdue(ctx context.Context, asOf time.Time) ([]domain.RentalOrder, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).([]domain.RentalOrder), args.Error(1)
}
func (m *MockOrderRepo) ListReturnWindowClosing(ctx context.Context, from, to time.Time) ([]domain.RentalOrder, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.RentalOrder), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendReturnStatusNotification(ctx context.Context, email, name string, req *domain.ReturnRequest) error {
	args := m.Called(ctx, email, name, req)
	return args.Error(0)
}
func (m *MockEmailService) SendReturnReminder(ctx context.Context, email, name string, order *domain.RentalOrder) error {
	args := m.Called(ctx, email, name, order)
	return args.Error(0)
}
func (m *MockEmailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	args := m.Called(ctx, adminEmail, subject, message)
	return args.Error(0)
}

// recordingPublisher keeps every published envelope.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

// memIdempotency is an in-process IdempotencyStore.
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memIdempotency) Lookup(ctx context.Context, customerID, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[customerID+":"+key]
	return v, ok, nil
}

func (m *memIdempotency) Remember(ctx context.Context, customerID, key, rma string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string]string{}
	}
	if _, ok := m.keys[customerID+":"+key]; !ok {
		m.keys[customerID+":"+key] = rma
	}
	return nil
}

// slowReturnRepo blocks reads until the caller's deadline passes.
type slowReturnRepo struct {
	repository.ReturnRequestRepository
}

func (r slowReturnRepo) GetByRMA(ctx context.Context, rmaNumber string) (*domain.ReturnRequest, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
