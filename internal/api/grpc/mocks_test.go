package grpc_test

import (
	"context"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/returns"
	"book-rental-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockReturnService
type MockReturnService struct {
	mock.Mock
}

func (m *MockReturnService) Create(ctx context.Context, actor domain.Actor, in service.CreateReturnInput) (*domain.ReturnRequest, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRequest), args.Error(1)
}
func (m *MockReturnService) Find(ctx context.Context, actor domain.Actor, filter service.ReturnFilter) ([]domain.ReturnRequest, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReturnRequest), args.Error(1)
}
func (m *MockReturnService) Get(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error) {
	args := m.Called(ctx, actor, rmaNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRequest), args.Error(1)
}
func (m *MockReturnService) Update(ctx context.Context, actor domain.Actor, rmaNumber string, in returns.TransitionInput) (*domain.ReturnRequest, error) {
	args := m.Called(ctx, actor, rmaNumber, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRequest), args.Error(1)
}
func (m *MockReturnService) Cancel(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error) {
	args := m.Called(ctx, actor, rmaNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRequest), args.Error(1)
}
func (m *MockReturnService) ConfirmHandover(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error) {
	args := m.Called(ctx, actor, rmaNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRequest), args.Error(1)
}

// MockOrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) ListReturnable(ctx context.Context, actor domain.Actor) ([]domain.RentalOrder, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RentalOrder), args.Error(1)
}
func (m *MockOrderService) GetForCustomer(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error) {
	args := m.Called(ctx, actor, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalOrder), args.Error(1)
}
func (m *MockOrderService) MarkOverdueOrders(ctx context.Context, asOf time.Time) ([]domain.RentalOrder, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).([]domain.RentalOrder), args.Error(1)
}
