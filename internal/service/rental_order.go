package service

import (
	"context"
	"sort"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/events"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/repository"
	"book-rental-backend/internal/utils"
)

type rentalOrderService struct {
	orderRepo  repository.RentalOrderRepository
	returnRepo repository.ReturnRequestRepository
	publisher  EventPublisher
	now        func() time.Time
	settings   ReturnSettings
}

func NewRentalOrderService(
	orderRepo repository.RentalOrderRepository,
	returnRepo repository.ReturnRequestRepository,
	publisher EventPublisher,
	now func() time.Time,
	settings ReturnSettings,
) RentalOrderService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &rentalOrderService{
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		publisher:  publisher,
		now:        now,
		settings:   settings.withDefaults(),
	}
}

// MarkOverdueIfRentalEnded returns order with its status as of now: an
// active order whose rental end date has passed reads as overdue.
func MarkOverdueIfRentalEnded(order domain.RentalOrder, now time.Time) domain.RentalOrder {
	order.Status = order.StatusAt(now)
	return order
}

func (s *rentalOrderService) ListReturnable(ctx context.Context, actor domain.Actor) ([]domain.RentalOrder, error) {
	logger.EnterMethod("rentalOrderService.ListReturnable", "userID", actor.UserID)

	if !actor.IsCustomer() {
		logger.ExitMethodWithError("rentalOrderService.ListReturnable", domain.ErrForbidden, "role", actor.Role)
		return nil, domain.ErrForbidden
	}

	var (
		orders []domain.RentalOrder
		open   map[string]bool
	)
	err := s.settings.retry(ctx, "ListReturnable", func(ctx context.Context) error {
		return s.settings.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			orders, err = s.orderRepo.ListByCustomer(ctx, actor.UserID, domain.OrderStatusActive, domain.OrderStatusOverdue)
			if err != nil {
				return err
			}
			open, err = s.returnRepo.OpenOrderIDs(ctx, actor.UserID)
			return err
		})
	})
	if err != nil {
		logger.ExitMethodWithError("rentalOrderService.ListReturnable", err, "userID", actor.UserID)
		return nil, err
	}

	now := s.now()
	out := make([]domain.RentalOrder, 0, len(orders))
	for _, o := range orders {
		o = MarkOverdueIfRentalEnded(o, now)
		if o.Status == domain.OrderStatusClosed || open[o.ID] {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RentalEndDate.Equal(out[j].RentalEndDate) {
			return out[i].RentalEndDate.Before(out[j].RentalEndDate)
		}
		return out[i].ID < out[j].ID
	})

	logger.ExitMethod("rentalOrderService.ListReturnable", "userID", actor.UserID, "count", len(out))
	return out, nil
}

func (s *rentalOrderService) GetForCustomer(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error) {
	var order *domain.RentalOrder
	err := s.settings.retry(ctx, "GetOrder", func(ctx context.Context) error {
		return s.settings.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			order, err = s.orderRepo.GetByID(ctx, orderID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if actor.IsCustomer() && order.CustomerID != actor.UserID {
		return nil, domain.ErrOrderNotFound
	}
	o := MarkOverdueIfRentalEnded(*order, s.now())
	return &o, nil
}

func (s *rentalOrderService) MarkOverdueOrders(ctx context.Context, asOf time.Time) ([]domain.RentalOrder, error) {
	logger.EnterMethod("rentalOrderService.MarkOverdueOrders", "asOf", utils.FormatDate(asOf))

	var changed []domain.RentalOrder
	err := s.settings.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		changed, err = s.orderRepo.MarkOverdue(ctx, asOf)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("rentalOrderService.MarkOverdueOrders", err)
		return nil, err
	}

	if len(changed) > 0 && s.publisher != nil {
		ids := make([]string, len(changed))
		for i, o := range changed {
			ids[i] = o.ID
		}
		env, err := events.NewEnvelope(events.EventOrdersMarkedOverdue, "", s.now(), events.OverduePayload{OrderIDs: ids, AsOf: utils.FormatDate(asOf)})
		if err == nil {
			err = s.publisher.Publish(ctx, env)
		}
		if err != nil {
			logger.Warn("Failed to publish overdue event", "count", len(ids), "error", err)
		}
	}

	logger.ExitMethod("rentalOrderService.MarkOverdueOrders", "count", len(changed))
	return changed, nil
}
