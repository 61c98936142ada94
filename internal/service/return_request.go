package service

import (
	"context"
	"fmt"
	"strings"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/events"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/repository"
	"book-rental-backend/internal/returns"
)

type returnRequestService struct {
	engine       *returns.Engine
	orders       RentalOrderService
	orderRepo    repository.RentalOrderRepository
	returnRepo   repository.ReturnRequestRepository
	customerRepo repository.CustomerRepository
	notify       *notifier
	publisher    EventPublisher
	idempotency  IdempotencyStore
	settings     ReturnSettings
	locks        *keyedMutex
}

type ReturnRequestDeps struct {
	Engine       *returns.Engine
	Orders       RentalOrderService
	OrderRepo    repository.RentalOrderRepository
	ReturnRepo   repository.ReturnRequestRepository
	CustomerRepo repository.CustomerRepository
	NoteRepo     repository.NotificationRepository
	EmailSvc     EmailService
	// AdminEmail receives a message for every new request; empty disables it.
	AdminEmail   string
	Publisher    EventPublisher
	Idempotency  IdempotencyStore
	Settings     ReturnSettings
}

func NewReturnRequestService(deps ReturnRequestDeps) ReturnRequestService {
	engine := deps.Engine
	if engine == nil {
		engine = returns.NewEngine()
	}
	settings := deps.Settings.withDefaults()
	orders := deps.Orders
	if orders == nil {
		orders = NewRentalOrderService(deps.OrderRepo, deps.ReturnRepo, deps.Publisher, engine.Now, settings)
	}
	return &returnRequestService{
		engine:       engine,
		orders:       orders,
		orderRepo:    deps.OrderRepo,
		returnRepo:   deps.ReturnRepo,
		customerRepo: deps.CustomerRepo,
		notify: &notifier{
			noteRepo:     deps.NoteRepo,
			customerRepo: deps.CustomerRepo,
			emailSvc:     deps.EmailSvc,
			adminEmail:   deps.AdminEmail,
		},
		publisher:   deps.Publisher,
		idempotency: deps.Idempotency,
		settings:    settings,
		locks:       newKeyedMutex(),
	}
}

func (s *returnRequestService) Create(ctx context.Context, actor domain.Actor, in CreateReturnInput) (*domain.ReturnRequest, error) {
	logger.EnterMethod("returnRequestService.Create", "userID", actor.UserID, "orderID", in.OrderID, "method", in.Method)

	if !actor.IsCustomer() {
		logger.ExitMethodWithError("returnRequestService.Create", domain.ErrForbidden, "role", actor.Role)
		return nil, domain.ErrForbidden
	}

	if existing := s.replayed(ctx, actor, in.IdempotencyKey); existing != nil {
		logger.ExitMethod("returnRequestService.Create", "rma", existing.RMANumber, "replayed", true)
		return existing, nil
	}

	order, err := s.orders.GetForCustomer(ctx, actor, in.OrderID)
	if err != nil {
		logger.ExitMethodWithError("returnRequestService.Create", err, "orderID", in.OrderID)
		return nil, err
	}

	var returned map[string]int32
	err = s.settings.retry(ctx, "ReturnedQuantities", func(ctx context.Context) error {
		return s.settings.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			returned, err = s.returnRepo.ReturnedQuantities(ctx, order.ID)
			return err
		})
	})
	if err != nil {
		logger.ExitMethodWithError("returnRequestService.Create", err, "orderID", in.OrderID)
		return nil, err
	}

	req, err := s.engine.NewRequest(order, returned, returns.CreateInput{
		OrderID: order.ID,
		Method:  in.Method,
		Items:   in.Items,
	})
	if err != nil {
		logger.ExitMethodWithError("returnRequestService.Create", err, "orderID", in.OrderID)
		return nil, err
	}

	// Not retried: a timed-out insert may still have committed.
	err = s.settings.withTimeout(ctx, func(ctx context.Context) error {
		return s.returnRepo.Create(ctx, req)
	})
	if err != nil {
		logger.ExitMethodWithError("returnRequestService.Create", err, "orderID", in.OrderID)
		return nil, err
	}

	if in.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Remember(ctx, actor.UserID, in.IdempotencyKey, req.RMANumber); err != nil {
			logger.Warn("Failed to store idempotency key", "rma", req.RMANumber, "error", err)
		}
	}

	if s.customerRepo != nil {
		if c, err := s.customerRepo.GetByID(ctx, req.CustomerID); err == nil {
			req.Customer = c
		}
	}
	s.afterCreate(ctx, req, actor)

	logger.ExitMethod("returnRequestService.Create", "rma", req.RMANumber)
	return req, nil
}

// replayed returns the request created earlier under key, or nil.
func (s *returnRequestService) replayed(ctx context.Context, actor domain.Actor, key string) *domain.ReturnRequest {
	if key == "" || s.idempotency == nil {
		return nil
	}
	rma, ok, err := s.idempotency.Lookup(ctx, actor.UserID, key)
	if err != nil {
		logger.Warn("Idempotency lookup failed", "userID", actor.UserID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	req, err := s.Get(ctx, actor, rma)
	if err != nil {
		return nil
	}
	return req
}

func (s *returnRequestService) Find(ctx context.Context, actor domain.Actor, filter ReturnFilter) ([]domain.ReturnRequest, error) {
	logger.EnterMethod("returnRequestService.Find", "userID", actor.UserID, "role", actor.Role, "status", filter.Status)

	repoFilter := repository.ReturnRequestFilter{
		SearchText: strings.TrimSpace(filter.SearchText),
		CustomerID: filter.CustomerID,
	}
	if st := strings.TrimSpace(filter.Status); st != "" && !strings.EqualFold(st, domain.ReturnStatusAll) {
		status, err := domain.ParseReturnStatus(st)
		if err != nil {
			logger.ExitMethodWithError("returnRequestService.Find", err)
			return nil, err
		}
		repoFilter.Status = &status
	}
	if actor.IsCustomer() {
		repoFilter.CustomerID = actor.UserID
	}

	var out []domain.ReturnRequest
	err := s.settings.retry(ctx, "Find", func(ctx context.Context) error {
		return s.settings.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			out, err = s.returnRepo.Find(ctx, repoFilter)
			return err
		})
	})
	if err != nil {
		logger.ExitMethodWithError("returnRequestService.Find", err)
		return nil, err
	}

	logger.ExitMethod("returnRequestService.Find", "count", len(out))
	return out, nil
}

func (s *returnRequestService) load(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error) {
	var req *domain.ReturnRequest
	err := s.settings.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.returnRepo.GetByRMA(ctx, rmaNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	if actor.IsCustomer() && req.CustomerID != actor.UserID {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

func (s *returnRequestService) Get(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error) {
	var req *domain.ReturnRequest
	err := s.settings.retry(ctx, "Get", func(ctx context.Context) error {
		var err error
		req, err = s.load(ctx, actor, rmaNumber)
		return err
	})
	return req, err
}

func (s *returnRequestService) Update(ctx context.Context, actor domain.Actor, rmaNumber string, in returns.TransitionInput) (*domain.ReturnRequest, error) {
	logger.EnterMethod("returnRequestService.Update", "rma", rmaNumber, "target", in.Target, "role", actor.Role)
	in.Actor = actor

	var (
		updated *domain.ReturnRequest
		from    domain.ReturnStatus
		closed  bool
	)
	err := s.settings.retry(ctx, "Update", func(ctx context.Context) error {
		var err error
		updated, from, closed, err = s.updateOnce(ctx, rmaNumber, in)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("returnRequestService.Update", err, "rma", rmaNumber)
		return nil, err
	}

	s.afterChange(ctx, updated, from, actor, closed)
	logger.ExitMethod("returnRequestService.Update", "rma", rmaNumber, "status", updated.ReturnStatus, "version", updated.Version)
	return updated, nil
}

// updateOnce is one locked load-apply-store attempt.
func (s *returnRequestService) updateOnce(ctx context.Context, rmaNumber string, in returns.TransitionInput) (*domain.ReturnRequest, domain.ReturnStatus, bool, error) {
	unlock := s.locks.Lock(rmaNumber)
	defer unlock()

	current, err := s.load(ctx, in.Actor, rmaNumber)
	if err != nil {
		return nil, 0, false, err
	}

	next, err := s.engine.Apply(current, in)
	if err != nil {
		return nil, current.ReturnStatus, false, err
	}

	var settlement *domain.Settlement
	if next.ReturnStatus == domain.ReturnStatusCompleted {
		settlement, err = s.settle(ctx, next)
		if err != nil {
			return nil, current.ReturnStatus, false, err
		}
	}

	err = s.settings.withTimeout(ctx, func(ctx context.Context) error {
		return s.returnRepo.Update(ctx, next, current.Version, settlement)
	})
	if err != nil {
		return nil, current.ReturnStatus, false, err
	}
	return next, current.ReturnStatus, settlement != nil && settlement.CloseOrderID != "", nil
}

func (s *returnRequestService) settle(ctx context.Context, req *domain.ReturnRequest) (*domain.Settlement, error) {
	var (
		order    *domain.RentalOrder
		returned map[string]int32
	)
	err := s.settings.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByID(ctx, req.RentalOrderID)
		if err != nil {
			return err
		}
		returned, err = s.returnRepo.ReturnedQuantities(ctx, req.RentalOrderID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load settlement inputs for %s: %w", req.RMANumber, err)
	}
	return s.engine.Settle(req, order, returned)
}

func (s *returnRequestService) Cancel(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error) {
	return s.Update(ctx, actor, rmaNumber, returns.TransitionInput{Target: domain.ReturnStatusCancelled})
}

func (s *returnRequestService) ConfirmHandover(ctx context.Context, actor domain.Actor, rmaNumber string) (*domain.ReturnRequest, error) {
	req, err := s.Get(ctx, actor, rmaNumber)
	if err != nil {
		return nil, err
	}
	target := domain.ReturnStatusShipped
	if req.ReturnMethod == domain.ReturnMethodStorePickup {
		target = domain.ReturnStatusReceived
	}
	return s.Update(ctx, actor, rmaNumber, returns.TransitionInput{Target: target})
}

func (s *returnRequestService) afterCreate(ctx context.Context, req *domain.ReturnRequest, actor domain.Actor) {
	logger.WithRMA(req.RMANumber).InfoContext(ctx, "Return request created",
		"status", req.ReturnStatus, "orderID", req.RentalOrderID, "actor", actor.UserID, "version", req.Version)
	s.notify.returnStatusChanged(ctx, req)
	s.notify.returnRequested(ctx, req)

	env, err := events.ReturnRequestedEvent(req, actor)
	s.publish(ctx, req, env, err)
}

func (s *returnRequestService) afterChange(ctx context.Context, req *domain.ReturnRequest, from domain.ReturnStatus, actor domain.Actor, orderClosed bool) {
	logger.WithRMA(req.RMANumber).InfoContext(ctx, "Return request changed",
		"from", from, "to", req.ReturnStatus, "actor", actor.UserID, "version", req.Version, "orderClosed", orderClosed)
	s.notify.returnStatusChanged(ctx, req)

	env, err := events.ReturnEvent(req, from, actor, orderClosed)
	s.publish(ctx, req, env, err)
}

func (s *returnRequestService) publish(ctx context.Context, req *domain.ReturnRequest, env events.Envelope, err error) {
	if s.publisher == nil {
		return
	}
	if err == nil {
		err = s.publisher.Publish(ctx, env)
	}
	if err != nil {
		logger.Warn("Failed to publish return event", "rma", req.RMANumber, "error", err)
	}
}
