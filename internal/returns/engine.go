// Package returns holds the return request state machine. It never touches
// storage and never mutates its input; every operation returns a new value.
package returns

import (
	"fmt"
	"strings"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/utils"
)

type Engine struct {
	clock Clock
	rma   IDGen
	ids   IDGen
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithRMAGenerator(g IDGen) Option {
	return func(e *Engine) { e.rma = g }
}

func WithIDGenerator(g IDGen) Option {
	return func(e *Engine) { e.ids = g }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock: realClock{},
		rma:   newRMAGen(),
		ids:   uuidGen{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// CreateInput is what a customer submits when asking to return books.
type CreateInput struct {
	OrderID string
	Method  domain.ReturnMethod
	Items   []domain.ReturnItem
}

// NewRequest validates in against order and builds a pending request.
// returned holds the quantities per product already taken back by completed
// requests on the same order. Uniqueness of the open request is enforced by
// the registry, not here.
func (e *Engine) NewRequest(order *domain.RentalOrder, returned map[string]int32, in CreateInput) (*domain.ReturnRequest, error) {
	now := e.clock.Now()

	switch status := order.StatusAt(now); status {
	case domain.OrderStatusActive, domain.OrderStatusOverdue:
	default:
		return nil, domain.NewNotEligibleError(fmt.Sprintf("order %s is %s", order.ID, status))
	}

	if !in.Method.IsValid() {
		return nil, domain.NewInvalidArgumentError(fmt.Sprintf("unknown return method %q", in.Method))
	}

	items, value, err := e.priceItems(order, returned, in.Items)
	if err != nil {
		return nil, err
	}

	id, err := e.ids.New()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	rma, err := e.rma.New()
	if err != nil {
		return nil, fmt.Errorf("generate rma number: %w", err)
	}

	return &domain.ReturnRequest{
		ID:             id,
		RMANumber:      rma,
		RentalOrderID:  order.ID,
		CustomerID:     order.CustomerID,
		ReturnMethod:   in.Method,
		Items:          items,
		ReturnStatus:   domain.ReturnStatusPending,
		ReturnDeadline: order.ReturnWindowDeadline,
		RentalValue:    value,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (e *Engine) priceItems(order *domain.RentalOrder, returned map[string]int32, in []domain.ReturnItem) ([]domain.ReturnItem, int64, error) {
	if len(in) == 0 {
		return nil, 0, domain.NewInvalidItemsError("at least one item must be returned")
	}

	seen := make(map[string]bool, len(in))
	items := make([]domain.ReturnItem, 0, len(in))
	var value int64
	for _, it := range in {
		if seen[it.ProductID] {
			return nil, 0, domain.NewInvalidItemsError(fmt.Sprintf("product %s listed twice", it.ProductID))
		}
		seen[it.ProductID] = true

		line, ok := order.Item(it.ProductID)
		if !ok {
			return nil, 0, domain.NewInvalidItemsError(fmt.Sprintf("product %s is not on order %s", it.ProductID, order.ID))
		}
		if it.Quantity <= 0 {
			return nil, 0, domain.NewInvalidItemsError(fmt.Sprintf("quantity for product %s must be positive", it.ProductID))
		}
		if remaining := line.Quantity - returned[it.ProductID]; it.Quantity > remaining {
			return nil, 0, domain.NewInvalidItemsError(fmt.Sprintf("product %s: requested %d, only %d outstanding", it.ProductID, it.Quantity, remaining))
		}

		total, err := utils.LineTotal(line.UnitPrice, it.Quantity, order.RentalStartDate, order.RentalEndDate)
		if err != nil {
			return nil, 0, err
		}
		value += total
		items = append(items, domain.ReturnItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: line.UnitPrice})
	}
	return items, value, nil
}

// TransitionInput asks for req to move to Target. Inspection fields are only
// accepted when Target is inspected, RefundOverride only when it is completed.
// A nil pointer means "not provided".
type TransitionInput struct {
	Target          domain.ReturnStatus
	Actor           domain.Actor
	InspectionNotes *string
	AdditionalFees  *int64
	FeeDescription  *string
	RefundOverride  *int64
}

func (in TransitionInput) hasInspection() bool {
	return in.InspectionNotes != nil || in.AdditionalFees != nil || in.FeeDescription != nil
}

// Apply runs the transition and returns the updated copy of req.
func (e *Engine) Apply(req *domain.ReturnRequest, in TransitionInput) (*domain.ReturnRequest, error) {
	from := req.ReturnStatus
	if !in.Target.IsValid() {
		return nil, domain.NewInvalidArgumentError(fmt.Sprintf("unknown target status %d", uint8(in.Target)))
	}
	if from.IsTerminal() {
		return nil, &domain.DomainError{
			Code:    domain.ErrCodeInvalidTransition,
			Message: fmt.Sprintf("return request %s is already %s", req.RMANumber, from),
		}
	}
	if !CanTransition(from, in.Target, req.ReturnMethod, in.Actor.Role) {
		return nil, domain.NewInvalidTransitionError(from, in.Target)
	}
	if in.hasInspection() && in.Target != domain.ReturnStatusInspected {
		return nil, domain.NewInvalidArgumentError("inspection details can only be recorded when moving to inspected")
	}
	if in.RefundOverride != nil && in.Target != domain.ReturnStatusCompleted {
		return nil, domain.NewInvalidArgumentError("refund amount can only be set when completing")
	}

	next := req.Clone()
	switch in.Target {
	case domain.ReturnStatusInspected:
		if err := applyInspection(next, in); err != nil {
			return nil, err
		}
	case domain.ReturnStatusCompleted:
		refund, err := refundFor(next, in.RefundOverride)
		if err != nil {
			return nil, err
		}
		next.RefundAmount = &refund
	}

	next.ReturnStatus = in.Target
	next.UpdatedAt = e.clock.Now()
	next.Version = req.Version + 1
	return next, nil
}

func applyInspection(next *domain.ReturnRequest, in TransitionInput) error {
	if in.InspectionNotes == nil {
		return domain.ErrMissingInspectionNotes
	}
	var fees int64
	if in.AdditionalFees != nil {
		fees = *in.AdditionalFees
	}
	if fees < 0 {
		return domain.NewInvalidArgumentError("additional fees must not be negative")
	}
	desc := ""
	if in.FeeDescription != nil {
		desc = strings.TrimSpace(*in.FeeDescription)
	}
	if fees > 0 && desc == "" {
		return domain.ErrMissingFeeDescription
	}

	notes := *in.InspectionNotes
	next.InspectionNotes = &notes
	next.AdditionalFees = fees
	next.FeeDescription = desc
	return nil
}

// refundFor settles the refund: the full rental value of the returned items
// less fees, floored at zero, unless staff override it.
func refundFor(req *domain.ReturnRequest, override *int64) (int64, error) {
	if override != nil {
		if *override < 0 || *override > req.RentalValue {
			return 0, domain.NewInvalidArgumentError(fmt.Sprintf("refund override must be between 0 and %d", req.RentalValue))
		}
		return *override, nil
	}
	refund := req.RentalValue - req.AdditionalFees
	if refund < 0 {
		refund = 0
	}
	return refund, nil
}
