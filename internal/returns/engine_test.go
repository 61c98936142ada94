package returns

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"book-rental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type seqGen struct {
	prefix string
	n      int
}

func (g *seqGen) New() (string, error) {
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n), nil
}

var (
	admin    = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	customer = domain.Actor{UserID: "cust-1", Role: domain.RoleCustomer}
)

func newTestEngine(now time.Time) (*Engine, *fixedClock) {
	clock := &fixedClock{t: now}
	return NewEngine(
		WithClock(clock),
		WithRMAGenerator(&seqGen{prefix: "RMA-"}),
		WithIDGenerator(&seqGen{prefix: "rr-"}),
	), clock
}

func testOrder() *domain.RentalOrder {
	return &domain.RentalOrder{
		ID:                   "order-1",
		CustomerID:           "cust-1",
		RentalStartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		RentalEndDate:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		ReturnWindowDeadline: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		Status:               domain.OrderStatusActive,
		Items: []domain.OrderItem{
			{ProductID: "book-1", Quantity: 2, UnitPrice: 10000},
			{ProductID: "book-2", Quantity: 1, UnitPrice: 8000},
		},
	}
}

func strPtr(s string) *string { return &s }

func ledgerNet(s *domain.Settlement) int64 {
	var net int64
	for _, tx := range s.Transactions {
		net += tx.Amount
	}
	return net
}
func i64Ptr(v int64) *int64 { return &v }

func TestEngine_NewRequest(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		e, _ := newTestEngine(now)
		req, err := e.NewRequest(testOrder(), nil, CreateInput{
			Method: domain.ReturnMethodShipping,
			Items:  []domain.ReturnItem{{ProductID: "book-1", Quantity: 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, "RMA-1", req.RMANumber)
		assert.Equal(t, "rr-1", req.ID)
		assert.Equal(t, domain.ReturnStatusPending, req.ReturnStatus)
		assert.Equal(t, "cust-1", req.CustomerID)
		assert.Equal(t, int64(100000), req.RentalValue)
		assert.Equal(t, int64(10000), req.Items[0].UnitPrice)
		assert.Equal(t, testOrder().ReturnWindowDeadline, req.ReturnDeadline)
		assert.Nil(t, req.RefundAmount)
		assert.Equal(t, int64(1), req.Version)
	})

	t.Run("Overdue order is eligible", func(t *testing.T) {
		e, _ := newTestEngine(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
		_, err := e.NewRequest(testOrder(), nil, CreateInput{
			Method: domain.ReturnMethodStorePickup,
			Items:  []domain.ReturnItem{{ProductID: "book-2", Quantity: 1}},
		})
		assert.NoError(t, err)
	})

	t.Run("Closed order", func(t *testing.T) {
		e, _ := newTestEngine(now)
		order := testOrder()
		order.Status = domain.OrderStatusClosed
		_, err := e.NewRequest(order, nil, CreateInput{
			Method: domain.ReturnMethodShipping,
			Items:  []domain.ReturnItem{{ProductID: "book-1", Quantity: 1}},
		})
		assert.True(t, errors.Is(err, domain.ErrNotEligible))
		assert.ErrorContains(t, err, "order order-1 is closed")
	})

	itemCases := []struct {
		name     string
		items    []domain.ReturnItem
		returned map[string]int32
	}{
		{"no items", nil, nil},
		{"unknown product", []domain.ReturnItem{{ProductID: "book-9", Quantity: 1}}, nil},
		{"zero quantity", []domain.ReturnItem{{ProductID: "book-1", Quantity: 0}}, nil},
		{"more than ordered", []domain.ReturnItem{{ProductID: "book-1", Quantity: 3}}, nil},
		{"already returned", []domain.ReturnItem{{ProductID: "book-1", Quantity: 2}}, map[string]int32{"book-1": 1}},
		{"duplicate product", []domain.ReturnItem{{ProductID: "book-1", Quantity: 1}, {ProductID: "book-1", Quantity: 1}}, nil},
	}
	for _, tc := range itemCases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine(now)
			_, err := e.NewRequest(testOrder(), tc.returned, CreateInput{Method: domain.ReturnMethodShipping, Items: tc.items})
			assert.True(t, errors.Is(err, domain.ErrInvalidItems), "got %v", err)
		})
	}

	t.Run("Unknown method", func(t *testing.T) {
		e, _ := newTestEngine(now)
		_, err := e.NewRequest(testOrder(), nil, CreateInput{
			Method: "drone",
			Items:  []domain.ReturnItem{{ProductID: "book-1", Quantity: 1}},
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})
}

func newPending(t *testing.T, e *Engine, method domain.ReturnMethod) *domain.ReturnRequest {
	t.Helper()
	req, err := e.NewRequest(testOrder(), nil, CreateInput{
		Method: method,
		Items:  []domain.ReturnItem{{ProductID: "book-1", Quantity: 2}},
	})
	require.NoError(t, err)
	return req
}

func apply(t *testing.T, e *Engine, req *domain.ReturnRequest, in TransitionInput) *domain.ReturnRequest {
	t.Helper()
	next, err := e.Apply(req, in)
	require.NoError(t, err)
	return next
}

func TestEngine_FullShippingPath(t *testing.T) {
	e, clock := newTestEngine(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	req := newPending(t, e, domain.ReturnMethodShipping)

	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusApproved, Actor: admin})
	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusShipped, Actor: customer})
	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusReceived, Actor: admin})
	req = apply(t, e, req, TransitionInput{
		Target:          domain.ReturnStatusInspected,
		Actor:           admin,
		InspectionNotes: strPtr("ok"),
		AdditionalFees:  i64Ptr(0),
	})
	clock.t = clock.t.Add(time.Hour)
	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusCompleted, Actor: admin})

	assert.Equal(t, domain.ReturnStatusCompleted, req.ReturnStatus)
	require.NotNil(t, req.RefundAmount)
	assert.Equal(t, int64(100000), *req.RefundAmount)
	assert.Equal(t, "ok", *req.InspectionNotes)
	assert.Equal(t, int64(6), req.Version)
	assert.Equal(t, clock.t, req.UpdatedAt)

	for _, target := range domain.AllReturnStatuses() {
		_, err := e.Apply(req, TransitionInput{Target: target, Actor: admin})
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "completed -> %s", target)
	}
}

func TestEngine_StorePickupSkipsShipped(t *testing.T) {
	e, _ := newTestEngine(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	req := newPending(t, e, domain.ReturnMethodStorePickup)
	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusApproved, Actor: admin})

	_, err := e.Apply(req, TransitionInput{Target: domain.ReturnStatusShipped, Actor: customer})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusReceived, Actor: customer})
	assert.Equal(t, domain.ReturnStatusReceived, req.ReturnStatus)
}

func TestEngine_ShippingCannotSkipShipped(t *testing.T) {
	e, _ := newTestEngine(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	req := newPending(t, e, domain.ReturnMethodShipping)
	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusApproved, Actor: admin})

	_, err := e.Apply(req, TransitionInput{Target: domain.ReturnStatusReceived, Actor: admin})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestEngine_Inspection(t *testing.T) {
	e, _ := newTestEngine(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	received := newPending(t, e, domain.ReturnMethodStorePickup)
	received = apply(t, e, received, TransitionInput{Target: domain.ReturnStatusApproved, Actor: admin})
	received = apply(t, e, received, TransitionInput{Target: domain.ReturnStatusReceived, Actor: admin})

	t.Run("Fees without description", func(t *testing.T) {
		_, err := e.Apply(received, TransitionInput{
			Target:          domain.ReturnStatusInspected,
			Actor:           admin,
			InspectionNotes: strPtr("cover torn"),
			AdditionalFees:  i64Ptr(50000),
			FeeDescription:  strPtr(""),
		})
		assert.True(t, errors.Is(err, domain.ErrMissingFeeDescription))
		assert.Equal(t, domain.ReturnStatusReceived, received.ReturnStatus)
		assert.Zero(t, received.AdditionalFees)
	})

	t.Run("Blank description counts as missing", func(t *testing.T) {
		_, err := e.Apply(received, TransitionInput{
			Target:          domain.ReturnStatusInspected,
			Actor:           admin,
			InspectionNotes: strPtr(""),
			AdditionalFees:  i64Ptr(1),
			FeeDescription:  strPtr("   "),
		})
		assert.True(t, errors.Is(err, domain.ErrMissingFeeDescription))
	})

	t.Run("Notes must be provided", func(t *testing.T) {
		_, err := e.Apply(received, TransitionInput{Target: domain.ReturnStatusInspected, Actor: admin})
		assert.True(t, errors.Is(err, domain.ErrMissingInspectionNotes))
	})

	t.Run("Empty notes are allowed", func(t *testing.T) {
		next, err := e.Apply(received, TransitionInput{
			Target:          domain.ReturnStatusInspected,
			Actor:           admin,
			InspectionNotes: strPtr(""),
		})
		require.NoError(t, err)
		assert.Equal(t, "", *next.InspectionNotes)
	})

	t.Run("Negative fees", func(t *testing.T) {
		_, err := e.Apply(received, TransitionInput{
			Target:          domain.ReturnStatusInspected,
			Actor:           admin,
			InspectionNotes: strPtr(""),
			AdditionalFees:  i64Ptr(-1),
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})

	t.Run("Customer cannot inspect", func(t *testing.T) {
		_, err := e.Apply(received, TransitionInput{
			Target:          domain.ReturnStatusInspected,
			Actor:           customer,
			InspectionNotes: strPtr(""),
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})

	t.Run("Inspection fields on another transition", func(t *testing.T) {
		_, err := e.Apply(received, TransitionInput{
			Target:          domain.ReturnStatusCancelled,
			Actor:           admin,
			InspectionNotes: strPtr("x"),
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})
}

func TestEngine_Refund(t *testing.T) {
	e, _ := newTestEngine(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	inspect := func(fees int64) *domain.ReturnRequest {
		req := newPending(t, e, domain.ReturnMethodStorePickup)
		req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusApproved, Actor: admin})
		req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusReceived, Actor: admin})
		return apply(t, e, req, TransitionInput{
			Target:          domain.ReturnStatusInspected,
			Actor:           admin,
			InspectionNotes: strPtr("checked"),
			AdditionalFees:  &fees,
			FeeDescription:  strPtr("damage"),
		})
	}

	tests := []struct {
		name     string
		fees     int64
		expected int64
	}{
		{"no fees", 0, 100000},
		{"partial fees", 30000, 70000},
		{"fees equal value", 100000, 0},
		{"fees exceed value", 150000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := apply(t, e, inspect(tt.fees), TransitionInput{Target: domain.ReturnStatusCompleted, Actor: admin})
			assert.Equal(t, tt.expected, *done.RefundAmount)
		})
	}

	t.Run("Override", func(t *testing.T) {
		done := apply(t, e, inspect(30000), TransitionInput{
			Target:         domain.ReturnStatusCompleted,
			Actor:          admin,
			RefundOverride: i64Ptr(90000),
		})
		assert.Equal(t, int64(90000), *done.RefundAmount)
	})

	t.Run("Override above value", func(t *testing.T) {
		_, err := e.Apply(inspect(0), TransitionInput{
			Target:         domain.ReturnStatusCompleted,
			Actor:          admin,
			RefundOverride: i64Ptr(100001),
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})
}

func TestEngine_Cancel(t *testing.T) {
	e, _ := newTestEngine(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))

	t.Run("Customer cancels pending", func(t *testing.T) {
		req := newPending(t, e, domain.ReturnMethodShipping)
		done := apply(t, e, req, TransitionInput{Target: domain.ReturnStatusCancelled, Actor: customer})
		assert.Equal(t, domain.ReturnStatusCancelled, done.ReturnStatus)
		assert.Nil(t, done.RefundAmount)
	})

	t.Run("Customer cannot cancel approved", func(t *testing.T) {
		req := apply(t, e, newPending(t, e, domain.ReturnMethodShipping), TransitionInput{Target: domain.ReturnStatusApproved, Actor: admin})
		_, err := e.Apply(req, TransitionInput{Target: domain.ReturnStatusCancelled, Actor: customer})
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})

	t.Run("Admin cancels from every open status", func(t *testing.T) {
		req := newPending(t, e, domain.ReturnMethodShipping)
		path := []TransitionInput{
			{Target: domain.ReturnStatusApproved, Actor: admin},
			{Target: domain.ReturnStatusShipped, Actor: admin},
			{Target: domain.ReturnStatusReceived, Actor: admin},
			{Target: domain.ReturnStatusInspected, Actor: admin, InspectionNotes: strPtr("")},
		}
		for _, step := range path {
			cancelled := apply(t, e, req, TransitionInput{Target: domain.ReturnStatusCancelled, Actor: admin})
			assert.Equal(t, domain.ReturnStatusCancelled, cancelled.ReturnStatus)
			req = apply(t, e, req, step)
		}
		cancelled := apply(t, e, req, TransitionInput{Target: domain.ReturnStatusCancelled, Actor: admin})
		assert.Equal(t, domain.ReturnStatusCancelled, cancelled.ReturnStatus)

		_, err := e.Apply(cancelled, TransitionInput{Target: domain.ReturnStatusPending, Actor: admin})
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})

	t.Run("Repeating a transition is rejected", func(t *testing.T) {
		req := apply(t, e, newPending(t, e, domain.ReturnMethodShipping), TransitionInput{Target: domain.ReturnStatusApproved, Actor: admin})
		_, err := e.Apply(req, TransitionInput{Target: domain.ReturnStatusApproved, Actor: admin})
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})
}

func TestEngine_Settle(t *testing.T) {
	e, _ := newTestEngine(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	order := testOrder()

	req := newPending(t, e, domain.ReturnMethodStorePickup)
	_, err := e.Settle(req, order, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusApproved, Actor: admin})
	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusReceived, Actor: admin})
	req = apply(t, e, req, TransitionInput{
		Target:          domain.ReturnStatusInspected,
		Actor:           admin,
		InspectionNotes: strPtr("water damage"),
		AdditionalFees:  i64Ptr(20000),
		FeeDescription:  strPtr("water damage"),
	})
	req = apply(t, e, req, TransitionInput{Target: domain.ReturnStatusCompleted, Actor: admin})

	t.Run("Partial return keeps order open", func(t *testing.T) {
		s, err := e.Settle(req, order, nil)
		require.NoError(t, err)
		require.Len(t, s.Transactions, 2)
		assert.Equal(t, domain.TransactionTypeRefund, s.Transactions[0].Type)
		assert.Equal(t, int64(100000), s.Transactions[0].Amount)
		assert.Equal(t, domain.TransactionTypeReturnFee, s.Transactions[1].Type)
		assert.Equal(t, int64(-20000), s.Transactions[1].Amount)
		assert.Equal(t, *req.RefundAmount, ledgerNet(s))
		assert.Empty(t, s.CloseOrderID)
	})

	t.Run("Override nets to the overridden refund", func(t *testing.T) {
		overridden := req.Clone()
		overridden.RefundAmount = i64Ptr(50000)
		s, err := e.Settle(overridden, order, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(70000), s.Transactions[0].Amount)
		assert.Equal(t, int64(50000), ledgerNet(s))
	})

	t.Run("Fees above rental value net to zero", func(t *testing.T) {
		costly := req.Clone()
		costly.AdditionalFees = 150000
		costly.RefundAmount = i64Ptr(0)
		s, err := e.Settle(costly, order, nil)
		require.NoError(t, err)
		require.Len(t, s.Transactions, 2)
		assert.Equal(t, int64(0), ledgerNet(s))
	})

	t.Run("Last items close the order", func(t *testing.T) {
		s, err := e.Settle(req, order, map[string]int32{"book-2": 1})
		require.NoError(t, err)
		assert.Equal(t, "order-1", s.CloseOrderID)
	})
}
