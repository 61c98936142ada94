package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"book-rental-backend/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func completedRequest() *domain.ReturnRequest {
	refund := int64(95000)
	return &domain.ReturnRequest{
		RMANumber:      "RMA-1",
		RentalOrderID:  "order-1",
		CustomerID:     "cust-1",
		ReturnStatus:   domain.ReturnStatusCompleted,
		Items:          []domain.ReturnItem{{ProductID: "book-1", Quantity: 2}},
		AdditionalFees: 5000,
		RefundAmount:   &refund,
		Version:        6,
		UpdatedAt:      time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
	}
}

func TestReturnEvent(t *testing.T) {
	req := completedRequest()
	env, err := ReturnEvent(req, domain.ReturnStatusInspected, domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}, true)
	require.NoError(t, err)

	assert.Equal(t, EventReturnCompleted, env.EventType)
	assert.Equal(t, "order-1", env.CorrelationID)
	assert.NotEmpty(t, env.EventID)

	p, err := UnwrapPayload[ReturnPayload](env)
	require.NoError(t, err)
	assert.Equal(t, "inspected", p.FromStatus)
	assert.Equal(t, "completed", p.Status)
	assert.True(t, p.OrderClosed)
	assert.Equal(t, []ItemQty{{ProductID: "book-1", Qty: 2}}, p.Items)
	require.NotNil(t, p.RefundAmount)
	assert.Equal(t, int64(95000), *p.RefundAmount)
}

func TestReturnRequestedEvent(t *testing.T) {
	req := completedRequest()
	req.ReturnStatus = domain.ReturnStatusPending
	req.Version = 1
	req.RefundAmount = nil
	req.CreatedAt = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	env, err := ReturnRequestedEvent(req, domain.Actor{UserID: "cust-1", Role: domain.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, EventReturnRequested, env.EventType)
	assert.Equal(t, req.CreatedAt, env.OccurredAt)
	assert.NotContains(t, string(env.Payload), "from_status")

	p, err := UnwrapPayload[ReturnPayload](env)
	require.NoError(t, err)
	assert.Empty(t, p.FromStatus)
	assert.Equal(t, "pending", p.Status)
}

func TestReturnEventAfterFirstTransition(t *testing.T) {
	req := completedRequest()
	req.ReturnStatus = domain.ReturnStatusApproved
	req.Version = 2
	req.RefundAmount = nil

	env, err := ReturnEvent(req, domain.ReturnStatusPending, domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}, false)
	require.NoError(t, err)
	assert.Equal(t, EventReturnStatusChanged, env.EventType)

	p, err := UnwrapPayload[ReturnPayload](env)
	require.NoError(t, err)
	assert.Equal(t, "pending", p.FromStatus)
	assert.Equal(t, "approved", p.Status)
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8)
	p.Start()

	env, err := ReturnEvent(completedRequest(), domain.ReturnStatusInspected, domain.SystemActor, false)
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), env))
	require.NoError(t, p.Publish(context.Background(), env))
	p.Close()

	assert.True(t, w.closed)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("order-1"), w.msgs[0].Key)
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)

	assert.ErrorIs(t, p.Publish(context.Background(), env), ErrProducerClosed)
}

func TestProducerBufferFull(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1)
	env, err := NewEnvelope(EventOrdersMarkedOverdue, "", time.Now(), OverduePayload{OrderIDs: []string{"o1"}})
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), env))
	assert.ErrorIs(t, p.Publish(context.Background(), env), ErrBufferFull)
}
