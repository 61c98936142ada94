// Package events publishes return-request lifecycle events to Kafka.
package events

import (
	"time"

	"book-rental-backend/internal/domain"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	EventReturnRequested     = "ReturnRequested"
	EventReturnStatusChanged = "ReturnStatusChanged"
	EventReturnCompleted     = "ReturnCompleted"
	EventOrdersMarkedOverdue = "OrdersMarkedOverdue"

	TopicReturnRequests = "bookrental.returns"

	producerName = "book-rental-backend"
	eventVersion = 1
)

type Envelope struct {
	EventID       string              `json:"event_id"`
	EventType     string              `json:"event_type"`
	EventVersion  int                 `json:"event_version"`
	OccurredAt    time.Time           `json:"occurred_at"`
	Producer      string              `json:"producer"`
	CorrelationID string              `json:"correlation_id,omitempty"` // rental order id
	Payload       jsoniter.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type ReturnPayload struct {
	RMANumber      string    `json:"rma_number"`
	RentalOrderID  string    `json:"rental_order_id"`
	CustomerID     string    `json:"customer_id"`
	FromStatus     string    `json:"from_status,omitempty"`
	Status         string    `json:"status"`
	ActorRole      string    `json:"actor_role,omitempty"`
	Items          []ItemQty `json:"items"`
	AdditionalFees int64     `json:"additional_fees,omitempty"`
	RefundAmount   *int64    `json:"refund_amount,omitempty"`
	OrderClosed    bool      `json:"order_closed,omitempty"`
}

type OverduePayload struct {
	OrderIDs []string `json:"order_ids"`
	AsOf     string   `json:"as_of"`
}

// NewEnvelope wraps payload with a fresh event id.
func NewEnvelope(eventType, correlationID string, occurredAt time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    occurredAt.UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

func returnPayload(req *domain.ReturnRequest, actor domain.Actor) ReturnPayload {
	p := ReturnPayload{
		RMANumber:      req.RMANumber,
		RentalOrderID:  req.RentalOrderID,
		CustomerID:     req.CustomerID,
		Status:         req.ReturnStatus.String(),
		ActorRole:      string(actor.Role),
		AdditionalFees: req.AdditionalFees,
		RefundAmount:   req.RefundAmount,
	}
	for _, it := range req.Items {
		p.Items = append(p.Items, ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	return p
}

// ReturnRequestedEvent describes a newly created request. It carries no
// from_status.
func ReturnRequestedEvent(req *domain.ReturnRequest, actor domain.Actor) (Envelope, error) {
	return NewEnvelope(EventReturnRequested, req.RentalOrderID, req.CreatedAt, returnPayload(req, actor))
}

// ReturnEvent describes req after a transition out of from.
func ReturnEvent(req *domain.ReturnRequest, from domain.ReturnStatus, actor domain.Actor, orderClosed bool) (Envelope, error) {
	eventType := EventReturnStatusChanged
	if req.ReturnStatus == domain.ReturnStatusCompleted {
		eventType = EventReturnCompleted
	}

	p := returnPayload(req, actor)
	p.FromStatus = from.String()
	p.OrderClosed = orderClosed
	return NewEnvelope(eventType, req.RentalOrderID, req.UpdatedAt, p)
}

// UnwrapPayload decodes the payload of an envelope.
func UnwrapPayload[T any](e Envelope) (T, error) {
	var t T
	err := json.Unmarshal(e.Payload, &t)
	return t, err
}
