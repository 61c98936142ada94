package events

import (
	"context"
	"sync"
	"time"

	"book-rental-backend/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Publisher accepts events for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, e Envelope) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages and writes them from one goroutine so request
// handlers never block on the broker.
type Producer struct {
	w        messageWriter
	inbox    chan kafka.Message
	closeCh  chan struct{}
	once     sync.Once
	mu       sync.RWMutex
	closed   bool
	writeTTL time.Duration
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf)
}

func newProducer(w messageWriter, buf int) *Producer {
	if buf <= 0 {
		buf = 256
	}
	return &Producer{
		w:        w,
		inbox:    make(chan kafka.Message, buf),
		closeCh:  make(chan struct{}),
		writeTTL: 10 * time.Second,
	}
}

// Start drains the buffer until Close is called, then flushes what is left.
func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			p.write(m)
		}
		if err := p.w.Close(); err != nil {
			logger.Error("Failed to close kafka writer", "error", err)
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTTL)
	defer cancel()
	logger.ExternalServiceCall("kafka", "WriteMessages", "key", string(m.Key))
	err := p.w.WriteMessages(ctx, m)
	logger.ExternalServiceResult("kafka", "WriteMessages", err, "key", string(m.Key))
}

// Publish enqueues e keyed by its correlation id so events of one order stay
// ordered. It fails only when the buffer is full or the producer is closed.
func (p *Producer) Publish(ctx context.Context, e Envelope) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(e.CorrelationID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// Close stops accepting events and waits for the buffer to flush.
func (p *Producer) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
	})
	<-p.closeCh
}

// LogPublisher only logs events. It is used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Envelope) error {
	logger.InfoContext(ctx, "Event emitted", "eventType", e.EventType, "eventID", e.EventID, "correlationID", e.CorrelationID)
	return nil
}
