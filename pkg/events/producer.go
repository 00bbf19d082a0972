package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/glowshop/pkg/logging"
)

const (
	TopicCart     = "cart_events"
	TopicRating   = "rating_events"
	TopicOrder    = "order_events"
	TopicProduct  = "product_events"
	TopicWishlist = "wishlist_events"
)

const publishTimeout = 5 * time.Second

type Event struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event Event) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a Kafka-backed publisher, or Nop when no brokers are
// configured. Writes are asynchronous; delivery failures are logged by the
// writer's completion callback.
func NewPublisher(brokers []string) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			Async:        true,
			Completion:   logCompletion,
		},
	}
}

func logCompletion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		slog.Default().Warn("event_delivery_failed", "topic", m.Topic, "key", string(m.Key), "error", err)
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: marshal %s: %w", event.Type, err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  event.At,
	}); err != nil {
		return fmt.Errorf("kafka: write %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, Event) error { return nil }
func (Nop) Close() error                                         { return nil }

// Emit publishes without failing the caller; errors are only logged.
func Emit(ctx context.Context, p Publisher, topic, key, typ string, payload any) {
	if p == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(pubCtx, topic, key, Event{Type: typ, At: time.Now().UTC(), Payload: payload}); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", typ, "error", err)
	}
}

type Published struct {
	Topic string
	Key   string
	Event Event
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

func (r *Recorder) Publish(_ context.Context, topic, key string, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Published, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types() []string {
	evs := r.Events()
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Event.Type)
	}
	return out
}
