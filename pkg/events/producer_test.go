package events

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_NoBrokers(t *testing.T) {
	p := NewPublisher(nil)
	_, ok := p.(Nop)
	require.True(t, ok)
	require.NoError(t, p.Publish(context.Background(), TopicCart, "k", Event{Type: "x"}))
	require.NoError(t, p.Close())
}

func TestNewPublisher_Kafka(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"})
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "localhost:9092", kp.writer.Addr.String())
	assert.True(t, kp.writer.Async)
	assert.NotNil(t, kp.writer.Completion)
	require.NoError(t, p.Close())
}

func TestEmit_Records(t *testing.T) {
	rec := &Recorder{}
	Emit(context.Background(), rec, TopicRating, "user-1", "rating_submitted", map[string]any{"rating": 5})

	evs := rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, TopicRating, evs[0].Topic)
	assert.Equal(t, "user-1", evs[0].Key)
	assert.Equal(t, "rating_submitted", evs[0].Event.Type)
	assert.False(t, evs[0].Event.At.IsZero())
}

func TestEmit_SwallowsErrors(t *testing.T) {
	rec := &Recorder{Err: errors.New("broker down")}
	assert.NotPanics(t, func() {
		Emit(context.Background(), rec, TopicOrder, "k", "order_created", nil)
		Emit(context.Background(), nil, TopicOrder, "k", "order_created", nil)
	})
	assert.Empty(t, rec.Types())
}

func TestLogCompletion_NeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		logCompletion([]kafka.Message{{Topic: TopicCart}}, nil)
		logCompletion([]kafka.Message{{Topic: TopicCart, Key: []byte("u-1")}}, errors.New("broker down"))
	})
}
