package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

type capturingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *capturingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *capturingWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Parallel()

	event := domain.ReservationEvent{
		Type:          domain.EventReservationCreated,
		ReservationID: "res-1",
		BookID:        "book-1",
		UserID:        "user-1",
		ToStatus:      domain.StatusPending,
		Timestamp:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	t.Run("writes the event keyed by reservation id", func(t *testing.T) {
		writer := &capturingWriter{}
		pub := &KafkaPublisher{writer: writer, logger: zap.NewNop()}

		require.NoError(t, pub.Publish(context.Background(), event))
		require.Len(t, writer.messages, 1)

		msg := writer.messages[0]
		assert.Equal(t, "res-1", string(msg.Key))

		var decoded domain.ReservationEvent
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, event, decoded)
	})

	t.Run("surfaces writer errors", func(t *testing.T) {
		writer := &capturingWriter{err: errors.New("broker unreachable")}
		pub := &KafkaPublisher{writer: writer, logger: zap.NewNop()}

		assert.Error(t, pub.Publish(context.Background(), event))
	})
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NopPublisher{}.Publish(context.Background(), domain.ReservationEvent{}))
}
