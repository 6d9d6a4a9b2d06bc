package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// messageWriter is the subset of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes alert records as JSON messages, keyed by alert key
// so that every transition of one quantity lands on the same partition.
type KafkaNotifier struct {
	writer messageWriter
	topic  string
}

// KafkaOption configures a KafkaNotifier.
type KafkaOption func(*KafkaNotifier)

// withWriter swaps the underlying writer. Used by tests.
func withWriter(w messageWriter) KafkaOption {
	return func(k *KafkaNotifier) {
		k.writer = w
	}
}

// NewKafkaNotifier creates a notifier writing to topic on brokers.
func NewKafkaNotifier(brokers []string, topic string, opts ...KafkaOption) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	k := &KafkaNotifier{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
		},
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// SendAlert publishes one record.
func (k *KafkaNotifier) SendAlert(ctx context.Context, alert *domain.AlertRecord) error {
	msg, err := toMessage(alert)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing alert to %s: %w", k.topic, err)
	}
	return nil
}

// SendBatchAlert publishes all records in one write.
func (k *KafkaNotifier) SendBatchAlert(ctx context.Context, alerts []domain.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(alerts))
	for i := range alerts {
		msg, err := toMessage(&alerts[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publishing %d alerts to %s: %w", len(msgs), k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

func toMessage(alert *domain.AlertRecord) (kafka.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling alert %s: %w", alert.ID, err)
	}
	return kafka.Message{
		Key:   []byte(alert.Key.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "alert_id", Value: []byte(alert.ID)},
			{Key: "category", Value: []byte(alert.Category)},
		},
		Time: alert.Timestamp,
	}, nil
}
