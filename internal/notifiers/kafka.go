package notifiers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/models"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=kafka.go -destination=kafka_mock.go -package=notifiers

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// KafkaNotifier publishes notification events to a Kafka topic for the mailer.
type KafkaNotifier struct {
	writer KafkaWriter
}

// NewKafkaWriter builds a writer for topic that balances by key, so events of
// one invoice stay ordered on one partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaNotifier creates a notifier on top of writer.
func NewKafkaNotifier(writer KafkaWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

// Notify publishes n keyed by invoice id.
func (k *KafkaNotifier) Notify(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		logger.Log.Errorw("failed to marshal notification for Kafka", "event_id", n.EventID, "error", err)
		return err
	}

	msg := kafka.Message{
		Key:   []byte(n.InvoiceID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish notification to Kafka", "event_id", n.EventID, "kind", n.Kind, "invoice_id", n.InvoiceID, "error", err)
		return err
	}

	logger.Log.Infow("notification published to Kafka", "event_id", n.EventID, "kind", n.Kind, "invoice_id", n.InvoiceID)
	return nil
}

// Close closes the underlying writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
