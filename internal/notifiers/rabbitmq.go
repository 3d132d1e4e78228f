package notifiers

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/models"
)

//go:generate mockgen -source=rabbitmq.go -destination=rabbitmq_mock.go -package=notifiers

// AMQPChannel is the subset of *amqp.Channel used for publishing.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQNotifier publishes notification events to a durable topic exchange,
// routed by notification kind.
type RabbitMQNotifier struct {
	conn     *amqp.Connection
	channel  AMQPChannel
	exchange string
}

// DialRabbitMQNotifier connects to url and declares exchange.
func DialRabbitMQNotifier(url, exchange string) (*RabbitMQNotifier, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	n, err := NewRabbitMQNotifier(ch, exchange)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

// NewRabbitMQNotifier declares exchange on channel and returns a notifier using it.
func NewRabbitMQNotifier(channel AMQPChannel, exchange string) (*RabbitMQNotifier, error) {
	if err := channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		logger.Log.Errorw("failed to declare notification exchange", "exchange", exchange, "error", err)
		return nil, err
	}
	return &RabbitMQNotifier{channel: channel, exchange: exchange}, nil
}

// Notify publishes n with its kind as routing key.
func (r *RabbitMQNotifier) Notify(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		logger.Log.Errorw("failed to marshal notification for RabbitMQ", "event_id", n.EventID, "error", err)
		return err
	}

	err = r.channel.PublishWithContext(ctx,
		r.exchange, // exchange
		n.Kind,     // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.EventID,
			Timestamp:    n.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		logger.Log.Errorw("failed to publish notification to RabbitMQ", "event_id", n.EventID, "kind", n.Kind, "invoice_id", n.InvoiceID, "error", err)
		return err
	}

	logger.Log.Infow("notification published to RabbitMQ", "event_id", n.EventID, "kind", n.Kind, "invoice_id", n.InvoiceID)
	return nil
}

// Close closes the channel and, when owned, the connection.
func (r *RabbitMQNotifier) Close() error {
	err := r.channel.Close()
	if r.conn != nil {
		if cerr := r.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
