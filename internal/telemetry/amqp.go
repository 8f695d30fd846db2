package telemetry

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the fanout exchange events are published to.
const DefaultExchange = "climate.relay.events"

// AMQPSink publishes events to a RabbitMQ fanout exchange.
type AMQPSink struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPSink dials url and declares a durable fanout exchange.
func NewAMQPSink(url, exchange string) (*AMQPSink, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPSink{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends the event with the event type as routing key.
func (s *AMQPSink) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = s.channel.PublishWithContext(ctx, s.exchange, event.Type, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   event.Timestamp,
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (s *AMQPSink) Close() error {
	if err := s.channel.Close(); err != nil {
		s.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	return s.conn.Close()
}
