package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultKafkaTopic is the topic events are written to.
const DefaultKafkaTopic = "climate-relay-events"

// KafkaSink writes events to a Kafka topic keyed by node id, so each node's
// events stay ordered within a partition.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a writer for the given brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

// Publish writes one event.
func (s *KafkaSink) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(int(event.Node))),
		Value: payload,
		Time:  event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
