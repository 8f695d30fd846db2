package telemetry

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// TopicPrefix is the MQTT topic prefix for node events. The full topic is
// TopicPrefix/<role>/<node>.
const TopicPrefix = "climate/relay/events"

// MQTTSink publishes events to an MQTT broker.
type MQTTSink struct {
	client paho.Client
}

// NewMQTTSink creates a sink connected to the given broker.
func NewMQTTSink(broker, clientID string) (*MQTTSink, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTSink{client: client}, nil
}

// Topic returns the topic an event is published on.
func Topic(event Event) string {
	return fmt.Sprintf("%s/%s/%d", TopicPrefix, event.Role, event.Node)
}

// Publish sends the event at QoS 1.
func (s *MQTTSink) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	token := s.client.Publish(Topic(event), 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (s *MQTTSink) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(1000) // 1 second timeout
	return nil
}
