package radio

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// DefaultTopic carries every command frame; nodes filter by target id.
const DefaultTopic = "climate/relay/broadcast"

const (
	connectTimeout = 10 * time.Second
	sendTimeout    = 2 * time.Second
)

// MQTTConfig configures an MQTT-backed channel.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	// Listen subscribes to the topic. Coordinators only send.
	Listen    bool
	InboxSize int
}

// MQTTChannel emulates the broadcast radio over a single MQTT topic at QoS 0
// (at-most-once), which matches the lossy channel semantics.
type MQTTChannel struct {
	client paho.Client
	topic  string
	inbox  *inbox
	logger *zap.Logger
}

// NewMQTTChannel connects to the broker. An unreachable broker is not fatal:
// the client keeps retrying in the background and frames sent meanwhile are
// lost, as they would be on a radio link.
func NewMQTTChannel(cfg MQTTConfig, logger *zap.Logger) *MQTTChannel {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	c := &MQTTChannel{
		topic:  topic,
		inbox:  newInbox(cfg.InboxSize),
		logger: logger.With(zap.String("broker", cfg.Broker), zap.String("topic", topic)),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.logger.Warn("mqtt connection lost", zap.Error(err))
		})

	if cfg.Listen {
		// Subscriptions do not survive a clean-session reconnect.
		opts.SetOnConnectHandler(func(client paho.Client) {
			token := client.Subscribe(c.topic, 0, c.onMessage)
			if !token.WaitTimeout(connectTimeout) {
				c.logger.Warn("mqtt subscribe timeout")
				return
			}
			if err := token.Error(); err != nil {
				c.logger.Error("mqtt subscribe failed", zap.Error(err))
				return
			}
			c.logger.Info("mqtt subscribed")
		})
	}

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		c.logger.Warn("mqtt connect still pending, continuing in background")
	} else if err := token.Error(); err != nil {
		c.logger.Warn("mqtt connect failed, retrying in background", zap.Error(err))
	}

	return c
}

func (c *MQTTChannel) onMessage(_ paho.Client, msg paho.Message) {
	c.inbox.deliver(msg.Payload())
}

// Send publishes the frame at QoS 0, not retained. A retained command would
// be replayed to a node that restarts, bypassing its safe off default.
func (c *MQTTChannel) Send(frame []byte) error {
	token := c.client.Publish(c.topic, 0, false, frame)
	if !token.WaitTimeout(sendTimeout) {
		return fmt.Errorf("mqtt publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

// Receive waits up to timeout for the next frame on the topic.
func (c *MQTTChannel) Receive(timeout time.Duration) ([]byte, error) {
	return c.inbox.receive(timeout)
}

// IsConnected reports whether the broker connection is up.
func (c *MQTTChannel) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Dropped returns the number of frames discarded by the inbox.
func (c *MQTTChannel) Dropped() uint64 {
	return c.inbox.Dropped()
}

// Close disconnects from the broker and unblocks Receive.
func (c *MQTTChannel) Close() error {
	c.inbox.close()
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
