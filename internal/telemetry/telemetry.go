// Package telemetry publishes node lifecycle and actuation events for
// observers. It is strictly one-way and off the control path: a node behaves
// identically whether or not anyone receives these events.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/sweeney/climate-relay/internal/packet"
)

// Event types.
const (
	EventStartup   = "STARTUP"
	EventShutdown  = "SHUTDOWN"
	EventHeartbeat = "HEARTBEAT"
	EventDispatch  = "DISPATCH"
)

// Roles.
const (
	RoleCoordinator = "coordinator"
	RoleActuator    = "actuator"
)

// Sink delivers events to an external system.
type Sink interface {
	// Publish sends one event. Returns error if publishing fails (should not
	// crash the process).
	Publish(event Event) error

	// Close releases the connection.
	Close() error
}

// Event is a single telemetry record.
type Event struct {
	Timestamp time.Time
	Node      packet.NodeID
	Role      string
	Type      string        // e.g. "STARTUP", "POWER_ON", "DISPATCH"
	Reason    string        // e.g. "SIGTERM", "expired"
	Window    time.Duration // active window for power events
	Command   *packet.Packet
	Retained  bool   // Whether an MQTT broker should retain the message
	Status    []byte // Pre-formatted status snapshot JSON, embedded verbatim
}

// Payload is the JSON envelope for every event.
type Payload struct {
	Relay PayloadInner `json:"relay"`
}

// PayloadInner contains the event details.
type PayloadInner struct {
	Timestamp     string          `json:"timestamp"`
	Node          uint8           `json:"node"`
	Role          string          `json:"role"`
	Event         string          `json:"event"`
	Reason        string          `json:"reason,omitempty"`
	WindowSeconds int64           `json:"window_seconds,omitempty"`
	Command       *CommandJSON    `json:"command,omitempty"`
	Status        json.RawMessage `json:"status,omitempty"`
}

// CommandJSON is the JSON form of a dispatched packet.
type CommandJSON struct {
	Target   uint8 `json:"target"`
	Activate bool  `json:"activate"`
	Duration uint8 `json:"duration_seconds"`
}

// FormatPayload creates the JSON payload for an event.
func FormatPayload(event Event) ([]byte, error) {
	inner := PayloadInner{
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339),
		Node:          uint8(event.Node),
		Role:          event.Role,
		Event:         event.Type,
		Reason:        event.Reason,
		WindowSeconds: int64(event.Window / time.Second),
	}
	if event.Command != nil {
		inner.Command = &CommandJSON{
			Target:   uint8(event.Command.Target),
			Activate: event.Command.Activate,
			Duration: event.Command.Duration,
		}
	}
	if len(event.Status) > 0 {
		inner.Status = json.RawMessage(event.Status)
	}
	return json.Marshal(Payload{Relay: inner})
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close() error        { return nil }
