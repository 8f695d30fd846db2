// Package status provides a thread-safe status tracker for climate-relay nodes.
// It is written by the control loop and read by HTTP handlers and telemetry.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/climate-relay/internal/logic"
	"github.com/sweeney/climate-relay/internal/packet"
)

// NetworkInfo contains network state reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains node configuration for display.
type Config struct {
	Role        string
	Node        packet.NodeID
	Radio       string // radio driver, e.g. "mqtt" or "serial"
	Telemetry   string // telemetry driver
	PollMs      int64  // actuator poll interval
	CycleMs     int64  // coordinator cycle interval
	SpacingMs   int64  // coordinator inter-send spacing
	HeartbeatMs int64
	HTTPAddr    string
}

// ActuatorCounts counts what happened to inbound frames and the output.
type ActuatorCounts struct {
	Applied      int // addressed packets applied
	Unaddressed  int // valid packets for another node
	Malformed    int // frames that failed to decode
	Expiries     int // watchdog shutoffs
	OutputErrors int // failed GPIO writes
}

// ActuatorStatus is the state of an actuator node.
type ActuatorStatus struct {
	Power         logic.State
	ExpiresAt     time.Time // zero while off
	LastCommand   *packet.Packet
	LastCommandAt time.Time
	Counts        ActuatorCounts
}

// CoordinatorCounts counts coordinator activity.
type CoordinatorCounts struct {
	Cycles         int
	Sent           int
	SendFailures   int
	SensorFailures int
}

// CoordinatorStatus is the state of the coordinator after its last cycle.
type CoordinatorStatus struct {
	LastCycle time.Time
	Readings  logic.Readings
	Decisions logic.Decisions
	Counts    CoordinatorCounts
}

// Snapshot is a point-in-time view of node state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	StartTime      time.Time
	Now            time.Time
	RadioConnected bool
	Network        *NetworkInfo
	Config         Config
	Actuator       *ActuatorStatus    // set on actuator nodes
	Coordinator    *CoordinatorStatus // set on the coordinator
}

// Uptime returns the duration since the node started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable node state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// UpdateActuator replaces the actuator section.
func (t *Tracker) UpdateActuator(s ActuatorStatus) {
	t.mu.Lock()
	t.snap.Actuator = &s
	t.mu.Unlock()
}

// UpdateCoordinator replaces the coordinator section.
func (t *Tracker) UpdateCoordinator(s CoordinatorStatus) {
	t.mu.Lock()
	t.snap.Coordinator = &s
	t.mu.Unlock()
}

// SetRadioConnected sets the radio link status.
func (t *Tracker) SetRadioConnected(connected bool) {
	t.mu.Lock()
	t.snap.RadioConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the node state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Actuator != nil {
		a := *s.Actuator
		s.Actuator = &a
	}
	if s.Coordinator != nil {
		c := *s.Coordinator
		s.Coordinator = &c
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
