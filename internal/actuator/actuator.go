// Package actuator runs the receive side of a climate-relay node: it listens
// on the broadcast channel, applies packets addressed to this node, and keeps
// one relay output in step with a fail-safe watchdog.
package actuator

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/climate-relay/internal/gpio"
	"github.com/sweeney/climate-relay/internal/logic"
	"github.com/sweeney/climate-relay/internal/packet"
	"github.com/sweeney/climate-relay/internal/radio"
	"github.com/sweeney/climate-relay/internal/status"
	"github.com/sweeney/climate-relay/internal/telemetry"
)

// DefaultPollInterval is half the shortest window a packet can carry.
const DefaultPollInterval = 500 * time.Millisecond

// ReasonShutdown marks the power-off issued when the node stops.
const ReasonShutdown = "shutdown"

// Config holds the controller parameters.
type Config struct {
	Node         packet.NodeID
	PollInterval time.Duration
	Now          func() time.Time // defaults to time.Now
}

// Controller owns the output line. It is not safe for concurrent use; the
// node's control loop is its only caller.
type Controller struct {
	node   packet.NodeID
	poll   time.Duration
	now    func() time.Time
	out    gpio.Output
	rx     radio.Receiver
	sink   telemetry.Sink
	logger *zap.Logger

	watchdog *logic.Watchdog

	// level is the last level written successfully; written is false until
	// the first write lands.
	level   bool
	written bool

	counts    status.ActuatorCounts
	lastCmd   *packet.Packet
	lastCmdAt time.Time
}

// New creates a controller with the output logically off. The line itself
// is driven low on the first Poll.
func New(cfg Config, out gpio.Output, rx radio.Receiver, sink telemetry.Sink, logger *zap.Logger) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if sink == nil {
		sink = telemetry.Nop{}
	}
	return &Controller{
		node:     cfg.Node,
		poll:     cfg.PollInterval,
		now:      cfg.Now,
		out:      out,
		rx:       rx,
		sink:     sink,
		logger:   logger,
		watchdog: logic.NewWatchdog(),
	}
}

// Poll runs one iteration of the control loop: wait up to the poll interval
// for a frame, apply it if addressed here, then check the watchdog and bring
// the output to the watchdog's level. The expiry check runs whatever the
// receive returned. Poll only fails once the channel is closed.
func (c *Controller) Poll() error {
	frame, err := c.rx.Receive(c.poll)
	now := c.now()

	var closed error
	switch {
	case err == nil:
		c.handle(frame, now)
	case errors.Is(err, radio.ErrTimeout):
	case errors.Is(err, radio.ErrClosed):
		closed = err
	default:
		c.logger.Warn("receive failed", zap.Error(err))
	}

	c.record(c.watchdog.Check(now), nil)
	c.syncOutput()
	return closed
}

func (c *Controller) handle(frame []byte, now time.Time) {
	p, err := packet.Decode(frame)
	if err != nil {
		c.counts.Malformed++
		c.logger.Debug("discarding frame", zap.Error(err), zap.Binary("frame", frame))
		return
	}
	if p.Target != c.node {
		c.counts.Unaddressed++
		return
	}

	c.counts.Applied++
	c.lastCmd = &p
	c.lastCmdAt = now

	var tr logic.Transition
	if p.Activate {
		tr = c.watchdog.Activate(now, p.Window())
	} else {
		tr = c.watchdog.Deactivate(now, p.Window())
	}
	c.logger.Debug("applied packet", zap.Stringer("packet", p), zap.String("transition", string(tr.Type)))
	c.record(tr, &p)
}

// record logs and publishes a watchdog transition.
func (c *Controller) record(tr logic.Transition, cmd *packet.Packet) {
	if !tr.Changed() {
		return
	}
	if tr.Type == logic.TransitionOff && tr.Reason == logic.ReasonExpired {
		c.counts.Expiries++
	}

	fields := []zap.Field{zap.String("reason", string(tr.Reason))}
	if tr.Window > 0 {
		fields = append(fields, zap.Duration("window", tr.Window))
	}
	c.logger.Info(string(tr.Type), fields...)

	c.publish(telemetry.Event{
		Timestamp: tr.At,
		Type:      string(tr.Type),
		Reason:    string(tr.Reason),
		Window:    tr.Window,
		Command:   cmd,
	})
}

func (c *Controller) publish(e telemetry.Event) {
	e.Node = c.node
	e.Role = telemetry.RoleActuator
	if err := c.sink.Publish(e); err != nil {
		c.logger.Warn("telemetry publish failed", zap.String("event", e.Type), zap.Error(err))
	}
}

// syncOutput writes the watchdog's level when the line differs from it or
// when an earlier write failed.
func (c *Controller) syncOutput() {
	want := c.watchdog.IsOn()
	if c.written && c.level == want {
		return
	}
	if err := c.out.Set(want); err != nil {
		c.counts.OutputErrors++
		c.logger.Error("output write failed, retrying next poll", zap.Bool("on", want), zap.Error(err))
		return
	}
	c.level = want
	c.written = true
}

// Shutdown switches the output off before the process exits. The line is
// written even if it is believed to be off already.
func (c *Controller) Shutdown() error {
	now := c.now()
	tr := c.watchdog.Deactivate(now, 0)
	if tr.Changed() {
		tr.Reason = ReasonShutdown
		c.record(tr, nil)
	}
	if err := c.out.Set(false); err != nil {
		c.counts.OutputErrors++
		return err
	}
	c.level = false
	c.written = true
	return nil
}

// IsOn reports whether the watchdog wants the output energized.
func (c *Controller) IsOn() bool {
	return c.watchdog.IsOn()
}

// Status returns the controller state for the status page.
func (c *Controller) Status() status.ActuatorStatus {
	s := status.ActuatorStatus{
		Power:         c.watchdog.State(),
		LastCommandAt: c.lastCmdAt,
		Counts:        c.counts,
	}
	if at, ok := c.watchdog.ExpiresAt(); ok {
		s.ExpiresAt = at
	}
	if c.lastCmd != nil {
		cmd := *c.lastCmd
		s.LastCommand = &cmd
	}
	return s
}
