// Package coordinator runs the send side of a climate-relay deployment. Each
// cycle it samples the sensors, decides per actuator class, and broadcasts
// one packet per class that needs a command. It keeps no memory of what the
// actuators are doing; their watchdogs own that.
package coordinator

import (
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/climate-relay/internal/logic"
	"github.com/sweeney/climate-relay/internal/packet"
	"github.com/sweeney/climate-relay/internal/radio"
	"github.com/sweeney/climate-relay/internal/sensor"
	"github.com/sweeney/climate-relay/internal/status"
	"github.com/sweeney/climate-relay/internal/telemetry"
)

// Targets maps each actuator class to its node id.
type Targets struct {
	Heater     packet.NodeID
	Humidifier packet.NodeID
	Fan        packet.NodeID
}

// RunSeconds is the activation window sent to each class.
type RunSeconds struct {
	Heater     uint8
	Humidifier uint8
	Fan        uint8
}

// Config holds the dispatcher parameters.
type Config struct {
	Node        packet.NodeID
	Targets     Targets
	RunSeconds  RunSeconds
	Setpoints   logic.Setpoints
	SendSpacing time.Duration

	Sleep func(time.Duration) // defaults to time.Sleep
}

// Commands turns one cycle's decisions into packets, in dispatch order:
// heater, humidifier, fan. Activations carry the class run time;
// deactivations carry zero for an immediate off.
func Commands(d logic.Decisions, targets Targets, run RunSeconds) []packet.Packet {
	var out []packet.Packet
	add := func(o logic.Outcome, target packet.NodeID, seconds uint8) {
		switch o {
		case logic.ActivateRequested:
			out = append(out, packet.Packet{Target: target, Activate: true, Duration: seconds})
		case logic.DeactivateRequested:
			out = append(out, packet.Packet{Target: target})
		}
	}
	add(d.Heater, targets.Heater, run.Heater)
	add(d.Humidifier, targets.Humidifier, run.Humidifier)
	add(d.Fan, targets.Fan, run.Fan)
	return out
}

// Dispatcher executes coordinator cycles. It is not safe for concurrent use.
type Dispatcher struct {
	cfg     Config
	sensors sensor.Reader
	tx      radio.Sender
	sink    telemetry.Sink
	logger  *zap.Logger

	last status.CoordinatorStatus
}

// New creates a Dispatcher.
func New(cfg Config, sensors sensor.Reader, tx radio.Sender, sink telemetry.Sink, logger *zap.Logger) *Dispatcher {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if sink == nil {
		sink = telemetry.Nop{}
	}
	return &Dispatcher{
		cfg:     cfg,
		sensors: sensors,
		tx:      tx,
		sink:    sink,
		logger:  logger,
	}
}

// Cycle runs one sample-decide-dispatch pass and returns the decisions.
// Sends are best effort: a failed send is logged and counted, then treated
// exactly like a packet lost over the air.
func (d *Dispatcher) Cycle(now time.Time) logic.Decisions {
	readings := sensor.Sample(d.sensors)
	if readings.Temperature.Err != nil {
		d.last.Counts.SensorFailures++
		d.logger.Warn("temperature read failed", zap.Error(readings.Temperature.Err))
	}
	if readings.Humidity.Err != nil {
		d.last.Counts.SensorFailures++
		d.logger.Warn("humidity read failed", zap.Error(readings.Humidity.Err))
	}

	decisions := logic.Decide(readings, d.cfg.Setpoints)
	d.logger.Debug("cycle",
		zap.Float64("temperature", readings.Temperature.Value),
		zap.Float64("humidity", readings.Humidity.Value),
		zap.Stringer("heater", decisions.Heater),
		zap.Stringer("humidifier", decisions.Humidifier),
		zap.Stringer("fan", decisions.Fan),
	)

	for i, p := range Commands(decisions, d.cfg.Targets, d.cfg.RunSeconds) {
		if i > 0 && d.cfg.SendSpacing > 0 {
			d.cfg.Sleep(d.cfg.SendSpacing)
		}
		d.send(now, p)
	}

	d.last.Counts.Cycles++
	d.last.LastCycle = now
	d.last.Readings = readings
	d.last.Decisions = decisions
	return decisions
}

func (d *Dispatcher) send(now time.Time, p packet.Packet) {
	if err := d.tx.Send(p.Bytes()); err != nil {
		d.last.Counts.SendFailures++
		d.logger.Warn("send failed", zap.Stringer("packet", p), zap.Error(err))
		return
	}
	d.last.Counts.Sent++
	d.logger.Info("sent", zap.Uint8("target", uint8(p.Target)), zap.Bool("activate", p.Activate), zap.Uint8("duration", p.Duration))

	cmd := p
	e := telemetry.Event{
		Timestamp: now,
		Node:      d.cfg.Node,
		Role:      telemetry.RoleCoordinator,
		Type:      telemetry.EventDispatch,
		Window:    p.Window(),
		Command:   &cmd,
	}
	if err := d.sink.Publish(e); err != nil {
		d.logger.Warn("telemetry publish failed", zap.String("event", e.Type), zap.Error(err))
	}
}

// Status returns the state after the most recent cycle.
func (d *Dispatcher) Status() status.CoordinatorStatus {
	return d.last
}
