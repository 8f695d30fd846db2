package coordinator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sweeney/climate-relay/internal/logic"
	"github.com/sweeney/climate-relay/internal/packet"
	"github.com/sweeney/climate-relay/internal/radio"
	"github.com/sweeney/climate-relay/internal/sensor"
	"github.com/sweeney/climate-relay/internal/telemetry"
)

var (
	targets = Targets{Heater: 2, Humidifier: 4, Fan: 3}
	runs    = RunSeconds{Heater: 60, Humidifier: 45, Fan: 90}
	now     = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
)

type harness struct {
	d      *Dispatcher
	ch     *radio.FakeChannel
	sink   *telemetry.FakeSink
	sleeps []time.Duration
}

func newHarness(t *testing.T, spacing time.Duration, samples ...sensor.Values) *harness {
	t.Helper()
	h := &harness{
		ch:   radio.NewFakeChannel(),
		sink: telemetry.NewFakeSink(),
	}
	cfg := Config{
		Node:       1,
		Targets:    targets,
		RunSeconds: runs,
		Setpoints: logic.Setpoints{
			Temperature: logic.Band{Target: 21, Tolerance: 1},
			Humidity:    logic.Band{Target: 40, Tolerance: 5},
		},
		SendSpacing: spacing,
		Sleep:       func(d time.Duration) { h.sleeps = append(h.sleeps, d) },
	}
	h.d = New(cfg, sensor.NewFakeReader(samples...), h.ch, h.sink, zap.NewNop())
	return h
}

func decodeAll(t *testing.T, frames [][]byte) []packet.Packet {
	t.Helper()
	out := make([]packet.Packet, len(frames))
	for i, f := range frames {
		p, err := packet.Decode(f)
		require.NoError(t, err)
		out[i] = p
	}
	return out
}

func TestCommandsOrderAndDurations(t *testing.T) {
	got := Commands(logic.Decisions{
		Heater:     logic.DeactivateRequested,
		Humidifier: logic.ActivateRequested,
		Fan:        logic.ActivateRequested,
	}, targets, runs)

	assert.Equal(t, []packet.Packet{
		{Target: 2, Activate: false, Duration: 0},
		{Target: 4, Activate: true, Duration: 45},
		{Target: 3, Activate: true, Duration: 90},
	}, got)
}

func TestCommandsNoChangeSendsNothing(t *testing.T) {
	assert.Empty(t, Commands(logic.Decisions{}, targets, runs))
}

func TestColdRoomSendsHeaterThenFan(t *testing.T) {
	h := newHarness(t, 0, sensor.Values{Temperature: 18, Humidity: 40})
	h.d.Cycle(now)

	assert.Equal(t, []packet.Packet{
		{Target: 2, Activate: true, Duration: 60},
		{Target: 3, Activate: true, Duration: 90},
	}, decodeAll(t, h.ch.Sent))
}

func TestHumidityInsideBandSendsNothing(t *testing.T) {
	for _, hum := range []float64{35, 40, 44, 45} {
		h := newHarness(t, 0, sensor.Values{Temperature: 21, Humidity: hum})
		d := h.d.Cycle(now)
		assert.Equal(t, logic.Decisions{}, d, "humidity %v", hum)
		assert.Empty(t, h.ch.Sent, "humidity %v", hum)
	}
}

func TestHumidityAboveBandDeactivatesHumidifier(t *testing.T) {
	h := newHarness(t, 0, sensor.Values{Temperature: 21, Humidity: 46})
	h.d.Cycle(now)

	assert.Equal(t, []packet.Packet{{Target: 4, Activate: false, Duration: 0}}, decodeAll(t, h.ch.Sent))
}

func TestSpacingBetweenSendsOnly(t *testing.T) {
	h := newHarness(t, 150*time.Millisecond, sensor.Values{Temperature: 15, Humidity: 20})
	h.d.Cycle(now)

	require.Len(t, h.ch.Sent, 3)
	assert.Equal(t, []time.Duration{150 * time.Millisecond, 150 * time.Millisecond}, h.sleeps)
}

func TestZeroSpacingNeverSleeps(t *testing.T) {
	h := newHarness(t, 0, sensor.Values{Temperature: 15, Humidity: 20})
	h.d.Cycle(now)
	assert.Empty(t, h.sleeps)
}

func TestSensorFailureYieldsNoChange(t *testing.T) {
	h := newHarness(t, 0, sensor.Values{Temperature: 5, TempErr: sensor.ErrStale, Humidity: 40})
	d := h.d.Cycle(now)

	assert.Equal(t, logic.NoChange, d.Heater)
	assert.Equal(t, logic.NoChange, d.Fan)
	assert.Empty(t, h.ch.Sent)
	assert.Equal(t, 1, h.d.Status().Counts.SensorFailures)
}

func TestSendFailureIsCountedNotRetried(t *testing.T) {
	h := newHarness(t, 0, sensor.Values{Temperature: 18, Humidity: 40})
	h.ch.SendError = errors.New("radio busy")
	h.d.Cycle(now)

	st := h.d.Status()
	assert.Equal(t, 2, st.Counts.SendFailures)
	assert.Equal(t, 0, st.Counts.Sent)
	assert.Empty(t, h.sink.Events, "failed sends are not reported as dispatched")

	// The next cycle recomputes from scratch and sends again.
	h.ch.SendError = nil
	h.d.Cycle(now.Add(30 * time.Second))
	assert.Len(t, h.ch.Sent, 2)
}

func TestStatelessAcrossCycles(t *testing.T) {
	// The same cold reading twice yields the same activations twice; the
	// coordinator never assumes the heater is still on.
	h := newHarness(t, 0, sensor.Values{Temperature: 18, Humidity: 40})
	h.d.Cycle(now)
	h.d.Cycle(now.Add(30 * time.Second))

	sent := decodeAll(t, h.ch.Sent)
	require.Len(t, sent, 4)
	assert.Equal(t, sent[:2], sent[2:])
}

func TestDispatchTelemetry(t *testing.T) {
	h := newHarness(t, 0, sensor.Values{Temperature: 18, Humidity: 40})
	h.d.Cycle(now)

	require.Equal(t, []string{telemetry.EventDispatch, telemetry.EventDispatch}, h.sink.Types())
	ev := h.sink.Events[0]
	assert.Equal(t, packet.NodeID(1), ev.Node)
	assert.Equal(t, telemetry.RoleCoordinator, ev.Role)
	assert.Equal(t, 60*time.Second, ev.Window)
	assert.Equal(t, packet.NodeID(2), ev.Command.Target)
}

func TestTelemetryFailureDoesNotBlockDispatch(t *testing.T) {
	h := newHarness(t, 0, sensor.Values{Temperature: 18, Humidity: 40})
	h.sink.PublishError = errors.New("broker down")
	h.d.Cycle(now)
	assert.Len(t, h.ch.Sent, 2)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, 0,
		sensor.Values{Temperature: 18, Humidity: 40},
		sensor.Values{Temperature: 21, Humidity: 30},
	)
	h.d.Cycle(now)
	h.d.Cycle(now.Add(time.Minute))

	st := h.d.Status()
	assert.Equal(t, 2, st.Counts.Cycles)
	assert.Equal(t, 4, st.Counts.Sent)
	assert.Equal(t, now.Add(time.Minute), st.LastCycle)
	assert.Equal(t, 30.0, st.Readings.Humidity.Value)
	assert.Equal(t, logic.ActivateRequested, st.Decisions.Humidifier)
}
