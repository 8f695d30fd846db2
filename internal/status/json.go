package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/climate-relay/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string           `json:"event,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Role          string           `json:"role"`
	Node          uint8            `json:"node"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	StartTime     string           `json:"start_time"`
	Timestamp     string           `json:"timestamp"`
	Radio         RadioJSON        `json:"radio"`
	Actuator      *ActuatorJSON    `json:"actuator,omitempty"`
	Coordinator   *CoordinatorJSON `json:"coordinator,omitempty"`
	Network       *NetworkJSON     `json:"network,omitempty"`
	Config        ConfigJSON       `json:"config"`
}

// RadioJSON reports the radio link.
type RadioJSON struct {
	Driver    string `json:"driver"`
	Connected bool   `json:"connected"`
}

// ActuatorJSON is the JSON representation of an actuator node.
type ActuatorJSON struct {
	Power            string             `json:"power"`
	ExpiresAt        string             `json:"expires_at,omitempty"`
	RemainingSeconds int64              `json:"remaining_seconds"`
	LastCommand      string             `json:"last_command,omitempty"`
	LastCommandAt    string             `json:"last_command_at,omitempty"`
	Counts           ActuatorCountsJSON `json:"counts"`
}

// ActuatorCountsJSON is the JSON representation of actuator counters.
type ActuatorCountsJSON struct {
	Applied      int `json:"applied"`
	Unaddressed  int `json:"unaddressed"`
	Malformed    int `json:"malformed"`
	Expiries     int `json:"expiries"`
	OutputErrors int `json:"output_errors"`
}

// CoordinatorJSON is the JSON representation of the coordinator.
type CoordinatorJSON struct {
	LastCycle   string                `json:"last_cycle,omitempty"`
	Temperature *float64              `json:"temperature,omitempty"`
	Humidity    *float64              `json:"humidity,omitempty"`
	Heater      string                `json:"heater"`
	Humidifier  string                `json:"humidifier"`
	Fan         string                `json:"fan"`
	Counts      CoordinatorCountsJSON `json:"counts"`
}

// CoordinatorCountsJSON is the JSON representation of coordinator counters.
type CoordinatorCountsJSON struct {
	Cycles         int `json:"cycles"`
	Sent           int `json:"sent"`
	SendFailures   int `json:"send_failures"`
	SensorFailures int `json:"sensor_failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of node config.
type ConfigJSON struct {
	Telemetry   string `json:"telemetry"`
	PollMs      int64  `json:"poll_ms,omitempty"`
	CycleMs     int64  `json:"cycle_ms,omitempty"`
	SpacingMs   int64  `json:"spacing_ms,omitempty"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	HTTPAddr    string `json:"http_addr"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func readingValue(r logic.Reading) *float64 {
	if r.Err != nil {
		return nil
	}
	v := r.Value
	return &v
}

// BuildInner converts a snapshot into its display form.
func BuildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Role:          snap.Config.Role,
		Node:          uint8(snap.Config.Node),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Radio:         RadioJSON{Driver: snap.Config.Radio, Connected: snap.RadioConnected},
		Config: ConfigJSON{
			Telemetry:   snap.Config.Telemetry,
			PollMs:      snap.Config.PollMs,
			CycleMs:     snap.Config.CycleMs,
			SpacingMs:   snap.Config.SpacingMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if a := snap.Actuator; a != nil {
		power := string(a.Power)
		if power == "" {
			power = string(logic.StateOff)
		}
		aj := &ActuatorJSON{
			Power:         power,
			ExpiresAt:     formatTime(a.ExpiresAt),
			LastCommandAt: formatTime(a.LastCommandAt),
			Counts: ActuatorCountsJSON{
				Applied:      a.Counts.Applied,
				Unaddressed:  a.Counts.Unaddressed,
				Malformed:    a.Counts.Malformed,
				Expiries:     a.Counts.Expiries,
				OutputErrors: a.Counts.OutputErrors,
			},
		}
		if !a.ExpiresAt.IsZero() && a.ExpiresAt.After(snap.Now) {
			aj.RemainingSeconds = int64(a.ExpiresAt.Sub(snap.Now).Truncate(time.Second).Seconds())
		}
		if a.LastCommand != nil {
			aj.LastCommand = a.LastCommand.String()
		}
		inner.Actuator = aj
	}

	if c := snap.Coordinator; c != nil {
		inner.Coordinator = &CoordinatorJSON{
			LastCycle:   formatTime(c.LastCycle),
			Temperature: readingValue(c.Readings.Temperature),
			Humidity:    readingValue(c.Readings.Humidity),
			Heater:      c.Decisions.Heater.String(),
			Humidifier:  c.Decisions.Humidifier.String(),
			Fan:         c.Decisions.Fan.String(),
			Counts: CoordinatorCountsJSON{
				Cycles:         c.Counts.Cycles,
				Sent:           c.Counts.Sent,
				SendFailures:   c.Counts.SendFailures,
				SensorFailures: c.Counts.SensorFailures,
			},
		}
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: BuildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact JSON status embedded in telemetry events.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := BuildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
