package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/climate-relay/internal/logic"
	"github.com/sweeney/climate-relay/internal/packet"
	"github.com/sweeney/climate-relay/internal/status"
)

func newTestServer(t *testing.T, cfg status.Config) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func actuatorConfig() status.Config {
	return status.Config{
		Role:        "actuator",
		Node:        2,
		Radio:       "mqtt",
		Telemetry:   "none",
		PollMs:      500,
		HeartbeatMs: 900000,
		HTTPAddr:    ":80",
	}
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, actuatorConfig())
	cmd := packet.Packet{Target: 2, Activate: true, Duration: 60}
	tr.UpdateActuator(status.ActuatorStatus{
		Power:       logic.StateOn,
		ExpiresAt:   time.Now().Add(time.Minute),
		LastCommand: &cmd,
		Counts:      status.ActuatorCounts{Applied: 5, Unaddressed: 2},
	})
	tr.SetRadioConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Role != "actuator" {
		t.Errorf("Role: got %q", sj.Status.Role)
	}
	if !sj.Status.Radio.Connected {
		t.Error("expected Radio.Connected=true")
	}
	if sj.Status.Actuator == nil {
		t.Fatal("expected actuator section")
	}
	if sj.Status.Actuator.Power != "ON" {
		t.Errorf("Power: got %q, want ON", sj.Status.Actuator.Power)
	}
	if sj.Status.Actuator.Counts.Applied != 5 {
		t.Errorf("Counts.Applied: got %d, want 5", sj.Status.Actuator.Counts.Applied)
	}
	if sj.Status.Config.PollMs != 500 {
		t.Errorf("Config.PollMs: got %d, want 500", sj.Status.Config.PollMs)
	}
}

func TestJSONBeforeFirstUpdate(t *testing.T) {
	ts, _ := newTestServer(t, actuatorConfig())

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Actuator != nil {
		t.Errorf("expected no actuator section before first update, got %+v", sj.Status.Actuator)
	}
	if sj.Status.Radio.Connected {
		t.Error("expected radio disconnected initially")
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t, actuatorConfig())
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointActuator(t *testing.T) {
	ts, tr := newTestServer(t, actuatorConfig())
	tr.UpdateActuator(status.ActuatorStatus{Power: logic.StateOn, ExpiresAt: time.Now().Add(time.Minute)})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `class="on">ON`) {
		t.Error("expected powered output in page")
	}
	if strings.Contains(string(body), "Humidifier") {
		t.Error("actuator page should not render the coordinator section")
	}
}

func TestHTMLEndpointCoordinator(t *testing.T) {
	ts, tr := newTestServer(t, status.Config{Role: "coordinator", Node: 1, CycleMs: 5000, SpacingMs: 100})
	tr.UpdateCoordinator(status.CoordinatorStatus{
		Readings:  logic.Readings{Temperature: logic.Reading{Value: 18.3}, Humidity: logic.Reading{Value: 40}},
		Decisions: logic.Decisions{Heater: logic.ActivateRequested, Fan: logic.ActivateRequested},
	})

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	for _, want := range []string{"18.3°C", "40.0%", "ACTIVATE", "5000ms"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, actuatorConfig())

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t, actuatorConfig())

	tr.UpdateActuator(status.ActuatorStatus{Power: logic.StateOn})
	if sj := getJSON(t, ts.URL+"/index.json"); sj.Status.Actuator.Power != "ON" {
		t.Errorf("Power: got %q, want ON", sj.Status.Actuator.Power)
	}

	tr.UpdateActuator(status.ActuatorStatus{Power: logic.StateOff, Counts: status.ActuatorCounts{Expiries: 1}})
	tr.SetRadioConnected(true)

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Actuator.Power != "OFF" {
		t.Errorf("Power: got %q, want OFF", sj.Status.Actuator.Power)
	}
	if sj.Status.Actuator.Counts.Expiries != 1 {
		t.Errorf("Expiries: got %d, want 1", sj.Status.Actuator.Counts.Expiries)
	}
	if !sj.Status.Radio.Connected {
		t.Error("expected radio connected after update")
	}
}
