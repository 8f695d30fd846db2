// Package node holds the process wiring shared by the coordinator and
// actuator binaries: transport and sink construction from config, the
// status server, and lifecycle telemetry.
package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/climate-relay/internal/config"
	"github.com/sweeney/climate-relay/internal/packet"
	"github.com/sweeney/climate-relay/internal/radio"
	"github.com/sweeney/climate-relay/internal/status"
	"github.com/sweeney/climate-relay/internal/telemetry"
	"github.com/sweeney/climate-relay/internal/web"
)

// Radio is a broadcast channel endpoint as opened from config.
type Radio interface {
	radio.Sender
	radio.Receiver
	radio.ConnectionStatus
	Close() error
}

// ClientID names a node towards brokers, e.g. "climate-relay-actuator-2".
func ClientID(role string, id packet.NodeID) string {
	return fmt.Sprintf("climate-relay-%s-%d", role, id)
}

// OpenRadio opens the configured broadcast channel. Coordinators pass
// listen=false; they never receive.
func OpenRadio(cfg config.RadioConfig, clientID string, listen bool, logger *zap.Logger) (Radio, error) {
	switch cfg.Driver {
	case config.RadioMQTT:
		return radio.NewMQTTChannel(radio.MQTTConfig{
			Broker:    cfg.MQTT.Broker,
			Topic:     cfg.MQTT.Topic,
			ClientID:  clientID,
			Listen:    listen,
			InboxSize: cfg.InboxSize,
		}, logger), nil
	case config.RadioSerial:
		ch, err := radio.NewSerialChannel(radio.SerialConfig{
			Port:      cfg.Serial.Port,
			BaudRate:  cfg.Serial.BaudRate,
			InboxSize: cfg.InboxSize,
		}, logger)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
	return nil, fmt.Errorf("unknown radio driver %q", cfg.Driver)
}

// OpenSink connects the configured telemetry sink and wraps it in a queue so
// publishing never blocks the caller. A sink that cannot connect is logged
// and replaced by a no-op: telemetry never stops a node from running.
func OpenSink(cfg config.TelemetryConfig, clientID string, logger *zap.Logger) *telemetry.Queue {
	sink, err := dialSink(cfg, clientID)
	if err != nil {
		logger.Warn("telemetry disabled", zap.String("driver", cfg.Driver), zap.Error(err))
		sink = telemetry.Nop{}
	}
	return telemetry.NewQueue(sink, cfg.QueueSize, logger)
}

func dialSink(cfg config.TelemetryConfig, clientID string) (telemetry.Sink, error) {
	switch cfg.Driver {
	case config.TelemetryNone, "":
		return telemetry.Nop{}, nil
	case config.TelemetryMQTT:
		return telemetry.NewMQTTSink(cfg.MQTT.Broker, clientID+"-telemetry")
	case config.TelemetryAMQP:
		return telemetry.NewAMQPSink(cfg.AMQP.URL, cfg.AMQP.Exchange)
	case config.TelemetryKafka:
		return telemetry.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil
	}
	return nil, fmt.Errorf("unknown telemetry driver %q", cfg.Driver)
}

// StatusConfig builds the display config for the status tracker.
func StatusConfig(cfg *config.Config, role string, id packet.NodeID) status.Config {
	sc := status.Config{
		Role:        role,
		Node:        id,
		Radio:       cfg.Radio.Driver,
		Telemetry:   cfg.Telemetry.Driver,
		HeartbeatMs: cfg.Telemetry.Heartbeat.Milliseconds(),
		HTTPAddr:    cfg.HTTP.Addr,
	}
	switch role {
	case config.RoleActuator:
		sc.PollMs = cfg.Actuator.PollInterval.Milliseconds()
	case config.RoleCoordinator:
		sc.CycleMs = cfg.Coordinator.CycleInterval.Milliseconds()
		sc.SpacingMs = cfg.Coordinator.SendSpacing.Milliseconds()
	}
	return sc
}

// ServeStatus starts the HTTP status server in the background. The returned
// function shuts it down. An empty address disables the server.
func ServeStatus(addr string, tracker *status.Tracker, logger *zap.Logger) (stop func()) {
	if addr == "" {
		return func() {}
	}
	srv := web.New(addr, tracker)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
		}
	}()
	logger.Info("http status server listening", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// SignalName returns the conventional name of a shutdown signal.
func SignalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// SystemEvent builds a lifecycle event carrying a full status snapshot.
// STARTUP and SHUTDOWN are retained so late subscribers see the last
// lifecycle state.
func SystemEvent(tracker *status.Tracker, typ, reason string, at time.Time) telemetry.Event {
	snap := tracker.Snapshot()
	return telemetry.Event{
		Timestamp: at,
		Node:      snap.Config.Node,
		Role:      snap.Config.Role,
		Type:      typ,
		Reason:    reason,
		Retained:  typ == telemetry.EventStartup || typ == telemetry.EventShutdown,
		Status:    status.FormatStatusEvent(snap, typ, reason),
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	EnvNetworkType       = "NETWORK_TYPE"
	EnvNetworkIP         = "NETWORK_IP"
	EnvNetworkStatus     = "NETWORK_STATUS"
	EnvNetworkGateway    = "NETWORK_GATEWAY"
	EnvNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	EnvNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// ReadNetworkInfo returns the host network state, or nil when pi-helper has
// not reported any.
func ReadNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(EnvNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(EnvNetworkType),
		IP:         os.Getenv(EnvNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(EnvNetworkGateway),
		WifiStatus: os.Getenv(EnvNetworkWifiStatus),
		SSID:       os.Getenv(EnvNetworkWifiSSID),
	}
}
