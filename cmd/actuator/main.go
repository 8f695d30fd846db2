// Command actuator drives one relay output from coordinator broadcasts. The
// output stays energized only while a commanded window is running; if the
// coordinator or the channel goes quiet, the window expires and the relay
// drops out.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/climate-relay/internal/actuator"
	"github.com/sweeney/climate-relay/internal/config"
	"github.com/sweeney/climate-relay/internal/gpio"
	"github.com/sweeney/climate-relay/internal/logging"
	"github.com/sweeney/climate-relay/internal/node"
	"github.com/sweeney/climate-relay/internal/packet"
	"github.com/sweeney/climate-relay/internal/radio"
	"github.com/sweeney/climate-relay/internal/status"
	"github.com/sweeney/climate-relay/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "/etc/climate-relay/config.yaml", "Path to YAML config")
	envFile := flag.String("env", ".env", "Optional KEY=value file applied before the config")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config; \"off\" disables)")
	id := flag.Uint("id", 0, "Actuator node id (overrides config)")

	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	switch *httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = *httpAddr
	}
	if *id != 0 {
		if *id > 255 {
			log.Fatalf("fatal: -id %d out of range", *id)
		}
		cfg.Actuator.ID = packet.NodeID(*id)
	}
	if err := cfg.Validate(config.RoleActuator); err != nil {
		log.Fatalf("fatal: invalid config:\n%v", err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("actuator stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	id := cfg.Actuator.ID
	class, _ := cfg.ActuatorClass(id)
	logger = logging.ForNode(logger, config.RoleActuator, uint8(id)).With(zap.String("class", class))
	clientID := node.ClientID(config.RoleActuator, id)

	out, err := gpio.NewRealOutput(cfg.Actuator.GPIO.Chip, cfg.Actuator.GPIO.Line, cfg.Actuator.GPIO.ActiveLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Error("release gpio", zap.Error(err))
		}
	}()

	ch, err := node.OpenRadio(cfg.Radio, clientID, true, logger)
	if err != nil {
		return fmt.Errorf("open radio: %w", err)
	}
	defer ch.Close()

	sink := node.OpenSink(cfg.Telemetry, clientID, logger)
	defer sink.Close()

	tracker := status.NewTracker(time.Now(), node.StatusConfig(cfg, config.RoleActuator, id))
	if net := node.ReadNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	ctrl := actuator.New(actuator.Config{
		Node:         id,
		PollInterval: cfg.Actuator.PollInterval,
	}, out, ch, sink, logger)
	tracker.UpdateActuator(ctrl.Status())

	sink.Publish(node.SystemEvent(tracker, telemetry.EventStartup, "", time.Now()))

	stopHTTP := node.ServeStatus(cfg.HTTP.Addr, tracker, logger)
	defer stopHTTP()

	logger.Info("started",
		zap.String("radio", cfg.Radio.Driver),
		zap.Duration("poll", cfg.Actuator.PollInterval),
		zap.String("gpio_chip", cfg.Actuator.GPIO.Chip),
		zap.Int("gpio_line", cfg.Actuator.GPIO.Line),
		zap.String("telemetry", cfg.Telemetry.Driver),
	)

	var heartbeat <-chan time.Time
	if cfg.Telemetry.Heartbeat > 0 {
		hb := time.NewTicker(cfg.Telemetry.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, ch, sink, tracker, logger, time.Now, heartbeat, sigCh)
}

// runLoop polls the controller until a signal arrives or the channel closes.
// Each Poll blocks for at most the poll interval, so signals and heartbeats
// are picked up between polls without a separate ticker.
func runLoop(ctrl *actuator.Controller, conn radio.ConnectionStatus, sink telemetry.Sink, tracker *status.Tracker, logger *zap.Logger, now func() time.Time, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			reason := node.SignalName(s)
			logger.Info("shutting down", zap.String("signal", reason))
			err := ctrl.Shutdown()
			if err != nil {
				logger.Error("de-energize output", zap.Error(err))
			}
			refresh(ctrl, conn, tracker)
			sink.Publish(node.SystemEvent(tracker, telemetry.EventShutdown, reason, now()))
			return err

		case <-heartbeat:
			if net := node.ReadNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			refresh(ctrl, conn, tracker)
			st := ctrl.Status()
			logger.Info("heartbeat",
				zap.String("power", string(st.Power)),
				zap.Int("applied", st.Counts.Applied),
				zap.Int("expiries", st.Counts.Expiries),
			)
			sink.Publish(node.SystemEvent(tracker, telemetry.EventHeartbeat, "", now()))

		default:
		}

		if err := ctrl.Poll(); err != nil {
			logger.Error("radio closed, switching off", zap.Error(err))
			if serr := ctrl.Shutdown(); serr != nil {
				logger.Error("de-energize output", zap.Error(serr))
			}
			refresh(ctrl, conn, tracker)
			sink.Publish(node.SystemEvent(tracker, telemetry.EventShutdown, "radio closed", now()))
			return fmt.Errorf("radio: %w", err)
		}
		refresh(ctrl, conn, tracker)
	}
}

func refresh(ctrl *actuator.Controller, conn radio.ConnectionStatus, tracker *status.Tracker) {
	tracker.UpdateActuator(ctrl.Status())
	if conn != nil {
		tracker.SetRadioConnected(conn.IsConnected())
	}
}
