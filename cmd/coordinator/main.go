// Command coordinator samples the room sensors on a fixed cycle and
// broadcasts power commands to the heater, humidifier and fan actuators.
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

	"github.com/sweeney/climate-relay/internal/config"
	"github.com/sweeney/climate-relay/internal/coordinator"
	"github.com/sweeney/climate-relay/internal/logging"
	"github.com/sweeney/climate-relay/internal/logic"
	"github.com/sweeney/climate-relay/internal/node"
	"github.com/sweeney/climate-relay/internal/radio"
	"github.com/sweeney/climate-relay/internal/sensor"
	"github.com/sweeney/climate-relay/internal/status"
	"github.com/sweeney/climate-relay/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "/etc/climate-relay/config.yaml", "Path to YAML config")
	envFile := flag.String("env", ".env", "Optional KEY=value file applied before the config")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config; \"off\" disables)")
	printState := flag.Bool("print-state", false, "Print current readings and decisions, then exit without sending")

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
	if err := cfg.Validate(config.RoleCoordinator); err != nil {
		log.Fatalf("fatal: invalid config:\n%v", err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, *printState, logger); err != nil {
		logger.Fatal("coordinator stopped", zap.Error(err))
	}
}

// dispatcherConfig maps the file config onto the dispatcher. Run seconds
// are range-checked by Validate.
func dispatcherConfig(cfg *config.Config) coordinator.Config {
	return coordinator.Config{
		Node: cfg.Nodes.Coordinator,
		Targets: coordinator.Targets{
			Heater:     cfg.Nodes.Heater,
			Humidifier: cfg.Nodes.Humidifier,
			Fan:        cfg.Nodes.Fan,
		},
		RunSeconds: coordinator.RunSeconds{
			Heater:     uint8(cfg.Coordinator.RunSeconds.Heater),
			Humidifier: uint8(cfg.Coordinator.RunSeconds.Humidifier),
			Fan:        uint8(cfg.Coordinator.RunSeconds.Fan),
		},
		Setpoints:   cfg.Coordinator.Setpoints(),
		SendSpacing: cfg.Coordinator.SendSpacing,
	}
}

func run(cfg *config.Config, printState bool, logger *zap.Logger) error {
	id := cfg.Nodes.Coordinator
	logger = logging.ForNode(logger, config.RoleCoordinator, uint8(id))

	sensors, err := sensor.NewSerialReader(sensor.SerialConfig{
		Port:     cfg.Coordinator.Sensor.Port,
		BaudRate: cfg.Coordinator.Sensor.BaudRate,
		MaxAge:   cfg.Coordinator.Sensor.MaxAge,
	}, logger)
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	defer sensors.Close()

	if printState {
		return printDecisions(sensors, cfg)
	}

	clientID := node.ClientID(config.RoleCoordinator, id)
	ch, err := node.OpenRadio(cfg.Radio, clientID, false, logger)
	if err != nil {
		return fmt.Errorf("open radio: %w", err)
	}
	defer ch.Close()

	sink := node.OpenSink(cfg.Telemetry, clientID, logger)
	defer sink.Close()

	tracker := status.NewTracker(time.Now(), node.StatusConfig(cfg, config.RoleCoordinator, id))
	if net := node.ReadNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	d := coordinator.New(dispatcherConfig(cfg), sensors, ch, sink, logger)

	sink.Publish(node.SystemEvent(tracker, telemetry.EventStartup, "", time.Now()))

	stopHTTP := node.ServeStatus(cfg.HTTP.Addr, tracker, logger)
	defer stopHTTP()

	logger.Info("started",
		zap.String("radio", cfg.Radio.Driver),
		zap.Duration("cycle", cfg.Coordinator.CycleInterval),
		zap.Duration("spacing", cfg.Coordinator.SendSpacing),
		zap.String("telemetry", cfg.Telemetry.Driver),
	)

	ticker := time.NewTicker(cfg.Coordinator.CycleInterval)
	defer ticker.Stop()

	var heartbeat <-chan time.Time
	if cfg.Telemetry.Heartbeat > 0 {
		hb := time.NewTicker(cfg.Telemetry.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, ch, sink, tracker, logger, time.Now, ticker.C, heartbeat, sigCh)
}

// printDecisions waits for the first sensor line, then prints what one cycle
// would decide.
func printDecisions(sensors sensor.Reader, cfg *config.Config) error {
	deadline := time.Now().Add(10 * time.Second)
	readings := sensor.Sample(sensors)
	for (readings.Temperature.Err != nil || readings.Humidity.Err != nil) && time.Now().Before(deadline) {
		time.Sleep(250 * time.Millisecond)
		readings = sensor.Sample(sensors)
	}

	dc := dispatcherConfig(cfg)
	cmds := coordinator.Commands(logic.Decide(readings, dc.Setpoints), dc.Targets, dc.RunSeconds)
	fmt.Printf("temperature: %s\nhumidity: %s\n", formatReading(readings.Temperature.Value, readings.Temperature.Err, "°C"),
		formatReading(readings.Humidity.Value, readings.Humidity.Err, "%"))
	if len(cmds) == 0 {
		fmt.Println("commands: none")
	}
	for _, p := range cmds {
		fmt.Printf("command: %s\n", p)
	}
	return nil
}

func formatReading(v float64, err error, unit string) string {
	if err != nil {
		return "unavailable (" + err.Error() + ")"
	}
	return fmt.Sprintf("%.1f%s", v, unit)
}

// runLoop runs one dispatch cycle per tick until a signal arrives.
func runLoop(d *coordinator.Dispatcher, conn radio.ConnectionStatus, sink telemetry.Sink, tracker *status.Tracker, logger *zap.Logger, now func() time.Time, tick <-chan time.Time, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			reason := node.SignalName(s)
			logger.Info("shutting down", zap.String("signal", reason))
			refresh(d, conn, tracker)
			sink.Publish(node.SystemEvent(tracker, telemetry.EventShutdown, reason, now()))
			return nil

		case <-tick:
			d.Cycle(now())
			refresh(d, conn, tracker)

		case <-heartbeat:
			if net := node.ReadNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			refresh(d, conn, tracker)
			st := d.Status()
			logger.Info("heartbeat",
				zap.Int("cycles", st.Counts.Cycles),
				zap.Int("sent", st.Counts.Sent),
				zap.Int("send_failures", st.Counts.SendFailures),
				zap.Int("sensor_failures", st.Counts.SensorFailures),
			)
			sink.Publish(node.SystemEvent(tracker, telemetry.EventHeartbeat, "", now()))
		}
	}
}

func refresh(d *coordinator.Dispatcher, conn radio.ConnectionStatus, tracker *status.Tracker) {
	tracker.UpdateCoordinator(d.Status())
	if conn != nil {
		tracker.SetRadioConnected(conn.IsConnected())
	}
}
