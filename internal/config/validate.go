package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Roles a node can run as.
const (
	RoleCoordinator = "coordinator"
	RoleActuator    = "actuator"
)

// Validate checks the configuration for a node of the given role and
// reports every problem found.
func (c *Config) Validate(role string) error {
	var errs []error
	errs = append(errs, c.validateNodes()...)
	errs = append(errs, c.validateRadio()...)

	switch role {
	case RoleCoordinator:
		errs = append(errs, c.validateCoordinator()...)
	case RoleActuator:
		errs = append(errs, c.validateActuator()...)
	default:
		errs = append(errs, fmt.Errorf("unknown role %q", role))
	}

	errs = append(errs, c.validateTelemetry()...)
	return errors.Join(errs...)
}

func (c *Config) validateNodes() []error {
	var errs []error
	ids := map[string]uint8{
		ClassHeater:     uint8(c.Nodes.Heater),
		ClassHumidifier: uint8(c.Nodes.Humidifier),
		ClassFan:        uint8(c.Nodes.Fan),
	}
	seen := make(map[uint8]string)
	for _, class := range []string{ClassHeater, ClassHumidifier, ClassFan} {
		id := ids[class]
		if id == uint8(c.Nodes.Coordinator) {
			errs = append(errs, fmt.Errorf("nodes.%s: id %d is reserved for the coordinator", class, id))
		}
		if other, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("nodes.%s: id %d already used by %s", class, id, other))
			continue
		}
		seen[id] = class
	}
	return errs
}

func (c *Config) validateRadio() []error {
	var errs []error
	switch c.Radio.Driver {
	case RadioMQTT:
		if c.Radio.MQTT.Broker == "" {
			errs = append(errs, errors.New("radio.mqtt.broker is required"))
		}
	case RadioSerial:
		if c.Radio.Serial.Port == "" {
			errs = append(errs, errors.New("radio.serial.port is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("radio.driver: unknown driver %q", c.Radio.Driver))
	}
	return errs
}

func validateBand(name string, b BandConfig) []error {
	var errs []error
	if math.IsNaN(b.Target) || math.IsInf(b.Target, 0) {
		errs = append(errs, fmt.Errorf("%s.target must be a finite number", name))
	}
	if !(b.Tolerance >= 0) {
		errs = append(errs, fmt.Errorf("%s.tolerance must be >= 0, got %v", name, b.Tolerance))
	}
	return errs
}

func validateRunSeconds(name string, s int) error {
	if s < 1 || s > 255 {
		return fmt.Errorf("coordinator.run_seconds.%s must be in 1..255, got %d", name, s)
	}
	return nil
}

func (c *Config) validateCoordinator() []error {
	var errs []error
	co := c.Coordinator
	if co.CycleInterval <= 0 {
		errs = append(errs, fmt.Errorf("coordinator.cycle_interval must be > 0, got %v", co.CycleInterval))
	}
	if co.SendSpacing < 0 {
		errs = append(errs, fmt.Errorf("coordinator.send_spacing must be >= 0, got %v", co.SendSpacing))
	}
	errs = append(errs, validateBand("coordinator.temperature", co.Temperature)...)
	errs = append(errs, validateBand("coordinator.humidity", co.Humidity)...)
	for _, rs := range []struct {
		name string
		s    int
	}{
		{ClassHeater, co.RunSeconds.Heater},
		{ClassHumidifier, co.RunSeconds.Humidifier},
		{ClassFan, co.RunSeconds.Fan},
	} {
		if err := validateRunSeconds(rs.name, rs.s); err != nil {
			errs = append(errs, err)
		}
	}
	if co.Sensor.Port == "" {
		errs = append(errs, errors.New("coordinator.sensor.port is required"))
	}
	if co.Sensor.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("coordinator.sensor.max_age must be >= 0, got %v", co.Sensor.MaxAge))
	}
	return errs
}

func (c *Config) validateActuator() []error {
	var errs []error
	a := c.Actuator
	if a.ID == c.Nodes.Coordinator {
		errs = append(errs, fmt.Errorf("actuator.id %d is reserved for the coordinator", a.ID))
	} else if _, ok := c.ActuatorClass(a.ID); !ok {
		errs = append(errs, fmt.Errorf("actuator.id %d is not a configured heater, humidifier or fan node", a.ID))
	}
	if a.PollInterval <= 0 || a.PollInterval > MinWindow {
		errs = append(errs, fmt.Errorf("actuator.poll_interval must be in (0, %v], got %v", MinWindow, a.PollInterval))
	}
	if a.GPIO.Line < 0 {
		errs = append(errs, fmt.Errorf("actuator.gpio.line must be >= 0, got %d", a.GPIO.Line))
	}
	return errs
}

func (c *Config) validateTelemetry() []error {
	var errs []error
	t := c.Telemetry
	switch t.Driver {
	case TelemetryNone:
	case TelemetryMQTT:
		if t.MQTT.Broker == "" {
			errs = append(errs, errors.New("telemetry.mqtt.broker is required"))
		}
	case TelemetryAMQP:
		if !strings.HasPrefix(t.AMQP.URL, "amqp://") && !strings.HasPrefix(t.AMQP.URL, "amqps://") {
			errs = append(errs, fmt.Errorf("telemetry.amqp.url must be an amqp:// or amqps:// URL, got %q", t.AMQP.URL))
		}
	case TelemetryKafka:
		if len(t.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("telemetry.kafka.brokers is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("telemetry.driver: unknown driver %q", t.Driver))
	}
	if t.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("telemetry.heartbeat must be >= 0, got %v", t.Heartbeat))
	}
	return errs
}
