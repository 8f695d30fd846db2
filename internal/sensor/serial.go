package sensor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultMaxAge is how long a reading stays usable without a fresh line.
const DefaultMaxAge = 2 * time.Minute

// SerialConfig configures a sensor board attached over a serial port.
type SerialConfig struct {
	Port     string
	BaudRate int
	MaxAge   time.Duration
}

type cached struct {
	value float64
	at    time.Time
	valid bool
}

// SerialReader caches the latest line from a sensor board that prints
// "temperature,humidity" lines, e.g. "21.50,40.20". A field may be "nan" when
// the board could not sample that channel.
type SerialReader struct {
	maxAge time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu   sync.RWMutex
	temp cached
	hum  cached

	port serial.Port
	done chan struct{}
}

// NewSerialReader opens the port and starts reading lines.
func NewSerialReader(cfg SerialConfig, logger *zap.Logger) (*SerialReader, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = 115200
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open sensor port %s: %w", cfg.Port, err)
	}

	r := newSerialReader(cfg.MaxAge, time.Now, logger.With(zap.String("port", cfg.Port)))
	r.port = port
	go func() {
		defer close(r.done)
		r.consume(port)
	}()
	return r, nil
}

func newSerialReader(maxAge time.Duration, now func() time.Time, logger *zap.Logger) *SerialReader {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &SerialReader{
		maxAge: maxAge,
		now:    now,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// consume reads lines until src fails or is closed.
func (r *SerialReader) consume(src io.Reader) {
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := r.update(line); err != nil {
			r.logger.Debug("discarding sensor line", zap.String("line", line), zap.Error(err))
		}
	}
	if err := scanner.Err(); err != nil {
		var portErr *serial.PortError
		if !errors.As(err, &portErr) || portErr.Code() != serial.PortClosed {
			r.logger.Warn("sensor read error", zap.Error(err))
		}
	}
}

func (r *SerialReader) update(line string) error {
	temp, hum, err := parseLine(line)
	if err != nil {
		return err
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !math.IsNaN(temp) {
		r.temp = cached{value: temp, at: now, valid: true}
	}
	if !math.IsNaN(hum) {
		r.hum = cached{value: hum, at: now, valid: true}
	}
	return nil
}

// parseLine parses "temperature,humidity". Either field may be NaN.
func parseLine(line string) (temp, hum float64, err error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid line format: expected 2 comma-separated values, got %d", len(parts))
	}
	temp, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid temperature: %w", err)
	}
	hum, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid humidity: %w", err)
	}
	if !math.IsNaN(hum) && (hum < 0 || hum > 100) {
		return 0, 0, fmt.Errorf("humidity out of range: %v", hum)
	}
	return temp, hum, nil
}

func (r *SerialReader) get(c *cached) (float64, error) {
	r.mu.RLock()
	v := *c
	r.mu.RUnlock()

	if !v.valid {
		return 0, ErrNoReading
	}
	if age := r.now().Sub(v.at); age > r.maxAge {
		return 0, fmt.Errorf("%w: %v old", ErrStale, age.Truncate(time.Second))
	}
	return v.value, nil
}

// Temperature returns the latest temperature if it is fresh enough.
func (r *SerialReader) Temperature() (float64, error) {
	return r.get(&r.temp)
}

// Humidity returns the latest humidity if it is fresh enough.
func (r *SerialReader) Humidity() (float64, error) {
	return r.get(&r.hum)
}

// Close closes the port and waits for the reader goroutine.
func (r *SerialReader) Close() error {
	if r.port == nil {
		return nil
	}
	err := r.port.Close()
	<-r.done
	return err
}
