package radio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultBaudRate matches the factory setting of common 433 MHz UART modems.
const DefaultBaudRate = 9600

// readPoll bounds each blocking Read so Close can stop the reader goroutine.
const readPoll = 200 * time.Millisecond

// SerialConfig configures a UART radio modem in transparent mode.
type SerialConfig struct {
	Port      string
	BaudRate  int
	InboxSize int
}

// SerialChannel talks to a transparent UART radio modem. Every modem on the
// same RF channel hears every transmission, which gives the broadcast medium.
type SerialChannel struct {
	port   serial.Port
	inbox  *inbox
	logger *zap.Logger

	writeMu sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSerialChannel opens the port and starts the reader goroutine.
func NewSerialChannel(cfg SerialConfig, logger *zap.Logger) (*SerialChannel, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(readPoll); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	c := &SerialChannel{
		port:   port,
		inbox:  newInbox(cfg.InboxSize),
		logger: logger.With(zap.String("port", cfg.Port), zap.Int("baud", baud)),
		done:   make(chan struct{}),
	}
	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

func (c *SerialChannel) readLoop() {
	defer c.wg.Done()

	var d deframer
	buf := make([]byte, 64)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		n, err := c.port.Read(buf)
		if err != nil {
			var portErr *serial.PortError
			if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
				return
			}
			c.logger.Warn("serial read error", zap.Error(err))
			time.Sleep(readPoll)
			continue
		}
		for _, b := range buf[:n] {
			if frame, ok := d.feed(b); ok {
				c.inbox.deliver(frame)
			}
		}
	}
}

// Send frames and writes the payload to the modem.
func (c *SerialChannel) Send(frame []byte) error {
	out, err := appendFrame(nil, frame)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.port.Write(out); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Receive waits up to timeout for the next complete frame.
func (c *SerialChannel) Receive(timeout time.Duration) ([]byte, error) {
	return c.inbox.receive(timeout)
}

// IsConnected always reports true; a UART has no link state.
func (c *SerialChannel) IsConnected() bool {
	return true
}

// Dropped returns the number of frames discarded by the inbox.
func (c *SerialChannel) Dropped() uint64 {
	return c.inbox.Dropped()
}

// Close stops the reader and closes the port.
func (c *SerialChannel) Close() error {
	close(c.done)
	c.inbox.close()
	err := c.port.Close()
	c.wg.Wait()
	return err
}
