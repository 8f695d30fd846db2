// Package gpio drives the relay output of an actuator node.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Output drives a single digital output line.
type Output interface {
	// Set energizes (true) or de-energizes (false) the line.
	Set(on bool) error

	// Close de-energizes and releases the line.
	Close() error
}

// Defaults for a Raspberry Pi relay hat (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 17
)
