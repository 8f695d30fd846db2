//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutput drives a relay through the Linux GPIO character device.
type RealOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealOutput requests offset on chip as an output, initially low.
// activeLow inverts the line for relay boards that energize on a low level.
func NewRealOutput(chipName string, offset int, activeLow bool) (*RealOutput, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("climate-relay"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := chip.RequestLine(offset, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output line %d: %w", offset, err)
	}

	return &RealOutput{chip: chip, line: line}, nil
}

// Set writes the logical level of the line.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set line: %w", err)
	}
	return nil
}

// Close drives the line inactive, then releases the line and the chip.
// The line is released as an input so the relay stays de-energized while the
// process is not running.
func (o *RealOutput) Close() error {
	var errs []error

	if o.line != nil {
		if err := o.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("de-energize line: %w", err))
		}
		if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := o.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
