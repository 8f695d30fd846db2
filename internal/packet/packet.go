// Package packet encodes and decodes the fixed-layout power command exchanged
// between the coordinator and actuator nodes.
//
// Layout (3 bytes, no header, no checksum):
//
//	byte 0  target node id
//	byte 1  activate (0 = off, anything else = on)
//	byte 2  duration in seconds (0-255)
package packet

import (
	"errors"
	"fmt"
	"time"
)

// Size is the encoded length of a packet in bytes.
const Size = 3

// ErrMalformed is returned by Decode when the input is too short to hold a packet.
var ErrMalformed = errors.New("malformed packet")

// NodeID identifies a node on the channel.
type NodeID uint8

// Packet is a single power command addressed to one actuator class.
type Packet struct {
	Target   NodeID
	Activate bool
	Duration uint8 // seconds
}

// Encode packs the fields into the wire layout.
func Encode(target NodeID, activate bool, duration uint8) [Size]byte {
	var b [Size]byte
	b[0] = byte(target)
	if activate {
		b[1] = 1
	}
	b[2] = duration
	return b
}

// Decode unpacks a packet. Bytes beyond Size are ignored; field ranges are
// not validated.
func Decode(b []byte) (Packet, error) {
	if len(b) < Size {
		return Packet{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformed, len(b), Size)
	}
	return Packet{
		Target:   NodeID(b[0]),
		Activate: b[1] != 0,
		Duration: b[2],
	}, nil
}

// Bytes returns the encoded packet as a slice.
func (p Packet) Bytes() []byte {
	b := Encode(p.Target, p.Activate, p.Duration)
	return b[:]
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p Packet) MarshalBinary() ([]byte, error) {
	return p.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Packet) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// Window returns the duration field as a time.Duration.
func (p Packet) Window() time.Duration {
	return time.Duration(p.Duration) * time.Second
}

func (p Packet) String() string {
	action := "OFF"
	if p.Activate {
		action = "ON"
	}
	return fmt.Sprintf("node=%d %s %ds", p.Target, action, p.Duration)
}
