package radio

import "errors"

// Serial link framing. A transparent UART modem delivers a byte stream, so
// frames are delimited as:
//
//	0x7E | len | payload[len] | xor(len, payload...)
//
// The checksum only protects the link; the payload itself stays opaque.
const (
	frameStart      = 0x7E
	maxFramePayload = 32
)

var errFrameTooLarge = errors.New("radio: frame payload too large")

func appendFrame(dst, payload []byte) ([]byte, error) {
	if len(payload) == 0 || len(payload) > maxFramePayload {
		return dst, errFrameTooLarge
	}
	sum := byte(len(payload))
	dst = append(dst, frameStart, byte(len(payload)))
	for _, b := range payload {
		sum ^= b
		dst = append(dst, b)
	}
	return append(dst, sum), nil
}

type deframeState int

const (
	awaitStart deframeState = iota
	awaitLen
	awaitPayload
	awaitSum
)

// deframer reassembles frames from an arbitrary split of the byte stream and
// resynchronises on the next start marker after any corruption.
type deframer struct {
	state   deframeState
	want    int
	sum     byte
	buf     []byte
	corrupt int
}

func (d *deframer) feed(b byte) ([]byte, bool) {
	switch d.state {
	case awaitStart:
		if b == frameStart {
			d.state = awaitLen
		}
	case awaitLen:
		if b == 0 || int(b) > maxFramePayload {
			d.corrupt++
			d.state = awaitStart
			return nil, false
		}
		d.want = int(b)
		d.sum = b
		d.buf = d.buf[:0]
		d.state = awaitPayload
	case awaitPayload:
		d.buf = append(d.buf, b)
		d.sum ^= b
		if len(d.buf) == d.want {
			d.state = awaitSum
		}
	case awaitSum:
		d.state = awaitStart
		if b != d.sum {
			d.corrupt++
			return nil, false
		}
		out := make([]byte, len(d.buf))
		copy(out, d.buf)
		return out, true
	}
	return nil, false
}
