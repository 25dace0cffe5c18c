package iso7816

import (
	"bytes"
	"fmt"
)

// A command APDU is the four header bytes CLA INS P1 P2, optionally followed
// by Lc and a data field, optionally followed by Le. Lc and Le take one
// byte each unless either Nc exceeds 255 or Ne exceeds 256; then both use
// the extended form, introduced by a 00 byte. A response APDU is an optional
// data field followed by the SW1 SW2 trailer.
//
// The license profile only ever needs one extended command: the 880-byte
// READ BINARY of the personal records.

const (
	MaxShortLc    = 255
	MaxShortLe    = 256 // encoded as 00
	MaxExtendedLc = 65535
	MaxExtendedLe = 65536 // encoded as 0000
)

// CommandAPDU is a command ready to be encoded. Ne is the expected response
// length; zero means no Le field.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int
}

// NewCommandAPDU assembles a command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{Class: cla, Instruction: ins, P1: p1, P2: p2, Data: data, Ne: ne}
}

// Bytes encodes the command, choosing the short or extended length form.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc, ne := len(c.Data), c.Ne
	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("data field too long: %d bytes", nc)
	}
	if ne < 0 || ne > MaxExtendedLe {
		return nil, fmt.Errorf("expected length out of range: %d", ne)
	}

	cla, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	buf := bytes.NewBuffer([]byte{cla, byte(c.Instruction.Raw), c.P1, c.P2})
	extended := nc > MaxShortLc || ne > MaxShortLe

	if nc > 0 {
		if extended {
			buf.Write([]byte{0x00, byte(nc >> 8), byte(nc)})
		} else {
			buf.WriteByte(byte(nc))
		}
		buf.Write(c.Data)
	}

	switch {
	case ne == 0:
	case !extended:
		// 256 wraps to 00.
		buf.WriteByte(byte(ne))
	default:
		// Without Lc the extended Le needs its own 00 marker.
		if nc == 0 {
			buf.WriteByte(0x00)
		}
		// 65536 wraps to 0000.
		buf.Write([]byte{byte(ne >> 8), byte(ne)})
	}

	return buf.Bytes(), nil
}

// String returns a readable representation of the command meta-data.
// The data field is never printed: VERIFY commands carry PIN digits.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// MalformedResponseError is returned when the card answers with fewer than
// the two status bytes every R-APDU must carry.
type MalformedResponseError struct {
	Raw []byte
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("response too short: length %d", len(e.Raw))
}

// ParseResponseAPDU parses raw bytes received from the card into a ResponseAPDU.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, &MalformedResponseError{Raw: append([]byte(nil), raw...)}
	}

	indexSW1 := len(raw) - 2

	return &ResponseAPDU{
		Data:   raw[:indexSW1],
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// Bytes re-assembles the response as it came off the wire (Data || SW1 || SW2).
func (r *ResponseAPDU) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+2)
	out = append(out, r.Data...)
	return append(out, r.Status.SW1(), r.Status.SW2())
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
