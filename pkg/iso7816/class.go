package iso7816

import (
	"fmt"

	"github.com/gregLibert/jdl-reader/pkg/bits"
)

// The class byte (CLA) of ISO/IEC 7816-4 comes in three shapes:
//
//	1xxx xxxx  proprietary, opaque to this package
//	000C SSLL  first interindustry: chaining C, secure messaging SS, channel LL (0-3)
//	01SC LLLL  further interindustry: SM flag S, chaining C, channel LLLL+4 (4-19)
//
// License cards are read with CLA 00. Other values are decoded so recorded
// traces can still be described.

// SecureMessaging is the secure messaging indication carried by CLA.
type SecureMessaging int

const (
	SMNone         SecureMessaging = 0
	SMProprietary  SecureMessaging = 1
	SMHeaderNoProc SecureMessaging = 2
	SMHeaderAuth   SecureMessaging = 3
)

// Class is a decoded CLA byte.
type Class struct {
	Raw             byte
	IsProprietary   bool
	IsChained       bool
	SecureMessaging SecureMessaging
	Channel         uint8
}

// BasicClass is CLA 00: basic channel, no secure messaging, no chaining.
var BasicClass = Class{}

const maxChannel = 19

// NewClass decodes a raw CLA byte. FF is reserved for PPS and rejected.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}

	c := Class{Raw: cla}
	switch {
	case bits.IsSet(cla, 8):
		c.IsProprietary = true
	case bits.IsSet(cla, 7):
		c.IsChained = bits.IsSet(cla, 5)
		if bits.IsSet(cla, 6) {
			c.SecureMessaging = SMHeaderNoProc
		}
		c.Channel = bits.LowNibble(cla) + 4
	default:
		c.IsChained = bits.IsSet(cla, 5)
		c.SecureMessaging = SecureMessaging(bits.GetRange(cla, 4, 3))
		c.Channel = bits.GetRange(cla, 2, 1)
	}
	return c, nil
}

// Encode rebuilds the CLA byte. Proprietary classes are returned as decoded.
func (c *Class) Encode() (byte, error) {
	if c.IsProprietary {
		return c.Raw, nil
	}
	if c.Channel > maxChannel {
		return 0, fmt.Errorf("channel %d out of range (max %d)", c.Channel, maxChannel)
	}

	var cla byte
	if c.IsChained {
		cla = bits.Set(cla, 5)
	}

	if c.Channel < 4 {
		return cla | byte(c.SecureMessaging)<<2 | c.Channel, nil
	}

	switch c.SecureMessaging {
	case SMNone:
	case SMHeaderNoProc:
		cla = bits.Set(cla, 6)
	default:
		return 0, fmt.Errorf("SM indicator %d not supported for further interindustry range (ch 4-19)", c.SecureMessaging)
	}
	return bits.Set(cla, 7) | (c.Channel - 4), nil
}
