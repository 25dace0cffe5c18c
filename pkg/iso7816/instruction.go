package iso7816

import (
	"fmt"

	"github.com/gregLibert/jdl-reader/pkg/bits"
)

// Instruction Byte (INS) Logic according to ISO/IEC 7816-4.
//
// 1. Data Encoding (Bit 1):
//    With the interindustry class, bit 1 set means the data field is BER-TLV
//    encoded, e.g. READ BINARY (0xB0) vs READ BINARY (BER-TLV) (0xB1).
//
// 2. Reserved Ranges:
//    INS values 0x6X and 0x9X are invalid: they collide with SW1 values and
//    transport procedure bytes (ISO/IEC 7816-3).

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Instruction codes used by the license card profile.
const (
	INS_VERIFY          InsCode = 0x20
	INS_SELECT          InsCode = 0xA4
	INS_READ_BINARY     InsCode = 0xB0
	INS_READ_BINARY_BER InsCode = 0xB1
	INS_GET_RESPONSE    InsCode = 0xC0
)

func (i InsCode) String() string {
	switch i {
	case INS_VERIFY:
		return "INS_VERIFY"
	case INS_SELECT:
		return "INS_SELECT"
	case INS_READ_BINARY:
		return "INS_READ_BINARY"
	case INS_READ_BINARY_BER:
		return "INS_READ_BINARY_BER"
	case INS_GET_RESPONSE:
		return "INS_GET_RESPONSE"
	default:
		return fmt.Sprintf("InsCode(0x%02X)", byte(i))
	}
}

// Instruction represents the parsed ISO 7816-4 Instruction byte (INS).
type Instruction struct {
	Raw      InsCode
	IsBERTLV bool
}

// NewInstruction creates an Instruction object with validation.
// It rejects '6X' and '9X' values as they are invalid according to ISO 7816-3.
func NewInstruction(ins InsCode) (Instruction, error) {
	highNibble := bits.HighNibble(byte(ins))
	if highNibble == 0x6 || highNibble == 0x9 {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: bits.IsSet(byte(ins), 1),
	}, nil
}

// mustInstruction is used by the builders below, whose codes are constants
// known to be valid.
func mustInstruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	format := "Standard"
	if i.IsBERTLV {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS: 0x%02X | Command: %s | Format: %s", byte(i.Raw), i.Raw.String(), format)
}
