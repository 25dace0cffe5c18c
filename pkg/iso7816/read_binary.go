package iso7816

import "fmt"

// READ BINARY COMMAND LOGIC (ISO 7816-4):
// READ BINARY (INS 'B0') reads a transparent EF.
//
// P1 bit 8 = 0: P1-P2 is a 15-bit offset into the currently selected EF.
// P1 bit 8 = 1: bits 5-1 of P1 are a Short File Identifier (SFI) which
//               implicitly selects the EF, and P2 is the offset.

// MaxSFI is the largest Short File Identifier (5 bits).
const MaxSFI = 30

// ReadBinary reads ne bytes of the current EF starting at offset.
func ReadBinary(cla Class, offset uint16, ne int) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_READ_BINARY), byte(offset>>8)&0x7F, byte(offset), nil, ne)
}

// ReadBinarySFI reads ne bytes of the EF identified by sfi, starting at offset.
func ReadBinarySFI(cla Class, sfi byte, offset byte, ne int) (*CommandAPDU, error) {
	if sfi == 0 || sfi > MaxSFI {
		return nil, fmt.Errorf("invalid SFI %d (must be 1-%d)", sfi, MaxSFI)
	}
	return NewCommandAPDU(cla, mustInstruction(INS_READ_BINARY), 0x80|sfi, offset, nil, ne), nil
}
