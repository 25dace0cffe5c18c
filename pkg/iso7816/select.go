package iso7816

import (
	"fmt"
)

// SELECT (INS A4) makes a file or application current. P1 says how the
// target is named; P2 bits 4-3 say what the card should answer with and
// bits 2-1 pick the occurrence (always "first" here).
//
// The license card is selected with P2 = 0C (no response data), except for
// the master file which takes a bare 00 A4 00 00. Either way the answer is
// the status word alone.

// SelectionMethod defines how the file is targeted (P1).
type SelectionMethod byte

const (
	SelectByFileID         SelectionMethod = 0x00
	SelectChildDF          SelectionMethod = 0x01
	SelectEFUnderCurrentDF SelectionMethod = 0x02
	SelectParentDF         SelectionMethod = 0x03
	SelectByDFName         SelectionMethod = 0x04 // Select by AID
)

func (s SelectionMethod) String() string {
	switch s {
	case SelectByFileID:
		return "Select by File ID"
	case SelectChildDF:
		return "Select Child DF"
	case SelectEFUnderCurrentDF:
		return "Select EF under current DF"
	case SelectParentDF:
		return "Select Parent DF"
	case SelectByDFName:
		return "Select by DF Name (AID)"
	default:
		return fmt.Sprintf("Unknown Method (0x%02X)", byte(s))
	}
}

// SelectionControl defines what data to return (Bits 3-4 of P2).
// The occurrence bits (2-1) are always "first or only" for this profile.
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0b0000_00_00
	ReturnFCP    SelectionControl = 0b0000_01_00
	ReturnFMD    SelectionControl = 0b0000_10_00
	ReturnNoData SelectionControl = 0b0000_11_00
)

// NewSelectCommand creates a SELECT command.
// A request carrying no identifier and asking for FCI is a bare header (Case 1).
func NewSelectCommand(cla Class, method SelectionMethod, ctrl SelectionControl, data []byte) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_SELECT), byte(method), byte(ctrl), data, 0)
}

// SelectMF creates the header-only command selecting the Master File: 00 A4 00 00.
func SelectMF(cla Class) *CommandAPDU {
	return NewSelectCommand(cla, SelectByFileID, ReturnFCI, nil)
}

// SelectEF selects an elementary file under the current DF by its 2-byte file ID.
func SelectEF(cla Class, fid [2]byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectEFUnderCurrentDF, ReturnNoData, fid[:])
}

// SelectDF selects a dedicated file by its DF name (AID).
func SelectDF(cla Class, aid []byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectByDFName, ReturnNoData, aid)
}
