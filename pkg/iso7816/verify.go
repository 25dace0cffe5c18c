package iso7816

// VERIFY COMMAND LOGIC (ISO 7816-4):
// VERIFY (INS '20') compares reference data (a PIN) held by the card.
//
// P1 = 00. P2 = reference of the PIN; bit 8 set means a DF-specific reference.
//
// With a data field the card checks the value: 9000 on success, '63CX' with
// X tries left on mismatch, 6983 once the PIN is blocked.
// Without a data field (Case 1) nothing is checked; the card reports the
// retry counter as '63CX', or 9000 when the PIN is already verified.

// Verify submits reference data for the PIN identified by ref.
func Verify(cla Class, ref byte, data []byte) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_VERIFY), 0x00, ref, data, 0)
}

// VerifyStatus queries the retry counter of the PIN identified by ref.
func VerifyStatus(cla Class, ref byte) *CommandAPDU {
	return Verify(cla, ref, nil)
}
