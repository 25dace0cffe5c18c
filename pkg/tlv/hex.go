// Package tlv splits the SIMPLE-TLV records stored on the license card
// (ISO/IEC 7816-4 §5.2.1: one tag byte, one length byte, value) and carries
// the hex helper used to write card fixtures.
package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex joins hex fragments into bytes. Whitespace between or inside the
// fragments is ignored so card dumps can be pasted as they are printed.
// It panics on malformed input; use it for fixtures and constants only.
func Hex(parts ...string) []byte {
	digits := strings.Join(strings.Fields(strings.Join(parts, " ")), "")

	data, err := hex.DecodeString(digits)
	if err != nil {
		panic(fmt.Sprintf("tlv: bad hex fixture %q: %v", digits, err))
	}
	return data
}
