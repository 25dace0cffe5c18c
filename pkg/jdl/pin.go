package jdl

import "errors"

// ErrInvalidPIN is returned by ValidatePIN for anything other than 1-4 digits.
var ErrInvalidPIN = errors.New("jdl: PIN must be 1 to 4 digits")

// MaxPINLength is the number of digits the card stores per PIN.
const MaxPINLength = 4

// EncodePIN converts a secret code to the bytes sent in VERIFY.
// Each character becomes one byte: '0'-'9' map to 0x30-0x39 and any other
// character maps to 0x00, which the card rejects.
func EncodePIN(secret string) []byte {
	out := make([]byte, 0, len(secret))
	for _, r := range secret {
		if r >= '0' && r <= '9' {
			out = append(out, byte(r))
		} else {
			out = append(out, 0x00)
		}
	}
	return out
}

// ValidatePIN reports whether secret is a usable PIN.
func ValidatePIN(secret string) error {
	if len(secret) == 0 || len(secret) > MaxPINLength {
		return ErrInvalidPIN
	}
	for i := 0; i < len(secret); i++ {
		if secret[i] < '0' || secret[i] > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}
