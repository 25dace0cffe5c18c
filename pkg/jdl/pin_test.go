package jdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePIN(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   []byte
	}{
		{"Four digits", "1234", []byte{0x31, 0x32, 0x33, 0x34}},
		{"Zeros", "0000", []byte{0x30, 0x30, 0x30, 0x30}},
		{"Non digit maps to zero", "12a4", []byte{0x31, 0x32, 0x00, 0x34}},
		{"Multibyte rune is one byte", "1２", []byte{0x31, 0x00}},
		{"Empty", "", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodePIN(tt.secret))
		})
	}
}

func TestValidatePIN(t *testing.T) {
	for _, ok := range []string{"1", "12", "123", "1234", "0000"} {
		assert.NoError(t, ValidatePIN(ok), ok)
	}
	for _, bad := range []string{"", "12345", "12a4", " 123", "１２３４"} {
		assert.ErrorIs(t, ValidatePIN(bad), ErrInvalidPIN, bad)
	}
}
