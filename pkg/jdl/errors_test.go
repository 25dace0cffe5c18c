package jdl

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepError_Error(t *testing.T) {
	err := &StepError{
		Kind:     VerificationFailed,
		Step:     StepVerifySecondary,
		Slot:     SecondarySlot,
		Response: []byte{0x63, 0xc1},
	}
	assert.Equal(t, "jdl: verify secondary code: verification failed (secondary code), response [63C1]", err.Error())

	inner := errors.New("response too short: length 1")
	err = &StepError{Kind: SelectionFailed, Step: StepSelectMaster, Response: []byte{0x90}, Err: inner}
	assert.Equal(t, "jdl: select master file: selection failed, response [90]: response too short: length 1", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), ErrSelectionFailed)
}

func TestKindAndSlotStrings(t *testing.T) {
	assert.Equal(t, "retry count query failed", RetryCountQueryFailed.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
	assert.Equal(t, "primary", PrimarySlot.String())
	assert.Empty(t, NoSlot.String())
}

func TestTransportError(t *testing.T) {
	inner := errors.New("reader unplugged")
	err := &TransportError{Step: StepReadLicense, Err: inner}
	assert.Equal(t, "jdl: read license record: transport: reader unplugged", err.Error())
	assert.ErrorIs(t, err, inner)
}
