package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregLibert/jdl-reader/internal/config"
	"github.com/gregLibert/jdl-reader/pkg/jdl"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitError, exitCode(errors.New("boom")))
	verr := &jdl.StepError{Kind: jdl.VerificationFailed, Step: jdl.StepVerifyPrimary}
	assert.Equal(t, exitVerificationFailed, exitCode(fmt.Errorf("read: %w", verr)))
}

func TestResolvePINs(t *testing.T) {
	p1, p2, err := resolvePINs("1234", "")
	require.NoError(t, err)
	assert.Equal(t, "1234", p1)
	assert.Nil(t, p2)

	p1, p2, err = resolvePINs("1234", "5678")
	require.NoError(t, err)
	assert.Equal(t, "1234", p1)
	require.NotNil(t, p2)
	assert.Equal(t, "5678", *p2)

	_, _, err = resolvePINs("", "")
	assert.ErrorIs(t, err, jdl.ErrInvalidPIN)
	_, _, err = resolvePINs("1234", "56789")
	assert.ErrorIs(t, err, jdl.ErrInvalidPIN)
}

func TestPrintResult(t *testing.T) {
	res := &jdl.SessionResult{
		Common:            jdl.CommonRecord{SpecVersion: "008", IssueDate: "230401", ExpiryDate: "280501"},
		RemainingAttempts: 3,
	}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, res, true))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.EqualValues(t, 3, got["remaining_attempts"])

	buf.Reset()
	require.NoError(t, printResult(&buf, res, false))
	assert.Contains(t, buf.String(), "=== DRIVER LICENSE REPORT ===")
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd(config.Reader{LogLevel: "info", LogFormat: "text"})

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["read"])
	assert.True(t, names["serve"])
	assert.True(t, names["readers"])

	root.SetArgs([]string{"read", "--pin1", "12x4"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	assert.ErrorIs(t, err, jdl.ErrInvalidPIN)
}
