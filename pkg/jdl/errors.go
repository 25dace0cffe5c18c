package jdl

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed protocol step.
type Kind int

const (
	SelectionFailed Kind = iota + 1
	ReadFailed
	VerificationFailed
	RetryCountQueryFailed
)

// Sentinels matched by errors.Is against a *StepError of the same Kind.
var (
	ErrSelectionFailed       = errors.New("selection failed")
	ErrReadFailed            = errors.New("read failed")
	ErrVerificationFailed    = errors.New("verification failed")
	ErrRetryCountQueryFailed = errors.New("retry count query failed")
)

func (k Kind) sentinel() error {
	switch k {
	case SelectionFailed:
		return ErrSelectionFailed
	case ReadFailed:
		return ErrReadFailed
	case VerificationFailed:
		return ErrVerificationFailed
	case RetryCountQueryFailed:
		return ErrRetryCountQueryFailed
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Slot identifies which secret code a verification used.
type Slot int

const (
	NoSlot Slot = iota
	PrimarySlot
	SecondarySlot
)

func (s Slot) String() string {
	switch s {
	case PrimarySlot:
		return "primary"
	case SecondarySlot:
		return "secondary"
	default:
		return ""
	}
}

// StepError reports a card answer that failed the success check of a step.
// Response holds the raw answer (data and status word) as received.
type StepError struct {
	Kind     Kind
	Step     Step
	Slot     Slot
	Response []byte
	Err      error
}

func (e *StepError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "jdl: %s: %s", e.Step, e.Kind)
	if e.Slot != NoSlot {
		fmt.Fprintf(&b, " (%s code)", e.Slot)
	}
	fmt.Fprintf(&b, ", response [%s]", strings.ToUpper(hex.EncodeToString(e.Response)))
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Is matches the Kind sentinel so callers can write errors.Is(err, ErrReadFailed).
func (e *StepError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// TransportError reports that a command could not be exchanged with the card.
type TransportError struct {
	Step Step
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("jdl: %s: transport: %v", e.Step, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
