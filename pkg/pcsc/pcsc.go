// Package pcsc connects to a contactless card through the PC/SC service
// (pcsclite on Linux and macOS, WinSCard on Windows).
package pcsc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ebfe/scard"

	"github.com/gregLibert/jdl-reader/pkg/jdl"
)

var (
	// ErrNoReader is returned when the PC/SC service reports no reader.
	ErrNoReader = errors.New("pcsc: no smart card reader found")
	// ErrNoCard is returned when no card was presented within the wait time.
	ErrNoCard = errors.New("pcsc: no card presented")
)

// Options selects the reader and how long to wait for a card.
type Options struct {
	// Reader is a reader name or a case-insensitive substring of one.
	// Empty means the first reader.
	Reader string
	// Wait is how long Open waits for a card. Zero means the card must
	// already be on the reader.
	Wait time.Duration
}

// Transport is an exclusive connection to the card on one reader.
// It implements jdl.Transport.
type Transport struct {
	ctx    *scard.Context
	card   *scard.Card
	reader string

	closeOnce sync.Once
	closeErr  error
}

var _ jdl.Transport = (*Transport)(nil)

// ListReaders returns the names of the connected readers.
func ListReaders() ([]string, error) {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("pcsc: establishing context: %w", err)
	}
	defer sctx.Release()

	readers, err := sctx.ListReaders()
	if err != nil {
		if errors.Is(err, scard.ErrNoReadersAvailable) {
			return nil, nil
		}
		return nil, fmt.Errorf("pcsc: listing readers: %w", err)
	}
	return readers, nil
}

// Open connects to the card on the configured reader. Cancelling ctx aborts
// the wait for a card.
func Open(ctx context.Context, opts Options) (*Transport, error) {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("pcsc: establishing context: %w", err)
	}

	t, err := connect(ctx, sctx, opts)
	if err != nil {
		_ = sctx.Release()
		return nil, err
	}
	return t, nil
}

func connect(ctx context.Context, sctx *scard.Context, opts Options) (*Transport, error) {
	readers, err := sctx.ListReaders()
	if err != nil && !errors.Is(err, scard.ErrNoReadersAvailable) {
		return nil, fmt.Errorf("pcsc: listing readers: %w", err)
	}
	reader, err := pickReader(readers, opts.Reader)
	if err != nil {
		return nil, err
	}

	if opts.Wait > 0 {
		if err := waitForCard(ctx, sctx, reader, opts.Wait); err != nil {
			return nil, err
		}
	}

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57)
	card, err := sctx.Connect(reader, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		if errors.Is(err, scard.ErrNoSmartcard) || errors.Is(err, scard.ErrRemovedCard) {
			return nil, fmt.Errorf("%w on %q", ErrNoCard, reader)
		}
		return nil, fmt.Errorf("pcsc: connecting to %q: %w", reader, err)
	}

	return &Transport{ctx: sctx, card: card, reader: reader}, nil
}

// pickReader returns the reader matching want, or the first one.
func pickReader(readers []string, want string) (string, error) {
	if len(readers) == 0 {
		return "", ErrNoReader
	}
	if want == "" {
		return readers[0], nil
	}
	for _, r := range readers {
		if r == want {
			return r, nil
		}
	}
	needle := strings.ToLower(want)
	for _, r := range readers {
		if strings.Contains(strings.ToLower(r), needle) {
			return r, nil
		}
	}
	return "", fmt.Errorf("pcsc: reader %q not found (available: %s)", want, strings.Join(readers, ", "))
}

func waitForCard(ctx context.Context, sctx *scard.Context, reader string, wait time.Duration) error {
	states := []scard.ReaderState{{Reader: reader, CurrentState: scard.StateUnaware}}

	stop := context.AfterFunc(ctx, func() { _ = sctx.Cancel() })
	defer stop()

	deadline := time.Now().Add(wait)
	for {
		if err := sctx.GetStatusChange(states, time.Until(deadline)); err != nil {
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, scard.ErrTimeout):
				return fmt.Errorf("%w on %q within %s", ErrNoCard, reader, wait)
			default:
				return fmt.Errorf("pcsc: waiting for card: %w", err)
			}
		}
		if states[0].EventState&scard.StatePresent != 0 {
			return nil
		}
		states[0].CurrentState = states[0].EventState
	}
}

// Reader returns the name of the connected reader.
func (t *Transport) Reader() string {
	return t.reader
}

// Transmit sends one command APDU and returns the raw response.
func (t *Transport) Transmit(cmd []byte) ([]byte, error) {
	return t.card.Transmit(cmd)
}

// Close disconnects the card and releases the PC/SC context.
// Calls after the first return the first result.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = errors.Join(
			t.card.Disconnect(scard.LeaveCard),
			t.ctx.Release(),
		)
	})
	return t.closeErr
}

// Factory returns a function that opens a fresh transport per session.
func Factory(opts Options) func(context.Context) (jdl.Transport, error) {
	return func(ctx context.Context) (jdl.Transport, error) {
		t, err := Open(ctx, opts)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}
