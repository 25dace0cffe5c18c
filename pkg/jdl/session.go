package jdl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gregLibert/jdl-reader/pkg/bits"
	"github.com/gregLibert/jdl-reader/pkg/iso7816"
)

// SESSION FLOW:
// One session reads one card, strictly in order, with a single attempt per
// step:
//
//	select MF -> select MF/EF01 -> read common data -> query PIN1 counter
//	-> verify PIN1 -> select DF1 -> read DF1/EF01
//	[-> select MF -> verify PIN2 -> select DF1 -> read DF1/EF02]
//
// The first failing step aborts the session. The transport is closed once,
// on every exit path.

// Step names a stage of the session. It appears in errors, logs and metrics.
type Step string

const (
	StepSelectMaster    Step = "select master file"
	StepSelectCommon    Step = "select common data file"
	StepReadCommon      Step = "read common data file"
	StepParseCommon     Step = "parse common data"
	StepQueryAttempts   Step = "query remaining attempts"
	StepVerifyPrimary   Step = "verify primary code"
	StepSelectLicense   Step = "select license application"
	StepReadLicense     Step = "read license record"
	StepParseLicense    Step = "parse license record"
	StepReselectMaster  Step = "reselect master file"
	StepVerifySecondary Step = "verify secondary code"
	StepReselectLicense Step = "reselect license application"
	StepReadDomicile    Step = "read domicile record"
	StepParseDomicile   Step = "parse domicile record"
)

// Card profile constants.
var (
	commonEF   = [2]byte{0x2F, 0x01}
	licenseAID = []byte{
		0xA0, 0x00, 0x00, 0x02, 0x31, 0x01, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
)

const (
	primaryRef   byte = 0x81
	secondaryRef byte = 0x82

	licenseSFI  byte = 0x01
	domicileSFI byte = 0x02

	commonReadLength = 0x11
	recordReadLength = 0x0370

	statusOK      byte = 0x90
	statusCounter byte = 0x63
	counterBase   byte = 0xC0
)

const tracerName = "github.com/gregLibert/jdl-reader/pkg/jdl"

// Transport is the exclusive link to one presented card.
type Transport interface {
	Transmit(cmd []byte) ([]byte, error)
	Close() error
}

// Observer receives timing for each exchanged command and for the session.
// err is nil on success.
type Observer interface {
	ObserveStep(step Step, d time.Duration, err error)
	ObserveSession(d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStep(Step, time.Duration, error) {}
func (nopObserver) ObserveSession(time.Duration, error)    {}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger. Secrets and personal fields are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// WithTracer sets the tracer used for session and step spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Reader) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithObserver registers a metrics hook.
func WithObserver(o Observer) Option {
	return func(r *Reader) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithClass overrides the CLA byte (default 00).
func WithClass(c iso7816.Class) Option {
	return func(r *Reader) {
		r.class = c
	}
}

// Reader runs license-reading sessions. It holds no per-card state and
// may be reused, but each Transport belongs to a single Run.
type Reader struct {
	log      *slog.Logger
	tracer   trace.Tracer
	observer Observer
	class    iso7816.Class
}

// NewReader creates a Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		log:      slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer(tracerName),
		observer: nopObserver{},
		class:    iso7816.BasicClass,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads the card behind t with a default Reader.
func Run(ctx context.Context, t Transport, primary string, secondary *string, opts ...Option) (*SessionResult, error) {
	return NewReader(opts...).Run(ctx, t, primary, secondary)
}

type sessionIDKey struct{}

// ContextWithSessionID attaches the id Run uses in logs and spans.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the id set by ContextWithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(string)
	return id, ok && id != ""
}

// Run reads the card behind t. primary unlocks the license record;
// secondary, when non-nil, additionally unlocks the registered domicile.
// t is closed before Run returns, whatever the outcome.
func (r *Reader) Run(ctx context.Context, t Transport, primary string, secondary *string) (res *SessionResult, err error) {
	id, ok := SessionIDFromContext(ctx)
	if !ok {
		id = uuid.NewString()
	}

	ctx, span := r.tracer.Start(ctx, "jdl.session", trace.WithAttributes(
		attribute.String("jdl.session_id", id),
		attribute.Bool("jdl.secondary", secondary != nil),
	))
	s := &session{
		Reader: r,
		id:     id,
		log:    r.log.With("session_id", id),
		client: iso7816.NewClient(t, iso7816.WithoutAutoResponse()),
	}
	start := time.Now()

	defer func() {
		if cerr := t.Close(); cerr != nil {
			s.log.Warn("closing transport", "error", cerr)
		}
		if err != nil {
			res = nil
			span.RecordError(err)
			span.SetStatus(codes.Error, "session failed")
			s.log.Info("session failed", "error", err)
		} else {
			s.log.Info("session completed", "remaining_attempts", res.RemainingAttempts, "domicile", res.Domicile != nil)
		}
		r.observer.ObserveSession(time.Since(start), err)
		span.End()
	}()

	return s.run(ctx, primary, secondary)
}

type session struct {
	*Reader
	id     string
	log    *slog.Logger
	client *iso7816.Client
}

func (s *session) run(ctx context.Context, primary string, secondary *string) (*SessionResult, error) {
	var res SessionResult

	if _, err := s.exchange(ctx, StepSelectMaster, iso7816.SelectMF(s.class), SelectionFailed, NoSlot, leadingOK); err != nil {
		return nil, err
	}
	if _, err := s.exchange(ctx, StepSelectCommon, iso7816.SelectEF(s.class, commonEF), SelectionFailed, NoSlot, leadingOK); err != nil {
		return nil, err
	}
	raw, err := s.exchange(ctx, StepReadCommon, iso7816.ReadBinary(s.class, 0, commonReadLength), ReadFailed, NoSlot, trailerOK)
	if err != nil {
		return nil, err
	}
	if res.Common, err = ParseCommon(raw); err != nil {
		return nil, parseError(StepParseCommon, err)
	}

	raw, err = s.exchange(ctx, StepQueryAttempts, iso7816.VerifyStatus(s.class, primaryRef), RetryCountQueryFailed, PrimarySlot, counterMarker)
	if err != nil {
		return nil, err
	}
	res.RemainingAttempts = remainingAttempts(raw)

	if _, err := s.exchange(ctx, StepVerifyPrimary, iso7816.Verify(s.class, primaryRef, EncodePIN(primary)), VerificationFailed, PrimarySlot, trailerOK); err != nil {
		return nil, err
	}
	if _, err := s.exchange(ctx, StepSelectLicense, iso7816.SelectDF(s.class, licenseAID), SelectionFailed, NoSlot, leadingOK); err != nil {
		return nil, err
	}
	raw, err = s.readSFI(ctx, StepReadLicense, licenseSFI)
	if err != nil {
		return nil, err
	}
	if res.License, err = ParseLicense(raw); err != nil {
		return nil, parseError(StepParseLicense, err)
	}

	if secondary != nil {
		domicile, err := s.readDomicile(ctx, *secondary)
		if err != nil {
			return nil, err
		}
		res.Domicile = &domicile
	}

	return &res, nil
}

func (s *session) readDomicile(ctx context.Context, secondary string) (string, error) {
	if _, err := s.exchange(ctx, StepReselectMaster, iso7816.SelectMF(s.class), SelectionFailed, NoSlot, leadingOK); err != nil {
		return "", err
	}
	if _, err := s.exchange(ctx, StepVerifySecondary, iso7816.Verify(s.class, secondaryRef, EncodePIN(secondary)), VerificationFailed, SecondarySlot, trailerOK); err != nil {
		return "", err
	}
	if _, err := s.exchange(ctx, StepReselectLicense, iso7816.SelectDF(s.class, licenseAID), SelectionFailed, NoSlot, leadingOK); err != nil {
		return "", err
	}
	raw, err := s.readSFI(ctx, StepReadDomicile, domicileSFI)
	if err != nil {
		return "", err
	}
	domicile, err := ParseDomicile(raw)
	if err != nil {
		return "", parseError(StepParseDomicile, err)
	}
	return domicile, nil
}

func (s *session) readSFI(ctx context.Context, step Step, sfi byte) ([]byte, error) {
	cmd, err := iso7816.ReadBinarySFI(s.class, sfi, 0, recordReadLength)
	if err != nil {
		return nil, fmt.Errorf("jdl: %s: %w", step, err)
	}
	return s.exchange(ctx, step, cmd, ReadFailed, NoSlot, trailerOK)
}

// exchange sends one command and applies the step's success check to the
// raw answer.
func (s *session) exchange(ctx context.Context, step Step, cmd *iso7816.CommandAPDU, kind Kind, slot Slot, ok func([]byte) bool) (raw []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Step: step, Err: err}
	}

	_, span := s.tracer.Start(ctx, string(step), trace.WithAttributes(
		attribute.String("apdu.ins", cmd.Instruction.Raw.String()),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "step failed")
		}
		s.observer.ObserveStep(step, time.Since(start), err)
		span.End()
	}()

	tr, err := s.client.Send(cmd)
	if err != nil {
		var txErr *iso7816.TransmitError
		var short *iso7816.MalformedResponseError
		switch {
		case errors.As(err, &txErr):
			return nil, &TransportError{Step: step, Err: txErr.Err}
		case errors.As(err, &short):
			return nil, &StepError{Kind: kind, Step: step, Slot: slot, Response: short.Raw, Err: err}
		default:
			return nil, &TransportError{Step: step, Err: err}
		}
	}

	resp := tr.Final()
	raw = resp.Bytes()
	span.SetAttributes(attribute.String("apdu.sw", fmt.Sprintf("%04X", uint16(resp.Status))))
	s.log.Debug("step", "step", step, "sw", resp.Status.Verbose(), "length", len(resp.Data))

	if !ok(raw) {
		return nil, &StepError{Kind: kind, Step: step, Slot: slot, Response: raw}
	}
	return raw, nil
}

func parseError(step Step, err error) error {
	return fmt.Errorf("jdl: %s: %w", step, err)
}

// Selections answer with the status word alone; the first byte carries
// the verdict.
func leadingOK(raw []byte) bool {
	return len(raw) > 0 && raw[0] == statusOK
}

// Reads and verifications are judged on the trailer.
func trailerOK(raw []byte) bool {
	return len(raw) >= 2 && raw[len(raw)-2] == statusOK
}

func counterMarker(raw []byte) bool {
	return len(raw) > 0 && raw[0] == statusCounter
}

// remainingAttempts extracts the counter from a '63CX' answer: the low
// nibble of the last byte once the base is removed.
func remainingAttempts(raw []byte) int {
	return int(bits.LowNibble(raw[len(raw)-1] - counterBase))
}
