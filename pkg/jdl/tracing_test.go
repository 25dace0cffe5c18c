package jdl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gregLibert/jdl-reader/pkg/tlv"
)

func newRecordingReader() (*Reader, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return NewReader(WithTracer(tp.Tracer("jdl-test"))), rec
}

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestReader_Spans(t *testing.T) {
	reader, rec := newRecordingReader()
	script := fullScript()

	_, err := reader.Run(ContextWithSessionID(context.Background(), "traced"), newScriptedTransport(t, script), "1234", strPtr("5678"))
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, len(script)+1)

	session := spans[len(spans)-1]
	assert.Equal(t, "jdl.session", session.Name())
	assert.Equal(t, codes.Unset, session.Status().Code)
	id, ok := spanAttr(session, "jdl.session_id")
	require.True(t, ok)
	assert.Equal(t, "traced", id.AsString())

	for i, x := range script {
		span := spans[i]
		assert.Equal(t, string(x.step), span.Name())
		assert.Equal(t, session.SpanContext().SpanID(), span.Parent().SpanID(), "step %s", x.step)

		sw, ok := spanAttr(span, "apdu.sw")
		require.True(t, ok, "step %s has no apdu.sw", x.step)
		assert.Equal(t, x.resp[len(x.resp)-2:], tlv.Hex(sw.AsString()), "step %s", x.step)
		assert.Equal(t, codes.Unset, span.Status().Code, "step %s", x.step)
	}
}

func TestReader_SpansOnFailure(t *testing.T) {
	reader, rec := newRecordingReader()
	script := primaryScript()
	script[4].resp = tlv.Hex("63C2")

	_, err := reader.Run(context.Background(), newScriptedTransport(t, script), "1234", nil)
	require.ErrorIs(t, err, ErrVerificationFailed)

	spans := rec.Ended()
	require.Len(t, spans, 6)

	failed := spans[4]
	assert.Equal(t, string(StepVerifyPrimary), failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	sw, ok := spanAttr(failed, "apdu.sw")
	require.True(t, ok)
	assert.Equal(t, "63C2", sw.AsString())
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)

	for _, span := range spans[:4] {
		assert.Equal(t, codes.Unset, span.Status().Code, span.Name())
	}

	session := spans[5]
	assert.Equal(t, "jdl.session", session.Name())
	assert.Equal(t, codes.Error, session.Status().Code)
}
