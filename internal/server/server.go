// Package server exposes the card reader to local applications over HTTP.
//
// Only one session runs at a time: the reader holds a single card. A request
// arriving while a session is running is rejected instead of queued, since
// the card in the field may already have changed.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/gregLibert/jdl-reader/internal/metrics"
	"github.com/gregLibert/jdl-reader/pkg/jdl"
)

// TransportFactory opens a transport for one session. The session closes it.
type TransportFactory func(ctx context.Context) (jdl.Transport, error)

// maxBodyBytes bounds the read request body.
const maxBodyBytes = 1 << 10

// Server serves read requests against one reader.
type Server struct {
	reader   *jdl.Reader
	open     TransportFactory
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	sem      *semaphore.Weighted
}

// New creates a Server. reader should carry m as its observer.
func New(reader *jdl.Reader, open TransportFactory, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	return &Server{
		reader:   reader,
		open:     open,
		metrics:  m,
		gatherer: gatherer,
		logger:   logger,
		sem:      semaphore.NewWeighted(1),
	}
}

// Routes wires the endpoints with middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery(s.logger))
	r.Use(SessionID)
	r.Use(Logger(s.logger))

	r.Post("/v1/read", s.handleRead)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("reader service listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// ReadRequest is the body of POST /v1/read.
type ReadRequest struct {
	PIN1 string  `json:"pin1"`
	PIN2 *string `json:"pin2,omitempty"`
}

// ReadResponse is the body of a successful read.
type ReadResponse struct {
	SessionID string `json:"session_id"`
	*jdl.SessionResult
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Step        string `json:"step,omitempty"`
	Response    string `json:"response,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := jdl.SessionIDFromContext(ctx)

	var req ReadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Description: "body must be a JSON object", SessionID: id})
		return
	}
	if err := jdl.ValidatePIN(req.PIN1); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_pin", Description: "pin1 must be 1 to 4 digits", SessionID: id})
		return
	}
	if req.PIN2 != nil {
		if err := jdl.ValidatePIN(*req.PIN2); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_pin", Description: "pin2 must be 1 to 4 digits", SessionID: id})
			return
		}
	}

	if !s.sem.TryAcquire(1) {
		s.metrics.BusyRejections.Inc()
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "reader_busy", Description: "a session is already running", SessionID: id})
		return
	}
	defer s.sem.Release(1)

	s.metrics.InFlight.Inc()
	defer s.metrics.InFlight.Dec()

	t, err := s.open(ctx)
	if err != nil {
		s.logger.Warn("opening transport", "session_id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "reader_unavailable", Description: err.Error(), SessionID: id})
		return
	}

	res, err := s.reader.Run(ctx, t, req.PIN1, req.PIN2)
	if err != nil {
		status, body := errorResponse(err)
		body.SessionID = id
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, ReadResponse{SessionID: id, SessionResult: res})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse translates session errors to HTTP responses.
func errorResponse(err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: metrics.Outcome(err), Description: err.Error()}

	var stepErr *jdl.StepError
	if errors.As(err, &stepErr) {
		body.Step = string(stepErr.Step)
		body.Response = strings.ToUpper(fmt.Sprintf("%x", stepErr.Response))
	}
	var tErr *jdl.TransportError
	if errors.As(err, &tErr) {
		body.Step = string(tErr.Step)
	}

	if errors.Is(err, jdl.ErrVerificationFailed) {
		return http.StatusUnauthorized, body
	}
	return http.StatusBadGateway, body
}

func writeJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// best-effort fallback; don't override status for the caller
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
