// Package server exposes review sessions and ledger maintenance over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliar/pkg/importer"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/review"
	"github.com/yurifrl/conciliar/pkg/service"
	"github.com/yurifrl/conciliar/pkg/store"
)

// maxUpload bounds the multipart body of a statement upload.
const maxUpload = 10 << 20

// Server handles HTTP requests for statement review and import
type Server struct {
	svc      *service.Service
	logger   *log.Logger
	mux      *http.ServeMux
	sessions sync.Map // session id -> *service.Session
}

// New creates a new HTTP server
func New(svc *service.Service, logger *log.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) setupRoutes() {
	// review sessions
	s.mux.HandleFunc("POST /api/sessions", s.withLogging(s.handleCreateSession))
	s.mux.HandleFunc("GET /api/sessions/{id}", s.withLogging(s.handleGetSession))
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.withLogging(s.handleDiscardSession))
	s.mux.HandleFunc("PUT /api/sessions/{id}/rows/{row}/category", s.withLogging(s.handleRowCategory))
	s.mux.HandleFunc("PUT /api/sessions/{id}/rows/{row}/status", s.withLogging(s.handleRowStatus))
	s.mux.HandleFunc("PUT /api/sessions/{id}/bill-date", s.withLogging(s.handleBillDate))
	s.mux.HandleFunc("POST /api/sessions/{id}/categories", s.withLogging(s.handleQuickCategory))
	s.mux.HandleFunc("POST /api/sessions/{id}/confirm", s.withLogging(s.handleConfirm))
	s.mux.HandleFunc("GET /api/sessions/{id}/export", s.withLogging(s.handleExportPreview))

	// ledger
	s.mux.HandleFunc("GET /api/categories", s.withLogging(s.handleCategories))
	s.mux.HandleFunc("POST /api/periods/{id}/sync", s.withLogging(s.handleSync))
	s.mux.HandleFunc("GET /api/periods/{id}/export", s.withLogging(s.handleExportPeriod))
	s.mux.HandleFunc("GET /api/jobs", s.withLogging(s.handleJobs))
	s.mux.HandleFunc("POST /api/jobs/recover", s.withLogging(s.handleRecover))
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var se *store.Error
	switch {
	case errors.Is(err, importer.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, parser.ErrUnknownFormat), errors.Is(err, parser.ErrNoValidRows),
		errors.Is(err, importer.ErrBillDateRequired), errors.Is(err, service.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, importer.ErrNothingToImport), errors.Is(err, review.ErrRowLocked),
		errors.Is(err, review.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, importer.ErrPeriodClosed), errors.Is(err, importer.ErrCommitInProgress),
		errors.Is(err, importer.ErrAlreadyCommitted), errors.Is(err, service.ErrNoPreview):
		return http.StatusConflict
	case errors.Is(err, review.ErrRowNotFound):
		return http.StatusNotFound
	case errors.As(err, &se):
		if se.Code == store.CodeNotFound {
			return http.StatusNotFound
		}
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// --- helpers ---

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// fail responds with the user-facing message for a domain error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, statusFor(err), service.UserMessage(err), err)
}

func (s *Server) success(w http.ResponseWriter, fields map[string]any) {
	fields["status"] = "success"
	if err := s.writeJSON(w, http.StatusOK, fields); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// withLogging wraps a handler to log request start/end and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
			s.logger.Debug("http response", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
		}()
		next(w, r)
	}
}
