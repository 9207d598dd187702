// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP.
// Implements: prd006-server (R1-R3); docs/ARCHITECTURE § HTTP Surface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/refcheck/internal/grobid"
	"github.com/pdiddy/refcheck/internal/locate"
	"github.com/pdiddy/refcheck/pkg/types"
)

// Checker is the pipeline capability the server exposes.
type Checker interface {
	CheckDocument(ctx context.Context, doc *types.Document) (types.Report, error)
	CheckReferences(ctx context.Context, refs []string) (types.Report, error)
}

// Server serves the check endpoints. Uploads are processed entirely in
// memory and the request context propagates to every outbound call, so a
// dropped client aborts its own pipeline run (prd006-server R2.2).
type Server struct {
	checker Checker
	cfg     types.ServerConfig
	log     *zap.SugaredLogger
	httpSrv *http.Server
}

// New builds a Server.
func New(checker Checker, cfg types.ServerConfig, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{checker: checker, cfg: cfg, log: log}
	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed so tests can drive the server
// through httptest without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/check", s.handleCheck)
	mux.HandleFunc("POST /api/check-references", s.handleCheckReferences)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return s.logRequests(mux)
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Infow("listening", "addr", s.cfg.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// handleCheck accepts a multipart PDF upload in the "file" field and
// returns the verification report.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("missing or oversized file upload: %v", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("reading upload: %v", err))
		return
	}

	doc := &types.Document{Data: data, Name: header.Filename}
	rep, err := s.checker.CheckDocument(r.Context(), doc)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

// handleCheckReferences accepts {"references": [...]} and verifies each
// string without the document stages.
func (s *Server) handleCheckReferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		References []string `json:"references"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	if len(req.References) == 0 {
		s.writeError(w, http.StatusBadRequest, "references list is empty")
		return
	}

	rep, err := s.checker.CheckReferences(r.Context(), req.References)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

// writePipelineError maps the pipeline error taxonomy onto HTTP statuses.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, locate.ErrBadDocument):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, locate.ErrNoReferencesFound):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, grobid.ErrTimeout):
		s.writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, grobid.ErrServiceUnavailable):
		s.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		s.log.Errorw("check failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorw("writing response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// logRequests logs one line per request with duration and status.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
