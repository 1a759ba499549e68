// Package server exposes schema comparison reports over HTTP.
//
// Routes:
//
//	GET /healthz
//	GET /tables/{table}/report?format=text|json|yaml
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/schemadrift/internal/errs"
	"github.com/koustreak/schemadrift/internal/logger"
	"github.com/koustreak/schemadrift/internal/report"
)

const shutdownTimeout = 5 * time.Second

// Builder produces the report for one table.
type Builder interface {
	Build(ctx context.Context, table string) (*report.Report, error)
}

// Server serves reports. Each request builds its report through the Builder.
type Server struct {
	builder Builder
	log     *logger.Logger
	router  chi.Router
}

// New creates a Server with its routes mounted.
func New(b Builder, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{builder: b, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/tables/{table}/report", s.handleReport)

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("serving reports on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if r.URL.RawPath != "" {
		// chi matched against the escaped path.
		unescaped, err := url.PathUnescape(table)
		if err != nil {
			http.Error(w, "malformed table name", http.StatusBadRequest)
			return
		}
		table = unescaped
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatText
	}
	if !slices.Contains(report.Formats, format) {
		http.Error(w, "unknown format "+format, http.StatusBadRequest)
		return
	}

	rep, err := s.builder.Build(r.Context(), table)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.log.ErrorWith("report failed", err, map[string]interface{}{"table": table})
		}
		http.Error(w, errs.MessageOf(err), status)
		return
	}

	var buf bytes.Buffer
	if err := report.Encode(&buf, rep, format); err != nil {
		s.log.ErrorWith("encoding report", err, map[string]interface{}{"table": table})
		http.Error(w, "failed to encode report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", report.ContentType(format))
	_, _ = w.Write(buf.Bytes())
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errs.IsNotFound(err):
		return http.StatusNotFound
	case errs.IsInvalidInput(err):
		return http.StatusBadRequest
	case errs.IsPermissionDenied(err):
		return http.StatusForbidden
	case errs.IsConnectionFailed(err):
		return http.StatusBadGateway
	case errs.IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.RequestEvent().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
