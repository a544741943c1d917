// Package api is the thin REST adapter over the scan engine. It translates
// HTTP requests into engine calls and engine errors into status codes; all
// scan behavior lives in the engine and scanner packages.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/maher92-collab/securescan-pro/internal/api/middleware"
	"github.com/maher92-collab/securescan-pro/internal/engine"
	"github.com/maher92-collab/securescan-pro/internal/finding"
	"github.com/maher92-collab/securescan-pro/internal/report"
	secerrors "github.com/maher92-collab/securescan-pro/internal/shared/errors"
)

// ScanService is the engine surface the API depends on.
type ScanService interface {
	Submit(req engine.Request) (*engine.Job, error)
	Status(id string) (*engine.Job, error)
}

// JobSubscriber delivers job snapshots for the SSE stream.
type JobSubscriber interface {
	Subscribe() (chan engine.Job, func())
}

// Config wires the server's collaborators and knobs.
type Config struct {
	Scans       ScanService
	Stream      JobSubscriber
	AuthToken   string
	Logger      *zap.Logger
	CORSOrigins []string // allowed CORS origins (empty = allow all)
	RateLimit   int      // requests per second per IP (0 = disabled)
	RateBurst   int
}

// Server is the HTTP front of the scan engine.
type Server struct {
	cfg      Config
	mux      *http.ServeMux
	limiters *rateLimiterMap
}

// NewServer builds the route table and middleware chain.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	srv := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := middleware.RequestID(s.withLogging(s.withRateLimit(s.withCORS(s.mux))))
	handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.Handle("/api/v1/health", http.HandlerFunc(s.handleHealth))
	s.mux.Handle("/api/v1/scans", s.withAuth(http.HandlerFunc(s.handleScans)))
	s.mux.Handle("/api/v1/scans/", s.withAuth(http.HandlerFunc(s.handleScanByID)))
	s.mux.Handle("/api/v1/scans-stream", s.withAuth(http.HandlerFunc(s.handleScanStream)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitResponse struct {
	JobID   string        `json:"job_id"`
	Status  engine.Status `json:"status"`
	Message string        `json:"message"`
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	job, err := s.cfg.Scans.Submit(req)
	if err != nil {
		s.writeError(w, r, submitStatusCode(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Scan queued successfully",
	})
}

// handleScanByID serves both the job snapshot and the report downloads:
// /api/v1/scans/{id} and /api/v1/scans/{id}/report.{json|pdf}.
func (s *Server) handleScanByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/scans/")
	if rest == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("job ID required"))
		return
	}

	id, format, isReport := splitReportPath(rest)
	job, err := s.cfg.Scans.Status(id)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, secerrors.ErrJobNotFound)
		return
	}

	if !isReport {
		writeJSON(w, http.StatusOK, job)
		return
	}

	if job.Status != engine.StatusCompleted || job.Report == nil {
		s.writeError(w, r, http.StatusConflict, errors.New("scan not completed"))
		return
	}
	s.serveReport(w, r, id, format, job.Report)
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, id, format string, rep *finding.Report) {
	switch format {
	case "json":
		data, err := report.EncodeJSON(rep)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="scan_report_`+id+`.json"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case "pdf":
		data, err := report.EncodePDF(rep)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="scan_report_`+id+`.pdf"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	default:
		s.writeError(w, r, http.StatusBadRequest, errors.New("invalid report format, use 'json' or 'pdf'"))
	}
}

// splitReportPath separates "{id}/report.{format}" from a bare "{id}".
func splitReportPath(rest string) (id, format string, isReport bool) {
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 1 {
		return id, "", false
	}
	suffix := parts[1]
	if !strings.HasPrefix(suffix, "report.") {
		return id, "", true // unknown subresource, reported as bad format
	}
	return id, strings.ToLower(strings.TrimPrefix(suffix, "report.")), true
}

func (s *Server) handleScanStream(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Stream == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job stream not available"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, unsubscribe := s.cfg.Stream.Subscribe()
	defer unsubscribe()
	ctx := r.Context()
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(job)
			if err != nil {
				s.cfg.Logger.Error("failed to marshal job", zap.Error(err))
				continue
			}
			if _, err := w.Write([]byte("event: job\ndata: ")); err != nil {
				return
			}
			if _, err := w.Write(payload); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// submitStatusCode maps submission errors to HTTP status codes.
func submitStatusCode(err error) int {
	switch {
	case errors.Is(err, secerrors.ErrInvalidTarget),
		errors.Is(err, secerrors.ErrUnknownScanType),
		errors.Is(err, secerrors.ErrUnknownComponent),
		errors.Is(err, secerrors.ErrNoComponents):
		return http.StatusBadRequest
	case errors.Is(err, secerrors.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
