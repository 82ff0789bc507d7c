// Package server exposes the computation pipeline over a small JSON API.
// The handlers share the pipeline Runner with the CLI, so both surfaces
// produce identical results.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mvermeulen/analemma/pkg/errors"
	"github.com/mvermeulen/analemma/pkg/pipeline"
)

// Server wires the pipeline Runner into an HTTP handler.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server around the given runner.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/analemma", s.handleAnalemma)
		r.Get("/position", s.handlePosition)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

// requestIDHeader carries the per-request UUID to the client.
const requestIDHeader = "X-Request-Id"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", ww.Header().Get(requestIDHeader),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// optionsFromQuery parses the shared observer and compute parameters.
func optionsFromQuery(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Hour: pipeline.DefaultHour, Minute: pipeline.DefaultMinute}

	var err error
	if opts.Latitude, err = queryFloat(q.Get("lat"), true, 0); err != nil {
		return opts, errors.New(errors.ErrCodeInvalidInput, "invalid or missing lat parameter")
	}
	if opts.Longitude, err = queryFloat(q.Get("lon"), true, 0); err != nil {
		return opts, errors.New(errors.ErrCodeInvalidInput, "invalid or missing lon parameter")
	}
	if v := q.Get("tz"); v != "" {
		if opts.Timezone, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid tz parameter")
		}
		opts.TimezoneSet = true
	}
	if v := q.Get("year"); v != "" {
		if opts.Year, err = strconv.Atoi(v); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid year parameter")
		}
	}
	if v := q.Get("hour"); v != "" {
		if opts.Hour, err = strconv.Atoi(v); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid hour parameter")
		}
	}
	if v := q.Get("minute"); v != "" {
		if opts.Minute, err = strconv.Atoi(v); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid minute parameter")
		}
	}
	opts.Mode = q.Get("mode")
	opts.Refresh = q.Get("refresh") == "true"
	return opts, nil
}

func queryFloat(v string, required bool, def float64) (float64, error) {
	if v == "" {
		if required {
			return 0, errors.New(errors.ErrCodeInvalidInput, "missing parameter")
		}
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

func (s *Server) handleAnalemma(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.runner.Compute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	dateParam := r.URL.Query().Get("date")
	if dateParam == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing date parameter"))
		return
	}
	date, err := time.ParseInLocation("2006-01-02", dateParam, time.Local)
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid date parameter, want YYYY-MM-DD"))
		return
	}
	opts.Year = date.Year()

	pos, err := s.runner.Position(r.Context(), opts, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeConfiguration, errors.ErrCodeInvalidImage, errors.ErrCodeInvalidMetadata:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
