// Package server exposes the interpreter over HTTP: POST /v1/interpret
// turns a natural-language description into a validated parameter set,
// with optional Redis result caching and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zoobzio/dendrite"
	"github.com/zoobzio/dendrite/internal/cache"
	"github.com/zoobzio/dendrite/internal/metrics"
)

// Interpreter is the part of dendrite.Interpreter the server needs.
type Interpreter interface {
	InterpretWithInput(ctx context.Context, input dendrite.InterpretInput) (*dendrite.Result, error)
	Schema() *dendrite.Schema
}

// Server handles HTTP interpretation requests.
type Server struct {
	interp Interpreter
	cache  *cache.Cache // nil disables caching
	log    *zap.Logger
}

// New creates a server. cache may be nil.
func New(interp Interpreter, c *cache.Cache, log *zap.Logger) *Server {
	return &Server{interp: interp, cache: c, log: log}
}

// Routes returns the HTTP handler with all endpoints mounted.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/interpret", s.handleInterpret)
	mux.HandleFunc("/v1/schema", s.handleSchema)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return s.logMiddleware(mux)
}

type interpretRequest struct {
	Prompt      string  `json:"prompt"`
	Context     string  `json:"context,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	Seed        int64   `json:"seed,omitempty"`
	NoCache     bool    `json:"no_cache,omitempty"`
}

type interpretResponse struct {
	Params       dendrite.ParameterSet `json:"params"`
	UsedDefaults bool                  `json:"used_defaults"`
	Attempts     int                   `json:"attempts,omitempty"`
	Confidence   float64               `json:"confidence"`
	Cached       bool                  `json:"cached,omitempty"`
	ElapsedMs    int64                 `json:"elapsed_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req interpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	start := time.Now()

	var key string
	if s.cache != nil && !req.NoCache && req.Context == "" {
		key = cache.Key(req.Prompt, s.interp.Schema())
		if entry, ok, err := s.cache.Get(r.Context(), key); err != nil {
			s.log.Warn("cache lookup failed", zap.Error(err))
		} else if ok {
			metrics.CacheHits.Inc()
			metrics.InterpretRequests.WithLabelValues("cached").Inc()
			writeJSON(w, http.StatusOK, interpretResponse{
				Params:       entry.Params,
				UsedDefaults: entry.UsedDefaults,
				Confidence:   entry.Confidence,
				Cached:       true,
				ElapsedMs:    time.Since(start).Milliseconds(),
			})
			return
		} else {
			metrics.CacheMisses.Inc()
		}
	}

	result, err := s.interp.InterpretWithInput(r.Context(), dendrite.InterpretInput{
		Prompt:      req.Prompt,
		Context:     req.Context,
		Temperature: req.Temperature,
		Seed:        req.Seed,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Client went away or the request deadline hit mid-inference.
			status = http.StatusGatewayTimeout
		}
		metrics.InterpretRequests.WithLabelValues("error").Inc()
		writeError(w, status, err.Error())
		return
	}

	outcome := "ok"
	if result.UsedDefaults {
		outcome = "defaults"
	}
	metrics.InterpretRequests.WithLabelValues(outcome).Inc()
	metrics.InterpretDuration.Observe(result.Elapsed.Seconds())
	metrics.InterpretAttempts.Observe(float64(result.Attempts))
	metrics.InterpretConfidence.Observe(result.Confidence)
	metrics.ProviderTokens.WithLabelValues("prompt").Add(float64(result.Usage.Prompt))
	metrics.ProviderTokens.WithLabelValues("completion").Add(float64(result.Usage.Completion))

	if key != "" {
		entry := &cache.Entry{
			Params:       result.Params,
			UsedDefaults: result.UsedDefaults,
			Confidence:   result.Confidence,
		}
		if err := s.cache.Set(r.Context(), key, entry); err != nil {
			s.log.Warn("cache store failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, interpretResponse{
		Params:       result.Params,
		UsedDefaults: result.UsedDefaults,
		Attempts:     result.Attempts,
		Confidence:   result.Confidence,
		ElapsedMs:    time.Since(start).Milliseconds(),
	})
}

type schemaParam struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Min         float64  `json:"min,omitempty"`
	Max         float64  `json:"max,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	schema := s.interp.Schema()
	params := make([]schemaParam, 0, schema.Len())
	for _, spec := range schema.Specs() {
		params = append(params, schemaParam{
			Name:        spec.Name,
			Description: spec.Description,
			Type:        string(spec.Type),
			Min:         spec.Min,
			Max:         spec.Max,
			Enum:        spec.Enum,
			Default:     spec.Default,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"parameters": params})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
