// Package server exposes the shared sampler and stateless trace rendering over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/MeKo-Tech/reefcraft/internal/adapter"
	"github.com/MeKo-Tech/reefcraft/internal/plot"
	"github.com/MeKo-Tech/reefcraft/internal/sampler"
	"github.com/MeKo-Tech/reefcraft/internal/trace"
	"golang.org/x/time/rate"
)

// DefaultMaxAdvance allows about a million cycle draws per /sim_value request.
const DefaultMaxAdvance = 1e6

// Config configures the HTTP surface.
type Config struct {
	CacheControl string
	// TraceRate limits /trace requests per second. 0 disables the limit.
	TraceRate  float64
	TraceBurst int
	// MaxTraceSamples caps the grid size of a single /trace request.
	MaxTraceSamples int
	// MaxAdvance bounds how far past the current cycle start one /sim_value
	// request may move the shared sampler. Catch-up runs under the adapter lock.
	MaxAdvance float32
	Plot       plot.Options
}

// Server serves one adapter. /sim_value, /seed and /cycle share its cursor;
// /trace always evaluates a fresh sampler.
type Server struct {
	adapter *adapter.Adapter
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger

	evaluations atomic.Int64
	traces      atomic.Int64
}

// New creates a server around a.
func New(a *adapter.Adapter, cfg Config, logger *slog.Logger) *Server {
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if cfg.MaxTraceSamples <= 0 {
		cfg.MaxTraceSamples = 100_000
	}
	if cfg.MaxAdvance <= 0 {
		cfg.MaxAdvance = DefaultMaxAdvance
	}
	if cfg.TraceBurst <= 0 {
		cfg.TraceBurst = 1
	}
	if cfg.Plot.Width == 0 {
		cfg.Plot = plot.DefaultOptions()
	}

	s := &Server{adapter: a, cfg: cfg, logger: logger}
	if cfg.TraceRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.TraceRate), cfg.TraceBurst)
	}
	return s
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /sim_value", s.handleSimValue)
	mux.HandleFunc("POST /seed", s.handleSeed)
	mux.HandleFunc("GET /cycle", s.handleCycle)
	mux.HandleFunc("GET /trace", s.handleTrace)
	mux.HandleFunc("GET /stats", s.handleStats)
	return withCORS(mux)
}

type valueResponse struct {
	T     float32 `json:"t"`
	Value float32 `json:"value"`
}

func (s *Server) handleSimValue(w http.ResponseWriter, r *http.Request) {
	t, err := parseFloat32(r, "t", 0, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := s.adapter.SimValueWithin(t, s.cfg.MaxAdvance)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.evaluations.Add(1)
	s.writeJSON(w, valueResponse{T: t, Value: v})
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	seed, err := parseSeed(r, sampler.DefaultSeed, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.adapter.Seed(seed)
	s.log().Info("sampler reseeded", "seed", seed)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.adapter.Snapshot())
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	seed, err := parseSeed(r, sampler.DefaultSeed, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	g, err := parseGrid(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := g.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if n := g.Len(); n > s.cfg.MaxTraceSamples {
		http.Error(w, fmt.Sprintf("grid has %d samples, limit is %d", n, s.cfg.MaxTraceSamples), http.StatusBadRequest)
		return
	}

	samples := trace.RunSeed(seed, g)
	s.traces.Add(1)
	w.Header().Set("Cache-Control", s.cfg.CacheControl)

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json":
		s.writeJSON(w, samples)
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := trace.WriteCSV(w, samples); err != nil {
			s.log().Error("Failed to write response", "error", err)
		}
	case "png":
		img, err := plot.Render(samples, s.cfg.Plot)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if err := plot.WritePNG(w, img); err != nil {
			s.log().Error("Failed to write response", "error", err)
		}
	default:
		http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
	}
}

// Stats counts served requests.
type Stats struct {
	Evaluations int64 `json:"evaluations"`
	Traces      int64 `json:"traces"`
}

// Stats returns request counters.
func (s *Server) Stats() Stats {
	return Stats{Evaluations: s.evaluations.Load(), Traces: s.traces.Load()}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Stats())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log().Error("Failed to write response", "error", err)
	}
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func parseFloat32(r *http.Request, name string, def float32, required bool) (float32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("missing %s parameter", name)
		}
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be finite", name)
	}
	return float32(f), nil
}

func parseSeed(r *http.Request, def uint32, required bool) (uint32, error) {
	raw := r.URL.Query().Get("seed")
	if raw == "" {
		if required {
			return 0, fmt.Errorf("missing seed parameter")
		}
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: must be an unsigned 32-bit integer", raw)
	}
	return uint32(v), nil
}

func parseGrid(r *http.Request) (trace.Grid, error) {
	start, err := parseFloat32(r, "start", 0, false)
	if err != nil {
		return trace.Grid{}, err
	}
	end, err := parseFloat32(r, "end", 10, false)
	if err != nil {
		return trace.Grid{}, err
	}
	step, err := parseFloat32(r, "step", 0.01, false)
	if err != nil {
		return trace.Grid{}, err
	}
	return trace.Grid{Start: start, End: end, Step: step}, nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
