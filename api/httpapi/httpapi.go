package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"scorekeeper/engine"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all API routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client IP.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// StaticDir, if set, serves the game files with an index.html fallback.
	StaticDir string
	// Logger receives one line per request. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewRouter builds an http.Handler exposing the scores API.
// Routes:
//   - GET  {prefix}/scores-math?limit=10
//   - POST {prefix}/scores-math
//   - GET  {prefix}/scores-math/export?format=csv&lang=en-US
//   - GET  {prefix}/scores-math/export/{format}
//   - GET  /health
func NewRouter(svc *engine.ScoreService, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	if opts.AllowCORSOrigin != "" {
		r.Use(corsMiddleware(opts.AllowCORSOrigin))
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		r.Use(rateLimitMiddleware(newIPRateLimiter(opts.RateLimitRPM, opts.RateLimitBurst)))
	}

	r.Get("/health", h.health)
	r.Route(withPrefix(opts.PathPrefix, "/scores-math"), func(r chi.Router) {
		r.Get("/", h.listScores)
		r.Post("/", h.submitScore)
		r.Get("/export", h.exportScores)
		r.Get("/export/{format}", h.exportScores)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})
	if opts.StaticDir != "" {
		r.Get("/*", spaHandler(opts.StaticDir))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	return r
}

func withPrefix(prefix, path string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return path
	}
	if prefix[0] != '/' {
		prefix = "/" + prefix
	}
	return prefix + path
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// apiError carries the "success" flag the game client checks, next to the error code.
type apiError struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSON(w, status, apiError{Code: code, Message: msg, Details: details})
}
