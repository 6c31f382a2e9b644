// Package server exposes the generation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/juparave/commitcast/internal/apperr"
	"github.com/juparave/commitcast/internal/auth"
	"github.com/juparave/commitcast/internal/domain"
	"github.com/juparave/commitcast/internal/generate"
	"github.com/juparave/commitcast/internal/githost"
	"github.com/juparave/commitcast/internal/logging"
	"github.com/juparave/commitcast/internal/ratelimit"
)

// Options wires the pipeline's collaborators into a Server
type Options struct {
	Authenticator   auth.Authenticator
	RateLimit       ratelimit.Store
	Fetcher         githost.Fetcher
	Generator       *generate.Generator // nil when no provider key is configured
	FetchTimeout    time.Duration
	GenerateTimeout time.Duration
	Development     bool
}

// Server handles HTTP requests
type Server struct {
	pipeline    *Pipeline
	development bool
}

// New creates a server over the given collaborators
func New(opts Options) *Server {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 45 * time.Second
	}
	return &Server{
		pipeline: &Pipeline{
			authn:           opts.Authenticator,
			store:           opts.RateLimit,
			fetcher:         opts.Fetcher,
			generator:       opts.Generator,
			fetchTimeout:    opts.FetchTimeout,
			generateTimeout: opts.GenerateTimeout,
		},
		development: opts.Development,
	}
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/generate", s.handleGenerate)
	r.Get("/repositories", s.handleRepositories)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "commitcast",
		"timestamp": time.Now().UTC(),
	})
}

type generateResponse struct {
	Drafts []domain.ContentDraft `json:"drafts"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req domain.GenerateRequest
	decodeErr := json.NewDecoder(r.Body).Decode(&req)

	res := s.pipeline.run(r, req, decodeErr)
	writeRateLimitHeaders(w, res.decision)

	if res.err != nil {
		s.writeError(w, r, res.err, start)
		return
	}

	res.state = StateResponded
	writeJSON(w, http.StatusOK, generateResponse{Drafts: res.drafts})
	logging.Request(r.Method, r.URL.Path, string(res.state), http.StatusOK, time.Since(start))
}

func (s *Server) handleRepositories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	principal, ok := s.pipeline.authn.Authenticate(r)
	if !ok {
		s.writeError(w, r, apperr.Authentication(), start)
		return
	}

	d := s.pipeline.store.Consume(r.Context(), clientKey(principal, r))
	writeRateLimitHeaders(w, &d)
	if !d.Allowed {
		s.writeError(w, r, apperr.RateLimited(d.RetryAfter(time.Now())), start)
		return
	}

	fetchCtx, cancel := context.WithTimeout(r.Context(), s.pipeline.fetchTimeout)
	defer cancel()

	repos, err := s.pipeline.fetcher.ListRepositories(fetchCtx)
	if err != nil {
		s.writeError(w, r, apperr.External("source-host", "listRepositories", err), start)
		return
	}

	writeJSON(w, http.StatusOK, repos)
	logging.Request(r.Method, r.URL.Path, string(StateResponded), http.StatusOK, time.Since(start))
}

// writeError classifies err, logs the request and sends the client payload.
// Upstream and internal detail never reaches the client unless the server
// runs in development mode.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	appErr := apperr.Classify(err)
	status := appErr.Kind.StatusCode()

	if cause := appErr.Cause(); cause != nil {
		logging.Errorf("%s %s failed (%s): %v", r.Method, r.URL.Path, appErr.Kind.Code(), cause)
	}

	body := map[string]any{
		"error": appErr.Message,
		"code":  appErr.Kind.Code(),
	}
	// validation detail is actionable for the caller; detail on other kinds
	// stays server-side outside development mode
	if appErr.Details != nil && (appErr.Kind == apperr.KindValidation || s.development) {
		body["details"] = appErr.Details
	}
	if s.development && appErr.Cause() != nil {
		body["cause"] = appErr.Cause().Error()
	}
	if appErr.Kind == apperr.KindRateLimit && appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}

	writeJSON(w, status, body)
	logging.Request(r.Method, r.URL.Path, string(StateFailed), status, time.Since(start))
}

func writeRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	if d == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warnf("writing response: %v", err)
	}
}
