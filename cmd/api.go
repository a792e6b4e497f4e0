package main

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/flarelog/insight-cli/internal/config"
	"github.com/flarelog/insight-cli/internal/correlation"
	"github.com/flarelog/insight-cli/internal/flare"
	"github.com/flarelog/insight-cli/internal/model"
	"github.com/flarelog/insight-cli/internal/quality"
	"github.com/flarelog/insight-cli/internal/store"
)

// apiServer exposes read-only analysis over a store. Mutation goes through
// the import command; the API never writes.
type apiServer struct {
	store store.Store
	cfg   *config.Config
}

func newRouter(st store.Store, cfg *config.Config) http.Handler {
	s := &apiServer{store: st, cfg: cfg}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))
	r.Use(rateLimit(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateBurst))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/observations", s.handleObservations)
		r.Get("/flare", s.handleFlare)
		r.Get("/triggers", s.handleTriggers)
	})

	return r
}

// limiterIdleTTL is how long a client may stay silent before its token
// bucket is evicted. Keeps the per-IP map bounded by recent traffic.
const limiterIdleTTL = 5 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter hands out one token bucket per remote IP and evicts buckets
// that have been idle past the TTL.
type ipRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

func newIPRateLimiter(limit rate.Limit, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   limit,
		burst:   burst,
		idleTTL: limiterIdleTTL,
	}
}

func (l *ipRateLimiter) allow(host string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for h, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleTTL {
			delete(l.clients, h)
		}
	}

	c, ok := l.clients[host]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[host] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

func (l *ipRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// rateLimit applies a per-client token bucket keyed by remote IP.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := newIPRateLimiter(limit, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !limiter.allow(host, time.Now()) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryFilter builds an ObservationFilter from from/to/limit/offset params.
func queryFilter(r *http.Request) (store.ObservationFilter, error) {
	var filter store.ObservationFilter
	q := r.URL.Query()

	if v := q.Get("from"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return filter, err
		}
		filter.From = &d
	}
	if v := q.Get("to"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return filter, err
		}
		filter.To = &d
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, eris.Errorf("invalid pagination value %q", v)
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, eris.Errorf("invalid pagination value %q", v)
		}
		filter.Offset = n
	}
	return filter, nil
}

func (s *apiServer) loadHistory(w http.ResponseWriter, r *http.Request) ([]model.Observation, bool) {
	filter, err := queryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	observations, err := s.store.ListObservations(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list observations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "storage error")
		return nil, false
	}
	return observations, true
}

func (s *apiServer) handleObservations(w http.ResponseWriter, r *http.Request) {
	observations, ok := s.loadHistory(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(observations),
		"observations": observations,
	})
}

func (s *apiServer) handleFlare(w http.ResponseWriter, r *http.Request) {
	observations, ok := s.loadHistory(w, r)
	if !ok {
		return
	}

	analysis := flare.NewAnalyzer(s.cfg.Flare).Analyze(observations)
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": time.Now().UTC(),
		"flare":        analysis,
		"quality":      quality.Collect(observations),
	})
}

func (s *apiServer) handleTriggers(w http.ResponseWriter, r *http.Request) {
	observations, ok := s.loadHistory(w, r)
	if !ok {
		return
	}

	results := correlation.NewAnalyzer(s.cfg.Correlation).Analyze(observations)
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": time.Now().UTC(),
		"correlations": results,
	})
}
