// Package ratelimit throttles ledger writes per client address.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/httprate"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// Methods lists the limited methods; reads are never limited.
	Methods []string
}

// DefaultConfig limits mutating requests to 60 per minute.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Methods:           []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}
}

// Limiter wraps a sliding window counter keyed by client IP.
type Limiter struct {
	config Config
	hits   atomic.Int64
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if len(config.Methods) == 0 {
		config.Methods = def.Methods
	}
	return &Limiter{config: config}
}

// Hits returns how many requests were refused.
func (l *Limiter) Hits() int64 { return l.hits.Load() }

// Middleware creates HTTP middleware for rate limiting. onLimit writes the
// refusal; a plain 429 is used when it is nil.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	limitHandler := func(w http.ResponseWriter, r *http.Request) {
		l.hits.Add(1)
		w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
		if onLimit != nil {
			onLimit(w, r)
			return
		}
		http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
	}

	limiter := httprate.NewRateLimiter(l.config.RequestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return extractIP(r), nil
		}),
		httprate.WithLimitHandler(limitHandler),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.limits(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) limits(method string) bool {
	for _, m := range l.config.Methods {
		if m == method {
			return true
		}
	}
	return false
}
