package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fricon/coreapi/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows temporary bursts above the steady rate
	Burst int
}

// Rate limit profiles. Override with ParseRateLimitFromEnv.
var (
	// StrictLimit guards credential endpoints (login, first password).
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards authenticated mutations and refresh.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards reads such as the profile.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit guards health probes.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

// ParseRateLimitFromEnv reads RATELIMIT_{prefix}_REQUESTS, _WINDOW_SEC and
// _BURST, keeping defaults for anything unset or invalid.
func ParseRateLimitFromEnv(prefix string, defaults RateLimitConfig) RateLimitConfig {
	cfg := defaults

	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnv(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	return n, err == nil && n > 0
}

// Limiter decides whether the request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	Config() RateLimitConfig
}

// KeyExtractor derives the rate limit key from a request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the client IP: first X-Forwarded-For entry, then
// X-Real-IP, then the remote address.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ClientIP is IPKeyExtractor under the name handlers use.
func ClientIP(r *http.Request) string { return IPKeyExtractor(r) }

// UserIDKeyExtractor returns the authenticated user id or "".
func UserIDKeyExtractor(r *http.Request) string {
	if id, ok := UserIDFromContext(r.Context()); ok {
		return strconv.FormatInt(id, 10)
	}
	return ""
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

const maxKeyBodyBytes = 64 << 10

// JSONFieldKeyExtractor reads a top level string field from a JSON body and
// restores the body for the next handler. The key is lowercased so that
// case variants of one username share a bucket.
func JSONFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodyBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}

		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return ""
		}
		v, _ := payload[field].(string)
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// memoryLimiter keeps one token bucket per key in process memory.
type memoryLimiter struct {
	cfg      RateLimitConfig
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewMemoryLimiter returns a process local limiter backed by x/time/rate.
func NewMemoryLimiter(cfg RateLimitConfig) Limiter {
	return &memoryLimiter{
		cfg:         cfg,
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		lastCleanup: time.Now(),
	}
}

func (m *memoryLimiter) Config() RateLimitConfig { return m.cfg }

func (m *memoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l := m.get(key)
	if l.Allow() {
		return true, 0, nil
	}

	r := l.Reserve()
	delay := r.Delay()
	r.Cancel()
	return false, delay, nil
}

func (m *memoryLimiter) get(key string) *rate.Limiter {
	if l, ok := m.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := m.limiters.LoadOrStore(key, rate.NewLimiter(m.rate, m.cfg.Burst))
	m.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle buckets (full of tokens) every five minutes.
func (m *memoryLimiter) maybeCleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCleanup) < 5*time.Minute {
		return
	}
	m.lastCleanup = time.Now()

	m.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(m.cfg.Burst) {
			m.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware rejects requests over the limiter's budget with 429.
// Limiter backend errors let the request through.
func RateLimitMiddleware(l Limiter, keyExtractor KeyExtractor) Middleware {
	cfg := l.Config()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			allowed, delay, err := l.Allow(ctx, key)
			if err != nil {
				log.Warn("rate limit backend failed, allowing request", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				retryAfter := max(int(delay.Seconds()), 1)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Window", cfg.Window.String())

				log.Warn("rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limit_exceeded",
					"error_description": fmt.Sprintf("too many requests, retry in %ds", retryAfter),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits by client IP.
func RateLimitByIP(l Limiter) Middleware {
	return RateLimitMiddleware(l, IPKeyExtractor)
}

// RateLimitByUser limits by authenticated user, falling back to IP.
func RateLimitByUser(l Limiter) Middleware {
	return RateLimitMiddleware(l, CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor))
}

// RateLimitByIPAndJSONField limits by IP plus a JSON body field, such as the
// username on login.
func RateLimitByIPAndJSONField(l Limiter, field string) Middleware {
	return RateLimitMiddleware(l, CompositeKeyExtractor(":", IPKeyExtractor, JSONFieldKeyExtractor(field)))
}
