package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fricon/coreapi/internal/auth/service"
	"github.com/fricon/coreapi/internal/auth/store"
	"github.com/fricon/coreapi/pkg/httpx"
	"github.com/fricon/coreapi/pkg/jwtx"
	"github.com/fricon/coreapi/pkg/slogx"
)

// Audit tags.
const (
	ActionLogin          = "LOGIN"
	ActionLogout         = "LOGOUT"
	ActionChangePassword = "CHANGE_PASSWORD"
	EntityUser           = "USER"
)

// RateLimits holds the limiter profiles used by the routes.
type RateLimits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig
	Public   httpx.RateLimitConfig
}

// DefaultRateLimits reads RATELIMIT_{STRICT,MODERATE,LENIENT,PUBLIC}_*
// overrides over the package defaults.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   httpx.ParseRateLimitFromEnv("STRICT", httpx.StrictLimit),
		Moderate: httpx.ParseRateLimitFromEnv("MODERATE", httpx.ModerateLimit),
		Lenient:  httpx.ParseRateLimitFromEnv("LENIENT", httpx.LenientLimit),
		Public:   httpx.ParseRateLimitFromEnv("PUBLIC", httpx.PublicLimit),
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       jwtx.Signer
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Auth        *service.AuthService
	Activity    *service.ActivityRecorder
	Cookies     CookieConfig
	CORSOrigins []string
	Limits      RateLimits
	Limiters    httpx.LimiterFactory // defaults to in-process limiters
	Redis       RedisPinger          // optional, reported by /readyz
}

func NewRouter(
	signer jwtx.Signer,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Limits:       DefaultRateLimits(),
		Limiters:     httpx.MemoryLimiters,
	}
}

// ApplyRoutes registers every route. Set the exported fields first.
func (r *Router) ApplyRoutes() {
	r.middlewares = []httpx.Middleware{slogx.HTTPMiddleware(r.logger)}
	if len(r.CORSOrigins) > 0 {
		r.middlewares = append(r.middlewares, httpx.CORS(r.CORSOrigins))
	}
	if r.Activity == nil {
		r.Activity = &service.ActivityRecorder{Store: r.store, Clock: r.Auth.Clock}
	}

	r.registerAuth()
	r.registerSystem()
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Auth: r.Auth, Cookies: r.Cookies}

	strict := r.Limiters("strict", r.Limits.Strict)
	moderate := r.Limiters("moderate", r.Limits.Moderate)
	lenient := r.Limiters("lenient", r.Limits.Lenient)

	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(strict),
			Audit(r.Activity, ActionLogin, EntityUser),
		),
	)

	// POST /refresh - moderate rate limit by IP; the token itself is the credential
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(moderate),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(moderate),
			Audit(r.Activity, ActionLogout, EntityUser),
		),
	)

	r.Mux.Handle("POST /v1/auth/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(moderate),
			Audit(r.Activity, ActionChangePassword, EntityUser),
		),
	)

	// POST /set-first-password - unauthenticated, strict limit by IP and username
	r.Mux.Handle("POST /v1/auth/set-first-password",
		httpx.Chain(http.HandlerFunc(h.HandleSetFirstPassword),
			httpx.RateLimitByIPAndJSONField(strict, "username"),
		),
	)

	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(lenient),
		),
	)

	r.Mux.Handle("POST /v1/auth/password-strength",
		httpx.Chain(http.HandlerFunc(h.HandlePasswordStrength),
			httpx.RateLimitByIP(lenient),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - monitoring systems may poll frequently
	public := r.Limiters("public", r.Limits.Public)

	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer, r.Redis),
			httpx.RateLimitByIP(public),
		),
	)
}
