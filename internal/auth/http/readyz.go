package http

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fricon/coreapi/internal/auth/store"
	"github.com/fricon/coreapi/pkg/authsdk"
	"github.com/fricon/coreapi/pkg/httpx"
	"github.com/fricon/coreapi/pkg/jwtx"
)

// RedisPinger is the part of a Redis client the readiness check needs.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// ReadyzHandler reports 503 when the database, the signer or a configured
// Redis is unavailable. rdb may be nil.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	signer jwtx.Signer,
	rdb RedisPinger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		degrade := func() {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := st.Ping(ctx); err != nil {
			checks.Database = "error: " + err.Error()
			degrade()
		}

		if signer == nil {
			checks.Signer = "error: no signer configured"
			degrade()
		}

		if rdb != nil {
			checks.Redis = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks.Redis = "error: " + err.Error()
				degrade()
			}
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
