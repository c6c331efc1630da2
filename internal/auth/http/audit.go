package http

import (
	"context"
	"net/http"

	"github.com/fricon/coreapi/internal/auth/domain"
	"github.com/fricon/coreapi/internal/auth/service"
	"github.com/fricon/coreapi/pkg/httpx"
	"github.com/fricon/coreapi/pkg/idx"
	"github.com/fricon/coreapi/pkg/slogx"
)

type auditKey struct{}

// auditSubject is filled in by handlers that learn who the caller is only
// while handling the request, such as login.
type auditSubject struct {
	userID    int64
	sessionID string
}

func setAuditSubject(ctx context.Context, userID int64, sessionID string) {
	if s, ok := ctx.Value(auditKey{}).(*auditSubject); ok {
		s.userID, s.sessionID = userID, sessionID
	}
}

// Audit records one activity entry per request. Responses with status 400
// or above are recorded as action + "_ERROR".
func Audit(rec *service.ActivityRecorder, action, entity string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			subject := &auditSubject{}
			if claims, ok := httpx.ClaimsFromContext(ctx); ok {
				subject.userID, _ = claims.UserID()
				subject.sessionID = claims.ID
			}
			ctx = context.WithValue(ctx, auditKey{}, subject)

			rw := httpx.NewStatusRecorder(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			recorded := action
			if rw.Status >= http.StatusBadRequest {
				recorded += "_ERROR"
			}

			correlation := slogx.RequestIDFromContext(ctx)
			if correlation == "" {
				correlation = idx.Correlation()
			}

			rec.Record(ctx, domain.ActivityEntry{
				UserID:        subject.userID,
				Action:        recorded,
				Entity:        entity,
				IPAddress:     httpx.ClientIP(r),
				UserAgent:     r.UserAgent(),
				SessionID:     subject.sessionID,
				CorrelationID: correlation,
			})
		})
	}
}
