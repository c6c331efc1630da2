package httpx

import (
	"context"

	"github.com/fricon/coreapi/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(int64)
	return id, ok && id > 0
}

// ClaimsFromContext returns the verified access token claims, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// ContextWithClaims stores verified claims and the derived user id.
func ContextWithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	if id, err := c.UserID(); err == nil {
		ctx = context.WithValue(ctx, CtxKeyUserID, id)
	}
	return context.WithValue(ctx, CtxKeyClaims, c)
}
