package httpx

import "net/http"

// RequireAnyRole lets the request through when the token carries at least
// one of roles. Must run after AuthnMiddleware.
func RequireAnyRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if ok {
				for _, role := range roles {
					if claims.HasRole(role) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			WriteJSON(w, http.StatusForbidden, map[string]string{
				"error":             "insufficient_role",
				"error_description": "the access token lacks the required role",
			})
		})
	}
}
