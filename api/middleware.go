/*
middleware.go - Bearer authentication

PURPOSE:
  Extracts and validates the Authorization header for protected routes.
  Two token shapes are accepted, matching the two auth schemes the
  portal ships with:

    1. The static opaque token issued by POST /token against the
       hard-coded admin credential pair.
    2. HS256 JWTs issued by POST /api/login.

  On success the caller's identity (email, or "admin" for the static
  token) is stored on the request context for handlers to read.

SEE ALSO:
  - auth/tokens.go: JWT validation
  - handlers.go: Token and Login issue the two token kinds
*/
package api

import (
	"context"
	"net/http"
	"strings"
)

// identityKey is the context key carrying the authenticated identity.
type identityKey struct{}

// adminIdentity is the identity assigned to the static-token scheme.
const adminIdentity = "admin"

// RequireAuth rejects requests without a valid bearer token and stores
// the caller identity on the context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		var identity string
		if h.StaticToken != "" && token == h.StaticToken {
			identity = adminIdentity
		} else {
			email, err := h.Tokens.Validate(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token", err)
				return
			}
			identity = email
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identity returns the authenticated identity stored by RequireAuth.
func Identity(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(string)
	return id
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
