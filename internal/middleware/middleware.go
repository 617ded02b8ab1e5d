// Package middleware provides authentication and role-based access control
// middleware for net/http handlers.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/saasify/saasify-api/internal/respond"
	"github.com/saasify/saasify-api/internal/store"
	"github.com/saasify/saasify-api/internal/token"
)

// SessionCookie is the HttpOnly cookie carrying the session token.
const SessionCookie = "saasify_token"

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const claimsKey contextKey = "saasify_claims"

// TokenExtractor extracts a raw session token from an HTTP request.
type TokenExtractor func(r *http.Request) string

// FromCookie returns an extractor that reads the token from a cookie.
func FromCookie(name string) TokenExtractor {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

// FromHeader returns an extractor that reads the token from a header,
// optionally stripping a scheme prefix such as "Bearer".
func FromHeader(header, scheme string) TokenExtractor {
	return func(r *http.Request) string {
		value := r.Header.Get(header)
		if value == "" || scheme == "" {
			return value
		}
		prefix := scheme + " "
		if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
			return value[len(prefix):]
		}
		return ""
	}
}

// Chain tries extractors in order and returns the first non-empty token.
func Chain(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) string {
		for _, extract := range extractors {
			if tok := extract(r); tok != "" {
				return tok
			}
		}
		return ""
	}
}

// Verifier verifies a session token and returns its claims.
type Verifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// WithClaims returns a context carrying verified session claims.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFrom returns the verified claims attached by RequireAuth, or nil
// when the request never passed authentication.
func ClaimsFrom(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(claimsKey).(*token.Claims)
	return claims
}

// RequireAuth verifies the session token and attaches its claims to the
// request context. Absent, expired, malformed, and badly-signed tokens all
// produce the same 401 so callers learn nothing about why they failed.
func RequireAuth(v Verifier, extract TokenExtractor) func(http.Handler) http.Handler {
	if extract == nil {
		extract = FromCookie(SessionCookie)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extract(r)
			if raw == "" {
				unauthorized(w)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole allows the request through only when the context carries
// claims whose role is in the allowed set. It never authenticates on its
// own: a request that skipped RequireAuth is rejected with 403, not 401.
func RequireRole(roles ...store.Role) func(http.Handler) http.Handler {
	allowed := make(map[store.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			if claims == nil {
				forbidden(w)
				return
			}
			if _, ok := allowed[store.Role(claims.Role)]; !ok {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	respond.Message(w, http.StatusUnauthorized, "Unauthorized")
}

func forbidden(w http.ResponseWriter) {
	respond.Message(w, http.StatusForbidden, "Forbidden")
}
