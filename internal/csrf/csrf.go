// Package csrf implements double-submit cookie CSRF protection.
//
// The guard issues a random token into a script-readable cookie and returns
// the same value in the response body. State-changing requests must echo the
// value in the x-csrf-token header (or a csrfToken body field); the guard
// rejects the request unless header and cookie match. A cross-site attacker
// can trigger the request but cannot read the cookie to replicate the value.
package csrf

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/saasify/saasify-api/internal/crypto"
	"github.com/saasify/saasify-api/internal/respond"
)

const (
	// CookieName is the script-readable cookie holding the token.
	CookieName = "csrf_token"

	// HeaderName is the request header clients mirror the token into.
	HeaderName = "x-csrf-token"

	// DefaultTTL is how long an issued token cookie lives.
	DefaultTTL = 2 * time.Hour

	// tokenBytes is the entropy of an issued token; hex-encoded to 64 chars.
	tokenBytes = 32

	// maxBodyPeek caps how much of a request body the guard will buffer
	// when falling back to the csrfToken body field.
	maxBodyPeek = 1 << 20
)

// Guard issues and validates CSRF tokens.
type Guard struct {
	secureCookies bool
	ttl           time.Duration
}

// NewGuard creates a Guard. secureCookies should be true outside local
// development so the cookie is only sent over TLS.
func NewGuard(secureCookies bool) *Guard {
	return &Guard{secureCookies: secureCookies, ttl: DefaultTTL}
}

// IssueToken generates a fresh token, sets it as a readable cookie on the
// response, and returns the value for inclusion in the response body.
func (g *Guard) IssueToken(w http.ResponseWriter) (string, error) {
	tok, err := crypto.RandomHex(tokenBytes)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(g.ttl.Seconds()),
		HttpOnly: false, // the client must read this to mirror it into headers
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	return tok, nil
}

// Require is middleware enforcing the double-submit check on state-changing
// requests. Safe methods pass through untouched.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			forbid(w)
			return
		}

		supplied := r.Header.Get(HeaderName)
		if supplied == "" {
			supplied = tokenFromBody(r)
		}

		if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(cookie.Value)) != 1 {
			forbid(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// tokenFromBody extracts the csrfToken field from a JSON body, restoring the
// body so downstream handlers can still decode it.
func tokenFromBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPeek))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.CSRFToken
}

func forbid(w http.ResponseWriter) {
	respond.Message(w, http.StatusForbidden, "Invalid CSRF token")
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
