package handlers

import (
	"net/http"
	"time"

	"github.com/saasify/saasify-api/internal/auth"
	"github.com/saasify/saasify-api/internal/middleware"
)

// SessionCookies writes and clears the HttpOnly session cookie. Zero-value
// fields fall back to the defaults (saasify_token, 7 days, not Secure);
// Secure should be true outside local development.
type SessionCookies struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// CookieName returns the configured cookie name.
func (c SessionCookies) CookieName() string {
	if c.Name == "" {
		return middleware.SessionCookie
	}
	return c.Name
}

func (c SessionCookies) maxAge() int {
	if c.TTL <= 0 {
		return int(auth.SessionTTL.Seconds())
	}
	return int(c.TTL.Seconds())
}

// Set attaches the session token to the response. SameSite=Lax keeps the
// cookie on top-level navigations while blocking cross-site subrequests.
func (c SessionCookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   c.maxAge(),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (c SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
