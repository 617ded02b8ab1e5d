package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/saasify/saasify-api/internal/auth"
	"github.com/saasify/saasify-api/internal/respond"
)

// AuthHandler serves signup, login, logout, and session identity.
type AuthHandler struct {
	svc     *auth.Service
	cookies SessionCookies
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *auth.Service, cookies SessionCookies, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies, logger: logger}
}

// Signup registers a user and starts a session.
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in auth.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]any{
			"message": "Invalid payload",
			"issues":  []string{"body must be valid JSON"},
		})
		return
	}

	profile, tok, err := h.svc.Signup(r.Context(), in)
	if err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.As(err, &ve):
			respond.JSON(w, http.StatusBadRequest, map[string]any{
				"message": "Invalid payload",
				"issues":  ve.Issues,
			})
		case errors.Is(err, auth.ErrEmailTaken):
			respond.Message(w, http.StatusConflict, "Email already in use")
		default:
			h.logger.Error("signup failed", "error", err)
			serverError(w)
		}
		return
	}

	h.cookies.Set(w, tok)
	respond.JSON(w, http.StatusCreated, profile)
}

// Login verifies credentials and starts a session. Malformed payloads and
// wrong credentials share one message so responses cannot enumerate accounts.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil || in.Email == "" || in.Password == "" {
		respond.Message(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	profile, tok, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respond.Message(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("login failed", "error", err)
		serverError(w)
		return
	}

	h.cookies.Set(w, tok)
	respond.JSON(w, http.StatusOK, profile)
}

// Logout clears the session cookie. The token itself stays valid until
// expiry; logout is purely client-side cookie removal.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me reports the identity carried by the session cookie. It always answers
// 200: an absent or invalid token yields {"user": null}, never an error.
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	var identity *auth.Identity
	if cookie, err := r.Cookie(h.cookies.CookieName()); err == nil {
		identity = h.svc.CurrentIdentity(cookie.Value)
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": identity})
}

// OAuthStub answers the reserved OAuth endpoints.
// GET /api/auth/oauth/{provider}/start and .../callback
func (h *AuthHandler) OAuthStub(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusNotImplemented, "OAuth not implemented yet")
}
