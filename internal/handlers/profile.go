package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/saasify/saasify-api/internal/auth"
	"github.com/saasify/saasify-api/internal/middleware"
	"github.com/saasify/saasify-api/internal/respond"
)

// ProfileHandler serves the authenticated user's profile operations. Every
// route assumes RequireAuth already attached claims to the context.
type ProfileHandler struct {
	svc     *auth.Service
	cookies SessionCookies
	logger  *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(svc *auth.Service, cookies SessionCookies, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, cookies: cookies, logger: logger}
}

func (h *ProfileHandler) userID(r *http.Request) string {
	if claims := middleware.ClaimsFrom(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}

// Get returns the authenticated user's profile.
// GET /api/profile/me
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.GetProfile(r.Context(), h.userID(r))
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			respond.Message(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("get profile failed", "error", err)
		serverError(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": profile})
}

// Update changes the authenticated user's name and email. An email that
// belongs to another account is a 400 here, unlike signup's 409; clients
// match on the message, so both stay as-is.
// PUT /api/profile/me
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &in); err != nil || in.Name == "" || in.Email == "" {
		respond.Message(w, http.StatusBadRequest, "Name and email are required")
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), h.userID(r), in.Name, in.Email)
	if err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			respond.Message(w, http.StatusBadRequest, "Email is already in use")
		case errors.As(err, &ve):
			respond.Message(w, http.StatusBadRequest, ve.Issues[0])
		case errors.Is(err, auth.ErrNotFound):
			respond.Message(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("update profile failed", "error", err)
			serverError(w)
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    profile,
	})
}

// ChangePassword rotates the authenticated user's password after
// re-verifying the current one.
// PUT /api/profile/me/password
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &in); err != nil || in.CurrentPassword == "" || in.NewPassword == "" {
		respond.Message(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), h.userID(r), in.CurrentPassword, in.NewPassword); err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.As(err, &ve):
			respond.Message(w, http.StatusBadRequest, "New password must be at least 6 characters long")
		case errors.Is(err, auth.ErrPasswordIncorrect):
			respond.Message(w, http.StatusBadRequest, "Current password is incorrect")
		case errors.Is(err, auth.ErrNotFound):
			respond.Message(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("change password failed", "error", err)
			serverError(w)
		}
		return
	}

	respond.Message(w, http.StatusOK, "Password changed successfully")
}

// Delete removes the authenticated user's account after re-verifying the
// password, then ends the session.
// DELETE /api/profile/me
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil || in.Password == "" {
		respond.Message(w, http.StatusBadRequest, "Password is required to delete account")
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), h.userID(r), in.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordIncorrect):
			respond.Message(w, http.StatusBadRequest, "Password is incorrect")
		case errors.Is(err, auth.ErrNotFound):
			respond.Message(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("delete account failed", "error", err)
			serverError(w)
		}
		return
	}

	h.cookies.Clear(w)
	respond.Message(w, http.StatusOK, "Account deleted successfully")
}
