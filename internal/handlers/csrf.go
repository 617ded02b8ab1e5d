package handlers

import (
	"log/slog"
	"net/http"

	"github.com/saasify/saasify-api/internal/csrf"
	"github.com/saasify/saasify-api/internal/respond"
)

// CSRFHandler hands out double-submit tokens.
type CSRFHandler struct {
	guard  *csrf.Guard
	logger *slog.Logger
}

// NewCSRFHandler creates a CSRFHandler.
func NewCSRFHandler(guard *csrf.Guard, logger *slog.Logger) *CSRFHandler {
	return &CSRFHandler{guard: guard, logger: logger}
}

// Token issues a fresh CSRF token as both a readable cookie and a body
// field, for the client to mirror into x-csrf-token on mutations.
// GET /api/csrf/token
func (h *CSRFHandler) Token(w http.ResponseWriter, r *http.Request) {
	tok, err := h.guard.IssueToken(w)
	if err != nil {
		h.logger.Error("csrf token issue failed", "error", err)
		serverError(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"csrfToken": tok})
}
