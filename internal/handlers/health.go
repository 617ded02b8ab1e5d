package handlers

import (
	"net/http"

	"github.com/saasify/saasify-api/internal/respond"
)

// Health answers the liveness probe.
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
