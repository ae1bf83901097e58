package handlers

import (
	"net/http"
)

// Health reports database reachability and the number of tables.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := h.TablesService.Check(r.Context())

	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	writeSuccess(w, health, status)
}
