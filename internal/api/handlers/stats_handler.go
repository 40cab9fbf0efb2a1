package handlers

import (
	"net/http"

	"github.com/lfroste/livepoll-be/internal/services"
)

// StatsHandler serves the aggregate stats snapshot for dashboards.
type StatsHandler struct {
	service services.StatsServiceProvider
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(service services.StatsServiceProvider) *StatsHandler {
	return &StatsHandler{service: service}
}

// Get returns the current stats snapshot.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Snapshot()
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
