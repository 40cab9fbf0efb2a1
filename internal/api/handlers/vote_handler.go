package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lfroste/livepoll-be/internal/auth"
	"github.com/lfroste/livepoll-be/internal/services"
)

// VoteHandler handles HTTP requests for casting votes.
type VoteHandler struct {
	service services.VoteServiceProvider
}

// NewVoteHandler creates a new VoteHandler.
func NewVoteHandler(service services.VoteServiceProvider) *VoteHandler {
	return &VoteHandler{service: service}
}

// VotePayload defines the structure for vote requests.
type VotePayload struct {
	PollOptionID string `json:"pollOptionId"`
}

// Create casts a vote for the authenticated user. Failures map per the
// vote ledger rules; the real-time channel never carries request errors.
func (h *VoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var payload VotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.PollOptionID == "" {
		respondError(w, http.StatusBadRequest, "Poll option ID is required")
		return
	}

	vote, err := h.service.CastVote(claims.UserID, payload.PollOptionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			respondError(w, http.StatusNotFound, "Poll option not found")
		case errors.Is(err, services.ErrInvalidState):
			respondError(w, http.StatusBadRequest, "Cannot vote on unpublished poll")
		case errors.Is(err, services.ErrConflict):
			respondError(w, http.StatusBadRequest, "You have already voted on this option")
		default:
			respondInternal(w, err)
		}
		return
	}
	respondJSON(w, http.StatusCreated, vote)
}
