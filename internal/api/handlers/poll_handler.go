package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lfroste/livepoll-be/internal/auth"
	"github.com/lfroste/livepoll-be/internal/services"
)

// PollHandler handles HTTP requests for poll creation, listing and
// publication.
type PollHandler struct {
	service services.PollServiceProvider
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(service services.PollServiceProvider) *PollHandler {
	return &PollHandler{service: service}
}

// CreatePollPayload defines the structure for poll creation requests.
type CreatePollPayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Create handles draft poll creation for the authenticated user.
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var payload CreatePollPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	poll, err := h.service.CreatePoll(claims.UserID, payload.Question, payload.Options)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			respondError(w, http.StatusBadRequest, "Question and at least 2 options are required")
			return
		}
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, poll)
}

// List returns polls with option vote counts; ?published=true filters to
// published polls only.
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	publishedOnly := r.URL.Query().Get("published") == "true"

	polls, err := h.service.ListPolls(publishedOnly)
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, polls)
}

// Get returns a single poll by ID.
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	poll, err := h.service.GetPoll(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Poll not found")
			return
		}
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

// Publish transitions a poll to published. Not-found and not-owner are
// indistinguishable to the caller.
func (h *PollHandler) Publish(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	id := chi.URLParam(r, "id")
	poll, err := h.service.PublishPoll(id, claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Poll not found or you do not have permission to publish it")
			return
		}
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, poll)
}
