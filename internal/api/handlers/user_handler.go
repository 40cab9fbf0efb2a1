package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lfroste/livepoll-be/internal/auth"
	"github.com/lfroste/livepoll-be/internal/services"
	"github.com/lfroste/livepoll-be/internal/session"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for registration, login and user
// listings.
type UserHandler struct {
	service  services.UserServiceProvider
	tokens   *auth.Manager
	registry *session.Registry
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.Manager, registry *session.Registry) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, registry: registry}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.RegisterUser(payload.Name, payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			respondError(w, http.StatusBadRequest, "Name, email, and password are required")
		case errors.Is(err, services.ErrConflict):
			respondError(w, http.StatusBadRequest, "User with this email already exists")
		default:
			respondInternal(w, err)
		}
		return
	}

	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	respondJSON(w, http.StatusCreated, user)
}

// Login handles user authentication and token generation. A successful
// login is recorded in the session registry for presence tracking.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.service.AuthenticateUser(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondInternal(w, err)
		return
	}

	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		respondInternal(w, err)
		return
	}

	h.registry.RecordLogin(user)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user.Summary(),
	})
}

// List returns all users with their polls and votes. The original exposed
// this without an auth guard; that behavior is preserved.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers()
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetUserByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
