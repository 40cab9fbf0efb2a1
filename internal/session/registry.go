// Package session tracks which authenticated users are currently connected.
// The registry is presentation-only: it feeds presence and admin stats and
// is never consulted for authorization decisions.
package session

import (
	"sync"
	"time"

	"github.com/lfroste/livepoll-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Registry is an injectable, in-memory presence tracker. State is lost on
// restart and cleared at shutdown.
type Registry struct {
	mu      sync.Mutex
	active  map[string]*models.Session // keyed by user ID
	history []models.SessionRecord
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]*models.Session),
	}
}

// RecordLogin stores a fresh session for the user, overwriting any prior
// entry (re-login resets the session start time), and appends an immutable
// audit record.
func (r *Registry) RecordLogin(user models.User) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.active[user.ID] = &models.Session{
		User:      user.Summary(),
		LoginTime: now,
	}
	r.history = append(r.history, models.SessionRecord{
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		LoginTime: now,
	})

	log.Info().Str("user_id", user.ID).Str("email", user.Email).
		Int("active_users", len(r.active)).Msg("User logged in")
}

// AttachConnection associates a live connection with a logged-in user.
// Unknown users are logged and ignored.
func (r *Registry) AttachConnection(userID, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.active[userID]
	if !ok {
		log.Warn().Str("user_id", userID).Str("connection_id", connectionID).
			Msg("Unknown user tried to identify with connection")
		return
	}
	sess.ConnectionID = connectionID

	log.Info().Str("user_id", userID).Str("connection_id", connectionID).
		Msg("User identified on connection")
}

// DetachConnection removes the session whose connection matches. Disconnect
// counts as logout for presence purposes, even though the user's token
// remains valid.
func (r *Registry) DetachConnection(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, sess := range r.active {
		if sess.ConnectionID == connectionID {
			delete(r.active, userID)
			log.Info().Str("user_id", userID).Str("connection_id", connectionID).
				Dur("session_duration", time.Since(sess.LoginTime)).
				Int("active_users", len(r.active)).Msg("User disconnected")
			return
		}
	}
}

// ActiveUsers returns a snapshot of the currently tracked sessions.
func (r *Registry) ActiveUsers() []models.ActiveUser {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]models.ActiveUser, 0, len(r.active))
	for _, sess := range r.active {
		users = append(users, models.ActiveUser{
			ID:           sess.User.ID,
			Name:         sess.User.Name,
			Email:        sess.User.Email,
			LoginTime:    sess.LoginTime,
			ConnectionID: sess.ConnectionID,
		})
	}
	return users
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// HistoryCount returns the number of logins recorded since process start.
func (r *Registry) HistoryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

// Clear drops all registry state. Called at shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = make(map[string]*models.Session)
	r.history = nil
}
