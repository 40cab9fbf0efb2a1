package models

import "time"

// User represents a registered account in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`

	// Populated only by the admin-style listing and user detail queries.
	Polls []PollSummary `json:"polls,omitempty"`
	Votes []VoteSummary `json:"votes,omitempty"`
}

// UserSummary is the reduced user shape embedded in polls and votes.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Summary returns the embeddable view of the user.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
