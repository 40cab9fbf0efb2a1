package models

import "time"

// Session tracks a logged-in user's presence. Sessions live only in
// process memory and are lost on restart; they are never consulted for
// authorization decisions.
type Session struct {
	User         UserSummary `json:"user"`
	LoginTime    time.Time   `json:"loginTime"`
	ConnectionID string      `json:"connectionId,omitempty"`
}

// ActiveUser is the stats view of a live session.
type ActiveUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	LoginTime    time.Time `json:"loginTime"`
	ConnectionID string    `json:"connectionId,omitempty"`
}

// SessionRecord is an immutable audit entry appended on every login.
type SessionRecord struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserEmail string    `json:"userEmail"`
	LoginTime time.Time `json:"loginTime"`
}
