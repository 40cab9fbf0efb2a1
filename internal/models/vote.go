package models

import "time"

// Vote records a single (user, option) endorsement. Votes are immutable
// once cast; the (userId, pollOptionId) pair is unique.
type Vote struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	PollOptionID string    `json:"pollOptionId"`
	CreatedAt    time.Time `json:"createdAt"`

	User       *UserSummary `json:"user,omitempty"`
	PollOption *VoteOption  `json:"pollOption,omitempty"`
}

// VoteOption is the option context returned with a freshly cast vote.
type VoteOption struct {
	ID   string      `json:"id"`
	Text string      `json:"text"`
	Poll PollSummary `json:"poll"`
}

// VoteSummary is the reduced vote shape embedded in user listings.
type VoteSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	OptionText   string    `json:"optionText"`
	PollQuestion string    `json:"pollQuestion"`
}
