package models

import "time"

// Poll is a question with two or more options, owned by its creator.
// It starts as a draft and transitions to published exactly once; only
// published polls accept votes.
type Poll struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	IsPublished bool      `json:"isPublished"`
	CreatorID   string    `json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`

	Options []PollOption `json:"options,omitempty"`
	Creator *UserSummary `json:"creator,omitempty"`
}

// PollOption is one selectable choice within a poll.
type PollOption struct {
	ID        string    `json:"id"`
	PollID    string    `json:"pollId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	VoteCount int       `json:"voteCount"`
}

// PollSummary is the reduced poll shape embedded in user listings.
type PollSummary struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OptionResult is one entry in a poll's tally, computed fresh from the
// votes table at read time.
type OptionResult struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int    `json:"voteCount"`
}
