package websocket

import (
	"encoding/json"
	"time"

	"github.com/lfroste/livepoll-be/internal/models"
)

// Event is the envelope for every server-to-client message.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// PollResultsPayload carries the full current tally for a poll. Events are
// totals, not deltas, so a late-joining or lossy client converges on the
// next event.
type PollResultsPayload struct {
	PollID  string                `json:"pollId"`
	Results []models.OptionResult `json:"results"`
}

// PollPublishedPayload announces a draft-to-published transition.
type PollPublishedPayload struct {
	PollID      string    `json:"pollId"`
	Question    string    `json:"question"`
	PublishedAt time.Time `json:"publishedAt"`
}

// NewPollResultsEvent builds the tally update pushed to a poll's group.
func NewPollResultsEvent(pollID string, results []models.OptionResult) Event {
	return Event{Event: "pollResults", Payload: PollResultsPayload{PollID: pollID, Results: results}}
}

// NewPollPublishedEvent builds the announcement pushed to all clients.
func NewPollPublishedEvent(pollID, question string, publishedAt time.Time) Event {
	return Event{Event: "pollPublished", Payload: PollPublishedPayload{
		PollID:      pollID,
		Question:    question,
		PublishedAt: publishedAt,
	}}
}

// NewServerStatsEvent wraps a stats snapshot for the periodic broadcast.
func NewServerStatsEvent(stats interface{}) Event {
	return Event{Event: "serverStats", Payload: stats}
}

// NewErrorMessage returns a marshaled error event for a single client.
func NewErrorMessage(msg string) []byte {
	payload, _ := json.Marshal(Event{Event: "error", Payload: map[string]string{"message": msg}})
	return payload
}

// ClientMessage is the shape of messages received from clients.
type ClientMessage struct {
	Action string `json:"action"`
	PollID string `json:"pollId,omitempty"`
	UserID string `json:"userId,omitempty"`
}
