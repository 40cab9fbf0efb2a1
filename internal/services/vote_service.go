package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lfroste/livepoll-be/internal/models"
	ws "github.com/lfroste/livepoll-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// VoteServiceProvider defines the interface for the vote ledger.
type VoteServiceProvider interface {
	CastVote(userID, pollOptionID string) (models.Vote, error)
	Tally(pollID string) ([]models.OptionResult, error)
}

// VoteService enforces one-vote-per-option-per-user and computes tallies.
type VoteService struct {
	db  *sql.DB
	hub *ws.Hub
}

// NewVoteService creates a new VoteService.
func NewVoteService(db *sql.DB, hub *ws.Hub) *VoteService {
	return &VoteService{db: db, hub: hub}
}

// CastVote validates and persists a vote, then broadcasts the poll's fresh
// tally to its group. Preconditions, in order: the option must exist, its
// poll must be published, and the (user, option) pair must be unvoted.
// The check-then-insert sequence is racy under concurrent requests; the
// votes table's unique constraint is the authoritative guard, and the
// losing insert maps to ErrConflict.
func (s *VoteService) CastVote(userID, pollOptionID string) (models.Vote, error) {
	var (
		option      models.VoteOption
		isPublished bool
	)
	row := s.db.QueryRow(`
		SELECT o.id, o.text, p.id, p.question, p.is_published, p.created_at
		FROM poll_options o
		JOIN polls p ON p.id = o.poll_id
		WHERE o.id = ?`, pollOptionID)
	err := row.Scan(&option.ID, &option.Text, &option.Poll.ID, &option.Poll.Question, &isPublished, &option.Poll.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Vote{}, fmt.Errorf("poll option %s: %w", pollOptionID, ErrNotFound)
		}
		return models.Vote{}, err
	}
	option.Poll.IsPublished = isPublished

	if !isPublished {
		return models.Vote{}, fmt.Errorf("cannot vote on unpublished poll %s: %w", option.Poll.ID, ErrInvalidState)
	}

	var existing int
	row = s.db.QueryRow("SELECT COUNT(1) FROM votes WHERE user_id = ? AND poll_option_id = ?", userID, pollOptionID)
	if err := row.Scan(&existing); err != nil {
		return models.Vote{}, err
	}
	if existing > 0 {
		return models.Vote{}, fmt.Errorf("user %s already voted on option %s: %w", userID, pollOptionID, ErrConflict)
	}

	vote := models.Vote{
		ID:           uuid.New().String(),
		UserID:       userID,
		PollOptionID: pollOptionID,
		CreatedAt:    time.Now().UTC(),
		PollOption:   &option,
	}

	_, err = s.db.Exec("INSERT INTO votes(id, user_id, poll_option_id, created_at) VALUES(?, ?, ?, ?)",
		vote.ID, vote.UserID, vote.PollOptionID, vote.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Vote{}, fmt.Errorf("user %s already voted on option %s: %w", userID, pollOptionID, ErrConflict)
		}
		return models.Vote{}, err
	}

	var userName string
	if err := s.db.QueryRow("SELECT name FROM users WHERE id = ?", userID).Scan(&userName); err == nil {
		vote.User = &models.UserSummary{ID: userID, Name: userName}
	}

	log.Info().Str("poll_id", option.Poll.ID).Str("option_id", pollOptionID).
		Str("user_id", userID).Msg("Vote cast")

	// Tally is read after the write commits, so subscribers never see a
	// broadcast staler than the triggering vote.
	results, err := s.Tally(option.Poll.ID)
	if err != nil {
		log.Error().Err(err).Str("poll_id", option.Poll.ID).Msg("Failed to compute tally for broadcast")
		return vote, nil
	}
	s.hub.BroadcastTo(ws.PollGroup(option.Poll.ID), ws.NewPollResultsEvent(option.Poll.ID, results))

	return vote, nil
}

// Tally computes the per-option vote counts for a poll, fresh from the
// votes table; counts are never maintained incrementally.
func (s *VoteService) Tally(pollID string) ([]models.OptionResult, error) {
	rows, err := s.db.Query(`
		SELECT o.id, o.text, COUNT(v.id)
		FROM poll_options o
		LEFT JOIN votes v ON v.poll_option_id = o.id
		WHERE o.poll_id = ?
		GROUP BY o.id, o.text
		ORDER BY o.created_at, o.rowid`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.OptionResult{}
	for rows.Next() {
		var r models.OptionResult
		if err := rows.Scan(&r.ID, &r.Text, &r.VoteCount); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
