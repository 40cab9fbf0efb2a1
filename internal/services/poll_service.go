package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lfroste/livepoll-be/internal/models"
	ws "github.com/lfroste/livepoll-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// PollServiceProvider defines the interface for poll services.
type PollServiceProvider interface {
	CreatePoll(creatorID, question string, options []string) (models.Poll, error)
	ListPolls(publishedOnly bool) ([]models.Poll, error)
	GetPoll(id string) (models.Poll, error)
	PublishPoll(pollID, requesterID string) (models.Poll, error)
}

// PollService provides business logic for poll lifecycle management.
type PollService struct {
	db  *sql.DB
	hub *ws.Hub
}

// NewPollService creates a new PollService.
func NewPollService(db *sql.DB, hub *ws.Hub) *PollService {
	return &PollService{db: db, hub: hub}
}

// CreatePoll creates a draft poll with its options in one transaction.
// Options are supplied at creation time only; there is no later addition.
func (s *PollService) CreatePoll(creatorID, question string, options []string) (models.Poll, error) {
	if strings.TrimSpace(question) == "" || len(options) < 2 {
		return models.Poll{}, fmt.Errorf("question and at least 2 options are required: %w", ErrValidation)
	}
	for _, text := range options {
		if strings.TrimSpace(text) == "" {
			return models.Poll{}, fmt.Errorf("option text must not be empty: %w", ErrValidation)
		}
	}

	pollID := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return models.Poll{}, err
	}
	defer tx.Rollback()

	_, err = tx.Exec("INSERT INTO polls(id, question, is_published, creator_id, created_at) VALUES(?, ?, 0, ?, ?)",
		pollID, question, creatorID, now)
	if err != nil {
		return models.Poll{}, err
	}

	for _, text := range options {
		_, err = tx.Exec("INSERT INTO poll_options(id, poll_id, text, created_at) VALUES(?, ?, ?, ?)",
			uuid.New().String(), pollID, text, now)
		if err != nil {
			return models.Poll{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, err
	}

	log.Info().Str("poll_id", pollID).Str("creator_id", creatorID).
		Int("options", len(options)).Msg("Poll created")

	return s.GetPoll(pollID)
}

// ListPolls returns polls, newest first, with per-option vote counts and
// the creator. When publishedOnly is set, drafts are excluded.
func (s *PollService) ListPolls(publishedOnly bool) ([]models.Poll, error) {
	query := `
		SELECT p.id, p.question, p.is_published, p.creator_id, p.created_at, u.name, u.email
		FROM polls p
		JOIN users u ON u.id = p.creator_id`
	if publishedOnly {
		query += " WHERE p.is_published = 1"
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var (
			p            models.Poll
			creatorName  string
			creatorEmail string
		)
		if err := rows.Scan(&p.ID, &p.Question, &p.IsPublished, &p.CreatorID, &p.CreatedAt, &creatorName, &creatorEmail); err != nil {
			return nil, err
		}
		p.Creator = &models.UserSummary{ID: p.CreatorID, Name: creatorName, Email: creatorEmail}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range polls {
		if polls[i].Options, err = s.optionsWithCounts(polls[i].ID); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

// GetPoll returns a single poll with options, counts and creator.
func (s *PollService) GetPoll(id string) (models.Poll, error) {
	var (
		p            models.Poll
		creatorName  string
		creatorEmail string
	)
	row := s.db.QueryRow(`
		SELECT p.id, p.question, p.is_published, p.creator_id, p.created_at, u.name, u.email
		FROM polls p
		JOIN users u ON u.id = p.creator_id
		WHERE p.id = ?`, id)
	err := row.Scan(&p.ID, &p.Question, &p.IsPublished, &p.CreatorID, &p.CreatedAt, &creatorName, &creatorEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Poll{}, fmt.Errorf("poll %s: %w", id, ErrNotFound)
		}
		return models.Poll{}, err
	}
	p.Creator = &models.UserSummary{ID: p.CreatorID, Name: creatorName, Email: creatorEmail}

	if p.Options, err = s.optionsWithCounts(id); err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// PublishPoll transitions a draft to published. The owner check is folded
// into the lookup, so callers cannot distinguish "not found" from "not
// yours". Re-publishing is a no-op and emits no second broadcast.
func (s *PollService) PublishPoll(pollID, requesterID string) (models.Poll, error) {
	var isPublished bool
	row := s.db.QueryRow("SELECT is_published FROM polls WHERE id = ? AND creator_id = ?", pollID, requesterID)
	if err := row.Scan(&isPublished); err != nil {
		if err == sql.ErrNoRows {
			return models.Poll{}, fmt.Errorf("poll %s not found or not owned by requester: %w", pollID, ErrNotFound)
		}
		return models.Poll{}, err
	}

	if isPublished {
		return s.GetPoll(pollID)
	}

	if _, err := s.db.Exec("UPDATE polls SET is_published = 1 WHERE id = ?", pollID); err != nil {
		return models.Poll{}, err
	}

	poll, err := s.GetPoll(pollID)
	if err != nil {
		return models.Poll{}, err
	}

	log.Info().Str("poll_id", pollID).Str("question", poll.Question).Msg("Poll published")
	s.hub.BroadcastTo(ws.AllClients(), ws.NewPollPublishedEvent(poll.ID, poll.Question, time.Now().UTC()))

	return poll, nil
}

// optionsWithCounts loads a poll's options in creation order, each with a
// vote count computed fresh from the votes table.
func (s *PollService) optionsWithCounts(pollID string) ([]models.PollOption, error) {
	rows, err := s.db.Query(`
		SELECT o.id, o.poll_id, o.text, o.created_at, COUNT(v.id)
		FROM poll_options o
		LEFT JOIN votes v ON v.poll_option_id = o.id
		WHERE o.poll_id = ?
		GROUP BY o.id, o.poll_id, o.text, o.created_at
		ORDER BY o.created_at, o.rowid`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []models.PollOption{}
	for rows.Next() {
		var o models.PollOption
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text, &o.CreatedAt, &o.VoteCount); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
