package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lfroste/livepoll-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	RegisterUser(name, email, password string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	ListUsers() ([]models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// RegisterUser creates a new user, hashing their password. A duplicate
// email fails with ErrConflict.
func (s *UserService) RegisterUser(name, email, password string) (models.User, error) {
	if name == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("name, email, and password are required: %w", ErrValidation)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec("INSERT INTO users(id, name, email, password_hash, created_at) VALUES(?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("user with email %s already exists: %w", email, ErrConflict)
		}
		return models.User{}, err
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(email, password string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("authentication failed: %w", ErrUnauthorized)
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("authentication failed: %w", ErrUnauthorized)
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user with the polls they created.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, name, email, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}

	user.Polls, err = s.pollsForUser(id)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ListUsers returns all users, newest first, with their polls and votes.
func (s *UserService) ListUsers() ([]models.User, error) {
	rows, err := s.db.Query("SELECT id, name, email, created_at FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Polls, err = s.pollsForUser(users[i].ID); err != nil {
			return nil, err
		}
		if users[i].Votes, err = s.votesForUser(users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (s *UserService) pollsForUser(userID string) ([]models.PollSummary, error) {
	rows, err := s.db.Query(
		"SELECT id, question, is_published, created_at FROM polls WHERE creator_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	polls := []models.PollSummary{}
	for rows.Next() {
		var p models.PollSummary
		if err := rows.Scan(&p.ID, &p.Question, &p.IsPublished, &p.CreatedAt); err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

func (s *UserService) votesForUser(userID string) ([]models.VoteSummary, error) {
	rows, err := s.db.Query(`
		SELECT v.id, v.created_at, o.text, p.question
		FROM votes v
		JOIN poll_options o ON o.id = v.poll_option_id
		JOIN polls p ON p.id = o.poll_id
		WHERE v.user_id = ?
		ORDER BY v.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []models.VoteSummary{}
	for rows.Next() {
		var v models.VoteSummary
		if err := rows.Scan(&v.ID, &v.CreatedAt, &v.OptionText, &v.PollQuestion); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
