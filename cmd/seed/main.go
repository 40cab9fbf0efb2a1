// Command seed inserts demo users, polls and votes so the app has data to
// play with. Safe to run repeatedly; existing rows are left alone.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/lfroste/livepoll-be/internal/config"
	"github.com/lfroste/livepoll-be/internal/database"
	"github.com/lfroste/livepoll-be/internal/logger"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type demoPoll struct {
	id        string
	question  string
	published bool
	creatorID string
	options   []string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	if err := seed(db); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
	log.Info().Msg("Demo data ready")
}

func seed(db *sql.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []struct{ id, name, email string }{
		{"demo-user-1", "John Doe", "john@example.com"},
		{"demo-user-2", "Jane Smith", "jane@example.com"},
	}
	for _, u := range users {
		_, err := db.Exec("INSERT OR IGNORE INTO users(id, name, email, password_hash) VALUES(?, ?, ?, ?)",
			u.id, u.name, u.email, string(hash))
		if err != nil {
			return err
		}
	}

	polls := []demoPoll{
		{
			id: "demo-poll-1", question: "What is your favorite programming language?",
			published: true, creatorID: "demo-user-1",
			options: []string{"JavaScript", "Python", "Java", "Go"},
		},
		{
			id: "demo-poll-2", question: "Which framework do you prefer for web development?",
			published: true, creatorID: "demo-user-2",
			options: []string{"React", "Vue.js", "Angular", "Svelte"},
		},
		{
			id: "demo-poll-3", question: "What is your preferred database?",
			published: false, creatorID: "demo-user-1",
			options: []string{"PostgreSQL", "MySQL", "MongoDB", "Redis"},
		},
	}
	for _, p := range polls {
		_, err := db.Exec("INSERT OR IGNORE INTO polls(id, question, is_published, creator_id) VALUES(?, ?, ?, ?)",
			p.id, p.question, p.published, p.creatorID)
		if err != nil {
			return err
		}
		for i, text := range p.options {
			optionID := fmt.Sprintf("%s-opt-%d", p.id, i+1)
			_, err := db.Exec("INSERT OR IGNORE INTO poll_options(id, poll_id, text) VALUES(?, ?, ?)",
				optionID, p.id, text)
			if err != nil {
				return err
			}
		}
	}

	// A few starter votes on the published polls.
	votes := []struct{ id, userID, optionID string }{
		{"demo-vote-1", "demo-user-1", "demo-poll-1-opt-1"},
		{"demo-vote-2", "demo-user-2", "demo-poll-1-opt-2"},
		{"demo-vote-3", "demo-user-1", "demo-poll-2-opt-1"},
	}
	for _, v := range votes {
		_, err := db.Exec("INSERT OR IGNORE INTO votes(id, user_id, poll_option_id) VALUES(?, ?, ?)",
			v.id, v.userID, v.optionID)
		if err != nil {
			return err
		}
	}
	return nil
}
