package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+dataSourceName+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
// The UNIQUE(user_id, poll_option_id) index on votes is the authoritative
// guard against two concurrent votes by the same user on the same option.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS polls (
		id TEXT NOT NULL PRIMARY KEY,
		question TEXT NOT NULL,
		is_published INTEGER NOT NULL DEFAULT 0,
		creator_id TEXT NOT NULL REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS poll_options (
		id TEXT NOT NULL PRIMARY KEY,
		poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS votes (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		poll_option_id TEXT NOT NULL REFERENCES poll_options(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, poll_option_id)
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
