package services

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lfroste/livepoll-be/internal/database"
	"github.com/lfroste/livepoll-be/internal/models"
	ws "github.com/lfroste/livepoll-be/internal/websocket"
)

// newTestDB opens an isolated in-memory database for one test. A single
// connection keeps the shared-cache database alive and serializes access
// the way a file-backed database would.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { db.Close() })
	return db
}

// newTestHub starts a hub for the duration of the test.
func newTestHub(t *testing.T) *ws.Hub {
	t.Helper()
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub
}

// newHubClient registers a bare client so tests can observe broadcasts.
func newHubClient(t *testing.T, hub *ws.Hub) *ws.Client {
	t.Helper()
	client := ws.NewClient(hub, nil)
	hub.Register <- client
	return client
}

// recvEvent waits for one event on the client's send channel.
func recvEvent(t *testing.T, client *ws.Client) ws.Event {
	t.Helper()
	select {
	case raw := <-client.Send:
		var evt ws.Event
		require.NoError(t, json.Unmarshal(raw, &evt))
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for websocket event")
		return ws.Event{}
	}
}

// expectNoEvent asserts nothing arrives on the client's send channel.
func expectNoEvent(t *testing.T, client *ws.Client) {
	t.Helper()
	select {
	case raw := <-client.Send:
		t.Fatalf("unexpected websocket event: %s", raw)
	case <-time.After(150 * time.Millisecond):
	}
}

func createTestUser(t *testing.T, db *sql.DB, name, email string) models.User {
	t.Helper()
	svc := NewUserService(db)
	user, err := svc.RegisterUser(name, email, "password123")
	require.NoError(t, err)
	return user
}
