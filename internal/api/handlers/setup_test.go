package handlers_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lfroste/livepoll-be/internal/api"
	"github.com/lfroste/livepoll-be/internal/auth"
	"github.com/lfroste/livepoll-be/internal/database"
	"github.com/lfroste/livepoll-be/internal/services"
	"github.com/lfroste/livepoll-be/internal/session"
	ws "github.com/lfroste/livepoll-be/internal/websocket"
)

// newTestServer wires the full router against an isolated in-memory
// database, the way main does.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	registry := session.NewRegistry()

	router := api.NewRouter(api.RouterDeps{
		Hub:            hub,
		Registry:       registry,
		Tokens:         auth.NewManager("test-secret"),
		UserService:    services.NewUserService(db),
		PollService:    services.NewPollService(db, hub),
		VoteService:    services.NewVoteService(db, hub),
		StatsService:   services.NewStatsService(db, registry),
		AllowedOrigins: []string{"*"},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// request performs an HTTP call against the test server and returns the
// status code and raw body.
func request(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode(t *testing.T, raw []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

// registerAndLogin creates an account and returns its token and user ID.
func registerAndLogin(t *testing.T, srv *httptest.Server, name, email string) (token, userID string) {
	t.Helper()

	status, raw := request(t, srv, http.MethodPost, "/api/users", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, status, "register: %s", raw)

	status, raw = request(t, srv, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, status, "login: %s", raw)

	var loginResp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, raw, &loginResp)
	require.NotEmpty(t, loginResp.Token)
	return loginResp.Token, loginResp.User.ID
}

// createPoll creates a draft poll and returns its ID and option IDs.
func createPoll(t *testing.T, srv *httptest.Server, token, question string, options []string) (pollID string, optionIDs []string) {
	t.Helper()

	status, raw := request(t, srv, http.MethodPost, "/api/polls", token, map[string]interface{}{
		"question": question, "options": options,
	})
	require.Equal(t, http.StatusCreated, status, "create poll: %s", raw)

	var poll struct {
		ID      string `json:"id"`
		Options []struct {
			ID string `json:"id"`
		} `json:"options"`
	}
	decode(t, raw, &poll)
	for _, o := range poll.Options {
		optionIDs = append(optionIDs, o.ID)
	}
	return poll.ID, optionIDs
}
