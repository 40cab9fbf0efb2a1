package handlers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type resultsPayload struct {
	PollID  string `json:"pollId"`
	Results []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		VoteCount int    `json:"voteCount"`
	} `json:"results"`
}

func dialWS(t *testing.T, srvURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srvURL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var evt wsEvent
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

// sendAction sends a client action and, via an unknown-action round trip,
// guarantees the server has processed everything sent before it.
func sendAction(t *testing.T, conn *websocket.Conn, action map[string]string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(action))
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "__sync"}))
	evt := readEvent(t, conn)
	require.Equal(t, "error", evt.Event)
}

func TestVotingLifecycle(t *testing.T) {
	srv := newTestServer(t)

	tokenA, _ := registerAndLogin(t, srv, "User A", "a@x.com")
	pollID, optionIDs := createPoll(t, srv, tokenA, "Pick one?", []string{"X", "Y"})
	optionX, optionY := optionIDs[0], optionIDs[1]

	viewer := dialWS(t, srv.URL)
	sendAction(t, viewer, map[string]string{"action": "joinPoll", "pollId": pollID})

	// Voting on a draft poll is rejected.
	status, raw := request(t, srv, http.MethodPost, "/api/votes", tokenA, map[string]string{"pollOptionId": optionX})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "Cannot vote on unpublished poll")

	// Publish as the owner; every connected client hears about it.
	status, raw = request(t, srv, http.MethodPatch, "/api/polls/"+pollID+"/publish", tokenA, nil)
	require.Equal(t, http.StatusOK, status, "publish: %s", raw)
	evt := readEvent(t, viewer)
	assert.Equal(t, "pollPublished", evt.Event)

	// Now the same vote succeeds and the tally reaches the group.
	status, raw = request(t, srv, http.MethodPost, "/api/votes", tokenA, map[string]string{"pollOptionId": optionX})
	require.Equal(t, http.StatusCreated, status, "vote: %s", raw)

	evt = readEvent(t, viewer)
	require.Equal(t, "pollResults", evt.Event)
	var results resultsPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &results))
	assert.Equal(t, pollID, results.PollID)
	require.Len(t, results.Results, 2)
	assert.Equal(t, 1, results.Results[0].VoteCount)
	assert.Equal(t, 0, results.Results[1].VoteCount)

	// Repeating the vote is a conflict.
	status, raw = request(t, srv, http.MethodPost, "/api/votes", tokenA, map[string]string{"pollOptionId": optionX})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "already voted")

	// A second user voting the other option brings the tally to {1,1}.
	tokenB, _ := registerAndLogin(t, srv, "User B", "b@x.com")
	status, raw = request(t, srv, http.MethodPost, "/api/votes", tokenB, map[string]string{"pollOptionId": optionY})
	require.Equal(t, http.StatusCreated, status, "second vote: %s", raw)

	evt = readEvent(t, viewer)
	require.Equal(t, "pollResults", evt.Event)
	require.NoError(t, json.Unmarshal(evt.Payload, &results))
	assert.Equal(t, 1, results.Results[0].VoteCount)
	assert.Equal(t, 1, results.Results[1].VoteCount)

	// HTTP reads agree with the pushed tally.
	status, raw = request(t, srv, http.MethodGet, "/api/polls/"+pollID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var poll struct {
		IsPublished bool `json:"isPublished"`
		Options     []struct {
			VoteCount int `json:"voteCount"`
		} `json:"options"`
	}
	decode(t, raw, &poll)
	assert.True(t, poll.IsPublished)
	assert.Equal(t, 1, poll.Options[0].VoteCount)
	assert.Equal(t, 1, poll.Options[1].VoteCount)
}

func TestVoteEventsScopedToGroupMembers(t *testing.T) {
	srv := newTestServer(t)

	token, _ := registerAndLogin(t, srv, "User A", "a@x.com")
	pollID, optionIDs := createPoll(t, srv, token, "Pick one?", []string{"X", "Y"})

	status, _ := request(t, srv, http.MethodPatch, "/api/polls/"+pollID+"/publish", token, nil)
	require.Equal(t, http.StatusOK, status)

	outsider := dialWS(t, srv.URL)
	// Deliberately no joinPoll.

	status, _ = request(t, srv, http.MethodPost, "/api/votes", token, map[string]string{"pollOptionId": optionIDs[0]})
	require.Equal(t, http.StatusCreated, status)

	outsider.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var evt wsEvent
	err := outsider.ReadJSON(&evt)
	require.Error(t, err, "outsider received %q event", evt.Event)
}

func TestVoteRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	status, raw := request(t, srv, http.MethodPost, "/api/votes", "", map[string]string{"pollOptionId": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(raw), "Access token required")

	status, raw = request(t, srv, http.MethodPost, "/api/votes", "garbage-token", map[string]string{"pollOptionId": "whatever"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, string(raw), "Invalid or expired token")
}

func TestVoteUnknownOption(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerAndLogin(t, srv, "User A", "a@x.com")

	status, raw := request(t, srv, http.MethodPost, "/api/votes", token, map[string]string{"pollOptionId": "missing"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(raw), "Poll option not found")
}

func TestCreatePollValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerAndLogin(t, srv, "User A", "a@x.com")

	status, raw := request(t, srv, http.MethodPost, "/api/polls", token, map[string]interface{}{
		"question": "Only one?", "options": []string{"X"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "at least 2 options")

	status, _ = request(t, srv, http.MethodPost, "/api/polls", token, map[string]interface{}{
		"question": "", "options": []string{"X", "Y"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPublishByNonOwnerLooksLikeNotFound(t *testing.T) {
	srv := newTestServer(t)

	tokenA, _ := registerAndLogin(t, srv, "User A", "a@x.com")
	tokenB, _ := registerAndLogin(t, srv, "User B", "b@x.com")
	pollID, _ := createPoll(t, srv, tokenA, "Pick one?", []string{"X", "Y"})

	status, _ := request(t, srv, http.MethodPatch, "/api/polls/"+pollID+"/publish", tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = request(t, srv, http.MethodPatch, "/api/polls/missing/publish", tokenA, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListPollsPublishedFilter(t *testing.T) {
	srv := newTestServer(t)

	token, _ := registerAndLogin(t, srv, "User A", "a@x.com")
	_, _ = createPoll(t, srv, token, "Draft?", []string{"A", "B"})
	liveID, _ := createPoll(t, srv, token, "Live?", []string{"C", "D"})

	status, _ := request(t, srv, http.MethodPatch, "/api/polls/"+liveID+"/publish", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw := request(t, srv, http.MethodGet, "/api/polls", "", nil)
	require.Equal(t, http.StatusOK, status)
	var all []map[string]interface{}
	decode(t, raw, &all)
	assert.Len(t, all, 2)

	status, raw = request(t, srv, http.MethodGet, "/api/polls?published=true", "", nil)
	require.Equal(t, http.StatusOK, status)
	var published []map[string]interface{}
	decode(t, raw, &published)
	require.Len(t, published, 1)
	assert.Equal(t, "Live?", published[0]["question"])
}

func TestUserEndpoints(t *testing.T) {
	srv := newTestServer(t)

	token, userID := registerAndLogin(t, srv, "User A", "a@x.com")

	// Duplicate registration fails.
	status, raw := request(t, srv, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Copycat", "email": "a@x.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "already exists")

	// Wrong password fails.
	status, _ = request(t, srv, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// The listing is unauthenticated and never leaks password hashes.
	status, raw = request(t, srv, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusOK, status)
	var users []map[string]interface{}
	decode(t, raw, &users)
	require.Len(t, users, 1)
	assert.NotContains(t, string(raw), "password")

	// User detail requires a token.
	status, _ = request(t, srv, http.MethodGet, "/api/users/"+userID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw = request(t, srv, http.MethodGet, "/api/users/"+userID, token, nil)
	require.Equal(t, http.StatusOK, status)
	var user map[string]interface{}
	decode(t, raw, &user)
	assert.Equal(t, "a@x.com", user["email"])

	status, _ = request(t, srv, http.MethodGet, "/api/users/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	tokenA, _ := registerAndLogin(t, srv, "User A", "a@x.com")
	registerAndLogin(t, srv, "User B", "b@x.com")

	pollID, optionIDs := createPoll(t, srv, tokenA, "Pick one?", []string{"X", "Y"})
	status, _ := request(t, srv, http.MethodPatch, "/api/polls/"+pollID+"/publish", tokenA, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = request(t, srv, http.MethodPost, "/api/votes", tokenA, map[string]string{"pollOptionId": optionIDs[0]})
	require.Equal(t, http.StatusCreated, status)

	status, raw := request(t, srv, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, status)

	var stats struct {
		TotalUsers      int `json:"totalUsers"`
		TotalPolls      int `json:"totalPolls"`
		PublishedPolls  int `json:"publishedPolls"`
		TotalVotes      int `json:"totalVotes"`
		ActiveUserCount int `json:"activeUserCount"`
		TotalSessions   int `json:"totalSessions"`
	}
	decode(t, raw, &stats)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalPolls)
	assert.Equal(t, 1, stats.PublishedPolls)
	assert.Equal(t, 1, stats.TotalVotes)
	assert.Equal(t, 2, stats.ActiveUserCount)
	assert.Equal(t, 2, stats.TotalSessions)
}
