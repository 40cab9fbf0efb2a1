package monitoring

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfroste/livepoll-be/internal/services"
	ws "github.com/lfroste/livepoll-be/internal/websocket"
)

type stubStatsService struct {
	calls int32
}

func (s *stubStatsService) Snapshot() (services.Stats, error) {
	atomic.AddInt32(&s.calls, 1)
	return services.Stats{TotalUsers: 7}, nil
}

func TestNewStatBroadcasterInvalidSpec(t *testing.T) {
	_, err := NewStatBroadcaster(&stubStatsService{}, ws.NewHub(), "not a cron spec")
	assert.Error(t, err)
}

func TestStatBroadcasterPushesToAllClients(t *testing.T) {
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	client := ws.NewClient(hub, nil)
	hub.Register <- client

	stats := &stubStatsService{}
	sb, err := NewStatBroadcaster(stats, hub, "@every 1s")
	require.NoError(t, err)
	go sb.Run()
	defer sb.Stop()

	select {
	case raw := <-client.Send:
		var evt ws.Event
		require.NoError(t, json.Unmarshal(raw, &evt))
		assert.Equal(t, "serverStats", evt.Event)
	case <-time.After(5 * time.Second):
		t.Fatal("no stats broadcast arrived")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&stats.calls), int32(1))
}
