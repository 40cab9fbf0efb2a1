package monitoring

import (
	"time"

	"github.com/lfroste/livepoll-be/internal/services"
	ws "github.com/lfroste/livepoll-be/internal/websocket"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StatBroadcaster periodically pushes a stats snapshot to every connected
// client, so admin dashboards update without polling.
type StatBroadcaster struct {
	statsSvc services.StatsServiceProvider
	hub      *ws.Hub
	schedule cron.Schedule
	done     chan bool
}

// NewStatBroadcaster creates a broadcaster driven by a cron-standard spec
// (descriptors like "@every 15s" are accepted).
func NewStatBroadcaster(statsSvc services.StatsServiceProvider, hub *ws.Hub, spec string) (*StatBroadcaster, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, err
	}
	return &StatBroadcaster{
		statsSvc: statsSvc,
		hub:      hub,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the periodic broadcasts.
func (sb *StatBroadcaster) Run() {
	log.Info().Msg("Starting background stats broadcaster...")

	for {
		next := sb.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-sb.done:
			timer.Stop()
			log.Info().Msg("Stopping background stats broadcaster.")
			return
		case <-timer.C:
			sb.broadcastSnapshot()
		}
	}
}

// Stop halts the periodic broadcasts.
func (sb *StatBroadcaster) Stop() {
	sb.done <- true
}

func (sb *StatBroadcaster) broadcastSnapshot() {
	stats, err := sb.statsSvc.Snapshot()
	if err != nil {
		log.Error().Err(err).Msg("StatBroadcaster: Failed to compute stats snapshot")
		return
	}
	sb.hub.BroadcastTo(ws.AllClients(), ws.NewServerStatsEvent(stats))
}
