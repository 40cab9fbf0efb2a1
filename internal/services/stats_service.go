package services

import (
	"database/sql"
	"os"
	"time"

	"github.com/lfroste/livepoll-be/internal/models"
	"github.com/lfroste/livepoll-be/internal/session"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// StatsServiceProvider defines the interface for operational stats.
type StatsServiceProvider interface {
	Snapshot() (Stats, error)
}

// ProcessStats describes the server process itself.
type ProcessStats struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryMB      float64 `json:"memoryMb"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
}

// Stats is the aggregate snapshot served by GET /api/stats and pushed
// periodically to connected clients.
type Stats struct {
	TotalUsers      int                 `json:"totalUsers"`
	TotalPolls      int                 `json:"totalPolls"`
	PublishedPolls  int                 `json:"publishedPolls"`
	TotalVotes      int                 `json:"totalVotes"`
	ActiveUsers     []models.ActiveUser `json:"activeUsers"`
	ActiveUserCount int                 `json:"activeUserCount"`
	TotalSessions   int                 `json:"totalSessions"`
	Process         ProcessStats        `json:"process"`
	Timestamp       time.Time           `json:"timestamp"`
}

// StatsService aggregates storage counts, presence and process metrics.
type StatsService struct {
	db        *sql.DB
	registry  *session.Registry
	startedAt time.Time
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *sql.DB, registry *session.Registry) *StatsService {
	return &StatsService{db: db, registry: registry, startedAt: time.Now()}
}

// Snapshot computes a fresh stats snapshot.
func (s *StatsService) Snapshot() (Stats, error) {
	stats := Stats{
		ActiveUsers:   s.registry.ActiveUsers(),
		TotalSessions: s.registry.HistoryCount(),
		Timestamp:     time.Now().UTC(),
	}
	stats.ActiveUserCount = len(stats.ActiveUsers)

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(1) FROM users", &stats.TotalUsers},
		{"SELECT COUNT(1) FROM polls", &stats.TotalPolls},
		{"SELECT COUNT(1) FROM polls WHERE is_published = 1", &stats.PublishedPolls},
		{"SELECT COUNT(1) FROM votes", &stats.TotalVotes},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return Stats{}, err
		}
	}

	stats.Process = s.processStats()
	return stats, nil
}

// processStats reads CPU and memory usage of this process. Failures are
// logged and yield zero values; stats must not break on a metrics hiccup.
func (s *StatsService) processStats() ProcessStats {
	ps := ProcessStats{UptimeSeconds: int64(time.Since(s.startedAt).Seconds())}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn().Err(err).Msg("Could not inspect own process for stats")
		return ps
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		ps.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		ps.MemoryMB = float64(mem.RSS) / (1024 * 1024)
	}
	return ps
}
