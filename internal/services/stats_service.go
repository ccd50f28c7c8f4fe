package services

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fleetops/internal/database"
)

// StatsOverview summarizes the current alert population for the dashboard
type StatsOverview struct {
	Total        int64            `json:"total"`
	Active       int64            `json:"active"`
	Unread       int64            `json:"unread"`
	ByStatus     map[string]int64 `json:"by_status"`
	BySeverity   map[string]int64 `json:"by_severity"`
	CreatedToday int64            `json:"created_today"`
	CreatedWeek  int64            `json:"created_this_week"`
}

// StatsService computes alert rollups for the dashboard
type StatsService struct {
	db *gorm.DB
}

// NewStatsService creates a new stats service
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Overview returns current alert counts. Individual count failures are
// logged and reported as zero so a partial overview still renders.
func (s *StatsService) Overview() *StatsOverview {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -int(now.Weekday()))

	overview := &StatsOverview{
		Total:        s.count(database.AlertFilters{}),
		Active:       s.count(database.AlertFilters{OpenOnly: true}),
		Unread:       s.count(database.AlertFilters{UnreadOnly: true}),
		ByStatus:     make(map[string]int64),
		BySeverity:   make(map[string]int64),
		CreatedToday: s.count(database.AlertFilters{CreatedAfter: &startOfDay}),
		CreatedWeek:  s.count(database.AlertFilters{CreatedAfter: &startOfWeek}),
	}

	for _, status := range []database.AlertStatus{
		database.AlertStatusActive,
		database.AlertStatusAcknowledged,
		database.AlertStatusEscalated,
		database.AlertStatusResolved,
		database.AlertStatusDismissed,
	} {
		overview.ByStatus[string(status)] = s.count(database.AlertFilters{Status: status})
	}

	for _, severity := range []database.AlertSeverity{
		database.SeverityLow,
		database.SeverityMedium,
		database.SeverityHigh,
		database.SeverityCritical,
	} {
		overview.BySeverity[string(severity)] = s.count(database.AlertFilters{Severity: severity})
	}

	return overview
}

func (s *StatsService) count(f database.AlertFilters) int64 {
	n, err := database.CountAlerts(s.db, f)
	if err != nil {
		log.Printf("StatsService: count failed: %v", err)
		return 0
	}
	return n
}
