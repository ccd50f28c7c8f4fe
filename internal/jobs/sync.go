package jobs

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fleetops/internal/alerts"
	"github.com/fleetops/fleetops/internal/config"
	"github.com/fleetops/fleetops/internal/database"
)

// SyncChecker mirrors raw alert columns stored on visit rows into unified
// alert records, and archives terminated alerts past the retention window.
type SyncChecker struct {
	db        *gorm.DB
	policy    config.EscalationPolicy
	notifier  Notifier
	retention time.Duration
}

// NewSyncChecker creates the source reconciliation checker
func NewSyncChecker(db *gorm.DB, policy config.EscalationPolicy, notifier Notifier, retention time.Duration) *SyncChecker {
	return &SyncChecker{db: db, policy: policy, notifier: notifier, retention: retention}
}

// Check runs one reconciliation pass followed by retention cleanup
func (c *SyncChecker) Check() (int, error) {
	visits, err := database.ReadVisitsWithRawAlerts(c.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read visits with raw alerts: %w", err)
	}

	synced := 0
	for i := range visits {
		visit := &visits[i]
		draft := alerts.VisitSourceAlert(visit)

		res, err := database.UpsertAlert(c.db, draft)
		if err != nil {
			log.Printf("SyncChecker: failed to upsert alert for visit %d: %v", visit.ID, err)
			continue
		}
		if res.Created || res.Escalated || res.Reopened {
			c.notifier.Dispatch(res.Alert, c.policy)
			synced++
		}
	}

	if c.retention > 0 {
		cutoff := time.Now().Add(-c.retention)
		archived, err := database.ArchiveTerminatedBefore(c.db, cutoff)
		if err != nil {
			log.Printf("SyncChecker: retention pass failed: %v", err)
		} else if archived > 0 {
			log.Printf("SyncChecker: archived %d terminated alerts older than %s", archived, cutoff.Format(time.RFC3339))
		}
	}

	return synced, nil
}
