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

// LateVisitChecker detects field visits whose scheduled time passed the
// grace period without a recorded start, and resolves their alerts once
// the visit starts or is cancelled.
type LateVisitChecker struct {
	db       *gorm.DB
	policy   config.EscalationPolicy
	notifier Notifier
}

// NewLateVisitChecker creates the late-visit checker
func NewLateVisitChecker(db *gorm.DB, policy config.EscalationPolicy, notifier Notifier) *LateVisitChecker {
	return &LateVisitChecker{db: db, policy: policy, notifier: notifier}
}

// Check runs one detection and resolution pass
func (c *LateVisitChecker) Check() (int, error) {
	now := time.Now()

	visits, err := database.ReadDueVisits(c.db, now)
	if err != nil {
		return 0, fmt.Errorf("failed to read due visits: %w", err)
	}

	raised := 0
	for i := range visits {
		visit := &visits[i]
		delay := now.Sub(visit.ScheduledAt)
		if delay < c.policy.GracePeriod() {
			continue
		}

		level := alerts.ClassifyDelay(delay, c.policy.EscalationThreshold())
		draft := alerts.LateVisitAlert(visit, delay, level)

		res, err := database.UpsertAlert(c.db, draft)
		if err != nil {
			// One bad record must not starve the rest of the batch
			log.Printf("LateVisitChecker: failed to upsert alert for visit %d: %v", visit.ID, err)
			continue
		}

		if !visit.IsLate {
			if err := database.SetVisitLate(c.db, visit.ID, true); err != nil {
				log.Printf("LateVisitChecker: failed to flag visit %d late: %v", visit.ID, err)
			}
		}

		if res.Created || res.Escalated || res.Reopened {
			c.notifier.Dispatch(res.Alert, c.policy)
			raised++
		}
	}

	if err := c.resolveRecovered(); err != nil {
		log.Printf("LateVisitChecker: resolution pass failed: %v", err)
	}

	return raised, nil
}

// resolveRecovered closes alerts for visits that have since started,
// completed or been cancelled, and clears the mirrored is_late flag.
func (c *LateVisitChecker) resolveRecovered() error {
	recovered, err := database.ReadRecoveredLateVisits(c.db)
	if err != nil {
		return err
	}
	for i := range recovered {
		visit := &recovered[i]
		resolved, err := database.ResolveAlertByKey(c.db, alerts.LateVisitKey(visit.ID), "system")
		if err != nil {
			log.Printf("LateVisitChecker: failed to resolve alert for visit %d: %v", visit.ID, err)
			continue
		}
		if resolved {
			log.Printf("LateVisitChecker: visit %d recovered, alert resolved", visit.ID)
		}
		if err := database.SetVisitLate(c.db, visit.ID, false); err != nil {
			log.Printf("LateVisitChecker: failed to clear late flag on visit %d: %v", visit.ID, err)
		}
	}
	return nil
}
