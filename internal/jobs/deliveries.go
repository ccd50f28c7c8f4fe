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

// DeliveryChecker detects deliveries past their promised time and resolves
// their alerts once the delivery completes.
type DeliveryChecker struct {
	db       *gorm.DB
	policy   config.EscalationPolicy
	notifier Notifier
}

// NewDeliveryChecker creates the delayed-delivery checker
func NewDeliveryChecker(db *gorm.DB, policy config.EscalationPolicy, notifier Notifier) *DeliveryChecker {
	return &DeliveryChecker{db: db, policy: policy, notifier: notifier}
}

// Check runs one detection and resolution pass
func (c *DeliveryChecker) Check() (int, error) {
	now := time.Now()

	overdue, err := database.ReadOverdueDeliveries(c.db, now)
	if err != nil {
		return 0, fmt.Errorf("failed to read overdue deliveries: %w", err)
	}

	raised := 0
	for i := range overdue {
		delivery := &overdue[i]
		delay := now.Sub(delivery.PromisedAt)
		if delay < c.policy.GracePeriod() {
			continue
		}

		level := alerts.ClassifyDelay(delay, c.policy.EscalationThreshold())
		draft := alerts.LateDeliveryAlert(delivery, delay, level)

		res, err := database.UpsertAlert(c.db, draft)
		if err != nil {
			log.Printf("DeliveryChecker: failed to upsert alert for delivery %s: %v", delivery.TrackingCode, err)
			continue
		}
		if res.Created || res.Escalated || res.Reopened {
			c.notifier.Dispatch(res.Alert, c.policy)
			raised++
		}
	}

	if err := c.resolveDelivered(); err != nil {
		log.Printf("DeliveryChecker: resolution pass failed: %v", err)
	}

	return raised, nil
}

// resolveDelivered closes alerts whose delivery has completed
func (c *DeliveryChecker) resolveDelivered() error {
	open, err := database.QueryAlerts(c.db, database.AlertFilters{
		SourceType: database.SourceTypeDelivery,
		OpenOnly:   true,
	})
	if err != nil {
		return err
	}
	for i := range open {
		alert := &open[i]
		delivery, err := database.GetDelivery(c.db, alert.SourceEntityID)
		if err != nil {
			log.Printf("DeliveryChecker: could not load delivery %d: %v", alert.SourceEntityID, err)
			continue
		}
		if delivery.DeliveredAt == nil && delivery.Status != database.DeliveryStatusDelivered {
			continue
		}
		if _, err := database.ResolveAlertByKey(c.db, alert.AlertKey, "system"); err != nil {
			log.Printf("DeliveryChecker: failed to resolve alert %s: %v", alert.AlertKey, err)
		}
	}
	return nil
}
