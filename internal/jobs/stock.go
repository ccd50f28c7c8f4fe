package jobs

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/fleetops/fleetops/internal/alerts"
	"github.com/fleetops/fleetops/internal/config"
	"github.com/fleetops/fleetops/internal/database"
)

// StockChecker raises alerts for warehouse stock at or below its minimum
// quantity and resolves them once replenished.
type StockChecker struct {
	db       *gorm.DB
	policy   config.EscalationPolicy
	notifier Notifier
}

// NewStockChecker creates the low-stock checker
func NewStockChecker(db *gorm.DB, policy config.EscalationPolicy, notifier Notifier) *StockChecker {
	return &StockChecker{db: db, policy: policy, notifier: notifier}
}

// Check runs one detection and resolution pass
func (c *StockChecker) Check() (int, error) {
	items, err := database.ReadLowStockItems(c.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read low stock items: %w", err)
	}

	raised := 0
	for i := range items {
		item := &items[i]
		level := alerts.ClassifyMagnitude(float64(item.Quantity), float64(item.MinQuantity))
		draft := alerts.LowStockAlert(item, level)

		res, err := database.UpsertAlert(c.db, draft)
		if err != nil {
			log.Printf("StockChecker: failed to upsert alert for item %d: %v", item.ID, err)
			continue
		}
		if res.Created || res.Escalated || res.Reopened {
			c.notifier.Dispatch(res.Alert, c.policy)
			raised++
		}
	}

	if err := c.resolveReplenished(); err != nil {
		log.Printf("StockChecker: resolution pass failed: %v", err)
	}

	return raised, nil
}

// resolveReplenished closes alerts for stock back above its minimum
func (c *StockChecker) resolveReplenished() error {
	open, err := database.QueryAlerts(c.db, database.AlertFilters{
		SourceType: database.SourceTypeStock,
		OpenOnly:   true,
	})
	if err != nil {
		return err
	}
	for i := range open {
		alert := &open[i]
		item, err := database.GetStockItem(c.db, alert.SourceEntityID)
		if err != nil {
			log.Printf("StockChecker: could not load stock item %d: %v", alert.SourceEntityID, err)
			continue
		}
		if item.Quantity <= item.MinQuantity {
			continue
		}
		if _, err := database.ResolveAlertByKey(c.db, alert.AlertKey, "system"); err != nil {
			log.Printf("StockChecker: failed to resolve alert %s: %v", alert.AlertKey, err)
		}
	}
	return nil
}
