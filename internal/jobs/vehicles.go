package jobs

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/fleetops/fleetops/internal/alerts"
	"github.com/fleetops/fleetops/internal/config"
	"github.com/fleetops/fleetops/internal/database"
)

// VehicleChecker raises alerts for vehicles at or below their low-fuel
// level. Tiering follows how far the level has fallen, not elapsed time.
type VehicleChecker struct {
	db       *gorm.DB
	policy   config.EscalationPolicy
	notifier Notifier
}

// NewVehicleChecker creates the low-fuel checker
func NewVehicleChecker(db *gorm.DB, policy config.EscalationPolicy, notifier Notifier) *VehicleChecker {
	return &VehicleChecker{db: db, policy: policy, notifier: notifier}
}

// Check runs one detection and resolution pass
func (c *VehicleChecker) Check() (int, error) {
	vehicles, err := database.ReadLowFuelVehicles(c.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read low-fuel vehicles: %w", err)
	}

	raised := 0
	for i := range vehicles {
		vehicle := &vehicles[i]
		level := alerts.ClassifyMagnitude(vehicle.FuelLevel, vehicle.LowFuelLevel)
		draft := alerts.LowFuelAlert(vehicle, level)

		res, err := database.UpsertAlert(c.db, draft)
		if err != nil {
			log.Printf("VehicleChecker: failed to upsert alert for vehicle %s: %v", vehicle.PlateNumber, err)
			continue
		}
		if res.Created || res.Escalated || res.Reopened {
			c.notifier.Dispatch(res.Alert, c.policy)
			raised++
		}
	}

	if err := c.resolveRefueled(); err != nil {
		log.Printf("VehicleChecker: resolution pass failed: %v", err)
	}

	return raised, nil
}

// resolveRefueled closes alerts for vehicles back above their threshold
func (c *VehicleChecker) resolveRefueled() error {
	open, err := database.QueryAlerts(c.db, database.AlertFilters{
		SourceType: database.SourceTypeVehicle,
		OpenOnly:   true,
	})
	if err != nil {
		return err
	}
	for i := range open {
		alert := &open[i]
		vehicle, err := database.GetVehicle(c.db, alert.SourceEntityID)
		if err != nil {
			log.Printf("VehicleChecker: could not load vehicle %d: %v", alert.SourceEntityID, err)
			continue
		}
		if vehicle.FuelLevel <= vehicle.LowFuelLevel {
			continue
		}
		if _, err := database.ResolveAlertByKey(c.db, alert.AlertKey, "system"); err != nil {
			log.Printf("VehicleChecker: failed to resolve alert %s: %v", alert.AlertKey, err)
		}
	}
	return nil
}
