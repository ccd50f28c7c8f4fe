package database

import (
	"time"

	"gorm.io/gorm"
)

// Per-domain readers over the operational tables. The alert engine treats
// these rows as read-only except for the mirrored is_late flag on visits.

// ReadDueVisits returns visits whose scheduled time has passed without a
// recorded actual start. Grace-period filtering is the checker's job.
func ReadDueVisits(db *gorm.DB, now time.Time) ([]Visit, error) {
	var visits []Visit
	err := db.Where("status IN ? AND scheduled_at <= ? AND actual_start_at IS NULL",
		[]VisitStatus{VisitStatusScheduled, VisitStatusLate}, now).
		Order("scheduled_at ASC").Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}

// ReadRecoveredLateVisits returns visits still flagged late whose condition
// has cleared (started, completed or cancelled).
func ReadRecoveredLateVisits(db *gorm.DB) ([]Visit, error) {
	var visits []Visit
	err := db.Where("is_late = ? AND (actual_start_at IS NOT NULL OR status IN ?)",
		true, []VisitStatus{VisitStatusInProgress, VisitStatusCompleted, VisitStatusCancelled}).
		Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}

// SetVisitLate mirrors the alert state back onto the visit row so pages
// rendering from the visits table stay consistent.
func SetVisitLate(db *gorm.DB, visitID uint, late bool) error {
	return db.Model(&Visit{}).Where("id = ?", visitID).Update("is_late", late).Error
}

// ReadVisitsWithRawAlerts returns visits carrying legacy raw alert columns
// that the sync job reconciles into the unified store.
func ReadVisitsWithRawAlerts(db *gorm.DB) ([]Visit, error) {
	var visits []Visit
	err := db.Where("raw_alert_title <> ''").Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}

// ReadUnreadMessages returns representative messages not yet read by an
// operator.
func ReadUnreadMessages(db *gorm.DB) ([]RepMessage, error) {
	var messages []RepMessage
	err := db.Where("is_read = ?", false).Order("created_at ASC").Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GetRepMessage returns a message by ID
func GetRepMessage(db *gorm.DB, id uint) (*RepMessage, error) {
	var msg RepMessage
	if err := db.First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReadLowFuelVehicles returns vehicles at or below their low-fuel level
func ReadLowFuelVehicles(db *gorm.DB) ([]Vehicle, error) {
	var vehicles []Vehicle
	err := db.Where("fuel_level <= low_fuel_level").Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

// GetVehicle returns a vehicle by ID
func GetVehicle(db *gorm.DB, id uint) (*Vehicle, error) {
	var v Vehicle
	if err := db.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// ReadLowStockItems returns stock rows at or below their minimum quantity
func ReadLowStockItems(db *gorm.DB) ([]StockItem, error) {
	var items []StockItem
	err := db.Where("quantity <= min_quantity").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetStockItem returns a stock row by ID
func GetStockItem(db *gorm.DB, id uint) (*StockItem, error) {
	var item StockItem
	if err := db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ReadOverdueDeliveries returns undelivered deliveries past their promised
// time.
func ReadOverdueDeliveries(db *gorm.DB, now time.Time) ([]Delivery, error) {
	var deliveries []Delivery
	err := db.Where("status IN ? AND promised_at <= ? AND delivered_at IS NULL",
		[]DeliveryStatus{DeliveryStatusPending, DeliveryStatusInTransit}, now).
		Order("promised_at ASC").Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

// GetDelivery returns a delivery by ID
func GetDelivery(db *gorm.DB, id uint) (*Delivery, error) {
	var d Delivery
	if err := db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
