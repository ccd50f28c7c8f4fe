package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/fleetops/fleetops/internal/database"
)

// AlertService handles operator-facing alert reads and lifecycle transitions
type AlertService struct {
	db *gorm.DB
}

// NewAlertService creates a new alert service
func NewAlertService(db *gorm.DB) *AlertService {
	return &AlertService{db: db}
}

// ListAlerts returns alerts matching the filters plus the total match count
func (s *AlertService) ListAlerts(filters database.AlertFilters) ([]database.AlertRecord, int64, error) {
	total, err := database.CountAlerts(s.db, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	alerts, err := database.QueryAlerts(s.db, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query alerts: %w", err)
	}
	return alerts, total, nil
}

// GetAlert returns a single alert by ID
func (s *AlertService) GetAlert(id uint) (*database.AlertRecord, error) {
	return database.GetAlert(s.db, id)
}

// ResolveAlert marks an alert resolved, recording who resolved it
func (s *AlertService) ResolveAlert(id uint, actor string) error {
	return database.ResolveAlert(s.db, id, actor)
}

// DismissAlert marks an alert dismissed, recording who dismissed it
func (s *AlertService) DismissAlert(id uint, actor string) error {
	return database.DismissAlert(s.db, id, actor)
}

// AcknowledgeAlert marks an alert acknowledged, recording who acknowledged it
func (s *AlertService) AcknowledgeAlert(id uint, actor string) error {
	return database.AcknowledgeAlert(s.db, id, actor)
}

// MarkAlertRead marks an alert as read without changing its lifecycle status
func (s *AlertService) MarkAlertRead(id uint) error {
	return database.MarkAlertRead(s.db, id)
}
