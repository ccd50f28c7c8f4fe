package services

import (
	"testing"

	"github.com/fleetops/fleetops/internal/database"
	"github.com/fleetops/fleetops/internal/testhelpers"
)

func TestStatsService_Overview(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	alertSvc := NewAlertService(db)
	svc := NewStatsService(db)

	a := seedAlert(t, alertSvc, "visit:1:late", database.SeverityMedium)
	seedAlert(t, alertSvc, "visit:2:late", database.SeverityCritical)
	seedAlert(t, alertSvc, "stock:3:low", database.SeverityLow)

	if err := alertSvc.ResolveAlert(a.ID, "sam"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if err := alertSvc.MarkAlertRead(a.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	overview := svc.Overview()

	if overview.Total != 3 {
		t.Errorf("total = %d, want 3", overview.Total)
	}
	if overview.Active != 2 {
		t.Errorf("active = %d, want 2", overview.Active)
	}
	if overview.Unread != 2 {
		t.Errorf("unread = %d, want 2", overview.Unread)
	}
	if overview.ByStatus["resolved"] != 1 {
		t.Errorf("resolved count = %d, want 1", overview.ByStatus["resolved"])
	}
	if overview.ByStatus["active"] != 2 {
		t.Errorf("active count = %d, want 2", overview.ByStatus["active"])
	}
	if overview.BySeverity["critical"] != 1 {
		t.Errorf("critical count = %d, want 1", overview.BySeverity["critical"])
	}
	if overview.CreatedToday != 3 {
		t.Errorf("created today = %d, want 3", overview.CreatedToday)
	}
	if overview.CreatedWeek < overview.CreatedToday {
		t.Error("weekly count cannot be below today's")
	}
}

func TestStatsService_EmptyDatabase(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewStatsService(db)

	overview := svc.Overview()
	if overview.Total != 0 || overview.Active != 0 {
		t.Errorf("expected zero counts, got %+v", overview)
	}
	if overview.ByStatus == nil || overview.BySeverity == nil {
		t.Error("maps should be initialized even when empty")
	}
}
