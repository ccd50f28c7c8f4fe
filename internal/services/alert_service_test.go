package services

import (
	"testing"

	"github.com/fleetops/fleetops/internal/database"
	"github.com/fleetops/fleetops/internal/testhelpers"
)

func seedAlert(t *testing.T, svc *AlertService, key string, severity database.AlertSeverity) *database.AlertRecord {
	t.Helper()
	res, err := database.UpsertAlert(svc.db, &database.AlertRecord{
		AlertKey:        key,
		SourceType:      database.SourceTypeLateVisit,
		Category:        database.CategoryWarning,
		Severity:        severity,
		EscalationLevel: database.EscalationInitial,
		Title:           "Test alert " + key,
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return res.Alert
}

func TestAlertService_ListAlerts(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewAlertService(db)

	seedAlert(t, svc, "visit:1:late", database.SeverityMedium)
	seedAlert(t, svc, "visit:2:late", database.SeverityCritical)

	alerts, total, err := svc.ListAlerts(database.AlertFilters{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got total=%d len=%d", total, len(alerts))
	}
	if alerts[0].Severity != database.SeverityCritical {
		t.Errorf("expected highest priority first, got %s", alerts[0].Severity)
	}

	// Pagination: the total covers all matches, not just the page
	page, total, err := svc.ListAlerts(database.AlertFilters{Limit: 1})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page) != 1 || total != 2 {
		t.Errorf("expected 1 of 2, got len=%d total=%d", len(page), total)
	}
}

func TestAlertService_Lifecycle(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewAlertService(db)

	alert := seedAlert(t, svc, "visit:1:late", database.SeverityMedium)

	if err := svc.AcknowledgeAlert(alert.ID, "sam"); err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	got, err := svc.GetAlert(alert.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != database.AlertStatusAcknowledged {
		t.Errorf("status = %s, want acknowledged", got.Status)
	}

	if err := svc.MarkAlertRead(alert.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	if err := svc.ResolveAlert(alert.ID, "sam"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	got, _ = svc.GetAlert(alert.ID)
	if got.Status != database.AlertStatusResolved || got.ResolvedBy != "sam" {
		t.Errorf("unexpected state: %s by %s", got.Status, got.ResolvedBy)
	}
	if !got.IsRead {
		t.Error("read flag should persist")
	}
}

func TestAlertService_Dismiss(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewAlertService(db)

	alert := seedAlert(t, svc, "stock:9:low", database.SeverityLow)

	if err := svc.DismissAlert(alert.ID, "sam"); err != nil {
		t.Fatalf("dismiss failed: %v", err)
	}
	got, _ := svc.GetAlert(alert.ID)
	if got.Status != database.AlertStatusDismissed {
		t.Errorf("status = %s, want dismissed", got.Status)
	}
}
