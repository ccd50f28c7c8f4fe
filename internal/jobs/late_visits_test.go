package jobs

import (
	"testing"
	"time"

	"github.com/fleetops/fleetops/internal/alerts"
	"github.com/fleetops/fleetops/internal/config"
	"github.com/fleetops/fleetops/internal/database"
	"github.com/fleetops/fleetops/internal/testhelpers"
)

func visitPolicy() config.EscalationPolicy {
	return config.EscalationPolicy{
		GracePeriodMinutes:         10,
		EscalationThresholdMinutes: 30,
		CheckIntervalMinutes:       1,
	}
}

func TestLateVisitChecker_RaisesAfterGrace(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	notifier := testhelpers.NewCapturingNotifier()
	checker := NewLateVisitChecker(db, visitPolicy(), notifier)

	visit := testhelpers.NewVisitBuilder().ScheduledAgo(40 * time.Minute).Build()
	if err := db.Create(&visit).Error; err != nil {
		t.Fatalf("create visit failed: %v", err)
	}

	raised, err := checker.Check()
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if raised != 1 {
		t.Fatalf("expected 1 alert raised, got %d", raised)
	}

	alert, err := database.FindAlertByKey(db, alerts.LateVisitKey(visit.ID))
	if err != nil || alert == nil {
		t.Fatalf("alert not found: %v", err)
	}
	// 40 minutes past schedule with a 30 minute threshold
	if alert.EscalationLevel != database.EscalationEscalated {
		t.Errorf("level = %s, want escalated", alert.EscalationLevel)
	}

	if notifier.Count() != 1 {
		t.Errorf("expected 1 dispatch, got %d", notifier.Count())
	}

	// The mirrored flag follows the alert
	var stored database.Visit
	if err := db.First(&stored, visit.ID).Error; err != nil {
		t.Fatalf("load visit failed: %v", err)
	}
	if !stored.IsLate {
		t.Error("visit is_late flag should be mirrored")
	}
}

func TestLateVisitChecker_GracePeriodSkips(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	notifier := testhelpers.NewCapturingNotifier()
	checker := NewLateVisitChecker(db, visitPolicy(), notifier)

	visit := testhelpers.NewVisitBuilder().ScheduledAgo(5 * time.Minute).Build()
	if err := db.Create(&visit).Error; err != nil {
		t.Fatalf("create visit failed: %v", err)
	}

	raised, err := checker.Check()
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if raised != 0 {
		t.Errorf("expected no alerts within the grace period, got %d", raised)
	}
	if notifier.Count() != 0 {
		t.Errorf("expected no dispatches, got %d", notifier.Count())
	}
}

func TestLateVisitChecker_RepeatedTicksDispatchOnce(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	notifier := testhelpers.NewCapturingNotifier()
	checker := NewLateVisitChecker(db, visitPolicy(), notifier)

	visit := testhelpers.NewVisitBuilder().ScheduledAgo(15 * time.Minute).Build()
	if err := db.Create(&visit).Error; err != nil {
		t.Fatalf("create visit failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := checker.Check(); err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
	}

	if notifier.Count() != 1 {
		t.Errorf("unchanged condition should dispatch once, got %d", notifier.Count())
	}

	var count int64
	db.Model(&database.AlertRecord{}).Where("alert_key = ?", alerts.LateVisitKey(visit.ID)).Count(&count)
	if count != 1 {
		t.Errorf("expected a single alert record, got %d", count)
	}
}

func TestLateVisitChecker_EscalatesAsDelayGrows(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	notifier := testhelpers.NewCapturingNotifier()
	checker := NewLateVisitChecker(db, visitPolicy(), notifier)

	visit := testhelpers.NewVisitBuilder().ScheduledAgo(15 * time.Minute).Build()
	if err := db.Create(&visit).Error; err != nil {
		t.Fatalf("create visit failed: %v", err)
	}

	if _, err := checker.Check(); err != nil {
		t.Fatalf("first check failed: %v", err)
	}

	// Time passes: shift the schedule further into the past
	if err := db.Model(&database.Visit{}).Where("id = ?", visit.ID).
		Update("scheduled_at", time.Now().Add(-70*time.Minute)).Error; err != nil {
		t.Fatalf("shift failed: %v", err)
	}

	raised, err := checker.Check()
	if err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	if raised != 1 {
		t.Fatalf("expected the tier advance to count, got %d", raised)
	}

	alert, _ := database.FindAlertByKey(db, alerts.LateVisitKey(visit.ID))
	if alert.EscalationLevel != database.EscalationCritical {
		t.Errorf("level = %s, want critical past double threshold", alert.EscalationLevel)
	}
	if alert.EscalationCount != 1 {
		t.Errorf("escalation count = %d, want 1", alert.EscalationCount)
	}
	if notifier.Count() != 2 {
		t.Errorf("expected dispatch on create and on advance, got %d", notifier.Count())
	}
}

func TestLateVisitChecker_ResolvesWhenVisitStarts(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	notifier := testhelpers.NewCapturingNotifier()
	checker := NewLateVisitChecker(db, visitPolicy(), notifier)

	visit := testhelpers.NewVisitBuilder().ScheduledAgo(45 * time.Minute).Build()
	if err := db.Create(&visit).Error; err != nil {
		t.Fatalf("create visit failed: %v", err)
	}
	if _, err := checker.Check(); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	// The rep arrives
	now := time.Now()
	if err := db.Model(&database.Visit{}).Where("id = ?", visit.ID).Updates(map[string]interface{}{
		"actual_start_at": now,
		"status":          database.VisitStatusInProgress,
	}).Error; err != nil {
		t.Fatalf("start visit failed: %v", err)
	}

	if _, err := checker.Check(); err != nil {
		t.Fatalf("second check failed: %v", err)
	}

	alert, _ := database.FindAlertByKey(db, alerts.LateVisitKey(visit.ID))
	if alert.Status != database.AlertStatusResolved || alert.ResolvedBy != "system" {
		t.Errorf("expected system resolution, got %s by %s", alert.Status, alert.ResolvedBy)
	}

	var stored database.Visit
	db.First(&stored, visit.ID)
	if stored.IsLate {
		t.Error("is_late mirror should be cleared on recovery")
	}
}

func TestLateVisitChecker_ReRaisesAfterRecurrence(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	notifier := testhelpers.NewCapturingNotifier()
	checker := NewLateVisitChecker(db, visitPolicy(), notifier)

	visit := testhelpers.NewVisitBuilder().ScheduledAgo(20 * time.Minute).Build()
	if err := db.Create(&visit).Error; err != nil {
		t.Fatalf("create visit failed: %v", err)
	}
	if _, err := checker.Check(); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	alert, _ := database.FindAlertByKey(db, alerts.LateVisitKey(visit.ID))
	if err := database.ResolveAlert(db, alert.ID, "operator"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	// Visit still hasn't started on the next tick: same record reopens
	raised, err := checker.Check()
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if raised != 1 {
		t.Errorf("expected the reopen to count, got %d", raised)
	}

	reopened, _ := database.FindAlertByKey(db, alerts.LateVisitKey(visit.ID))
	if reopened.ID != alert.ID {
		t.Error("recurrence should reopen the same record, not create a new one")
	}
	if reopened.Status != database.AlertStatusActive {
		t.Errorf("reopened status = %s, want active", reopened.Status)
	}
}
