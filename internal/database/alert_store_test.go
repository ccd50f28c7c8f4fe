package database

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func testDraft(level EscalationLevel) *AlertRecord {
	return &AlertRecord{
		AlertKey:        "visit:100:late",
		SourceType:      SourceTypeLateVisit,
		Category:        CategoryWarning,
		Severity:        SeverityMedium,
		EscalationLevel: level,
		Title:           "Late visit: Acme Market",
		Message:         "Dana has not started the visit",
		SourceEntityID:  100,
		ActorName:       "Dana",
	}
}

func TestUpsertAlert_CreatesNewRecord(t *testing.T) {
	db := setupTestDB(t)

	res, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if !res.Created || res.Escalated || res.Reopened {
		t.Errorf("expected Created only, got %+v", res)
	}
	if res.Alert.Status != AlertStatusActive {
		t.Errorf("new alert status = %s, want active", res.Alert.Status)
	}
	if res.Alert.EscalationCount != 0 {
		t.Errorf("new alert escalation count = %d, want 0", res.Alert.EscalationCount)
	}
	if res.Alert.UUID == "" {
		t.Error("new alert should get a UUID")
	}
	if res.Alert.Priority != 2 {
		t.Errorf("priority = %d, want 2 for medium severity", res.Alert.Priority)
	}
}

func TestUpsertAlert_RepeatedDetectionIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	first, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// A later tick sees the same condition with fresher display data
	draft := testDraft(EscalationInitial)
	draft.Message = "Dana has not started the visit (12 minutes overdue)"
	second, err := UpsertAlert(db, draft)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.Created || second.Escalated || second.Reopened {
		t.Errorf("repeat detection should be a pure refresh, got %+v", second)
	}
	if second.Alert.ID != first.Alert.ID {
		t.Error("repeat detection must land on the same record")
	}
	if second.Alert.Message != draft.Message {
		t.Errorf("display fields should refresh, got %q", second.Alert.Message)
	}
	if second.Alert.EscalationCount != 0 {
		t.Errorf("refresh must not bump escalation count, got %d", second.Alert.EscalationCount)
	}

	var count int64
	db.Model(&AlertRecord{}).Where("alert_key = ?", draft.AlertKey).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 record for the key, got %d", count)
	}
}

func TestUpsertAlert_AdvancesTierOnce(t *testing.T) {
	db := setupTestDB(t)

	if _, err := UpsertAlert(db, testDraft(EscalationInitial)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	draft := testDraft(EscalationEscalated)
	draft.Severity = SeverityHigh
	draft.Category = CategoryUrgent
	res, err := UpsertAlert(db, draft)
	if err != nil {
		t.Fatalf("escalating upsert failed: %v", err)
	}

	if !res.Escalated {
		t.Error("expected tier advance to be reported")
	}
	if res.Alert.EscalationLevel != EscalationEscalated {
		t.Errorf("level = %s, want escalated", res.Alert.EscalationLevel)
	}
	if res.Alert.EscalationCount != 1 {
		t.Errorf("escalation count = %d, want 1", res.Alert.EscalationCount)
	}
	if res.Alert.Status != AlertStatusEscalated {
		t.Errorf("status = %s, want escalated", res.Alert.Status)
	}
	if res.Alert.Severity != SeverityHigh || res.Alert.Priority != 3 {
		t.Errorf("severity/priority not advanced: %s/%d", res.Alert.Severity, res.Alert.Priority)
	}
	if res.Alert.LastEscalatedAt == nil {
		t.Error("last_escalated_at should be set on advance")
	}

	// The same tier seen again is not a second transition
	again, err := UpsertAlert(db, draft)
	if err != nil {
		t.Fatalf("repeat upsert failed: %v", err)
	}
	if again.Escalated {
		t.Error("repeat detection at the same tier must not report Escalated")
	}
	if again.Alert.EscalationCount != 1 {
		t.Errorf("escalation count double-counted: %d", again.Alert.EscalationCount)
	}
}

func TestUpsertAlert_NeverLowersTier(t *testing.T) {
	db := setupTestDB(t)

	if _, err := UpsertAlert(db, testDraft(EscalationCritical)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	res, err := UpsertAlert(db, testDraft(EscalationEscalated))
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if res.Escalated {
		t.Error("a lower computed tier must not report a transition")
	}
	if res.Alert.EscalationLevel != EscalationCritical {
		t.Errorf("tier was lowered to %s", res.Alert.EscalationLevel)
	}
}

func TestUpsertAlert_AdvanceClearsDispatchFlags(t *testing.T) {
	db := setupTestDB(t)

	created, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := MarkChannelNotified(db, created.Alert.ID, ChannelAdmin); err != nil {
		t.Fatalf("mark notified failed: %v", err)
	}
	if err := MarkChannelNotified(db, created.Alert.ID, ChannelPush); err != nil {
		t.Fatalf("mark notified failed: %v", err)
	}

	res, err := UpsertAlert(db, testDraft(EscalationEscalated))
	if err != nil {
		t.Fatalf("escalating upsert failed: %v", err)
	}

	if res.Alert.AdminNotified || res.Alert.PushSent {
		t.Error("tier advance must clear dispatch flags so channels fire again")
	}
	if res.Alert.AdminNotifiedAt == nil {
		t.Error("the notification timestamp history should survive the advance")
	}
}

func TestUpsertAlert_ReopensTerminatedRecord(t *testing.T) {
	db := setupTestDB(t)

	created, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	// First occurrence escalates before being resolved
	if _, err := UpsertAlert(db, testDraft(EscalationEscalated)); err != nil {
		t.Fatalf("escalating upsert failed: %v", err)
	}
	if err := ResolveAlert(db, created.Alert.ID, "operator"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	res, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("reopening upsert failed: %v", err)
	}

	if !res.Reopened || res.Created {
		t.Errorf("expected Reopened, got %+v", res)
	}
	if res.Alert.ID != created.Alert.ID {
		t.Error("reopen must reuse the existing record")
	}
	if res.Alert.Status != AlertStatusActive {
		t.Errorf("reopened status = %s, want active", res.Alert.Status)
	}
	if res.Alert.IsResolved || res.Alert.ResolvedAt != nil {
		t.Error("resolution state should be cleared on reopen")
	}
	if res.Alert.EscalationLevel != EscalationInitial {
		t.Errorf("reopened level = %s, want the freshly computed tier", res.Alert.EscalationLevel)
	}
	if res.Alert.EscalationCount != 0 {
		t.Errorf("escalation count = %d, want 0 for a fresh occurrence", res.Alert.EscalationCount)
	}
	if res.Alert.LastEscalatedAt != nil {
		t.Error("an occurrence reopened at the initial tier has not escalated")
	}
}

func TestUpsertAlert_ReopenAboveInitialStampsEscalation(t *testing.T) {
	db := setupTestDB(t)

	created, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := ResolveAlert(db, created.Alert.ID, "operator"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	// The condition recurs already past the escalation threshold
	draft := testDraft(EscalationEscalated)
	draft.Severity = SeverityHigh
	draft.Category = CategoryUrgent
	res, err := UpsertAlert(db, draft)
	if err != nil {
		t.Fatalf("reopening upsert failed: %v", err)
	}

	if !res.Reopened {
		t.Errorf("expected Reopened, got %+v", res)
	}
	if res.Alert.EscalationLevel != EscalationEscalated {
		t.Errorf("level = %s, want escalated", res.Alert.EscalationLevel)
	}
	if res.Alert.LastEscalatedAt == nil {
		t.Error("reopening above the initial tier should stamp last_escalated_at")
	}
	if res.Alert.EscalationCount != 0 {
		t.Errorf("escalation count = %d, want 0 until the new occurrence transitions", res.Alert.EscalationCount)
	}
	if res.Alert.Severity != SeverityHigh || res.Alert.Priority != 3 {
		t.Errorf("reopen should take the fresh severity, got %s/%d", res.Alert.Severity, res.Alert.Priority)
	}
}

func TestMarkChannelNotified(t *testing.T) {
	db := setupTestDB(t)

	created, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if created.Alert.ChannelNotified(ChannelSMS) {
		t.Error("fresh alert should have no dispatch flags set")
	}

	if err := MarkChannelNotified(db, created.Alert.ID, ChannelSMS); err != nil {
		t.Fatalf("mark notified failed: %v", err)
	}

	alert, err := GetAlert(db, created.Alert.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !alert.ChannelNotified(ChannelSMS) {
		t.Error("SMS flag should be set")
	}
	if alert.SMSSentAt == nil {
		t.Error("SMS timestamp should be set")
	}
	if alert.ChannelNotified(ChannelEmail) {
		t.Error("other channel flags must be untouched")
	}

	if err := MarkChannelNotified(db, created.Alert.ID, "pager"); err == nil {
		t.Error("unknown channel should be rejected")
	}
}

func TestResolveAlertByKey(t *testing.T) {
	db := setupTestDB(t)

	created, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	resolved, err := ResolveAlertByKey(db, created.Alert.AlertKey, "system")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !resolved {
		t.Error("expected the live alert to be resolved")
	}

	alert, _ := GetAlert(db, created.Alert.ID)
	if alert.Status != AlertStatusResolved || alert.ResolvedBy != "system" {
		t.Errorf("unexpected state after resolve: %s by %s", alert.Status, alert.ResolvedBy)
	}

	// Resolving again is a no-op
	resolved, err = ResolveAlertByKey(db, created.Alert.AlertKey, "system")
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if resolved {
		t.Error("already-terminated alert should not be resolved again")
	}
}

func TestQueryAlerts_Filters(t *testing.T) {
	db := setupTestDB(t)

	visit := testDraft(EscalationInitial)
	if _, err := UpsertAlert(db, visit); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stock := &AlertRecord{
		AlertKey:        "stock:5:low",
		SourceType:      SourceTypeStock,
		Category:        CategoryCritical,
		Severity:        SeverityCritical,
		EscalationLevel: EscalationCritical,
		Title:           "Low stock: Bolts",
		SourceEntityID:  5,
	}
	created, err := UpsertAlert(db, stock)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	all, err := QueryAlerts(db, AlertFilters{})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(all))
	}
	if all[0].AlertKey != "stock:5:low" {
		t.Errorf("expected critical alert first, got %s", all[0].AlertKey)
	}

	bySource, err := QueryAlerts(db, AlertFilters{SourceType: SourceTypeStock})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(bySource) != 1 || bySource[0].AlertKey != "stock:5:low" {
		t.Errorf("source filter returned %d alerts", len(bySource))
	}

	if err := ResolveAlert(db, created.Alert.ID, "operator"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	open, err := QueryAlerts(db, AlertFilters{OpenOnly: true})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(open) != 1 || open[0].AlertKey != visit.AlertKey {
		t.Errorf("open filter returned %d alerts", len(open))
	}
}

func TestArchiveTerminatedBefore(t *testing.T) {
	db := setupTestDB(t)

	created, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := ResolveAlert(db, created.Alert.ID, "operator"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	// Cutoff in the past: nothing is old enough yet
	archived, err := ArchiveTerminatedBefore(db, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archived != 0 {
		t.Errorf("expected nothing archived, got %d", archived)
	}

	// Cutoff in the future covers the freshly resolved alert
	archived, err = ArchiveTerminatedBefore(db, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archived != 1 {
		t.Errorf("expected 1 archived, got %d", archived)
	}

	// Archived records disappear from default queries
	all, err := QueryAlerts(db, AlertFilters{})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("archived alert still visible: %d", len(all))
	}

	// And a recurrence after archival is a brand new record
	res, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if !res.Created {
		t.Error("recurrence after archival should create a new record")
	}
	if res.Alert.ID == created.Alert.ID {
		t.Error("archived record must not be reused")
	}
}

func TestAcknowledgeAndDismiss(t *testing.T) {
	db := setupTestDB(t)

	created, err := UpsertAlert(db, testDraft(EscalationInitial))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := AcknowledgeAlert(db, created.Alert.ID, "sam"); err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	alert, _ := GetAlert(db, created.Alert.ID)
	if alert.Status != AlertStatusAcknowledged || alert.AcknowledgedBy != "sam" {
		t.Errorf("unexpected state: %s by %s", alert.Status, alert.AcknowledgedBy)
	}
	if !alert.IsOpen() {
		t.Error("acknowledged alerts are still open")
	}

	if err := DismissAlert(db, created.Alert.ID, "sam"); err != nil {
		t.Fatalf("dismiss failed: %v", err)
	}
	alert, _ = GetAlert(db, created.Alert.ID)
	if alert.Status != AlertStatusDismissed || alert.DismissedBy != "sam" {
		t.Errorf("unexpected state: %s by %s", alert.Status, alert.DismissedBy)
	}
	if alert.IsOpen() {
		t.Error("dismissed alerts are terminated")
	}
}
