package alerts

import (
	"strings"
	"testing"
	"time"

	"github.com/fleetops/fleetops/internal/database"
)

func TestAlertKeys_StableAndDistinct(t *testing.T) {
	if LateVisitKey(7) != "visit:7:late" {
		t.Errorf("unexpected late visit key: %s", LateVisitKey(7))
	}
	if MessageKey(7) != "message:7" {
		t.Errorf("unexpected message key: %s", MessageKey(7))
	}
	if LowFuelKey(7) != "vehicle:7:fuel" {
		t.Errorf("unexpected fuel key: %s", LowFuelKey(7))
	}
	if LowStockKey(7) != "stock:7:low" {
		t.Errorf("unexpected stock key: %s", LowStockKey(7))
	}
	if LateDeliveryKey(7) != "delivery:7:late" {
		t.Errorf("unexpected delivery key: %s", LateDeliveryKey(7))
	}

	// the same visit can carry both a lateness alert and a reconciled raw
	// alert without colliding
	if LateVisitKey(7) == VisitSourceKey(7) {
		t.Error("visit keys must be distinct per concern")
	}
}

func TestLateVisitAlert(t *testing.T) {
	visit := &database.Visit{
		ID:           12,
		RepName:      "Dana",
		RepPhone:     "+15550100",
		CustomerName: "Acme Market",
		Address:      "9 Canal St",
		Location:     "East Zone",
		ScheduledAt:  time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC),
	}

	draft := LateVisitAlert(visit, 42*time.Minute, database.EscalationEscalated)

	if draft.AlertKey != "visit:12:late" {
		t.Errorf("unexpected alert key: %s", draft.AlertKey)
	}
	if draft.SourceType != database.SourceTypeLateVisit {
		t.Errorf("unexpected source type: %s", draft.SourceType)
	}
	if draft.Severity != database.SeverityHigh || draft.Category != database.CategoryUrgent {
		t.Errorf("unexpected classification: %s/%s", draft.Severity, draft.Category)
	}
	if !strings.Contains(draft.Message, "42 minutes overdue") {
		t.Errorf("message missing delay: %s", draft.Message)
	}
	if draft.ActorName != "Dana" || draft.CounterpartyName != "Acme Market" {
		t.Errorf("denormalized fields not carried: %s / %s", draft.ActorName, draft.CounterpartyName)
	}
	if draft.Metadata["delay_minutes"] != 42 {
		t.Errorf("unexpected metadata: %v", draft.Metadata)
	}
}

func TestMessageAlert(t *testing.T) {
	msg := &database.RepMessage{ID: 3, RepName: "Omar", RepPhone: "+15550102", Body: "urgent: truck stuck"}

	draft := MessageAlert(msg, database.EscalationEscalated)

	if draft.AlertKey != "message:3" {
		t.Errorf("unexpected alert key: %s", draft.AlertKey)
	}
	if draft.Message != "urgent: truck stuck" {
		t.Errorf("body should be carried verbatim: %s", draft.Message)
	}
	if draft.EscalationLevel != database.EscalationEscalated {
		t.Errorf("unexpected level: %s", draft.EscalationLevel)
	}
}

func TestLowFuelAlert(t *testing.T) {
	v := &database.Vehicle{ID: 5, PlateNumber: "AB-123", DriverName: "Kim", FuelLevel: 8, LowFuelLevel: 20}

	draft := LowFuelAlert(v, database.EscalationCritical)

	if draft.AlertKey != "vehicle:5:fuel" {
		t.Errorf("unexpected alert key: %s", draft.AlertKey)
	}
	if draft.Severity != database.SeverityCritical {
		t.Errorf("unexpected severity: %s", draft.Severity)
	}
	if !strings.Contains(draft.Message, "AB-123") {
		t.Errorf("message missing plate: %s", draft.Message)
	}
}

func TestVisitSourceAlert_MapsRawSeverity(t *testing.T) {
	raisedAt := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	visit := &database.Visit{
		ID:               9,
		CustomerName:     "Acme Market",
		RawAlertTitle:    "Customer gate locked",
		RawAlertSeverity: "URGENT",
		RawAlertAt:       &raisedAt,
	}

	draft := VisitSourceAlert(visit)

	if draft.AlertKey != "visit:9:source" {
		t.Errorf("unexpected alert key: %s", draft.AlertKey)
	}
	if draft.Severity != database.SeverityHigh || draft.Priority != 3 {
		t.Errorf("raw severity not mapped: %s/%d", draft.Severity, draft.Priority)
	}
	if draft.EscalationLevel != database.EscalationEscalated {
		t.Errorf("unexpected level: %s", draft.EscalationLevel)
	}
	if draft.Title != "Customer gate locked" {
		t.Errorf("raw title should be carried: %s", draft.Title)
	}
	if draft.Metadata["raised_at"] != raisedAt.Format(time.RFC3339) {
		t.Errorf("unexpected metadata: %v", draft.Metadata)
	}
}
