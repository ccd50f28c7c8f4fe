package alerts

import (
	"fmt"
	"time"

	"github.com/fleetops/fleetops/internal/database"
)

// Alert key builders. The key carries no time bucket: repeated detections
// of the same condition must land on the same record.

// LateVisitKey returns the business key for a late-visit alert
func LateVisitKey(visitID uint) string {
	return fmt.Sprintf("visit:%d:late", visitID)
}

// MessageKey returns the business key for a representative message alert
func MessageKey(messageID uint) string {
	return fmt.Sprintf("message:%d", messageID)
}

// LowFuelKey returns the business key for a low-fuel alert
func LowFuelKey(vehicleID uint) string {
	return fmt.Sprintf("vehicle:%d:fuel", vehicleID)
}

// LowStockKey returns the business key for a low-stock alert
func LowStockKey(itemID uint) string {
	return fmt.Sprintf("stock:%d:low", itemID)
}

// LateDeliveryKey returns the business key for a delayed-delivery alert
func LateDeliveryKey(deliveryID uint) string {
	return fmt.Sprintf("delivery:%d:late", deliveryID)
}

// VisitSourceKey returns the business key for a reconciled raw visit alert
func VisitSourceKey(visitID uint) string {
	return fmt.Sprintf("visit:%d:source", visitID)
}

// LateVisitAlert builds the alert draft for a visit past its grace period
func LateVisitAlert(v *database.Visit, delay time.Duration, level database.EscalationLevel) *database.AlertRecord {
	minutes := int(delay.Minutes())
	return &database.AlertRecord{
		AlertKey:         LateVisitKey(v.ID),
		SourceType:       database.SourceTypeLateVisit,
		Category:         CategoryForLevel(level),
		Severity:         SeverityForLevel(level),
		EscalationLevel:  level,
		Title:            fmt.Sprintf("Late visit: %s", v.CustomerName),
		Message:          fmt.Sprintf("%s has not started the visit to %s scheduled at %s (%d minutes overdue)", v.RepName, v.CustomerName, v.ScheduledAt.Format("15:04"), minutes),
		SourceEntityID:   v.ID,
		ActorName:        v.RepName,
		ActorPhone:       v.RepPhone,
		CounterpartyName: v.CustomerName,
		Address:          v.Address,
		Location:         v.Location,
		Metadata: database.JSONB{
			"delay_minutes": minutes,
			"scheduled_at":  v.ScheduledAt.Format(time.RFC3339),
		},
		Tags: database.StringList{"visit", "late"},
	}
}

// MessageAlert builds the alert draft for an urgent representative message
func MessageAlert(m *database.RepMessage, level database.EscalationLevel) *database.AlertRecord {
	return &database.AlertRecord{
		AlertKey:        MessageKey(m.ID),
		SourceType:      database.SourceTypeMessage,
		Category:        CategoryForLevel(level),
		Severity:        SeverityForLevel(level),
		EscalationLevel: level,
		Title:           fmt.Sprintf("Message from %s", m.RepName),
		Message:         m.Body,
		SourceEntityID:  m.ID,
		ActorName:       m.RepName,
		ActorPhone:      m.RepPhone,
		Metadata: database.JSONB{
			"received_at": m.CreatedAt.Format(time.RFC3339),
		},
		Tags: database.StringList{"message", "rep"},
	}
}

// LowFuelAlert builds the alert draft for a vehicle at or below its
// low-fuel level
func LowFuelAlert(v *database.Vehicle, level database.EscalationLevel) *database.AlertRecord {
	return &database.AlertRecord{
		AlertKey:        LowFuelKey(v.ID),
		SourceType:      database.SourceTypeVehicle,
		Category:        CategoryForLevel(level),
		Severity:        SeverityForLevel(level),
		EscalationLevel: level,
		Title:           fmt.Sprintf("Low fuel: %s", v.PlateNumber),
		Message:         fmt.Sprintf("Vehicle %s (%s) is at %.0f%% fuel, below the %.0f%% threshold", v.PlateNumber, v.DriverName, v.FuelLevel, v.LowFuelLevel),
		SourceEntityID:  v.ID,
		ActorName:       v.DriverName,
		ActorPhone:      v.DriverPhone,
		Location:        v.Location,
		Metadata: database.JSONB{
			"fuel_level":     v.FuelLevel,
			"low_fuel_level": v.LowFuelLevel,
			"plate_number":   v.PlateNumber,
		},
		Tags: database.StringList{"vehicle", "fuel"},
	}
}

// LowStockAlert builds the alert draft for a stock row at or below its
// minimum quantity
func LowStockAlert(item *database.StockItem, level database.EscalationLevel) *database.AlertRecord {
	return &database.AlertRecord{
		AlertKey:        LowStockKey(item.ID),
		SourceType:      database.SourceTypeStock,
		Category:        CategoryForLevel(level),
		Severity:        SeverityForLevel(level),
		EscalationLevel: level,
		Title:           fmt.Sprintf("Low stock: %s", item.Name),
		Message:         fmt.Sprintf("%s at %s is down to %d units (minimum %d)", item.Name, item.Warehouse, item.Quantity, item.MinQuantity),
		SourceEntityID:  item.ID,
		Location:        item.Warehouse,
		Metadata: database.JSONB{
			"quantity":     item.Quantity,
			"min_quantity": item.MinQuantity,
			"warehouse":    item.Warehouse,
		},
		Tags: database.StringList{"warehouse", "stock"},
	}
}

// LateDeliveryAlert builds the alert draft for a delivery past its
// promised time
func LateDeliveryAlert(d *database.Delivery, delay time.Duration, level database.EscalationLevel) *database.AlertRecord {
	minutes := int(delay.Minutes())
	return &database.AlertRecord{
		AlertKey:         LateDeliveryKey(d.ID),
		SourceType:       database.SourceTypeDelivery,
		Category:         CategoryForLevel(level),
		Severity:         SeverityForLevel(level),
		EscalationLevel:  level,
		Title:            fmt.Sprintf("Delayed delivery: %s", d.TrackingCode),
		Message:          fmt.Sprintf("Delivery %s to %s is %d minutes past its promised time", d.TrackingCode, d.CustomerName, minutes),
		SourceEntityID:   d.ID,
		ActorName:        d.DriverName,
		ActorPhone:       d.DriverPhone,
		CounterpartyName: d.CustomerName,
		Address:          d.Address,
		Metadata: database.JSONB{
			"delay_minutes": minutes,
			"tracking_code": d.TrackingCode,
			"promised_at":   d.PromisedAt.Format(time.RFC3339),
		},
		Tags: database.StringList{"delivery", "late"},
	}
}

// VisitSourceAlert reconciles the raw alert columns on a visit row into a
// unified alert draft, translating the legacy severity vocabulary through
// the canonical mapping table.
func VisitSourceAlert(v *database.Visit) *database.AlertRecord {
	classification := MapRawSeverity(v.RawAlertSeverity)
	draft := &database.AlertRecord{
		AlertKey:         VisitSourceKey(v.ID),
		SourceType:       database.SourceTypeVisit,
		Category:         classification.Category,
		Severity:         classification.Severity,
		Priority:         classification.Priority,
		EscalationLevel:  LevelForRawSeverity(v.RawAlertSeverity),
		Title:            v.RawAlertTitle,
		Message:          fmt.Sprintf("Visit alert for %s: %s", v.CustomerName, v.RawAlertTitle),
		SourceEntityID:   v.ID,
		ActorName:        v.RepName,
		ActorPhone:       v.RepPhone,
		CounterpartyName: v.CustomerName,
		Address:          v.Address,
		Location:         v.Location,
		Metadata: database.JSONB{
			"raw_severity": v.RawAlertSeverity,
		},
		Tags: database.StringList{"visit", "source"},
	}
	if v.RawAlertAt != nil {
		draft.Metadata["raised_at"] = v.RawAlertAt.Format(time.RFC3339)
	}
	return draft
}
