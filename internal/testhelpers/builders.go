// Package testhelpers provides data builders and assertion utilities for testing
package testhelpers

import (
	"fmt"
	"time"

	"github.com/fleetops/fleetops/internal/database"
)

// ========================================
// Visit Builder
// ========================================

// VisitBuilder builds Visit rows for testing
type VisitBuilder struct {
	visit database.Visit
}

// NewVisitBuilder creates a visit builder with defaults: scheduled now,
// not yet started
func NewVisitBuilder() *VisitBuilder {
	return &VisitBuilder{
		visit: database.Visit{
			RepName:       "Test Rep",
			RepPhone:      "+15550100",
			CustomerName:  "Test Customer",
			CustomerPhone: "+15550101",
			Address:       "1 Depot Road",
			Location:      "North Zone",
			ScheduledAt:   time.Now(),
			Status:        database.VisitStatusScheduled,
		},
	}
}

// ScheduledAgo shifts the scheduled time into the past by d
func (b *VisitBuilder) ScheduledAgo(d time.Duration) *VisitBuilder {
	b.visit.ScheduledAt = time.Now().Add(-d)
	return b
}

// WithScheduledAt sets the scheduled time
func (b *VisitBuilder) WithScheduledAt(t time.Time) *VisitBuilder {
	b.visit.ScheduledAt = t
	return b
}

// Started marks the visit as begun at t
func (b *VisitBuilder) Started(t time.Time) *VisitBuilder {
	b.visit.ActualStartAt = &t
	b.visit.Status = database.VisitStatusInProgress
	return b
}

// WithStatus sets the visit status
func (b *VisitBuilder) WithStatus(status database.VisitStatus) *VisitBuilder {
	b.visit.Status = status
	return b
}

// WithRep sets the representative name
func (b *VisitBuilder) WithRep(name string) *VisitBuilder {
	b.visit.RepName = name
	return b
}

// Late marks the visit's mirrored late flag
func (b *VisitBuilder) Late() *VisitBuilder {
	b.visit.IsLate = true
	return b
}

// WithRawAlert sets the legacy raw alert columns
func (b *VisitBuilder) WithRawAlert(title, severity string) *VisitBuilder {
	now := time.Now()
	b.visit.RawAlertTitle = title
	b.visit.RawAlertSeverity = severity
	b.visit.RawAlertAt = &now
	return b
}

// Build returns the constructed visit
func (b *VisitBuilder) Build() database.Visit {
	return b.visit
}

// ========================================
// Rep Message Builder
// ========================================

// MessageBuilder builds RepMessage rows for testing
type MessageBuilder struct {
	msg database.RepMessage
}

// NewMessageBuilder creates a message builder with defaults
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		msg: database.RepMessage{
			RepName:  "Test Rep",
			RepPhone: "+15550100",
			Body:     "routine check-in",
		},
	}
}

// WithBody sets the message body
func (b *MessageBuilder) WithBody(body string) *MessageBuilder {
	b.msg.Body = body
	return b
}

// WithRep sets the sender name
func (b *MessageBuilder) WithRep(name string) *MessageBuilder {
	b.msg.RepName = name
	return b
}

// Read marks the message as read
func (b *MessageBuilder) Read() *MessageBuilder {
	b.msg.IsRead = true
	return b
}

// Build returns the constructed message
func (b *MessageBuilder) Build() database.RepMessage {
	return b.msg
}

// ========================================
// Vehicle Builder
// ========================================

// VehicleBuilder builds Vehicle rows for testing
type VehicleBuilder struct {
	vehicle database.Vehicle
}

var vehicleSeq int

// NewVehicleBuilder creates a vehicle builder with a full tank
func NewVehicleBuilder() *VehicleBuilder {
	vehicleSeq++
	return &VehicleBuilder{
		vehicle: database.Vehicle{
			PlateNumber:  fmt.Sprintf("TEST-%03d", vehicleSeq),
			DriverName:   "Test Driver",
			DriverPhone:  "+15550102",
			FuelLevel:    100,
			LowFuelLevel: 20,
			Location:     "Depot",
		},
	}
}

// WithPlate sets the plate number
func (b *VehicleBuilder) WithPlate(plate string) *VehicleBuilder {
	b.vehicle.PlateNumber = plate
	return b
}

// WithFuel sets the current fuel percentage
func (b *VehicleBuilder) WithFuel(level float64) *VehicleBuilder {
	b.vehicle.FuelLevel = level
	return b
}

// WithThreshold sets the low-fuel threshold percentage
func (b *VehicleBuilder) WithThreshold(level float64) *VehicleBuilder {
	b.vehicle.LowFuelLevel = level
	return b
}

// Build returns the constructed vehicle
func (b *VehicleBuilder) Build() database.Vehicle {
	return b.vehicle
}

// ========================================
// Stock Item Builder
// ========================================

// StockItemBuilder builds StockItem rows for testing
type StockItemBuilder struct {
	item database.StockItem
}

// NewStockItemBuilder creates a stock item builder with healthy quantity
func NewStockItemBuilder() *StockItemBuilder {
	return &StockItemBuilder{
		item: database.StockItem{
			Name:        "Test Item",
			Warehouse:   "Main",
			Quantity:    100,
			MinQuantity: 10,
		},
	}
}

// WithName sets the item name
func (b *StockItemBuilder) WithName(name string) *StockItemBuilder {
	b.item.Name = name
	return b
}

// WithQuantity sets the current quantity
func (b *StockItemBuilder) WithQuantity(q int) *StockItemBuilder {
	b.item.Quantity = q
	return b
}

// WithMinQuantity sets the reorder threshold
func (b *StockItemBuilder) WithMinQuantity(q int) *StockItemBuilder {
	b.item.MinQuantity = q
	return b
}

// Build returns the constructed stock item
func (b *StockItemBuilder) Build() database.StockItem {
	return b.item
}

// ========================================
// Delivery Builder
// ========================================

// DeliveryBuilder builds Delivery rows for testing
type DeliveryBuilder struct {
	delivery database.Delivery
}

var deliverySeq int

// NewDeliveryBuilder creates a delivery builder promised one hour from now
func NewDeliveryBuilder() *DeliveryBuilder {
	deliverySeq++
	return &DeliveryBuilder{
		delivery: database.Delivery{
			TrackingCode: fmt.Sprintf("TRK-%05d", deliverySeq),
			CustomerName: "Test Customer",
			Address:      "1 Depot Road",
			DriverName:   "Test Driver",
			DriverPhone:  "+15550102",
			PromisedAt:   time.Now().Add(time.Hour),
			Status:       database.DeliveryStatusInTransit,
		},
	}
}

// PromisedAgo shifts the promised time into the past by d
func (b *DeliveryBuilder) PromisedAgo(d time.Duration) *DeliveryBuilder {
	b.delivery.PromisedAt = time.Now().Add(-d)
	return b
}

// Delivered marks the delivery as completed at t
func (b *DeliveryBuilder) Delivered(t time.Time) *DeliveryBuilder {
	b.delivery.DeliveredAt = &t
	b.delivery.Status = database.DeliveryStatusDelivered
	return b
}

// WithStatus sets the delivery status
func (b *DeliveryBuilder) WithStatus(status database.DeliveryStatus) *DeliveryBuilder {
	b.delivery.Status = status
	return b
}

// Build returns the constructed delivery
func (b *DeliveryBuilder) Build() database.Delivery {
	return b.delivery
}
