package database

import "time"

// VisitStatus represents the status of a field visit
type VisitStatus string

const (
	VisitStatusScheduled  VisitStatus = "scheduled"
	VisitStatusLate       VisitStatus = "late"
	VisitStatusInProgress VisitStatus = "in_progress"
	VisitStatusCompleted  VisitStatus = "completed"
	VisitStatusCancelled  VisitStatus = "cancelled"
)

// Visit is a scheduled field visit by a representative. The alert engine
// reads these rows; the CRUD side of the dashboard owns them.
type Visit struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	RepName       string      `gorm:"size:128" json:"rep_name"`
	RepPhone      string      `gorm:"size:32" json:"rep_phone"`
	CustomerName  string      `gorm:"size:128" json:"customer_name"`
	CustomerPhone string      `gorm:"size:32" json:"customer_phone"`
	Address       string      `gorm:"size:255" json:"address"`
	Location      string      `gorm:"size:128" json:"location"`
	ScheduledAt   time.Time   `gorm:"not null;index" json:"scheduled_at"`
	ActualStartAt *time.Time  `json:"actual_start_at,omitempty"`
	Status        VisitStatus `gorm:"type:varchar(16);not null;default:'scheduled';index" json:"status"`

	// IsLate is mirrored from the alert engine so pages that render
	// straight from the visits table stay consistent.
	IsLate bool `gorm:"default:false" json:"is_late"`

	// Raw alert columns written by legacy code paths, reconciled into the
	// unified alert store by the sync job.
	RawAlertTitle    string     `gorm:"size:255" json:"raw_alert_title,omitempty"`
	RawAlertSeverity string     `gorm:"size:32" json:"raw_alert_severity,omitempty"`
	RawAlertAt       *time.Time `json:"raw_alert_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Visit) TableName() string {
	return "visits"
}

// RepMessage is a free-form message sent by a field representative.
// Urgency is classified by keyword rules, not stored by the sender.
type RepMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RepName   string    `gorm:"size:128" json:"rep_name"`
	RepPhone  string    `gorm:"size:32" json:"rep_phone"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RepMessage) TableName() string {
	return "rep_messages"
}

// Vehicle is a delivery vehicle snapshot. FuelLevel is a percentage.
type Vehicle struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PlateNumber  string    `gorm:"uniqueIndex;size:32;not null" json:"plate_number"`
	DriverName   string    `gorm:"size:128" json:"driver_name"`
	DriverPhone  string    `gorm:"size:32" json:"driver_phone"`
	FuelLevel    float64   `gorm:"not null;default:100" json:"fuel_level"`
	LowFuelLevel float64   `gorm:"not null;default:20" json:"low_fuel_level"`
	Location     string    `gorm:"size:128" json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

// StockItem is a warehouse stock row with its reorder threshold.
type StockItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Warehouse   string    `gorm:"size:128" json:"warehouse"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`
	MinQuantity int       `gorm:"not null;default:0" json:"min_quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (StockItem) TableName() string {
	return "stock_items"
}

// DeliveryStatus represents the status of a delivery
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// Delivery is a customer delivery with its promised time.
type Delivery struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	TrackingCode string         `gorm:"uniqueIndex;size:64;not null" json:"tracking_code"`
	CustomerName string         `gorm:"size:128" json:"customer_name"`
	Address      string         `gorm:"size:255" json:"address"`
	DriverName   string         `gorm:"size:128" json:"driver_name"`
	DriverPhone  string         `gorm:"size:32" json:"driver_phone"`
	PromisedAt   time.Time      `gorm:"not null;index" json:"promised_at"`
	DeliveredAt  *time.Time     `json:"delivered_at,omitempty"`
	Status       DeliveryStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (Delivery) TableName() string {
	return "deliveries"
}
