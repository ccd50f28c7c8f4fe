package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, j)
}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// StringList stores a set of tags as a JSON array column
type StringList []string

// Scan implements the sql.Scanner interface
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// AlertSourceType identifies the domain an alert originated from
type AlertSourceType string

const (
	SourceTypeVisit       AlertSourceType = "visit"
	SourceTypeLateVisit   AlertSourceType = "late_visit"
	SourceTypeVehicle     AlertSourceType = "vehicle"
	SourceTypeDelivery    AlertSourceType = "delivery"
	SourceTypeWarehouse   AlertSourceType = "warehouse"
	SourceTypeMaintenance AlertSourceType = "maintenance"
	SourceTypeStock       AlertSourceType = "stock"
	SourceTypeMessage     AlertSourceType = "message"
	SourceTypeSystem      AlertSourceType = "system"
)

// AlertCategory is the display category shown on the dashboard
type AlertCategory string

const (
	CategoryInfo     AlertCategory = "info"
	CategoryWarning  AlertCategory = "warning"
	CategoryCritical AlertCategory = "critical"
	CategorySuccess  AlertCategory = "success"
	CategoryUrgent   AlertCategory = "urgent"
)

// AlertSeverity is the normalized severity of an alert
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// PriorityForSeverity derives the numeric priority from a severity.
// Higher number means more urgent; the dashboard sorts on it.
func PriorityForSeverity(s AlertSeverity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 2
	}
}

// AlertStatus represents the lifecycle status of an alert
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusEscalated    AlertStatus = "escalated"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusDismissed    AlertStatus = "dismissed"
	AlertStatusArchived     AlertStatus = "archived"
)

// OpenStatuses are the statuses in which an alert is still live and may
// escalate further. Escalated is a tier change within the active lifecycle,
// not a terminal state.
func OpenStatuses() []AlertStatus {
	return []AlertStatus{AlertStatusActive, AlertStatusAcknowledged, AlertStatusEscalated}
}

// EscalationLevel is the ordered escalation tier of an active alert
type EscalationLevel string

const (
	EscalationInitial   EscalationLevel = "initial"
	EscalationEscalated EscalationLevel = "escalated"
	EscalationCritical  EscalationLevel = "critical"
)

// Rank returns the ordering of a level. Unknown levels rank lowest.
func (l EscalationLevel) Rank() int {
	switch l {
	case EscalationCritical:
		return 3
	case EscalationEscalated:
		return 2
	case EscalationInitial:
		return 1
	default:
		return 0
	}
}

// LevelsBelow returns every known level that ranks strictly below l.
// Used as the guard set for conditional escalation updates.
func LevelsBelow(l EscalationLevel) []EscalationLevel {
	var below []EscalationLevel
	for _, candidate := range []EscalationLevel{EscalationInitial, EscalationEscalated, EscalationCritical} {
		if candidate.Rank() < l.Rank() {
			below = append(below, candidate)
		}
	}
	return below
}

// AlertRecord is the unified alert representation surfaced to operators.
// Repeated detections of the same condition resolve to the same AlertKey and
// update the existing row rather than creating a new one.
type AlertRecord struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	UUID string `gorm:"uniqueIndex;size:36;not null" json:"uuid"`

	// AlertKey is the stable business key, e.g. "visit:42:late".
	// Unique among non-archived records.
	AlertKey   string          `gorm:"index;size:128;not null" json:"alert_key"`
	SourceType AlertSourceType `gorm:"type:varchar(32);not null;index" json:"source_type"`
	Category   AlertCategory   `gorm:"type:varchar(16);not null" json:"category"`
	Severity   AlertSeverity   `gorm:"type:varchar(16);not null;index" json:"severity"`
	Priority   int             `gorm:"not null;default:2" json:"priority"`

	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	// Lifecycle
	Status     AlertStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	IsRead     bool        `gorm:"default:false" json:"is_read"`
	IsResolved bool        `gorm:"default:false" json:"is_resolved"`

	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy       string     `gorm:"size:64" json:"resolved_by,omitempty"`
	DismissedAt      *time.Time `json:"dismissed_at,omitempty"`
	DismissedBy      string     `gorm:"size:64" json:"dismissed_by,omitempty"`
	AcknowledgedAt   *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy   string     `gorm:"size:64" json:"acknowledged_by,omitempty"`

	// Escalation. EscalationCount increments exactly once per tier
	// transition, never per poll tick.
	EscalationLevel EscalationLevel `gorm:"type:varchar(16);not null;default:'initial'" json:"escalation_level"`
	EscalationCount int             `gorm:"not null;default:0" json:"escalation_count"`
	LastEscalatedAt *time.Time      `json:"last_escalated_at,omitempty"`

	// Source linkage. Display fields are copied at synthesis time so
	// historic alerts stay readable if the source row changes.
	SourceEntityID   uint   `gorm:"index" json:"source_entity_id"`
	ActorName        string `gorm:"size:128" json:"actor_name"`
	ActorPhone       string `gorm:"size:32" json:"actor_phone"`
	CounterpartyName string `gorm:"size:128" json:"counterparty_name"`
	Address          string `gorm:"size:255" json:"address"`
	Location         string `gorm:"size:128" json:"location"`

	// Dispatch bookkeeping, one flag + timestamp per channel. Flags are
	// cleared when the tier advances so each channel fires once per tier.
	AdminNotified        bool       `gorm:"default:false" json:"admin_notified"`
	AdminNotifiedAt      *time.Time `json:"admin_notified_at,omitempty"`
	SupervisorNotified   bool       `gorm:"default:false" json:"supervisor_notified"`
	SupervisorNotifiedAt *time.Time `json:"supervisor_notified_at,omitempty"`
	PushSent             bool       `gorm:"default:false" json:"push_sent"`
	PushSentAt           *time.Time `json:"push_sent_at,omitempty"`
	EmailSent            bool       `gorm:"default:false" json:"email_sent"`
	EmailSentAt          *time.Time `json:"email_sent_at,omitempty"`
	SMSSent              bool       `gorm:"default:false" json:"sms_sent"`
	SMSSentAt            *time.Time `json:"sms_sent_at,omitempty"`

	Metadata JSONB      `gorm:"type:jsonb" json:"metadata"`
	Tags     StringList `gorm:"type:jsonb" json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AlertRecord) TableName() string {
	return "alerts"
}

// IsOpen reports whether the alert can still escalate
func (a *AlertRecord) IsOpen() bool {
	switch a.Status {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusEscalated:
		return true
	}
	return false
}

// BeforeCreate keeps derived fields consistent on insert
func (a *AlertRecord) BeforeCreate(tx *gorm.DB) error {
	if a.EscalationLevel == "" {
		a.EscalationLevel = EscalationInitial
	}
	if a.Priority == 0 {
		a.Priority = PriorityForSeverity(a.Severity)
	}
	return nil
}

// GetSeverityEmoji returns an emoji for the alert severity, used by the
// Slack channels when formatting messages.
func GetSeverityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityCritical:
		return ":red_circle:"
	case SeverityHigh:
		return ":large_orange_circle:"
	case SeverityMedium:
		return ":large_yellow_circle:"
	case SeverityLow:
		return ":large_blue_circle:"
	default:
		return ":white_circle:"
	}
}
