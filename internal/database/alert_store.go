package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification channel names, shared by the store and the dispatcher.
const (
	ChannelAdmin      = "admin"
	ChannelSupervisor = "supervisor"
	ChannelPush       = "push"
	ChannelEmail      = "email"
	ChannelSMS        = "sms"
)

// AlertFilters narrows alert queries for the dashboard and stats rollups
type AlertFilters struct {
	Status       AlertStatus
	Severity     AlertSeverity
	SourceType   AlertSourceType
	UnreadOnly   bool
	OpenOnly     bool
	CreatedAfter *time.Time
	Limit        int
	Offset       int
}

func applyAlertFilters(q *gorm.DB, f AlertFilters) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	} else {
		// Archived records are history, never shown by default
		q = q.Where("status <> ?", AlertStatusArchived)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.SourceType != "" {
		q = q.Where("source_type = ?", f.SourceType)
	}
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if f.OpenOnly {
		q = q.Where("status IN ?", OpenStatuses())
	}
	if f.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *f.CreatedAfter)
	}
	return q
}

// FindAlertByKey returns the non-archived alert for a business key, or nil
// if no such alert exists.
func FindAlertByKey(db *gorm.DB, key string) (*AlertRecord, error) {
	var alert AlertRecord
	err := db.Where("alert_key = ? AND status <> ?", key, AlertStatusArchived).First(&alert).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// UpsertResult describes what an upsert did, so the caller knows whether a
// dispatch is due.
type UpsertResult struct {
	Alert *AlertRecord
	// Created is true when a new record was inserted.
	Created bool
	// Escalated is true when an existing record advanced to a higher tier.
	Escalated bool
	// Reopened is true when a resolved/dismissed record was reactivated
	// because the condition recurred.
	Reopened bool
}

// UpsertAlert creates or updates the alert for draft.AlertKey.
//
// Repeated detections of an unchanged condition refresh display fields and
// metadata but leave the escalation state untouched. The escalation level
// only ever advances: the tier update is a conditional write guarded on the
// stored level being strictly lower, so concurrent upserts (including a
// second process instance) cannot lower a tier or double-count a
// transition. Dispatch flags are cleared in the same write that advances
// the tier.
func UpsertAlert(db *gorm.DB, draft *AlertRecord) (*UpsertResult, error) {
	res := &UpsertResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		existing, err := FindAlertByKey(tx, draft.AlertKey)
		if err != nil {
			return err
		}

		if existing == nil {
			if draft.UUID == "" {
				draft.UUID = uuid.New().String()
			}
			draft.Status = AlertStatusActive
			draft.EscalationCount = 0
			draft.Priority = PriorityForSeverity(draft.Severity)
			if err := tx.Create(draft).Error; err != nil {
				return fmt.Errorf("failed to create alert %s: %w", draft.AlertKey, err)
			}
			res.Alert = draft
			res.Created = true
			return nil
		}

		if !existing.IsOpen() {
			// A terminated (but not yet archived) record whose condition
			// recurred: reactivate it as a fresh occurrence. The escalation
			// count restarts because it counts tier transitions of the
			// current occurrence, and the escalation timestamp is only
			// stamped when the occurrence opens above the initial tier.
			updates := map[string]interface{}{
				"status":           AlertStatusActive,
				"is_resolved":      false,
				"is_read":          false,
				"resolved_at":      nil,
				"resolved_by":      "",
				"dismissed_at":     nil,
				"dismissed_by":     "",
				"escalation_level": draft.EscalationLevel,
				"escalation_count": 0,
				"severity":         draft.Severity,
				"category":         draft.Category,
				"priority":         PriorityForSeverity(draft.Severity),
			}
			if draft.EscalationLevel != EscalationInitial {
				updates["last_escalated_at"] = time.Now()
			} else {
				updates["last_escalated_at"] = nil
			}
			mergeDraftFields(updates, draft)
			clearDispatchFlags(updates)
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to reopen alert %s: %w", draft.AlertKey, err)
			}
			res.Reopened = true
			return loadByKey(tx, draft.AlertKey, res)
		}

		// Live record: always refresh denormalized display fields and
		// condition metadata.
		updates := map[string]interface{}{}
		mergeDraftFields(updates, draft)
		if err := tx.Model(existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to refresh alert %s: %w", draft.AlertKey, err)
		}

		// Tier advance, guarded: only if the stored level is strictly
		// below the computed one. RowsAffected tells us whether this
		// detection won the transition.
		if below := LevelsBelow(draft.EscalationLevel); len(below) > 0 {
			now := time.Now()
			advance := map[string]interface{}{
				"escalation_level":  draft.EscalationLevel,
				"escalation_count":  gorm.Expr("escalation_count + 1"),
				"last_escalated_at": now,
				"status":            AlertStatusEscalated,
				"severity":          draft.Severity,
				"category":          draft.Category,
				"priority":          PriorityForSeverity(draft.Severity),
			}
			clearDispatchFlags(advance)
			result := tx.Model(&AlertRecord{}).
				Where("id = ? AND escalation_level IN ?", existing.ID, below).
				Updates(advance)
			if result.Error != nil {
				return fmt.Errorf("failed to escalate alert %s: %w", draft.AlertKey, result.Error)
			}
			res.Escalated = result.RowsAffected > 0
		}

		return loadByKey(tx, draft.AlertKey, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func loadByKey(tx *gorm.DB, key string, res *UpsertResult) error {
	updated, err := FindAlertByKey(tx, key)
	if err != nil {
		return err
	}
	res.Alert = updated
	return nil
}

// mergeDraftFields copies the refreshable (non-lifecycle) fields of a draft
// into an updates map.
func mergeDraftFields(updates map[string]interface{}, draft *AlertRecord) {
	updates["title"] = draft.Title
	updates["message"] = draft.Message
	updates["actor_name"] = draft.ActorName
	updates["actor_phone"] = draft.ActorPhone
	updates["counterparty_name"] = draft.CounterpartyName
	updates["address"] = draft.Address
	updates["location"] = draft.Location
	updates["metadata"] = draft.Metadata
	updates["tags"] = draft.Tags
}

func clearDispatchFlags(updates map[string]interface{}) {
	updates["admin_notified"] = false
	updates["supervisor_notified"] = false
	updates["push_sent"] = false
	updates["email_sent"] = false
	updates["sms_sent"] = false
}

// MarkChannelNotified sets the dispatch flag and timestamp for one channel.
// The flag is the authoritative per-tier idempotence guard; a crash between
// the external send and this write is the accepted at-least-once window.
func MarkChannelNotified(db *gorm.DB, alertID uint, channel string) error {
	now := time.Now()
	var updates map[string]interface{}
	switch channel {
	case ChannelAdmin:
		updates = map[string]interface{}{"admin_notified": true, "admin_notified_at": now}
	case ChannelSupervisor:
		updates = map[string]interface{}{"supervisor_notified": true, "supervisor_notified_at": now}
	case ChannelPush:
		updates = map[string]interface{}{"push_sent": true, "push_sent_at": now}
	case ChannelEmail:
		updates = map[string]interface{}{"email_sent": true, "email_sent_at": now}
	case ChannelSMS:
		updates = map[string]interface{}{"sms_sent": true, "sms_sent_at": now}
	default:
		return fmt.Errorf("unknown notification channel: %s", channel)
	}
	return db.Model(&AlertRecord{}).Where("id = ?", alertID).Updates(updates).Error
}

// ChannelNotified reads the dispatch flag for one channel
func (a *AlertRecord) ChannelNotified(channel string) bool {
	switch channel {
	case ChannelAdmin:
		return a.AdminNotified
	case ChannelSupervisor:
		return a.SupervisorNotified
	case ChannelPush:
		return a.PushSent
	case ChannelEmail:
		return a.EmailSent
	case ChannelSMS:
		return a.SMSSent
	}
	return false
}

// QueryAlerts returns alerts matching the filters, most recent first
func QueryAlerts(db *gorm.DB, f AlertFilters) ([]AlertRecord, error) {
	var alerts []AlertRecord
	q := applyAlertFilters(db.Model(&AlertRecord{}), f).
		Order("priority DESC, created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// CountAlerts counts alerts matching the filters
func CountAlerts(db *gorm.DB, f AlertFilters) (int64, error) {
	var count int64
	err := applyAlertFilters(db.Model(&AlertRecord{}), f).Count(&count).Error
	return count, err
}

// GetAlert returns an alert by ID
func GetAlert(db *gorm.DB, id uint) (*AlertRecord, error) {
	var alert AlertRecord
	if err := db.First(&alert, id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// ResolveAlert marks an alert resolved by an operator (or "system" when the
// underlying condition cleared).
func ResolveAlert(db *gorm.DB, id uint, actor string) error {
	now := time.Now()
	return db.Model(&AlertRecord{}).
		Where("id = ? AND status IN ?", id, OpenStatuses()).
		Updates(map[string]interface{}{
			"status":      AlertStatusResolved,
			"is_resolved": true,
			"resolved_at": now,
			"resolved_by": actor,
		}).Error
}

// ResolveAlertByKey resolves the live alert for a business key, if any.
// Used by the checkers when a condition clears.
func ResolveAlertByKey(db *gorm.DB, key, actor string) (bool, error) {
	now := time.Now()
	result := db.Model(&AlertRecord{}).
		Where("alert_key = ? AND status IN ?", key, OpenStatuses()).
		Updates(map[string]interface{}{
			"status":      AlertStatusResolved,
			"is_resolved": true,
			"resolved_at": now,
			"resolved_by": actor,
		})
	return result.RowsAffected > 0, result.Error
}

// DismissAlert marks an alert dismissed by an operator
func DismissAlert(db *gorm.DB, id uint, actor string) error {
	now := time.Now()
	return db.Model(&AlertRecord{}).
		Where("id = ? AND status IN ?", id, OpenStatuses()).
		Updates(map[string]interface{}{
			"status":       AlertStatusDismissed,
			"dismissed_at": now,
			"dismissed_by": actor,
		}).Error
}

// AcknowledgeAlert marks an active alert acknowledged
func AcknowledgeAlert(db *gorm.DB, id uint, actor string) error {
	now := time.Now()
	return db.Model(&AlertRecord{}).
		Where("id = ? AND status IN ?", id, OpenStatuses()).
		Updates(map[string]interface{}{
			"status":          AlertStatusAcknowledged,
			"acknowledged_at": now,
			"acknowledged_by": actor,
		}).Error
}

// MarkAlertRead marks an alert as read
func MarkAlertRead(db *gorm.DB, id uint) error {
	return db.Model(&AlertRecord{}).Where("id = ?", id).Update("is_read", true).Error
}

// ArchiveTerminatedBefore archives resolved/dismissed alerts whose terminal
// timestamp predates the cutoff. Returns the number archived.
func ArchiveTerminatedBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Model(&AlertRecord{}).
		Where("status IN ? AND updated_at < ?",
			[]AlertStatus{AlertStatusResolved, AlertStatusDismissed}, cutoff).
		Update("status", AlertStatusArchived)
	return result.RowsAffected, result.Error
}
