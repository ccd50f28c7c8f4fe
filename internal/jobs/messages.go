package jobs

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/fleetops/fleetops/internal/alerts"
	"github.com/fleetops/fleetops/internal/config"
	"github.com/fleetops/fleetops/internal/database"
)

// MessageChecker raises alerts for unread representative messages whose
// text matches the urgency keyword rules, and resolves them once read.
type MessageChecker struct {
	db         *gorm.DB
	policy     config.EscalationPolicy
	notifier   Notifier
	classifier *alerts.MessageClassifier
}

// NewMessageChecker creates the message checker with the default keyword
// vocabulary
func NewMessageChecker(db *gorm.DB, policy config.EscalationPolicy, notifier Notifier) *MessageChecker {
	return &MessageChecker{
		db:         db,
		policy:     policy,
		notifier:   notifier,
		classifier: alerts.NewMessageClassifier(nil),
	}
}

// Check runs one detection and resolution pass
func (c *MessageChecker) Check() (int, error) {
	messages, err := database.ReadUnreadMessages(c.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read unread messages: %w", err)
	}

	raised := 0
	for i := range messages {
		msg := &messages[i]
		level, matched := c.classifier.Classify(msg.Body)
		if !matched {
			continue
		}

		draft := alerts.MessageAlert(msg, level)
		res, err := database.UpsertAlert(c.db, draft)
		if err != nil {
			log.Printf("MessageChecker: failed to upsert alert for message %d: %v", msg.ID, err)
			continue
		}
		if res.Created || res.Escalated || res.Reopened {
			c.notifier.Dispatch(res.Alert, c.policy)
			raised++
		}
	}

	if err := c.resolveRead(); err != nil {
		log.Printf("MessageChecker: resolution pass failed: %v", err)
	}

	return raised, nil
}

// resolveRead closes alerts whose underlying message has been read
func (c *MessageChecker) resolveRead() error {
	open, err := database.QueryAlerts(c.db, database.AlertFilters{
		SourceType: database.SourceTypeMessage,
		OpenOnly:   true,
	})
	if err != nil {
		return err
	}
	for i := range open {
		alert := &open[i]
		msg, err := database.GetRepMessage(c.db, alert.SourceEntityID)
		if err != nil {
			log.Printf("MessageChecker: could not load message %d: %v", alert.SourceEntityID, err)
			continue
		}
		if !msg.IsRead {
			continue
		}
		if _, err := database.ResolveAlertByKey(c.db, alert.AlertKey, "system"); err != nil {
			log.Printf("MessageChecker: failed to resolve alert %s: %v", alert.AlertKey, err)
		}
	}
	return nil
}
