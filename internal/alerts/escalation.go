// Package alerts holds the pure domain logic of the alert engine:
// escalation classification, message keyword rules, the canonical severity
// mapping, and the synthesizer that turns operational rows into alert
// drafts. Nothing here touches the database or the network.
package alerts

import (
	"time"

	"github.com/fleetops/fleetops/internal/database"
)

// ClassifyDelay maps elapsed time past a scheduled point to an escalation
// tier. Boundaries are half-open: exactly threshold enters escalated,
// exactly twice threshold enters critical.
func ClassifyDelay(delay, threshold time.Duration) database.EscalationLevel {
	if threshold <= 0 {
		return database.EscalationInitial
	}
	switch {
	case delay >= 2*threshold:
		return database.EscalationCritical
	case delay >= threshold:
		return database.EscalationEscalated
	default:
		return database.EscalationInitial
	}
}

// ClassifyMagnitude maps how far a value has fallen below its threshold to
// an escalation tier: at half the threshold or below the condition is
// critical, below the threshold it is escalated once past half-way down,
// otherwise initial.
func ClassifyMagnitude(value, threshold float64) database.EscalationLevel {
	if threshold <= 0 {
		return database.EscalationInitial
	}
	switch {
	case value <= threshold/2:
		return database.EscalationCritical
	case value <= threshold*0.75:
		return database.EscalationEscalated
	default:
		return database.EscalationInitial
	}
}

// SeverityForLevel maps an escalation tier to the unified severity
func SeverityForLevel(level database.EscalationLevel) database.AlertSeverity {
	switch level {
	case database.EscalationCritical:
		return database.SeverityCritical
	case database.EscalationEscalated:
		return database.SeverityHigh
	default:
		return database.SeverityMedium
	}
}

// CategoryForLevel maps an escalation tier to the dashboard category
func CategoryForLevel(level database.EscalationLevel) database.AlertCategory {
	switch level {
	case database.EscalationCritical:
		return database.CategoryCritical
	case database.EscalationEscalated:
		return database.CategoryUrgent
	default:
		return database.CategoryWarning
	}
}

// MaxLevel returns the higher-ranked of two levels
func MaxLevel(a, b database.EscalationLevel) database.EscalationLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
