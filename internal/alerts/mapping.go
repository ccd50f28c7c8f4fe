package alerts

import (
	"strings"

	"github.com/fleetops/fleetops/internal/database"
)

// UnifiedClassification is the target vocabulary for raw domain severities
type UnifiedClassification struct {
	Severity database.AlertSeverity
	Category database.AlertCategory
	Priority int
}

// severityMapping is the single canonical table mapping raw domain
// severity words to the unified vocabulary. Legacy code paths spelled this
// differently at each call site; all reconciliation goes through this one
// table.
var severityMapping = map[string]UnifiedClassification{
	"critical":  {database.SeverityCritical, database.CategoryCritical, 4},
	"emergency": {database.SeverityCritical, database.CategoryCritical, 4},
	"fatal":     {database.SeverityCritical, database.CategoryCritical, 4},
	"urgent":    {database.SeverityHigh, database.CategoryUrgent, 3},
	"high":      {database.SeverityHigh, database.CategoryUrgent, 3},
	"major":     {database.SeverityHigh, database.CategoryUrgent, 3},
	"warning":   {database.SeverityMedium, database.CategoryWarning, 2},
	"medium":    {database.SeverityMedium, database.CategoryWarning, 2},
	"moderate":  {database.SeverityMedium, database.CategoryWarning, 2},
	"low":       {database.SeverityLow, database.CategoryInfo, 1},
	"minor":     {database.SeverityLow, database.CategoryInfo, 1},
	"info":      {database.SeverityLow, database.CategoryInfo, 1},
	"notice":    {database.SeverityLow, database.CategoryInfo, 1},
	"ok":        {database.SeverityLow, database.CategorySuccess, 1},
	"success":   {database.SeverityLow, database.CategorySuccess, 1},
}

// MapRawSeverity maps a raw domain severity word to the unified
// classification. Unknown or empty values default to medium/warning so a
// misspelled legacy value never silences an alert.
func MapRawSeverity(raw string) UnifiedClassification {
	if c, ok := severityMapping[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return UnifiedClassification{database.SeverityMedium, database.CategoryWarning, 2}
}

// LevelForRawSeverity maps a raw severity word to an escalation tier, used
// when reconciling raw alerts so the only-advance rule applies to them too.
func LevelForRawSeverity(raw string) database.EscalationLevel {
	switch MapRawSeverity(raw).Severity {
	case database.SeverityCritical:
		return database.EscalationCritical
	case database.SeverityHigh:
		return database.EscalationEscalated
	default:
		return database.EscalationInitial
	}
}
