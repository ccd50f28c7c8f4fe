package alerts

import (
	"strings"

	"github.com/fleetops/fleetops/internal/database"
)

// KeywordRule maps a keyword set to an escalation tier. Rules are an
// ordered table rather than inline conditionals so the vocabulary can be
// tested and extended independently.
type KeywordRule struct {
	Level    database.EscalationLevel
	Keywords []string
}

// DefaultMessageRules is the built-in vocabulary for classifying
// representative messages. When a message matches keywords from more than
// one tier, the highest tier wins.
func DefaultMessageRules() []KeywordRule {
	return []KeywordRule{
		{
			Level: database.EscalationCritical,
			Keywords: []string{
				"emergency", "accident", "injured", "injury", "fire",
				"theft", "stolen", "robbery", "police", "ambulance",
			},
		},
		{
			Level: database.EscalationEscalated,
			Keywords: []string{
				"urgent", "asap", "immediately", "breakdown", "broken down",
				"stuck", "blocked", "refused delivery", "damaged",
			},
		},
		{
			Level: database.EscalationInitial,
			Keywords: []string{
				"help", "problem", "issue", "delay", "late", "cannot", "can't",
			},
		},
	}
}

// MessageClassifier classifies free-form message text against a rule table
type MessageClassifier struct {
	rules []KeywordRule
}

// NewMessageClassifier builds a classifier. A nil rule slice uses the
// default vocabulary.
func NewMessageClassifier(rules []KeywordRule) *MessageClassifier {
	if rules == nil {
		rules = DefaultMessageRules()
	}
	return &MessageClassifier{rules: rules}
}

// Classify returns the highest tier whose keywords appear in the text.
// matched is false when no rule applies; such messages raise no alert.
func (c *MessageClassifier) Classify(text string) (level database.EscalationLevel, matched bool) {
	lowered := strings.ToLower(text)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				if !matched || rule.Level.Rank() > level.Rank() {
					level = rule.Level
					matched = true
				}
				break
			}
		}
	}
	return level, matched
}
