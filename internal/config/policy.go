package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Monitored domain names. Each domain runs on its own timer with its own
// escalation policy.
const (
	DomainVisits     = "visits"
	DomainMessages   = "messages"
	DomainVehicles   = "vehicles"
	DomainStock      = "stock"
	DomainDeliveries = "deliveries"
	DomainSync       = "sync"
)

// EscalationPolicy configures detection and escalation for one domain.
// By convention the critical threshold is twice the escalation threshold.
type EscalationPolicy struct {
	GracePeriodMinutes         int `yaml:"grace_period_minutes"`
	EscalationThresholdMinutes int `yaml:"escalation_threshold_minutes"`
	CheckIntervalMinutes       int `yaml:"check_interval_minutes"`

	AdminEnabled      *bool `yaml:"admin_enabled,omitempty"`
	SupervisorEnabled *bool `yaml:"supervisor_enabled,omitempty"`
	PushEnabled       *bool `yaml:"push_enabled,omitempty"`
	EmailEnabled      *bool `yaml:"email_enabled,omitempty"`
	SMSEnabled        *bool `yaml:"sms_enabled,omitempty"`
}

// GracePeriod returns the grace period as a duration
func (p EscalationPolicy) GracePeriod() time.Duration {
	return time.Duration(p.GracePeriodMinutes) * time.Minute
}

// EscalationThreshold returns the escalation threshold as a duration
func (p EscalationPolicy) EscalationThreshold() time.Duration {
	return time.Duration(p.EscalationThresholdMinutes) * time.Minute
}

// CriticalThreshold is twice the escalation threshold by convention
func (p EscalationPolicy) CriticalThreshold() time.Duration {
	return 2 * p.EscalationThreshold()
}

// CheckInterval returns the polling interval for the domain's timer
func (p EscalationPolicy) CheckInterval() time.Duration {
	return time.Duration(p.CheckIntervalMinutes) * time.Minute
}

// Policies maps domain name to its escalation policy
type Policies map[string]EscalationPolicy

// DefaultPolicies returns the built-in per-domain defaults
func DefaultPolicies() Policies {
	return Policies{
		DomainVisits: {
			GracePeriodMinutes:         10,
			EscalationThresholdMinutes: 30,
			CheckIntervalMinutes:       1,
		},
		DomainMessages: {
			GracePeriodMinutes:         0,
			EscalationThresholdMinutes: 30,
			CheckIntervalMinutes:       1,
		},
		DomainVehicles: {
			GracePeriodMinutes:         0,
			EscalationThresholdMinutes: 60,
			CheckIntervalMinutes:       2,
		},
		DomainStock: {
			GracePeriodMinutes:         0,
			EscalationThresholdMinutes: 120,
			CheckIntervalMinutes:       2,
		},
		DomainDeliveries: {
			GracePeriodMinutes:         15,
			EscalationThresholdMinutes: 45,
			CheckIntervalMinutes:       2,
		},
		DomainSync: {
			CheckIntervalMinutes: 2,
		},
	}
}

// LoadPolicies returns the default policies merged with overrides from the
// given YAML file. An empty path means defaults only.
func LoadPolicies(path string) (Policies, error) {
	policies := DefaultPolicies()
	if path == "" {
		return policies, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	var overrides Policies
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	for domain, override := range overrides {
		base, ok := policies[domain]
		if !ok {
			return nil, fmt.Errorf("policy file references unknown domain %q", domain)
		}
		if override.GracePeriodMinutes > 0 {
			base.GracePeriodMinutes = override.GracePeriodMinutes
		}
		if override.EscalationThresholdMinutes > 0 {
			base.EscalationThresholdMinutes = override.EscalationThresholdMinutes
		}
		if override.CheckIntervalMinutes > 0 {
			base.CheckIntervalMinutes = override.CheckIntervalMinutes
		}
		base.AdminEnabled = override.AdminEnabled
		base.SupervisorEnabled = override.SupervisorEnabled
		base.PushEnabled = override.PushEnabled
		base.EmailEnabled = override.EmailEnabled
		base.SMSEnabled = override.SMSEnabled
		policies[domain] = base
	}

	return policies, nil
}

// Get returns the policy for a domain, falling back to visit defaults for
// unknown names so callers never run with zero thresholds.
func (p Policies) Get(domain string) EscalationPolicy {
	if policy, ok := p[domain]; ok {
		return policy
	}
	return DefaultPolicies()[DomainVisits]
}
