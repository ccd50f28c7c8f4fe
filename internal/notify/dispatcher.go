// Package notify fans out created or escalated alerts to the configured
// notification channels with per-tier idempotence.
package notify

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fleetops/internal/config"
	"github.com/fleetops/fleetops/internal/database"
)

// Channel delivers one alert over one transport. Implementations read
// their transport configuration from the settings row passed to Send so
// dashboard edits take effect without a restart.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert *database.AlertRecord, settings *database.ChannelSettings) error
}

type registeredChannel struct {
	channel  Channel
	minLevel database.EscalationLevel
}

// Dispatcher routes alerts to channels. The persisted per-channel dispatch
// flag on the AlertRecord is the sole once-per-tier guard: the upsert
// clears the flags whenever a tier advance or a reopen makes a new round
// of notifications due, and the record passed to Dispatch carries the
// current flag state.
type Dispatcher struct {
	db       *gorm.DB
	timeout  time.Duration
	channels []registeredChannel
}

// NewDispatcher creates a dispatcher with the default per-channel timeout
func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{
		db:      db,
		timeout: 5 * time.Second,
	}
}

// SetTimeout overrides the per-channel send timeout
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// Register adds a channel that fires at minLevel and above
func (d *Dispatcher) Register(ch Channel, minLevel database.EscalationLevel) {
	d.channels = append(d.channels, registeredChannel{channel: ch, minLevel: minLevel})
}

// DefaultChannels registers the standard channel policy: admin and push at
// every tier, supervisor and email from escalated, SMS at critical only.
func (d *Dispatcher) DefaultChannels(hub *Hub) {
	d.Register(NewSlackChannel(database.ChannelAdmin), database.EscalationInitial)
	d.Register(NewPushChannel(hub), database.EscalationInitial)
	d.Register(NewSlackChannel(database.ChannelSupervisor), database.EscalationEscalated)
	d.Register(NewEmailChannel(), database.EscalationEscalated)
	d.Register(NewSMSChannel(), database.EscalationCritical)
}

// Dispatch sends an alert that was just created, advanced tier, or
// reopened. policy carries the per-domain channel enable overrides; global
// enables come from the channel settings row. Channel failures are logged
// and isolated; the dispatch flag stays false so the next tier advance
// retries. A settings load failure only degrades the channels that need
// settings: the remaining ones run against the defaults.
func (d *Dispatcher) Dispatch(alert *database.AlertRecord, policy config.EscalationPolicy) {
	settings, err := database.GetOrCreateChannelSettings(d.db)
	if err != nil {
		log.Printf("Dispatcher: could not load channel settings, using defaults: %v", err)
		settings = database.DefaultChannelSettings()
	}

	for _, rc := range d.channels {
		name := rc.channel.Name()

		if alert.EscalationLevel.Rank() < rc.minLevel.Rank() {
			continue
		}
		if !channelEnabled(name, settings, policy) {
			continue
		}
		if alert.ChannelNotified(name) {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := rc.channel.Send(ctx, alert, settings)
		cancel()
		if err != nil {
			log.Printf("Dispatcher: %s channel failed for alert %s: %v", name, alert.AlertKey, err)
			continue
		}

		if err := database.MarkChannelNotified(d.db, alert.ID, name); err != nil {
			log.Printf("Dispatcher: failed to record %s dispatch for alert %s: %v", name, alert.AlertKey, err)
		}
	}
}

func channelEnabled(name string, settings *database.ChannelSettings, policy config.EscalationPolicy) bool {
	var global bool
	var override *bool
	switch name {
	case database.ChannelAdmin:
		global, override = settings.AdminEnabled, policy.AdminEnabled
	case database.ChannelSupervisor:
		global, override = settings.SupervisorEnabled, policy.SupervisorEnabled
	case database.ChannelPush:
		global, override = settings.PushEnabled, policy.PushEnabled
	case database.ChannelEmail:
		global, override = settings.EmailEnabled, policy.EmailEnabled
	case database.ChannelSMS:
		global, override = settings.SMSEnabled, policy.SMSEnabled
	default:
		return false
	}
	if override != nil {
		return *override
	}
	return global
}
