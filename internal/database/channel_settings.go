package database

import (
	"time"

	"gorm.io/gorm"
)

// ChannelSettings stores notification channel configuration. A single row,
// editable from the dashboard without a redeploy.
type ChannelSettings struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Slack (admin + supervisor channels)
	SlackBotToken     string `gorm:"type:text" json:"slack_bot_token"`
	AdminChannel      string `gorm:"type:varchar(255)" json:"admin_channel"`
	SupervisorChannel string `gorm:"type:varchar(255)" json:"supervisor_channel"`

	// Outbound gateways. The engine only POSTs JSON; the provider behind
	// the URL is not its concern.
	EmailGatewayURL string `gorm:"type:text" json:"email_gateway_url"`
	EmailFrom       string `gorm:"type:varchar(255)" json:"email_from"`
	EmailRecipients string `gorm:"type:text" json:"email_recipients"` // comma-separated
	SMSGatewayURL   string `gorm:"type:text" json:"sms_gateway_url"`
	SMSRecipients   string `gorm:"type:text" json:"sms_recipients"` // comma-separated

	// Per-channel enables
	AdminEnabled      bool `gorm:"default:true" json:"admin_enabled"`
	SupervisorEnabled bool `gorm:"default:true" json:"supervisor_enabled"`
	PushEnabled       bool `gorm:"default:true" json:"push_enabled"`
	EmailEnabled      bool `gorm:"default:false" json:"email_enabled"`
	SMSEnabled        bool `gorm:"default:false" json:"sms_enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChannelSettings) TableName() string {
	return "channel_settings"
}

// SlackConfigured returns true if a bot token and at least one channel are set
func (c *ChannelSettings) SlackConfigured() bool {
	return c.SlackBotToken != "" && (c.AdminChannel != "" || c.SupervisorChannel != "")
}

// EmailConfigured returns true if the email gateway can be used
func (c *ChannelSettings) EmailConfigured() bool {
	return c.EmailGatewayURL != "" && c.EmailRecipients != ""
}

// SMSConfigured returns true if the SMS gateway can be used
func (c *ChannelSettings) SMSConfigured() bool {
	return c.SMSGatewayURL != "" && c.SMSRecipients != ""
}

// DefaultChannelSettings returns the built-in configuration: push and the
// Slack channels on, gateways off. Also used as the dispatch fallback when
// the settings row cannot be loaded.
func DefaultChannelSettings() *ChannelSettings {
	return &ChannelSettings{
		AdminEnabled:      true,
		SupervisorEnabled: true,
		PushEnabled:       true,
	}
}

// GetOrCreateChannelSettings retrieves the settings row, creating the
// default if none exists.
func GetOrCreateChannelSettings(db *gorm.DB) (*ChannelSettings, error) {
	var settings ChannelSettings
	result := db.First(&settings)
	if result.Error == gorm.ErrRecordNotFound {
		defaults := DefaultChannelSettings()
		if err := db.Create(defaults).Error; err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &settings, nil
}

// UpdateChannelSettings persists edited channel settings
func UpdateChannelSettings(db *gorm.DB, settings *ChannelSettings) error {
	return db.Save(settings).Error
}
