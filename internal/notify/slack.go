package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/fleetops/fleetops/internal/database"
)

// SlackChannel posts alerts to a Slack channel. The same implementation
// serves both the admin and supervisor channels; only the target differs.
type SlackChannel struct {
	name string
}

// NewSlackChannel creates a Slack channel for the admin or supervisor role
func NewSlackChannel(name string) *SlackChannel {
	return &SlackChannel{name: name}
}

// Name returns the channel name
func (c *SlackChannel) Name() string {
	return c.name
}

// Send posts the alert to the configured Slack channel
func (c *SlackChannel) Send(ctx context.Context, alert *database.AlertRecord, settings *database.ChannelSettings) error {
	if !settings.SlackConfigured() {
		return fmt.Errorf("slack is not configured")
	}

	target := settings.AdminChannel
	if c.name == database.ChannelSupervisor {
		target = settings.SupervisorChannel
	}
	if target == "" {
		return fmt.Errorf("no slack channel configured for %s", c.name)
	}

	client := slack.New(settings.SlackBotToken)
	_, _, err := client.PostMessageContext(ctx, target,
		slack.MsgOptionText(formatSlackMessage(alert), false),
	)
	if err != nil {
		return fmt.Errorf("failed to post to slack channel %s: %w", target, err)
	}
	return nil
}

func formatSlackMessage(alert *database.AlertRecord) string {
	msg := fmt.Sprintf("%s *%s*\n%s",
		database.GetSeverityEmoji(alert.Severity), alert.Title, alert.Message)
	if alert.EscalationLevel != database.EscalationInitial {
		msg += fmt.Sprintf("\n_Escalation: %s_", alert.EscalationLevel)
	}
	if alert.ActorName != "" {
		msg += fmt.Sprintf("\nContact: %s %s", alert.ActorName, alert.ActorPhone)
	}
	return msg
}
