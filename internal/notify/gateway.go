package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fleetops/fleetops/internal/database"
)

// The email and SMS transports are opaque HTTP gateways: the engine POSTs
// a JSON payload and does not know which provider sits behind the URL.

// EmailChannel sends alert emails through the configured gateway
type EmailChannel struct {
	client *http.Client
}

// NewEmailChannel creates the email channel
func NewEmailChannel() *EmailChannel {
	return &EmailChannel{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the channel name
func (c *EmailChannel) Name() string {
	return database.ChannelEmail
}

type emailPayload struct {
	From       string   `json:"from,omitempty"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// Send posts the alert as an email request to the gateway
func (c *EmailChannel) Send(ctx context.Context, alert *database.AlertRecord, settings *database.ChannelSettings) error {
	if !settings.EmailConfigured() {
		return fmt.Errorf("email gateway is not configured")
	}
	payload := emailPayload{
		From:       settings.EmailFrom,
		Subject:    fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Title),
		Body:       alert.Message,
		Recipients: splitRecipients(settings.EmailRecipients),
	}
	return postJSON(ctx, c.client, settings.EmailGatewayURL, payload)
}

// SMSChannel sends alert texts through the configured gateway
type SMSChannel struct {
	client *http.Client
}

// NewSMSChannel creates the SMS channel
func NewSMSChannel() *SMSChannel {
	return &SMSChannel{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the channel name
func (c *SMSChannel) Name() string {
	return database.ChannelSMS
}

type smsPayload struct {
	Text       string   `json:"text"`
	Recipients []string `json:"recipients"`
}

// Send posts the alert as an SMS request to the gateway
func (c *SMSChannel) Send(ctx context.Context, alert *database.AlertRecord, settings *database.ChannelSettings) error {
	if !settings.SMSConfigured() {
		return fmt.Errorf("sms gateway is not configured")
	}
	payload := smsPayload{
		Text:       fmt.Sprintf("%s: %s", alert.Title, alert.Message),
		Recipients: splitRecipients(settings.SMSRecipients),
	}
	return postJSON(ctx, c.client, settings.SMSGatewayURL, payload)
}

func splitRecipients(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(r); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func postJSON(ctx context.Context, client *http.Client, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
