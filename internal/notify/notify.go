// Package notify defines the delivery interface used for appointment
// reminders. Provider SDK wiring (email/SMS gateways) lives outside this
// repository; the shipped implementation records deliveries as JSON log
// lines so reminder flows stay observable in every environment.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Notifier delivers reminder messages to a user.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// LogNotifier writes every delivery as a JSON line instead of calling a
// provider.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) SendEmail(ctx context.Context, to, subject, body string) error {
	logDelivery("email", to, subject)
	return nil
}

func (n *LogNotifier) SendSMS(ctx context.Context, to, body string) error {
	logDelivery("sms", to, "")
	return nil
}

func logDelivery(channel, to, subject string) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "info",
		"component": "notify",
		"event":     "notification_sent",
		"channel":   channel,
		"to":        to,
	}
	if subject != "" {
		entry["subject"] = subject
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
