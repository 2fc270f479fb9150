// Package notify delivers due-reminder notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
)

var (
	_ domain.Notifier = (*EmailNotifier)(nil)
	_ domain.Notifier = (*LogNotifier)(nil)
)

// sender is the part of the resend client the notifier needs.
type sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type EmailNotifier struct {
	emails  sender
	from    string
	appName string
}

func NewEmailNotifier(apiKey, from, appName string) *EmailNotifier {
	return &EmailNotifier{
		emails:  resend.NewClient(apiKey).Emails,
		from:    from,
		appName: appName,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	subject, body := reminderEmail(msg.Reminder, n.appName)

	_, err := n.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{msg.To},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}

	slog.InfoContext(ctx, "reminder email sent", "reminder_id", msg.Reminder.ID, "to", msg.To)
	return nil
}

// LogNotifier only logs; used in development and when no mail provider is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	subject, _ := reminderEmail(msg.Reminder, "")
	slog.InfoContext(ctx, "reminder notification (dev mode)", "reminder_id", msg.Reminder.ID, "to", msg.To, "subject", subject)
	return nil
}

func reminderEmail(r *domain.Reminder, appName string) (string, string) {
	label := "Appointment"
	if r.Type == domain.ReminderTypeMedication {
		label = "Medication"
	}

	subject := fmt.Sprintf("%s today: %s", label, r.Title)
	if appName != "" {
		subject = fmt.Sprintf("[%s] %s", appName, subject)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nDate: %s\n", r.Title, r.Date)
	if r.Time != nil {
		fmt.Fprintf(&b, "Time: %s\n", *r.Time)
	}
	if r.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Description)
	}
	return subject, b.String()
}
