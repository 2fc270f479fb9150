package domain

import "context"

// Notification is one due reminder addressed to its owner.
type Notification struct {
	To       string
	Reminder *Reminder
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
