package model

import (
	"time"

	"github.com/google/uuid"
)

// Severity tags a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityAlert   Severity = "alert"
)

// Notification is a transient user-visible message.
type Notification struct {
	ID        string    `msgpack:"id"`
	Severity  Severity  `msgpack:"type"`
	Message   string    `msgpack:"message"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// NewNotification builds a notification with a fresh unique id.
func NewNotification(sev Severity, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Severity:  sev,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
