// Package notify sends desktop notifications about auto-attach outcomes.
package notify

import (
	"context"
	"errors"
	"time"
)

// Severity levels for notifications.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Notification represents a notification to be displayed.
type Notification struct {
	// Title is the notification title (typically the debug session name)
	Title string

	// Message is the notification body
	Message string

	// Severity indicates the notification severity
	Severity string

	// Timestamp when the notification was created
	Timestamp time.Time
}

// Notifier is the interface for desktop notification systems.
type Notifier interface {
	// Send sends a notification to the OS notification system.
	Send(ctx context.Context, notification Notification) error

	// Close cleans up notification system resources.
	Close() error
}

// Config contains notification system configuration.
type Config struct {
	// AppName is the application name shown in notifications
	AppName string

	// Icon is an optional path to an icon image
	Icon string

	// Timeout bounds a single Send call
	Timeout time.Duration
}

// DefaultConfig returns default notification configuration.
func DefaultConfig() Config {
	return Config{
		AppName: "Auto-attach",
		Timeout: 5 * time.Second,
	}
}

// New creates a desktop notifier.
func New(config Config) (Notifier, error) {
	if config.AppName == "" {
		return nil, ErrInvalidConfig
	}
	return newBeeepNotifier(config), nil
}

var (
	ErrInvalidConfig      = errors.New("notification app name is required")
	ErrNotificationFailed = errors.New("failed to send notification")
	ErrTimeout            = errors.New("notification timeout")
)
