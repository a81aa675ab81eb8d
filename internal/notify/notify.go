// Package notify shows desktop notifications: D-Bus or notify-send on
// Linux, Notification Center on macOS and toasts on Windows.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// Notifier shows a short notification outside the tray menu.
type Notifier interface {
	Notify(title, message string) error
}

// Desktop sends notifications through the platform's notification service.
type Desktop struct {
	// Icon is a path to a PNG, or empty for the platform default.
	Icon string
}

// New returns a Desktop notifier grouping its notifications under appName.
func New(appName string) *Desktop {
	beeep.AppName = appName
	return &Desktop{}
}

func (d *Desktop) Notify(title, message string) error {
	if err := beeep.Notify(title, message, d.Icon); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(string, string) error { return nil }
