// Package notify surfaces session outcomes as desktop notifications.
package notify

import "github.com/gen2brain/beeep"

// Desktop sends notifications through the platform notification daemon.
type Desktop struct {
	// Icon is an optional path to the notification icon.
	Icon string
}

func (d *Desktop) Notify(title, body string) error {
	return beeep.Notify(title, body, d.Icon)
}

// Silent discards notifications. Used when the daemon is unavailable or
// notifications are disabled.
type Silent struct{}

func (Silent) Notify(string, string) error { return nil }
