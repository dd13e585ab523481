//go:build !windows

package hotkey

import "errors"

// Global hotkey hooks are only implemented on Windows; elsewhere the
// overlay buttons drive the session.
func registerHooks(_ map[Action]Chord, _ func(Action)) (func(), error) {
	return nil, errors.New("global hotkeys are not supported on this platform")
}
