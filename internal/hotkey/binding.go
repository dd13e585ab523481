package hotkey

import (
	"fmt"
	"strings"
)

// Action is a logical hotkey action the overlay and controller react to.
type Action string

const (
	ActionStart  Action = "start"
	ActionStop   Action = "stop"
	ActionPause  Action = "pause"
	ActionCancel Action = "cancel"
	ActionPrompt Action = "prompt"
)

// Actions lists every recognized action.
func Actions() []Action {
	return []Action{ActionStart, ActionStop, ActionPause, ActionCancel, ActionPrompt}
}

// DefaultBindings are the built-in key combinations.
func DefaultBindings() map[Action]string {
	return map[Action]string{
		ActionStart:  "ctrl+shift+l",
		ActionStop:   "ctrl+alt+s",
		ActionPause:  "ctrl+shift+space",
		ActionCancel: "ctrl+shift+esc",
		ActionPrompt: "ctrl+shift+alt+p",
	}
}

// Chord is a parsed key combination: zero or more modifiers plus one key.
type Chord struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
	Key   string
}

// String renders the chord in the config file notation.
func (c Chord) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Super {
		parts = append(parts, "super")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// ParseChord parses notation like "ctrl+shift+l" or "ctrl+alt+f2".
func ParseChord(spec string) (Chord, error) {
	var chord Chord
	parts := strings.Split(strings.ToLower(strings.TrimSpace(spec)), "+")
	if len(parts) == 0 || parts[0] == "" {
		return Chord{}, fmt.Errorf("empty hotkey")
	}

	for i, part := range parts {
		part = strings.TrimSpace(part)
		isLast := i == len(parts)-1
		switch part {
		case "ctrl", "control":
			chord.Ctrl = true
		case "shift":
			chord.Shift = true
		case "alt":
			chord.Alt = true
		case "super", "win", "cmd":
			chord.Super = true
		default:
			if !isLast {
				return Chord{}, fmt.Errorf("unknown modifier %q in %q", part, spec)
			}
			if part == "" {
				return Chord{}, fmt.Errorf("missing key in %q", spec)
			}
			chord.Key = part
		}
	}

	if chord.Key == "" {
		return Chord{}, fmt.Errorf("hotkey %q has modifiers but no key", spec)
	}
	return chord, nil
}

// ParseBindings parses an action→spec map, filling in defaults for
// missing actions and rejecting invalid specs.
func ParseBindings(specs map[Action]string) (map[Action]Chord, error) {
	merged := DefaultBindings()
	for action, spec := range specs {
		if _, known := merged[action]; !known {
			continue
		}
		if strings.TrimSpace(spec) != "" {
			merged[action] = spec
		}
	}

	bindings := make(map[Action]Chord, len(merged))
	for action, spec := range merged {
		chord, err := ParseChord(spec)
		if err != nil {
			return nil, fmt.Errorf("binding for %s: %w", action, err)
		}
		bindings[action] = chord
	}
	return bindings, nil
}
