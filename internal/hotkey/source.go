package hotkey

import (
	"errors"
	"sync"
)

// ErrAlreadyStarted is returned when Start is called on a running source.
var ErrAlreadyStarted = errors.New("hotkey source already started")

// Source turns OS-global hotkeys into logical actions on a channel. It
// has an explicit lifecycle: hooks exist only between Start and Stop.
type Source struct {
	bindings map[Action]Chord
	events   chan Action

	mu      sync.Mutex
	running bool
	stop    func()
}

// NewSource parses the given bindings (falling back to defaults for
// missing actions) without registering anything yet.
func NewSource(specs map[Action]string) (*Source, error) {
	bindings, err := ParseBindings(specs)
	if err != nil {
		return nil, err
	}
	return &Source{
		bindings: bindings,
		events:   make(chan Action, 8),
	}, nil
}

// Bindings returns the active chords per action.
func (s *Source) Bindings() map[Action]Chord {
	out := make(map[Action]Chord, len(s.bindings))
	for action, chord := range s.bindings {
		out[action] = chord
	}
	return out
}

// Events delivers triggered actions. The channel is never closed while
// the source exists; Stop simply stops producing.
func (s *Source) Events() <-chan Action {
	return s.events
}

// Start registers the OS hooks.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyStarted
	}

	stop, err := registerHooks(s.bindings, s.emit)
	if err != nil {
		return err
	}
	s.running = true
	s.stop = stop
	return nil
}

// Stop deregisters the OS hooks. Safe to call when not running.
func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *Source) emit(action Action) {
	select {
	case s.events <- action:
	default:
		// A stuck consumer must not wedge the OS message loop.
	}
}
