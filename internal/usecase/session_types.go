package usecase

import (
	"context"
	"sync"

	"github.com/Ester-D-Kate/Audio-Flow/internal/domain"
	"github.com/Ester-D-Kate/Audio-Flow/internal/ports"
)

type activeSession struct {
	id      string
	mode    domain.Mode
	ctx     context.Context
	cancel  func()
	capture ports.CaptureSession
	live    ports.LiveSession

	stateMu sync.Mutex
	state   domain.SessionState

	liveOnce   sync.Once
	levelsDone chan struct{}
	framesDone chan struct{}
	liveDone   chan struct{}
}

func (s *activeSession) setState(state domain.SessionState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state = state
}

func (s *activeSession) getState() domain.SessionState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *activeSession) closeLive() {
	if s.live == nil {
		return
	}
	s.liveOnce.Do(func() { _ = s.live.Close() })
}

// waitPumps blocks until the level and live-feed goroutines have drained
// their channels. The capture worker closes those channels on finish.
func (s *activeSession) waitPumps() {
	<-s.levelsDone
	if s.framesDone != nil {
		<-s.framesDone
	}
	if s.liveDone != nil {
		<-s.liveDone
	}
}
