package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ester-D-Kate/Audio-Flow/internal/domain"
	"github.com/Ester-D-Kate/Audio-Flow/internal/keypool"
	"github.com/Ester-D-Kate/Audio-Flow/internal/ports"
)

var (
	ErrSessionActive   = errors.New("a recording session is already active")
	ErrNoActiveSession = errors.New("no active recording session")
	ErrSendInProgress  = errors.New("session is already being sent")
	ErrNoSpeech        = errors.New("no speech captured")
)

// EncodeFunc converts a finished recording into a WAV payload.
type EncodeFunc func(rec domain.Recording, channels int) ([]byte, error)

// Config controls session recording and the optional live feed.
type Config struct {
	Audio ports.AudioConfig
	Live  ports.LiveConfig
	// ArchivePath receives a plain-text copy of every delivered text.
	ArchivePath string
}

// SessionController owns the single dictation session and drives it
// through capture, transcription and delivery.
type SessionController struct {
	audio   ports.AudioCapture
	speech  ports.SpeechService
	live    ports.LiveTranscriber
	encode  EncodeFunc
	deliver textDeliverer
	events  ports.EventSink
	log     zerolog.Logger
	cfg     Config

	mu      sync.Mutex
	current *activeSession
}

func NewSessionController(
	audio ports.AudioCapture,
	speech ports.SpeechService,
	live ports.LiveTranscriber,
	encode EncodeFunc,
	rules ports.TextRules,
	injector ports.TextInjector,
	clipboard ports.Clipboard,
	notifier ports.Notifier,
	events ports.EventSink,
	log zerolog.Logger,
	cfg Config,
) *SessionController {
	return &SessionController{
		audio:   audio,
		speech:  speech,
		live:    live,
		encode:  encode,
		deliver: newTextDeliverer(rules, injector, clipboard, notifier, events, log, cfg.ArchivePath),
		events:  events,
		log:     log,
		cfg:     cfg,
	}
}

// Start begins a new capture session. Starting while a session is active
// is rejected, so an accidental second hotkey press cannot silently
// discard an in-progress recording.
func (c *SessionController) Start(ctx context.Context, mode domain.Mode) error {
	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	capture, err := c.audio.Start(sessionCtx, c.cfg.Audio)
	if err != nil {
		c.mu.Unlock()
		cancel()
		c.events.SessionError(domain.ErrorCodeDeviceUnavailable, err.Error())
		return err
	}

	active := &activeSession{
		id:         uuid.NewString(),
		mode:       mode,
		ctx:        sessionCtx,
		cancel:     cancel,
		capture:    capture,
		state:      domain.SessionStateRecording,
		levelsDone: make(chan struct{}),
	}

	if c.live != nil {
		if session, liveErr := c.live.Start(sessionCtx, c.cfg.Live); liveErr != nil {
			// Interim text is advisory; the session continues without it.
			c.events.SessionError(domain.ErrorCodeLiveFeed, liveErr.Error())
			c.log.Warn().Err(liveErr).Msg("live transcript feed unavailable")
		} else {
			active.live = session
			active.framesDone = make(chan struct{})
			active.liveDone = make(chan struct{})
			go pumpLiveAudio(capture.Frames(), session, c.events, active.framesDone)
			go consumeLiveEvents(session.Events(), c.events, active.liveDone)
		}
	}

	go pumpLevels(capture.Levels(), c.events, active.levelsDone)
	go c.watchCapture(active)

	c.current = active
	c.mu.Unlock()

	c.log.Info().Str("session", active.id).Str("mode", string(mode)).Msg("recording started")
	c.events.SessionStateChanged(domain.SessionStateRecording, domain.SessionReasonRecordingStarted)
	return nil
}

// TogglePause suspends or resumes the active recording.
func (c *SessionController) TogglePause(ctx context.Context) error {
	active, err := c.getCurrent()
	if err != nil {
		return err
	}

	switch active.getState() {
	case domain.SessionStateRecording:
		if err := active.capture.Pause(ctx); err != nil {
			return err
		}
		active.setState(domain.SessionStatePaused)
		c.events.SessionStateChanged(domain.SessionStatePaused, domain.SessionReasonRecordingPaused)
	case domain.SessionStatePaused:
		if err := active.capture.Resume(); err != nil {
			return err
		}
		active.setState(domain.SessionStateRecording)
		c.events.SessionStateChanged(domain.SessionStateRecording, domain.SessionReasonRecordingResumed)
	default:
		return ErrSendInProgress
	}
	return nil
}

// Send stops capture, transcribes the recording, post-processes it for
// the session mode and delivers the result into the OS focus.
func (c *SessionController) Send(ctx context.Context) (domain.SendResult, error) {
	c.mu.Lock()
	active := c.current
	if active == nil {
		c.mu.Unlock()
		return domain.SendResult{}, ErrNoActiveSession
	}
	if active.getState() == domain.SessionStateSending {
		c.mu.Unlock()
		return domain.SendResult{}, ErrSendInProgress
	}
	active.setState(domain.SessionStateSending)
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.SessionStateSending, domain.SessionReasonSending)

	rec, err := active.capture.Stop()
	active.closeLive()
	active.waitPumps()
	if err != nil {
		if c.finishSession(active, domain.SessionStateIdle, domain.SessionReasonDeviceLost) {
			c.events.SessionError(domain.ErrorCodeDeviceUnavailable, err.Error())
		}
		return domain.SendResult{}, err
	}
	if len(rec.Samples) == 0 {
		c.finishSession(active, domain.SessionStateIdle, domain.SessionReasonNoSpeechCaptured)
		return domain.SendResult{}, ErrNoSpeech
	}

	c.log.Debug().
		Str("session", active.id).
		Dur("duration", rec.Duration()).
		Int("chunks", rec.Chunks).
		Msg("recording captured")

	wav, err := c.encode(rec, c.cfg.Audio.Channels)
	if err != nil {
		c.events.SessionError(domain.ErrorCodeAPI, "could not encode recording: "+err.Error())
		c.finishSession(active, domain.SessionStateIdle, domain.SessionReasonAPIFailed)
		return domain.SendResult{}, err
	}

	// The session context is cancelled by Cancel, which aborts an
	// in-flight API call and discards its late result.
	sendCtx := active.ctx

	transcript, err := c.speech.Transcribe(sendCtx, wav)
	if err != nil {
		return domain.SendResult{}, c.failSend(active, sendCtx, err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		c.finishSession(active, domain.SessionStateIdle, domain.SessionReasonNoSpeechCaptured)
		return domain.SendResult{}, ErrNoSpeech
	}

	var final string
	if active.mode == domain.ModePrompt {
		final, err = c.speech.GenerateText(sendCtx, transcript)
	} else {
		final, err = c.speech.FormatTranscript(sendCtx, transcript)
	}
	if err != nil {
		return domain.SendResult{}, c.failSend(active, sendCtx, err)
	}
	if sendCtx.Err() != nil {
		return domain.SendResult{}, sendCtx.Err()
	}

	result, reason := c.deliver.Deliver(ctx, active.id, active.mode, transcript, final)
	c.events.ResultDelivered(result)
	c.finishSession(active, domain.SessionStateDone, reason)
	return result, nil
}

// Cancel discards the active session without contacting the API. It is
// safe to call when nothing is recording.
func (c *SessionController) Cancel() error {
	c.mu.Lock()
	active := c.current
	c.current = nil
	c.mu.Unlock()
	if active == nil {
		return nil
	}

	active.cancel()
	_ = active.capture.Cancel()
	active.closeLive()
	active.waitPumps()
	active.setState(domain.SessionStateCancelled)
	c.events.SessionStateChanged(domain.SessionStateCancelled, domain.SessionReasonRecordingDiscarded)
	c.log.Info().Str("session", active.id).Msg("recording discarded")
	return nil
}

// Status reports the current backend state for the overlay.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.Status{State: domain.SessionStateIdle, Active: false}
	}
	return domain.Status{
		State:  c.current.getState(),
		Mode:   c.current.mode,
		Active: true,
	}
}

func (c *SessionController) getCurrent() (*activeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, ErrNoActiveSession
	}
	return c.current, nil
}

// detach removes the session from the controller if it is still the
// current one. The caller that wins the detach owns the final events.
func (c *SessionController) detach(active *activeSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != active {
		return false
	}
	c.current = nil
	return true
}

func (c *SessionController) finishSession(active *activeSession, state domain.SessionState, reason domain.SessionStateReason) bool {
	owned := c.detach(active)
	active.cancel()
	active.closeLive()
	if !owned {
		return false
	}
	active.setState(state)
	c.events.SessionStateChanged(state, reason)
	return true
}

func (c *SessionController) failSend(active *activeSession, sendCtx context.Context, err error) error {
	if sendCtx.Err() != nil {
		// Cancelled mid-flight; Cancel already announced the discard.
		return sendCtx.Err()
	}
	if errors.Is(err, keypool.ErrRateLimited) {
		c.events.SessionError(domain.ErrorCodeRateLimited, "all API keys are cooling down")
		c.finishSession(active, domain.SessionStateIdle, domain.SessionReasonRateLimited)
		return err
	}
	c.events.SessionError(domain.ErrorCodeAPI, err.Error())
	c.finishSession(active, domain.SessionStateIdle, domain.SessionReasonAPIFailed)
	return err
}

// watchCapture turns a capture device failure into a clean end of
// session, so a yanked microphone does not strand the overlay.
func (c *SessionController) watchCapture(active *activeSession) {
	select {
	case err := <-active.capture.Fatal():
		if err == nil {
			return
		}
		if !c.detach(active) {
			return
		}
		active.cancel()
		active.closeLive()
		active.setState(domain.SessionStateIdle)
		c.events.SessionError(domain.ErrorCodeDeviceUnavailable, err.Error())
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonDeviceLost)
		c.log.Error().Err(err).Str("session", active.id).Msg("capture device lost")
	case <-active.ctx.Done():
	}
}
