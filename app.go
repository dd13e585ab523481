package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Ester-D-Kate/Audio-Flow/internal/bootstrap"
	"github.com/Ester-D-Kate/Audio-Flow/internal/config"
	"github.com/Ester-D-Kate/Audio-Flow/internal/domain"
	"github.com/Ester-D-Kate/Audio-Flow/internal/hotkey"
	"github.com/Ester-D-Kate/Audio-Flow/internal/usecase"
)

const (
	eventSession = "audioflow:session"
	eventLevel   = "audioflow:level"
	eventPartial = "audioflow:partial"
	eventResult  = "audioflow:result"
	eventError   = "audioflow:error"
)

// App is the Wails application root and the overlay's event sink.
type App struct {
	ctx context.Context

	controller *usecase.SessionController
	hotkeys    *hotkey.Source
	cfg        config.Config
	log        zerolog.Logger
	closeLog   func()
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.controller = services.Controller
	a.hotkeys = services.Hotkeys
	a.cfg = services.Config
	a.log = services.Log
	a.closeLog = services.Close

	if err := a.hotkeys.Start(); err != nil {
		// The overlay buttons still work without global hotkeys.
		a.log.Warn().Err(err).Msg("global hotkeys unavailable")
		a.SessionError(domain.ErrorCodeHotkey, err.Error())
	}
	go a.handleHotkeys()

	a.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.hotkeys != nil {
		a.hotkeys.Stop()
	}
	if a.controller != nil {
		_ = a.controller.Cancel()
	}
	if a.closeLog != nil {
		a.closeLog()
	}
}

func (a *App) handleHotkeys() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case action := <-a.hotkeys.Events():
			a.dispatch(action)
		}
	}
}

func (a *App) dispatch(action hotkey.Action) {
	var err error
	switch action {
	case hotkey.ActionStart:
		_, err = a.StartTranscribe()
	case hotkey.ActionPrompt:
		_, err = a.StartPrompt()
	case hotkey.ActionStop:
		_, err = a.Send()
	case hotkey.ActionPause:
		_, err = a.TogglePause()
	case hotkey.ActionCancel:
		err = a.Cancel()
	}
	if err != nil {
		a.log.Debug().Err(err).Str("action", string(action)).Msg("hotkey action rejected")
	}
}

// StartTranscribe begins a dictation session.
func (a *App) StartTranscribe() (domain.Status, error) {
	return a.start(domain.ModeTranscribe)
}

// StartPrompt begins a prompt session: the dictation is treated as an
// instruction and the response is typed into focus.
func (a *App) StartPrompt() (domain.Status, error) {
	return a.start(domain.ModePrompt)
}

func (a *App) start(mode domain.Mode) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Start(a.ctx, mode); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// TogglePause suspends or resumes the active recording.
func (a *App) TogglePause() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.TogglePause(a.ctx); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// Send stops recording, transcribes and delivers the result.
func (a *App) Send() (domain.SendResult, error) {
	if err := a.requireReady(); err != nil {
		return domain.SendResult{}, err
	}
	return a.controller.Send(a.ctx)
}

// Cancel discards the active recording.
func (a *App) Cancel() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.Cancel()
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateIdle, Active: false, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle, Active: false}
	}
	return a.controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if err := a.requireReady(); err != nil {
		return map[string]string{"error": err.Error()}
	}

	info := map[string]string{
		"whisperModel": a.cfg.Groq.WhisperModel,
		"formatModel":  a.cfg.Groq.FormatModel,
		"promptModel":  a.cfg.Groq.PromptModel,
		"liveFeed":     fmt.Sprintf("%t", a.cfg.Deepgram.APIKey != ""),
		"rulesFile":    a.cfg.Rules.Path,
	}
	for action, chord := range a.hotkeys.Bindings() {
		info["hotkey."+string(action)] = chord.String()
	}
	return info
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return errors.New("application is not initialized")
	}
	return nil
}

// SessionStateChanged emits session lifecycle updates to the overlay.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

// Level emits a microphone level sample for the waveform view.
func (a *App) Level(sample domain.LevelSample) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventLevel, sample)
}

// PartialTranscript emits live interim transcript text.
func (a *App) PartialTranscript(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPartial, map[string]string{"text": text})
}

// ResultDelivered emits the final session result.
func (a *App) ResultDelivered(result domain.SendResult) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventResult, result)
}

// SessionError emits backend errors to the overlay.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Ready"
	case domain.SessionReasonRecordingStarted:
		return "Recording"
	case domain.SessionReasonRecordingPaused:
		return "Paused"
	case domain.SessionReasonRecordingResumed:
		return "Recording"
	case domain.SessionReasonSending:
		return "Transcribing..."
	case domain.SessionReasonTextDelivered:
		return "Text delivered"
	case domain.SessionReasonDeliveryFailed:
		return "Text ready (typing failed, copied to clipboard)"
	case domain.SessionReasonRecordingDiscarded:
		return "Recording discarded"
	case domain.SessionReasonNoSpeechCaptured:
		return "No speech captured"
	case domain.SessionReasonDeviceLost:
		return "Microphone lost"
	case domain.SessionReasonRateLimited:
		return "All API keys are cooling down"
	case domain.SessionReasonAPIFailed:
		return "Transcription failed"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeHotkey:
		return "Global hotkeys unavailable"
	case domain.ErrorCodeDeviceUnavailable:
		return "Microphone unavailable"
	case domain.ErrorCodeRateLimited:
		return "Rate limited; try again in a few minutes"
	case domain.ErrorCodeAPI:
		return "Transcription service error"
	case domain.ErrorCodeInjectionFailed:
		return "Could not type into the focused window"
	case domain.ErrorCodeLiveFeed:
		return "Live transcript unavailable"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
