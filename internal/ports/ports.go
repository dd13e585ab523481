package ports

import (
	"context"
	"time"

	"github.com/Ester-D-Kate/Audio-Flow/internal/domain"
)

// AudioConfig describes how the microphone should be segmented.
type AudioConfig struct {
	SampleRate int
	Channels   int
	BlockSize  int
	// SegmentDuration is the length of one capture window.
	SegmentDuration time.Duration
	// SegmentOverlap is how much consecutive windows share, so words on a
	// window edge are captured twice and deduplicated on concatenation.
	SegmentOverlap time.Duration
}

// SampleStream delivers raw microphone blocks until closed.
type SampleStream interface {
	// ReadBlock returns the next block of interleaved samples. A device
	// failure is returned as a non-nil error and ends the stream.
	ReadBlock() ([]int16, error)
	Close() error
}

// SampleSource opens the capture device.
type SampleSource interface {
	Open(ctx context.Context, cfg AudioConfig) (SampleStream, error)
}

// CaptureSession is one live segmented recording.
type CaptureSession interface {
	// Pause suspends capture and returns once the worker has acknowledged
	// the suspension, so no partially captured block is lost.
	Pause(ctx context.Context) error
	Resume() error
	// Stop ends capture and returns the gapless, de-overlapped waveform.
	Stop() (domain.Recording, error)
	// Cancel ends capture and discards everything.
	Cancel() error
	// Fatal reports a terminal capture error (for example device loss).
	Fatal() <-chan error
	// Levels emits normalized [0,1] microphone levels for the overlay.
	Levels() <-chan float64
	// Frames emits best-effort copies of captured blocks for live feeds.
	Frames() <-chan []int16
}

// AudioCapture creates segmented capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (CaptureSession, error)
}

// SpeechService is the hosted transcription/generation API.
type SpeechService interface {
	// Transcribe converts a WAV payload into raw text.
	Transcribe(ctx context.Context, wav []byte) (string, error)
	// FormatTranscript cleans dictated speech into written text.
	FormatTranscript(ctx context.Context, transcript string) (string, error)
	// GenerateText treats the transcript as an instruction and generates text.
	GenerateText(ctx context.Context, instruction string) (string, error)
}

// LiveConfig describes an interim live-transcription stream.
type LiveConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
}

// LiveSession is an active interim transcription stream.
type LiveSession interface {
	SendAudio(chunk []byte) error
	Events() <-chan domain.TranscriptEvent
	Close() error
}

// LiveTranscriber starts optional interim transcription for overlay feedback.
// It is advisory only: failures must never fail the session.
type LiveTranscriber interface {
	Start(ctx context.Context, cfg LiveConfig) (LiveSession, error)
}

// TextInjector delivers final text into the current OS input focus.
type TextInjector interface {
	Type(ctx context.Context, text string) error
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// TextRules applies deterministic user substitutions to final text.
type TextRules interface {
	Apply(text string) (string, error)
}

// Notifier raises a desktop notification.
type Notifier interface {
	Notify(title string, body string) error
}

// EventSink emits backend state/events to the overlay.
type EventSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	Level(sample domain.LevelSample)
	PartialTranscript(text string)
	ResultDelivered(result domain.SendResult)
	SessionError(code domain.ErrorCode, detail string)
}
