package domain

import "time"

// SessionState models the recording lifecycle.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateRecording SessionState = "recording"
	SessionStatePaused    SessionState = "paused"
	SessionStateSending   SessionState = "sending"
	SessionStateCancelled SessionState = "cancelled"
	SessionStateDone      SessionState = "done"
)

// Mode selects what the captured speech is used for.
type Mode string

const (
	// ModeTranscribe cleans dictated speech into written text.
	ModeTranscribe Mode = "transcribe"
	// ModePrompt treats the dictation as an instruction and generates text.
	ModePrompt Mode = "prompt"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady              SessionStateReason = "ready"
	SessionReasonRecordingStarted   SessionStateReason = "recording_started"
	SessionReasonRecordingResumed   SessionStateReason = "recording_resumed"
	SessionReasonRecordingPaused    SessionStateReason = "recording_paused"
	SessionReasonSending            SessionStateReason = "sending"
	SessionReasonTextDelivered      SessionStateReason = "text_delivered"
	SessionReasonDeliveryFailed     SessionStateReason = "delivery_failed"
	SessionReasonRecordingDiscarded SessionStateReason = "recording_discarded"
	SessionReasonNoSpeechCaptured   SessionStateReason = "no_speech_captured"
	SessionReasonDeviceLost         SessionStateReason = "device_lost"
	SessionReasonRateLimited        SessionStateReason = "rate_limited"
	SessionReasonAPIFailed          SessionStateReason = "api_failed"
)

// ErrorCode identifies backend errors surfaced to the overlay.
type ErrorCode string

const (
	ErrorCodeStartup           ErrorCode = "startup"
	ErrorCodeHotkey            ErrorCode = "hotkey"
	ErrorCodeDeviceUnavailable ErrorCode = "device_unavailable"
	ErrorCodeRateLimited       ErrorCode = "rate_limited"
	ErrorCodeAPI               ErrorCode = "api_error"
	ErrorCodeInjectionFailed   ErrorCode = "injection_failed"
	ErrorCodeLiveFeed          ErrorCode = "live_feed"
)

// AudioChunk is one captured segment of the session waveform.
// Chunks are immutable once captured and strictly ordered by Seq.
type AudioChunk struct {
	Seq     int
	Start   time.Time
	End     time.Time
	Samples []int16
}

// Duration returns the chunk length for the given sample rate.
func (c AudioChunk) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(sampleRate)
}

// Recording is the concatenated, de-overlapped waveform of one session.
type Recording struct {
	SampleRate int
	Samples    []int16
	Chunks     int
}

// Duration returns the total recording length.
func (r Recording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(r.Samples)) * time.Second / time.Duration(r.SampleRate)
}

// TranscriptEvent is incremental text from the live interim feed.
type TranscriptEvent struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// LevelSample is a normalized [0,1] microphone level for the waveform view.
type LevelSample struct {
	Level float64 `json:"level"`
	At    int64   `json:"at"`
}

// SendResult is produced when a session's audio has been transcribed,
// post-processed and delivered.
type SendResult struct {
	SessionID  string `json:"sessionId"`
	Mode       Mode   `json:"mode"`
	Transcript string `json:"transcript"`
	FinalText  string `json:"finalText"`
	Delivered  bool   `json:"delivered"`
}

// Status summarizes the current session for the overlay.
type Status struct {
	State   SessionState `json:"state"`
	Mode    Mode         `json:"mode,omitempty"`
	Active  bool         `json:"active"`
	Message string       `json:"message,omitempty"`
}
