package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Ester-D-Kate/Audio-Flow/internal/domain"
	"github.com/Ester-D-Kate/Audio-Flow/internal/ports"
)

// Config controls the Deepgram live transcription feed.
type Config struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Language   string
}

// Feed provides interim transcripts over a Deepgram websocket so the
// overlay can show text while recording is still in progress. It is
// purely advisory; the authoritative transcript comes from the batch
// API after the session is sent.
type Feed struct {
	cfg Config
}

func NewFeed(cfg Config) *Feed {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Feed{cfg: cfg}
}

// Enabled reports whether a credential is configured.
func (f *Feed) Enabled() bool {
	return strings.TrimSpace(f.cfg.APIKey) != ""
}

func (f *Feed) Start(ctx context.Context, cfg ports.LiveConfig) (ports.LiveSession, error) {
	if !f.Enabled() {
		return nil, errors.New("deepgram api key is not configured")
	}

	endpoint, err := listenURL(f.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+f.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial deepgram: %w", err)
	}

	session := &liveSession{
		conn:   conn,
		events: make(chan domain.TranscriptEvent, 64),
		closed: make(chan struct{}),
	}
	go session.readLoop()
	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()
	return session, nil
}

type liveSession struct {
	conn   *websocket.Conn
	events chan domain.TranscriptEvent
	closed chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *liveSession) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	select {
	case <-s.closed:
		return errors.New("live session is closed")
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("failed to send live audio: %w", err)
	}
	return nil
}

func (s *liveSession) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *liveSession) Close() error {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
		s.writeMu.Unlock()
		close(s.closed)
		_ = s.conn.Close()
	})
	return nil
}

func (s *liveSession) readLoop() {
	defer close(s.events)

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			_ = s.Close()
			return
		}

		text, final, ok := parseLiveMessage(payload)
		if !ok {
			continue
		}
		select {
		case s.events <- domain.TranscriptEvent{Text: text, Final: final}:
		case <-s.closed:
			return
		default:
			// The overlay only needs the freshest text; drop on backlog.
		}
	}
}

type liveMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func parseLiveMessage(payload []byte) (text string, final bool, ok bool) {
	var msg liveMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return "", false, false
	}
	if strings.EqualFold(msg.Type, "Error") {
		return "", false, false
	}
	if len(msg.Channel.Alternatives) == 0 {
		return "", false, false
	}
	text = strings.TrimSpace(msg.Channel.Alternatives[0].Transcript)
	if text == "" {
		return "", false, false
	}
	return text, msg.IsFinal, true
}

func listenURL(cfg Config, live ports.LiveConfig) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	endpoint, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid deepgram base url: %w", err)
	}

	if live.Encoding == "" {
		live.Encoding = "linear16"
	}
	if live.SampleRate <= 0 {
		live.SampleRate = 16000
	}
	if live.Channels <= 0 {
		live.Channels = 1
	}

	query := endpoint.Query()
	query.Set("model", cfg.Model)
	query.Set("encoding", live.Encoding)
	query.Set("sample_rate", strconv.Itoa(live.SampleRate))
	query.Set("channels", strconv.Itoa(live.Channels))
	query.Set("interim_results", strconv.FormatBool(live.InterimResults))
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	}
	endpoint.RawQuery = query.Encode()
	return endpoint.String(), nil
}
