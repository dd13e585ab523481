package bootstrap

import (
	"github.com/rs/zerolog"

	"github.com/Ester-D-Kate/Audio-Flow/internal/audio"
	"github.com/Ester-D-Kate/Audio-Flow/internal/config"
	"github.com/Ester-D-Kate/Audio-Flow/internal/hotkey"
	"github.com/Ester-D-Kate/Audio-Flow/internal/inject"
	"github.com/Ester-D-Kate/Audio-Flow/internal/keypool"
	"github.com/Ester-D-Kate/Audio-Flow/internal/logging"
	"github.com/Ester-D-Kate/Audio-Flow/internal/notify"
	"github.com/Ester-D-Kate/Audio-Flow/internal/ports"
	"github.com/Ester-D-Kate/Audio-Flow/internal/providers/deepgram"
	"github.com/Ester-D-Kate/Audio-Flow/internal/providers/groq"
	"github.com/Ester-D-Kate/Audio-Flow/internal/rules"
	"github.com/Ester-D-Kate/Audio-Flow/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Hotkeys    *hotkey.Source
	Config     config.Config
	Log        zerolog.Logger

	// Close releases process-wide resources (the log file).
	Close func()
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	log, closeLog, err := logging.Setup(cfg.Log.Path, cfg.Log.Debug)
	if err != nil {
		return Services{}, err
	}

	keys, err := keypool.New(cfg.Groq.APIKeys, cfg.Groq.KeyCooldown)
	if err != nil {
		closeLog()
		return Services{}, err
	}

	rulesEngine, err := rules.Load(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		closeLog()
		return Services{}, err
	}

	hotkeys, err := hotkey.NewSource(hotkeyOverrides(cfg.Hotkeys))
	if err != nil {
		closeLog()
		return Services{}, err
	}

	speech := groq.NewClient(groq.Config{
		BaseURL:        cfg.Groq.APIBaseURL,
		WhisperModel:   cfg.Groq.WhisperModel,
		FormatModel:    cfg.Groq.FormatModel,
		PromptModel:    cfg.Groq.PromptModel,
		RequestTimeout: cfg.Groq.RequestTimeout,
	}, keys)

	var live ports.LiveTranscriber
	if feed := deepgram.NewFeed(deepgram.Config{
		APIKey:     cfg.Deepgram.APIKey,
		APIBaseURL: cfg.Deepgram.APIBaseURL,
		Model:      cfg.Deepgram.Model,
		Language:   cfg.Deepgram.Language,
	}); feed.Enabled() {
		live = feed
	}

	clipboard := inject.SystemClipboard{}
	controller := usecase.NewSessionController(
		audio.NewSegmenter(audio.NewPortAudioSource()),
		speech,
		live,
		audio.EncodeWAV,
		rulesEngine,
		inject.NewPasteInjector(clipboard),
		clipboard,
		&notify.Desktop{},
		eventSink,
		log,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:      cfg.Audio.SampleRate,
				Channels:        cfg.Audio.Channels,
				BlockSize:       cfg.Audio.BlockSize,
				SegmentDuration: cfg.Audio.SegmentDuration,
				SegmentOverlap:  cfg.Audio.SegmentOverlap,
			},
			Live: ports.LiveConfig{
				SampleRate:     cfg.Audio.SampleRate,
				Channels:       cfg.Audio.Channels,
				Encoding:       "linear16",
				InterimResults: true,
			},
			ArchivePath: cfg.Log.FormattedPath,
		},
	)

	log.Info().
		Int("api_keys", keys.Len()).
		Bool("live_feed", live != nil).
		Int("rules", rulesEngine.Len()).
		Msg("backend assembled")

	return Services{
		Controller: controller,
		Hotkeys:    hotkeys,
		Config:     cfg,
		Log:        log,
		Close:      closeLog,
	}, nil
}

func hotkeyOverrides(raw map[string]string) map[hotkey.Action]string {
	overrides := make(map[hotkey.Action]string, len(raw))
	for action, spec := range raw {
		overrides[hotkey.Action(action)] = spec
	}
	return overrides
}
