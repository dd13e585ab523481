package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores runtime configuration for the dictation overlay.
type Config struct {
	Groq     GroqConfig
	Deepgram DeepgramConfig
	Audio    AudioConfig
	Rules    RulesConfig
	Inject   InjectConfig
	Log      LogConfig
	Hotkeys  map[string]string
}

type GroqConfig struct {
	APIKeys        []string
	APIBaseURL     string
	WhisperModel   string
	FormatModel    string
	PromptModel    string
	RequestTimeout time.Duration
	KeyCooldown    time.Duration
}

type DeepgramConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Language   string
}

type AudioConfig struct {
	SampleRate      int
	Channels        int
	BlockSize       int
	SegmentDuration time.Duration
	SegmentOverlap  time.Duration
}

type RulesConfig struct {
	Path           string
	IterationLimit int
}

type InjectConfig struct {
	PasteDelay time.Duration
}

type LogConfig struct {
	Path          string
	FormattedPath string
	Debug         bool
}

// Load resolves configuration from a .env file, environment variables,
// an optional config.json, and sensible defaults. Real environment
// variables win over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}
	configDir := filepath.Join(home, ".config", "audio-flow")

	defaultRules := filepath.Join(configDir, "keywords.rules")
	rulesPath := strings.TrimSpace(os.Getenv("AUDIO_FLOW_RULES_FILE"))
	if rulesPath == "" {
		rulesPath = defaultRules
	}

	cfg := Config{
		Groq: GroqConfig{
			APIKeys:        groqKeys(),
			APIBaseURL:     envOrDefault("GROQ_API_BASE", "https://api.groq.com/openai/v1"),
			WhisperModel:   envOrDefault("GROQ_WHISPER_MODEL", "whisper-large-v3"),
			FormatModel:    envOrDefault("GROQ_FORMAT_MODEL", "llama-3.3-70b-versatile"),
			PromptModel:    envOrDefault("GROQ_PROMPT_MODEL", "meta-llama/llama-4-maverick-17b-128e-instruct"),
			RequestTimeout: envOrDefaultDuration("AUDIO_FLOW_REQUEST_TIMEOUT_MS", 60*time.Second),
			KeyCooldown:    envOrDefaultDuration("AUDIO_FLOW_KEY_COOLDOWN_MS", 5*time.Minute),
		},
		Deepgram: DeepgramConfig{
			APIKey:     strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL: envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:      envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:   strings.TrimSpace(os.Getenv("DEEPGRAM_LANGUAGE")),
		},
		Audio: AudioConfig{
			SampleRate:      envOrDefaultInt("AUDIO_FLOW_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("AUDIO_FLOW_CHANNELS", 1),
			BlockSize:       envOrDefaultInt("AUDIO_FLOW_BLOCK_SIZE", 1024),
			SegmentDuration: envOrDefaultDuration("AUDIO_FLOW_SEGMENT_MS", 15*time.Second),
			SegmentOverlap:  envOrDefaultDuration("AUDIO_FLOW_OVERLAP_MS", 3*time.Second),
		},
		Rules: RulesConfig{
			Path:           rulesPath,
			IterationLimit: envOrDefaultInt("AUDIO_FLOW_RULE_ITERATION_LIMIT", 10),
		},
		Inject: InjectConfig{
			PasteDelay: envOrDefaultDuration("AUDIO_FLOW_PASTE_DELAY_MS", 150*time.Millisecond),
		},
		Log: LogConfig{
			Path:          envOrDefault("AUDIO_FLOW_LOG_FILE", "audio_flow.log"),
			FormattedPath: envOrDefault("AUDIO_FLOW_FORMATTED_LOG", "formatted.log"),
			Debug:         envOrDefaultBool("AUDIO_FLOW_DEBUG", false),
		},
		Hotkeys: map[string]string{},
	}

	hotkeys, err := loadHotkeys(configDir)
	if err != nil {
		return Config{}, err
	}
	cfg.Hotkeys = hotkeys

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.BlockSize < 64 {
		cfg.Audio.BlockSize = 1024
	}
	if cfg.Audio.SegmentDuration <= 0 {
		cfg.Audio.SegmentDuration = 15 * time.Second
	}
	if cfg.Audio.SegmentOverlap < 0 {
		cfg.Audio.SegmentOverlap = 0
	}
	if cfg.Audio.SegmentOverlap >= cfg.Audio.SegmentDuration {
		cfg.Audio.SegmentOverlap = cfg.Audio.SegmentDuration / 5
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 10
	}
	if cfg.Groq.KeyCooldown <= 0 {
		cfg.Groq.KeyCooldown = 5 * time.Minute
	}

	return cfg, nil
}

// loadHotkeys reads the optional hotkeys object from config.json. The
// file is searched in the working directory first, then in the user
// config directory; AUDIO_FLOW_CONFIG overrides both. A missing file
// leaves all bindings on their defaults.
func loadHotkeys(configDir string) (map[string]string, error) {
	v := viper.New()
	if explicit := strings.TrimSpace(os.Getenv("AUDIO_FLOW_CONFIG")); explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	raw := v.GetStringMapString("hotkeys")
	hotkeys := make(map[string]string, len(raw))
	for action, spec := range raw {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		hotkeys[strings.ToLower(strings.TrimSpace(action))] = spec
	}
	return hotkeys, nil
}

// groqKeys gathers API keys from GROQ_API_KEYS (comma separated) or,
// failing that, from GROQ_API_KEY plus numbered GROQ_API_KEY_2,
// GROQ_API_KEY_3 and so on.
func groqKeys() []string {
	if combined := strings.TrimSpace(os.Getenv("GROQ_API_KEYS")); combined != "" {
		var keys []string
		for _, key := range strings.Split(combined, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
		return keys
	}

	var keys []string
	if key := strings.TrimSpace(os.Getenv("GROQ_API_KEY")); key != "" {
		keys = append(keys, key)
	}
	for i := 2; ; i++ {
		key := strings.TrimSpace(os.Getenv("GROQ_API_KEY_" + strconv.Itoa(i)))
		if key == "" {
			break
		}
		keys = append(keys, key)
	}
	return keys
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}
