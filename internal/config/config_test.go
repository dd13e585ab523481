package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("chdir back failed: %v", err)
		}
	})
}

func TestLoadRespectsOverridesAndFallbacks(t *testing.T) {
	home := t.TempDir()
	chdir(t, t.TempDir())
	rules := filepath.Join(home, "my.rules")
	if err := os.WriteFile(rules, []byte("x => y\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", home)
	t.Setenv("GROQ_API_KEYS", "gk-one , gk-two,")
	t.Setenv("GROQ_API_BASE", "https://example.com/openai/v1")
	t.Setenv("GROQ_WHISPER_MODEL", "whisper-test")
	t.Setenv("GROQ_FORMAT_MODEL", "fmt-test")
	t.Setenv("GROQ_PROMPT_MODEL", "gen-test")
	t.Setenv("AUDIO_FLOW_REQUEST_TIMEOUT_MS", "2500")
	t.Setenv("AUDIO_FLOW_KEY_COOLDOWN_MS", "60000")
	t.Setenv("DEEPGRAM_API_KEY", "dg-key")
	t.Setenv("DEEPGRAM_MODEL", "nova-3")
	t.Setenv("DEEPGRAM_LANGUAGE", "en")
	t.Setenv("AUDIO_FLOW_SAMPLE_RATE", "22050")
	t.Setenv("AUDIO_FLOW_CHANNELS", "2")
	t.Setenv("AUDIO_FLOW_BLOCK_SIZE", "512")
	t.Setenv("AUDIO_FLOW_SEGMENT_MS", "10000")
	t.Setenv("AUDIO_FLOW_OVERLAP_MS", "2000")
	t.Setenv("AUDIO_FLOW_RULES_FILE", rules)
	t.Setenv("AUDIO_FLOW_RULE_ITERATION_LIMIT", "7")
	t.Setenv("AUDIO_FLOW_PASTE_DELAY_MS", "80")
	t.Setenv("AUDIO_FLOW_LOG_FILE", "out.log")
	t.Setenv("AUDIO_FLOW_FORMATTED_LOG", "final.log")
	t.Setenv("AUDIO_FLOW_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(cfg.Groq.APIKeys) != 2 || cfg.Groq.APIKeys[0] != "gk-one" || cfg.Groq.APIKeys[1] != "gk-two" {
		t.Fatalf("unexpected groq keys: %v", cfg.Groq.APIKeys)
	}
	if cfg.Groq.APIBaseURL != "https://example.com/openai/v1" || cfg.Groq.WhisperModel != "whisper-test" {
		t.Fatalf("unexpected groq config: %+v", cfg.Groq)
	}
	if cfg.Groq.FormatModel != "fmt-test" || cfg.Groq.PromptModel != "gen-test" {
		t.Fatalf("unexpected groq models: %+v", cfg.Groq)
	}
	if cfg.Groq.RequestTimeout != 2500*time.Millisecond || cfg.Groq.KeyCooldown != time.Minute {
		t.Fatalf("unexpected groq timings: %+v", cfg.Groq)
	}
	if cfg.Deepgram.APIKey != "dg-key" || cfg.Deepgram.Model != "nova-3" || cfg.Deepgram.Language != "en" {
		t.Fatalf("unexpected deepgram config: %+v", cfg.Deepgram)
	}
	if cfg.Audio.SampleRate != 22050 || cfg.Audio.Channels != 2 || cfg.Audio.BlockSize != 512 {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Audio.SegmentDuration != 10*time.Second || cfg.Audio.SegmentOverlap != 2*time.Second {
		t.Fatalf("unexpected segment timing: %+v", cfg.Audio)
	}
	if cfg.Rules.Path != rules || cfg.Rules.IterationLimit != 7 {
		t.Fatalf("unexpected rules config: %+v", cfg.Rules)
	}
	if cfg.Inject.PasteDelay != 80*time.Millisecond {
		t.Fatalf("unexpected paste delay: %s", cfg.Inject.PasteDelay)
	}
	if cfg.Log.Path != "out.log" || cfg.Log.FormattedPath != "final.log" || !cfg.Log.Debug {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadInvalidValuesFallback(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AUDIO_FLOW_SAMPLE_RATE", "bad")
	t.Setenv("AUDIO_FLOW_CHANNELS", "-1")
	t.Setenv("AUDIO_FLOW_BLOCK_SIZE", "3")
	t.Setenv("AUDIO_FLOW_SEGMENT_MS", "5000")
	t.Setenv("AUDIO_FLOW_OVERLAP_MS", "9000")
	t.Setenv("AUDIO_FLOW_RULE_ITERATION_LIMIT", "0")
	t.Setenv("AUDIO_FLOW_KEY_COOLDOWN_MS", "bad")
	t.Setenv("AUDIO_FLOW_DEBUG", "not-bool")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected default sample rate, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Fatalf("expected default channels, got %d", cfg.Audio.Channels)
	}
	if cfg.Audio.BlockSize != 1024 {
		t.Fatalf("expected block size fallback, got %d", cfg.Audio.BlockSize)
	}
	if cfg.Audio.SegmentOverlap != time.Second {
		t.Fatalf("expected overlap clamped below segment, got %s", cfg.Audio.SegmentOverlap)
	}
	if cfg.Rules.IterationLimit != 10 {
		t.Fatalf("expected default iteration limit, got %d", cfg.Rules.IterationLimit)
	}
	if cfg.Groq.KeyCooldown != 5*time.Minute {
		t.Fatalf("expected default cooldown, got %s", cfg.Groq.KeyCooldown)
	}
	if cfg.Log.Debug {
		t.Fatalf("expected default debug false")
	}
}

func TestLoadCollectsNumberedGroqKeys(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GROQ_API_KEYS", "")
	t.Setenv("GROQ_API_KEY", "key-1")
	t.Setenv("GROQ_API_KEY_2", "key-2")
	t.Setenv("GROQ_API_KEY_3", "key-3")
	// A gap stops the scan.
	t.Setenv("GROQ_API_KEY_5", "orphan")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want := []string{"key-1", "key-2", "key-3"}
	if len(cfg.Groq.APIKeys) != len(want) {
		t.Fatalf("unexpected keys: %v", cfg.Groq.APIKeys)
	}
	for i, key := range want {
		if cfg.Groq.APIKeys[i] != key {
			t.Fatalf("key %d: got %q, want %q", i, cfg.Groq.APIKeys[i], key)
		}
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnv(t *testing.T) {
	dir := t.TempDir()
	env := "GROQ_API_KEY=from-dotenv\nDEEPGRAM_MODEL=from-dotenv\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	chdir(t, dir)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("GROQ_API_KEYS", "")
	t.Setenv("DEEPGRAM_MODEL", "from-env")
	t.Setenv("GROQ_API_KEY", "")
	os.Unsetenv("GROQ_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(cfg.Groq.APIKeys) != 1 || cfg.Groq.APIKeys[0] != "from-dotenv" {
		t.Fatalf("expected dotenv key, got %v", cfg.Groq.APIKeys)
	}
	if cfg.Deepgram.Model != "from-env" {
		t.Fatalf("real environment must win over .env, got %q", cfg.Deepgram.Model)
	}
}

func TestLoadHotkeysFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.json")
	body := `{"hotkeys": {"start": "ctrl+alt+r", "PAUSE": "", "extra": "ctrl+x"}, "theme": "dark"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", t.TempDir())
	t.Setenv("AUDIO_FLOW_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got := cfg.Hotkeys["start"]; got != "ctrl+alt+r" {
		t.Fatalf("unexpected start hotkey: %q", got)
	}
	if _, present := cfg.Hotkeys["pause"]; present {
		t.Fatalf("blank hotkey spec must be dropped")
	}
	if got := cfg.Hotkeys["extra"]; got != "ctrl+x" {
		t.Fatalf("unknown actions pass through for later filtering, got %q", got)
	}
}

func TestLoadMissingConfigFileIsFine(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AUDIO_FLOW_CONFIG", filepath.Join(t.TempDir(), "nope.json"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.Hotkeys) != 0 {
		t.Fatalf("expected no hotkey overrides, got %v", cfg.Hotkeys)
	}
}

func TestLoadMalformedConfigFileFails(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", t.TempDir())
	t.Setenv("AUDIO_FLOW_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}
