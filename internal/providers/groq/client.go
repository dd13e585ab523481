package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Ester-D-Kate/Audio-Flow/internal/keypool"
)

// Config controls the Groq API client.
type Config struct {
	BaseURL        string
	WhisperModel   string
	FormatModel    string
	PromptModel    string
	RequestTimeout time.Duration
}

// Client talks to Groq's OpenAI-compatible API. Every outbound call
// borrows a credential from the pool; a rate-limited key is cooled and
// the call retried once with the next key in rotation.
type Client struct {
	cfg  Config
	keys *keypool.Pool
	http *http.Client
}

func NewClient(cfg Config, keys *keypool.Pool) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = "whisper-large-v3"
	}
	if cfg.FormatModel == "" {
		cfg.FormatModel = "llama-3.3-70b-versatile"
	}
	if cfg.PromptModel == "" {
		cfg.PromptModel = "meta-llama/llama-4-maverick-17b-128e-instruct"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		keys: keys,
		http: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Transcribe uploads the session WAV and returns the raw transcript.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	var text string
	err := c.withRotation(ctx, func(ctx context.Context, api *openai.Client) error {
		resp, err := api.CreateTranscription(ctx, openai.AudioRequest{
			Model:    c.cfg.WhisperModel,
			FilePath: "session.wav",
			Reader:   bytes.NewReader(wav),
		})
		if err != nil {
			return err
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// FormatTranscript cleans dictated speech into written text.
func (c *Client) FormatTranscript(ctx context.Context, transcript string) (string, error) {
	user := fmt.Sprintf("Format: %q\n\nReturn: {\"finalTranscript\": \"...\"}", transcript)
	content, err := c.chat(ctx, c.cfg.FormatModel, formatterSystemPrompt, user, 0.1)
	if err != nil {
		return "", err
	}
	return extractField(content, "finalTranscript"), nil
}

// GenerateText treats the transcript as an instruction and generates text.
func (c *Client) GenerateText(ctx context.Context, instruction string) (string, error) {
	user := fmt.Sprintf("REQUEST: %s\n\nReturn: {\"generatedText\": \"...\"}", instruction)
	content, err := c.chat(ctx, c.cfg.PromptModel, generatorSystemPrompt, user, 0.2)
	if err != nil {
		return "", err
	}
	return extractField(content, "generatedText"), nil
}

func (c *Client) chat(ctx context.Context, model string, system string, user string, temperature float32) (string, error) {
	var content string
	err := c.withRotation(ctx, func(ctx context.Context, api *openai.Client) error {
		resp, err := api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       model,
			Temperature: temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty completion response")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// withRotation runs one API call with credential rotation: a 429 cools
// the chosen key and retries exactly once with the next key.
func (c *Client) withRotation(ctx context.Context, call func(ctx context.Context, api *openai.Client) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	for attempt := 0; attempt < 2; attempt++ {
		key, err := c.keys.Next()
		if err != nil {
			if errors.Is(err, keypool.ErrRateLimited) {
				return c.coolingDown()
			}
			return err
		}

		err = call(ctx, c.clientFor(key))
		if err == nil {
			c.keys.MarkHealthy(key)
			return nil
		}
		if isRateLimited(err) {
			// Retry-After is not exposed through the client error type,
			// so the pool's fallback cooldown applies.
			c.keys.MarkRateLimited(key, 0)
			continue
		}
		return fmt.Errorf("groq request failed: %w", err)
	}
	return c.coolingDown()
}

// coolingDown reports a fully cooled pool together with how long until
// the soonest credential frees up again.
func (c *Client) coolingDown() error {
	_, wait := c.keys.Earliest()
	if wait <= 0 {
		return keypool.ErrRateLimited
	}
	return fmt.Errorf("next key usable in %s: %w", wait.Round(time.Second), keypool.ErrRateLimited)
}

func (c *Client) clientFor(key string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = c.cfg.BaseURL
	cfg.HTTPClient = c.http
	return openai.NewClientWithConfig(cfg)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// extractField pulls one string field out of a JSON-object completion.
// Models occasionally ignore the JSON instruction, so the raw content is
// the fallback.
func extractField(content string, field string) string {
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err == nil {
		if value, ok := payload[field].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(content)
}
