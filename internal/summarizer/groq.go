package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dejoiner/dejoiner/internal/retry"
	"github.com/dejoiner/dejoiner/pkg/types"
)

const (
	// DefaultBaseURL is the chat-completions endpoint root
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is fast and cheap enough for per-link summaries
	DefaultModel = "llama-3.1-8b-instant"

	summarizePrompt = "You are a technical summarizer. Summarize the provided content " +
		"(which matches a design resource or code repository) into ONE concise sentence " +
		"(max 20 words) explaining its purpose."

	analyzePrompt = "You are a Design Systems Architect. Analyze the provided Figma file " +
		"structure and return a JSON object with: \"summary\" (one sentence descriptive " +
		"summary), \"milestone\" (the most important frame/status, e.g. \"Draft\", " +
		"\"Review\", \"Final\"), and \"keyFrames\" (an array of the top 3 most important " +
		"frame names based on design hierarchy)."

	requestTimeout = 30 * time.Second
)

// KeyFunc supplies the current API key; keys live in runtime settings
type KeyFunc func(ctx context.Context) (string, error)

// StaticKey wraps a fixed key as a KeyFunc
func StaticKey(key string) KeyFunc {
	return func(context.Context) (string, error) {
		return key, nil
	}
}

// GroqClient implements Provider over an OpenAI-compatible chat-completions
// API
type GroqClient struct {
	key        KeyFunc
	model      string
	baseURL    string
	httpClient *http.Client
	retry      retry.Config
	logger     *zap.Logger
}

// Option customizes a GroqClient
type Option func(*GroqClient)

// WithBaseURL points the client at a different API root (tests)
func WithBaseURL(baseURL string) Option {
	return func(c *GroqClient) { c.baseURL = baseURL }
}

// WithModel overrides the completion model
func WithModel(model string) Option {
	return func(c *GroqClient) { c.model = model }
}

// WithRetry overrides the backoff configuration
func WithRetry(cfg retry.Config) Option {
	return func(c *GroqClient) { c.retry = cfg }
}

// NewGroqClient creates a chat-completions summarizer
func NewGroqClient(key KeyFunc, logger *zap.Logger, opts ...Option) *GroqClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &GroqClient{
		key:     key,
		model:   DefaultModel,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		retry:  retry.DefaultConfig(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize implements Provider
func (c *GroqClient) Summarize(ctx context.Context, text string) (string, error) {
	content, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: summarizePrompt},
			{Role: "user", Content: text},
		},
		MaxTokens:   60,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// AnalyzeStructure implements Provider
func (c *GroqClient) AnalyzeStructure(ctx context.Context, fileName string, manifest []types.PageSummary) (*Analysis, error) {
	structure, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: analyzePrompt},
			{Role: "user", Content: fmt.Sprintf("File Name: %s\nStructure Manifest: %s", fileName, structure)},
		},
		MaxTokens:   200,
		Temperature: 0.2,
	}
	req.ResponseFormat = &struct {
		Type string `json:"type"`
	}{Type: "json_object"}

	content, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return &analysis, nil
}

func (c *GroqClient) complete(ctx context.Context, request chatRequest) (string, error) {
	key, err := c.key(ctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrMissingAPIKey
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	body, err := retry.Do(ctx, c.retry, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+key)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("api error %d", resp.StatusCode)
		}
		return data, nil
	})
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
