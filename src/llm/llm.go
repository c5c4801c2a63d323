package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	APIKey    string
	Model     string
	Providers []string
	// BaseURL overrides the OpenRouter endpoint; tests point it at httptest.
	BaseURL string
}

// OpenRouter API structures
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	Quantizations  []string `json:"quantizations,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Provider    *ProviderPreferences `json:"provider,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // Can be string or number
}

const (
	openRouterURL  = "https://openrouter.ai/api/v1/chat/completions"
	maxRetries     = 3
	initialDelay   = 1 * time.Second
	requestTimeout = 45 * time.Second

	// NoTextMarker is what the vision prompt asks the model to answer with
	// when the image holds no text.
	NoTextMarker = "NO_TEXT_FOUND"

	visionPrompt = "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
		"- No formatting\n" +
		"- No XML/HTML tags\n" +
		"- No markdown\n" +
		"- No explanations\n" +
		"- Preserve line breaks accurately from the visual layout.\n" +
		"If no text found, return '" + NoTextMarker + "'"
)

var (
	ErrNotConfigured = errors.New("LLM client not configured")
	ErrEmptyResponse = errors.New("no choices in API response")
)

// Client talks to an OpenRouter-compatible chat completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openRouterURL
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: requestTimeout}}
}

func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) validate() error {
	if c == nil {
		return ErrNotConfigured
	}
	if c.cfg.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrNotConfigured)
	}
	if c.cfg.Model == "" {
		return fmt.Errorf("%w: model is required", ErrNotConfigured)
	}
	return nil
}

// Ping verifies configuration without spending a request.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}
	return ctx.Err()
}

// getProviderPreferences returns provider preferences based on config
func (c *Client) getProviderPreferences() *ProviderPreferences {
	if len(c.cfg.Providers) == 0 {
		return nil
	}

	allowFallbacks := false
	return &ProviderPreferences{
		Order:          c.cfg.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// QueryVision sends a PNG to the vision model and returns the raw text. An
// image without text yields "" and no error.
func (c *Client) QueryVision(ctx context.Context, imageData []byte) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}

	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageData)
	request := ChatRequest{
		Model: c.cfg.Model,
		Messages: []Message{{
			Role: "user",
			Content: []Content{
				{Type: "text", Text: visionPrompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
			},
		}},
		Temperature: 0.1,
		MaxTokens:   2000,
		Provider:    c.getProviderPreferences(),
	}

	text, err := c.complete(ctx, request)
	if err != nil {
		return "", err
	}
	text = cleanExtractedText(strings.TrimSpace(text))
	if text == NoTextMarker {
		return "", nil
	}
	return text, nil
}

// Complete sends a plain text prompt and returns the reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	request := ChatRequest{
		Model: c.cfg.Model,
		Messages: []Message{{
			Role:    "user",
			Content: []Content{{Type: "text", Text: prompt}},
		}},
		Temperature: 0.1,
		MaxTokens:   2000,
		Provider:    c.getProviderPreferences(),
	}
	text, err := c.complete(ctx, request)
	return strings.TrimSpace(text), err
}

// complete runs the request with retry and backoff. Context cancellation
// stops retries immediately.
func (c *Client) complete(ctx context.Context, request ChatRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(initialDelay) * (1.5 * float64(attempt)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		response, err := c.makeAPIRequest(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Printf("llm: attempt %d failed: %v", attempt+1, err)
			lastErr = err
			continue
		}
		if len(response.Choices) == 0 {
			lastErr = ErrEmptyResponse
			continue
		}
		return response.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) makeAPIRequest(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("X-Title", "Screen Translator")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return &response, nil
}

func cleanExtractedText(text string) string {
	if text == "</image>" {
		return ""
	}
	return strings.TrimSuffix(text, "</image>")
}
