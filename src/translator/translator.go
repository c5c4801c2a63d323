// Package translator provides machine translation engines.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"screen-translator/src/apperr"
	"screen-translator/src/llm"
)

// Engine translates free text between two language codes.
type Engine interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Ping(ctx context.Context) error
	Name() string
}

// LibreTranslate talks to a LibreTranslate HTTP server.
type LibreTranslate struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewLibreTranslate(baseURL, apiKey string) *LibreTranslate {
	return &LibreTranslate{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *LibreTranslate) Name() string { return "libretranslate" }

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

func (l *LibreTranslate) Translate(ctx context.Context, text, source, target string) (string, error) {
	form := url.Values{
		"q":      {text},
		"source": {source},
		"target": {target},
		"format": {"text"},
	}
	if l.apiKey != "" {
		form.Set("api_key", l.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := l.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("libretranslate request failed: %w", err)
	}
	defer resp.Body.Close()

	var out libreResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("libretranslate returned status %d: %w", resp.StatusCode, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("libretranslate: %s", out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("libretranslate returned status %d", resp.StatusCode)
	}
	return out.TranslatedText, nil
}

// Ping checks the server answers its language list.
func (l *LibreTranslate) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/languages", nil)
	if err != nil {
		return err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return apperr.NewUnavailable(l.Name(), err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperr.NewUnavailable(l.Name(), fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// OpenRouter translates by prompting a chat model.
type OpenRouter struct {
	client *llm.Client
}

func NewOpenRouter(client *llm.Client) *OpenRouter {
	return &OpenRouter{client: client}
}

func (o *OpenRouter) Name() string { return "openrouter:" + o.client.Model() }

func (o *OpenRouter) Ping(ctx context.Context) error {
	if err := o.client.Ping(ctx); err != nil {
		return apperr.NewUnavailable(o.Name(), err)
	}
	return nil
}

func (o *OpenRouter) Translate(ctx context.Context, text, source, target string) (string, error) {
	return o.client.Complete(ctx, Prompt(text, source, target))
}

// Prompt builds the translation instruction sent to chat models.
func Prompt(text, source, target string) string {
	return fmt.Sprintf("Translate the following text from %s to %s. "+
		"Return ONLY the translation, with no explanations, quotes or markdown.\n\n%s",
		LanguageName(source), LanguageName(target), text)
}

var languageNames = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"ru": "Russian",
	"it": "Italian",
	"pt": "Portuguese",
}

// LanguageName maps a language code to an English name, falling back to the code.
func LanguageName(code string) string {
	if n, ok := languageNames[strings.ToLower(code)]; ok {
		return n
	}
	return code
}
