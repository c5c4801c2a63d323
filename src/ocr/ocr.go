// Package ocr holds the text recognition engines. Each engine turns a PNG
// into an ordered list of text fragments.
package ocr

import (
	"context"
	"strings"

	"screen-translator/src/apperr"
	"screen-translator/src/llm"
)

// Recognizer is a recognition engine handle. Implementations are not
// required to be reentrant; callers serialize access.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) ([]string, error)
	Ping(ctx context.Context) error
	Name() string
	Close() error
}

// Lines splits text into trimmed non-empty lines.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Vision recognizes text with an OpenRouter vision model.
type Vision struct {
	client *llm.Client
}

func NewVision(client *llm.Client) *Vision {
	return &Vision{client: client}
}

func (v *Vision) Name() string { return "openrouter:" + v.client.Model() }

func (v *Vision) Ping(ctx context.Context) error {
	if err := v.client.Ping(ctx); err != nil {
		return apperr.NewUnavailable(v.Name(), err)
	}
	return nil
}

func (v *Vision) Recognize(ctx context.Context, png []byte) ([]string, error) {
	text, err := v.client.QueryVision(ctx, png)
	if err != nil {
		return nil, err
	}
	return Lines(text), nil
}

func (v *Vision) Close() error { return nil }
