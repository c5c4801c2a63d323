//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract wraps one long-lived gosseract client.
type Tesseract struct {
	client    *gosseract.Client
	languages []string
}

// NewTesseract loads the given traineddata languages ("eng" when empty).
func NewTesseract(languages []string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("tesseract language %v: %w", languages, err)
	}
	return &Tesseract{client: client, languages: languages}, nil
}

func (t *Tesseract) Name() string { return "tesseract:" + strings.Join(t.languages, "+") }

func (t *Tesseract) Ping(ctx context.Context) error {
	if t.client == nil {
		return fmt.Errorf("tesseract client closed")
	}
	return ctx.Err()
}

// Recognize returns one fragment per detected text line, in reading order.
func (t *Tesseract) Recognize(ctx context.Context, png []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("tesseract image: %w", err)
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognize: %w", err)
	}

	var fragments []string
	for _, b := range boxes {
		if w := strings.TrimSpace(b.Word); w != "" {
			fragments = append(fragments, w)
		}
	}
	return fragments, nil
}

func (t *Tesseract) Close() error {
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}
