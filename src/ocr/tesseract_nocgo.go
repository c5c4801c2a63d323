//go:build !cgo

package ocr

import (
	"context"
	"errors"

	"screen-translator/src/apperr"
)

var errNoCgo = errors.New("binary built without cgo; tesseract is not available")

// Tesseract is unavailable in non-cgo builds.
type Tesseract struct{}

func NewTesseract(languages []string) (*Tesseract, error) {
	return nil, apperr.NewUnavailable("tesseract", errNoCgo)
}

func (*Tesseract) Name() string { return "tesseract" }

func (*Tesseract) Ping(context.Context) error {
	return apperr.NewUnavailable("tesseract", errNoCgo)
}

func (*Tesseract) Recognize(context.Context, []byte) ([]string, error) {
	return nil, apperr.NewUnavailable("tesseract", errNoCgo)
}

func (*Tesseract) Close() error { return nil }
