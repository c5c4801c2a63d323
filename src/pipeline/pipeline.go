// Package pipeline sequences capture, recognition, translation and result
// delivery, stopping at the first failing stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"screen-translator/src/apperr"
	"screen-translator/src/capture"
	"screen-translator/src/logutil"
	"screen-translator/src/service"
)

const (
	StageHealth    = "health"
	StageCapture   = "capture"
	StageRecognize = "recognize"
	StageTranslate = "translate"
	StagePresent   = "present"

	defaultDeadline = 20 * time.Second
)

// Backend is the routing service, in-process or remote.
type Backend interface {
	Recognize(ctx context.Context, png []byte) (service.Recognition, error)
	Translate(ctx context.Context, text string) (service.TranslationResult, error)
	HealthCheck(ctx context.Context) service.Health
}

// CaptureFunc runs one interactive capture session.
type CaptureFunc func(ctx context.Context) (capture.Result, error)

// Target receives a successful result.
type Target interface {
	Name() string
	Deliver(Result) error
}

type Options struct {
	Backend Backend
	// Capture is skipped when ImagePath is set.
	Capture   CaptureFunc
	ImagePath string
	Targets   []Target
	// Deadline bounds recognize and translate separately.
	Deadline   time.Duration
	SkipHealth bool
}

type Result struct {
	ImagePath   string
	Recognition service.Recognition
	Translation service.TranslationResult
}

// Run executes the pipeline. Every returned error is an *apperr.Error
// carrying the failing stage.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Backend == nil {
		return Result{}, apperr.WithStage(errors.New("backend is required"), StageHealth, apperr.Internal)
	}
	if opts.Capture == nil && opts.ImagePath == "" {
		return Result{}, apperr.WithStage(errors.New("capture or image path is required"), StageCapture, apperr.Internal)
	}
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = defaultDeadline
	}

	if !opts.SkipHealth {
		h := opts.Backend.HealthCheck(ctx)
		if !h.OK {
			down := h.Unavailable()
			err := apperr.New(apperr.EngineUnavailable, "not ready: "+strings.Join(down, ", "))
			for _, key := range down {
				log.Printf("Pipeline: %s unhealthy: %s", key, h.Engines[key].Error)
			}
			return Result{}, apperr.WithStage(err, StageHealth, apperr.EngineUnavailable)
		}
	}

	res := Result{ImagePath: opts.ImagePath}
	if res.ImagePath == "" {
		shot, err := opts.Capture(ctx)
		if err != nil {
			return Result{}, apperr.WithStage(err, StageCapture, apperr.CaptureFailed)
		}
		res.ImagePath = shot.Path
		log.Printf("Pipeline: captured %v on surface %d", shot.Global(), shot.Surface.Index)
	}

	png, err := readImage(res.ImagePath)
	if err != nil {
		return Result{}, apperr.WithStage(err, StageCapture, apperr.CaptureFailed)
	}

	recCtx, cancel := context.WithTimeout(ctx, deadline)
	rec, err := opts.Backend.Recognize(recCtx, png)
	cancel()
	if err != nil {
		return Result{}, apperr.WithStage(classify(apperr.RecognitionFailed, err), StageRecognize, apperr.RecognitionFailed)
	}
	if rec.Empty {
		return Result{}, apperr.WithStage(apperr.NewEmpty(), StageRecognize, apperr.RecognitionEmpty)
	}
	res.Recognition = rec
	log.Printf("Pipeline: recognized %q", logutil.Sanitize(rec.Text))

	trCtx, cancel := context.WithTimeout(ctx, deadline)
	tr, err := opts.Backend.Translate(trCtx, rec.Text)
	cancel()
	if err != nil {
		return Result{}, apperr.WithStage(classify(apperr.TranslationFailed, err), StageTranslate, apperr.TranslationFailed)
	}
	res.Translation = tr
	log.Printf("Pipeline: translated via %s", tr.Source)

	for _, t := range opts.Targets {
		if err := t.Deliver(res); err != nil {
			return Result{}, apperr.WithStage(fmt.Errorf("%s: %w", t.Name(), err), StagePresent, apperr.PresentFailed)
		}
	}
	return res, nil
}

// classify keeps structured errors and turns bare transport or deadline
// errors into code, with the timeout reason for deadline overruns.
func classify(code apperr.ErrorCode, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Timeout(code, err)
}

func readImage(path string) ([]byte, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("capture output missing: %w", err)
	}
	if st.Size() == 0 {
		return nil, fmt.Errorf("capture output %s is empty", path)
	}
	return os.ReadFile(path)
}

// ExitCode maps a pipeline outcome to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Message is the one-line diagnostic printed for a failed run.
func Message(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CaptureCancelled:
		return "capture cancelled"
	case apperr.RecognitionEmpty:
		return "no text found"
	case apperr.EngineUnavailable:
		return fmt.Sprintf("engines not ready, refusing to start (%v)", err)
	}
	if apperr.IsTimeout(err) {
		return fmt.Sprintf("%s timed out", apperr.StageOf(err))
	}
	return err.Error()
}
