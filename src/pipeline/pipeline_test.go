package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"screen-translator/src/apperr"
	"screen-translator/src/capture"
	"screen-translator/src/service"
)

type fakeBackend struct {
	healthy    bool
	fragments  []string
	recErr     error
	trErr      error
	trDelay    time.Duration
	translated []string
}

func (f *fakeBackend) HealthCheck(ctx context.Context) service.Health {
	h := service.Health{OK: f.healthy, Engines: map[string]service.EngineStatus{}}
	if !f.healthy {
		h.Engines["translator"] = service.EngineStatus{Required: true, Error: "connection refused"}
	}
	return h
}

func (f *fakeBackend) Recognize(ctx context.Context, png []byte) (service.Recognition, error) {
	if f.recErr != nil {
		return service.Recognition{}, f.recErr
	}
	text := ""
	for i, frag := range f.fragments {
		if i > 0 {
			text += " "
		}
		text += frag
	}
	return service.Recognition{Text: text, Fragments: f.fragments, Empty: text == ""}, nil
}

func (f *fakeBackend) Translate(ctx context.Context, text string) (service.TranslationResult, error) {
	if f.trDelay > 0 {
		select {
		case <-time.After(f.trDelay):
		case <-ctx.Done():
			return service.TranslationResult{}, ctx.Err()
		}
	}
	if f.trErr != nil {
		return service.TranslationResult{}, f.trErr
	}
	f.translated = append(f.translated, text)
	return service.TranslationResult{Success: true, Text: "你好世界", Source: service.SourceEngine, Query: text}, nil
}

type recordingTarget struct {
	got []Result
	err error
}

func (r *recordingTarget) Name() string { return "recording" }

func (r *recordingTarget) Deliver(res Result) error {
	r.got = append(r.got, res)
	return r.err
}

func writeShot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screenshot.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0600))
	return path
}

func captureOK(path string) CaptureFunc {
	return func(ctx context.Context) (capture.Result, error) {
		return capture.Result{Path: path, Rect: image.Rect(0, 0, 10, 10)}, nil
	}
}

func TestHelloWorldScenario(t *testing.T) {
	b := &fakeBackend{healthy: true, fragments: []string{"Hello", "World"}}
	target := &recordingTarget{}

	res, err := Run(context.Background(), Options{
		Backend: b,
		Capture: captureOK(writeShot(t)),
		Targets: []Target{target},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Hello World"}, b.translated)
	require.Equal(t, service.SourceEngine, res.Translation.Source)
	require.Len(t, target.got, 1)
	require.Zero(t, ExitCode(err))
}

func TestStageFailures(t *testing.T) {
	shot := writeShot(t)
	tests := []struct {
		name    string
		backend *fakeBackend
		capture CaptureFunc
		stage   string
		code    apperr.ErrorCode
	}{
		{
			name:    "unhealthy refuses to start",
			backend: &fakeBackend{},
			capture: func(context.Context) (capture.Result, error) {
				t.Fatal("capture must not run when engines are down")
				return capture.Result{}, nil
			},
			stage: StageHealth,
			code:  apperr.EngineUnavailable,
		},
		{
			name:    "cancelled",
			backend: &fakeBackend{healthy: true},
			capture: func(context.Context) (capture.Result, error) { return capture.Result{}, apperr.NewCancelled() },
			stage:   StageCapture,
			code:    apperr.CaptureCancelled,
		},
		{
			name:    "missing file",
			backend: &fakeBackend{healthy: true},
			capture: captureOK(filepath.Join(t.TempDir(), "nope.png")),
			stage:   StageCapture,
			code:    apperr.CaptureFailed,
		},
		{
			name:    "no text",
			backend: &fakeBackend{healthy: true},
			capture: captureOK(shot),
			stage:   StageRecognize,
			code:    apperr.RecognitionEmpty,
		},
		{
			name:    "recognizer error",
			backend: &fakeBackend{healthy: true, recErr: errors.New("boom")},
			capture: captureOK(shot),
			stage:   StageRecognize,
			code:    apperr.RecognitionFailed,
		},
		{
			name:    "translator error",
			backend: &fakeBackend{healthy: true, fragments: []string{"x"}, trErr: apperr.New(apperr.TranslationFailed, "down")},
			capture: captureOK(shot),
			stage:   StageTranslate,
			code:    apperr.TranslationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &recordingTarget{}
			_, err := Run(context.Background(), Options{Backend: tt.backend, Capture: tt.capture, Targets: []Target{target}})
			require.Error(t, err)
			require.Equal(t, tt.stage, apperr.StageOf(err))
			require.Equal(t, tt.code, apperr.CodeOf(err))
			require.Empty(t, target.got, "no stage after a failure may run")
			require.Equal(t, 1, ExitCode(err))
		})
	}
}

func TestTranslateTimeout(t *testing.T) {
	b := &fakeBackend{healthy: true, fragments: []string{"slow"}, trDelay: time.Second}
	_, err := Run(context.Background(), Options{
		Backend:   b,
		ImagePath: writeShot(t),
		Deadline:  20 * time.Millisecond,
	})
	require.Equal(t, apperr.TranslationFailed, apperr.CodeOf(err))
	require.True(t, apperr.IsTimeout(err))
	require.Equal(t, "translate timed out", Message(err))
}

func TestPresentFailure(t *testing.T) {
	b := &fakeBackend{healthy: true, fragments: []string{"hi"}}
	_, err := Run(context.Background(), Options{
		Backend:   b,
		ImagePath: writeShot(t),
		Targets:   []Target{&recordingTarget{err: errors.New("disk full")}},
	})
	require.Equal(t, StagePresent, apperr.StageOf(err))
	require.Equal(t, apperr.PresentFailed, apperr.CodeOf(err))
}

func TestTargets(t *testing.T) {
	res := Result{
		Recognition: service.Recognition{Text: "Hello World"},
		Translation: service.TranslationResult{Text: "你好世界", Source: service.SourceEngine},
	}

	var buf bytes.Buffer
	require.NoError(t, StdoutTarget{Writer: &buf}.Deliver(res))
	require.Equal(t, "Hello World\n你好世界\n", buf.String())

	dir := filepath.Join(t.TempDir(), "temp")
	require.NoError(t, FileTarget{Dir: dir}.Deliver(res))
	src, err := os.ReadFile(filepath.Join(dir, SourceFileName))
	require.NoError(t, err)
	require.Equal(t, "Hello World", string(src))
	tgt, err := os.ReadFile(filepath.Join(dir, TargetFileName))
	require.NoError(t, err)
	require.Equal(t, "你好世界", string(tgt))
}

func TestMessage(t *testing.T) {
	require.Equal(t, "capture cancelled", Message(apperr.NewCancelled()))
	require.Equal(t, "no text found", Message(apperr.NewEmpty()))
}
