package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"screen-translator/src/apperr"
	"screen-translator/src/lexicon"
	"screen-translator/src/server"
	"screen-translator/src/service"
)

type stubBackend struct{}

func (stubBackend) Recognize(ctx context.Context, png []byte) (service.Recognition, error) {
	return service.Recognition{Text: "Hello World", Fragments: []string{"Hello", "World"}}, nil
}

func (stubBackend) TranslateWith(ctx context.Context, text, source, target string) (service.TranslationResult, error) {
	if text == "slow" {
		return service.TranslationResult{}, apperr.Timeout(apperr.TranslationFailed, context.DeadlineExceeded)
	}
	return service.TranslationResult{Success: true, Text: "你好世界", Source: service.SourceEngine, Query: text}, nil
}

func (stubBackend) DictionaryLookup(ctx context.Context, word string) (lexicon.Entry, error) {
	return lexicon.Entry{}, apperr.NewNotFound(word)
}

func (stubBackend) Similar(ctx context.Context, prefix string, limit int) ([]string, error) {
	return []string{"hello", "help"}, nil
}

func (stubBackend) HealthCheck(ctx context.Context) service.Health {
	return service.Health{OK: true, Engines: map[string]service.EngineStatus{
		"translator": {Name: "stub", Initialized: true, Reachable: true, Required: true},
	}}
}

func startServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.New(stubBackend{}, "").Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return "http://" + ln.Addr().String()
}

func TestRoundTrip(t *testing.T) {
	c := New(startServer(t), 5*time.Second)
	ctx := context.Background()

	rec, err := c.Recognize(ctx, []byte("png"))
	require.NoError(t, err)
	require.Equal(t, []string{"Hello", "World"}, rec.Fragments)

	res, err := c.Translate(ctx, "Hello World")
	require.NoError(t, err)
	require.Equal(t, service.SourceEngine, res.Source)
	require.Equal(t, "你好世界", res.Text)

	words, err := c.Similar(ctx, "hel", 5)
	require.NoError(t, err)
	require.Len(t, words, 2)

	h := c.HealthCheck(ctx)
	require.True(t, h.OK)
	require.True(t, h.Engines["translator"].Reachable)
}

func TestErrorCodesSurvive(t *testing.T) {
	c := New(startServer(t), 5*time.Second)
	ctx := context.Background()

	_, err := c.DictionaryLookup(ctx, "zzxqv")
	require.Equal(t, apperr.NotFound, apperr.CodeOf(err))

	_, err = c.Translate(ctx, "slow")
	require.Equal(t, apperr.TranslationFailed, apperr.CodeOf(err))
	require.True(t, apperr.IsTimeout(err))
}

func TestUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)
	ctx := context.Background()

	_, err := c.Translate(ctx, "x")
	require.Equal(t, apperr.EngineUnavailable, apperr.CodeOf(err))

	h := c.HealthCheck(ctx)
	require.False(t, h.OK)
	require.Equal(t, []string{"service"}, h.Unavailable())
}
