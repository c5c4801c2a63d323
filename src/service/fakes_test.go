package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"screen-translator/src/lexicon"
)

type fakeRecognizer struct {
	fragments []string
	err       error
	delay     time.Duration
	closed    bool
}

func (f *fakeRecognizer) Recognize(ctx context.Context, png []byte) ([]string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.fragments, f.err
}
func (f *fakeRecognizer) Ping(context.Context) error { return nil }
func (f *fakeRecognizer) Name() string               { return "fake-ocr" }
func (f *fakeRecognizer) Close() error               { f.closed = true; return nil }

// fakeTranslator records calls and fails the test if it is entered concurrently.
type fakeTranslator struct {
	mu      sync.Mutex
	calls   []string
	active  int32
	overlap int32
	delay   time.Duration
	err     error
	pingErr error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if atomic.AddInt32(&f.active, 1) > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	defer atomic.AddInt32(&f.active, -1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "[" + target + "] " + text, nil
}
func (f *fakeTranslator) Ping(context.Context) error { return f.pingErr }
func (f *fakeTranslator) Name() string               { return "fake-mt" }

func (f *fakeTranslator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var errEngine = errors.New("engine exploded")

func newDictionary(t *testing.T) *lexicon.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stardict.db")
	err := lexicon.Create(context.Background(), path, []lexicon.Entry{
		{
			Word:        "hello",
			Phonetic:    "hә'lәu",
			Translation: "int. 喂, 哈罗",
			Definition:  "n. an expression of greeting",
			POS:         []lexicon.POSShare{{Tag: "u", Percent: 97}, {Tag: "n", Percent: 3}},
		},
		{Word: "world", Translation: "n. 世界"},
		{Word: "don't", Translation: "不要"},
		{
			Word:        "run",
			Translation: "v. 跑",
			Exchange:    []lexicon.Inflection{{Kind: lexicon.Past, Form: "ran"}},
		},
	})
	require.NoError(t, err)
	store, err := lexicon.Open(path)
	require.NoError(t, err)
	return store
}
