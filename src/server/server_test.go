package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"screen-translator/src/apperr"
	"screen-translator/src/lexicon"
	"screen-translator/src/service"
)

type fakeBackend struct {
	healthy bool
}

func (f *fakeBackend) Recognize(ctx context.Context, png []byte) (service.Recognition, error) {
	if string(png) == "broken" {
		return service.Recognition{}, apperr.New(apperr.RecognitionFailed, "engine crashed")
	}
	return service.Recognition{Text: "Hello World", Fragments: []string{"Hello", "World"}}, nil
}

func (f *fakeBackend) TranslateWith(ctx context.Context, text, source, target string) (service.TranslationResult, error) {
	if strings.TrimSpace(text) == "" {
		return service.TranslationResult{}, apperr.NewInvalidRequest("text is required")
	}
	return service.TranslationResult{Success: true, Text: target + ":" + text, Source: service.SourceEngine, Query: text}, nil
}

func (f *fakeBackend) DictionaryLookup(ctx context.Context, word string) (lexicon.Entry, error) {
	if word != "hello" {
		return lexicon.Entry{}, apperr.NewNotFound(word)
	}
	return lexicon.Entry{Word: "hello", Phonetic: "hә'lәu"}, nil
}

func (f *fakeBackend) Similar(ctx context.Context, prefix string, limit int) ([]string, error) {
	return []string{prefix + "a", prefix + "b"}[:min(limit, 2)], nil
}

func (f *fakeBackend) HealthCheck(ctx context.Context) service.Health {
	return service.Health{OK: f.healthy, Engines: map[string]service.EngineStatus{}}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOCR(t *testing.T) {
	h := New(&fakeBackend{}, "").Handler()

	rec := do(t, h, http.MethodPost, "/ocr", OCRRequest{Image: base64.StdEncoding.EncodeToString([]byte("png"))})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var resp OCRResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "Hello World", resp.Text)

	rec = do(t, h, http.MethodPost, "/ocr", OCRRequest{Image: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("broken"))})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	require.False(t, e.Success)
	require.Equal(t, apperr.RecognitionFailed, e.Code)

	rec = do(t, h, http.MethodPost, "/ocr", OCRRequest{Image: "%%%"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranslateAndLookup(t *testing.T) {
	h := New(&fakeBackend{}, "").Handler()

	rec := do(t, h, http.MethodPost, "/translate", TranslateRequest{Text: "Hello World", Target: "de"})
	require.Equal(t, http.StatusOK, rec.Code)
	var tr TranslateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	require.Equal(t, "de:Hello World", tr.Text)
	require.Equal(t, service.SourceEngine, tr.Source)
	require.Contains(t, rec.Body.String(), `"source_tag":"engine"`)

	rec = do(t, h, http.MethodPost, "/lookup", LookupRequest{Word: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	var lr LookupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lr))
	require.Equal(t, "hello [hә'lәu]", lr.Display)

	rec = do(t, h, http.MethodPost, "/lookup", LookupRequest{Word: "nope"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/similar", SimilarRequest{Prefix: "x", Limit: 1})
	var sr SimilarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sr))
	require.Equal(t, []string{"xa"}, sr.Words)
}

func TestRejectsBadInput(t *testing.T) {
	h := New(&fakeBackend{}, "").Handler()

	req := httptest.NewRequest(http.MethodPost, "/translate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	big := strings.Repeat("a", maxBodyBytes+1)
	rec = do(t, h, http.MethodPost, "/translate", TranslateRequest{Text: big})
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, h, http.MethodGet, "/translate", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(t, New(&fakeBackend{healthy: true}, "").Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, New(&fakeBackend{}, "").Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	h := New(&fakeBackend{healthy: true}, "").Handler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}
