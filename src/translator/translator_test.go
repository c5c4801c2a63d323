package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"screen-translator/src/apperr"
	"screen-translator/src/llm"
)

func libreServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /translate", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("q") == "fail" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "bad things"})
			return
		}
		require.Equal(t, "en", r.Form.Get("source"))
		require.Equal(t, "zh", r.Form.Get("target"))
		require.Equal(t, "text", r.Form.Get("format"))
		require.Equal(t, "secret", r.Form.Get("api_key"))
		json.NewEncoder(w).Encode(map[string]string{"translatedText": "你好世界"})
	})
	mux.HandleFunc("GET /languages", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"code":"en"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLibreTranslate(t *testing.T) {
	srv := libreServer(t)
	l := NewLibreTranslate(srv.URL+"/", "secret")
	ctx := context.Background()

	out, err := l.Translate(ctx, "Hello World", "en", "zh")
	require.NoError(t, err)
	require.Equal(t, "你好世界", out)

	_, err = l.Translate(ctx, "fail", "en", "zh")
	require.ErrorContains(t, err, "bad things")

	require.NoError(t, l.Ping(ctx))
}

func TestLibreTranslateUnreachable(t *testing.T) {
	l := NewLibreTranslate("http://127.0.0.1:1", "")
	err := l.Ping(context.Background())
	require.Equal(t, apperr.EngineUnavailable, apperr.CodeOf(err))
}

func TestOpenRouterTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, strings.Contains(req.Messages[0].Content[0].Text, "from English to German"))
		json.NewEncoder(w).Encode(llm.ChatResponse{Choices: []llm.Choice{{Message: llm.ResponseMessage{Content: " Hallo Welt \n"}}}})
	}))
	defer srv.Close()

	o := NewOpenRouter(llm.New(llm.Config{APIKey: "k", Model: "m", BaseURL: srv.URL}))
	out, err := o.Translate(context.Background(), "Hello World", "en", "de")
	require.NoError(t, err)
	require.Equal(t, "Hallo Welt", out)
}

func TestLanguageName(t *testing.T) {
	require.Equal(t, "Chinese", LanguageName("ZH"))
	require.Equal(t, "xx", LanguageName("xx"))
}
