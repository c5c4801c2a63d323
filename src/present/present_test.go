package present

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"screen-translator/src/service"
)

func TestRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Result{
		Recognized:  "Hello\nWorld",
		Translation: service.TranslationResult{Text: "你好世界", Source: service.SourceEngine},
	}, Style{})
	require.NoError(t, err)
	require.Equal(t, "Hello World\n你好世界\n", buf.String())
}

func TestRenderStyled(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Result{
		Recognized:  "hello",
		Translation: service.TranslationResult{Text: "hello [hә'lәu]\n1. int. 喂", Source: service.SourceLexicon},
	}, Style{Color: true, Width: 60})
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, "dictionary")
	require.Contains(t, out, "喂")
	require.True(t, strings.Contains(out, "╭"), "expected a rounded border")
}

func TestDetectStyleNonTerminal(t *testing.T) {
	st := DetectStyle(&bytes.Buffer{})
	require.False(t, st.Color)
	require.Equal(t, defaultWidth, st.Width)
}
