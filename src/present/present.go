// Package present renders pipeline results for the terminal.
package present

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"screen-translator/src/service"
)

const (
	defaultWidth = 80
	minBoxWidth  = 24
)

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

var boxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#C89A3A")).Padding(0, 1)

// Style selects between plain and styled output.
type Style struct {
	Color bool
	Width int
}

// Result is what gets rendered: the recognized text and its translation.
type Result struct {
	Recognized  string
	Translation service.TranslationResult
}

// DetectStyle enables styling only for terminals, and honors NO_COLOR.
func DetectStyle(w io.Writer) Style {
	st := Style{Width: defaultWidth}
	file, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(file.Fd())) {
		return st
	}
	st.Color = true
	if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
		st.Width = width
	}
	return st
}

// Render writes r to w. The plain form is the recognized text on one line
// followed by the translation, so scripts can parse it.
func Render(w io.Writer, r Result, st Style) error {
	if !st.Color {
		_, err := fmt.Fprintf(w, "%s\n%s\n", oneLine(r.Recognized), r.Translation.Text)
		return err
	}

	width := st.Width - 2
	if width < minBoxWidth {
		width = minBoxWidth
	}
	inner := width - 4

	label := "translation"
	if r.Translation.Source == service.SourceLexicon {
		label = "dictionary"
	}

	body := strings.Join([]string{
		labelStyle.Render("source"),
		sourceStyle.Render(runewidth.Truncate(oneLine(r.Recognized), inner, "…")),
		"",
		labelStyle.Render(label),
		resultStyle.Render(r.Translation.Text),
	}, "\n")

	_, err := fmt.Fprintln(w, boxStyle.Width(width).Render(body))
	return err
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
