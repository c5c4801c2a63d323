package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"screen-translator/src/clipboard"
	"screen-translator/src/present"
)

const (
	SourceFileName = "translation_source.txt"
	TargetFileName = "translation_target.txt"
)

// StdoutTarget prints the result on the primary result channel.
type StdoutTarget struct {
	Writer io.Writer
	Style  present.Style
}

func (StdoutTarget) Name() string { return "stdout" }

func (t StdoutTarget) Deliver(r Result) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	return present.Render(w, present.Result{Recognized: r.Recognition.Text, Translation: r.Translation}, t.Style)
}

// ClipboardTarget copies the translation to the clipboard.
type ClipboardTarget struct{}

func (ClipboardTarget) Name() string { return "clipboard" }

func (ClipboardTarget) Deliver(r Result) error {
	return clipboard.Write(r.Translation.Text)
}

// FileTarget writes the recognized and translated text to two files in Dir.
type FileTarget struct {
	Dir string
}

func (FileTarget) Name() string { return "file" }

func (t FileTarget) Deliver(r Result) error {
	if err := os.MkdirAll(t.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(t.Dir, SourceFileName), []byte(r.Recognition.Text), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(t.Dir, TargetFileName), []byte(r.Translation.Text), 0644)
}
