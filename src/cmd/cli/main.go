// Command translate-tool recognizes and translates a single PNG without the
// resident service or any UI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-translator/src/apperr"
	"screen-translator/src/config"
	"screen-translator/src/runtimeinit"
	"screen-translator/src/screenshot"
	"screen-translator/src/service"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

type cliOptions struct {
	filePath   string
	jsonOutput bool
	ocrOnly    bool
	verbose    bool
	apiKeyPath string
	dictionary string
}

// engine is the subset of the service used by one run.
type engine interface {
	Recognize(ctx context.Context, png []byte) (service.Recognition, error)
	Translate(ctx context.Context, text string) (service.TranslationResult, error)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"translate-tool"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "translate-tool",
		Short:         "Recognize and translate text in a PNG",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.ocrOnly, "ocr-only", false, "Skip translation")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.dictionary, "dict", "", "Path to the ECDICT sqlite database")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride: opts.apiKeyPath,
			DictionaryOverride: opts.dictionary,
		},
		Verbose: opts.verbose,
	})
	if err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] OCR backend=%s translate backend=%s\n", cfg.OCRBackend, cfg.TranslateBackend)
	}

	imageData, err := readImage(opts.filePath, os.Stdin)
	if err != nil {
		return err
	}

	svc, err := runtimeinit.NewService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Duration(cfg.DeadlineSec)*time.Second)
	defer cancel()

	res, err := process(ctx, svc, imageData, opts.ocrOnly)
	if err != nil {
		return err
	}
	res.Source = opts.filePath
	log.Printf("Processed %s in %.2fs", opts.filePath, res.Duration)
	return outputResult(out, res, opts.jsonOutput)
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "ocr-only", "verbose", "api-key-path", "dict"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}

func readImage(filePath string, stdin io.Reader) ([]byte, error) {
	var (
		imageData []byte
		err       error
	)
	if filePath == "-" {
		imageData, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		imageData, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if len(imageData) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(imageData) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if err := validatePNG(imageData); err != nil {
		return nil, err
	}
	return imageData, nil
}

func validatePNG(data []byte) error {
	if !screenshot.IsPNG(data) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

type Result struct {
	Text       string         `json:"text"`
	Translated string         `json:"translated,omitempty"`
	SourceTag  service.Source `json:"source_tag,omitempty"`
	Source     string         `json:"source"`
	Timestamp  string         `json:"timestamp"`
	Duration   float64        `json:"duration_seconds"`
	CharCount  int            `json:"character_count"`
}

func process(ctx context.Context, e engine, imageData []byte, ocrOnly bool) (Result, error) {
	start := time.Now()

	rec, err := e.Recognize(ctx, imageData)
	if err != nil {
		return Result{}, fmt.Errorf("OCR failed: %w", err)
	}
	if rec.Empty {
		return Result{}, apperr.NewEmpty()
	}

	res := Result{
		Text:      rec.Text,
		Timestamp: start.UTC().Format(time.RFC3339),
		CharCount: len([]rune(rec.Text)),
	}
	if !ocrOnly {
		tr, err := e.Translate(ctx, rec.Text)
		if err != nil {
			return Result{}, fmt.Errorf("translation failed: %w", err)
		}
		res.Translated = tr.Text
		res.SourceTag = tr.Source
	}
	res.Duration = time.Since(start).Seconds()
	return res, nil
}

func outputResult(w io.Writer, res Result, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(res); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}

	if res.Translated == "" {
		_, err := fmt.Fprintln(w, res.Text)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", res.Text, res.Translated)
	return err
}
