package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"screen-translator/src/config"
	"screen-translator/src/pipeline"
	"screen-translator/src/runtimeinit"
)

var version = "dev"

type mainOptions struct {
	verbose    bool
	local      bool
	apiKeyPath string
	serviceURL string
	dictionary string
	output     string

	cfg *config.Config
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := runWithArgs(ctx, normalizeLegacyArgs(os.Args))
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", pipeline.Message(err))
	}
	os.Exit(pipeline.ExitCode(err))
}

func runWithArgs(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"screen-translator"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "screen-translator",
		Short:         "Capture a screen region, recognize its text and translate it",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
				LoadOptions: config.LoadOptions{
					APIKeyPathOverride: opts.apiKeyPath,
					ServiceURLOverride: opts.serviceURL,
					DictionaryOverride: opts.dictionary,
					OutputModeOverride: opts.output,
				},
				Verbose: opts.verbose,
			})
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log diagnostics to stderr")
	pf.BoolVar(&opts.local, "local", false, "Run engines in-process instead of calling the service")
	pf.StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	pf.StringVar(&opts.serviceURL, "service-url", "", "Base URL of a running service")
	pf.StringVar(&opts.dictionary, "dict", "", "Path to the ECDICT sqlite database")
	pf.StringVar(&opts.output, "output", "", "Result output: stdout, clipboard or both")

	root.AddCommand(
		newServeCmd(opts),
		newMCPCmd(opts),
		newCaptureCmd(opts),
		newRunCmd(opts),
		newListenCmd(opts),
		newTranslateCmd(opts),
		newLookupCmd(opts),
		newSimilarCmd(opts),
		newHealthCmd(opts),
		newDictCmd(opts),
	)
	return root
}

// normalizeLegacyArgs maps single-dash long flags to their GNU form and the
// old --run-once flag to the run subcommand.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		switch {
		case arg == "--run-once" || arg == "-run-once":
			normalized[i] = "run"
		case strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") && len(arg) > 2:
			name, _, _ := strings.Cut(arg[1:], "=")
			if legacyLongFlags[name] {
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}

var legacyLongFlags = map[string]bool{
	"api-key-path": true,
	"service-url":  true,
	"dict":         true,
	"output":       true,
	"verbose":      true,
	"local":        true,
	"json":         true,
	"limit":        true,
	"family":       true,
	"from":         true,
	"to":           true,
	"image":        true,
	"region":       true,
	"addr":         true,
	"db":           true,
}
