package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"screen-translator/src/apperr"
	"screen-translator/src/capture"
	"screen-translator/src/capture/overlay"
	"screen-translator/src/config"
	"screen-translator/src/hotkey"
	"screen-translator/src/pipeline"
	"screen-translator/src/present"
	"screen-translator/src/screenshot"
	"screen-translator/src/singleinstance"
)

const (
	appID           = "screen-translator"
	triggerDebounce = time.Second
	childTimeout    = 60 * time.Second
)

// withApp runs work on a background goroutine while the fyne event loop owns
// the main goroutine. The app quits as soon as work returns.
func withApp(work func(a fyne.App) error) error {
	a := app.NewWithID(appID)
	errCh := make(chan error, 1)
	go func() {
		errCh <- work(a)
		a.Quit()
	}()
	a.Run()
	return <-errCh
}

func captureStyle(cfg *config.Config) capture.Style {
	style := capture.DefaultStyle()
	if accent, err := capture.ParseAccent(cfg.CaptureAccent); err == nil {
		style.Accent = accent
	} else {
		log.Printf("capture: %v, keeping default accent", err)
	}
	if cfg.CaptureBorder > 0 {
		style.BorderWidth = cfg.CaptureBorder
	}
	style.DimAlpha = uint8(cfg.CaptureDim)
	return style
}

// captureOnce runs one interactive selection using the global hook for input
// and a full-screen window for the preview.
func captureOnce(ctx context.Context, a fyne.App, cfg *config.Config) (capture.Result, error) {
	lock, err := singleinstance.Acquire(fmt.Sprintf("capture pid %d", os.Getpid()))
	if err != nil {
		return capture.Result{}, apperr.Wrap(apperr.CaptureFailed, err)
	}
	defer lock.Release()

	logMonitorConfiguration()

	src := hotkey.NewSource(cfg.CaptureCancelKey)
	defer src.Close()

	var win *overlay.Window
	fyne.DoAndWait(func() { win = overlay.New(a, appID) })

	return capture.Run(ctx, capture.Options{
		Input:        src,
		Presenter:    win,
		Output:       cfg.CaptureOutput,
		Style:        captureStyle(cfg),
		PollInterval: time.Duration(cfg.CapturePollMS) * time.Millisecond,
	})
}

func newCaptureCmd(opts *mainOptions) *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Select a screen region and save it as a PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if region != "" {
				return captureFixed(opts.cfg.CaptureOutput, region, cmd.OutOrStdout())
			}
			return withApp(func(a fyne.App) error {
				res, err := captureOnce(cmd.Context(), a, opts.cfg)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "Capture x,y,width,height without the overlay")
	return cmd
}

// captureFixed grabs a region given on the command line and writes it to the
// capture output path.
func captureFixed(output, value string, w io.Writer) error {
	region, err := parseRegion(value)
	if err != nil {
		return apperr.Wrap(apperr.CaptureInvalidRegion, err)
	}
	data, err := screenshot.CaptureRegion(region)
	if err != nil {
		return apperr.Wrap(apperr.CaptureFailed, err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return apperr.Wrap(apperr.CaptureFailed, err)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return apperr.Wrap(apperr.CaptureFailed, err)
	}
	fmt.Fprintln(w, output)
	return nil
}

func parseRegion(s string) (screenshot.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return screenshot.Region{}, fmt.Errorf("region %q: want x,y,width,height", s)
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return screenshot.Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		n[i] = v
	}
	r := screenshot.Region{X: n[0], Y: n[1], Width: n[2], Height: n[3]}
	if !capture.Valid(r.Rect()) {
		return screenshot.Region{}, fmt.Errorf("region %q is too small", s)
	}
	return r, nil
}

func newRunCmd(opts *mainOptions) *cobra.Command {
	var imagePath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Capture, recognize and translate once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := opts.openBackend()
			if err != nil {
				return err
			}
			defer closeFn()

			runOpts := pipeline.Options{
				Backend:   b,
				ImagePath: imagePath,
				Targets:   opts.targets(cmd),
				Deadline:  opts.deadline(),
			}
			if imagePath != "" {
				_, err := pipeline.Run(cmd.Context(), runOpts)
				return err
			}
			return withApp(func(a fyne.App) error {
				runOpts.Capture = func(ctx context.Context) (capture.Result, error) {
					return captureOnce(ctx, a, opts.cfg)
				}
				_, err := pipeline.Run(cmd.Context(), runOpts)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "Use an existing PNG instead of capturing")
	return cmd
}

// targets maps OUTPUT_MODE to result sinks. The result files are written
// whenever a result directory is configured.
func (o *mainOptions) targets(cmd *cobra.Command) []pipeline.Target {
	out := cmd.OutOrStdout()
	stdout := pipeline.StdoutTarget{Writer: out, Style: present.DetectStyle(out)}

	var targets []pipeline.Target
	switch o.cfg.OutputMode {
	case config.OutputClipboard:
		targets = append(targets, pipeline.ClipboardTarget{})
	case config.OutputBoth:
		targets = append(targets, stdout, pipeline.ClipboardTarget{})
	default:
		targets = append(targets, stdout)
	}
	if o.cfg.ResultDir != "" {
		targets = append(targets, pipeline.FileTarget{Dir: o.cfg.ResultDir})
	}
	return targets
}

func newListenCmd(opts *mainOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Run a capture pipeline each time the trigger fires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}
			ctx := cmd.Context()
			stop := make(chan struct{})
			go func() {
				<-ctx.Done()
				close(stop)
			}()

			var busy atomic.Bool
			log.Printf("Listening for %s", opts.cfg.Trigger)
			return hotkey.Listen(opts.cfg.Trigger, triggerDebounce, stop, func() {
				if !busy.CompareAndSwap(false, true) {
					log.Printf("Trigger ignored: a capture is already running")
					return
				}
				if owner, held := singleinstance.Holder(ctx); held {
					busy.Store(false)
					log.Printf("Trigger ignored: capture held by %s", owner)
					return
				}
				defer busy.Store(false)
				runChild(ctx, exe, opts.childArgs())
			})
		},
	}
}

// childArgs forwards the global flags to a `run` child process.
func (o *mainOptions) childArgs() []string {
	args := []string{"run"}
	if o.verbose {
		args = append(args, "--verbose")
	}
	if o.local {
		args = append(args, "--local")
	}
	for _, f := range []struct{ name, value string }{
		{"api-key-path", o.apiKeyPath},
		{"service-url", o.serviceURL},
		{"dict", o.dictionary},
		{"output", o.output},
	} {
		if f.value != "" {
			args = append(args, "--"+f.name, f.value)
		}
	}
	return args
}

func runChild(ctx context.Context, exe string, args []string) {
	ctx, cancel := context.WithTimeout(ctx, childTimeout)
	defer cancel()

	child := exec.CommandContext(ctx, exe, args...)
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	start := time.Now()
	if err := child.Run(); err != nil {
		log.Printf("Capture run failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
		return
	}
	log.Printf("Capture run finished in %v", time.Since(start).Round(time.Millisecond))
}
