package capture

import (
	"context"
	"image"
	"log"
	"time"

	"screen-translator/src/apperr"
	"screen-translator/src/screenshot"
)

// EventKind distinguishes pointer and key input.
type EventKind int

const (
	PointerMove EventKind = iota
	PointerPress
	PointerRelease
	CancelKey
)

// Event is one input sample in virtual-desktop coordinates.
type Event struct {
	Kind  EventKind
	Point image.Point
}

// Input delivers pointer/key events and the last known pointer position.
type Input interface {
	Events() <-chan Event
	Position() image.Point
}

// Presenter shows preview frames. Done fires when the user dismisses the
// preview itself (for example Escape typed into the window).
type Presenter interface {
	Show(frame image.Image, surface screenshot.Surface)
	Done() <-chan struct{}
	Close()
}

type Options struct {
	Displays     Displays
	Input        Input
	Presenter    Presenter
	Output       string
	Style        Style
	PollInterval time.Duration
}

// Run drives one capture session to completion. All Machine calls happen on
// the calling goroutine.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Displays == nil {
		opts.Displays = screenshot.Desktop{}
	}
	if opts.Input == nil {
		return Result{}, apperr.New(apperr.CaptureFailed, "input source is required")
	}
	if opts.Output == "" {
		return Result{}, apperr.New(apperr.CaptureFailed, "output path is required")
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	m := NewMachine(opts.Displays, opts.Output)
	r := NewRenderer(opts.Style)
	if err := m.Start(opts.Input.Position()); err != nil {
		return Result{}, err
	}

	var dismissed <-chan struct{}
	if opts.Presenter != nil {
		defer opts.Presenter.Close()
		dismissed = opts.Presenter.Done()
	}
	present := func() {
		if opts.Presenter == nil || m.Frame() == nil {
			return
		}
		opts.Presenter.Show(r.Render(m.Frame(), m.Selection()), m.Active())
	}
	present()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	events := opts.Input.Events()

	for {
		select {
		case <-ctx.Done():
			m.Cancel()
			log.Printf("capture: cancelled: %v", ctx.Err())
			return Result{}, m.Err()
		case <-dismissed:
			m.Cancel()
			return Result{}, m.Err()
		case <-ticker.C:
			redraw, err := m.Tick(opts.Input.Position())
			if err != nil {
				return Result{}, err
			}
			if redraw {
				present()
			}
		case ev, ok := <-events:
			if !ok {
				m.Cancel()
				return Result{}, m.Err()
			}
			redraw, err := apply(m, ev)
			if err != nil {
				return Result{}, err
			}
			switch m.State() {
			case Done:
				return m.Result(), nil
			case Cancelled:
				return Result{}, m.Err()
			}
			if redraw {
				present()
			}
		}
	}
}

func apply(m *Machine, ev Event) (bool, error) {
	switch ev.Kind {
	case PointerPress:
		return m.Press(ev.Point), nil
	case PointerMove:
		return m.Move(ev.Point), nil
	case PointerRelease:
		return m.Release(ev.Point)
	case CancelKey:
		m.Cancel()
		return false, nil
	}
	return false, nil
}
