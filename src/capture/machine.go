package capture

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"screen-translator/src/apperr"
	"screen-translator/src/screenshot"
)

// State is a capture session state.
type State int

const (
	Idle State = iota
	TrackingSurface
	Drawing
	Finalizing
	Done
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case TrackingSurface:
		return "tracking"
	case Drawing:
		return "drawing"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == Done || s == Cancelled }

// Displays enumerates surfaces and grabs one of them.
type Displays interface {
	Surfaces() ([]screenshot.Surface, error)
	Grab(s screenshot.Surface) (*image.RGBA, error)
}

// Result is the outcome of a finished session.
type Result struct {
	Path    string
	Surface screenshot.Surface
	// Rect is the selection in surface-relative pixels.
	Rect image.Rectangle
}

// Global returns the selection in virtual-desktop coordinates.
func (r Result) Global() image.Rectangle { return r.Rect.Add(r.Surface.Origin()) }

// Machine is a single-use capture session. It is not safe for concurrent use;
// one goroutine drives it.
type Machine struct {
	displays Displays
	output   string

	surfaces []screenshot.Surface
	state    State
	active   screenshot.Surface
	frame    *image.RGBA

	anchor  image.Point
	current image.Point
	drawing bool

	result Result
	err    error
}

// NewMachine creates a session that saves the finalized crop to output.
func NewMachine(d Displays, output string) *Machine {
	return &Machine{displays: d, output: output}
}

func (m *Machine) State() State                   { return m.state }
func (m *Machine) Drawing() bool                  { return m.drawing }
func (m *Machine) Active() screenshot.Surface     { return m.active }
func (m *Machine) Frame() *image.RGBA             { return m.frame }
func (m *Machine) Result() Result                 { return m.result }
func (m *Machine) Err() error                     { return m.err }
func (m *Machine) Surfaces() []screenshot.Surface { return m.surfaces }

// Selection returns the current surface-relative selection, empty when not drawing.
func (m *Machine) Selection() image.Rectangle {
	if !m.drawing {
		return image.Rectangle{}
	}
	return Selection(m.anchor, m.current)
}

// Start snapshots the display layout and grabs the surface under p.
func (m *Machine) Start(p image.Point) error {
	if m.state != Idle {
		return fmt.Errorf("capture already started (state %s)", m.state)
	}
	surfaces, err := m.displays.Surfaces()
	if err != nil {
		return m.fail(err)
	}
	if len(surfaces) == 0 {
		return m.fail(fmt.Errorf("no active displays found"))
	}
	m.surfaces = surfaces

	s := m.surfaceAt(p)
	if err := m.load(s); err != nil {
		return m.fail(err)
	}
	m.state = TrackingSurface
	log.Printf("capture: tracking surface %d %v", s.Index, s.Bounds)
	return nil
}

// Tick re-detects the surface under p and switches to it when no drag is in
// progress. It reports whether the preview must be redrawn.
func (m *Machine) Tick(p image.Point) (bool, error) {
	if m.state != TrackingSurface || m.drawing {
		return false, nil
	}
	s := m.surfaceAt(p)
	if s.Index == m.active.Index {
		return false, nil
	}
	if err := m.load(s); err != nil {
		return false, m.fail(err)
	}
	log.Printf("capture: switched to surface %d %v", s.Index, s.Bounds)
	return true, nil
}

// Press starts a drag at p.
func (m *Machine) Press(p image.Point) bool {
	if m.state != TrackingSurface {
		return false
	}
	m.anchor = m.local(p)
	m.current = m.anchor
	m.drawing = true
	m.state = Drawing
	return true
}

// Move updates the drag end point, clamped to the active surface.
func (m *Machine) Move(p image.Point) bool {
	if m.state != Drawing {
		return false
	}
	next := m.local(p)
	if next == m.current {
		return false
	}
	m.current = next
	return true
}

// Release ends the drag. A selection at or below MinSelectionSpan puts the
// session back to TrackingSurface; a valid one is cropped and saved.
func (m *Machine) Release(p image.Point) (bool, error) {
	if m.state != Drawing {
		return false, nil
	}
	m.current = m.local(p)
	sel := Selection(m.anchor, m.current)
	m.drawing = false

	if !Valid(sel) {
		log.Printf("capture: %s %dx%d discarded", apperr.CaptureInvalidRegion, sel.Dx(), sel.Dy())
		m.state = TrackingSurface
		return true, nil
	}

	m.state = Finalizing
	path, err := m.save(sel)
	if err != nil {
		return true, m.fail(err)
	}
	m.result = Result{Path: path, Surface: m.active, Rect: sel}
	m.frame = nil
	m.state = Done
	log.Printf("capture: saved %dx%d to %s", sel.Dx(), sel.Dy(), path)
	return true, nil
}

// Cancel aborts the session from any non-terminal state.
func (m *Machine) Cancel() {
	if m.state.Terminal() {
		return
	}
	m.drawing = false
	m.frame = nil
	m.state = Cancelled
	if m.err == nil {
		m.err = apperr.NewCancelled()
	}
}

func (m *Machine) surfaceAt(p image.Point) screenshot.Surface {
	if s, ok := screenshot.SurfaceAt(m.surfaces, p); ok {
		return s
	}
	s, _ := screenshot.Primary(m.surfaces)
	return s
}

func (m *Machine) load(s screenshot.Surface) error {
	img, err := m.displays.Grab(s)
	if err != nil {
		return err
	}
	m.active = s
	m.frame = img
	return nil
}

func (m *Machine) local(p image.Point) image.Point {
	return Clamp(p.Sub(m.active.Origin()), m.active.Bounds.Dx(), m.active.Bounds.Dy())
}

func (m *Machine) save(sel image.Rectangle) (string, error) {
	if m.frame == nil {
		return "", fmt.Errorf("no cached frame for surface %d", m.active.Index)
	}
	crop := imaging.Crop(m.frame, sel.Add(m.frame.Bounds().Min))
	if dir := filepath.Dir(m.output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(crop, m.output); err != nil {
		return "", fmt.Errorf("failed to save capture: %w", err)
	}
	return m.output, nil
}

func (m *Machine) fail(err error) error {
	m.drawing = false
	m.frame = nil
	m.state = Cancelled
	m.err = apperr.Wrap(apperr.CaptureFailed, err)
	return m.err
}
