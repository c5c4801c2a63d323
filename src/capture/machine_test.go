package capture

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"screen-translator/src/apperr"
	"screen-translator/src/screenshot"
)

// fakeDisplays serves solid-color frames for a fixed layout.
type fakeDisplays struct {
	surfaces []screenshot.Surface
	grabs    []int
	grabErr  error
}

func twoMonitors() *fakeDisplays {
	return &fakeDisplays{surfaces: []screenshot.Surface{
		{Index: 0, Bounds: image.Rect(0, 0, 200, 100)},
		{Index: 1, Bounds: image.Rect(200, 0, 360, 120)},
	}}
}

func (f *fakeDisplays) Surfaces() ([]screenshot.Surface, error) { return f.surfaces, nil }

func (f *fakeDisplays) Grab(s screenshot.Surface) (*image.RGBA, error) {
	if f.grabErr != nil {
		return nil, f.grabErr
	}
	f.grabs = append(f.grabs, s.Index)
	img := image.NewRGBA(image.Rect(0, 0, s.Bounds.Dx(), s.Bounds.Dy()))
	fill := color.RGBA{R: uint8(40 * (s.Index + 1)), G: 200, B: 100, A: 255}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}
	return img, nil
}

func newStarted(t *testing.T, d *fakeDisplays, at image.Point) (*Machine, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "temp", "screenshot.png")
	m := NewMachine(d, out)
	require.NoError(t, m.Start(at))
	require.Equal(t, TrackingSurface, m.State())
	return m, out
}

func TestStartPicksSurfaceUnderPointer(t *testing.T) {
	d := twoMonitors()
	m, _ := newStarted(t, d, image.Pt(250, 10))
	require.Equal(t, 1, m.Active().Index)
	require.Equal(t, []int{1}, d.grabs)
}

func TestStartFallsBackToPrimary(t *testing.T) {
	d := twoMonitors()
	m, _ := newStarted(t, d, image.Pt(250, 115)) // below the shorter left monitor, right of it
	require.Equal(t, 1, m.Active().Index)

	m2, _ := newStarted(t, d, image.Pt(100, 110)) // gap under primary
	require.Equal(t, 0, m2.Active().Index)
}

func TestStartGrabFailure(t *testing.T) {
	d := twoMonitors()
	d.grabErr = errors.New("x11: no display")
	m := NewMachine(d, filepath.Join(t.TempDir(), "s.png"))
	err := m.Start(image.Pt(1, 1))
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.CaptureFailed))
	require.Equal(t, Cancelled, m.State())
}

func TestHappyPathSavesCrop(t *testing.T) {
	d := twoMonitors()
	m, out := newStarted(t, d, image.Pt(10, 10))

	require.True(t, m.Press(image.Pt(10, 10)))
	require.Equal(t, Drawing, m.State())
	require.True(t, m.Move(image.Pt(60, 40)))
	redraw, err := m.Release(image.Pt(60, 40))
	require.NoError(t, err)
	require.True(t, redraw)
	require.Equal(t, Done, m.State())

	res := m.Result()
	require.Equal(t, out, res.Path)
	require.Equal(t, image.Rect(10, 10, 61, 41), res.Rect)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	require.Equal(t, 51, img.Bounds().Dx())
	require.Equal(t, 31, img.Bounds().Dy())

	st, err := os.Stat(out)
	require.NoError(t, err)
	require.Positive(t, st.Size())
}

func TestReleaseNormalizesReverseDrag(t *testing.T) {
	m, _ := newStarted(t, twoMonitors(), image.Pt(10, 10))
	m.Press(image.Pt(80, 70))
	_, err := m.Release(image.Pt(20, 30))
	require.NoError(t, err)
	require.Equal(t, image.Rect(20, 30, 81, 71), m.Result().Rect)
}

func TestSmallSelectionReturnsToTracking(t *testing.T) {
	tests := []struct {
		name string
		end  image.Point
	}{
		{"click", image.Pt(10, 10)},
		{"five wide", image.Pt(14, 50)},
		{"five high", image.Pt(50, 14)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, out := newStarted(t, twoMonitors(), image.Pt(10, 10))
			m.Press(image.Pt(10, 10))
			m.Move(tt.end)
			redraw, err := m.Release(tt.end)
			require.NoError(t, err)
			require.True(t, redraw)
			require.Equal(t, TrackingSurface, m.State())
			require.False(t, m.Drawing())
			require.True(t, m.Selection().Empty())
			_, statErr := os.Stat(out)
			require.True(t, os.IsNotExist(statErr))

			// The same session accepts a second attempt.
			require.True(t, m.Press(image.Pt(10, 10)))
			_, err = m.Release(image.Pt(30, 30))
			require.NoError(t, err)
			require.Equal(t, Done, m.State())
		})
	}
}

func TestSixPixelsIsEnough(t *testing.T) {
	m, _ := newStarted(t, twoMonitors(), image.Pt(0, 0))
	m.Press(image.Pt(20, 20))
	_, err := m.Release(image.Pt(25, 25))
	require.NoError(t, err)
	require.Equal(t, Done, m.State())
	require.Equal(t, image.Rect(20, 20, 26, 26), m.Result().Rect)
}

func TestDragPastEdgesSelectsWholeSurface(t *testing.T) {
	d := twoMonitors()
	m, out := newStarted(t, d, image.Pt(10, 10))
	m.Press(image.Pt(-100, -100))
	m.Move(image.Pt(500, 500))
	_, err := m.Release(image.Pt(500, 500))
	require.NoError(t, err)
	require.Equal(t, Done, m.State())
	require.Equal(t, image.Rect(0, 0, 200, 100), m.Result().Rect)
	require.Equal(t, d.surfaces[0].Bounds, m.Result().Global())

	img, err := imaging.Open(out)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())
}

func TestMoveClampsToActiveSurface(t *testing.T) {
	m, _ := newStarted(t, twoMonitors(), image.Pt(10, 10))
	m.Press(image.Pt(150, 50))
	m.Move(image.Pt(900, -40)) // far onto the right monitor and above the desktop
	sel := m.Selection()
	require.Equal(t, image.Rect(150, 0, 200, 51), sel)
	require.True(t, sel.In(image.Rect(0, 0, 200, 100)))
}

func TestTickSwitchesOnlyWhenNotDrawing(t *testing.T) {
	d := twoMonitors()
	m, _ := newStarted(t, d, image.Pt(10, 10))

	redraw, err := m.Tick(image.Pt(10, 10))
	require.NoError(t, err)
	require.False(t, redraw)

	m.Press(image.Pt(20, 20))
	redraw, err = m.Tick(image.Pt(300, 50))
	require.NoError(t, err)
	require.False(t, redraw)
	require.Equal(t, 0, m.Active().Index)
	require.True(t, m.Drawing())

	m.Release(image.Pt(22, 22)) // too small, back to tracking
	redraw, err = m.Tick(image.Pt(300, 50))
	require.NoError(t, err)
	require.True(t, redraw)
	require.Equal(t, 1, m.Active().Index)
	require.Equal(t, []int{0, 1}, d.grabs)
}

func TestCancelFromAnyState(t *testing.T) {
	m, out := newStarted(t, twoMonitors(), image.Pt(10, 10))
	m.Press(image.Pt(10, 10))
	m.Move(image.Pt(90, 90))
	m.Cancel()
	require.Equal(t, Cancelled, m.State())
	require.True(t, apperr.Is(m.Err(), apperr.CaptureCancelled))

	// Terminal: nothing moves any more.
	require.False(t, m.Press(image.Pt(1, 1)))
	redraw, err := m.Release(image.Pt(90, 90))
	require.NoError(t, err)
	require.False(t, redraw)
	_, statErr := os.Stat(out)
	require.True(t, os.IsNotExist(statErr))

	idle := NewMachine(twoMonitors(), out)
	idle.Cancel()
	require.Equal(t, Cancelled, idle.State())
}

// Random interleavings of ticks and drag events: the active surface never
// changes while drawing, and every finalized rect lies on its surface.
func TestRandomInterleavingsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	virtual := image.Rect(-50, -50, 420, 170)
	randPoint := func() image.Point {
		return image.Pt(virtual.Min.X+rng.Intn(virtual.Dx()), virtual.Min.Y+rng.Intn(virtual.Dy()))
	}

	for run := 0; run < 200; run++ {
		d := twoMonitors()
		m := NewMachine(d, filepath.Join(t.TempDir(), "s.png"))
		require.NoError(t, m.Start(randPoint()))

		for step := 0; step < 40 && !m.State().Terminal(); step++ {
			before := m.Active().Index
			wasDrawing := m.Drawing()
			switch rng.Intn(4) {
			case 0:
				_, err := m.Tick(randPoint())
				require.NoError(t, err)
				if wasDrawing {
					require.Equal(t, before, m.Active().Index, "surface switched mid-drag")
				}
			case 1:
				m.Press(randPoint())
			case 2:
				m.Move(randPoint())
			case 3:
				_, err := m.Release(randPoint())
				require.NoError(t, err)
			}
			if sel := m.Selection(); !sel.Empty() {
				bounds := image.Rect(0, 0, m.Active().Bounds.Dx(), m.Active().Bounds.Dy())
				require.True(t, sel.In(bounds), "selection %v escapes %v", sel, bounds)
			}
		}
		if m.State() == Done {
			res := m.Result()
			require.True(t, Valid(res.Rect))
			require.True(t, res.Global().In(res.Surface.Bounds))
		}
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "tracking", TrackingSurface.String())
	require.Equal(t, "state(42)", State(42).String())
	require.True(t, Done.Terminal())
	require.False(t, Drawing.Terminal())
}
