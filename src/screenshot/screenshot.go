package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// Region represents a screen region in virtual-desktop coordinates.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Surface is one physical display's rectangle within the virtual desktop,
// snapshotted when capture begins.
type Surface struct {
	Index  int
	Bounds image.Rectangle
}

// Origin returns the surface's top-left corner.
func (s Surface) Origin() image.Point { return s.Bounds.Min }

// Contains reports whether p (virtual-desktop coordinates) lies on the surface.
func (s Surface) Contains(p image.Point) bool { return p.In(s.Bounds) }

// Surfaces enumerates active displays. Display 0 is the primary one.
func Surfaces() ([]Surface, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	out := make([]Surface, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Surface{Index: i, Bounds: screenshot.GetDisplayBounds(i)})
	}
	return out, nil
}

// SurfaceAt returns the first surface containing p. Overlapping (mirrored)
// displays resolve to the lowest index.
func SurfaceAt(surfaces []Surface, p image.Point) (Surface, bool) {
	for _, s := range surfaces {
		if s.Contains(p) {
			return s, true
		}
	}
	return Surface{}, false
}

// Primary returns the primary surface (index 0), or false for an empty list.
func Primary(surfaces []Surface) (Surface, bool) {
	for _, s := range surfaces {
		if s.Index == 0 {
			return s, true
		}
	}
	if len(surfaces) > 0 {
		return surfaces[0], true
	}
	return Surface{}, false
}

// Virtual returns the union of all surfaces.
func Virtual(surfaces []Surface) image.Rectangle {
	var union image.Rectangle
	for i, s := range surfaces {
		if i == 0 {
			union = s.Bounds
			continue
		}
		union = union.Union(s.Bounds)
	}
	return union
}

// Grab captures the given virtual-desktop rectangle.
func Grab(bounds image.Rectangle) (*image.RGBA, error) {
	if bounds.Empty() {
		return nil, fmt.Errorf("invalid capture bounds: %v", bounds)
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %v: %w", bounds, err)
	}
	return img, nil
}

// Desktop grabs each active display through the kbinani backend.
type Desktop struct{}

func (Desktop) Surfaces() ([]Surface, error) { return Surfaces() }

func (Desktop) Grab(s Surface) (*image.RGBA, error) { return Grab(s.Bounds) }

// CaptureRegion captures a specific region of the screen as PNG bytes.
func CaptureRegion(region Region) ([]byte, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", region.Width, region.Height)
	}

	img, err := Grab(region.Rect())
	if err != nil {
		return nil, err
	}

	return EncodePNG(img)
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// IsPNG checks the PNG magic number.
func IsPNG(data []byte) bool {
	return len(data) >= len(pngMagic) && bytes.Equal(data[:len(pngMagic)], pngMagic)
}
