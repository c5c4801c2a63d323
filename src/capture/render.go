package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Style controls the preview look.
type Style struct {
	Accent      color.Color
	BorderWidth int
	// DimAlpha is the opacity (0-255) of the black veil over unselected pixels.
	DimAlpha uint8
	Hint     string
}

// DefaultStyle matches the classic look: 100/255 black veil, 3 px red border.
func DefaultStyle() Style {
	return Style{
		Accent:      color.RGBA{R: 255, A: 255},
		BorderWidth: 3,
		DimAlpha:    100,
		Hint:        "ESC cancel",
	}
}

// ParseAccent converts a hex color into a color.Color.
func ParseAccent(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid accent color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Renderer composes preview frames. The dimmed copy is cached per source frame
// so drags only pay for the selection blit.
type Renderer struct {
	style  Style
	source *image.RGBA
	dimmed *image.RGBA
}

func NewRenderer(style Style) *Renderer {
	if style.Accent == nil {
		style.Accent = DefaultStyle().Accent
	}
	if style.BorderWidth <= 0 {
		style.BorderWidth = DefaultStyle().BorderWidth
	}
	return &Renderer{style: style}
}

// Render returns a new frame: dimmed surface, undimmed selection, border.
// An empty sel renders only the veil and hint.
func (r *Renderer) Render(frame *image.RGBA, sel image.Rectangle) *image.RGBA {
	if frame == nil {
		return nil
	}
	if r.source != frame {
		r.source = frame
		r.dimmed = adjust.Brightness(frame, -float64(r.style.DimAlpha)/255)
	}

	b := frame.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, r.dimmed, r.dimmed.Bounds().Min, draw.Src)

	sel = sel.Add(b.Min).Intersect(b)
	if !sel.Empty() {
		draw.Draw(out, sel, frame, sel.Min, draw.Src)
		r.border(out, sel)
		r.label(out, sel.Min.Add(image.Pt(0, -6)), fmt.Sprintf("%dx%d", sel.Dx(), sel.Dy()))
	}
	if r.style.Hint != "" {
		r.label(out, b.Min.Add(image.Pt(8, 20)), r.style.Hint)
	}
	return out
}

// border paints a frame of BorderWidth pixels just outside sel.
func (r *Renderer) border(dst *image.RGBA, sel image.Rectangle) {
	w := r.style.BorderWidth
	outer := sel.Inset(-w).Intersect(dst.Bounds())
	src := image.NewUniform(r.style.Accent)
	strips := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, sel.Min.Y),
		image.Rect(outer.Min.X, sel.Max.Y, outer.Max.X, outer.Max.Y),
		image.Rect(outer.Min.X, sel.Min.Y, sel.Min.X, sel.Max.Y),
		image.Rect(sel.Max.X, sel.Min.Y, outer.Max.X, sel.Max.Y),
	}
	for _, s := range strips {
		if !s.Empty() {
			draw.Draw(dst, s, src, image.Point{}, draw.Src)
		}
	}
}

func (r *Renderer) label(dst *image.RGBA, at image.Point, text string) {
	face := basicfont.Face7x13
	if at.Y < face.Ascent {
		at.Y = face.Ascent
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(text)
}
