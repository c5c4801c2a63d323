package capture

import "image"

// MinSelectionSpan is the exclusive lower bound, in pixels, for both sides of
// a selection. Anything at or below it is treated as a stray click.
const MinSelectionSpan = 5

// Clamp limits p to the pixels of a w×h surface (surface-relative coordinates).
func Clamp(p image.Point, w, h int) image.Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if w > 0 && p.X > w-1 {
		p.X = w - 1
	}
	if h > 0 && p.Y > h-1 {
		p.Y = h - 1
	}
	return p
}

// Selection returns the normalized rectangle spanned by anchor and current.
// Both corner pixels are inside it, so a press and release on the same pixel
// selects 1x1.
func Selection(anchor, current image.Point) image.Rectangle {
	r := image.Rect(anchor.X, anchor.Y, current.X, current.Y)
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// Valid reports whether r is large enough to finalize.
func Valid(r image.Rectangle) bool {
	return r.Dx() > MinSelectionSpan && r.Dy() > MinSelectionSpan
}
