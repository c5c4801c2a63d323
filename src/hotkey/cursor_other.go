//go:build !windows && !linux

package hotkey

import "image"

func cursorPos() (image.Point, bool) { return image.Point{}, false }
