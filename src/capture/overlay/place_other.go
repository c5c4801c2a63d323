//go:build !windows && !linux

package overlay

import "image"

func moveNative(ctx any, b image.Rectangle) error { return errNoNative }
