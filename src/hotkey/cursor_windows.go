//go:build windows

package hotkey

import (
	"image"
	"unsafe"

	"golang.org/x/sys/windows"
)

var procGetCursorPos = windows.NewLazySystemDLL("user32.dll").NewProc("GetCursorPos")

// cursorPos asks Windows for the pointer position in virtual-desktop pixels.
func cursorPos() (image.Point, bool) {
	var pt struct{ X, Y int32 }
	ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return image.Point{}, false
	}
	return image.Pt(int(pt.X), int(pt.Y)), true
}
