//go:build windows

package overlay

import (
	"fmt"
	"image"

	"fyne.io/fyne/v2/driver"
	"golang.org/x/sys/windows"
)

var procSetWindowPos = windows.NewLazySystemDLL("user32.dll").NewProc("SetWindowPos")

const (
	hwndTopmost    = ^uintptr(0) // HWND_TOPMOST is (HWND)-1
	swpShowWindow  = 0x0040
	swpNoOwnerZOrd = 0x0200
)

func moveNative(ctx any, b image.Rectangle) error {
	wc, ok := ctx.(driver.WindowsWindowContext)
	if !ok || wc.HWND == 0 {
		return errNoNative
	}
	ret, _, err := procSetWindowPos.Call(wc.HWND, hwndTopmost,
		uintptr(b.Min.X), uintptr(b.Min.Y), uintptr(b.Dx()), uintptr(b.Dy()),
		swpShowWindow|swpNoOwnerZOrd)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos: %w", err)
	}
	return nil
}
