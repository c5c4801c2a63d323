//go:build linux

package overlay

import (
	"fmt"
	"image"

	"fyne.io/fyne/v2/driver"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

func moveNative(ctx any, b image.Rectangle) error {
	wc, ok := ctx.(driver.X11WindowContext)
	if !ok || wc.WindowHandle == 0 {
		return errNoNative
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("x11 connect: %w", err)
	}
	defer conn.Close()

	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{uint32(int32(b.Min.X)), uint32(int32(b.Min.Y)), uint32(b.Dx()), uint32(b.Dy())}
	if err := xproto.ConfigureWindowChecked(conn, xproto.Window(wc.WindowHandle), mask, values).Check(); err != nil {
		return fmt.Errorf("x11 configure window: %w", err)
	}
	return nil
}
