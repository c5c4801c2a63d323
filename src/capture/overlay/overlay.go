// Package overlay shows capture preview frames in a borderless window laid
// over the active display.
package overlay

import (
	"errors"
	"image"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver"
	"fyne.io/fyne/v2/driver/desktop"

	"screen-translator/src/screenshot"
)

var errNoNative = errors.New("no native window handle")

// Window implements capture.Presenter. Show and Close must be called off the
// fyne main goroutine; UI work is posted to it.
type Window struct {
	win    fyne.Window
	img    *canvas.Image
	shown  bool
	bounds image.Rectangle

	once sync.Once
	done chan struct{}
}

// New creates the preview window on app a. The window is shown on the first frame.
func New(a fyne.App, title string) *Window {
	w := &Window{done: make(chan struct{})}

	w.img = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	w.img.FillMode = canvas.ImageFillContain
	w.img.ScaleMode = canvas.ImageScalePixels

	if drv, ok := a.Driver().(desktop.Driver); ok {
		w.win = drv.CreateSplashWindow()
		w.win.SetTitle(title)
	} else {
		w.win = a.NewWindow(title)
	}
	w.win.SetPadded(false)
	w.win.SetContent(w.img)
	w.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			w.dismiss()
		}
	})
	w.win.SetOnClosed(w.dismiss)
	return w
}

// Show draws frame and moves the window over s whenever the active surface
// changes.
func (w *Window) Show(frame image.Image, s screenshot.Surface) {
	fyne.DoAndWait(func() {
		w.img.Image = frame
		w.img.Refresh()
		if !w.shown {
			w.win.Show()
			w.shown = true
		}
	})
	if s.Bounds == w.bounds {
		return
	}
	w.bounds = s.Bounds
	log.Printf("overlay: placing on surface %d %v", s.Index, s.Bounds)
	w.place(s.Bounds)
	fyne.Do(w.win.RequestFocus)
}

// place positions the window at b in virtual-desktop pixels. Without a native
// handle the window is only sized to b.
func (w *Window) place(b image.Rectangle) {
	err := errNoNative
	if nw, ok := w.win.(driver.NativeWindow); ok {
		nw.RunNative(func(ctx any) { err = moveNative(ctx, b) })
	}
	if err == nil {
		return
	}
	log.Printf("overlay: cannot position window (%v), sizing to %dx%d", err, b.Dx(), b.Dy())
	fyne.DoAndWait(func() {
		w.win.Resize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
	})
}

// Done fires when the user closes the window or presses Escape in it.
func (w *Window) Done() <-chan struct{} { return w.done }

func (w *Window) Close() {
	fyne.Do(func() {
		w.win.SetOnClosed(nil)
		w.win.Close()
	})
}

func (w *Window) dismiss() {
	w.once.Do(func() { close(w.done) })
}
