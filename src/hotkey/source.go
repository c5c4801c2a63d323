package hotkey

import (
	"image"
	"log"
	"sync"
	"sync/atomic"

	gohook "github.com/robotn/gohook"

	"screen-translator/src/capture"
)

// Source feeds global pointer and key events from gohook into a capture
// session. Position is the last pointer location seen; before any movement it
// reports the cursor position queried at startup, or the origin when the
// platform cannot be asked.
type Source struct {
	cancelRaw  []uint16
	cancelCode uint16

	events chan capture.Event
	x, y   atomic.Int32

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewSource starts the global hook. cancelKey names the abort key ("esc").
func NewSource(cancelKey string) *Source {
	s := newSource(cancelKey, cursorPos)
	evChan := gohook.Start()
	go s.pump(evChan)
	return s
}

func newSource(cancelKey string, cursor func() (image.Point, bool)) *Source {
	s := &Source{
		cancelRaw:  keyNameToRawcodes(cancelKey),
		cancelCode: gohook.Keycode[cancelKey],
		events:     make(chan capture.Event, 64),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if p, ok := cursor(); ok {
		s.setPosition(p)
	} else {
		log.Printf("hotkey: cursor position unavailable, starting at the origin")
	}
	return s
}

func (s *Source) Events() <-chan capture.Event { return s.events }

func (s *Source) Position() image.Point {
	return image.Pt(int(s.x.Load()), int(s.y.Load()))
}

func (s *Source) setPosition(p image.Point) {
	s.x.Store(int32(p.X))
	s.y.Store(int32(p.Y))
}

// Close stops the hook. Events is closed once the pump exits.
func (s *Source) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
		gohook.End()
	})
	<-s.done
}

func (s *Source) pump(evChan chan gohook.Event) {
	defer close(s.done)
	defer close(s.events)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in input goroutine: %v", r)
		}
	}()

	for {
		select {
		case <-s.stop:
			return
		case ev, ok := <-evChan:
			if !ok {
				return
			}
			out, ok := s.translate(ev)
			if !ok {
				continue
			}
			select {
			case s.events <- out:
			case <-s.stop:
				return
			}
		}
	}
}

// translate maps a gohook event to a capture event, recording pointer moves.
func (s *Source) translate(ev gohook.Event) (capture.Event, bool) {
	p := image.Pt(int(ev.X), int(ev.Y))
	switch ev.Kind {
	case gohook.MouseMove, gohook.MouseDrag:
		s.setPosition(p)
		return capture.Event{Kind: capture.PointerMove, Point: p}, true
	case gohook.MouseHold:
		if ev.Button != buttonLeft {
			return capture.Event{}, false
		}
		s.setPosition(p)
		return capture.Event{Kind: capture.PointerPress, Point: p}, true
	case gohook.MouseDown:
		if ev.Button != buttonLeft {
			return capture.Event{}, false
		}
		return capture.Event{Kind: capture.PointerRelease, Point: p}, true
	case gohook.KeyDown, gohook.KeyHold:
		if s.isCancel(ev) {
			return capture.Event{Kind: capture.CancelKey}, true
		}
	}
	return capture.Event{}, false
}

func (s *Source) isCancel(ev gohook.Event) bool {
	if s.cancelCode != 0 && ev.Keycode == s.cancelCode {
		return true
	}
	return containsCode(s.cancelRaw, ev.Rawcode)
}
