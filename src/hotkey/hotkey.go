package hotkey

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	gohook "github.com/robotn/gohook"
)

// gohook reports a press as MouseHold and a release as MouseDown.
const (
	buttonLeft   = 1
	buttonMiddle = 3

	// MiddleButton is the trigger name for the middle mouse button.
	MiddleButton = "middle"
)

// Listen invokes callback whenever trigger fires: either the middle mouse
// button or a key combination like "Ctrl+Alt+T". Activations closer together
// than debounce are dropped. Listen blocks until stop is closed.
func Listen(trigger string, debounce time.Duration, stop <-chan struct{}, callback func()) error {
	match, err := newMatcher(trigger)
	if err != nil {
		return err
	}
	log.Printf("Trigger listener configured for: %s", trigger)

	evChan := gohook.Start()
	defer gohook.End()

	var (
		mu   sync.Mutex
		last time.Time
	)
	fire := func() {
		mu.Lock()
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < debounce {
			mu.Unlock()
			log.Printf("Trigger ignored (debounce)")
			return
		}
		last = now
		mu.Unlock()
		go callback()
	}

	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-evChan:
			if !ok {
				log.Printf("Event channel closed")
				return nil
			}
			if match(ev) {
				log.Printf("Trigger activated: %s", trigger)
				fire()
			}
		}
	}
}

// newMatcher builds an event predicate for trigger.
func newMatcher(trigger string) (func(gohook.Event) bool, error) {
	if strings.EqualFold(strings.TrimSpace(trigger), MiddleButton) {
		return func(ev gohook.Event) bool {
			return ev.Kind == gohook.MouseHold && ev.Button == buttonMiddle
		}, nil
	}

	type keyState struct {
		name     string
		rawcodes []uint16
		pressed  bool
	}
	var keyStates []keyState
	for _, keyName := range parseHotkey(trigger) {
		rawcodes := keyNameToRawcodes(keyName)
		if len(rawcodes) == 0 {
			return nil, fmt.Errorf("cannot map key %q in trigger %q", keyName, trigger)
		}
		keyStates = append(keyStates, keyState{name: keyName, rawcodes: rawcodes})
	}
	if len(keyStates) == 0 {
		return nil, fmt.Errorf("no valid keys in trigger %q", trigger)
	}

	return func(ev gohook.Event) bool {
		switch ev.Kind {
		case gohook.KeyDown, gohook.KeyHold:
			for i := range keyStates {
				if containsCode(keyStates[i].rawcodes, ev.Rawcode) {
					keyStates[i].pressed = true
				}
			}
			for i := range keyStates {
				if !keyStates[i].pressed {
					return false
				}
			}
			for i := range keyStates {
				keyStates[i].pressed = false
			}
			return true
		case gohook.KeyUp:
			for i := range keyStates {
				if containsCode(keyStates[i].rawcodes, ev.Rawcode) {
					keyStates[i].pressed = false
				}
			}
		}
		return false
	}, nil
}

func containsCode(codes []uint16, code uint16) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			keys = append(keys, "ctrl")
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}

	return keys
}

// Windows virtual-key codes for named keys. Modifiers carry both left and
// right variants.
var namedRawcodes = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":       {91, 92},   // VK_LWIN, VK_RWIN
	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes.
// Letters, digits and F1-F24 follow the VK ranges; everything else comes from
// namedRawcodes.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	switch keyName {
	case "win", "super":
		keyName = "cmd"
	}

	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48}
		}
	}

	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1 = 112
		}
	}

	if codes, ok := namedRawcodes[keyName]; ok {
		return codes
	}

	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
