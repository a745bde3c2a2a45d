// Package input describes the keystrokes delivered to a composition session.
package input

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// KeyCode names a non-character key. Character keys use KeyNone and carry
// their rune in Event.Char.
type KeyCode uint16

const (
	KeyNone KeyCode = iota
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyTab
	KeySpace
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	// KeyModifier is a bare modifier press or release (flags changed).
	KeyModifier
)

var keyNames = map[KeyCode]string{
	KeyNone:      "none",
	KeyEnter:     "enter",
	KeyEscape:    "escape",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyTab:       "tab",
	KeySpace:     "space",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pageup",
	KeyPageDown:  "pagedown",
	KeyModifier:  "modifier",
}

// String returns the lowercase key name.
func (k KeyCode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", uint16(k))
}

// Modifiers represents modifier key state.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModMeta // Command on macOS, Super elsewhere
	ModCapsLock
)

// String lists the set modifiers joined by "+".
func (m Modifiers) String() string {
	var parts []string
	if m&ModShift != 0 {
		parts = append(parts, "shift")
	}
	if m&ModControl != 0 {
		parts = append(parts, "ctrl")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if m&ModMeta != 0 {
		parts = append(parts, "meta")
	}
	if m&ModCapsLock != 0 {
		parts = append(parts, "caps")
	}
	return strings.Join(parts, "+")
}

// Event is one keystroke as seen by the session. Events are values and are
// never modified after construction.
type Event struct {
	// Code is the named key, or KeyNone for character keys.
	Code KeyCode

	// Char is the character the key produces, if any.
	Char rune

	// Modifiers indicates which modifier keys are held.
	Modifiers Modifiers

	// Vertical reports that the host lays text out vertically. Candidate
	// windows follow the host orientation.
	Vertical bool

	// Timestamp is when the key event occurred.
	Timestamp time.Time
}

// NewKey creates a character key event.
func NewKey(char rune) Event {
	if char == ' ' {
		return Event{Code: KeySpace, Char: char}
	}
	return Event{Char: char}
}

// NewKeyWithCode creates a named key event.
func NewKeyWithCode(code KeyCode) Event {
	e := Event{Code: code}
	if code == KeySpace {
		e.Char = ' '
	}
	return e
}

// NewKeyFull creates an Event with all fields specified.
func NewKeyFull(code KeyCode, char rune, mods Modifiers, vertical bool, ts time.Time) Event {
	return Event{
		Code:      code,
		Char:      char,
		Modifiers: mods,
		Vertical:  vertical,
		Timestamp: ts,
	}
}

// WithModifiers returns a copy of e with mods set.
func (e Event) WithModifiers(mods Modifiers) Event {
	e.Modifiers = mods
	return e
}

// IsShift reports whether Shift is held.
func (e Event) IsShift() bool { return e.Modifiers&ModShift != 0 }

// IsControl reports whether Control is held.
func (e Event) IsControl() bool { return e.Modifiers&ModControl != 0 }

// IsCommand reports whether a modifier that turns the key into a shortcut
// (Control, Alt, Meta) is held.
func (e Event) IsCommand() bool {
	return e.Modifiers&(ModControl|ModAlt|ModMeta) != 0
}

// IsPrintable reports whether the event carries a printable character and
// no shortcut modifier.
func (e Event) IsPrintable() bool {
	return e.Char != 0 && unicode.IsPrint(e.Char) && !e.IsCommand()
}

// Is reports whether the event is the named key.
func (e Event) Is(code KeyCode) bool { return e.Code == code }

// String renders the event for logs, e.g. "shift+left" or "'a'".
func (e Event) String() string {
	var key string
	if e.Code != KeyNone {
		key = e.Code.String()
	} else {
		key = fmt.Sprintf("%q", e.Char)
	}
	if mods := e.Modifiers.String(); mods != "" {
		return mods + "+" + key
	}
	return key
}
