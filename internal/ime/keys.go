package ime

import (
	"time"

	"github.com/GoatWang/BopomofoLLM/internal/input"
)

// IBus key event state masks.
const (
	ShiftMask   uint32 = 1 << 0
	LockMask    uint32 = 1 << 1
	ControlMask uint32 = 1 << 2
	Mod1Mask    uint32 = 1 << 3 // Alt
	Mod4Mask    uint32 = 1 << 6 // Super
	SuperMask   uint32 = 1 << 26
	MetaMask    uint32 = 1 << 28
	ReleaseMask uint32 = 1 << 30
)

// X11 keysyms of the named keys.
const (
	keyBackSpace = 0xff08
	keyTab       = 0xff09
	keyReturn    = 0xff0d
	keyEscape    = 0xff1b
	keyHome      = 0xff50
	keyLeft      = 0xff51
	keyUp        = 0xff52
	keyRight     = 0xff53
	keyDown      = 0xff54
	keyPageUp    = 0xff55
	keyPageDown  = 0xff56
	keyEnd       = 0xff57
	keyKPEnter   = 0xff8d
	keyKPHome    = 0xff95
	keyKPLeft    = 0xff96
	keyKPUp      = 0xff97
	keyKPRight   = 0xff98
	keyKPDown    = 0xff99
	keyKPPageUp  = 0xff9a
	keyKPPageDn  = 0xff9b
	keyKPEnd     = 0xff9c
	keyKPDelete  = 0xff9f
	keyKP0       = 0xffb0
	keyKP9       = 0xffb9
	keyDelete    = 0xffff
	keySpace     = 0x0020

	// Shift_L through Hyper_R.
	keyModifierFirst = 0xffe1
	keyModifierLast  = 0xffee
)

var namedKeys = map[uint32]input.KeyCode{
	keyBackSpace: input.KeyBackspace,
	keyTab:       input.KeyTab,
	keyReturn:    input.KeyEnter,
	keyKPEnter:   input.KeyEnter,
	keyEscape:    input.KeyEscape,
	keyHome:      input.KeyHome,
	keyKPHome:    input.KeyHome,
	keyLeft:      input.KeyLeft,
	keyKPLeft:    input.KeyLeft,
	keyUp:        input.KeyUp,
	keyKPUp:      input.KeyUp,
	keyRight:     input.KeyRight,
	keyKPRight:   input.KeyRight,
	keyDown:      input.KeyDown,
	keyKPDown:    input.KeyDown,
	keyPageUp:    input.KeyPageUp,
	keyKPPageUp:  input.KeyPageUp,
	keyPageDown:  input.KeyPageDown,
	keyKPPageDn:  input.KeyPageDown,
	keyEnd:       input.KeyEnd,
	keyKPEnd:     input.KeyEnd,
	keyDelete:    input.KeyDelete,
	keyKPDelete:  input.KeyDelete,
}

// TranslateKey converts an IBus key event into a session event. It returns
// false for key releases and for keys the session has no use for, which
// are left to the client.
func TranslateKey(keyval, keycode, state uint32) (input.Event, bool) {
	if state&ReleaseMask != 0 {
		return input.Event{}, false
	}
	mods := modifiers(state)
	now := time.Now()

	if keyval >= keyModifierFirst && keyval <= keyModifierLast {
		return input.NewKeyFull(input.KeyModifier, 0, mods, false, now), true
	}
	if keyval == keySpace {
		return input.NewKeyFull(input.KeySpace, ' ', mods, false, now), true
	}
	if code, ok := namedKeys[keyval]; ok {
		return input.NewKeyFull(code, 0, mods, false, now), true
	}
	if keyval >= keyKP0 && keyval <= keyKP9 {
		return input.NewKeyFull(input.KeyNone, rune('0'+keyval-keyKP0), mods, false, now), true
	}

	char := keyvalToRune(keyval)
	if char == 0 {
		return input.Event{}, false
	}
	return input.NewKeyFull(input.KeyNone, char, mods, false, now), true
}

func modifiers(state uint32) input.Modifiers {
	var mods input.Modifiers
	if state&ShiftMask != 0 {
		mods |= input.ModShift
	}
	if state&ControlMask != 0 {
		mods |= input.ModControl
	}
	if state&Mod1Mask != 0 {
		mods |= input.ModAlt
	}
	if state&(Mod4Mask|SuperMask|MetaMask) != 0 {
		mods |= input.ModMeta
	}
	if state&LockMask != 0 {
		mods |= input.ModCapsLock
	}
	return mods
}

// keyvalToRune converts X11 keysym to Unicode rune.
func keyvalToRune(keyval uint32) rune {
	// Direct Unicode mapping for Latin-1 range
	if keyval >= 0x20 && keyval <= 0x7e {
		return rune(keyval)
	}

	// Extended Latin (ISO 8859-1)
	if keyval >= 0xa0 && keyval <= 0xff {
		return rune(keyval)
	}

	// Unicode keysyms (0x01000000 + codepoint)
	if keyval >= 0x01000000 && keyval <= 0x0110ffff {
		return rune(keyval - 0x01000000)
	}

	return 0
}
