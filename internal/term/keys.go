package term

import (
	"github.com/gdamore/tcell/v2"

	"github.com/GoatWang/BopomofoLLM/internal/input"
)

var namedKeys = map[tcell.Key]input.KeyCode{
	tcell.KeyEnter:     input.KeyEnter,
	tcell.KeyEscape:    input.KeyEscape,
	tcell.KeyBackspace: input.KeyBackspace,
	tcell.KeyDelete:    input.KeyDelete,
	tcell.KeyTab:       input.KeyTab,
	tcell.KeyBacktab:   input.KeyTab,
	tcell.KeyLeft:      input.KeyLeft,
	tcell.KeyRight:     input.KeyRight,
	tcell.KeyUp:        input.KeyUp,
	tcell.KeyDown:      input.KeyDown,
	tcell.KeyHome:      input.KeyHome,
	tcell.KeyEnd:       input.KeyEnd,
	tcell.KeyPgUp:      input.KeyPageUp,
	tcell.KeyPgDn:      input.KeyPageDown,
}

// translateKey converts a terminal key to a session event. Keys the session
// has no use for, such as function keys, are reported as not ok.
func translateKey(ev *tcell.EventKey) (input.Event, bool) {
	mods := modifiers(ev.Modifiers())
	key := ev.Key()
	if key == tcell.KeyBackspace2 {
		key = tcell.KeyBackspace
	}
	if key == tcell.KeyBacktab {
		mods |= input.ModShift
	}

	if code, ok := namedKeys[key]; ok {
		return input.NewKeyFull(code, 0, mods, false, ev.When()), true
	}
	switch {
	case key == tcell.KeyRune:
		r := ev.Rune()
		code := input.KeyNone
		if r == ' ' {
			code = input.KeySpace
		}
		return input.NewKeyFull(code, r, mods, false, ev.When()), true
	case key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ:
		r := 'a' + rune(key-tcell.KeyCtrlA)
		return input.NewKeyFull(input.KeyNone, r, mods|input.ModControl, false, ev.When()), true
	}
	return input.Event{}, false
}

func modifiers(m tcell.ModMask) input.Modifiers {
	var mods input.Modifiers
	if m&tcell.ModShift != 0 {
		mods |= input.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= input.ModControl
	}
	if m&tcell.ModAlt != 0 {
		mods |= input.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= input.ModMeta
	}
	return mods
}
