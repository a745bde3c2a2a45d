package ime

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/GoatWang/BopomofoLLM/internal/autocomplete"
	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/session"
)

// IBus D-Bus names.
const (
	IBusService         = "org.freedesktop.IBus"
	IBusPath            = "/org/freedesktop/IBus"
	IBusInterface       = "org.freedesktop.IBus"
	FactoryInterface    = "org.freedesktop.IBus.Factory"
	EngineInterface     = "org.freedesktop.IBus.Engine"
	ServiceInterface    = "org.freedesktop.IBus.Service"
	PropertiesInterface = "org.freedesktop.DBus.Properties"
	FactoryPath         = "/org/freedesktop/IBus/Factory"

	// BusName is requested when IBus starts the engine process.
	BusName = "org.freedesktop.IBus.Bopomofo"
	// EngineName is the engine name of the component.
	EngineName = "bopomofo"
)

// Client capabilities.
const (
	CapPreeditText     uint32 = 1 << 0
	CapAuxiliaryText   uint32 = 1 << 1
	CapLookupTable     uint32 = 1 << 2
	CapFocus           uint32 = 1 << 3
	CapProperty        uint32 = 1 << 4
	CapSurroundingText uint32 = 1 << 5
)

// Input purposes whose keys are never composed.
const (
	purposePassword uint32 = 8
	purposePIN      uint32 = 9
)

// preeditModeClear drops the preedit text when the client loses focus.
const preeditModeClear uint32 = 0

const propInputMode = "InputMode"

// Bus is the part of a D-Bus connection an engine uses. *dbus.Conn
// implements it.
type Bus interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
	Export(v interface{}, path dbus.ObjectPath, iface string) error
}

// Beeper plays the input error signal. It must not block.
type Beeper interface {
	Play()
}

// SessionFactory builds the controller of a new engine. The controller
// draws into host and window and hands asynchronous results back through
// poster.
type SessionFactory func(host session.Host, window session.CandidateWindow, poster autocomplete.Poster) *session.Controller

// EngineConfig configures an Engine.
type EngineConfig struct {
	Bus        Bus
	Path       dbus.ObjectPath
	NewSession SessionFactory
	// Beeper is optional.
	Beeper Beeper
	Logger *logging.Logger
	// Crash records panics of the session loop. Optional.
	Crash *logging.CrashHandler
	// OnDestroy is called once after the engine is destroyed.
	OnDestroy func(*Engine)
}

// Engine is one IBus engine object, serving one input context.
type Engine struct {
	bus       Bus
	path      dbus.ObjectPath
	log       *logging.Logger
	loop      *session.Loop
	cancel    context.CancelFunc
	ctrl      *session.Controller
	client    *clientHost
	table     *candidateTable
	onDestroy func(*Engine)
	destroy   sync.Once

	// Owned by the loop goroutine.
	caps        uint32
	purpose     uint32
	hints       uint32
	passthrough bool
}

// NewEngine creates an engine, exports it at cfg.Path and starts its
// session loop.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		bus:       cfg.Bus,
		path:      cfg.Path,
		log:       cfg.Logger.WithComponent("ime").WithClient(string(cfg.Path)),
		loop:      session.NewLoop(cfg.Crash),
		cancel:    cancel,
		onDestroy: cfg.OnDestroy,
	}
	e.client = &clientHost{engine: e, beeper: cfg.Beeper}
	e.table = &candidateTable{engine: e}
	e.ctrl = cfg.NewSession(e.client, e.table, e.loop)

	if err := e.export(); err != nil {
		cancel()
		e.ctrl.Close()
		return nil, err
	}
	go e.loop.Run(ctx)
	e.log.Debug("engine created")
	return e, nil
}

func (e *Engine) export() error {
	if err := e.bus.Export(e, e.path, EngineInterface); err != nil {
		return err
	}
	if err := e.bus.Export(engineService{e}, e.path, ServiceInterface); err != nil {
		return err
	}
	return e.bus.Export(engineProperties{e}, e.path, PropertiesInterface)
}

// Path returns the object path of the engine.
func (e *Engine) Path() dbus.ObjectPath { return e.path }

// SyncSettings makes the controller re-read its settings.
func (e *Engine) SyncSettings() {
	e.loop.Post(func() {
		e.ctrl.SyncSettings()
		e.registerProperties()
	})
}

// Done is closed when the engine is destroyed.
func (e *Engine) Done() <-chan struct{} { return e.loop.Done() }

// Destroy stops the engine and removes it from the bus.
func (e *Engine) Destroy() {
	e.destroy.Do(func() {
		if err := e.loop.Do(e.ctrl.Close); err != nil {
			e.log.Debug("session loop already stopped")
		}
		e.cancel()
		e.loop.Close()
		for _, iface := range []string{EngineInterface, ServiceInterface, PropertiesInterface} {
			e.bus.Export(nil, e.path, iface)
		}
		if e.onDestroy != nil {
			e.onDestroy(e)
		}
		e.log.Debug("engine destroyed")
	})
}

func (e *Engine) do(fn func()) *dbus.Error {
	if err := e.loop.Do(fn); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (e *Engine) emit(signal string, values ...interface{}) {
	if err := e.bus.Emit(e.path, EngineInterface+"."+signal, values...); err != nil {
		e.log.Warn("emit signal failed", "signal", signal, "error", err)
	}
}

// ProcessKeyEvent handles key press/release events from IBus.
// Returns true if the key was consumed, false to pass through.
func (e *Engine) ProcessKeyEvent(keyval, keycode, state uint32) (bool, *dbus.Error) {
	ev, ok := TranslateKey(keyval, keycode, state)
	if !ok {
		return false, nil
	}
	var handled bool
	err := e.do(func() {
		if e.passthrough {
			return
		}
		handled = e.ctrl.HandleEvent(ev)
	})
	return handled, err
}

// FocusIn is called when the engine gains input focus.
func (e *Engine) FocusIn() *dbus.Error {
	return e.do(func() {
		e.ctrl.Activate()
		e.registerProperties()
		if e.caps&CapSurroundingText != 0 {
			e.emit("RequireSurroundingText")
		}
	})
}

// FocusOut is called when the engine loses input focus. Composed text is
// committed.
func (e *Engine) FocusOut() *dbus.Error {
	return e.do(func() {
		e.ctrl.Deactivate()
		e.client.forget()
	})
}

// Enable is called when the user switches to the engine.
func (e *Engine) Enable() *dbus.Error {
	return e.do(func() {
		e.ctrl.Activate()
		e.emit("RequireSurroundingText")
	})
}

// Disable is called when the user switches away from the engine.
func (e *Engine) Disable() *dbus.Error {
	return e.do(e.ctrl.Deactivate)
}

// Reset is called when the client moves the insertion point.
func (e *Engine) Reset() *dbus.Error {
	return e.do(e.ctrl.CommitComposition)
}

// SetCapabilities informs about client capabilities.
func (e *Engine) SetCapabilities(caps uint32) *dbus.Error {
	return e.do(func() { e.caps = caps })
}

// SetCursorLocation informs about cursor position. The panel places the
// lookup table itself.
func (e *Engine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return nil
}

// SetSurroundingText provides the text around the cursor.
func (e *Engine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	s, ok := textOf(text)
	if !ok {
		return nil
	}
	return e.do(func() { e.client.setSurrounding(s, int(cursorPos)) })
}

// SetContentType informs about the type of content being edited. Password
// and PIN fields receive every key unchanged.
func (e *Engine) SetContentType(purpose, hints uint32) *dbus.Error {
	return e.do(func() { e.setContentType(purpose, hints) })
}

func (e *Engine) setContentType(purpose, hints uint32) {
	e.purpose, e.hints = purpose, hints
	passthrough := purpose == purposePassword || purpose == purposePIN
	if passthrough && !e.passthrough {
		e.ctrl.CommitComposition()
	}
	e.passthrough = passthrough
}

// PageUp handles page up in candidate list.
func (e *Engine) PageUp() *dbus.Error { return e.key(input.KeyPageUp) }

// PageDown handles page down in candidate list.
func (e *Engine) PageDown() *dbus.Error { return e.key(input.KeyPageDown) }

// CursorUp handles cursor up in candidate list.
func (e *Engine) CursorUp() *dbus.Error { return e.key(input.KeyUp) }

// CursorDown handles cursor down in candidate list.
func (e *Engine) CursorDown() *dbus.Error { return e.key(input.KeyDown) }

func (e *Engine) key(code input.KeyCode) *dbus.Error {
	return e.do(func() { e.ctrl.HandleEvent(input.NewKeyWithCode(code)) })
}

// CandidateClicked selects a candidate of the visible page.
func (e *Engine) CandidateClicked(index, button, state uint32) *dbus.Error {
	return e.do(func() {
		if i := e.table.absolute(int(index)); i >= 0 {
			e.ctrl.SelectCandidate(i)
		}
	})
}

// PropertyActivate handles clicks on the panel menu.
func (e *Engine) PropertyActivate(name string, state uint32) *dbus.Error {
	if name != propInputMode {
		return nil
	}
	return e.do(func() {
		mode := composer.ModePlainBopomofo
		if e.ctrl.Settings().Mode == composer.ModePlainBopomofo {
			mode = composer.ModeBopomofo
		}
		e.ctrl.SetMode(mode)
		e.registerProperties()
	})
}

// PropertyShow is part of the engine interface; the engine has no
// hidden properties.
func (e *Engine) PropertyShow(name string) *dbus.Error { return nil }

// PropertyHide is part of the engine interface.
func (e *Engine) PropertyHide(name string) *dbus.Error { return nil }

func (e *Engine) registerProperties() {
	plain := e.ctrl.Settings().Mode == composer.ModePlainBopomofo
	mode := property{
		Key:     propInputMode,
		Label:   "Plain Bopomofo",
		Tooltip: "Compose one character at a time",
		Symbol:  "注",
		Toggle:  true,
		Checked: plain,
	}
	if plain {
		mode.Symbol = "簡"
	}
	e.emit("RegisterProperties", propList(mode))
}

// engineService is the org.freedesktop.IBus.Service interface of an
// engine.
type engineService struct{ e *Engine }

// Destroy is called by IBus when the input context goes away.
func (s engineService) Destroy() *dbus.Error {
	go s.e.Destroy()
	return nil
}

// clientHost draws a session into the IBus client.
type clientHost struct {
	engine *Engine
	beeper Beeper
	// before is the client text preceding the insertion point, as last
	// reported by the client and extended by our own commits.
	before []rune
}

// maxBefore bounds the remembered text before the cursor.
const maxBefore = 256

var _ session.Host = (*clientHost)(nil)

func (h *clientHost) MarkText(text string, cursor int) {
	if text == "" {
		h.engine.emit("UpdatePreeditText", plainText(""), uint32(0), false, preeditModeClear)
		return
	}
	h.engine.emit("UpdatePreeditText", preeditText(text), uint32(cursor), true, preeditModeClear)
}

func (h *clientHost) CommitText(text string) {
	h.engine.emit("UpdatePreeditText", plainText(""), uint32(0), false, preeditModeClear)
	h.engine.emit("CommitText", plainText(text))
	h.before = append(h.before, []rune(text)...)
	if len(h.before) > maxBefore {
		h.before = append([]rune(nil), h.before[len(h.before)-maxBefore:]...)
	}
}

func (h *clientHost) ShowTooltip(text string, anchor int) {
	h.engine.emit("UpdateAuxiliaryText", plainText(text), true)
}

func (h *clientHost) HideTooltip() {
	h.engine.emit("UpdateAuxiliaryText", plainText(""), false)
}

func (h *clientHost) PlayErrorSignal() {
	if h.beeper != nil {
		h.beeper.Play()
	}
}

func (h *clientHost) TextBeforeCursor(limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(h.before) > limit {
		return string(h.before[len(h.before)-limit:])
	}
	return string(h.before)
}

func (h *clientHost) setSurrounding(text string, cursor int) {
	runes := []rune(text)
	cursor = min(max(cursor, 0), len(runes))
	h.before = append(h.before[:0], runes[:cursor]...)
}

func (h *clientHost) forget() {
	h.before = nil
}

// candidateTable is the IBus lookup table of one engine.
type candidateTable struct {
	engine  *Engine
	window  session.Window
	visible bool
	cursor  int
}

var _ session.CandidateWindow = (*candidateTable)(nil)

func (t *candidateTable) Show(w session.Window) {
	t.window, t.visible, t.cursor = w, true, 0
	t.update()
	if w.Tooltip != "" {
		t.engine.emit("UpdateAuxiliaryText", plainText(w.Tooltip), true)
	}
}

func (t *candidateTable) Hide() {
	hadTooltip := t.visible && t.window.Tooltip != ""
	t.window, t.visible, t.cursor = session.Window{}, false, 0
	t.engine.emit("UpdateLookupTable", lookupTable(nil, nil, 0, false), false)
	if hadTooltip {
		t.engine.emit("UpdateAuxiliaryText", plainText(""), false)
	}
}

func (t *candidateTable) Highlighted() int {
	if !t.visible {
		return -1
	}
	return t.cursor
}

func (t *candidateTable) SetHighlighted(index int) {
	if !t.visible || index < 0 || index >= len(t.window.Candidates) {
		return
	}
	t.cursor = index
	t.update()
}

func (t *candidateTable) update() {
	w := t.window
	t.engine.emit("UpdateLookupTable", lookupTable(w.Candidates, w.Labels, t.cursor, w.Vertical), true)
}

// absolute converts an index on the visible page to a candidate index, or
// -1 when there is no such candidate.
func (t *candidateTable) absolute(index int) int {
	size := t.window.PageSize()
	if !t.visible || size == 0 || index < 0 || index >= size {
		return -1
	}
	i := t.cursor/size*size + index
	if i >= len(t.window.Candidates) {
		return -1
	}
	return i
}
