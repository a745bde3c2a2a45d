// Package session implements the input session: the current composition
// state, the transitions keystrokes and selections cause, and the effects
// each transition has on the host.
//
// A Controller is not safe for concurrent use. Hosts drive it from one
// goroutine, normally through a Loop, and results computed elsewhere come
// back through Loop.Post.
package session

import (
	"github.com/GoatWang/BopomofoLLM/internal/autocomplete"
	"github.com/GoatWang/BopomofoLLM/internal/candidate"
	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

// Config holds the collaborators of a Controller. Composer, Host, Window and
// Selector are required.
type Config struct {
	Composer composer.Composer
	Host     Host
	Window   CandidateWindow
	Selector *candidate.Coordinator

	Settings     SettingsProvider
	Autocomplete *autocomplete.Coordinator
	Phrases      PhraseWriter
	Hook         Hook
	Converter    Converter
	Logger       *logging.Logger
}

// Controller owns the current state of one input session.
type Controller struct {
	composer  composer.Composer
	host      Host
	window    CandidateWindow
	selector  *candidate.Coordinator
	provider  SettingsProvider
	completer *autocomplete.Coordinator
	phrases   PhraseWriter
	hook      Hook
	converter Converter
	log       *logging.Logger

	settings   Settings
	// provided is the provider's last snapshot. settings differs from it
	// only in a mode chosen with SetMode.
	provided   Settings
	loaded     bool
	current    state.State
	vertical   bool
	generation uint64
}

// New creates a Controller in the Empty state.
func New(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	c := &Controller{
		composer:  cfg.Composer,
		host:      cfg.Host,
		window:    cfg.Window,
		selector:  cfg.Selector,
		provider:  cfg.Settings,
		completer: cfg.Autocomplete,
		phrases:   cfg.Phrases,
		hook:      cfg.Hook,
		converter: cfg.Converter,
		log:       cfg.Logger.WithComponent("session"),
		current:   state.Empty{},
	}
	c.loadSettings()
	return c
}

// State returns the current state.
func (c *Controller) State() state.State { return c.current }

// Settings returns the settings in effect.
func (c *Controller) Settings() Settings { return c.settings }

// Generation counts the external inputs the controller has seen. A result
// computed for one generation is stale in any later one.
func (c *Controller) Generation() uint64 { return c.generation }

// loadSettings re-reads the provider. A mode chosen with SetMode is kept
// until the provider's own mode changes.
func (c *Controller) loadSettings() {
	next := DefaultSettings()
	if c.provider != nil {
		next = c.provider.Settings()
	}
	chosen := c.settings.Mode
	keep := c.loaded && next.Mode == c.provided.Mode
	c.provided, c.settings, c.loaded = next, next, true
	if keep {
		c.settings.Mode = chosen
	}
	if ks, ok := c.composer.(candidateKeySetter); ok {
		ks.SetCandidateKeys(c.settings.CandidateKeys)
	}
}

// candidateKeySetter is implemented by composers whose selection keys follow
// the settings.
type candidateKeySetter interface {
	SetCandidateKeys(keys string)
}

// Activate starts a session for a newly focused client.
func (c *Controller) Activate() {
	c.generation++
	c.loadSettings()
	c.composer.Clear()
	if c.composer.Mode() != c.settings.Mode {
		c.composer.SetMode(c.settings.Mode)
	}
	c.log.Debug("activated", "mode", c.settings.Mode)
}

// Deactivate ends the session. Composed text is committed and the session
// is left Empty.
func (c *Controller) Deactivate() {
	c.generation++
	if c.completer != nil {
		c.completer.Invalidate()
	}
	// A plain-mode candidate window marks the reading; commit the character
	// composed for it, as CommitComposition does.
	if _, ok := c.current.(state.ChoosingCandidate); ok &&
		c.composer.Mode() == composer.ModePlainBopomofo && c.composer.HasComposingText() {
		c.enter(c.composer.ForceCommit())
	}
	c.composer.Clear()
	c.enter(state.Deactivated{})
	c.log.Debug("deactivated")
}

// SetMode switches the composition mode. Switching clears the composer and
// enters Empty; setting the current mode does nothing.
func (c *Controller) SetMode(m composer.Mode) {
	c.generation++
	c.settings.Mode = m
	if c.composer.Mode() == m {
		return
	}
	c.composer.Clear()
	c.composer.SetMode(m)
	c.enter(state.Empty{})
	c.log.Info("input mode changed", "mode", m)
}

// SyncSettings re-reads the settings provider.
func (c *Controller) SyncSettings() {
	previous := c.settings
	c.loadSettings()
	if c.settings.Mode != previous.Mode {
		c.SetMode(c.settings.Mode)
	}
}

// HandleEvent processes one keystroke. It reports whether the key was
// consumed; an unconsumed key is left to the host.
func (c *Controller) HandleEvent(ev input.Event) bool {
	c.generation++
	c.vertical = ev.Vertical

	if ev.Code == input.KeyModifier {
		return !state.IsEmpty(c.current)
	}

	out := c.composer.Advance(composer.Request{
		State:       c.current,
		Event:       ev,
		Highlighted: c.highlighted(),
	})
	if out.Declined() {
		return false
	}

	if out.Write != nil {
		if !c.WriteUserPhrase(*out.Write) {
			return true
		}
		c.enter(c.composer.BuildInputtingState())
	}
	if out.Rejected {
		c.signalError()
	}
	for _, next := range out.States {
		c.enter(next)
	}
	if out.Move != 0 {
		c.moveHighlight(out.Move)
	}
	if out.Selects {
		c.selectCandidate(out.Index)
	}
	if out.SelectsHighlighted {
		c.selectCandidate(c.window.Highlighted())
	}
	return !out.PassThrough
}

// SelectCandidate selects candidate index of the open candidate window.
// A negative index is ignored. Any other index must be valid for the
// current state.
func (c *Controller) SelectCandidate(index int) {
	c.generation++
	c.selectCandidate(index)
}

// CommitComposition commits whatever is being composed, as when the client
// asks the input method to finish.
func (c *Controller) CommitComposition() {
	c.generation++
	if c.composer.HasComposingText() {
		c.enter(c.composer.ForceCommit())
		c.enter(state.Empty{})
		return
	}
	if !state.IsEmpty(c.current) {
		c.enter(state.EmptyIgnoringPreviousState{})
	}
}

// WriteUserPhrase stores the marked phrase. It returns false, changing
// nothing, when the marking is not valid to write or the phrase could not
// be stored.
func (c *Controller) WriteUserPhrase(m state.Marking) bool {
	if !m.ValidToWrite() {
		return false
	}
	p := m.UserPhrase()
	if c.phrases != nil {
		if err := c.phrases.WritePhrase(p.Reading, p.Value); err != nil {
			c.log.Warn("write user phrase failed", "reading", p.Reading, "error", err)
			return false
		}
	}
	c.composer.AddUserPhrase(p)
	c.log.Info("user phrase added", "reading", p.Reading)

	if c.settings.AddPhraseHookEnabled && c.settings.AddPhraseHookPath != "" && c.hook != nil {
		c.hook.Start(c.settings.AddPhraseHookPath, m.SelectedText())
	}
	return true
}

// Close drops pending suggestions.
func (c *Controller) Close() {
	if c.completer != nil {
		c.completer.Close()
	}
}

func (c *Controller) highlighted() int {
	if _, ok := c.current.(state.CandidateProvider); !ok {
		return -1
	}
	return c.window.Highlighted()
}

func (c *Controller) selectCandidate(index int) {
	if index < 0 {
		return
	}
	steps := c.selector.Select(c.current, index, candidate.Options{
		AssociatedPhrasesEnabled: c.settings.AssociatedPhrasesEnabled,
		Vertical:                 c.vertical,
	})
	for _, step := range steps {
		if step.Error {
			c.signalError()
		}
		if step.State != nil {
			c.enter(step.State)
		}
		if step.Reselect > 0 {
			c.window.SetHighlighted(step.Reselect)
		}
	}
}

func (c *Controller) moveHighlight(delta int) {
	cp, ok := c.current.(state.CandidateProvider)
	if !ok || cp.CandidateCount() == 0 {
		return
	}
	from := max(c.window.Highlighted(), 0)
	to := min(max(from+delta, 0), cp.CandidateCount()-1)
	if to == from {
		c.signalError()
		return
	}
	c.window.SetHighlighted(to)
}

func (c *Controller) signalError() {
	if c.settings.BeepUponInputError && !state.IsEmpty(c.current) {
		c.run([]Effect{PlayErrorSignal{}})
	}
}

// enter installs next and applies its effects.
func (c *Controller) enter(next state.State) {
	previous := c.current
	installed, effects := Transition(previous, next, Env{
		Settings:         c.settings,
		Mode:             c.composer.Mode(),
		HasComposingText: c.composer.HasComposingText(),
	})
	c.current = installed
	c.log.Debug("state entered", "from", previous.Kind(), "to", state.Describe(next), "effects", len(effects))
	c.run(effects)
}

// run applies effects to the host and the candidate window in order.
func (c *Controller) run(effects []Effect) {
	for _, e := range effects {
		switch e := e.(type) {
		case MarkText:
			c.host.MarkText(e.Text, e.Cursor)
		case ClearMarkedText:
			c.host.MarkText("", 0)
		case CommitText:
			c.commit(e.Text)
		case ShowCandidates:
			c.window.Show(e.Window)
		case HideCandidates:
			c.window.Hide()
		case ShowTooltip:
			c.host.ShowTooltip(e.Text, e.Anchor)
		case HideTooltip:
			c.host.HideTooltip()
		case PlayErrorSignal:
			c.host.PlayErrorSignal()
		case RequestAutocomplete:
			c.requestAutocomplete()
		}
	}
}

func (c *Controller) commit(text string) {
	if c.converter != nil {
		text = c.converter.Convert(text, c.settings.HalfWidthPunctuationEnabled, c.settings.ChineseConversionEnabled)
	}
	if text == "" {
		return
	}
	c.host.CommitText(text)
}

func (c *Controller) requestAutocomplete() {
	if c.completer == nil {
		return
	}
	generation := c.generation
	text := c.host.TextBeforeCursor(autocomplete.ContextLength)
	c.completer.Request(text, func(s state.Autocomplete) {
		if c.generation != generation {
			c.log.Debug("dropping suggestion for an old input", "generation", generation)
			return
		}
		c.enter(s)
	})
}
