package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoatWang/BopomofoLLM/internal/autocomplete"
	"github.com/GoatWang/BopomofoLLM/internal/candidate"
	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/state"
	"github.com/GoatWang/BopomofoLLM/internal/suggest"
)

// recordingHost records what a session draws.
type recordingHost struct {
	t *testing.T

	marked    string
	cursor    int
	committed []string
	tooltip   string
	beeps     int
}

func (h *recordingHost) MarkText(text string, cursor int) {
	if cursor < 0 || cursor > len([]rune(text)) {
		h.t.Errorf("cursor %d outside %q", cursor, text)
	}
	h.marked, h.cursor = text, cursor
}

func (h *recordingHost) CommitText(text string) {
	h.committed = append(h.committed, text)
	h.marked, h.cursor = "", 0
}

func (h *recordingHost) ShowTooltip(text string, anchor int) { h.tooltip = text }
func (h *recordingHost) HideTooltip()                        { h.tooltip = "" }
func (h *recordingHost) PlayErrorSignal()                    { h.beeps++ }

func (h *recordingHost) TextBeforeCursor(limit int) string {
	runes := []rune(strings.Join(h.committed, ""))
	if len(runes) > limit {
		runes = runes[len(runes)-limit:]
	}
	return string(runes)
}

// fakeWindow is a candidate window that highlights its first candidate when
// shown.
type fakeWindow struct {
	shown       bool
	window      Window
	highlighted int
	reselected  []int
	hides       int
}

func (w *fakeWindow) Show(win Window) {
	w.shown, w.window, w.highlighted = true, win, 0
}

func (w *fakeWindow) Hide() {
	w.shown = false
	w.hides++
}

func (w *fakeWindow) Highlighted() int {
	if !w.shown {
		return -1
	}
	return w.highlighted
}

func (w *fakeWindow) SetHighlighted(index int) {
	w.highlighted = index
	w.reselected = append(w.reselected, index)
}

// fakeComposer fixes a chosen candidate by replacing its whole buffer.
type fakeComposer struct {
	mode      composer.Mode
	buffer    string
	cursor    int
	composing bool
	outcome   composer.Outcome
	phrases   []state.Phrase
}

func (f *fakeComposer) Advance(composer.Request) composer.Outcome { return f.outcome }

func (f *fakeComposer) ForceCommit() state.State {
	text := f.buffer
	f.Clear()
	return state.Committing{PoppedText: text}
}

func (f *fakeComposer) Clear() {
	f.buffer, f.cursor, f.composing = "", 0, false
}

func (f *fakeComposer) HasComposingText() bool  { return f.composing }
func (f *fakeComposer) Mode() composer.Mode     { return f.mode }
func (f *fakeComposer) SetMode(m composer.Mode) { f.Clear(); f.mode = m }

func (f *fakeComposer) BuildInputtingState() state.State {
	return state.NewInputting(f.buffer, f.cursor, "")
}

func (f *fakeComposer) BuildAssociatedPhraseState(string, string, bool) (state.State, bool) {
	return nil, false
}

func (f *fakeComposer) BuildAssociatedPhrases(state.State, bool, bool) (state.State, bool) {
	return nil, false
}

func (f *fakeComposer) FixNode(reading, value string, originalCursor int, moveCursorAfterSelection bool) {
	f.buffer, f.cursor, f.composing = value, originalCursor, true
}

func (f *fakeComposer) FixAssociatedPhraseWithPrefix(cursor int, prefixReading, prefixValue, reading, value string) {
	f.buffer = prefixValue + value
}

func (f *fakeComposer) AddUserPhrase(p state.Phrase) { f.phrases = append(f.phrases, p) }

type staticSettings Settings

func (s staticSettings) Settings() Settings { return Settings(s) }

type mutableSettings struct{ s Settings }

func (m *mutableSettings) Settings() Settings { return m.s }

// queuePoster holds posted closures until drained.
type queuePoster struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queuePoster) Post(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fns = append(q.fns, fn)
}

func (q *queuePoster) drain() int {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

type fakeWriter struct {
	err     error
	written []state.Phrase
}

func (w *fakeWriter) WritePhrase(reading, value string) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, state.Phrase{Reading: reading, Value: value})
	return nil
}

type fakeHook struct{ started []string }

func (h *fakeHook) Start(script, text string) { h.started = append(h.started, script+" "+text) }

type fakeClipboard struct{ text string }

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

type simplifyingConverter struct{}

func (simplifyingConverter) Convert(text string, halfWidth, simplified bool) string {
	if simplified {
		return strings.ReplaceAll(text, "們", "们")
	}
	return text
}

type fixture struct {
	c         *Controller
	host      *recordingHost
	window    *fakeWindow
	composer  composer.Composer
	writer    *fakeWriter
	hook      *fakeHook
	clipboard *fakeClipboard
	poster    *queuePoster
	completer *autocomplete.Coordinator
}

type option func(*Config, *fixture)

func withSettings(s Settings) option {
	return func(cfg *Config, _ *fixture) { cfg.Settings = staticSettings(s) }
}

func withComposer(comp composer.Composer) option {
	return func(cfg *Config, f *fixture) { f.composer = comp }
}

func withProvider(p suggest.Provider) option {
	return func(cfg *Config, f *fixture) {
		f.completer = autocomplete.New(autocomplete.Config{
			Provider: p,
			Poster:   f.poster,
			Logger:   logging.Discard(),
		})
		cfg.Autocomplete = f.completer
	}
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	f := &fixture{
		host:      &recordingHost{t: t},
		window:    &fakeWindow{highlighted: -1},
		composer:  composer.NewBasic(nil, composer.Options{Services: []string{"MOE", "Google"}}),
		writer:    &fakeWriter{},
		hook:      &fakeHook{},
		clipboard: &fakeClipboard{},
		poster:    &queuePoster{},
	}
	cfg := Config{
		Host:      f.host,
		Window:    f.window,
		Phrases:   f.writer,
		Hook:      f.hook,
		Converter: simplifyingConverter{},
		Logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg, f)
	}
	cfg.Composer = f.composer
	cfg.Selector = candidate.New(candidate.Config{
		Composer:  f.composer,
		Clipboard: f.clipboard,
		Logger:    logging.Discard(),
	})
	f.c = New(cfg)
	f.c.Activate()
	return f
}

func (f *fixture) typeKeys(keys string) {
	for _, r := range keys {
		f.c.HandleEvent(input.NewKey(r))
	}
}

func (f *fixture) press(code input.KeyCode) bool {
	return f.c.HandleEvent(input.NewKeyWithCode(code))
}

func TestTypingMarksAndEnterCommits(t *testing.T) {
	f := newFixture(t)

	f.typeKeys("su3cl3")
	assert.Equal(t, "你好", f.host.marked)
	assert.Equal(t, 2, f.host.cursor)
	assert.Equal(t, state.KindInputting, f.c.State().Kind())

	assert.True(t, f.press(input.KeyEnter))
	assert.Equal(t, []string{"你好"}, f.host.committed)
	assert.Empty(t, f.host.marked)
	assert.Equal(t, state.Empty{}, f.c.State())
}

func TestUnhandledKeysAreLeftToHost(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.press(input.KeyEnter))
	assert.False(t, f.c.HandleEvent(input.NewKey('a').WithModifiers(input.ModControl)))
	assert.Equal(t, state.Empty{}, f.c.State())
}

func TestModifierKeyConsumedOnlyWhileComposing(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.press(input.KeyModifier))

	f.typeKeys("su3")
	assert.True(t, f.press(input.KeyModifier))
	assert.Equal(t, "你", f.host.marked)
}

func TestSelectingCandidateFixesNode(t *testing.T) {
	fc := &fakeComposer{}
	settings := DefaultSettings()
	settings.AssociatedPhrasesEnabled = false
	f := newFixture(t, withComposer(fc), withSettings(settings))

	f.c.enter(state.ChoosingCandidate{
		ComposingBuffer:     "ㄋㄧˇ",
		CursorIndex:         3,
		OriginalCursorIndex: 1,
		Candidates:          []state.Candidate{{Reading: "ㄋㄧˇ", Value: "你"}, {Reading: "ㄋㄧˇ", Value: "妳"}},
	})
	require.True(t, f.window.shown)
	assert.Equal(t, "ㄋㄧˇ", f.host.marked)

	f.c.SelectCandidate(0)

	assert.Equal(t, state.NewInputting("你", 1, ""), f.c.State())
	assert.Equal(t, "你", f.host.marked)
	assert.Equal(t, 1, f.host.cursor)
	assert.False(t, f.window.shown)
}

func TestSelectingCandidateOpensAssociatedPhrases(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("su3")
	require.True(t, f.press(input.KeySpace))
	require.Equal(t, state.KindChoosingCandidate, f.c.State().Kind())

	f.typeKeys("1")

	assoc, ok := f.c.State().(state.AssociatedPhrases)
	require.True(t, ok, "got %s", state.Describe(f.c.State()))
	assert.Equal(t, "你", assoc.PrefixValue)
	assert.True(t, assoc.UseShiftKey)
	assert.Equal(t, "你", f.host.marked)
	assert.True(t, f.window.shown)
	assert.Equal(t, "⇧ 1", f.window.window.Labels[0])
}

func TestPlainModeCommitsOnSelection(t *testing.T) {
	settings := DefaultSettings()
	settings.Mode = composer.ModePlainBopomofo
	f := newFixture(t, withSettings(settings))

	f.typeKeys("su3")
	choosing, ok := f.c.State().(state.ChoosingCandidate)
	require.True(t, ok)
	assert.Equal(t, "ㄋㄧˇ", choosing.ComposingBuffer)

	f.typeKeys("1")
	assert.Equal(t, []string{"你"}, f.host.committed)
	assert.Equal(t, state.KindAssociatedPhrasesPlain, f.c.State().Kind())
	assert.Equal(t, "⇧ 1", f.window.window.Labels[0])
}

func TestHighlightMovesAndClamps(t *testing.T) {
	settings := DefaultSettings()
	settings.Mode = composer.ModePlainBopomofo
	settings.AssociatedPhrasesEnabled = false
	f := newFixture(t, withSettings(settings))

	f.typeKeys("su3")
	require.Equal(t, 0, f.window.Highlighted())

	f.press(input.KeyUp)
	assert.Equal(t, 1, f.host.beeps)
	assert.Equal(t, 0, f.window.Highlighted())

	f.press(input.KeyDown)
	assert.Equal(t, 1, f.window.Highlighted())

	f.press(input.KeyEnter)
	assert.Equal(t, []string{"妳"}, f.host.committed)
	assert.Equal(t, state.Empty{}, f.c.State())
}

func TestEmptyTwiceDoesNotCommitTwice(t *testing.T) {
	f := newFixture(t)
	f.c.enter(state.NewInputting("你好", 2, ""))
	f.c.enter(state.Empty{})
	f.c.enter(state.Empty{})
	assert.Equal(t, []string{"你好"}, f.host.committed)
}

func TestCommittingNothingStillHides(t *testing.T) {
	f := newFixture(t)
	f.c.enter(state.NewSelectingFeature())
	require.True(t, f.window.shown)
	f.host.tooltip = "stale"

	f.c.enter(state.Committing{})

	assert.Empty(t, f.host.committed)
	assert.False(t, f.window.shown)
	assert.Empty(t, f.host.tooltip)
}

func TestMarkingEscapeReturnsToInputting(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("su3cl3")
	f.c.HandleEvent(input.NewKeyWithCode(input.KeyLeft).WithModifiers(input.ModShift))
	require.Equal(t, state.KindMarking, f.c.State().Kind())
	assert.NotEmpty(t, f.host.tooltip)

	f.press(input.KeyEscape)
	assert.Equal(t, state.NewInputting("你好", 2, ""), f.c.State())
	assert.Equal(t, "你好", f.host.marked)
	assert.Empty(t, f.host.tooltip)
}

func TestWriteUserPhrase(t *testing.T) {
	readings := []string{"ㄋㄧˇ", "ㄏㄠˇ"}
	settings := DefaultSettings()
	settings.AddPhraseHookEnabled = true
	settings.AddPhraseHookPath = "/tmp/hook.sh"

	t.Run("valid", func(t *testing.T) {
		fc := &fakeComposer{}
		f := newFixture(t, withComposer(fc), withSettings(settings))
		ok := f.c.WriteUserPhrase(state.NewMarking("你好", 0, 2, readings))
		assert.True(t, ok)
		assert.Equal(t, []state.Phrase{{Reading: "ㄋㄧˇ-ㄏㄠˇ", Value: "你好"}}, f.writer.written)
		assert.Equal(t, f.writer.written, fc.phrases)
		assert.Equal(t, []string{"/tmp/hook.sh 你好"}, f.hook.started)
	})

	t.Run("too short", func(t *testing.T) {
		fc := &fakeComposer{}
		f := newFixture(t, withComposer(fc), withSettings(settings))
		assert.False(t, f.c.WriteUserPhrase(state.NewMarking("你好", 0, 1, readings)))
		assert.Empty(t, f.writer.written)
		assert.Empty(t, fc.phrases)
		assert.Empty(t, f.hook.started)
	})

	t.Run("store refuses", func(t *testing.T) {
		fc := &fakeComposer{}
		f := newFixture(t, withComposer(fc), withSettings(settings))
		f.writer.err = errors.New("read-only")
		assert.False(t, f.c.WriteUserPhrase(state.NewMarking("你好", 0, 2, readings)))
		assert.Empty(t, fc.phrases)
		assert.Empty(t, f.hook.started)
	})
}

func TestRefusedWriteKeepsMarking(t *testing.T) {
	marking := state.NewMarking("你", 0, 1, []string{"ㄋㄧˇ"})
	fc := &fakeComposer{outcome: composer.Outcome{Write: &marking}}
	f := newFixture(t, withComposer(fc))
	f.c.enter(marking)

	assert.True(t, f.press(input.KeyEnter))
	assert.Equal(t, marking, f.c.State())
	assert.Zero(t, f.host.beeps)
}

func TestWrittenPhraseRerendersBuffer(t *testing.T) {
	marking := state.NewMarking("你好", 0, 2, []string{"ㄋㄧˇ", "ㄏㄠˇ"})
	// The composer re-resolved its buffer with the new phrase.
	fc := &fakeComposer{buffer: "妳好", cursor: 2, composing: true, outcome: composer.Outcome{Write: &marking}}
	f := newFixture(t, withComposer(fc))
	f.c.enter(marking)

	assert.True(t, f.press(input.KeyEnter))
	assert.Equal(t, state.NewInputting("妳好", 2, ""), f.c.State())
	assert.Equal(t, "妳好", f.host.marked)
	assert.Equal(t, []state.Phrase{{Reading: "ㄋㄧˇ-ㄏㄠˇ", Value: "你好"}}, fc.phrases)
}

func TestShowingCharInfoReturnsToChoosing(t *testing.T) {
	choosing := state.ChoosingCandidate{
		ComposingBuffer: "你好",
		CursorIndex:     2,
		Candidates:      []state.Candidate{{Reading: "ㄏㄠˇ", Value: "好"}, {Reading: "ㄏㄠˇ", Value: "號"}, {Reading: "ㄏㄠˇ", Value: "郝"}},
	}
	info := func(selected int) state.ShowingCharInfo {
		return state.ShowingCharInfo{
			Previous: state.SelectingDictionary{
				Previous:       choosing,
				SelectedPhrase: "好",
				SelectedIndex:  selected,
				Services:       []string{"MOE"},
			},
			Entries: []state.TitleValue{{Title: "UTF-8 HEX: E5A5BD", Value: "E5A5BD"}},
		}
	}

	f := newFixture(t, withComposer(&fakeComposer{}))
	f.c.enter(info(0))
	f.c.SelectCandidate(0)
	assert.Equal(t, "E5A5BD", f.clipboard.text)
	assert.Equal(t, choosing, f.c.State())
	assert.Empty(t, f.window.reselected)

	f.c.enter(info(2))
	f.c.SelectCandidate(0)
	assert.Equal(t, []int{2}, f.window.reselected)
}

func TestNegativeSelectionIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.c.enter(state.NewSelectingFeature())
	f.c.SelectCandidate(-1)
	assert.Equal(t, state.KindSelectingFeature, f.c.State().Kind())
}

func TestSelectionOutOfRangePanics(t *testing.T) {
	f := newFixture(t)
	f.c.enter(state.NewSelectingFeature())
	assert.Panics(t, func() { f.c.SelectCandidate(99) })
}

func TestDateMacroCommits(t *testing.T) {
	f := newFixture(t)
	f.c.enter(state.SelectingDateMacro{Candidates: []string{"2026-10-16", ""}})

	f.c.SelectCandidate(1)
	assert.Equal(t, state.KindSelectingDateMacro, f.c.State().Kind())

	f.c.SelectCandidate(0)
	assert.Equal(t, []string{"2026-10-16"}, f.host.committed)
	assert.Equal(t, state.Empty{}, f.c.State())
}

func TestDeactivateCommitsAndEmpties(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("su3")
	f.c.Deactivate()

	assert.Equal(t, []string{"你"}, f.host.committed)
	assert.Equal(t, state.Empty{}, f.c.State())
	assert.False(t, f.window.shown)
	assert.False(t, f.composer.HasComposingText())
}

func TestPlainModeTeardownCommitsCharacter(t *testing.T) {
	settings := DefaultSettings()
	settings.Mode = composer.ModePlainBopomofo

	for _, teardown := range []string{"deactivate", "commit"} {
		t.Run(teardown, func(t *testing.T) {
			f := newFixture(t, withSettings(settings))
			f.typeKeys("su3")
			require.Equal(t, state.KindChoosingCandidate, f.c.State().Kind())
			require.Equal(t, "ㄋㄧˇ", f.host.marked)

			if teardown == "deactivate" {
				f.c.Deactivate()
			} else {
				f.c.CommitComposition()
			}
			assert.Equal(t, []string{"你"}, f.host.committed)
			assert.False(t, f.composer.HasComposingText())
		})
	}
}

func TestDeactivateClearsNumberPrompt(t *testing.T) {
	f := newFixture(t)
	f.c.enter(state.Big5{Code: "A4"})
	require.Equal(t, "[內碼] A4", f.host.marked)

	f.c.Deactivate()
	assert.Empty(t, f.host.marked)
	assert.Empty(t, f.host.committed)
}

func TestCommitComposition(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("su3")
	f.c.CommitComposition()
	assert.Equal(t, []string{"你"}, f.host.committed)
	assert.Equal(t, state.Empty{}, f.c.State())

	f.c.enter(state.NewSelectingFeature())
	f.c.CommitComposition()
	assert.Equal(t, state.EmptyIgnoringPreviousState{}, f.c.State())
	assert.Len(t, f.host.committed, 1)
}

func TestSetMode(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("su")
	generation := f.c.Generation()

	f.c.SetMode(composer.ModePlainBopomofo)
	assert.Equal(t, composer.ModePlainBopomofo, f.composer.Mode())
	assert.Equal(t, state.Empty{}, f.c.State())
	assert.Empty(t, f.host.marked)
	assert.Greater(t, f.c.Generation(), generation)

	f.c.enter(state.NewSelectingFeature())
	f.c.SetMode(composer.ModePlainBopomofo)
	assert.Equal(t, state.KindSelectingFeature, f.c.State().Kind())
}

func TestChosenModeSurvivesReload(t *testing.T) {
	provider := &mutableSettings{s: DefaultSettings()}
	f := newFixture(t, func(cfg *Config, _ *fixture) { cfg.Settings = provider })

	f.c.SetMode(composer.ModePlainBopomofo)
	provider.s.CandidateKeys = "asdfghjkl"
	f.c.SyncSettings()
	assert.Equal(t, composer.ModePlainBopomofo, f.c.Settings().Mode)
	assert.Equal(t, "asdfghjkl", f.c.Settings().CandidateKeys)

	f.c.Deactivate()
	f.c.Activate()
	assert.Equal(t, composer.ModePlainBopomofo, f.composer.Mode())

	// Changing the configured mode wins over the chosen one.
	provider.s.Mode = composer.ModePlainBopomofo
	f.c.SyncSettings()
	provider.s.Mode = composer.ModeBopomofo
	f.c.SyncSettings()
	assert.Equal(t, composer.ModeBopomofo, f.c.Settings().Mode)
	assert.Equal(t, composer.ModeBopomofo, f.composer.Mode())
}

func TestCommitUsesConverter(t *testing.T) {
	settings := DefaultSettings()
	settings.ChineseConversionEnabled = true
	f := newFixture(t, withSettings(settings))
	f.c.enter(state.NewInputting("你們", 2, ""))
	f.c.enter(state.Empty{})
	assert.Equal(t, []string{"你们"}, f.host.committed)
}

func TestErrorSignalFollowsPreference(t *testing.T) {
	settings := DefaultSettings()
	settings.BeepUponInputError = false
	f := newFixture(t, withSettings(settings))
	f.typeKeys("s3")
	assert.Zero(t, f.host.beeps)

	f = newFixture(t)
	f.typeKeys("s3")
	assert.Equal(t, 1, f.host.beeps)
}

func autocompleteSettings() Settings {
	s := DefaultSettings()
	s.AutocompleteEnabled = true
	s.AssociatedPhrasesEnabled = false
	return s
}

type countingProvider struct {
	mu      sync.Mutex
	prompts []string
	reply   string
}

func (p *countingProvider) Complete(ctx context.Context, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, text)
	return p.reply, nil
}

func TestAutocompleteAfterCommit(t *testing.T) {
	provider := &countingProvider{reply: "天氣真好"}
	f := newFixture(t, withSettings(autocompleteSettings()), withProvider(provider))

	f.typeKeys("rup wu0 ")
	require.Equal(t, "今天", f.host.marked)
	f.press(input.KeyEnter)
	assert.Equal(t, []string{"今天"}, f.host.committed)

	f.completer.Wait()
	require.Equal(t, 1, f.poster.drain())
	assert.Equal(t, []string{"今天"}, provider.prompts)
	assert.Equal(t, state.Autocomplete{Suggestion: "天氣真好", PreviousText: "今天"}, f.c.State())
	assert.Equal(t, "天氣真好", f.host.marked)
	assert.Equal(t, 0, f.host.cursor)

	f.typeKeys("x")
	assert.Equal(t, state.KindInputting, f.c.State().Kind())
	assert.Equal(t, "ㄌ", f.host.marked)
	assert.Equal(t, []string{"今天"}, f.host.committed)
}

func TestAutocompleteAcceptedWithTab(t *testing.T) {
	provider := &countingProvider{reply: "天氣真好"}
	f := newFixture(t, withSettings(autocompleteSettings()), withProvider(provider))

	f.typeKeys("rup wu0 ")
	f.press(input.KeyEnter)
	f.completer.Wait()
	f.poster.drain()

	assert.True(t, f.press(input.KeyTab))
	assert.Equal(t, []string{"今天", "天氣真好"}, f.host.committed)
	assert.Equal(t, state.Empty{}, f.c.State())

	f.completer.Wait()
	assert.Zero(t, f.poster.drain())
	assert.Len(t, provider.prompts, 1)
}

func TestAutocompleteDroppedAfterNewInput(t *testing.T) {
	provider := &countingProvider{reply: "天氣真好"}
	f := newFixture(t, withSettings(autocompleteSettings()), withProvider(provider))

	f.typeKeys("rup wu0 ")
	f.press(input.KeyEnter)
	f.completer.Wait()

	f.typeKeys("s")
	f.poster.drain()

	assert.Equal(t, state.KindInputting, f.c.State().Kind())
	assert.Equal(t, "ㄋ", f.host.marked)
}

func TestAutocompleteOnlyLatestRequestDelivered(t *testing.T) {
	provider := &countingProvider{reply: "好"}
	f := newFixture(t, withSettings(autocompleteSettings()), withProvider(provider))

	f.c.enter(state.Committing{PoppedText: "你"})
	f.c.enter(state.Committing{PoppedText: "今天"})
	f.completer.Wait()
	f.poster.drain()

	assert.Len(t, provider.prompts, 2)
	assert.Equal(t, state.Autocomplete{Suggestion: "好", PreviousText: "你今天"}, f.c.State())
}

func TestAutocompleteNotRequestedInPlainMode(t *testing.T) {
	provider := &countingProvider{reply: "好"}
	settings := autocompleteSettings()
	settings.Mode = composer.ModePlainBopomofo
	f := newFixture(t, withSettings(settings), withProvider(provider))

	f.typeKeys("su31")
	f.completer.Wait()
	assert.Equal(t, []string{"你"}, f.host.committed)
	assert.Empty(t, provider.prompts)
}

func TestAutocompleteDroppedAfterDeactivate(t *testing.T) {
	provider := &countingProvider{reply: "天氣"}
	f := newFixture(t, withSettings(autocompleteSettings()), withProvider(provider))

	f.c.enter(state.Committing{PoppedText: "今天"})
	f.completer.Wait()
	f.c.Deactivate()
	f.poster.drain()
	assert.Equal(t, state.Empty{}, f.c.State())
}
