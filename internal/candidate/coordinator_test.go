package candidate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

type fakeDictionary struct {
	next    state.State
	handled bool
	calls   []int
}

func (d *fakeDictionary) LookUp(sel state.SelectingDictionary, index int) (state.State, bool) {
	d.calls = append(d.calls, index)
	return d.next, d.handled
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return c.err
}

type fakeNotifier struct{ messages []string }

func (n *fakeNotifier) Notify(message string) { n.messages = append(n.messages, message) }

var fixedNow = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func newCoordinator(comp composer.Composer, dict Dictionary, clip Clipboard, notify Notifier) *Coordinator {
	return New(Config{
		Composer:   comp,
		Dictionary: dict,
		Clipboard:  clip,
		Notifier:   notify,
		Logger:     logging.Discard(),
		Now:        func() time.Time { return fixedNow },
	})
}

// compose types keys into a fresh composer and returns it with the last
// state entered.
func compose(t *testing.T, mode composer.Mode, keys string) (*composer.Basic, state.State) {
	t.Helper()
	c := composer.NewBasic(nil, composer.Options{})
	c.SetMode(mode)
	var s state.State = state.Empty{}
	for _, r := range keys {
		out := c.Advance(composer.Request{State: s, Event: input.NewKey(r), Highlighted: -1})
		require.False(t, out.Rejected, "key %q rejected", r)
		if n := len(out.States); n > 0 {
			s = out.States[n-1]
		}
	}
	return c, s
}

func TestSelectChoosingCandidate(t *testing.T) {
	comp, s := compose(t, composer.ModeBopomofo, "su3 ")
	choosing, ok := s.(state.ChoosingCandidate)
	require.True(t, ok, "got %s", state.Describe(s))
	require.Equal(t, "你", choosing.Candidates[0].Value)

	steps := newCoordinator(comp, nil, nil, nil).Select(choosing, 1, Options{})

	require.Len(t, steps, 1)
	assert.Equal(t, state.NewInputting("妳", 1, ""), steps[0].State)
}

func TestSelectChoosingCandidateChainsAssociatedPhrases(t *testing.T) {
	comp, s := compose(t, composer.ModeBopomofo, "su3 ")
	c := newCoordinator(comp, nil, nil, nil)

	steps := c.Select(s, 0, Options{AssociatedPhrasesEnabled: true, Vertical: true})

	require.Len(t, steps, 2)
	assert.Equal(t, state.NewInputting("你", 1, ""), steps[0].State)
	assoc, ok := steps[1].State.(state.AssociatedPhrases)
	require.True(t, ok)
	assert.Equal(t, "你", assoc.PrefixValue)
	assert.True(t, assoc.UseShiftKey)
	assert.True(t, assoc.UseVerticalMode)
	assert.Equal(t, 1, assoc.PrefixCursorIndex)
}

func TestSelectChoosingCandidateWithoutAssociatedPhrasesSignalsError(t *testing.T) {
	comp, s := compose(t, composer.ModeBopomofo, "su3 ")
	steps := newCoordinator(comp, nil, nil, nil).Select(s, 2, Options{AssociatedPhrasesEnabled: true})

	require.Len(t, steps, 2)
	assert.Equal(t, state.NewInputting("擬", 1, ""), steps[0].State)
	assert.Equal(t, Step{Error: true}, steps[1])
}

func TestSelectChoosingCandidatePlain(t *testing.T) {
	comp, s := compose(t, composer.ModePlainBopomofo, "su3")
	choosing, ok := s.(state.ChoosingCandidate)
	require.True(t, ok)
	assert.Equal(t, "ㄋㄧˇ", choosing.ComposingBuffer)

	c := newCoordinator(comp, nil, nil, nil)
	steps := c.Select(choosing, 0, Options{})
	assert.Equal(t, []Step{{State: state.Committing{PoppedText: "你"}}, {State: state.Empty{}}}, steps)
	assert.False(t, comp.HasComposingText())

	comp, s = compose(t, composer.ModePlainBopomofo, "su3")
	steps = newCoordinator(comp, nil, nil, nil).Select(s, 0, Options{AssociatedPhrasesEnabled: true})
	require.Len(t, steps, 2)
	assert.Equal(t, state.Committing{PoppedText: "你"}, steps[0].State)
	assert.Equal(t, state.KindAssociatedPhrasesPlain, steps[1].State.Kind())
}

func TestSelectAssociatedPhrase(t *testing.T) {
	comp, s := compose(t, composer.ModeBopomofo, "su3 ")
	c := newCoordinator(comp, nil, nil, nil)
	steps := c.Select(s, 0, Options{AssociatedPhrasesEnabled: true})
	assoc := steps[1].State.(state.AssociatedPhrases)

	index := -1
	for i, cand := range assoc.Candidates {
		if cand.Value == "好" {
			index = i
		}
	}
	require.GreaterOrEqual(t, index, 0)

	steps = c.Select(assoc, index, Options{AssociatedPhrasesEnabled: true})
	require.Len(t, steps, 1)
	assert.Equal(t, state.NewInputting("你好", 2, ""), steps[0].State)
}

func TestSelectAssociatedPhrasePlain(t *testing.T) {
	comp, _ := compose(t, composer.ModePlainBopomofo, "")
	plain := state.AssociatedPhrasesPlain{Candidates: []state.Candidate{{Reading: "ㄏㄠˇ", Value: "好"}}}

	steps := newCoordinator(comp, nil, nil, nil).Select(plain, 0, Options{})
	assert.Equal(t, []Step{{State: state.Committing{PoppedText: "好"}}, {State: state.Empty{}}}, steps)
}

func TestSelectFeature(t *testing.T) {
	c := newCoordinator(composer.NewBasic(nil, composer.Options{}), nil, nil, nil)

	steps := c.Select(state.NewSelectingFeature(), 0, Options{})
	require.Len(t, steps, 1)
	dates, ok := steps[0].State.(state.SelectingDateMacro)
	require.True(t, ok)
	assert.Equal(t, "2026-10-16", dates.Candidates[0])

	steps = c.Select(state.NewSelectingFeature(), 3, Options{})
	assert.Equal(t, []Step{{State: state.EnclosedNumber{}}}, steps)
}

func TestSelectDateMacro(t *testing.T) {
	c := newCoordinator(composer.NewBasic(nil, composer.Options{}), nil, nil, nil)
	s := state.SelectingDateMacro{Candidates: []string{"2026-10-16", ""}}

	assert.Equal(t,
		[]Step{{State: state.Committing{PoppedText: "2026-10-16"}}, {State: state.Empty{}}},
		c.Select(s, 0, Options{}))
	assert.Empty(t, c.Select(s, 1, Options{}))
}

func TestSelectDictionaryService(t *testing.T) {
	previous := state.NewInputting("你好", 2, "")
	sel := state.SelectingDictionary{
		Previous:       previous,
		SelectedPhrase: "好",
		SelectedIndex:  3,
		Services:       []string{"MOE", "Character Information"},
	}
	info := state.ShowingCharInfo{Previous: sel}

	tests := []struct {
		name string
		dict *fakeDictionary
		want []Step
	}{
		{"opened externally", &fakeDictionary{handled: true}, []Step{{State: previous, Reselect: 3}}},
		{"shows a state", &fakeDictionary{next: info}, []Step{{State: info}}},
		{"failed", &fakeDictionary{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCoordinator(composer.NewBasic(nil, composer.Options{}), tt.dict, nil, nil)
			assert.Equal(t, tt.want, c.Select(sel, 1, Options{}))
			assert.Equal(t, []int{1}, tt.dict.calls)
		})
	}
}

func TestSelectCharInfoCopies(t *testing.T) {
	choosing := state.ChoosingCandidate{ComposingBuffer: "你", CursorIndex: 1, Candidates: []state.Candidate{{Value: "你"}}}
	info := func(selected int) state.ShowingCharInfo {
		return state.ShowingCharInfo{
			Previous: state.SelectingDictionary{Previous: choosing, SelectedPhrase: "你", SelectedIndex: selected},
			Entries: []state.TitleValue{
				{Title: "UTF-8 HEX: E4BDA0", Value: "E4BDA0"},
				{Title: "URL Escape: %E4%BD%A0", Value: "%E4%BD%A0"},
			},
		}
	}

	clip := &fakeClipboard{}
	notify := &fakeNotifier{}
	c := newCoordinator(composer.NewBasic(nil, composer.Options{}), nil, clip, notify)

	assert.Equal(t, []Step{{State: choosing}}, c.Select(info(0), 1, Options{}))
	assert.Equal(t, "%E4%BD%A0", clip.text)
	assert.Equal(t, []string{"%E4%BD%A0 has been copied."}, notify.messages)

	assert.Equal(t, []Step{{State: choosing, Reselect: 4}}, c.Select(info(4), 0, Options{}))

	clip.err = errors.New("no display")
	assert.Len(t, c.Select(info(0), 0, Options{}), 1)
}

func TestSelectProgrammingErrorsPanic(t *testing.T) {
	c := newCoordinator(composer.NewBasic(nil, composer.Options{}), nil, nil, nil)

	assertPanicsWith := func(target error, fn func()) {
		t.Helper()
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok)
			assert.ErrorIs(t, err, target)
		}()
		fn()
	}

	assertPanicsWith(ErrNoCandidates, func() { c.Select(state.NewInputting("你", 1, ""), 0, Options{}) })
	assertPanicsWith(ErrIndexOutOfRange, func() { c.Select(state.NewSelectingFeature(), 5, Options{}) })
	assertPanicsWith(ErrIndexOutOfRange, func() { c.Select(state.NewSelectingFeature(), -1, Options{}) })
}
