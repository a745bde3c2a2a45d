package session

import (
	"fmt"
	"unicode/utf8"

	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

// longCandidate is the display length above which a candidate list is
// always shown vertically.
const longCandidate = 8

// shiftLabelPrefix marks key labels that must be pressed with Shift.
const shiftLabelPrefix = "⇧ "

// Env is what a transition may read besides the two states.
type Env struct {
	Settings Settings
	// Mode is the composer mode at the time of the transition.
	Mode composer.Mode
	// HasComposingText reports whether the composer still holds text.
	HasComposingText bool
}

// Transition returns the state to install after entering next from previous
// and the effects the host must apply, in order. It does not touch the host.
//
// Entering Deactivated installs Empty.
func Transition(previous, next state.State, env Env) (state.State, []Effect) {
	if next == nil {
		next = state.Empty{}
	}
	effects := state.Visit[[]Effect](next, transition{previous: previous, env: env})
	if next.Kind() == state.KindDeactivated {
		return state.Empty{}, effects
	}
	return next, effects
}

// transition implements the per-state effect table.
type transition struct {
	previous state.State
	env      Env
}

var _ state.Visitor[[]Effect] = transition{}

func (t transition) Empty(state.Empty) []Effect {
	effects := []Effect{HideCandidates{}, HideTooltip{}}
	if text, ok := composingText(t.previous); ok {
		effects = appendCommit(effects, text)
		if t.autocompleteAllowed() {
			effects = append(effects, RequestAutocomplete{})
		}
	}
	return append(effects, ClearMarkedText{})
}

func (t transition) EmptyIgnoringPreviousState(state.EmptyIgnoringPreviousState) []Effect {
	return []Effect{HideCandidates{}, HideTooltip{}, ClearMarkedText{}}
}

func (t transition) Committing(s state.Committing) []Effect {
	effects := []Effect{HideCandidates{}, HideTooltip{}}
	if s.PoppedText != "" {
		effects = appendCommit(effects, s.PoppedText)
		if t.autocompleteAllowed() && !isKind(t.previous, state.KindAutocomplete) {
			effects = append(effects, RequestAutocomplete{})
		}
	}
	return append(effects, ClearMarkedText{})
}

func (t transition) Inputting(s state.Inputting) []Effect {
	effects := []Effect{HideCandidates{}, HideTooltip{}, mark(s)}
	if s.Tooltip != "" {
		effects = append(effects, ShowTooltip{Text: s.Tooltip, Anchor: anchor(s.Cursor(), s.Buffer())})
	}
	return effects
}

func (t transition) Marking(s state.Marking) []Effect {
	effects := []Effect{HideCandidates{}, mark(s)}
	if tooltip := s.Tooltip(); tooltip != "" {
		return append(effects, ShowTooltip{Text: tooltip, Anchor: anchor(s.Marker(), s.Buffer())})
	}
	return append(effects, HideTooltip{})
}

func (t transition) ChoosingCandidate(s state.ChoosingCandidate) []Effect {
	return []Effect{HideTooltip{}, mark(s), t.showCandidates(s, s)}
}

func (t transition) AssociatedPhrases(s state.AssociatedPhrases) []Effect {
	effects := []Effect{HideTooltip{}}
	var source state.NotEmpty
	switch p := s.Previous.(type) {
	case state.Inputting:
		source = p
	case state.ChoosingCandidate:
		source = p
	}
	if source != nil {
		effects = append(effects, mark(source))
	}
	return append(effects, t.showCandidates(s, source))
}

func (t transition) AssociatedPhrasesPlain(s state.AssociatedPhrasesPlain) []Effect {
	return []Effect{HideTooltip{}, ClearMarkedText{}, t.showCandidates(s, nil)}
}

func (t transition) SelectingFeature(s state.SelectingFeature) []Effect {
	return t.menu(s)
}

func (t transition) SelectingDateMacro(s state.SelectingDateMacro) []Effect {
	return t.menu(s)
}

func (t transition) menu(s state.CandidateProvider) []Effect {
	effects := []Effect{HideTooltip{}}
	if text, ok := composingText(t.previous); ok {
		effects = appendCommit(effects, text)
	}
	return append(effects, ClearMarkedText{}, t.showCandidates(s, nil))
}

func (t transition) ChineseNumber(s state.ChineseNumber) []Effect {
	return t.prompt(s)
}

func (t transition) EnclosedNumber(s state.EnclosedNumber) []Effect {
	return t.prompt(s)
}

func (t transition) Big5(s state.Big5) []Effect {
	return t.prompt(s)
}

func (t transition) prompt(s state.NotEmpty) []Effect {
	effects := []Effect{HideCandidates{}, HideTooltip{}}
	if text, ok := composingText(t.previous); ok {
		effects = appendCommit(effects, text)
	}
	buffer := s.Buffer()
	return append(effects, MarkText{Text: buffer, Cursor: utf8.RuneCountInString(buffer)})
}

func (t transition) SelectingDictionary(s state.SelectingDictionary) []Effect {
	return t.lookup(s, s.Previous)
}

func (t transition) ShowingCharInfo(s state.ShowingCharInfo) []Effect {
	return t.lookup(s, s.Previous.Previous)
}

func (t transition) lookup(s state.CandidateProvider, origin state.State) []Effect {
	effects := []Effect{HideTooltip{}}
	var source state.NotEmpty
	switch p := origin.(type) {
	case state.ChoosingCandidate:
		source = p
	case state.Marking:
		source = p
	}
	if source != nil {
		effects = append(effects, mark(source))
	}
	return append(effects, t.showCandidates(s, source))
}

func (t transition) Autocomplete(s state.Autocomplete) []Effect {
	return []Effect{HideCandidates{}, HideTooltip{}, MarkText{Text: s.Suggestion, Cursor: 0}}
}

func (t transition) Deactivated(state.Deactivated) []Effect {
	effects := []Effect{HideCandidates{}, HideTooltip{}}
	if text, ok := composingText(t.previous); ok {
		effects = appendCommit(effects, text)
	}
	switch t.previous.(type) {
	case state.ChineseNumber, state.EnclosedNumber, state.Big5:
		effects = append(effects, ClearMarkedText{})
	}
	return effects
}

func (t transition) autocompleteAllowed() bool {
	return t.env.Settings.AutocompleteEnabled &&
		t.env.Mode == composer.ModeBopomofo &&
		!t.env.HasComposingText
}

// showCandidates builds the window for s. source is the state whose buffer
// is marked while the window is open, or nil.
func (t transition) showCandidates(s state.CandidateProvider, source state.NotEmpty) Effect {
	w := Window{
		Candidates: make([]string, s.CandidateCount()),
		Vertical:   t.vertical(s),
	}
	longest := 0
	for i := range w.Candidates {
		w.Candidates[i] = s.CandidateAt(i)
		longest = max(longest, utf8.RuneCountInString(w.Candidates[i]))
	}
	if longest > longCandidate {
		w.Vertical = true
	}

	prefix := ""
	switch s := s.(type) {
	case state.AssociatedPhrases:
		if s.UseShiftKey {
			prefix = shiftLabelPrefix
		}
		w.Tooltip = s.PrefixValue + "…"
	case state.AssociatedPhrasesPlain:
		prefix = shiftLabelPrefix
	case state.SelectingDictionary:
		w.Tooltip = fmt.Sprintf("Look up %s", s.SelectedPhrase)
	}
	for _, key := range composer.CandidateKeys(t.env.Settings.CandidateKeys) {
		w.Labels = append(w.Labels, prefix+string(key))
	}

	if source != nil {
		w.Anchor = anchor(source.Cursor(), source.Buffer())
	}
	return ShowCandidates{Window: w}
}

func (t transition) vertical(s state.CandidateProvider) bool {
	switch s := s.(type) {
	case state.ChoosingCandidate:
		if s.UseVerticalMode {
			return true
		}
	case state.AssociatedPhrases:
		if s.UseVerticalMode {
			return true
		}
	case state.AssociatedPhrasesPlain:
		if s.UseVerticalMode {
			return true
		}
	case state.SelectingFeature, state.SelectingDateMacro, state.SelectingDictionary, state.ShowingCharInfo:
		return true
	}
	return !t.env.Settings.UseHorizontalCandidateList
}

// composingText returns the composing buffer of the states whose text is
// committed when composition ends abruptly.
func composingText(s state.State) (string, bool) {
	switch s := s.(type) {
	case state.Inputting:
		return s.Buffer(), true
	case state.Marking:
		return s.Buffer(), true
	case state.ChoosingCandidate:
		return s.Buffer(), true
	}
	return "", false
}

func appendCommit(effects []Effect, text string) []Effect {
	if text == "" {
		return effects
	}
	return append(effects, CommitText{Text: text})
}

func mark(s state.NotEmpty) Effect {
	return MarkText{Text: s.Buffer(), Cursor: s.Cursor()}
}

// anchor returns the rune a tooltip or window attaches to: the one under the
// caret, or the last one when the caret is at the end.
func anchor(cursor int, buffer string) int {
	if n := utf8.RuneCountInString(buffer); cursor == n && cursor != 0 {
		return cursor - 1
	}
	return cursor
}

func isKind(s state.State, k state.Kind) bool {
	return s != nil && s.Kind() == k
}
