package composer

import (
	"strings"
	"unicode"

	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/macro"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

// Options configures a Basic composer.
type Options struct {
	// CandidateKeys select candidates; see CandidateKeys.
	CandidateKeys string
	// Services are the dictionary service names offered by "?".
	Services []string
}

// cell is one composed character.
type cell struct {
	reading string // "" for punctuation
	value   string
	fixed   bool
}

// Basic is a lexicon-driven composer on the standard Bopomofo layout.
//
// It converts every completed syllable, joining adjacent unfixed syllables
// greedily into the longest phrase the lexicon knows. A chosen candidate
// pins its characters so later syllables never rewrite them.
type Basic struct {
	lexicon *Lexicon
	opts    Options
	mode    Mode

	cells   []cell
	cursor  int
	pending syllable
}

var _ Composer = (*Basic)(nil)

// NewBasic returns a composer over lexicon. A nil lexicon uses the built-in
// one.
func NewBasic(lexicon *Lexicon, opts Options) *Basic {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	opts.CandidateKeys = CandidateKeys(opts.CandidateKeys)
	return &Basic{lexicon: lexicon, opts: opts}
}

// SetOptions replaces the options. The composing buffer is kept.
func (b *Basic) SetOptions(opts Options) {
	opts.CandidateKeys = CandidateKeys(opts.CandidateKeys)
	b.opts = opts
}

// SetCandidateKeys replaces the candidate selection keys.
func (b *Basic) SetCandidateKeys(keys string) {
	b.opts.CandidateKeys = CandidateKeys(keys)
}

func (b *Basic) Mode() Mode { return b.mode }

// SetMode switches the mode and drops the composing buffer.
func (b *Basic) SetMode(m Mode) {
	b.Clear()
	b.mode = m
}

func (b *Basic) Clear() {
	b.cells = nil
	b.cursor = 0
	b.pending = syllable{}
}

func (b *Basic) HasComposingText() bool {
	return len(b.cells) > 0 || !b.pending.isEmpty()
}

// ForceCommit returns the composed characters as a Committing state. A
// pending syllable is dropped.
func (b *Basic) ForceCommit() state.State {
	text := b.text(0, len(b.cells))
	b.Clear()
	return state.Committing{PoppedText: text}
}

// BuildInputtingState renders the buffer with the pending syllable shown at
// the cursor.
func (b *Basic) BuildInputtingState() state.State {
	buffer, cursor, _ := b.render()
	return state.NewInputting(buffer, cursor, "")
}

func (b *Basic) AddUserPhrase(p state.Phrase) {
	if err := b.lexicon.AddFirst(p.Reading, p.Value); err != nil {
		return
	}
	b.resolve()
}

// FixNode pins the characters of (reading, value) so that they end at
// originalCursor.
func (b *Basic) FixNode(reading, value string, originalCursor int, moveCursorAfterSelection bool) {
	syllables := strings.Split(reading, state.ReadingSeparator)
	runes := []rune(value)
	start := originalCursor - len(syllables)
	if len(runes) != len(syllables) || start < 0 || originalCursor > len(b.cells) {
		return
	}
	for i := range syllables {
		b.cells[start+i] = cell{reading: syllables[i], value: string(runes[i]), fixed: true}
	}
	b.resolve()
	if moveCursorAfterSelection {
		b.cursor = originalCursor
	}
}

// FixAssociatedPhraseWithPrefix inserts the continuation (reading, value)
// after the prefix ending at cursor and pins the whole phrase.
func (b *Basic) FixAssociatedPhraseWithPrefix(cursor int, prefixReading, prefixValue, reading, value string) {
	prefix := strings.Split(prefixReading, state.ReadingSeparator)
	rest := strings.Split(reading, state.ReadingSeparator)
	restRunes := []rune(value)
	start := cursor - len(prefix)
	if start < 0 || cursor > len(b.cells) || len(rest) != len(restRunes) ||
		len(prefix) != len([]rune(prefixValue)) {
		return
	}

	inserted := make([]cell, len(rest))
	for i := range rest {
		inserted[i] = cell{reading: rest[i], value: string(restRunes[i]), fixed: true}
	}
	cells := make([]cell, 0, len(b.cells)+len(inserted))
	cells = append(cells, b.cells[:cursor]...)
	cells = append(cells, inserted...)
	cells = append(cells, b.cells[cursor:]...)
	b.cells = cells

	for i, r := range []rune(prefixValue) {
		b.cells[start+i] = cell{reading: prefix[i], value: string(r), fixed: true}
	}
	if b.cursor >= cursor {
		b.cursor += len(inserted)
	}
	b.resolve()
}

// BuildAssociatedPhraseState returns the plain associated phrases following
// (reading, value).
func (b *Basic) BuildAssociatedPhraseState(reading, value string, vertical bool) (state.State, bool) {
	candidates := b.lexicon.Associated(reading, value)
	if len(candidates) == 0 {
		return nil, false
	}
	return state.AssociatedPhrasesPlain{Candidates: candidates, UseVerticalMode: vertical}, true
}

// BuildAssociatedPhrases looks for the longest phrase ending at the cursor of
// from that has continuations.
func (b *Basic) BuildAssociatedPhrases(from state.State, vertical, useShiftKey bool) (state.State, bool) {
	ne, ok := from.(state.NotEmpty)
	if !ok || !b.pending.isEmpty() {
		return nil, false
	}
	end := ne.Cursor()
	if end == 0 || end > len(b.cells) {
		return nil, false
	}
	for n := min(MaxPhraseSyllables, end); n > 0; n-- {
		reading, ok := b.reading(end-n, end)
		if !ok {
			continue
		}
		value := b.text(end-n, end)
		if !b.lexicon.Contains(reading, value) {
			continue
		}
		candidates := b.lexicon.Associated(reading, value)
		if len(candidates) == 0 {
			continue
		}
		return state.AssociatedPhrases{
			Previous:          from,
			PrefixCursorIndex: end,
			PrefixReading:     reading,
			PrefixValue:       value,
			Candidates:        candidates,
			UseVerticalMode:   vertical,
			UseShiftKey:       useShiftKey,
		}, true
	}
	return nil, false
}

// Advance handles one key.
func (b *Basic) Advance(req Request) Outcome {
	switch s := req.State.(type) {
	case nil, state.Empty, state.EmptyIgnoringPreviousState, state.Committing, state.Inputting:
		return b.compose(req.Event)
	case state.Marking:
		return b.mark(s, req.Event)
	case state.ChoosingCandidate:
		return b.choose(s, req)
	case state.AssociatedPhrases:
		return b.associated(s, req)
	case state.AssociatedPhrasesPlain:
		return b.associatedPlain(s, req)
	case state.SelectingFeature, state.SelectingDateMacro:
		return b.menu(s.(state.CandidateProvider), req, state.EmptyIgnoringPreviousState{})
	case state.SelectingDictionary:
		return b.menu(s, req, s.Previous)
	case state.ShowingCharInfo:
		return b.menu(s, req, s.Previous)
	case state.ChineseNumber:
		return b.chineseNumber(s, req.Event)
	case state.EnclosedNumber:
		return b.enclosedNumber(s, req.Event)
	case state.Big5:
		return b.big5(s, req.Event)
	case state.Autocomplete:
		return b.autocomplete(s, req.Event)
	}
	return Outcome{}
}

func (b *Basic) compose(ev input.Event) Outcome {
	composing := b.HasComposingText()
	if ev.IsCommand() {
		return Outcome{}
	}

	switch ev.Code {
	case input.KeyEnter:
		if !composing {
			return Outcome{}
		}
		return Enter(b.ForceCommit(), state.Empty{})
	case input.KeyEscape:
		if !composing {
			return Outcome{}
		}
		if !b.pending.isEmpty() {
			b.pending = syllable{}
			return b.inputting()
		}
		b.Clear()
		return Enter(state.EmptyIgnoringPreviousState{})
	case input.KeyBackspace:
		if !composing {
			return Outcome{}
		}
		if !b.pending.isEmpty() {
			b.pending.backspace()
			return b.inputting()
		}
		if b.cursor == 0 {
			return Reject()
		}
		b.cells = append(b.cells[:b.cursor-1], b.cells[b.cursor:]...)
		b.cursor--
		b.resolve()
		return b.inputting()
	case input.KeyDelete:
		if !composing {
			return Outcome{}
		}
		if !b.pending.isEmpty() || b.cursor == len(b.cells) {
			return Reject()
		}
		b.cells = append(b.cells[:b.cursor], b.cells[b.cursor+1:]...)
		b.resolve()
		return b.inputting()
	case input.KeyLeft, input.KeyRight:
		if !composing {
			return Outcome{}
		}
		delta := 1
		if ev.Is(input.KeyLeft) {
			delta = -1
		}
		if !b.pending.isEmpty() {
			return Reject()
		}
		if ev.IsShift() {
			return b.startMarking(delta)
		}
		return b.moveCursor(b.cursor + delta)
	case input.KeyHome, input.KeyEnd:
		if !composing {
			return Outcome{}
		}
		if !b.pending.isEmpty() {
			return Reject()
		}
		if ev.Is(input.KeyHome) {
			return b.moveCursor(0)
		}
		return b.moveCursor(len(b.cells))
	case input.KeySpace:
		if !b.pending.isEmpty() {
			return b.completeSyllable(b.pending, ev.Vertical)
		}
		if !composing {
			return Outcome{}
		}
		return b.openCandidates(ev.Vertical)
	case input.KeyDown:
		if !composing {
			return Outcome{}
		}
		if !b.pending.isEmpty() {
			return Reject()
		}
		return b.openCandidates(ev.Vertical)
	case input.KeyTab, input.KeyUp, input.KeyPageUp, input.KeyPageDown:
		if !composing {
			return Outcome{}
		}
		return Reject()
	}

	r := ev.Char
	if r == 0 || !ev.IsPrintable() {
		return Outcome{}
	}
	if r == '`' {
		if !b.pending.isEmpty() {
			return Reject()
		}
		b.Clear()
		return Enter(state.NewSelectingFeature())
	}
	if symbol, ok := standardLayout[r]; ok && !ev.IsShift() {
		return b.typeSymbol(symbol, ev.Vertical)
	}
	if p, ok := punctuation[r]; ok {
		if !b.pending.isEmpty() {
			return Reject()
		}
		if b.mode == ModePlainBopomofo {
			return Enter(state.Committing{PoppedText: p}, state.Empty{})
		}
		b.insert(cell{value: p, fixed: true})
		return b.inputting()
	}
	if !composing {
		return Outcome{}
	}
	return Outcome{States: []state.State{b.ForceCommit(), state.Empty{}}, PassThrough: true}
}

func (b *Basic) typeSymbol(symbol rune, vertical bool) Outcome {
	if classOf(symbol) != classTone {
		b.pending.insert(symbol)
		return b.inputting()
	}
	if !b.pending.hasSound() {
		if b.HasComposingText() {
			return Reject()
		}
		return Outcome{}
	}
	next := b.pending
	next.insert(symbol)
	return b.completeSyllable(next, vertical)
}

// completeSyllable turns s into a composed character, or rejects it when the
// lexicon has no such reading.
func (b *Basic) completeSyllable(s syllable, vertical bool) Outcome {
	reading := s.String()
	if !s.hasSound() || !b.lexicon.Has(reading) {
		return Reject()
	}
	b.pending = syllable{}
	b.insert(cell{reading: reading, value: b.lexicon.Values(reading)[0]})
	b.resolve()

	if b.mode == ModePlainBopomofo {
		return Enter(state.ChoosingCandidate{
			ComposingBuffer:     reading,
			CursorIndex:         len([]rune(reading)),
			OriginalCursorIndex: b.cursor,
			Candidates:          b.lexicon.Candidates(reading),
			UseVerticalMode:     vertical,
		})
	}
	return b.inputting()
}

func (b *Basic) openCandidates(vertical bool) Outcome {
	end := max(b.cursor, 1)
	candidates := b.candidatesEndingAt(end)
	if len(candidates) == 0 {
		return Reject()
	}
	buffer, cursor, _ := b.render()
	return Enter(state.ChoosingCandidate{
		ComposingBuffer:     buffer,
		CursorIndex:         cursor,
		OriginalCursorIndex: end,
		Candidates:          candidates,
		UseVerticalMode:     vertical,
	})
}

func (b *Basic) moveCursor(to int) Outcome {
	if to < 0 || to > len(b.cells) || to == b.cursor {
		return Reject()
	}
	b.cursor = to
	return b.inputting()
}

func (b *Basic) startMarking(delta int) Outcome {
	marker := b.cursor + delta
	if marker < 0 || marker > len(b.cells) {
		return Reject()
	}
	buffer, cursor, readings := b.render()
	return Enter(state.NewMarking(buffer, cursor, marker, readings))
}

func (b *Basic) mark(m state.Marking, ev input.Event) Outcome {
	switch {
	case ev.Is(input.KeyEnter):
		return Outcome{Write: &m}
	case ev.Is(input.KeyEscape):
		return Enter(m.Inputting())
	case ev.IsShift() && (ev.Is(input.KeyLeft) || ev.Is(input.KeyRight)):
		marker := m.Marker() + 1
		if ev.Is(input.KeyLeft) {
			marker = m.Marker() - 1
		}
		if marker < 0 || marker > len([]rune(m.ComposingBuffer)) {
			return Reject()
		}
		if marker == m.Cursor() {
			return Enter(m.Inputting())
		}
		return Enter(state.NewMarking(m.ComposingBuffer, m.Cursor(), marker, m.Readings))
	case ev.Char == '?':
		if len(b.opts.Services) == 0 || m.SelectedText() == "" {
			return Reject()
		}
		return Enter(b.selectingDictionary(m, m.SelectedText(), 0))
	}
	out := b.compose(ev)
	if out.Declined() {
		return Outcome{States: []state.State{m.Inputting()}, PassThrough: true}
	}
	return out
}

func (b *Basic) choose(s state.ChoosingCandidate, req Request) Outcome {
	ev := req.Event
	if i, ok := b.candidateIndex(ev, req.Highlighted, len(s.Candidates), false); ok {
		return Select(i)
	}
	if out, ok := navigate(ev, len(b.opts.CandidateKeys)); ok {
		return out
	}
	switch {
	case ev.Is(input.KeyEnter), ev.Is(input.KeySpace):
		return Outcome{SelectsHighlighted: true}
	case ev.Is(input.KeyEscape), ev.Is(input.KeyBackspace):
		if b.mode == ModePlainBopomofo {
			b.Clear()
			return Enter(state.EmptyIgnoringPreviousState{})
		}
		return b.inputting()
	case ev.Char == '?':
		if len(b.opts.Services) == 0 {
			return Reject()
		}
		index := max(req.Highlighted, 0)
		if index >= len(s.Candidates) {
			return Reject()
		}
		return Enter(b.selectingDictionary(s, s.Candidates[index].Value, index))
	}
	return Reject()
}

func (b *Basic) associated(s state.AssociatedPhrases, req Request) Outcome {
	ev := req.Event
	if i, ok := b.candidateIndex(ev, req.Highlighted, len(s.Candidates), s.UseShiftKey); ok {
		return Select(i)
	}
	if out, ok := navigate(ev, len(b.opts.CandidateKeys)); ok {
		return out
	}
	if ev.Is(input.KeyEscape) {
		return Enter(s.Previous)
	}
	if !s.UseShiftKey && ev.Is(input.KeyEnter) {
		return Outcome{SelectsHighlighted: true}
	}
	out := b.Advance(Request{State: s.Previous, Event: ev, Highlighted: -1})
	if out.Declined() {
		return Outcome{States: []state.State{s.Previous}, PassThrough: true}
	}
	if len(out.States) == 0 {
		out.States = []state.State{s.Previous}
	}
	return out
}

func (b *Basic) associatedPlain(s state.AssociatedPhrasesPlain, req Request) Outcome {
	ev := req.Event
	if i, ok := b.candidateIndex(ev, req.Highlighted, len(s.Candidates), true); ok {
		return Select(i)
	}
	if out, ok := navigate(ev, len(b.opts.CandidateKeys)); ok {
		return out
	}
	if ev.Is(input.KeyEscape) {
		return Enter(state.EmptyIgnoringPreviousState{})
	}
	return b.fromEmpty(ev)
}

// menu handles the candidate-only sub-modes. Escape enters back.
func (b *Basic) menu(s state.CandidateProvider, req Request, back state.State) Outcome {
	ev := req.Event
	if i, ok := b.candidateIndex(ev, req.Highlighted, s.CandidateCount(), false); ok {
		return Select(i)
	}
	if out, ok := navigate(ev, len(b.opts.CandidateKeys)); ok {
		return out
	}
	switch {
	case ev.Is(input.KeyEnter), ev.Is(input.KeySpace):
		return Outcome{SelectsHighlighted: true}
	case ev.Is(input.KeyEscape), ev.Is(input.KeyBackspace):
		return Enter(back)
	}
	return Reject()
}

func (b *Basic) chineseNumber(s state.ChineseNumber, ev input.Event) Outcome {
	switch {
	case ev.Is(input.KeyEnter):
		text, err := macro.ChineseNumber(s.Number, s.Style)
		if err != nil {
			return Reject()
		}
		return Enter(state.Committing{PoppedText: text}, state.Empty{})
	case ev.Is(input.KeyEscape):
		return Enter(state.EmptyIgnoringPreviousState{})
	case ev.Is(input.KeyBackspace):
		if s.Number == "" {
			return Enter(state.EmptyIgnoringPreviousState{})
		}
		s.Number = s.Number[:len(s.Number)-1]
		return Enter(s)
	case ev.Char >= '0' && ev.Char <= '9':
		if integerDigits(s.Number) >= macro.MaxNumberDigits && !strings.Contains(s.Number, ".") {
			return Reject()
		}
		s.Number += string(ev.Char)
		return Enter(s)
	case ev.Char == '.':
		if s.Number == "" || strings.Contains(s.Number, ".") {
			return Reject()
		}
		s.Number += "."
		return Enter(s)
	}
	return Reject()
}

func integerDigits(number string) int {
	if i := strings.IndexByte(number, '.'); i >= 0 {
		return i
	}
	return len(number)
}

func (b *Basic) enclosedNumber(s state.EnclosedNumber, ev input.Event) Outcome {
	switch {
	case ev.Is(input.KeyEnter):
		text, err := macro.EnclosedNumber(s.Number)
		if err != nil {
			return Reject()
		}
		return Enter(state.Committing{PoppedText: text}, state.Empty{})
	case ev.Is(input.KeyEscape):
		return Enter(state.EmptyIgnoringPreviousState{})
	case ev.Is(input.KeyBackspace):
		if s.Number == "" {
			return Enter(state.EmptyIgnoringPreviousState{})
		}
		s.Number = s.Number[:len(s.Number)-1]
		return Enter(s)
	case ev.Char >= '0' && ev.Char <= '9':
		if len(s.Number) >= 2 {
			return Reject()
		}
		s.Number += string(ev.Char)
		return Enter(s)
	}
	return Reject()
}

func (b *Basic) big5(s state.Big5, ev input.Event) Outcome {
	switch {
	case ev.Is(input.KeyEscape):
		return Enter(state.EmptyIgnoringPreviousState{})
	case ev.Is(input.KeyBackspace):
		if s.Code == "" {
			return Enter(state.EmptyIgnoringPreviousState{})
		}
		s.Code = s.Code[:len(s.Code)-1]
		return Enter(s)
	case macro.IsHexDigit(ev.Char):
		s.Code += strings.ToUpper(string(ev.Char))
		if len(s.Code) < macro.Big5CodeLength {
			return Enter(s)
		}
		text, err := macro.DecodeBig5(s.Code)
		if err != nil {
			return Outcome{Rejected: true, States: []state.State{state.Big5{}}}
		}
		return Enter(state.Committing{PoppedText: text}, state.Empty{})
	}
	return Reject()
}

func (b *Basic) autocomplete(s state.Autocomplete, ev input.Event) Outcome {
	switch {
	case ev.Is(input.KeyTab):
		return Enter(state.Committing{PoppedText: s.Suggestion}, state.Empty{})
	case ev.Is(input.KeyEscape):
		return Enter(state.EmptyIgnoringPreviousState{})
	}
	return b.fromEmpty(ev)
}

// fromEmpty leaves an overlay state and handles ev as if nothing were shown.
func (b *Basic) fromEmpty(ev input.Event) Outcome {
	out := b.compose(ev)
	if out.Declined() {
		return Outcome{States: []state.State{state.EmptyIgnoringPreviousState{}}, PassThrough: true}
	}
	if len(out.States) == 0 {
		out.States = []state.State{state.EmptyIgnoringPreviousState{}}
	}
	return out
}

func (b *Basic) selectingDictionary(from state.State, phrase string, index int) state.SelectingDictionary {
	return state.SelectingDictionary{
		Previous:       from,
		SelectedPhrase: phrase,
		SelectedIndex:  index,
		Services:       b.opts.Services,
	}
}

// shiftedDigits maps a shifted digit key on a US keyboard to its digit.
var shiftedDigits = map[rune]rune{
	')': '0', '!': '1', '@': '2', '#': '3', '$': '4',
	'%': '5', '^': '6', '&': '7', '*': '8', '(': '9',
}

// candidateIndex maps a candidate key to an index on the page holding the
// highlighted candidate.
func (b *Basic) candidateIndex(ev input.Event, highlighted, count int, shifted bool) (int, bool) {
	if ev.IsCommand() || ev.Char == 0 || ev.Is(input.KeySpace) {
		return 0, false
	}
	r := ev.Char
	if shifted {
		if !ev.IsShift() {
			return 0, false
		}
		if d, ok := shiftedDigits[r]; ok {
			r = d
		}
	}
	r = unicode.ToLower(r)
	keys := []rune(b.opts.CandidateKeys)
	pos := -1
	for i, k := range keys {
		if k == r {
			pos = i
			break
		}
	}
	if pos < 0 {
		return 0, false
	}
	page := 0
	if highlighted > 0 {
		page = highlighted / len(keys)
	}
	index := page*len(keys) + pos
	if index >= count {
		return 0, false
	}
	return index, true
}

// navigate maps arrow and paging keys to highlight moves.
func navigate(ev input.Event, pageSize int) (Outcome, bool) {
	switch ev.Code {
	case input.KeyUp, input.KeyLeft:
		return Outcome{Move: -1}, true
	case input.KeyDown, input.KeyRight:
		return Outcome{Move: 1}, true
	case input.KeyPageUp:
		return Outcome{Move: -pageSize}, true
	case input.KeyPageDown:
		return Outcome{Move: pageSize}, true
	}
	return Outcome{}, false
}

func (b *Basic) inputting() Outcome {
	if !b.HasComposingText() {
		return Enter(state.EmptyIgnoringPreviousState{})
	}
	return Enter(b.BuildInputtingState())
}

func (b *Basic) insert(c cell) {
	b.cells = append(b.cells, cell{})
	copy(b.cells[b.cursor+1:], b.cells[b.cursor:])
	b.cells[b.cursor] = c
	b.cursor++
}

// render returns the buffer, the cursor in runes and the reading of every
// rune.
func (b *Basic) render() (string, int, []string) {
	var sb strings.Builder
	readings := make([]string, 0, len(b.cells))
	pending := b.pending.String()
	cursor := 0
	for i, c := range b.cells {
		if i == b.cursor {
			cursor = len(readings) + len([]rune(pending))
			sb.WriteString(pending)
			for range []rune(pending) {
				readings = append(readings, "")
			}
		}
		sb.WriteString(c.value)
		readings = append(readings, c.reading)
	}
	if b.cursor == len(b.cells) {
		sb.WriteString(pending)
		for range []rune(pending) {
			readings = append(readings, "")
		}
		cursor = len(readings)
	}
	return sb.String(), cursor, readings
}

func (b *Basic) text(lo, hi int) string {
	var sb strings.Builder
	for _, c := range b.cells[lo:hi] {
		sb.WriteString(c.value)
	}
	return sb.String()
}

// reading joins the readings of cells [lo, hi). It is false when a cell has
// none.
func (b *Basic) reading(lo, hi int) (string, bool) {
	parts := make([]string, 0, hi-lo)
	for _, c := range b.cells[lo:hi] {
		if c.reading == "" {
			return "", false
		}
		parts = append(parts, c.reading)
	}
	return strings.Join(parts, state.ReadingSeparator), true
}

// candidatesEndingAt lists the candidates of every span ending at end,
// longest span first.
func (b *Basic) candidatesEndingAt(end int) []state.Candidate {
	if end > len(b.cells) {
		return nil
	}
	var out []state.Candidate
	for n := min(MaxPhraseSyllables, end); n > 0; n-- {
		reading, ok := b.reading(end-n, end)
		if !ok {
			continue
		}
		out = append(out, b.lexicon.Candidates(reading)...)
	}
	return out
}

// resolve converts every run of unfixed syllables, longest known phrase
// first from the left.
func (b *Basic) resolve() {
	for i := 0; i < len(b.cells); {
		if b.cells[i].fixed || b.cells[i].reading == "" {
			i++
			continue
		}
		j := i
		for j < len(b.cells) && !b.cells[j].fixed && b.cells[j].reading != "" {
			j++
		}
		b.resolveRun(i, j)
		i = j
	}
}

func (b *Basic) resolveRun(lo, hi int) {
	for i := lo; i < hi; {
		n := min(MaxPhraseSyllables, hi-i)
		for ; n > 1; n-- {
			if reading, _ := b.reading(i, i+n); b.lexicon.Has(reading) {
				break
			}
		}
		reading, _ := b.reading(i, i+n)
		if values := b.lexicon.Values(reading); len(values) > 0 {
			for k, r := range []rune(values[0]) {
				b.cells[i+k].value = string(r)
			}
		}
		i += n
	}
}
