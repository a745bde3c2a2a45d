package composer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

func newTestComposer() *Basic {
	return NewBasic(nil, Options{Services: []string{"MOE", "Google"}})
}

// press feeds ev to c from s and returns the last state entered, or s when
// none was.
func press(t *testing.T, c *Basic, s state.State, ev input.Event) (state.State, Outcome) {
	t.Helper()
	out := c.Advance(Request{State: s, Event: ev, Highlighted: -1})
	if len(out.States) == 0 {
		return s, out
	}
	return out.States[len(out.States)-1], out
}

// typeKeys types every rune of keys. A space is the first-tone key.
func typeKeys(t *testing.T, c *Basic, s state.State, keys string) state.State {
	t.Helper()
	for _, r := range keys {
		s, _ = press(t, c, s, input.NewKey(r))
	}
	return s
}

func TestTypingComposesCharacters(t *testing.T) {
	tests := []struct {
		name   string
		keys   string
		buffer string
		cursor int
	}{
		{"single syllable", "su3", "你", 1},
		{"pending syllable shown", "su", "ㄋㄧ", 2},
		{"phrase", "su3cl3", "你好", 2},
		{"first tone with space", "rup wu0 ", "今天", 2},
		{"pending after composed", "su3c", "你ㄏ", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestComposer()
			s := typeKeys(t, c, state.Empty{}, tt.keys)
			in, ok := s.(state.Inputting)
			require.True(t, ok, "got %s", state.Describe(s))
			assert.Equal(t, tt.buffer, in.Buffer())
			assert.Equal(t, tt.cursor, in.Cursor())
		})
	}
}

func TestUnknownReadingIsRejected(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "s")

	next, out := press(t, c, s, input.NewKey('3'))
	assert.True(t, out.Rejected)
	assert.Equal(t, s, next)
	assert.Equal(t, "ㄋ", c.BuildInputtingState().(state.Inputting).Buffer())
}

func TestEmptyDeclinesUnknownKeys(t *testing.T) {
	c := newTestComposer()
	for _, ev := range []input.Event{
		input.NewKeyWithCode(input.KeyEnter),
		input.NewKeyWithCode(input.KeyEscape),
		input.NewKeyWithCode(input.KeyBackspace),
		input.NewKeyWithCode(input.KeySpace),
		input.NewKey('A'),
		input.NewKey('a').WithModifiers(input.ModControl),
	} {
		out := c.Advance(Request{State: state.Empty{}, Event: ev, Highlighted: -1})
		assert.True(t, out.Declined(), ev.String())
	}
}

func TestEnterCommitsComposedText(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "su3cl3")

	_, out := press(t, c, s, input.NewKeyWithCode(input.KeyEnter))
	require.Len(t, out.States, 2)
	assert.Equal(t, state.Committing{PoppedText: "你好"}, out.States[0])
	assert.Equal(t, state.Empty{}, out.States[1])
	assert.False(t, c.HasComposingText())
}

func TestOtherKeyCommitsAndPassesThrough(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "su3")

	_, out := press(t, c, s, input.NewKey('A').WithModifiers(input.ModShift))
	assert.True(t, out.PassThrough)
	require.Len(t, out.States, 2)
	assert.Equal(t, state.Committing{PoppedText: "你"}, out.States[0])
}

func TestEscapeAndBackspace(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "su3c")

	s, _ = press(t, c, s, input.NewKeyWithCode(input.KeyEscape))
	assert.Equal(t, "你", s.(state.Inputting).Buffer())

	s, _ = press(t, c, s, input.NewKeyWithCode(input.KeyBackspace))
	assert.Equal(t, state.EmptyIgnoringPreviousState{}, s)
	assert.False(t, c.HasComposingText())
}

func TestCursorMovement(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "su3cl3")

	s, _ = press(t, c, s, input.NewKeyWithCode(input.KeyHome))
	assert.Equal(t, 0, s.(state.Inputting).Cursor())

	_, out := press(t, c, s, input.NewKeyWithCode(input.KeyLeft))
	assert.True(t, out.Rejected)

	s, _ = press(t, c, s, input.NewKeyWithCode(input.KeyRight))
	assert.Equal(t, 1, s.(state.Inputting).Cursor())
}

func TestPunctuationInsertsFullWidth(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "su3<")
	assert.Equal(t, "你，", s.(state.Inputting).Buffer())
}

func TestSpaceOpensCandidatesLongestFirst(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "su3cl3")

	s, _ = press(t, c, s, input.NewKeyWithCode(input.KeySpace))
	cc, ok := s.(state.ChoosingCandidate)
	require.True(t, ok)
	assert.Equal(t, "你好", cc.Buffer())
	assert.Equal(t, 2, cc.OriginalCursorIndex)
	require.NotEmpty(t, cc.Candidates)
	assert.Equal(t, state.Candidate{Reading: "ㄋㄧˇ-ㄏㄠˇ", Value: "你好"}, cc.Candidates[0])
	assert.Equal(t, "好", cc.Candidates[1].Value)
}

func TestFixNodePinsCandidate(t *testing.T) {
	c := newTestComposer()
	typeKeys(t, c, state.Empty{}, "rup wu0 ")

	c.FixNode("ㄊㄧㄢ", "添", 2, true)
	in := c.BuildInputtingState().(state.Inputting)
	assert.Equal(t, "今添", in.Buffer())
	assert.Equal(t, 2, in.Cursor())

	// A later syllable does not rewrite the pinned character.
	s := typeKeys(t, c, in, "fu4")
	assert.Equal(t, "今添氣", s.(state.Inputting).Buffer())
}

func TestCandidateKeysSelect(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "su3")
	s, _ = press(t, c, s, input.NewKeyWithCode(input.KeySpace))

	out := c.Advance(Request{State: s, Event: input.NewKey('2'), Highlighted: 0})
	assert.Equal(t, Select(1), out)

	out = c.Advance(Request{State: s, Event: input.NewKey('9'), Highlighted: 0})
	assert.True(t, out.Rejected, "index beyond the candidate list")

	out = c.Advance(Request{State: s, Event: input.NewKeyWithCode(input.KeyEnter), Highlighted: 0})
	assert.True(t, out.SelectsHighlighted)

	out = c.Advance(Request{State: s, Event: input.NewKeyWithCode(input.KeyDown), Highlighted: 0})
	assert.Equal(t, 1, out.Move)
}

func TestCandidateIndexFollowsPage(t *testing.T) {
	c := NewBasic(nil, Options{CandidateKeys: "asdf"})
	i, ok := c.candidateIndex(input.NewKey('s'), 5, 10, false)
	require.True(t, ok)
	assert.Equal(t, 5, i)

	_, ok = c.candidateIndex(input.NewKey('@').WithModifiers(input.ModShift), 0, 10, true)
	assert.False(t, ok, "'2' is not a configured key")

	c = newTestComposer()
	i, ok = c.candidateIndex(input.NewKey('@').WithModifiers(input.ModShift), 0, 10, true)
	require.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestMarking(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "rup wu0 ")
	shiftLeft := input.NewKeyWithCode(input.KeyLeft).WithModifiers(input.ModShift)

	s, _ = press(t, c, s, shiftLeft)
	m, ok := s.(state.Marking)
	require.True(t, ok)
	assert.Equal(t, 2, m.Cursor())
	assert.Equal(t, 1, m.Marker())
	assert.False(t, m.ValidToWrite())

	s, _ = press(t, c, s, shiftLeft)
	m = s.(state.Marking)
	assert.True(t, m.ValidToWrite())
	assert.Equal(t, state.Phrase{Reading: "ㄐㄧㄣ-ㄊㄧㄢ", Value: "今天"}, m.UserPhrase())

	_, out := press(t, c, s, input.NewKeyWithCode(input.KeyEnter))
	require.NotNil(t, out.Write)
	assert.Equal(t, m, *out.Write)
	assert.Empty(t, out.States)

	s, _ = press(t, c, m, input.NewKeyWithCode(input.KeyEscape))
	assert.Equal(t, m.Inputting(), s)
}

func TestQuestionMarkOpensDictionary(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "su3")
	s, _ = press(t, c, s, input.NewKeyWithCode(input.KeySpace))

	out := c.Advance(Request{State: s, Event: input.NewKey('?'), Highlighted: 1})
	require.Len(t, out.States, 1)
	sd, ok := out.States[0].(state.SelectingDictionary)
	require.True(t, ok)
	assert.Equal(t, "妳", sd.SelectedPhrase)
	assert.Equal(t, 1, sd.SelectedIndex)
	assert.Equal(t, s, sd.Previous)

	back, _ := press(t, c, sd, input.NewKeyWithCode(input.KeyEscape))
	assert.Equal(t, s, back)
}

func TestBacktickOpensFeatures(t *testing.T) {
	c := newTestComposer()
	s, _ := press(t, c, state.Empty{}, input.NewKey('`'))
	assert.Equal(t, state.NewSelectingFeature(), s)

	s, _ = press(t, c, s, input.NewKeyWithCode(input.KeyEscape))
	assert.Equal(t, state.EmptyIgnoringPreviousState{}, s)
}

func TestNumberModes(t *testing.T) {
	c := newTestComposer()

	s := typeKeys(t, c, state.ChineseNumber{}, "12")
	_, out := press(t, c, s, input.NewKeyWithCode(input.KeyEnter))
	assert.Equal(t, []state.State{state.Committing{PoppedText: "十二"}, state.Empty{}}, out.States)

	s = typeKeys(t, c, state.EnclosedNumber{}, "5")
	_, out = press(t, c, s, input.NewKeyWithCode(input.KeyEnter))
	assert.Equal(t, []state.State{state.Committing{PoppedText: "⑤"}, state.Empty{}}, out.States)

	_, out = press(t, c, state.EnclosedNumber{Number: "12"}, input.NewKey('3'))
	assert.True(t, out.Rejected)

	_, out = press(t, c, state.ChineseNumber{}, input.NewKey('x'))
	assert.True(t, out.Rejected)
}

func TestBig5CommitsOnFourthDigit(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Big5{}, "a44")
	assert.Equal(t, state.Big5{Code: "A44"}, s)

	_, out := press(t, c, s, input.NewKey('0'))
	assert.Equal(t, []state.State{state.Committing{PoppedText: "一"}, state.Empty{}}, out.States)
}

func TestAutocompleteKeys(t *testing.T) {
	c := newTestComposer()
	ac := state.Autocomplete{Suggestion: "天氣真好", PreviousText: "今天"}

	_, out := press(t, c, ac, input.NewKeyWithCode(input.KeyTab))
	assert.Equal(t, []state.State{state.Committing{PoppedText: "天氣真好"}, state.Empty{}}, out.States)

	s, _ := press(t, c, ac, input.NewKeyWithCode(input.KeyEscape))
	assert.Equal(t, state.EmptyIgnoringPreviousState{}, s)

	s, out = press(t, c, ac, input.NewKey('s'))
	assert.Equal(t, "ㄋ", s.(state.Inputting).Buffer())
	assert.False(t, out.PassThrough)

	c.Clear()
	s, out = press(t, c, ac, input.NewKeyWithCode(input.KeyEnter))
	assert.Equal(t, state.EmptyIgnoringPreviousState{}, s)
	assert.True(t, out.PassThrough)
}

func TestPlainModeOpensCandidatesPerSyllable(t *testing.T) {
	c := newTestComposer()
	c.SetMode(ModePlainBopomofo)

	s := typeKeys(t, c, state.Empty{}, "su3")
	cc, ok := s.(state.ChoosingCandidate)
	require.True(t, ok)
	assert.Equal(t, "ㄋㄧˇ", cc.Buffer())
	assert.Equal(t, 3, cc.Cursor())
	assert.Equal(t, 1, cc.OriginalCursorIndex)

	c.FixNode("ㄋㄧˇ", "妳", cc.OriginalCursorIndex, true)
	assert.Equal(t, "妳", c.BuildInputtingState().(state.Inputting).Buffer())

	next, ok := c.BuildAssociatedPhraseState("ㄋㄧˇ", "你", false)
	require.True(t, ok)
	plain := next.(state.AssociatedPhrasesPlain)
	var values []string
	for _, cand := range plain.Candidates {
		values = append(values, cand.Value)
	}
	assert.ElementsMatch(t, []string{"好", "們"}, values)
}

func TestAssociatedPhrasesExtendPrefix(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "rup ")

	next, ok := c.BuildAssociatedPhrases(s, false, true)
	require.True(t, ok)
	ap := next.(state.AssociatedPhrases)
	assert.Equal(t, 1, ap.PrefixCursorIndex)
	assert.Equal(t, "今", ap.PrefixValue)
	assert.Equal(t, []state.Candidate{{Reading: "ㄊㄧㄢ", Value: "天"}}, ap.Candidates)
	assert.Equal(t, s, ap.Previous)

	c.FixAssociatedPhraseWithPrefix(ap.PrefixCursorIndex, ap.PrefixReading, ap.PrefixValue, "ㄊㄧㄢ", "天")
	in := c.BuildInputtingState().(state.Inputting)
	assert.Equal(t, "今天", in.Buffer())
	assert.Equal(t, 2, in.Cursor())
}

func TestAssociatedPhrasesWithShiftKey(t *testing.T) {
	c := newTestComposer()
	s := typeKeys(t, c, state.Empty{}, "rup ")
	next, _ := c.BuildAssociatedPhrases(s, false, true)

	out := c.Advance(Request{State: next, Event: input.NewKey('!').WithModifiers(input.ModShift), Highlighted: 0})
	assert.Equal(t, Select(0), out)

	// A plain digit is typed into the buffer instead.
	after, _ := press(t, c, next, input.NewKey('1'))
	assert.Equal(t, "今ㄅ", after.(state.Inputting).Buffer())
}

func TestAddUserPhraseRanksFirst(t *testing.T) {
	c := newTestComposer()
	typeKeys(t, c, state.Empty{}, "su3cl3")

	c.AddUserPhrase(state.Phrase{Reading: "ㄋㄧˇ-ㄏㄠˇ", Value: "妳好"})
	assert.Equal(t, "妳好", c.BuildInputtingState().(state.Inputting).Buffer())
}

func TestLexicon(t *testing.T) {
	l, err := LoadLexicon(strings.NewReader("# comment\nㄊㄧㄢ 天\nㄊㄧㄢ-ㄑㄧˋ 天氣\n\nㄊㄧㄢ-ㄑㄧˋ-ㄓㄣ-ㄏㄠˇ 天氣真好\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, l.Size())
	assert.True(t, l.Has("ㄊㄧㄢ"))
	assert.True(t, l.Contains("ㄊㄧㄢ-ㄑㄧˋ", "天氣"))

	assert.Equal(t, []state.Candidate{{Reading: "ㄓㄣ-ㄏㄠˇ", Value: "真好"}}, l.Associated("ㄊㄧㄢ-ㄑㄧˋ", "天氣"))
	assert.Empty(t, l.Associated("ㄊㄧㄢˊ-ㄑㄧˋ", "天氣"))

	require.NoError(t, l.AddFirst("ㄊㄧㄢ", "添"))
	assert.Equal(t, []string{"添", "天"}, l.Values("ㄊㄧㄢ"))
	require.NoError(t, l.Add("ㄊㄧㄢ", "天"))
	assert.Equal(t, []string{"添", "天"}, l.Values("ㄊㄧㄢ"))
}

func TestLoadLexiconErrors(t *testing.T) {
	_, err := LoadLexicon(strings.NewReader("ㄊㄧㄢ\n"))
	assert.ErrorIs(t, err, ErrMalformedEntry)

	_, err = LoadLexicon(strings.NewReader("ㄊㄧㄢ-ㄑㄧˋ 天\n"))
	assert.ErrorIs(t, err, ErrMalformedEntry)
}

func TestDefaultLexiconLoads(t *testing.T) {
	l := DefaultLexicon()
	assert.True(t, l.Has("ㄋㄧˇ"))
	assert.Equal(t, "你", l.Values("ㄋㄧˇ")[0])
}

func TestCandidateKeysFallback(t *testing.T) {
	assert.Equal(t, DefaultCandidateKeys, CandidateKeys("12"))
	assert.Equal(t, "asdf", CandidateKeys("asdf"))
}
