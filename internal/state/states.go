package state

// Empty is the idle state: no composing text and no candidates.
type Empty struct{}

func (Empty) Kind() Kind { return KindEmpty }
func (Empty) sealed()    {}

// EmptyIgnoringPreviousState is Empty entered without the end-of-composition
// side effects (commit of the previous buffer, autocomplete).
type EmptyIgnoringPreviousState struct{}

func (EmptyIgnoringPreviousState) Kind() Kind { return KindEmptyIgnoringPreviousState }
func (EmptyIgnoringPreviousState) sealed()    {}

// Committing carries exactly the text to insert on this transition. It is
// transient and is always followed by an Empty-family state. PoppedText may
// be empty.
type Committing struct {
	PoppedText string
}

func (Committing) Kind() Kind { return KindCommitting }
func (Committing) sealed()    {}

// Inputting is live composition without a candidate window.
type Inputting struct {
	ComposingBuffer string
	CursorIndex     int
	Tooltip         string
}

// NewInputting returns an Inputting state with the cursor clamped to the
// buffer.
func NewInputting(buffer string, cursor int, tooltip string) Inputting {
	return Inputting{
		ComposingBuffer: buffer,
		CursorIndex:     clampCursor(cursor, buffer),
		Tooltip:         tooltip,
	}
}

func (Inputting) Kind() Kind       { return KindInputting }
func (Inputting) sealed()          {}
func (s Inputting) Buffer() string { return s.ComposingBuffer }
func (s Inputting) Cursor() int    { return clampCursor(s.CursorIndex, s.ComposingBuffer) }

// ChoosingCandidate has the candidate window open over the whole buffer.
type ChoosingCandidate struct {
	ComposingBuffer     string
	CursorIndex         int
	OriginalCursorIndex int
	Candidates          []Candidate
	UseVerticalMode     bool
}

func (ChoosingCandidate) Kind() Kind                 { return KindChoosingCandidate }
func (ChoosingCandidate) sealed()                    {}
func (s ChoosingCandidate) Buffer() string           { return s.ComposingBuffer }
func (s ChoosingCandidate) Cursor() int              { return clampCursor(s.CursorIndex, s.ComposingBuffer) }
func (s ChoosingCandidate) CandidateCount() int      { return len(s.Candidates) }
func (s ChoosingCandidate) CandidateAt(i int) string { return s.Candidates[i].DisplayText() }

// AssociatedPhrases suggests continuations of a phrase just fixed in the
// composing buffer. Previous is the Inputting or ChoosingCandidate state it
// was opened from; cancelling restores its marked text.
type AssociatedPhrases struct {
	Previous          State
	PrefixCursorIndex int
	PrefixReading     string
	PrefixValue       string
	Candidates        []Candidate
	UseVerticalMode   bool
	UseShiftKey       bool
}

func (AssociatedPhrases) Kind() Kind                 { return KindAssociatedPhrases }
func (AssociatedPhrases) sealed()                    {}
func (s AssociatedPhrases) CandidateCount() int      { return len(s.Candidates) }
func (s AssociatedPhrases) CandidateAt(i int) string { return s.Candidates[i].DisplayText() }

// AssociatedPhrasesPlain is the plain Bopomofo analogue of AssociatedPhrases.
// It has no composing buffer.
type AssociatedPhrasesPlain struct {
	Candidates      []Candidate
	UseVerticalMode bool
}

func (AssociatedPhrasesPlain) Kind() Kind                 { return KindAssociatedPhrasesPlain }
func (AssociatedPhrasesPlain) sealed()                    {}
func (s AssociatedPhrasesPlain) CandidateCount() int      { return len(s.Candidates) }
func (s AssociatedPhrasesPlain) CandidateAt(i int) string { return s.Candidates[i].DisplayText() }

// SelectingDateMacro lists date and time strings to insert.
type SelectingDateMacro struct {
	Candidates []string
}

func (SelectingDateMacro) Kind() Kind                 { return KindSelectingDateMacro }
func (SelectingDateMacro) sealed()                    {}
func (s SelectingDateMacro) CandidateCount() int      { return len(s.Candidates) }
func (s SelectingDateMacro) CandidateAt(i int) string { return s.Candidates[i] }

// SelectingDictionary lists the lookup services for SelectedPhrase. Previous
// is the ChoosingCandidate or Marking state it was opened from and
// SelectedIndex the highlighted candidate there.
type SelectingDictionary struct {
	Previous       State
	SelectedPhrase string
	SelectedIndex  int
	Services       []string
}

func (SelectingDictionary) Kind() Kind                 { return KindSelectingDictionary }
func (SelectingDictionary) sealed()                    {}
func (s SelectingDictionary) CandidateCount() int      { return len(s.Services) }
func (s SelectingDictionary) CandidateAt(i int) string { return s.Services[i] }

// ShowingCharInfo lists encodings of a phrase. Selecting an entry copies its
// value and returns to Previous.Previous.
type ShowingCharInfo struct {
	Previous SelectingDictionary
	Entries  []TitleValue
}

func (ShowingCharInfo) Kind() Kind                 { return KindShowingCharInfo }
func (ShowingCharInfo) sealed()                    {}
func (s ShowingCharInfo) CandidateCount() int      { return len(s.Entries) }
func (s ShowingCharInfo) CandidateAt(i int) string { return s.Entries[i].Title }

// Autocomplete overlays a suggestion for the text before the cursor.
// PreviousText is the context the suggestion was generated from.
type Autocomplete struct {
	Suggestion   string
	PreviousText string
}

func (Autocomplete) Kind() Kind { return KindAutocomplete }
func (Autocomplete) sealed()    {}

// Deactivated marks session teardown. Handling it always leaves the session
// in Empty.
type Deactivated struct{}

func (Deactivated) Kind() Kind { return KindDeactivated }
func (Deactivated) sealed()    {}
