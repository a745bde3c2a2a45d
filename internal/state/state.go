// Package state defines the closed set of composition states of an input
// session.
//
// Every state is an immutable value. A session holds exactly one current
// state and replaces it atomically; nothing mutates a state in place once it
// has been installed. States that remember where they came from embed the
// parent state by value in a Previous field, so a parent is a snapshot and
// never a pointer into mutable history.
//
// State is sealed: only this package can add variants. Code that must treat
// every variant differently implements Visitor, which has one method per
// variant, so forgetting a variant is a compile error rather than a runtime
// fall-through.
package state

import "fmt"

// Kind identifies a state variant. It is used for logging and tests.
type Kind int

const (
	KindEmpty Kind = iota
	KindEmptyIgnoringPreviousState
	KindCommitting
	KindInputting
	KindMarking
	KindChoosingCandidate
	KindAssociatedPhrases
	KindAssociatedPhrasesPlain
	KindSelectingFeature
	KindSelectingDateMacro
	KindChineseNumber
	KindEnclosedNumber
	KindBig5
	KindSelectingDictionary
	KindShowingCharInfo
	KindAutocomplete
	KindDeactivated
)

var kindNames = [...]string{
	KindEmpty:                      "Empty",
	KindEmptyIgnoringPreviousState: "EmptyIgnoringPreviousState",
	KindCommitting:                 "Committing",
	KindInputting:                  "Inputting",
	KindMarking:                    "Marking",
	KindChoosingCandidate:          "ChoosingCandidate",
	KindAssociatedPhrases:          "AssociatedPhrases",
	KindAssociatedPhrasesPlain:     "AssociatedPhrasesPlain",
	KindSelectingFeature:           "SelectingFeature",
	KindSelectingDateMacro:         "SelectingDateMacro",
	KindChineseNumber:              "ChineseNumber",
	KindEnclosedNumber:             "EnclosedNumber",
	KindBig5:                       "Big5",
	KindSelectingDictionary:        "SelectingDictionary",
	KindShowingCharInfo:            "ShowingCharInfo",
	KindAutocomplete:               "Autocomplete",
	KindDeactivated:                "Deactivated",
}

// String returns the variant name.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// State is one composition state.
type State interface {
	// Kind returns the variant tag.
	Kind() Kind
	sealed()
}

// NotEmpty is implemented by states that carry a composing buffer.
type NotEmpty interface {
	State
	// Buffer returns the composing buffer shown as marked text.
	Buffer() string
	// Cursor returns the cursor position in runes, 0 <= Cursor() <= len(Buffer()).
	Cursor() int
}

// CandidateProvider is implemented by states that own a candidate list.
type CandidateProvider interface {
	State
	CandidateCount() int
	// CandidateAt returns the display text of the candidate at i.
	CandidateAt(i int) string
}

// Candidate is one (reading, value) pair offered for selection.
type Candidate struct {
	Reading string
	Value   string
}

// DisplayText returns the text shown in the candidate window.
func (c Candidate) DisplayText() string { return c.Value }

// TitleValue is one row of the character information menu: Title is shown,
// Value is what gets copied.
type TitleValue struct {
	Title string
	Value string
}

// IsEmpty reports whether s belongs to the Empty family.
func IsEmpty(s State) bool {
	if s == nil {
		return true
	}
	switch s.Kind() {
	case KindEmpty, KindEmptyIgnoringPreviousState:
		return true
	}
	return false
}

// Describe renders s for logs without its candidate lists.
func Describe(s State) string {
	if s == nil {
		return "<nil>"
	}
	if ne, ok := s.(NotEmpty); ok {
		return fmt.Sprintf("%s{buffer=%q cursor=%d}", s.Kind(), ne.Buffer(), ne.Cursor())
	}
	if cp, ok := s.(CandidateProvider); ok {
		return fmt.Sprintf("%s{candidates=%d}", s.Kind(), cp.CandidateCount())
	}
	return s.Kind().String()
}

func runeLen(s string) int {
	return len([]rune(s))
}

func clampCursor(cursor int, buffer string) int {
	if cursor < 0 {
		return 0
	}
	if n := runeLen(buffer); cursor > n {
		return n
	}
	return cursor
}
