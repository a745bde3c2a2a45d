// Package composer is the boundary between an input session and the
// phonetic composition engine.
//
// A Composer turns (current state, keystroke) into the next states, owns the
// composing buffer, and fixes nodes when a candidate is chosen. The session
// never inspects the composition graph directly; it only sees the states the
// composer builds.
package composer

import (
	"unicode/utf8"

	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

// Mode selects the composition behaviour.
type Mode int

const (
	// ModeBopomofo composes phrases and lets the user revise them before
	// committing.
	ModeBopomofo Mode = iota
	// ModePlainBopomofo commits every character as soon as it is chosen.
	ModePlainBopomofo
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModePlainBopomofo {
		return "plain-bopomofo"
	}
	return "bopomofo"
}

// Request is one keystroke to advance.
type Request struct {
	State state.State
	Event input.Event
	// Highlighted is the highlighted candidate of the open candidate window,
	// or -1 when none is shown.
	Highlighted int
}

// Outcome is the composer's answer to a Request.
//
// A zero Outcome declines the key: the session stays where it is and the
// host handles the key itself.
type Outcome struct {
	// States are entered in order.
	States []state.State

	// Rejected asks the session to signal an input error. States, if any,
	// are still entered.
	Rejected bool

	// PassThrough reports the key as unhandled even though States are
	// entered, so the host still processes it.
	PassThrough bool

	// Selects requests selection of candidate Index of the current state.
	Selects bool
	Index   int

	// SelectsHighlighted requests selection of the highlighted candidate.
	SelectsHighlighted bool

	// Move shifts the highlighted candidate by Move rows.
	Move int

	// Write asks the session to store the marked phrase and then enter the
	// re-rendered composing buffer, since the new phrase can change how
	// unfixed characters resolve. A refused write leaves the session where
	// it is.
	Write *state.Marking
}

// Declined reports whether the outcome leaves the key to the host.
func (o Outcome) Declined() bool {
	return len(o.States) == 0 && !o.Rejected && !o.Selects && !o.SelectsHighlighted &&
		o.Move == 0 && o.Write == nil
}

// Enter returns an outcome entering states in order.
func Enter(states ...state.State) Outcome {
	return Outcome{States: states}
}

// Reject returns an outcome that only signals an input error.
func Reject() Outcome {
	return Outcome{Rejected: true}
}

// Select returns an outcome selecting candidate i.
func Select(i int) Outcome {
	return Outcome{Selects: true, Index: i}
}

// DefaultCandidateKeys label the candidate window when fewer than four keys
// are configured.
const DefaultCandidateKeys = "123456789"

// CandidateKeys returns the keys that select candidates given the configured
// ones.
func CandidateKeys(configured string) string {
	if utf8.RuneCountInString(configured) < 4 {
		return DefaultCandidateKeys
	}
	return configured
}

// Composer is the phonetic composition engine consumed by a session.
type Composer interface {
	// Advance computes the states following req.
	Advance(req Request) Outcome

	// ForceCommit returns a Committing state with everything composed so far
	// and clears the composer.
	ForceCommit() state.State

	// Clear drops the composing buffer.
	Clear()

	// HasComposingText reports whether anything is being composed.
	HasComposingText() bool

	Mode() Mode
	SetMode(Mode)

	// BuildInputtingState renders the composing buffer.
	BuildInputtingState() state.State

	// BuildAssociatedPhraseState returns the plain-mode associated phrases
	// following (reading, value), or false when there are none.
	BuildAssociatedPhraseState(reading, value string, vertical bool) (state.State, bool)

	// BuildAssociatedPhrases returns the associated phrases for the node
	// before the cursor of from, or false when there are none.
	BuildAssociatedPhrases(from state.State, vertical, useShiftKey bool) (state.State, bool)

	// FixNode pins (reading, value) at the node ending at originalCursor.
	FixNode(reading, value string, originalCursor int, moveCursorAfterSelection bool)

	// FixAssociatedPhraseWithPrefix replaces the prefix node at cursor with
	// the prefix extended by (reading, value).
	FixAssociatedPhraseWithPrefix(cursor int, prefixReading, prefixValue, reading, value string)

	// AddUserPhrase teaches the composer a phrase written by the user.
	AddUserPhrase(p state.Phrase)
}
