package state

import "fmt"

// Visitor has one method per state variant. A type implementing Visitor
// handles every variant or does not compile.
type Visitor[R any] interface {
	Empty(Empty) R
	EmptyIgnoringPreviousState(EmptyIgnoringPreviousState) R
	Committing(Committing) R
	Inputting(Inputting) R
	Marking(Marking) R
	ChoosingCandidate(ChoosingCandidate) R
	AssociatedPhrases(AssociatedPhrases) R
	AssociatedPhrasesPlain(AssociatedPhrasesPlain) R
	SelectingFeature(SelectingFeature) R
	SelectingDateMacro(SelectingDateMacro) R
	ChineseNumber(ChineseNumber) R
	EnclosedNumber(EnclosedNumber) R
	Big5(Big5) R
	SelectingDictionary(SelectingDictionary) R
	ShowingCharInfo(ShowingCharInfo) R
	Autocomplete(Autocomplete) R
	Deactivated(Deactivated) R
}

// Visit calls the method of v matching the variant of s.
func Visit[R any](s State, v Visitor[R]) R {
	switch s := s.(type) {
	case Empty:
		return v.Empty(s)
	case EmptyIgnoringPreviousState:
		return v.EmptyIgnoringPreviousState(s)
	case Committing:
		return v.Committing(s)
	case Inputting:
		return v.Inputting(s)
	case Marking:
		return v.Marking(s)
	case ChoosingCandidate:
		return v.ChoosingCandidate(s)
	case AssociatedPhrases:
		return v.AssociatedPhrases(s)
	case AssociatedPhrasesPlain:
		return v.AssociatedPhrasesPlain(s)
	case SelectingFeature:
		return v.SelectingFeature(s)
	case SelectingDateMacro:
		return v.SelectingDateMacro(s)
	case ChineseNumber:
		return v.ChineseNumber(s)
	case EnclosedNumber:
		return v.EnclosedNumber(s)
	case Big5:
		return v.Big5(s)
	case SelectingDictionary:
		return v.SelectingDictionary(s)
	case ShowingCharInfo:
		return v.ShowingCharInfo(s)
	case Autocomplete:
		return v.Autocomplete(s)
	case Deactivated:
		return v.Deactivated(s)
	default:
		panic(fmt.Sprintf("state: unknown variant %T", s))
	}
}
