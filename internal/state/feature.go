package state

import (
	"time"

	"github.com/GoatWang/BopomofoLLM/internal/macro"
)

// ChineseNumber collects digits to be spelled as a Chinese number.
type ChineseNumber struct {
	Number string
	Style  macro.NumberStyle
}

func (ChineseNumber) Kind() Kind { return KindChineseNumber }
func (ChineseNumber) sealed()    {}

// Buffer shows the mode prompt followed by the digits typed so far.
func (s ChineseNumber) Buffer() string {
	if s.Style == macro.Uppercase {
		return "[大寫數字] " + s.Number
	}
	return "[中文數字] " + s.Number
}

// Cursor is always at the end of the buffer.
func (s ChineseNumber) Cursor() int { return runeLen(s.Buffer()) }

// EnclosedNumber collects digits to be turned into a circled number.
type EnclosedNumber struct {
	Number string
}

func (EnclosedNumber) Kind() Kind       { return KindEnclosedNumber }
func (EnclosedNumber) sealed()          {}
func (s EnclosedNumber) Buffer() string { return "[圈號數字] " + s.Number }
func (s EnclosedNumber) Cursor() int    { return runeLen(s.Buffer()) }

// Big5 collects the hex digits of a Big5 code.
type Big5 struct {
	Code string
}

func (Big5) Kind() Kind       { return KindBig5 }
func (Big5) sealed()          {}
func (s Big5) Buffer() string { return "[內碼] " + s.Code }
func (s Big5) Cursor() int    { return runeLen(s.Buffer()) }

// Feature is an entry of the feature menu.
type Feature int

const (
	FeatureDateMacro Feature = iota
	FeatureChineseNumberLower
	FeatureChineseNumberUpper
	FeatureEnclosedNumber
	FeatureBig5
)

// Title returns the menu text of f.
func (f Feature) Title() string {
	switch f {
	case FeatureDateMacro:
		return "日期與時間"
	case FeatureChineseNumberLower:
		return "中文數字"
	case FeatureChineseNumberUpper:
		return "大寫數字"
	case FeatureEnclosedNumber:
		return "圈號數字"
	case FeatureBig5:
		return "Big5 內碼輸入"
	default:
		return ""
	}
}

// DefaultFeatures is the feature menu in display order.
func DefaultFeatures() []Feature {
	return []Feature{
		FeatureDateMacro,
		FeatureChineseNumberLower,
		FeatureChineseNumberUpper,
		FeatureEnclosedNumber,
		FeatureBig5,
	}
}

// SelectingFeature is the feature menu.
type SelectingFeature struct {
	Features []Feature
}

// NewSelectingFeature returns the menu with the default features.
func NewSelectingFeature() SelectingFeature {
	return SelectingFeature{Features: DefaultFeatures()}
}

func (SelectingFeature) Kind() Kind                 { return KindSelectingFeature }
func (SelectingFeature) sealed()                    {}
func (s SelectingFeature) CandidateCount() int      { return len(s.Features) }
func (s SelectingFeature) CandidateAt(i int) string { return s.Features[i].Title() }

// NextState returns the sub-mode opened by the feature at index. Date macros
// are evaluated at now. It returns false for an unknown feature.
func (s SelectingFeature) NextState(index int, now time.Time) (State, bool) {
	switch s.Features[index] {
	case FeatureDateMacro:
		return SelectingDateMacro{Candidates: macro.DateMacros(now)}, true
	case FeatureChineseNumberLower:
		return ChineseNumber{Style: macro.Lowercase}, true
	case FeatureChineseNumberUpper:
		return ChineseNumber{Style: macro.Uppercase}, true
	case FeatureEnclosedNumber:
		return EnclosedNumber{}, true
	case FeatureBig5:
		return Big5{}, true
	default:
		return nil, false
	}
}
