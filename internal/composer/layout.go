package composer

import "strings"

// symbolClass is the slot a Bopomofo symbol occupies in a syllable.
type symbolClass int

const (
	classInitial symbolClass = iota
	classMedial
	classFinal
	classTone
)

// standardLayout is the Dachen (standard) Bopomofo keyboard.
var standardLayout = map[rune]rune{
	'1': 'ㄅ', 'q': 'ㄆ', 'a': 'ㄇ', 'z': 'ㄈ',
	'2': 'ㄉ', 'w': 'ㄊ', 's': 'ㄋ', 'x': 'ㄌ',
	'e': 'ㄍ', 'd': 'ㄎ', 'c': 'ㄏ',
	'r': 'ㄐ', 'f': 'ㄑ', 'v': 'ㄒ',
	'5': 'ㄓ', 't': 'ㄔ', 'g': 'ㄕ', 'b': 'ㄖ',
	'y': 'ㄗ', 'h': 'ㄘ', 'n': 'ㄙ',
	'u': 'ㄧ', 'j': 'ㄨ', 'm': 'ㄩ',
	'8': 'ㄚ', 'i': 'ㄛ', 'k': 'ㄜ', ',': 'ㄝ',
	'9': 'ㄞ', 'o': 'ㄟ', 'l': 'ㄠ', '.': 'ㄡ',
	'0': 'ㄢ', 'p': 'ㄣ', ';': 'ㄤ', '/': 'ㄥ', '-': 'ㄦ',
	'6': 'ˊ', '3': 'ˇ', '4': 'ˋ', '7': '˙',
}

const (
	initials = "ㄅㄆㄇㄈㄉㄊㄋㄌㄍㄎㄏㄐㄑㄒㄓㄔㄕㄖㄗㄘㄙ"
	medials  = "ㄧㄨㄩ"
	finals   = "ㄚㄛㄜㄝㄞㄟㄠㄡㄢㄣㄤㄥㄦ"
	tones    = "ˊˇˋ˙"
)

// punctuation maps shifted keys to full-width punctuation.
var punctuation = map[rune]string{
	'<': "，",
	'>': "。",
	'!': "！",
	':': "：",
	'?': "？",
	'(': "（",
	')': "）",
	'[': "「",
	']': "」",
	'{': "『",
	'}': "』",
	'~': "～",

	'\'': "、",
}

func classOf(symbol rune) symbolClass {
	switch {
	case strings.ContainsRune(initials, symbol):
		return classInitial
	case strings.ContainsRune(medials, symbol):
		return classMedial
	case strings.ContainsRune(finals, symbol):
		return classFinal
	default:
		return classTone
	}
}

// syllable is the reading being typed, one slot per symbol class.
type syllable struct {
	initial, medial, final, tone rune
}

func (s *syllable) insert(symbol rune) {
	switch classOf(symbol) {
	case classInitial:
		s.initial = symbol
	case classMedial:
		s.medial = symbol
	case classFinal:
		s.final = symbol
	case classTone:
		s.tone = symbol
	}
}

// backspace removes the most recently meaningful symbol.
func (s *syllable) backspace() {
	switch {
	case s.tone != 0:
		s.tone = 0
	case s.final != 0:
		s.final = 0
	case s.medial != 0:
		s.medial = 0
	default:
		s.initial = 0
	}
}

func (s syllable) isEmpty() bool {
	return s.initial == 0 && s.medial == 0 && s.final == 0 && s.tone == 0
}

// hasSound reports whether the syllable has a non-tone symbol.
func (s syllable) hasSound() bool {
	return s.initial != 0 || s.medial != 0 || s.final != 0
}

// String returns the reading, tone mark last. A first-tone reading carries
// no mark.
func (s syllable) String() string {
	var b strings.Builder
	for _, r := range []rune{s.initial, s.medial, s.final, s.tone} {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
