package dictionary

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf16"

	"github.com/GoatWang/BopomofoLLM/internal/macro"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

// Describe returns the character information entries of text. Each title
// shows the value that is copied when the entry is chosen. The Big5 entry is
// left out when text has no Big5 encoding.
func Describe(text string) []state.TitleValue {
	units := utf16.Encode([]rune(text))
	utf16Hex := make([]string, len(units))
	for i, u := range units {
		utf16Hex[i] = fmt.Sprintf("%04X", u)
	}

	var codePoints []string
	for _, r := range text {
		codePoints = append(codePoints, fmt.Sprintf("U+%04X", r))
	}

	entries := []state.TitleValue{
		entry("UTF-8 HEX", strings.ToUpper(hex.EncodeToString([]byte(text)))),
		entry("UTF-16 HEX", strings.Join(utf16Hex, " ")),
		entry("URL Escape", url.PathEscape(text)),
	}
	if big5, ok := macro.EncodeBig5(text); ok {
		entries = append(entries, entry("Big5 HEX", big5))
	}
	return append(entries, entry("Code Points", strings.Join(codePoints, " ")))
}

func entry(title, value string) state.TitleValue {
	return state.TitleValue{Title: title + ": " + value, Value: value}
}
