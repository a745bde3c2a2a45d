package macro

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/traditionalchinese"
)

// Big5CodeLength is the number of hex digits in a Big5 code.
const Big5CodeLength = 4

var ErrInvalidBig5 = errors.New("invalid big5 code")

// IsHexDigit reports whether r may appear in a Big5 code.
func IsHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// DecodeBig5 returns the character whose Big5 code is the 4 hex digits in
// code, e.g. "A440" for 一.
func DecodeBig5(code string) (string, error) {
	if len(code) != Big5CodeLength {
		return "", fmt.Errorf("%w: %q needs %d hex digits", ErrInvalidBig5, code, Big5CodeLength)
	}
	raw, err := hex.DecodeString(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidBig5, code, err)
	}
	out, err := traditionalchinese.Big5.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidBig5, code, err)
	}
	s := string(out)
	if s == "" || strings.ContainsRune(s, '�') {
		return "", fmt.Errorf("%w: %q is unassigned", ErrInvalidBig5, code)
	}
	return s, nil
}

// EncodeBig5 returns the uppercase hex Big5 code of s, or false when s cannot
// be represented in Big5.
func EncodeBig5(s string) (string, bool) {
	out, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte(s))
	if err != nil || len(out) == 0 {
		return "", false
	}
	return strings.ToUpper(hex.EncodeToString(out)), true
}
