// Package macro converts the input of the feature sub-modes (date macros,
// Chinese numbers, enclosed numbers and Big5 codes) into committed text.
package macro

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NumberStyle selects the digit set used by ChineseNumber.
type NumberStyle int

const (
	// Lowercase uses everyday digits (一二三).
	Lowercase NumberStyle = iota
	// Uppercase uses the financial digits (壹貳參).
	Uppercase
)

// String returns the style name.
func (s NumberStyle) String() string {
	if s == Uppercase {
		return "uppercase"
	}
	return "lowercase"
}

// MaxNumberDigits bounds the integer part accepted by ChineseNumber.
const MaxNumberDigits = 20

var (
	ErrEmptyNumber   = errors.New("number is empty")
	ErrInvalidNumber = errors.New("invalid number")
	ErrNumberTooLong = errors.New("number has too many digits")
	ErrOutOfRange    = errors.New("number out of range")
)

type numerals struct {
	digits     [10]string
	smallUnits [4]string
	bigUnits   [5]string
	point      string
}

var lowerNumerals = numerals{
	digits:     [10]string{"〇", "一", "二", "三", "四", "五", "六", "七", "八", "九"},
	smallUnits: [4]string{"", "十", "百", "千"},
	bigUnits:   [5]string{"", "萬", "億", "兆", "京"},
	point:      "點",
}

var upperNumerals = numerals{
	digits:     [10]string{"零", "壹", "貳", "參", "肆", "伍", "陸", "柒", "捌", "玖"},
	smallUnits: [4]string{"", "拾", "佰", "仟"},
	bigUnits:   [5]string{"", "萬", "億", "兆", "京"},
	point:      "點",
}

// ChineseNumber spells the decimal number s ("1234", "3.14") in Chinese.
func ChineseNumber(s string, style NumberStyle) (string, error) {
	if s == "" {
		return "", ErrEmptyNumber
	}
	n := lowerNumerals
	zero := "零"
	if style == Uppercase {
		n = upperNumerals
	}

	intPart, fracPart, hasPoint := strings.Cut(s, ".")
	if !allDigits(intPart) || !allDigits(fracPart) || (intPart == "" && fracPart == "") {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}

	intPart = strings.TrimLeft(intPart, "0")
	if len(intPart) > MaxNumberDigits {
		return "", fmt.Errorf("%w: %d digits", ErrNumberTooLong, len(intPart))
	}

	var b strings.Builder
	if intPart == "" {
		b.WriteString(zero)
	} else {
		b.WriteString(spellInteger(intPart, n, zero, style == Lowercase))
	}

	if hasPoint && fracPart != "" {
		b.WriteString(n.point)
		for _, c := range fracPart {
			b.WriteString(n.digits[c-'0'])
		}
	}
	return b.String(), nil
}

func spellInteger(digits string, n numerals, zero string, dropLeadingOne bool) string {
	var b strings.Builder
	pendingZero := false
	groupNonZero := false
	count := len(digits)

	for i := 0; i < count; i++ {
		c := digits[i]
		pos := count - 1 - i
		unit := pos % 4
		group := pos / 4

		if c == '0' {
			pendingZero = true
		} else {
			if pendingZero && b.Len() > 0 {
				b.WriteString(zero)
			}
			pendingZero = false
			groupNonZero = true
			// 十五 rather than 一十五 at the start of a lowercase number.
			if !(dropLeadingOne && b.Len() == 0 && c == '1' && unit == 1) {
				b.WriteString(n.digits[c-'0'])
			}
			b.WriteString(n.smallUnits[unit])
		}

		if unit == 0 {
			if group > 0 && groupNonZero {
				b.WriteString(n.bigUnits[group])
			}
			groupNonZero = false
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// EnclosedNumber returns the circled form of n for 0 through 50.
func EnclosedNumber(s string) (string, error) {
	if s == "" {
		return "", ErrEmptyNumber
	}
	if !allDigits(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}

	switch {
	case v == 0:
		return "⓪", nil
	case v <= 20:
		return string(rune(0x2460 + v - 1)), nil
	case v <= 35:
		return string(rune(0x3251 + v - 21)), nil
	case v <= 50:
		return string(rune(0x32B1 + v - 36)), nil
	default:
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
}
