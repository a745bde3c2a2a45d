package state

import (
	"fmt"
	"strings"
)

// Bounds on the length of a phrase that may be added from a marking.
const (
	MinMarkLength = 2
	MaxMarkLength = 6
)

// ReadingSeparator joins the syllables of a multi-character reading.
const ReadingSeparator = "-"

// Marking selects a range of the composing buffer to add as a user phrase.
//
// Readings holds one entry per rune of ComposingBuffer: the syllable that
// produced the rune, or "" for runes that have no reading (a pending
// syllable, punctuation). Everything else a marking reports is derived from
// these four fields on each call.
type Marking struct {
	ComposingBuffer string
	CursorIndex     int
	MarkerIndex     int
	Readings        []string
}

// NewMarking returns a Marking with both indexes clamped to the buffer.
func NewMarking(buffer string, cursor, marker int, readings []string) Marking {
	return Marking{
		ComposingBuffer: buffer,
		CursorIndex:     clampCursor(cursor, buffer),
		MarkerIndex:     clampCursor(marker, buffer),
		Readings:        readings,
	}
}

func (Marking) Kind() Kind       { return KindMarking }
func (Marking) sealed()          {}
func (s Marking) Buffer() string { return s.ComposingBuffer }
func (s Marking) Cursor() int    { return clampCursor(s.CursorIndex, s.ComposingBuffer) }

// Marker returns the clamped marker index.
func (s Marking) Marker() int { return clampCursor(s.MarkerIndex, s.ComposingBuffer) }

// Range returns the marked half-open rune range [lo, hi).
func (s Marking) Range() (lo, hi int) {
	c, m := s.Cursor(), s.Marker()
	if c < m {
		return c, m
	}
	return m, c
}

// SelectedText returns the marked text.
func (s Marking) SelectedText() string {
	lo, hi := s.Range()
	return string([]rune(s.ComposingBuffer)[lo:hi])
}

// SelectedReadings returns the readings of the marked runes. The second
// result is false when a marked rune has no reading.
func (s Marking) SelectedReadings() ([]string, bool) {
	lo, hi := s.Range()
	out := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		if i >= len(s.Readings) || s.Readings[i] == "" {
			return nil, false
		}
		out = append(out, s.Readings[i])
	}
	return out, true
}

// Phrase is a (reading, value) pair written to the user phrase list.
type Phrase struct {
	Reading string
	Value   string
}

// UserPhrase returns the phrase a write request would store.
func (s Marking) UserPhrase() Phrase {
	readings, _ := s.SelectedReadings()
	return Phrase{
		Reading: strings.Join(readings, ReadingSeparator),
		Value:   s.SelectedText(),
	}
}

// ValidToWrite reports whether the marked range may be stored as a phrase.
// It is false for an empty range, for a range covering a rune without a
// reading, and for a range shorter than MinMarkLength or longer than
// MaxMarkLength.
func (s Marking) ValidToWrite() bool {
	lo, hi := s.Range()
	if hi-lo < MinMarkLength || hi-lo > MaxMarkLength {
		return false
	}
	_, ok := s.SelectedReadings()
	return ok
}

// Tooltip describes the marked range and whether it can be added.
func (s Marking) Tooltip() string {
	lo, hi := s.Range()
	if lo == hi {
		return ""
	}
	text := s.SelectedText()
	readings, ok := s.SelectedReadings()
	switch {
	case !ok:
		return fmt.Sprintf("%q selected. Only composed characters can be added.", text)
	case hi-lo < MinMarkLength:
		return fmt.Sprintf("%q selected. A phrase needs at least %d characters.", text, MinMarkLength)
	case hi-lo > MaxMarkLength:
		return fmt.Sprintf("%q selected. A phrase can have at most %d characters.", text, MaxMarkLength)
	default:
		return fmt.Sprintf("%q (%s) selected. Press Enter to add it to your phrases.",
			text, strings.Join(readings, ReadingSeparator))
	}
}

// Inputting returns the plain composition state for the same buffer and
// cursor, which is what cancelling the marking shows.
func (s Marking) Inputting() Inputting {
	return NewInputting(s.ComposingBuffer, s.Cursor(), "")
}
