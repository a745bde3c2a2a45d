// Package store provides SQLite-based storage of user phrases.
package store

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GoatWang/BopomofoLLM/internal/state"
)

// ErrInvalidPhrase is returned for a phrase whose reading does not have one
// syllable per character.
var ErrInvalidPhrase = errors.New("store: invalid phrase")

// Phrase is a phrase the user added.
type Phrase struct {
	ID        int64
	Reading   string
	Value     string
	CreatedAt time.Time
}

// Syllables returns the readings of the phrase's characters.
func (p Phrase) Syllables() []string {
	return strings.Split(p.Reading, state.ReadingSeparator)
}

// Validate checks that p has a non-empty value and one non-empty syllable
// per character.
func (p Phrase) Validate() error {
	if p.Reading == "" || p.Value == "" {
		return ErrInvalidPhrase
	}
	syllables := p.Syllables()
	if len(syllables) != utf8.RuneCountInString(p.Value) {
		return ErrInvalidPhrase
	}
	for _, s := range syllables {
		if s == "" || strings.ContainsAny(s, " \t\n") {
			return ErrInvalidPhrase
		}
	}
	return nil
}
