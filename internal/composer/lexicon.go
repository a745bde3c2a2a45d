package composer

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/GoatWang/BopomofoLLM/internal/state"
)

//go:embed lexicon.txt
var defaultLexicon string

// MaxPhraseSyllables bounds the span the composer looks at when it builds
// candidates and merges syllables into phrases.
const MaxPhraseSyllables = 6

var ErrMalformedEntry = errors.New("malformed lexicon entry")

// Lexicon maps readings to values. Readings of multi-character phrases join
// their syllables with state.ReadingSeparator; a value always has one rune
// per syllable. A Lexicon is safe for concurrent use.
type Lexicon struct {
	mu sync.RWMutex
	// reading -> []string, in rank order
	byReading *treemap.Map
	// value -> reading, used for associated phrase lookups by prefix
	byValue *treemap.Map
}

// NewLexicon returns an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		byReading: treemap.NewWithStringComparator(),
		byValue:   treemap.NewWithStringComparator(),
	}
}

// DefaultLexicon returns the built-in lexicon.
func DefaultLexicon() *Lexicon {
	l, err := LoadLexicon(strings.NewReader(defaultLexicon))
	if err != nil {
		panic(fmt.Sprintf("composer: built-in lexicon: %v", err))
	}
	return l
}

// LoadLexicon reads "reading value" lines. Blank lines and lines starting
// with # are skipped.
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	l := NewLexicon()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrMalformedEntry, line)
		}
		if err := l.Add(fields[0], fields[1]); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return l, nil
}

// Add appends value to the candidates of reading. Adding an existing pair is
// a no-op.
func (l *Lexicon) Add(reading, value string) error {
	return l.add(reading, value, false)
}

// AddFirst ranks value first among the candidates of reading, moving it if
// it is already known.
func (l *Lexicon) AddFirst(reading, value string) error {
	return l.add(reading, value, true)
}

func (l *Lexicon) add(reading, value string, first bool) error {
	syllables := strings.Split(reading, state.ReadingSeparator)
	if reading == "" || value == "" || len(syllables) != len([]rune(value)) {
		return fmt.Errorf("%w: %q %q", ErrMalformedEntry, reading, value)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	values := l.values(reading)
	updated := make([]string, 0, len(values)+1)
	if first {
		updated = append(updated, value)
	}
	for _, v := range values {
		if v == value {
			if !first {
				return nil
			}
			continue
		}
		updated = append(updated, v)
	}
	if !first {
		updated = append(updated, value)
	}
	l.byReading.Put(reading, updated)
	if _, found := l.byValue.Get(value); !found {
		l.byValue.Put(value, reading)
	}
	return nil
}

// Has reports whether reading has any value.
func (l *Lexicon) Has(reading string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, found := l.byReading.Get(reading)
	return found
}

// Contains reports whether the exact pair is known.
func (l *Lexicon) Contains(reading, value string) bool {
	for _, v := range l.Values(reading) {
		if v == value {
			return true
		}
	}
	return false
}

// Values returns the values of reading in rank order.
func (l *Lexicon) Values(reading string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.values(reading)
}

func (l *Lexicon) values(reading string) []string {
	v, found := l.byReading.Get(reading)
	if !found {
		return nil
	}
	values := v.([]string)
	return values[:len(values):len(values)]
}

// Candidates returns the values of reading as candidates.
func (l *Lexicon) Candidates(reading string) []state.Candidate {
	values := l.Values(reading)
	out := make([]state.Candidate, 0, len(values))
	for _, v := range values {
		out = append(out, state.Candidate{Reading: reading, Value: v})
	}
	return out
}

// Associated returns the continuations of (reading, value): for every known
// phrase that starts with value, is longer, and is read starting with
// reading, the remaining reading and text. An empty reading matches any.
func (l *Lexicon) Associated(reading, value string) []state.Candidate {
	var out []state.Candidate
	if value == "" {
		return nil
	}
	prefixLen := len([]rune(value))
	l.mu.RLock()
	defer l.mu.RUnlock()
	key, full := l.byValue.Ceiling(value)
	for key != nil {
		phrase := key.(string)
		if !strings.HasPrefix(phrase, value) {
			break
		}
		fullReading := full.(string)
		if phrase != value && (reading == "" || strings.HasPrefix(fullReading, reading+state.ReadingSeparator)) {
			syllables := strings.Split(fullReading, state.ReadingSeparator)
			out = append(out, state.Candidate{
				Reading: strings.Join(syllables[prefixLen:], state.ReadingSeparator),
				Value:   string([]rune(phrase)[prefixLen:]),
			})
		}
		// The next key after phrase in string order.
		key, full = l.byValue.Ceiling(phrase + "\x00")
	}
	return out
}

// Size returns the number of distinct readings.
func (l *Lexicon) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byReading.Size()
}
