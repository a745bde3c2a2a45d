package host

import (
	"sync"
	"unicode/utf8"
)

// Snapshot is the visible content of a Document.
type Snapshot struct {
	Committed string
	Marked    string
	// Cursor is the caret within Marked, in runes.
	Cursor  int
	Tooltip string
	// TooltipAnchor is the Marked rune the tooltip is placed against.
	TooltipAnchor int
	Beeps         int
}

// Document is an in-memory text client. It implements session.Host for
// frontends that draw the text themselves. It is safe for concurrent use.
type Document struct {
	mu   sync.Mutex
	snap Snapshot

	// Signal is called for each error signal; may be nil.
	Signal func()
	// OnChange is called after every change, without the lock held; may be
	// nil.
	OnChange func()
}

func (d *Document) update(fn func(s *Snapshot)) {
	d.mu.Lock()
	fn(&d.snap)
	d.mu.Unlock()
	if d.OnChange != nil {
		d.OnChange()
	}
}

// MarkText replaces the marked text.
func (d *Document) MarkText(text string, cursor int) {
	d.update(func(s *Snapshot) {
		s.Marked = text
		s.Cursor = min(max(cursor, 0), utf8.RuneCountInString(text))
	})
}

// CommitText appends text to the document and clears the marked text.
func (d *Document) CommitText(text string) {
	d.update(func(s *Snapshot) {
		s.Committed += text
		s.Marked = ""
		s.Cursor = 0
	})
}

func (d *Document) ShowTooltip(text string, anchor int) {
	d.update(func(s *Snapshot) {
		s.Tooltip = text
		s.TooltipAnchor = anchor
	})
}

func (d *Document) HideTooltip() {
	d.update(func(s *Snapshot) {
		s.Tooltip = ""
		s.TooltipAnchor = 0
	})
}

func (d *Document) PlayErrorSignal() {
	d.update(func(s *Snapshot) { s.Beeps++ })
	if d.Signal != nil {
		d.Signal()
	}
}

// TextBeforeCursor returns the last limit runes of the committed text.
func (d *Document) TextBeforeCursor(limit int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lastRunes(d.snap.Committed, limit)
}

// DeleteBackward removes the last committed rune. It reports whether there
// was one.
func (d *Document) DeleteBackward() bool {
	deleted := false
	d.update(func(s *Snapshot) {
		if s.Committed == "" {
			return
		}
		_, size := utf8.DecodeLastRuneInString(s.Committed)
		s.Committed = s.Committed[:len(s.Committed)-size]
		deleted = true
	})
	return deleted
}

// Snapshot returns the current content.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

func lastRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	i := len(s)
	for n := 0; n < limit && i > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}
