package session

import "fmt"

// Effect is one instruction to the host produced by a transition. Effects
// are plain values; Controller executes them in order.
type Effect interface {
	fmt.Stringer
	effect()
}

// MarkText shows Text as marked text with the caret at Cursor.
type MarkText struct {
	Text   string
	Cursor int
}

// ClearMarkedText removes the marked text.
type ClearMarkedText struct{}

// CommitText inserts Text. Empty text is never committed.
type CommitText struct {
	Text string
}

// ShowCandidates opens the candidate window.
type ShowCandidates struct {
	Window Window
}

// HideCandidates closes the candidate window.
type HideCandidates struct{}

// ShowTooltip shows Text anchored at the marked text rune Anchor.
type ShowTooltip struct {
	Text   string
	Anchor int
}

// HideTooltip hides the tooltip.
type HideTooltip struct{}

// PlayErrorSignal alerts the user.
type PlayErrorSignal struct{}

// RequestAutocomplete asks for a suggestion for the text before the cursor.
type RequestAutocomplete struct{}

func (MarkText) effect()            {}
func (ClearMarkedText) effect()     {}
func (CommitText) effect()          {}
func (ShowCandidates) effect()      {}
func (HideCandidates) effect()      {}
func (ShowTooltip) effect()         {}
func (HideTooltip) effect()         {}
func (PlayErrorSignal) effect()     {}
func (RequestAutocomplete) effect() {}

func (e MarkText) String() string       { return fmt.Sprintf("mark(%q@%d)", e.Text, e.Cursor) }
func (ClearMarkedText) String() string  { return "clear-mark" }
func (e CommitText) String() string     { return fmt.Sprintf("commit(%q)", e.Text) }
func (e ShowCandidates) String() string { return fmt.Sprintf("show-candidates(%d)", len(e.Window.Candidates)) }
func (HideCandidates) String() string   { return "hide-candidates" }
func (e ShowTooltip) String() string    { return fmt.Sprintf("tooltip(%q@%d)", e.Text, e.Anchor) }
func (HideTooltip) String() string      { return "hide-tooltip" }
func (PlayErrorSignal) String() string  { return "error-signal" }
func (RequestAutocomplete) String() string {
	return "request-autocomplete"
}
