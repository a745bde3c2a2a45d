package session

import "github.com/GoatWang/BopomofoLLM/internal/composer"

// Host is the text client a session draws into.
type Host interface {
	// MarkText shows text as the composing (marked) text with the caret at
	// cursor, counted in runes. An empty text clears it.
	MarkText(text string, cursor int)

	// CommitText inserts text at the insertion point and clears the marked
	// text.
	CommitText(text string)

	// ShowTooltip shows text next to the marked text rune at anchor.
	ShowTooltip(text string, anchor int)
	HideTooltip()

	// PlayErrorSignal alerts the user that a key was not accepted.
	PlayErrorSignal()

	// TextBeforeCursor returns up to limit runes of committed text
	// immediately before the insertion point.
	TextBeforeCursor(limit int) string
}

// Window is the content of a candidate window.
type Window struct {
	Candidates []string
	// Labels are the key labels of one page, in order.
	Labels   []string
	Vertical bool
	// Tooltip is shown in the window's title area; may be empty.
	Tooltip string
	// Anchor is the marked text rune the window is placed against.
	Anchor int
}

// PageSize is the number of candidates shown per page.
func (w Window) PageSize() int { return len(w.Labels) }

// CandidateWindow is the candidate window owned by the host adapter. A
// session holds exactly one.
type CandidateWindow interface {
	Show(w Window)
	Hide()

	// Highlighted returns the highlighted candidate, or -1 when the window is
	// hidden.
	Highlighted() int
	SetHighlighted(index int)
}

// Settings is the snapshot of preferences a session works with.
type Settings struct {
	Mode                        composer.Mode
	CandidateKeys               string
	UseHorizontalCandidateList  bool
	AssociatedPhrasesEnabled    bool
	BeepUponInputError          bool
	ChineseConversionEnabled    bool
	HalfWidthPunctuationEnabled bool
	AutocompleteEnabled         bool
	AddPhraseHookEnabled        bool
	AddPhraseHookPath           string
}

// DefaultSettings are used when no SettingsProvider is configured.
func DefaultSettings() Settings {
	return Settings{
		Mode:                     composer.ModeBopomofo,
		CandidateKeys:            composer.DefaultCandidateKeys,
		AssociatedPhrasesEnabled: true,
		BeepUponInputError:       true,
	}
}

// SettingsProvider supplies the current preferences. It is read on
// Activate and SyncSettings.
type SettingsProvider interface {
	Settings() Settings
}

// PhraseWriter persists phrases the user adds from a marking.
type PhraseWriter interface {
	WritePhrase(reading, value string) error
}

// Hook runs the add-phrase script for newly written text. Start must not
// block.
type Hook interface {
	Start(script, text string)
}

// Converter rewrites text before it is committed.
type Converter interface {
	Convert(text string, halfWidthPunctuation, simplified bool) string
}
