// Package candidate turns the selection of a candidate into the states that
// follow it.
package candidate

import (
	"errors"
	"fmt"
	"time"

	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

// Programming errors. Select panics with an error wrapping one of these.
var (
	ErrNoCandidates    = errors.New("candidate: state has no candidates")
	ErrIndexOutOfRange = errors.New("candidate: index out of range")
)

// Step is one thing the session does after a selection, in order.
type Step struct {
	// State is entered when non-nil.
	State state.State
	// Reselect highlights this candidate of the window State opened, when
	// greater than zero.
	Reselect int
	// Error signals an input error.
	Error bool
}

// Options are the preferences a selection depends on.
type Options struct {
	AssociatedPhrasesEnabled bool
	// Vertical is the host text orientation, used for associated phrases
	// opened after a selection.
	Vertical bool
}

// Dictionary looks up a phrase with one of the services of a
// SelectingDictionary state.
type Dictionary interface {
	// LookUp runs the service at index. It returns the state to show
	// instead, if the service has one, and whether the lookup completed so
	// the session should return to sel.Previous.
	LookUp(sel state.SelectingDictionary, index int) (next state.State, handled bool)
}

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// Notifier shows a transient message.
type Notifier interface {
	Notify(message string)
}

// Config holds the collaborators of a Coordinator.
type Config struct {
	Composer   composer.Composer
	Dictionary Dictionary
	Clipboard  Clipboard
	Notifier   Notifier
	Logger     *logging.Logger
	// Now returns the time date macros are evaluated at. Nil uses time.Now.
	Now func() time.Time
}

// Coordinator resolves candidate selections.
type Coordinator struct {
	composer   composer.Composer
	dictionary Dictionary
	clipboard  Clipboard
	notifier   Notifier
	log        *logging.Logger
	now        func() time.Time
}

// New creates a Coordinator.
func New(cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Coordinator{
		composer:   cfg.Composer,
		dictionary: cfg.Dictionary,
		clipboard:  cfg.Clipboard,
		notifier:   cfg.Notifier,
		log:        cfg.Logger.WithComponent("candidate"),
		now:        cfg.Now,
	}
}

// Select returns the steps following the selection of candidate index of s.
// It panics when s has no candidates or index is out of range: both mean
// the candidate window and the session disagree.
func (c *Coordinator) Select(s state.State, index int, opts Options) []Step {
	provider, ok := s.(state.CandidateProvider)
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrNoCandidates, state.Describe(s)))
	}
	if index < 0 || index >= provider.CandidateCount() {
		panic(fmt.Errorf("%w: %d of %d in %s", ErrIndexOutOfRange, index, provider.CandidateCount(), s.Kind()))
	}

	switch s := s.(type) {
	case state.ChoosingCandidate:
		return c.choosing(s, index, opts)
	case state.AssociatedPhrases:
		chosen := s.Candidates[index]
		c.composer.FixAssociatedPhraseWithPrefix(s.PrefixCursorIndex, s.PrefixReading, s.PrefixValue, chosen.Reading, chosen.Value)
		return inputting(c.composer.BuildInputtingState())
	case state.AssociatedPhrasesPlain:
		chosen := s.Candidates[index]
		return c.commitPlain(chosen.Value, chosen, s.UseVerticalMode, opts)
	case state.SelectingFeature:
		next, ok := s.NextState(index, c.now())
		if !ok {
			return nil
		}
		return []Step{{State: next}}
	case state.SelectingDateMacro:
		text := s.Candidates[index]
		if text == "" {
			return nil
		}
		return []Step{{State: state.Committing{PoppedText: text}}, {State: state.Empty{}}}
	case state.SelectingDictionary:
		return c.lookUp(s, index)
	case state.ShowingCharInfo:
		return c.copyCharInfo(s, index)
	}
	panic(fmt.Errorf("%w: %s", ErrNoCandidates, s.Kind()))
}

func (c *Coordinator) choosing(s state.ChoosingCandidate, index int, opts Options) []Step {
	chosen := s.Candidates[index]
	c.composer.FixNode(chosen.Reading, chosen.Value, s.OriginalCursorIndex, true)
	built := c.composer.BuildInputtingState()

	if c.composer.Mode() == composer.ModePlainBopomofo {
		buffer := ""
		if in, ok := built.(state.Inputting); ok {
			buffer = in.ComposingBuffer
		}
		c.composer.Clear()
		return c.commitPlain(buffer, chosen, s.UseVerticalMode, opts)
	}

	steps := inputting(built)
	if len(steps) == 0 || !opts.AssociatedPhrasesEnabled {
		return steps
	}
	if assoc, ok := c.composer.BuildAssociatedPhrases(c.composer.BuildInputtingState(), opts.Vertical, true); ok {
		return append(steps, Step{State: assoc})
	}
	return append(steps, Step{Error: true})
}

// commitPlain commits text and chains into the associated phrases of chosen
// when there are any.
func (c *Coordinator) commitPlain(text string, chosen state.Candidate, vertical bool, opts Options) []Step {
	steps := []Step{{State: state.Committing{PoppedText: text}}}
	if opts.AssociatedPhrasesEnabled {
		if next, ok := c.composer.BuildAssociatedPhraseState(chosen.Reading, chosen.Value, vertical); ok {
			return append(steps, Step{State: next})
		}
	}
	return append(steps, Step{State: state.Empty{}})
}

func (c *Coordinator) lookUp(s state.SelectingDictionary, index int) []Step {
	if c.dictionary == nil {
		return nil
	}
	next, handled := c.dictionary.LookUp(s, index)
	var steps []Step
	if next != nil {
		steps = append(steps, Step{State: next})
	}
	if handled {
		steps = append(steps, Step{State: s.Previous, Reselect: positive(s.SelectedIndex)})
	}
	return steps
}

func (c *Coordinator) copyCharInfo(s state.ShowingCharInfo, index int) []Step {
	text := s.Entries[index].Value
	if c.clipboard != nil {
		if err := c.clipboard.WriteAll(text); err != nil {
			c.log.Warn("copy to clipboard failed", "error", err)
		}
	}
	if c.notifier != nil {
		c.notifier.Notify(fmt.Sprintf("%s has been copied.", text))
	}
	return []Step{{State: s.Previous.Previous, Reselect: positive(s.Previous.SelectedIndex)}}
}

func inputting(s state.State) []Step {
	if _, ok := s.(state.Inputting); !ok {
		return nil
	}
	return []Step{{State: s}}
}

func positive(i int) int {
	if i > 0 {
		return i
	}
	return 0
}
