// Package dictionary looks up a selected phrase in online dictionaries and
// describes its characters.
package dictionary

import (
	"fmt"
	"net/url"
	"os/exec"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

// Service is one entry of the dictionary menu.
type Service interface {
	Name() string

	// LookUp looks up sel.SelectedPhrase. It returns a state to show when
	// the result is displayed by the input method itself, or nil when the
	// result was opened elsewhere.
	LookUp(sel state.SelectingDictionary) (state.State, error)
}

// Opener opens a URL outside the input method.
type Opener interface {
	Open(rawURL string) error
}

// Browser opens URLs with a desktop launcher.
type Browser struct {
	// Command defaults to xdg-open.
	Command string
}

// Open starts the launcher and does not wait for it.
func (b Browser) Open(rawURL string) error {
	name := b.Command
	if name == "" {
		name = "xdg-open"
	}
	cmd := exec.Command(name, rawURL)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("dictionary: open %s: %w", rawURL, err)
	}
	go cmd.Wait()
	return nil
}

// Web is a service that opens a search URL. Pattern holds one %s, replaced
// by the escaped phrase.
type Web struct {
	Title   string
	Pattern string
	// PathEscape escapes the phrase as a path segment instead of a query
	// value.
	PathEscape bool
	Opener     Opener
}

func (w Web) Name() string { return w.Title }

// URL returns the address phrase is looked up at.
func (w Web) URL(phrase string) string {
	escaped := url.QueryEscape(phrase)
	if w.PathEscape {
		escaped = url.PathEscape(phrase)
	}
	return fmt.Sprintf(w.Pattern, escaped)
}

func (w Web) LookUp(sel state.SelectingDictionary) (state.State, error) {
	return nil, w.Opener.Open(w.URL(sel.SelectedPhrase))
}

// CharacterInfo lists the encodings of the selected phrase.
type CharacterInfo struct{}

func (CharacterInfo) Name() string { return "Character Information" }

func (CharacterInfo) LookUp(sel state.SelectingDictionary) (state.State, error) {
	return state.ShowingCharInfo{Previous: sel, Entries: Describe(sel.SelectedPhrase)}, nil
}

// DefaultServices returns the built-in services, opening web results with
// opener.
func DefaultServices(opener Opener) []Service {
	return []Service{
		Web{Title: "MOE Revised Dictionary", Pattern: "https://dict.revised.moe.edu.tw/search.jsp?md=1&word=%s", Opener: opener},
		Web{Title: "Moedict", Pattern: "https://www.moedict.tw/%s", PathEscape: true, Opener: opener},
		Web{Title: "Google", Pattern: "https://www.google.com/search?q=%s", Opener: opener},
		Web{Title: "Wikipedia", Pattern: "https://zh.wikipedia.org/wiki/%s", PathEscape: true, Opener: opener},
		CharacterInfo{},
	}
}

// Services is the dictionary menu. It implements candidate.Dictionary.
type Services struct {
	services []Service
	log      *logging.Logger
}

// New returns a menu of services. A nil logger uses logging.Default().
func New(logger *logging.Logger, services ...Service) *Services {
	if logger == nil {
		logger = logging.Default()
	}
	return &Services{services: services, log: logger.WithComponent("dictionary")}
}

// Names returns the menu titles in order.
func (s *Services) Names() []string {
	names := make([]string, len(s.services))
	for i, svc := range s.services {
		names[i] = svc.Name()
	}
	return names
}

// LookUp runs the service at index. A result opened elsewhere reports
// handled; a failed lookup returns neither a state nor handled.
func (s *Services) LookUp(sel state.SelectingDictionary, index int) (state.State, bool) {
	if index < 0 || index >= len(s.services) {
		s.log.Warn("no dictionary service", "index", index)
		return nil, false
	}
	svc := s.services[index]
	next, err := svc.LookUp(sel)
	if err != nil {
		s.log.Warn("dictionary lookup failed", "service", svc.Name(), "error", err)
		return nil, false
	}
	if next != nil {
		return next, false
	}
	s.log.Debug("dictionary opened", "service", svc.Name())
	return nil, true
}
