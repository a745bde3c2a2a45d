// Package suggest fetches short text continuations from a language model.
//
// Providers are best effort: callers treat every error as "no suggestion".
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rivo/uniseg"
)

// MaxSuggestionLength is the longest suggestion returned, in user-perceived
// characters.
const MaxSuggestionLength = 30

// Errors returned by providers.
var (
	ErrEmptyContext      = errors.New("suggest: empty context")
	ErrBadStatus         = errors.New("suggest: unexpected status")
	ErrMalformedResponse = errors.New("suggest: malformed response")
)

// Provider completes the text before the cursor.
type Provider interface {
	// Complete returns a suggestion continuing text. The
	// suggestion has already been through Extract and may be empty.
	Complete(ctx context.Context, text string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, text string) (string, error)

// Complete calls f.
func (f ProviderFunc) Complete(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Extract reduces raw model output to a suggestion: surrounding whitespace
// is trimmed, then only the first line is kept, then only the text before
// the first ".", and finally at most MaxSuggestionLength characters.
func Extract(raw string) string {
	text := strings.TrimSpace(raw)
	if i := strings.IndexFunc(text, isNewline); i >= 0 {
		text = text[:i]
	}
	text, _, _ = strings.Cut(text, ".")
	return truncate(text, MaxSuggestionLength)
}

// truncate keeps the first n grapheme clusters of s.
func truncate(s string, n int) string {
	rest, state := s, -1
	for i := 0; i < n && rest != ""; i++ {
		_, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
	}
	return s[:len(s)-len(rest)]
}

func isNewline(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// Provider names accepted by New.
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("suggest: unknown provider")

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	// BaseURL overrides the Ollama API base URL.
	BaseURL string
	// APIKey is the Anthropic API key; empty reads the environment.
	APIKey  string
	Timeout time.Duration
}

// New returns the provider named by cfg.Provider. An empty name selects
// Ollama.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", ProviderOllama:
		return NewOllama(cfg.Model, WithBaseURL(cfg.BaseURL), WithTimeout(cfg.Timeout)), nil
	case ProviderAnthropic:
		var opts []option.RequestOption
		if cfg.Timeout > 0 {
			opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
		}
		return NewAnthropic(cfg.Model, cfg.APIKey, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
