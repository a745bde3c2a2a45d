package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/GoatWang/BopomofoLLM/internal/suggest"
)

// Candidate key count limits.
const (
	MinCandidateKeys = 4
	MaxCandidateKeys = 9
)

// Autocomplete timeout limits, in seconds.
const (
	MinTimeoutSec = 1
	MaxTimeoutSec = 30
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrInvalidConfig) hold for any non-empty set of
// errors.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig && e.HasErrors()
}

// ValidateConfig checks every section of c. Warnings are included in the
// returned ValidationErrors but do not make HasErrors true.
func ValidateConfig(c *Config) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateInput(&c.Input)...)
	errs = append(errs, validateCandidates(&c.Candidates)...)
	errs = append(errs, validateAutocomplete(&c.Autocomplete)...)
	errs = append(errs, validatePhrases(&c.Phrases)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateInput(in *InputConfig) ValidationErrors {
	var errs ValidationErrors

	switch in.Mode {
	case ModeBopomofo, ModePlain:
	default:
		errs = append(errs, ValidationError{
			Field:   "input.mode",
			Message: fmt.Sprintf("invalid mode: %s (valid: bopomofo, plain)", in.Mode),
		})
	}

	if in.BeepVolume < 0 || in.BeepVolume > 1 {
		errs = append(errs, *RangeError("input.beep_volume", 0, 1))
	}

	return errs
}

// ValidateCandidateKeys checks a candidate key string: 4 to 9 distinct
// printable ASCII characters, none of them a space.
func ValidateCandidateKeys(keys string) error {
	if keys == "" {
		return errors.New("candidate keys cannot be empty")
	}
	seen := make(map[rune]bool)
	for _, r := range keys {
		if r == ' ' {
			return errors.New("candidate keys cannot contain spaces")
		}
		if r < 0x21 || r > 0x7e {
			return fmt.Errorf("candidate key %q is not printable ASCII", r)
		}
		if seen[r] {
			return fmt.Errorf("duplicate candidate key %q", r)
		}
		seen[r] = true
	}
	if n := utf8.RuneCountInString(keys); n < MinCandidateKeys || n > MaxCandidateKeys {
		return fmt.Errorf("need %d to %d candidate keys, got %d", MinCandidateKeys, MaxCandidateKeys, n)
	}
	return nil
}

func validateCandidates(c *CandidatesConfig) ValidationErrors {
	if err := ValidateCandidateKeys(c.Keys); err != nil {
		return ValidationErrors{{Field: "candidates.keys", Message: err.Error()}}
	}
	return nil
}

func validateAutocomplete(a *AutocompleteConfig) ValidationErrors {
	var errs ValidationErrors

	switch a.Provider {
	case suggest.ProviderOllama, suggest.ProviderAnthropic:
	default:
		errs = append(errs, ValidationError{
			Field:   "autocomplete.provider",
			Message: fmt.Sprintf("invalid provider: %s (valid: ollama, anthropic)", a.Provider),
		})
	}

	if strings.TrimSpace(a.Model) == "" {
		errs = append(errs, *RequiredFieldError("autocomplete.model"))
	}

	if a.TimeoutSec < MinTimeoutSec || a.TimeoutSec > MaxTimeoutSec {
		errs = append(errs, *RangeError("autocomplete.timeout_sec", MinTimeoutSec, MaxTimeoutSec))
	}

	if a.Provider == suggest.ProviderOllama && a.BaseURL != "" && !isValidURL(a.BaseURL) {
		errs = append(errs, ValidationError{
			Field:   "autocomplete.base_url",
			Message: fmt.Sprintf("invalid URL: %s", a.BaseURL),
		})
	}

	return errs
}

func validatePhrases(p *PhrasesConfig) ValidationErrors {
	var errs ValidationErrors

	if p.Path == "" {
		errs = append(errs, *RequiredFieldError("phrases.path"))
	}

	if p.HookEnabled {
		if p.HookPath == "" {
			errs = append(errs, ValidationError{
				Field:   "phrases.hook_path",
				Message: "hook path is required when the hook is enabled",
			})
		} else if _, err := os.Stat(expandPath(p.HookPath)); err != nil {
			errs = append(errs, ValidationError{
				Field:   "phrases.hook_path",
				Message: fmt.Sprintf("hook script not found: %s", p.HookPath),
			})
		}
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: fmt.Sprintf("file path is required when output is '%s'", l.Output),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func isValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsWarning returns true if this is a non-fatal validation issue.
func (e *ValidationError) IsWarning() bool {
	// The hook script may be installed after the preferences are written.
	return e.Field == "phrases.hook_path" && strings.HasPrefix(e.Message, "hook script not found")
}

// Warnings returns only warning-level validation errors.
func (e ValidationErrors) Warnings() ValidationErrors {
	var warnings ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Errors returns only error-level validation errors.
func (e ValidationErrors) Errors() ValidationErrors {
	var errs ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			errs = append(errs, err)
		}
	}
	return errs
}

// HasErrors returns true if there are any non-warning errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Errors()) > 0
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}

// Check validates c and returns an error only for error-level issues.
func Check(c *Config) (warnings ValidationErrors, err error) {
	verr := ValidateConfig(c)
	if verr == nil {
		return nil, nil
	}
	errs := verr.(ValidationErrors)
	if errs.HasErrors() {
		return errs.Warnings(), errs.Errors()
	}
	return errs.Warnings(), nil
}
