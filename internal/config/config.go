// Package config handles loading, validation and hot reloading of the input
// method preferences.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/session"
	"github.com/GoatWang/BopomofoLLM/internal/suggest"
)

// Version is the current configuration schema version.
const Version = 1

// Input modes.
const (
	ModeBopomofo = "bopomofo"
	ModePlain    = "plain"
)

// Config holds the complete preferences.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	Input        InputConfig        `toml:"input" json:"input" yaml:"input"`
	Candidates   CandidatesConfig   `toml:"candidates" json:"candidates" yaml:"candidates"`
	Autocomplete AutocompleteConfig `toml:"autocomplete" json:"autocomplete" yaml:"autocomplete"`
	Conversion   ConversionConfig   `toml:"conversion" json:"conversion" yaml:"conversion"`
	Phrases      PhrasesConfig      `toml:"phrases" json:"phrases" yaml:"phrases"`
	Logging      LoggingConfig      `toml:"logging" json:"logging" yaml:"logging"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// InputConfig holds composition preferences.
type InputConfig struct {
	// Mode is "bopomofo" (phrase composition) or "plain" (one character at
	// a time).
	Mode string `toml:"mode" json:"mode" yaml:"mode" jsonschema:"enum=bopomofo,enum=plain"`

	// AssociatedPhrases offers continuations after a character is chosen.
	AssociatedPhrases bool `toml:"associated_phrases" json:"associated_phrases" yaml:"associated_phrases"`

	// BeepOnError plays the error signal for rejected keys.
	BeepOnError bool `toml:"beep_on_error" json:"beep_on_error" yaml:"beep_on_error"`

	// BeepVolume is the error tone volume between 0 and 1.
	BeepVolume float64 `toml:"beep_volume" json:"beep_volume" yaml:"beep_volume" jsonschema:"minimum=0,maximum=1"`
}

// CandidatesConfig holds candidate window preferences.
type CandidatesConfig struct {
	// Keys label and select candidates, one key per candidate on a page.
	Keys string `toml:"keys" json:"keys" yaml:"keys" jsonschema:"minLength=4,maxLength=9"`

	// Horizontal lays candidates out in a row.
	Horizontal bool `toml:"horizontal" json:"horizontal" yaml:"horizontal"`
}

// AutocompleteConfig holds suggestion preferences.
type AutocompleteConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Provider is "ollama" or "anthropic".
	Provider string `toml:"provider" json:"provider" yaml:"provider" jsonschema:"enum=ollama,enum=anthropic"`

	// Model is the model name passed to the provider.
	Model string `toml:"model" json:"model" yaml:"model" jsonschema:"minLength=1"`

	// BaseURL is the Ollama API base URL.
	BaseURL string `toml:"base_url" json:"base_url" yaml:"base_url"`

	// APIKey is the Anthropic API key. Prefer BOPOMOFO_ANTHROPIC_API_KEY.
	APIKey string `toml:"api_key" json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// TimeoutSec bounds one request.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec" jsonschema:"minimum=1,maximum=30"`
}

// ConversionConfig holds the output filters applied to committed text.
type ConversionConfig struct {
	// Simplified converts committed text to simplified Chinese.
	Simplified bool `toml:"simplified" json:"simplified" yaml:"simplified"`

	// HalfWidthPunctuation commits ASCII punctuation.
	HalfWidthPunctuation bool `toml:"half_width_punctuation" json:"half_width_punctuation" yaml:"half_width_punctuation"`
}

// PhrasesConfig holds user phrase storage preferences.
type PhrasesConfig struct {
	// Path is the SQLite database of user phrases.
	Path string `toml:"path" json:"path" yaml:"path"`

	// AuditLog records every phrase added or removed. Empty disables it.
	AuditLog string `toml:"audit_log" json:"audit_log" yaml:"audit_log"`

	// HookEnabled runs HookPath after a phrase is added.
	HookEnabled bool `toml:"hook_enabled" json:"hook_enabled" yaml:"hook_enabled"`

	// HookPath is the script run with the new phrase as its argument.
	HookPath string `toml:"hook_path" json:"hook_path" yaml:"hook_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format" jsonschema:"enum=text,enum=json"`

	// Output is where logs go: "stdout", "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output" jsonschema:"enum=stdout,enum=stderr,enum=file,enum=both"`

	// FilePath is the log file path when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of rotated files.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress gzips rotated files.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns the default preferences.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Input: InputConfig{
			Mode:              ModeBopomofo,
			AssociatedPhrases: true,
			BeepOnError:       true,
			BeepVolume:        0.3,
		},
		Candidates: CandidatesConfig{
			Keys:       composer.DefaultCandidateKeys,
			Horizontal: false,
		},
		Autocomplete: AutocompleteConfig{
			Enabled:    false,
			Provider:   suggest.ProviderOllama,
			Model:      "qwen2.5:0.5b",
			BaseURL:    suggest.DefaultOllamaURL,
			TimeoutSec: int(suggest.DefaultTimeout / time.Second),
		},
		Phrases: PhrasesConfig{
			Path:     filepath.Join(DataDir(), "phrases.db"),
			AuditLog: logging.DefaultAuditLogPath(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   logging.DefaultLogPath(),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads configuration from path. A missing file yields the defaults.
// The format follows the file extension: .toml, .json, .yaml or .yml.
// Environment overrides are applied; the result is not validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Parse decodes data in the given format ("toml", "json" or "yaml") over the
// defaults. JSON and YAML documents are checked against Schema first.
func Parse(data []byte, format string) (*Config, error) {
	cfg := DefaultConfig()
	switch format {
	case "toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, &ValidationError{Field: undecoded[0].String(), Message: "unknown key"}
		}
	case "json":
		if err := ValidateDocument(data, format); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case "yaml":
		if err := ValidateDocument(data, format); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies BOPOMOFO_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("BOPOMOFO_MODE"); v != "" {
		c.Input.Mode = v
	}
	if v := os.Getenv("BOPOMOFO_CANDIDATE_KEYS"); v != "" {
		c.Candidates.Keys = v
	}
	if v, ok := envBool("BOPOMOFO_AUTOCOMPLETE"); ok {
		c.Autocomplete.Enabled = v
	}
	if v := os.Getenv("BOPOMOFO_PROVIDER"); v != "" {
		c.Autocomplete.Provider = v
	}
	if v := os.Getenv("BOPOMOFO_MODEL"); v != "" {
		c.Autocomplete.Model = v
	}
	if v := os.Getenv("BOPOMOFO_OLLAMA_URL"); v != "" {
		c.Autocomplete.BaseURL = v
	}
	if v := os.Getenv("BOPOMOFO_ANTHROPIC_API_KEY"); v != "" {
		c.Autocomplete.APIKey = v
	}
	if v, ok := envBool("BOPOMOFO_SIMPLIFIED"); ok {
		c.Conversion.Simplified = v
	}
	if v := os.Getenv("BOPOMOFO_PHRASES_PATH"); v != "" {
		c.Phrases.Path = v
	}
	if v := os.Getenv("BOPOMOFO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BOPOMOFO_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Version:      c.Version,
		Input:        c.Input,
		Candidates:   c.Candidates,
		Autocomplete: c.Autocomplete,
		Conversion:   c.Conversion,
		Phrases:      c.Phrases,
		Logging:      c.Logging,
	}
}

// Settings returns the session preferences the configuration describes.
func (c *Config) Settings() session.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()

	mode := composer.ModeBopomofo
	if c.Input.Mode == ModePlain {
		mode = composer.ModePlainBopomofo
	}
	return session.Settings{
		Mode:                        mode,
		CandidateKeys:               composer.CandidateKeys(c.Candidates.Keys),
		UseHorizontalCandidateList:  c.Candidates.Horizontal,
		AssociatedPhrasesEnabled:    c.Input.AssociatedPhrases,
		BeepUponInputError:          c.Input.BeepOnError,
		ChineseConversionEnabled:    c.Conversion.Simplified,
		HalfWidthPunctuationEnabled: c.Conversion.HalfWidthPunctuation,
		AutocompleteEnabled:         c.Autocomplete.Enabled,
		AddPhraseHookEnabled:        c.Phrases.HookEnabled,
		AddPhraseHookPath:           c.Phrases.HookPath,
	}
}

// SuggestConfig returns the suggestion provider configuration.
func (c *Config) SuggestConfig() suggest.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return suggest.Config{
		Provider: c.Autocomplete.Provider,
		Model:    c.Autocomplete.Model,
		BaseURL:  c.Autocomplete.BaseURL,
		APIKey:   c.Autocomplete.APIKey,
		Timeout:  time.Duration(c.Autocomplete.TimeoutSec) * time.Second,
	}
}

// LoggerConfig returns the logging configuration for component.
func (c *Config) LoggerConfig(component string) (*logging.Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	return &logging.Config{
		Level:      level,
		Format:     format,
		Output:     c.Logging.Output,
		FilePath:   c.Logging.FilePath,
		MaxSize:    int64(c.Logging.MaxSizeMB),
		MaxAge:     c.Logging.MaxAgeDays,
		MaxBackups: c.Logging.MaxBackups,
		Compress:   c.Logging.Compress,
		Component:  component,
	}, nil
}

// Save writes cfg to path in the format its extension names.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	clone := cfg.Clone()
	var buf bytes.Buffer
	switch formatOf(path) {
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(clone); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(clone); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		enc.Close()
	default:
		if err := toml.NewEncoder(&buf).Encode(clone); err != nil {
			return fmt.Errorf("encode TOML: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
