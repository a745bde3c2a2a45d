package logging

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType names a change to user data.
type AuditEventType string

// Audit event types.
const (
	AuditPhraseAdded   AuditEventType = "phrase_added"
	AuditPhraseRemoved AuditEventType = "phrase_removed"
	AuditConfigChange  AuditEventType = "config_change"
	AuditStartup       AuditEventType = "startup"
	AuditShutdown      AuditEventType = "shutdown"
)

// AuditEvent is one line of the audit log.
type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	EventType AuditEventType `json:"event_type"`
	Component string         `json:"component"`
	Resource  string         `json:"resource,omitempty"`
	Result    string         `json:"result"`
	Details   map[string]any `json:"details,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// AuditLogger appends JSON lines describing changes to the user's phrases
// and preferences, so that a user can tell when and from where an entry
// entered their dictionary.
type AuditLogger struct {
	mu        sync.Mutex
	rotator   *FileRotator
	component string
	now       func() time.Time
}

// DefaultAuditLogPath returns $XDG_STATE_HOME/bopomofo/audit.log.
func DefaultAuditLogPath() string {
	return filepath.Join(stateDir(), "audit.log")
}

// NewAuditLogger opens the audit log at path.
func NewAuditLogger(path, component string) (*AuditLogger, error) {
	if path == "" {
		path = DefaultAuditLogPath()
	}
	rotator, err := NewFileRotator(&Config{
		FilePath:   path,
		MaxSize:    5,
		MaxAge:     365,
		MaxBackups: 5,
		Compress:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("create audit rotator: %w", err)
	}
	return &AuditLogger{rotator: rotator, component: component, now: time.Now}, nil
}

// Log writes event.
func (a *AuditLogger) Log(event AuditEvent) error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = a.now().UTC()
	}
	if event.Component == "" {
		event.Component = a.component
	}
	if event.Result == "" {
		event.Result = "success"
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if _, err := a.rotator.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogPhrase records a phrase added to or removed from the user dictionary.
func (a *AuditLogger) LogPhrase(added bool, reading, value string, err error) error {
	event := AuditEvent{
		EventType: AuditPhraseRemoved,
		Resource:  value,
		Details:   map[string]any{"reading": reading},
	}
	if added {
		event.EventType = AuditPhraseAdded
	}
	if err != nil {
		event.Result = "failure"
		event.Error = err.Error()
	}
	return a.Log(event)
}

// LogConfigChange records a reloaded configuration file.
func (a *AuditLogger) LogConfigChange(path string, err error) error {
	event := AuditEvent{EventType: AuditConfigChange, Resource: path}
	if err != nil {
		event.Result = "failure"
		event.Error = err.Error()
	}
	return a.Log(event)
}

// LogStartup records an engine start.
func (a *AuditLogger) LogStartup(version string) error {
	return a.Log(AuditEvent{EventType: AuditStartup, Details: map[string]any{"version": version}})
}

// LogShutdown records an engine stop.
func (a *AuditLogger) LogShutdown(reason string) error {
	return a.Log(AuditEvent{EventType: AuditShutdown, Details: map[string]any{"reason": reason}})
}

// Close closes the audit log.
func (a *AuditLogger) Close() error {
	if a == nil || a.rotator == nil {
		return nil
	}
	return a.rotator.Close()
}
