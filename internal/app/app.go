// Package app assembles the components shared by every frontend: the
// lexicon with the user's phrases, the phrase store, the commit filters, the
// dictionary menu, the phrase hook and the suggestion provider.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GoatWang/BopomofoLLM/internal/autocomplete"
	"github.com/GoatWang/BopomofoLLM/internal/candidate"
	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/config"
	"github.com/GoatWang/BopomofoLLM/internal/convert"
	"github.com/GoatWang/BopomofoLLM/internal/dictionary"
	"github.com/GoatWang/BopomofoLLM/internal/hook"
	"github.com/GoatWang/BopomofoLLM/internal/host"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/session"
	"github.com/GoatWang/BopomofoLLM/internal/store"
	"github.com/GoatWang/BopomofoLLM/internal/suggest"
	"github.com/GoatWang/BopomofoLLM/internal/watcher"
)

// phraseQuiet is how long the phrase store must be unchanged before another
// process's writes are loaded.
const phraseQuiet = 500 * time.Millisecond

// Options configures New.
type Options struct {
	// Config is required.
	Config *config.Config
	// Settings supplies session preferences, usually a *config.Loader so
	// that sessions see reloads. Nil uses Config.
	Settings session.SettingsProvider

	Logger *logging.Logger
	Crash  *logging.CrashHandler

	// Clipboard defaults to the system clipboard.
	Clipboard candidate.Clipboard
	// Notifier defaults to logging the message.
	Notifier candidate.Notifier
	// Opener defaults to the desktop browser.
	Opener dictionary.Opener
	// Provider replaces the suggestion provider Config names.
	Provider suggest.Provider
}

// App holds the components sessions share. Sessions are created with
// NewSession.
type App struct {
	settings session.SettingsProvider
	log      *logging.Logger
	crash    *logging.CrashHandler

	lexicon   *composer.Lexicon
	store     *store.Store
	audit     *logging.AuditLogger
	services  *dictionary.Services
	converter *convert.Converter
	hook      *hook.Runner
	clipboard candidate.Clipboard
	notifier  candidate.Notifier

	mu       sync.RWMutex
	provider suggest.Provider

	watcher     *watcher.Watcher
	watcherDone chan struct{}
}

// New assembles an App from opts. A phrase store or audit log that cannot be
// opened is logged and left out: phrases the user adds then last only for
// the life of the process.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("app: no configuration")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	crash := opts.Crash
	if crash == nil {
		crash = logging.NewCrashHandler(logging.CrashHandlerConfig{Component: "app", Logger: logger})
	}

	a := &App{
		settings:  opts.Settings,
		log:       logger.WithComponent("app"),
		crash:     crash,
		lexicon:   composer.DefaultLexicon(),
		converter: convert.New(logger),
		hook:      hook.New(logger, hook.WithCrashHandler(crash)),
		clipboard: opts.Clipboard,
		notifier:  opts.Notifier,
	}
	if a.settings == nil {
		a.settings = cfg
	}
	if a.clipboard == nil {
		a.clipboard = host.Clipboard{}
	}
	if a.notifier == nil {
		notes := logger.WithComponent("notifier")
		a.notifier = host.NotifierFunc(func(message string) {
			notes.Info(message)
		})
	}
	opener := opts.Opener
	if opener == nil {
		opener = dictionary.Browser{}
	}
	a.services = dictionary.New(logger, dictionary.DefaultServices(opener)...)

	a.openStore(cfg)

	if opts.Provider != nil {
		a.provider = opts.Provider
	} else if err := a.Reconfigure(cfg); err != nil {
		a.log.Warn("autocomplete unavailable", "error", err)
	}
	return a, nil
}

func (a *App) openStore(cfg *config.Config) {
	path := cfg.Phrases.Path
	if path == "" {
		path = store.DefaultPath()
	}
	st, err := store.Open(path)
	if err != nil {
		a.log.Error("phrase store unavailable", "path", path, "error", err)
		return
	}
	a.store = st

	if cfg.Phrases.AuditLog != "" {
		audit, err := logging.NewAuditLogger(cfg.Phrases.AuditLog, "store")
		if err != nil {
			a.log.Warn("phrase audit log unavailable", "path", cfg.Phrases.AuditLog, "error", err)
		} else {
			a.audit = audit
			st.SetAudit(audit)
		}
	}

	n, err := st.LoadInto(a.lexicon)
	if err != nil {
		a.log.Error("load user phrases", "error", err)
		return
	}
	a.log.Info("user phrases loaded", "path", path, "count", n)
}

// Reconfigure replaces the suggestion provider with the one cfg names.
// Running sessions use the new provider from their next request.
func (a *App) Reconfigure(cfg *config.Config) error {
	provider, err := suggest.New(cfg.SuggestConfig())
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.provider = provider
	a.mu.Unlock()
	return nil
}

// complete forwards to the current provider.
func (a *App) complete(ctx context.Context, text string) (string, error) {
	a.mu.RLock()
	provider := a.provider
	a.mu.RUnlock()
	if provider == nil {
		return "", nil
	}
	return provider.Complete(ctx, text)
}

// Lexicon returns the lexicon sessions compose with.
func (a *App) Lexicon() *composer.Lexicon { return a.lexicon }

// Store returns the phrase store, or nil when it could not be opened.
func (a *App) Store() *store.Store { return a.store }

// Audit returns the audit log, or nil when none is configured. A nil
// AuditLogger records nothing.
func (a *App) Audit() *logging.AuditLogger { return a.audit }

// Settings returns the current session preferences.
func (a *App) Settings() session.Settings { return a.settings.Settings() }

// phrases returns the store as a PhraseWriter, or nil without one.
func (a *App) phrases() session.PhraseWriter {
	if a.store == nil {
		return nil
	}
	return a.store
}

// NewSession returns a controller for one client. The controller and the
// coordinators it owns must only be used from the goroutine poster runs
// work on.
func (a *App) NewSession(h session.Host, window session.CandidateWindow, poster autocomplete.Poster) *session.Controller {
	settings := a.settings.Settings()
	comp := composer.NewBasic(a.lexicon, composer.Options{
		CandidateKeys: settings.CandidateKeys,
		Services:      a.services.Names(),
	})
	selector := candidate.New(candidate.Config{
		Composer:   comp,
		Dictionary: a.services,
		Clipboard:  a.clipboard,
		Notifier:   a.notifier,
		Logger:     a.log,
	})

	var completer *autocomplete.Coordinator
	if poster != nil {
		completer = autocomplete.New(autocomplete.Config{
			Provider: suggest.ProviderFunc(a.complete),
			Poster:   poster,
			Logger:   a.log,
			Crash:    a.crash,
		})
	}

	return session.New(session.Config{
		Composer:     comp,
		Host:         h,
		Window:       window,
		Selector:     selector,
		Settings:     a.settings,
		Autocomplete: completer,
		Phrases:      a.phrases(),
		Hook:         a.hook,
		Converter:    a.converter,
		Logger:       a.log,
	})
}

// WatchPhrases reloads the user phrases whenever another process, such as
// bopomofoctl or a second frontend, changes the phrase store. It does
// nothing without a store.
func (a *App) WatchPhrases() error {
	if a.store == nil || a.watcher != nil {
		return nil
	}
	path := a.store.Path()
	w, err := watcher.New([]string{path, path + "-wal"}, phraseQuiet)
	if err != nil {
		return fmt.Errorf("watch phrase store: %w", err)
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return fmt.Errorf("watch phrase store: %w", err)
	}
	a.watcher = w
	a.watcherDone = make(chan struct{})

	go func() {
		defer close(a.watcherDone)
		for {
			select {
			case event, ok := <-w.Events():
				if !ok {
					return
				}
				n, err := a.store.LoadInto(a.lexicon)
				if err != nil {
					a.log.Error("reload user phrases", "path", event.Path, "error", err)
					continue
				}
				a.log.Debug("user phrases reloaded", "path", event.Path, "count", n)
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				a.log.Warn("phrase store watcher", "error", err)
			}
		}
	}()
	return nil
}

// Close stops watching the phrase store and closes it and the audit log.
func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
		<-a.watcherDone
		a.watcher = nil
	}
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if cerr := a.audit.Close(); err == nil {
		err = cerr
	}
	return err
}
