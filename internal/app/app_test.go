package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoatWang/BopomofoLLM/internal/config"
	"github.com/GoatWang/BopomofoLLM/internal/host"
	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/session"
	"github.com/GoatWang/BopomofoLLM/internal/state"
	"github.com/GoatWang/BopomofoLLM/internal/store"
	"github.com/GoatWang/BopomofoLLM/internal/suggest"
)

type window struct{ shown []string }

func (w *window) Show(win session.Window) { w.shown = win.Candidates }
func (w *window) Hide()                   { w.shown = nil }
func (w *window) Highlighted() int {
	if w.shown == nil {
		return -1
	}
	return 0
}
func (w *window) SetHighlighted(int) {}

// chanPoster hands posted work to the test goroutine.
type chanPoster chan func()

func (p chanPoster) Post(fn func()) { p <- fn }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Input.AssociatedPhrases = false
	cfg.Phrases.Path = filepath.Join(dir, "phrases.db")
	cfg.Phrases.AuditLog = filepath.Join(dir, "audit.log")
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, provider suggest.Provider) *App {
	t.Helper()
	a, err := New(Options{
		Config:    cfg,
		Logger:    logging.Discard(),
		Clipboard: &host.MemoryClipboard{},
		Notifier:  host.NotifierFunc(func(string) {}),
		Provider:  provider,
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func typeKeys(c *session.Controller, keys string) {
	for _, r := range keys {
		c.HandleEvent(input.NewKey(r))
	}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(Options{Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestSessionCommitsAndSuggests(t *testing.T) {
	cfg := testConfig(t)
	cfg.Autocomplete.Enabled = true
	var asked string
	a := newTestApp(t, cfg, suggest.ProviderFunc(func(_ context.Context, text string) (string, error) {
		asked = text
		return "好嗎", nil
	}))

	doc := &host.Document{}
	posted := make(chanPoster, 1)
	c := a.NewSession(doc, &window{}, posted)
	defer c.Close()
	c.Activate()

	typeKeys(c, "su3")
	assert.Equal(t, "你", doc.Snapshot().Marked)
	require.True(t, c.HandleEvent(input.NewKeyWithCode(input.KeyEnter)))
	assert.Equal(t, "你", doc.Snapshot().Committed)

	select {
	case fn := <-posted:
		fn()
	case <-time.After(5 * time.Second):
		t.Fatal("no suggestion delivered")
	}
	assert.Equal(t, "你", asked)
	assert.Equal(t, state.Autocomplete{Suggestion: "好嗎", PreviousText: "你"}, c.State())
	assert.Equal(t, "好嗎", doc.Snapshot().Marked)
}

func TestUserPhrasePersists(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg, nil)

	c := a.NewSession(&host.Document{}, &window{}, nil)
	c.Activate()
	ok := c.WriteUserPhrase(state.NewMarking("妳好", 0, 2, []string{"ㄋㄧˇ", "ㄏㄠˇ"}))
	require.True(t, ok)
	assert.Equal(t, "妳好", a.Lexicon().Values("ㄋㄧˇ-ㄏㄠˇ")[0])

	n, err := a.Store().Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, a.Close())

	reopened := newTestApp(t, cfg, nil)
	assert.Equal(t, "妳好", reopened.Lexicon().Values("ㄋㄧˇ-ㄏㄠˇ")[0])

	audit, err := os.ReadFile(cfg.Phrases.AuditLog)
	require.NoError(t, err)
	assert.Contains(t, string(audit), string(logging.AuditPhraseAdded))
}

func TestWatchPhrasesLoadsOtherWriters(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg, nil)
	require.NoError(t, a.WatchPhrases())

	other, err := store.Open(cfg.Phrases.Path)
	require.NoError(t, err)
	defer other.Close()
	added, err := other.AddPhrase("ㄋㄧˇ-ㄇㄣ˙", "妳們")
	require.NoError(t, err)
	require.True(t, added)

	require.Eventually(t, func() bool {
		values := a.Lexicon().Values("ㄋㄧˇ-ㄇㄣ˙")
		return len(values) > 0 && values[0] == "妳們"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSessionWithoutStore(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	cfg.Phrases.Path = filepath.Join(blocker, "phrases.db")

	a := newTestApp(t, cfg, nil)
	assert.Nil(t, a.Store())
	assert.NoError(t, a.WatchPhrases())

	c := a.NewSession(&host.Document{}, &window{}, nil)
	c.Activate()
	assert.True(t, c.WriteUserPhrase(state.NewMarking("妳好", 0, 2, []string{"ㄋㄧˇ", "ㄏㄠˇ"})))
	assert.Equal(t, "妳好", a.Lexicon().Values("ㄋㄧˇ-ㄏㄠˇ")[0])
}

func TestReconfigure(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg, nil)

	bad := cfg.Clone()
	bad.Autocomplete.Provider = "carrier-pigeon"
	assert.ErrorIs(t, a.Reconfigure(bad), suggest.ErrUnknownProvider)

	good := cfg.Clone()
	good.Autocomplete.Provider = suggest.ProviderAnthropic
	good.Autocomplete.APIKey = "test-key"
	assert.NoError(t, a.Reconfigure(good))
}

func TestSettingsFollowProvider(t *testing.T) {
	cfg := testConfig(t)
	loader := config.NewLoader(filepath.Join(t.TempDir(), "config.toml"), logging.Discard())
	a, err := New(Options{Config: cfg, Settings: loader, Logger: logging.Discard()})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, loader.Settings(), a.Settings())
}
