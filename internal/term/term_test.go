package term

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoatWang/BopomofoLLM/internal/autocomplete"
	"github.com/GoatWang/BopomofoLLM/internal/candidate"
	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/session"
)

type settingsFunc func() session.Settings

func (f settingsFunc) Settings() session.Settings { return f() }

func testSessions(h session.Host, w session.CandidateWindow, p autocomplete.Poster) *session.Controller {
	comp := composer.NewBasic(nil, composer.Options{})
	return session.New(session.Config{
		Composer: comp,
		Host:     h,
		Window:   w,
		Selector: candidate.New(candidate.Config{Composer: comp, Logger: logging.Discard()}),
		Settings: settingsFunc(func() session.Settings {
			s := session.DefaultSettings()
			s.AssociatedPhrasesEnabled = false
			return s
		}),
		Logger: logging.Discard(),
	})
}

type countingBeeper struct{ n atomic.Int32 }

func (b *countingBeeper) Play() { b.n.Add(1) }

func newTestUI(t *testing.T) (*UI, tcell.SimulationScreen, *countingBeeper) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(40, 12)
	t.Cleanup(screen.Fini)

	beeper := &countingBeeper{}
	u := New(Config{
		Screen:     screen,
		NewSession: testSessions,
		Beeper:     beeper,
		Logger:     logging.Discard(),
	})
	u.controller.Activate()
	return u, screen, beeper
}

func press(u *UI, keys string) {
	for _, r := range keys {
		u.handleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func pressKey(u *UI, k tcell.Key) {
	u.handleKey(tcell.NewEventKey(k, 0, tcell.ModNone))
}

// rowText returns the characters drawn on row y.
func rowText(s tcell.Screen, y int) string {
	width, _ := s.Size()
	var b strings.Builder
	for x := 0; x < width; {
		r, _, _, w := s.GetContent(x, y)
		b.WriteRune(r)
		x += max(w, 1)
	}
	return strings.TrimRight(b.String(), " ")
}

func screenText(s tcell.Screen) []string {
	_, height := s.Size()
	rows := make([]string, height)
	for y := range rows {
		rows[y] = rowText(s, y)
	}
	return rows
}

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want input.Event
		ok   bool
	}{
		{"letter", tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone), input.Event{Char: 's'}, true},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), input.Event{Code: input.KeySpace, Char: ' '}, true},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), input.Event{Code: input.KeyEnter}, true},
		{"backspace2", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), input.Event{Code: input.KeyBackspace}, true},
		{"shift left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift), input.Event{Code: input.KeyLeft, Modifiers: input.ModShift}, true},
		{"backtab", tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone), input.Event{Code: input.KeyTab, Modifiers: input.ModShift}, true},
		{"page down", tcell.NewEventKey(tcell.KeyPgDn, 0, tcell.ModNone), input.Event{Code: input.KeyPageDown}, true},
		{"ctrl-a", tcell.NewEventKey(tcell.KeyCtrlA, 0, tcell.ModCtrl), input.Event{Char: 'a', Modifiers: input.ModControl}, true},
		{"function key", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), input.Event{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translateKey(tt.ev)
			require.Equal(t, tt.ok, ok)
			got.Timestamp = time.Time{}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypingDrawsMarkedAndCommittedText(t *testing.T) {
	u, screen, _ := newTestUI(t)

	press(u, "su3")
	assert.Equal(t, "你", u.doc.Snapshot().Marked)
	u.draw()
	assert.Equal(t, "你", rowText(screen, textTop))
	_, _, style, _ := screen.GetContent(0, textTop)
	_, _, attrs := style.Decompose()
	assert.NotZero(t, attrs&tcell.AttrUnderline)

	pressKey(u, tcell.KeyEnter)
	snap := u.doc.Snapshot()
	assert.Equal(t, "你", snap.Committed)
	assert.Empty(t, snap.Marked)
	u.draw()
	_, _, style, _ = screen.GetContent(0, textTop)
	_, _, attrs = style.Decompose()
	assert.Zero(t, attrs&tcell.AttrUnderline)
	assert.Contains(t, rowText(screen, 0), "bopomofo")
}

func TestUnhandledKeysEditTheDocument(t *testing.T) {
	u, screen, beeper := newTestUI(t)

	pressKey(u, tcell.KeyBackspace2)
	assert.Equal(t, 1, u.doc.Snapshot().Beeps)
	assert.Equal(t, int32(1), beeper.n.Load())

	press(u, "su3")
	pressKey(u, tcell.KeyEnter)
	pressKey(u, tcell.KeyEnter)
	assert.Equal(t, "你\n", u.doc.Snapshot().Committed)

	pressKey(u, tcell.KeyBackspace2)
	assert.Equal(t, "你", u.doc.Snapshot().Committed)

	u.draw()
	assert.Equal(t, "你", rowText(screen, textTop))
}

func TestCandidateListIsDrawn(t *testing.T) {
	u, screen, _ := newTestUI(t)

	press(u, "su3")
	pressKey(u, tcell.KeyDown)
	require.True(t, u.window.visible)
	u.draw()

	rows := strings.Join(screenText(screen), "\n")
	assert.Contains(t, rows, "1.你")
	assert.Contains(t, rows, "妳")

	press(u, "2")
	assert.False(t, u.window.visible)
	assert.Equal(t, "妳", u.doc.Snapshot().Marked)
}

func TestCandidatePages(t *testing.T) {
	c := &candidateList{}
	start, end, page, pages := c.page()
	assert.Equal(t, [4]int{0, 0, 0, 0}, [4]int{start, end, page, pages})

	c.Show(session.Window{
		Candidates: []string{"a", "b", "c", "d", "e"},
		Labels:     []string{"1", "2"},
	})
	c.SetHighlighted(3)
	start, end, page, pages = c.page()
	assert.Equal(t, [4]int{2, 4, 2, 3}, [4]int{start, end, page, pages})

	c.SetHighlighted(4)
	start, end, page, pages = c.page()
	assert.Equal(t, [4]int{4, 5, 3, 3}, [4]int{start, end, page, pages})

	c.SetHighlighted(9)
	assert.Equal(t, 4, c.Highlighted())
	c.Hide()
	assert.Equal(t, -1, c.Highlighted())
}

func TestToggleMode(t *testing.T) {
	u, _, _ := newTestUI(t)
	require.Equal(t, composer.ModeBopomofo, u.controller.Settings().Mode)

	u.handleKey(tcell.NewEventKey(tcell.KeyCtrlT, 0, tcell.ModCtrl))
	assert.Equal(t, composer.ModePlainBopomofo, u.controller.Settings().Mode)
	u.handleKey(tcell.NewEventKey(tcell.KeyCtrlT, 0, tcell.ModCtrl))
	assert.Equal(t, composer.ModeBopomofo, u.controller.Settings().Mode)
}

func TestRunCommitsOnQuit(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(40, 12)
	defer screen.Fini()

	u := New(Config{Screen: screen, NewSession: testSessions, Logger: logging.Discard()})
	done := make(chan error, 1)
	go func() { done <- u.Run(context.Background()) }()

	for _, r := range "su3" {
		screen.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	screen.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, "你", u.Document().Snapshot().Committed)
}
