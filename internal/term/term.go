// Package term is a terminal frontend: a small text pad whose input goes
// through a composition session. It is used to try the input method without
// an IBus desktop.
package term

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/GoatWang/BopomofoLLM/internal/autocomplete"
	"github.com/GoatWang/BopomofoLLM/internal/composer"
	"github.com/GoatWang/BopomofoLLM/internal/host"
	"github.com/GoatWang/BopomofoLLM/internal/input"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/session"
)

// Beeper plays the error signal.
type Beeper interface {
	Play()
}

// Bell is a writer that rings the terminal bell once per write. It serves as
// the fallback of a host.Buzzer while the screen owns the terminal.
type Bell struct {
	Screen tcell.Screen
}

func (b Bell) Write(p []byte) (int, error) {
	return len(p), b.Screen.Beep()
}

// Config configures New.
type Config struct {
	Screen     tcell.Screen
	NewSession func(session.Host, session.CandidateWindow, autocomplete.Poster) *session.Controller
	// Beeper is optional.
	Beeper Beeper
	Logger *logging.Logger
	Crash  *logging.CrashHandler
}

// UI owns the screen and the session typed into it. The session, the
// document and the candidate list are only touched on the UI's loop.
type UI struct {
	screen     tcell.Screen
	doc        *host.Document
	window     *candidateList
	loop       *session.Loop
	controller *session.Controller
	beeper     Beeper
	log        *logging.Logger
}

// New creates a UI on cfg.Screen, which must already be initialized.
func New(cfg Config) *UI {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	u := &UI{
		screen: cfg.Screen,
		doc:    &host.Document{},
		window: &candidateList{},
		loop:   session.NewLoop(cfg.Crash),
		beeper: cfg.Beeper,
		log:    cfg.Logger.WithComponent("term"),
	}
	u.doc.Signal = u.beep
	u.controller = cfg.NewSession(u.doc, u.window, autocomplete.PosterFunc(u.post))
	return u
}

// post runs fn on the loop and redraws after it.
func (u *UI) post(fn func()) {
	u.loop.Post(func() {
		fn()
		u.draw()
	})
}

func (u *UI) beep() {
	if u.beeper != nil {
		u.beeper.Play()
	}
}

// SyncSettings makes the session re-read its settings. It may be called from
// any goroutine.
func (u *UI) SyncSettings() {
	u.post(u.controller.SyncSettings)
}

// Document returns the text typed so far.
func (u *UI) Document() *host.Document { return u.doc }

// Run handles terminal events until ctx is done or the user presses
// Ctrl-C. On Ctrl-C the composed text is committed first.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// The loop outlives ctx so that stop can still deactivate the session.
	go u.loop.Run(context.Background())
	defer u.loop.Close()

	if err := u.loop.Do(func() {
		u.controller.Activate()
		u.draw()
	}); err != nil {
		return err
	}

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return u.stop()
		case ev := <-events:
			var err error
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC {
					return u.stop()
				}
				err = u.loop.Do(func() {
					u.handleKey(ev)
					u.draw()
				})
			case *tcell.EventResize:
				err = u.loop.Do(func() {
					u.screen.Sync()
					u.draw()
				})
			}
			if err != nil {
				return err
			}
		}
	}
}

func (u *UI) stop() error {
	err := u.loop.Do(func() {
		u.controller.Deactivate()
		u.controller.Close()
	})
	if errors.Is(err, session.ErrLoopClosed) {
		return nil
	}
	return err
}

// handleKey gives ev to the session, and edits the document with the keys
// the session leaves alone.
func (u *UI) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlT {
		u.toggleMode()
		return
	}
	e, ok := translateKey(ev)
	if !ok {
		return
	}
	if u.controller.HandleEvent(e) {
		return
	}
	if e.Modifiers&(input.ModControl|input.ModAlt|input.ModMeta) != 0 {
		return
	}

	switch e.Code {
	case input.KeyBackspace:
		if !u.doc.DeleteBackward() {
			u.doc.PlayErrorSignal()
		}
	case input.KeyEnter:
		u.doc.CommitText("\n")
	case input.KeyNone, input.KeySpace:
		if e.Char != 0 {
			u.doc.CommitText(string(e.Char))
		}
	}
}

func (u *UI) toggleMode() {
	mode := composer.ModePlainBopomofo
	if u.controller.Settings().Mode == composer.ModePlainBopomofo {
		mode = composer.ModeBopomofo
	}
	u.controller.SetMode(mode)
}
