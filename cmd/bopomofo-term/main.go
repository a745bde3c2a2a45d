// bopomofo-term is a terminal text pad that takes its input through the
// Bopomofo input method. Typed text is printed when it exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/GoatWang/BopomofoLLM/internal/app"
	"github.com/GoatWang/BopomofoLLM/internal/config"
	"github.com/GoatWang/BopomofoLLM/internal/host"
	"github.com/GoatWang/BopomofoLLM/internal/term"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	text, err := run(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(text)
}

func run(configPath string) (string, error) {
	rt, err := app.Boot(configPath, "term", version)
	if err != nil {
		return "", err
	}
	defer rt.Close()
	logger := rt.Logger

	a, err := app.New(app.Options{
		Config:   rt.Config,
		Settings: rt.Loader,
		Logger:   logger,
		Crash:    rt.Crash,
	})
	if err != nil {
		return "", err
	}
	defer a.Close()
	rt.Loader.SetAudit(a.Audit())
	if err := a.WatchPhrases(); err != nil {
		logger.Warn("phrases added elsewhere will not be picked up", "error", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return "", fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return "", fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	buzzer := host.NewBuzzer(logger, rt.Config.Input.BeepVolume, term.Bell{Screen: screen})
	defer buzzer.Close()

	ui := term.New(term.Config{
		Screen:     screen,
		NewSession: a.NewSession,
		Beeper:     buzzer,
		Logger:     logger,
		Crash:      rt.Crash,
	})

	rt.Loader.OnChange(func(cfg *config.Config) {
		if err := a.Reconfigure(cfg); err != nil {
			logger.Warn("autocomplete provider unchanged", "error", err)
		}
		ui.SyncSettings()
	})
	if err := rt.Loader.Watch(); err != nil {
		logger.Warn("config changes will not be picked up", "path", rt.Loader.Path(), "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ui.Run(ctx); err != nil {
		return "", err
	}
	return ui.Document().Snapshot().Committed, nil
}
