//go:build linux

// bopomofo-ibus is the Linux IBus input method engine.
//
// It is started by ibus-daemon, connects back to it over D-Bus and creates
// one engine per input context.
//
// Installation:
//  1. Copy the binary to /usr/local/bin/bopomofo-ibus
//  2. Run: bopomofo-ibus -install
//  3. Restart IBus: ibus restart
//  4. Enable via: ibus-setup or GNOME Settings > Keyboard > Input Sources
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"

	"github.com/GoatWang/BopomofoLLM/internal/app"
	"github.com/GoatWang/BopomofoLLM/internal/candidate"
	"github.com/GoatWang/BopomofoLLM/internal/config"
	"github.com/GoatWang/BopomofoLLM/internal/host"
	"github.com/GoatWang/BopomofoLLM/internal/ime"
)

var version = "dev"

func main() {
	installFlag := flag.Bool("install", false, "Install IBus component")
	uninstallFlag := flag.Bool("uninstall", false, "Uninstall IBus component")
	configPath := flag.String("config", "", "path to config file")
	flag.Bool("ibus", false, "started by ibus-daemon")
	flag.Parse()

	if *installFlag {
		exe, err := os.Executable()
		if err != nil {
			exe = "/usr/local/bin/bopomofo-ibus"
		}
		path, err := ime.Install(exe, version)
		if err != nil {
			log.Fatalf("Failed to install: %v", err)
		}
		fmt.Printf("Installed %s. Run 'ibus restart' to load.\n", path)
		return
	}

	if *uninstallFlag {
		if err := ime.Uninstall(); err != nil {
			log.Fatalf("Failed to uninstall: %v", err)
		}
		fmt.Println("Uninstalled successfully.")
		return
	}

	if err := run(*configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	rt, err := app.Boot(configPath, "ibus", version)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.Logger

	var notifier candidate.Notifier
	if session, err := dbus.SessionBus(); err != nil {
		logger.Warn("session bus unavailable, notifications are logged", "error", err)
	} else {
		notifier = host.NewDesktopNotifier(session, "Bopomofo", logger)
	}

	a, err := app.New(app.Options{
		Config:   rt.Config,
		Settings: rt.Loader,
		Logger:   logger,
		Crash:    rt.Crash,
		Notifier: notifier,
	})
	if err != nil {
		return err
	}
	defer a.Close()
	audit := a.Audit()
	audit.LogStartup(version)
	rt.Loader.SetAudit(audit)
	if err := a.WatchPhrases(); err != nil {
		logger.Warn("phrases added elsewhere will not be picked up", "error", err)
	}

	buzzer := host.NewBuzzer(logger, rt.Config.Input.BeepVolume, nil)
	defer buzzer.Close()

	svc, err := ime.Connect(ime.FactoryConfig{
		NewSession: a.NewSession,
		Beeper:     buzzer,
		Logger:     logger,
		Crash:      rt.Crash,
	})
	if err != nil {
		return err
	}
	defer svc.Close()

	rt.Loader.OnChange(func(cfg *config.Config) {
		if err := a.Reconfigure(cfg); err != nil {
			logger.Warn("autocomplete provider unchanged", "error", err)
		}
		svc.Factory().SyncSettings()
	})
	if err := rt.Loader.Watch(); err != nil {
		logger.Warn("config changes will not be picked up", "path", rt.Loader.Path(), "error", err)
	}

	if err := svc.Start(); err != nil {
		return err
	}
	logger.Info("bopomofo ibus engine started", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = svc.Wait(ctx)
	reason := "signal"
	if err != nil && !errors.Is(err, context.Canceled) {
		reason = err.Error()
	}
	logger.Info("shutting down", "reason", reason)
	audit.LogShutdown(reason)
	return nil
}
