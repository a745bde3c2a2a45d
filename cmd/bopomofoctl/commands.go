package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/GoatWang/BopomofoLLM/internal/config"
	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/store"
	"github.com/GoatWang/BopomofoLLM/internal/suggest"
)

func (c *cli) logger() *logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LevelWarn
	cfg.Component = "bopomofoctl"
	return logging.NewWithWriter(c.stderr, cfg)
}

func (c *cli) loader() *config.Loader {
	return config.NewLoader(c.configPath, c.logger())
}

func (c *cli) loadConfig() (*config.Config, error) {
	return c.loader().Load()
}

func (c *cli) openStore() (*store.Store, *logging.AuditLogger, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.Phrases.Path)
	if err != nil {
		return nil, nil, err
	}
	var audit *logging.AuditLogger
	if cfg.Phrases.AuditLog != "" {
		audit, err = logging.NewAuditLogger(cfg.Phrases.AuditLog, "bopomofoctl")
		if err != nil {
			fmt.Fprintf(c.stderr, "Warning: audit log unavailable: %v\n", err)
		} else {
			st.SetAudit(audit)
		}
	}
	return st, audit, nil
}

func (c *cli) cmdPhrases(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bopomofoctl phrases list|add|remove|count|status")
	}
	st, audit, err := c.openStore()
	if err != nil {
		return err
	}
	defer audit.Close()
	defer st.Close()

	switch args[0] {
	case "list":
		var phrases []store.Phrase
		if len(args) >= 2 {
			phrases, err = st.PhrasesWithReading(args[1])
		} else {
			phrases, err = st.Phrases()
		}
		if err != nil {
			return err
		}
		if len(phrases) == 0 {
			fmt.Fprintln(c.stdout, "No user phrases.")
			return nil
		}
		for _, p := range phrases {
			fmt.Fprintf(c.stdout, "%-24s %-12s %s\n", p.Reading, p.Value, p.CreatedAt.Format(time.DateTime))
		}
	case "add":
		if len(args) != 3 {
			return errors.New("usage: bopomofoctl phrases add <reading> <value>")
		}
		added, err := st.AddPhrase(args[1], args[2])
		if err != nil {
			return err
		}
		if added {
			fmt.Fprintf(c.stdout, "Added %s (%s)\n", args[2], args[1])
		} else {
			fmt.Fprintf(c.stdout, "%s (%s) is already a user phrase\n", args[2], args[1])
		}
	case "remove":
		if len(args) != 3 {
			return errors.New("usage: bopomofoctl phrases remove <reading> <value>")
		}
		removed, err := st.RemovePhrase(args[1], args[2])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%s (%s) is not a user phrase", args[2], args[1])
		}
		fmt.Fprintf(c.stdout, "Removed %s (%s)\n", args[2], args[1])
	case "count":
		n, err := st.Count()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, n)
	case "status":
		n, err := st.Count()
		if err != nil {
			return err
		}
		version, err := store.SchemaVersion(st.DB())
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Database: %s\n", st.Path())
		fmt.Fprintf(c.stdout, "Schema:   %d (latest %d)\n", version, store.LatestSchema)
		fmt.Fprintf(c.stdout, "Phrases:  %d\n", n)
	default:
		return fmt.Errorf("unknown phrases command: %s", args[0])
	}
	return nil
}

func (c *cli) cmdConfig(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bopomofoctl config path|check|schema|init")
	}
	switch args[0] {
	case "path":
		fmt.Fprintln(c.stdout, c.loader().Path())
	case "check":
		loader := c.loader()
		cfg, err := config.Load(loader.Path())
		if err != nil {
			return err
		}
		warnings, err := config.Check(cfg)
		for _, w := range warnings {
			fmt.Fprintf(c.stdout, "warning: %s\n", w.Error())
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s: OK\n", loader.Path())
	case "schema":
		schema, err := config.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, string(schema))
	case "init":
		path := c.loader().Path()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Save(config.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Wrote %s\n", path)
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
	return nil
}

func (c *cli) cmdSuggest(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bopomofoctl suggest <text>")
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	sc := cfg.SuggestConfig()
	provider, err := suggest.New(sc)
	if err != nil {
		return err
	}

	timeout := sc.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	suggestion, err := provider.Complete(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if suggestion == "" {
		fmt.Fprintln(c.stdout, "(no suggestion)")
		return nil
	}
	fmt.Fprintln(c.stdout, suggestion)
	return nil
}

func (c *cli) cmdCrashes() error {
	h := logging.NewCrashHandler(logging.CrashHandlerConfig{Logger: c.logger()})
	reports, err := h.Reports()
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(c.stdout, "No crash reports.")
		return nil
	}
	for _, r := range reports {
		fmt.Fprintf(c.stdout, "%s  %-10s %s\n", r.Timestamp.Format(time.DateTime), r.Component, r.PanicValue)
	}
	return nil
}
