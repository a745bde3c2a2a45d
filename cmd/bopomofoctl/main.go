// bopomofoctl is the control CLI for the Bopomofo input method.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries the global options and output streams of one invocation.
type cli struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bopomofoctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := &cli{stdout: stdout, stderr: stderr}
	fs.StringVar(&c.configPath, "config", "", "path to config file")
	fs.Usage = func() { c.usage() }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() < 1 {
		c.usage()
		return 1
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	var err error
	switch cmd {
	case "phrases":
		err = c.cmdPhrases(rest)
	case "config":
		err = c.cmdConfig(rest)
	case "suggest":
		err = c.cmdSuggest(rest)
	case "crashes":
		err = c.cmdCrashes()
	case "version":
		fmt.Fprintf(stdout, "bopomofoctl %s\n", version)
	case "help":
		c.usage()
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		c.usage()
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *cli) usage() {
	fmt.Fprintln(c.stderr, `bopomofoctl - Control utility for the Bopomofo input method

Usage: bopomofoctl [options] <command> [args]

Commands:
  phrases list [reading]           List user phrases
  phrases add <reading> <value>    Add a user phrase
  phrases remove <reading> <value> Remove a user phrase
  phrases count                    Count user phrases
  phrases status                   Show the phrase database path and schema
  config path                      Print the config file path
  config check                     Validate the config file
  config schema                    Print the config JSON Schema
  config init                      Write the default config file
  suggest <text>                   Ask the autocomplete provider for a suggestion
  crashes                          List recorded crash reports
  version                          Print the version
  help                             Show this help message

Readings join syllables with "-", for example ㄋㄧˇ-ㄏㄠˇ.

Options:
  -config <path>  Path to config file (default: $XDG_CONFIG_HOME/bopomofo/config.toml)`)
}
