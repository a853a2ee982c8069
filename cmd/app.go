// Package cmd implements the CLI application to track personal accounts.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/patry"
	"github.com/etnz/patry/fintual"
	"github.com/etnz/patry/manual"
	"github.com/etnz/patry/mindicador"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Commands is the list of subcommands a main package registers.
var Commands = []subcommands.Command{
	&showCmd{},
	&pullCmd{},
	&historyCmd{},
	&versionCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storeDir = flag.String("store", "cashflows", "Path to the cashflow store folder (JSONL files, one per account)")
var verbose = flag.Bool("v", false, "log progress information")
var debugLog = flag.Bool("vv", false, "log debug information")

// logger builds the application logger from the verbosity flags.
// Default is warnings only, so reports stay clean.
func logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.InfoLevel
	}
	if *debugLog {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// newRegistry binds every configured institution adapter to its account name.
// An adapter whose configuration is incomplete is skipped with a warning, so
// the remaining accounts still work.
func newRegistry(log zerolog.Logger) *patry.Registry {
	reg := patry.NewRegistry()

	if cfg, err := fintual.LoadConfig(); err != nil {
		log.Warn().Err(err).Str("account", fintual.Account).Msg("adapter not configured")
	} else {
		reg.Register(fintual.Account, fintual.New(cfg, log))
	}

	if cfg, err := manual.LoadConfig(); err != nil {
		log.Warn().Err(err).Str("account", manual.Account).Msg("adapter not configured")
	} else {
		reg.Register(manual.Account, manual.New(cfg))
	}

	return reg
}

// newBuilder wires the full pipeline: store, cache manager, rate source.
func newBuilder(log zerolog.Logger) (*patry.Builder, *patry.Registry) {
	reg := newRegistry(log)
	store := patry.NewStore(*storeDir)
	cache := patry.NewCacheManager(store, reg, log)
	rates := mindicador.New(log)
	return patry.NewBuilder(cache, rates, log), reg
}

// expandAccounts resolves positional selectors into concrete account names.
// The pseudo-account "monio" expands to the comma-separated MONIO environment
// variable, or to every registered account when MONIO is unset. Duplicates
// are dropped, order of first appearance is kept.
func expandAccounts(args []string, reg *patry.Registry) []string {
	if len(args) == 0 {
		args = []string{"monio"}
	}
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, arg := range args {
		if arg != "monio" {
			add(arg)
			continue
		}
		if env := os.Getenv("MONIO"); env != "" {
			for _, name := range strings.Split(env, ",") {
				add(name)
			}
			continue
		}
		for _, name := range reg.Names() {
			add(name)
		}
	}
	return out
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when the renderer is not available.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err != nil {
		fmt.Println(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
