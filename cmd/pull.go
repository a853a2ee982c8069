package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/patry"
	"github.com/google/subcommands"
)

// pullCmd holds the flags for the 'pull' subcommand.
type pullCmd struct {
	from string
}

func (*pullCmd) Name() string     { return "pull" }
func (*pullCmd) Synopsis() string { return "fetch cashflow history and append it to the store" }
func (*pullCmd) Usage() string {
	return `pat pull [-from <date>] [account...]

  Fetches the cashflow history for each selected account and appends the new
  records to the store. Records already present are left untouched, so pulling
  is always safe to repeat. Only accounts whose institution can reconstruct
  history are pulled; the others are skipped with a warning.
`
}

func (c *pullCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "only pull cashflows on or after this date (defaults to the full history)")
}

func (c *pullCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logger()
	reg := newRegistry(log)
	store := patry.NewStore(*storeDir)

	var from patry.Date
	if c.from != "" {
		parsed, err := patry.ParseDate(c.from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -from date: %v\n", err)
			return subcommands.ExitUsageError
		}
		from = parsed
	}

	status := subcommands.ExitSuccess
	for _, account := range expandAccounts(f.Args(), reg) {
		fetcher, ok := reg.Lookup(account)
		if !ok {
			log.Warn().Str("account", account).Msg("unknown account, skipped")
			status = subcommands.ExitFailure
			continue
		}
		hist, ok := fetcher.(patry.HistoricalFetcher)
		if !ok {
			log.Warn().Str("account", account).Msg("history not supported, skipped")
			continue
		}

		flows, err := hist.FetchSince(ctx, from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: pulling %q: %v\n", account, err)
			status = subcommands.ExitFailure
			continue
		}
		before, _ := store.Load(account)
		if err := store.Append(account, flows); err != nil {
			fmt.Fprintf(os.Stderr, "Error: storing %q: %v\n", account, err)
			status = subcommands.ExitFailure
			continue
		}
		after, _ := store.Load(account)
		fmt.Printf("%s: %d cashflows pulled, %d new\n", account, len(flows), len(after)-len(before))
	}
	return status
}
