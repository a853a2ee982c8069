package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/etnz/patry"
	"github.com/etnz/patry/renderer"
	"github.com/google/subcommands"
)

// usdFlag is an optional-value flag: bare -with-usd enables the column at its
// default position, -with-usd=5 moves it.
type usdFlag struct {
	enabled bool
	index   int
}

func (u *usdFlag) String() string {
	if !u.enabled {
		return ""
	}
	return strconv.Itoa(u.index)
}

func (u *usdFlag) Set(s string) error {
	u.enabled = true
	u.index = 3
	if s == "" || s == "true" {
		return nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid column index %q", s)
	}
	u.index = i
	return nil
}

func (u *usdFlag) IsBoolFlag() bool { return true }

// jsonFlag is an optional-value flag: bare -json exports to the default file,
// -json=path picks another one.
type jsonFlag struct {
	enabled bool
	path    string
}

func (j *jsonFlag) String() string {
	if !j.enabled {
		return ""
	}
	return j.path
}

func (j *jsonFlag) Set(s string) error {
	j.enabled = true
	j.path = "patry.json"
	if s != "" && s != "true" {
		j.path = s
	}
	return nil
}

func (j *jsonFlag) IsBoolFlag() bool { return true }

// showCmd holds the flags for the 'show' subcommand.
type showCmd struct {
	noCache bool
	date    string
	from    string
	usd     usdFlag
	json    jsonFlag
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display the consolidated portfolio report" }
func (*showCmd) Usage() string {
	return `pat show [-no-cache] [-with-usd[=i]] [-from <date>] [-json[=file]] [account...]

  Displays outlay, current value, profit and annualized growth rate for the
  selected accounts. Without arguments it reports on "monio": the accounts
  listed in the MONIO environment variable, or every configured account.

Usage Examples:
# Report on everything, from the cache when possible.
$ pat show

# Force a live fetch for fintual only, with a dollar column.
$ pat show -no-cache -with-usd fintual
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.noCache, "no-cache", false, "bypass the cache and fetch live data")
	f.StringVar(&c.date, "d", "", "report date (defaults to today)")
	f.StringVar(&c.from, "from", "", "only consider cashflows on or after this date (requires history support)")
	f.Var(&c.usd, "with-usd", "insert a USD value column, optionally at the given index")
	f.Var(&c.json, "json", "export per-account subtotals to a JSON file")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logger()
	builder, reg := newBuilder(log)

	opts := patry.BuildOptions{
		Accounts: expandAccounts(f.Args(), reg),
		Bypass:   c.noCache,
	}
	if c.usd.enabled {
		opts.USDColumn = &c.usd.index
	}
	if c.from != "" {
		from, err := patry.ParseDate(c.from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -from date: %v\n", err)
			return subcommands.ExitUsageError
		}
		opts.LoadFrom = &from
	}
	if c.date != "" {
		on, err := patry.ParseDate(c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -d date: %v\n", err)
			return subcommands.ExitUsageError
		}
		builder = builder.At(on)
	}

	snap, err := builder.Build(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.Portfolio(snap))

	if c.json.enabled {
		if err := patry.ExportJSON(c.json.path, snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not export %q: %v\n", c.json.path, err)
			return subcommands.ExitFailure
		}
		log.Info().Str("file", c.json.path).Msg("subtotals exported")
	}

	if failed := snap.FailedAccounts(); len(failed) > 0 {
		log.Warn().Strs("accounts", failed).Msg("some accounts could not be read")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
