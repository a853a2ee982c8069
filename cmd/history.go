package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/etnz/patry"
	"github.com/etnz/patry/fintual"
	"github.com/etnz/patry/renderer"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// historyCmd holds the flags for the 'history' subcommand.
type historyCmd struct {
	date string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "reconstruct the portfolio state at a past date" }
func (*historyCmd) Usage() string {
	return `pat history -d <date> [account...]

  Rebuilds outlay, value and growth rate as they stood at the given date,
  from the institution's own records rather than from the local store. Only
  accounts whose institution can reconstruct history are included.

  Institutions report deposits and cashflow history through separate
  endpoints that are not always in step: when the recorded deposited total
  disagrees with the reconstructed one, the most recent cashflow is assumed
  to postdate the valuation and is dropped.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "date to reconstruct (required)")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logger()
	if c.date == "" {
		fmt.Fprintln(os.Stderr, "Error: -d <date> is required")
		return subcommands.ExitUsageError
	}
	asOf, err := patry.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -d date: %v\n", err)
		return subcommands.ExitUsageError
	}

	reg := newRegistry(log)
	snap := &patry.PortfolioSnapshot{
		AsOf:   asOf,
		Totals: make(map[string]patry.AccountSnapshot),
	}
	var allFlows []patry.Cashflow

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

		flows, err := hist.FetchSince(ctx, patry.Date{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reconstructing %q: %v\n", account, err)
			snap.Accounts = append(snap.Accounts, account)
			row := patry.AccountSnapshot{Account: account, Err: err}
			snap.Rows = append(snap.Rows, row)
			snap.Totals[account] = row
			status = subcommands.ExitFailure
			continue
		}
		flows = upTo(flows, asOf)

		rows := c.reconstruct(ctx, log, account, fetcher, flows, asOf)
		snap.Accounts = append(snap.Accounts, account)
		snap.Rows = append(snap.Rows, rows...)
		snap.Totals[account] = patry.Aggregate(account, rows, flows, asOf)
		allFlows = append(allFlows, flows...)
	}
	snap.Total = patry.Aggregate("", snap.Rows, allFlows, asOf)

	printMarkdown(renderer.Portfolio(snap))
	return status
}

// reconstruct builds one row per asset from the historical cashflows. For
// institutions that also record a deposited total per date, the series is
// reconciled against it before valuing.
func (c *historyCmd) reconstruct(ctx context.Context, log zerolog.Logger, account string, fetcher patry.Fetcher, flows []patry.Cashflow, asOf patry.Date) []patry.AccountSnapshot {
	byAsset := make(map[string][]patry.Cashflow)
	var assets []string
	for _, cf := range flows {
		if _, seen := byAsset[cf.Asset]; !seen {
			assets = append(assets, cf.Asset)
		}
		byAsset[cf.Asset] = append(byAsset[cf.Asset], cf)
	}
	sort.Strings(assets)

	// Recorded deposited totals and valuations, when the institution has them.
	deposited := make(map[string]patry.Money)
	values := make(map[string]patry.Money)
	if ft, ok := fetcher.(*fintual.Client); ok {
		goals, err := ft.GoalIDs(ctx)
		if err != nil {
			log.Warn().Str("account", account).Err(err).Msg("could not list goals")
		}
		for id, name := range goals {
			dep, val, found, err := ft.Deposited(ctx, id, asOf)
			if err != nil {
				log.Warn().Str("goal", name).Err(err).Msg("could not read performance history")
				continue
			}
			if found {
				deposited[name] = dep
				values[name] = val
			}
		}
	}

	var rows []patry.AccountSnapshot
	for _, asset := range assets {
		assetFlows := byAsset[asset]
		if dep, ok := deposited[asset]; ok {
			assetFlows = reconcile(log, asset, assetFlows, dep)
		}

		outlay := patry.Outlay(assetFlows)
		value, ok := values[asset]
		if !ok {
			value = outlay
		}
		row := patry.AccountSnapshot{
			Account: account,
			Asset:   asset,
			Outlay:  outlay,
			Value:   value,
			Fresh:   true,
		}
		if rate, err := patry.AssetRate(assetFlows, value, asOf); err == nil {
			row.Rate = &rate
		}
		if years, yok := patry.WeightedYears(assetFlows, asOf); yok {
			row.Years = &years
		}
		rows = append(rows, row)
	}
	return rows
}

// reconcile drops the most recent cashflow when the reconstructed outlay
// disagrees with the deposited total the institution recorded for the date.
// The trailing flow then postdates the valuation.
func reconcile(log zerolog.Logger, asset string, flows []patry.Cashflow, deposited patry.Money) []patry.Cashflow {
	if len(flows) < 2 {
		return flows
	}
	if patry.Outlay(flows).Decimal().Equal(deposited.Decimal()) {
		return flows
	}
	trimmed := flows[:len(flows)-1]
	if !patry.Outlay(trimmed).Decimal().Equal(deposited.Decimal()) {
		log.Warn().Str("asset", asset).Msg("deposited total does not reconcile, keeping the full series")
		return flows
	}
	log.Info().Str("asset", asset).Stringer("cashflow", flows[len(flows)-1]).Msg("last cashflow removed")
	return trimmed
}

// upTo keeps the cashflows dated on or before the given date.
func upTo(flows []patry.Cashflow, on patry.Date) []patry.Cashflow {
	var out []patry.Cashflow
	for _, cf := range flows {
		if !cf.Date.After(on) {
			out = append(out, cf)
		}
	}
	return out
}
