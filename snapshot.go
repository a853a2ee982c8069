package patry

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountSnapshot is one asset row of the consolidated table. It is built
// fresh on every run and never persisted.
type AccountSnapshot struct {
	Account string
	Asset   string
	Outlay  Money
	Value   Money
	Rate    *Percent // nil when undefined (insufficient data, no root, no convergence)
	Years   *float64 // outlay-weighted investment time, nil when undefined
	Fresh   bool     // true when this row was built from a live fetch
	Err     error    // per-account failure, shown as unavailable by the renderer
}

// Profit returns the gain over the outlay, undefined at zero outlay.
func (r AccountSnapshot) Profit() (Money, bool) {
	if r.Outlay.IsZero() {
		return Money{}, false
	}
	return r.Value.Sub(r.Outlay), true
}

// ProfitRatio returns the return on investment, undefined at zero outlay.
func (r AccountSnapshot) ProfitRatio() (Percent, bool) {
	if r.Outlay.IsZero() {
		return 0, false
	}
	return Percent(100 * r.Value.Sub(r.Outlay).AsFloat() / r.Outlay.AsFloat()), true
}

// USDColumn carries the extra converted-value column requested via the CLI.
type USDColumn struct {
	Index int             // position where the column is inserted
	Rate  decimal.Decimal // CLP per USD
}

// Subtotal is one account's aggregate, used by the JSON export.
type Subtotal struct {
	Outlay Money `json:"outlay"`
	Market Money `json:"market"`
}

// PortfolioSnapshot is the consolidated view over all selected accounts, in
// the order they were requested. Built once per invocation and handed to the
// renderer or exporter.
type PortfolioSnapshot struct {
	AsOf     Date
	Accounts []string // requested order, deduplicated
	Rows     []AccountSnapshot
	Totals   map[string]AccountSnapshot // per-account aggregate, rate over the whole account series
	Total    AccountSnapshot            // portfolio-wide aggregate
	USD      *USDColumn
}

// AccountRows returns the rows belonging to one account, in build order.
func (s *PortfolioSnapshot) AccountRows(account string) []AccountSnapshot {
	var rows []AccountSnapshot
	for _, r := range s.Rows {
		if r.Account == account {
			rows = append(rows, r)
		}
	}
	return rows
}

// TotalValue sums the value of every row.
func (s *PortfolioSnapshot) TotalValue() Money {
	var total Money
	for _, r := range s.Rows {
		total = total.Add(r.Value)
	}
	return total
}

// Subtotals returns per-account aggregates keyed by account identifier.
func (s *PortfolioSnapshot) Subtotals() map[string]Subtotal {
	subtotals := make(map[string]Subtotal, len(s.Accounts))
	for _, account := range s.Accounts {
		var sub Subtotal
		for _, r := range s.AccountRows(account) {
			sub.Outlay = sub.Outlay.Add(r.Outlay)
			sub.Market = sub.Market.Add(r.Value)
		}
		subtotals[account] = sub
	}
	return subtotals
}

// FailedAccounts returns the accounts that produced no data at all: every row
// carries an error. Used for the process exit code.
func (s *PortfolioSnapshot) FailedAccounts() []string {
	var failed []string
	for _, account := range s.Accounts {
		rows := s.AccountRows(account)
		allFailed := len(rows) > 0
		for _, r := range rows {
			if r.Err == nil {
				allFailed = false
				break
			}
		}
		if allFailed {
			failed = append(failed, account)
		}
	}
	return failed
}

// RateSource is the external currency-rate collaborator.
type RateSource interface {
	// USD returns the reporting-currency-per-USD rate for the given date.
	USD(ctx context.Context, on Date) (float64, error)
}

// BuildOptions selects what the Builder assembles.
type BuildOptions struct {
	Accounts  []string // caller order is preserved in the snapshot
	Bypass    bool     // ignore stored cashflows and fetch live data
	USDColumn *int     // insert a converted-value column at this index
	LoadFrom  *Date    // historical reconstruction threshold
}

// Builder orchestrates per-account fetch-or-cache decisions and merges the
// results into a single PortfolioSnapshot.
type Builder struct {
	cache *CacheManager
	rates RateSource
	log   zerolog.Logger
	asOf  Date
}

func NewBuilder(cache *CacheManager, rates RateSource, log zerolog.Logger) *Builder {
	return &Builder{cache: cache, rates: rates, log: log}
}

// At pins the valuation date, used by growth computations. Defaults to today.
func (b *Builder) At(on Date) *Builder {
	b.asOf = on
	return b
}

// Build assembles the snapshot. One account's failure never aborts the run:
// the failed account keeps a row marked with its error and the remaining
// accounts are still processed. A snapshot is always returned; the error is
// non-nil only when the context was canceled mid-build.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*PortfolioSnapshot, error) {
	asOf := b.asOf
	if asOf.IsZero() {
		asOf = Today()
	}

	snap := &PortfolioSnapshot{
		AsOf:     asOf,
		Accounts: dedupe(opts.Accounts),
		Totals:   make(map[string]AccountSnapshot),
	}

	// The rate collaborator is called once per run, not per account.
	if opts.USDColumn != nil {
		if b.rates == nil {
			b.log.Warn().Msg("no currency rate source configured, dropping USD column")
		} else if rate, err := b.rates.USD(ctx, asOf); err != nil {
			b.log.Warn().Err(err).Msg("could not fetch USD rate, dropping USD column")
		} else {
			snap.USD = &USDColumn{Index: *opts.USDColumn, Rate: decimal.NewFromFloat(rate)}
		}
	}

	var allFlows []Cashflow
	for _, account := range snap.Accounts {
		// A user interrupt stops issuing new fetches; what is already built
		// stays in the snapshot.
		if err := ctx.Err(); err != nil {
			return snap, err
		}
		rows, flows := b.buildAccount(ctx, account, opts, asOf)
		snap.Rows = append(snap.Rows, rows...)
		snap.Totals[account] = Aggregate(account, rows, flows, asOf)
		allFlows = append(allFlows, flows...)
	}
	snap.Total = Aggregate("", snap.Rows, allFlows, asOf)
	return snap, nil
}

// Aggregate sums a set of rows into one, with the growth rate computed over
// the underlying cashflow series against the summed valuation.
func Aggregate(account string, rows []AccountSnapshot, flows []Cashflow, asOf Date) AccountSnapshot {
	total := AccountSnapshot{Account: account}
	for _, r := range rows {
		total.Outlay = total.Outlay.Add(r.Outlay)
		total.Value = total.Value.Add(r.Value)
		total.Fresh = total.Fresh || r.Fresh
		if r.Err != nil && total.Err == nil {
			total.Err = r.Err
		}
	}
	if rate, err := AssetRate(flows, total.Value, asOf); err == nil {
		total.Rate = &rate
	}
	if years, ok := WeightedYears(flows, asOf); ok {
		total.Years = &years
	}
	return total
}

func (b *Builder) buildAccount(ctx context.Context, account string, opts BuildOptions, asOf Date) ([]AccountSnapshot, []Cashflow) {
	res, err := b.cache.Resolve(ctx, account, opts.Bypass)
	if err != nil {
		b.log.Error().Str("account", account).Err(err).Msg("account unavailable")
		return []AccountSnapshot{{Account: account, Err: err}}, nil
	}

	flows := res.Flows
	if opts.LoadFrom != nil {
		fetcher, _ := b.cache.Lookup(account)
		if _, ok := fetcher.(HistoricalFetcher); !ok {
			err := &UnsupportedError{Account: account, Option: "historical reconstruction"}
			b.log.Error().Str("account", account).Err(err).Msg("option not supported")
			return []AccountSnapshot{{Account: account, Err: err}}, nil
		}
		flows, err = b.cache.Store().LoadSince(account, *opts.LoadFrom)
		if err != nil {
			return []AccountSnapshot{{Account: account, Err: err}}, nil
		}
	}

	groups, order := groupByAsset(flows)
	balances := make(map[string]Money, len(res.Result.Balances))
	if res.Fresh {
		for _, bal := range res.Result.Balances {
			balances[bal.Asset] = bal.Value
		}
		// Balances first, in institution order, then assets known only from history.
		var merged []string
		for _, bal := range res.Result.Balances {
			merged = append(merged, bal.Asset)
		}
		for _, asset := range order {
			if _, ok := balances[asset]; !ok {
				merged = append(merged, asset)
			}
		}
		order = merged
	}

	if len(order) == 0 {
		// No movement and no balance: keep the account visible with an empty row.
		return []AccountSnapshot{{Account: account, Fresh: res.Fresh}}, nil
	}

	rows := make([]AccountSnapshot, 0, len(order))
	for _, asset := range order {
		assetFlows := groups[asset]
		outlay := Outlay(assetFlows)
		value, hasBalance := balances[asset]
		if !hasBalance {
			// A cache hit carries no live valuation: fall back to the outlay.
			value = outlay
		}

		row := AccountSnapshot{
			Account: account,
			Asset:   asset,
			Outlay:  outlay,
			Value:   value,
			Fresh:   res.Fresh,
		}
		if rate, err := AssetRate(assetFlows, value, asOf); err == nil {
			row.Rate = &rate
		} else {
			b.log.Debug().Str("account", account).Str("asset", asset).Err(err).Msg("growth rate undefined")
		}
		if years, ok := WeightedYears(assetFlows, asOf); ok {
			row.Years = &years
		}
		rows = append(rows, row)
	}
	return rows, flows
}

// dedupe removes duplicates while preserving the caller-specified order.
func dedupe(accounts []string) []string {
	seen := make(map[string]bool, len(accounts))
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
