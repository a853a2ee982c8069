package patry

import (
	"context"
	"sort"
)

// AssetBalance is the current valuation of one asset as reported by an institution.
type AssetBalance struct {
	Asset string
	Value Money
}

// FetchResult is what an institution adapter returns from a live fetch.
type FetchResult struct {
	Balances  []AssetBalance
	Cashflows []Cashflow
	AsOf      Date
}

// Fetcher retrieves live data for one account from one institution.
// Implementations live outside this package (browser automation, HTTP APIs);
// the pipeline only depends on this contract.
type Fetcher interface {
	Fetch(ctx context.Context) (FetchResult, error)
}

// HistoricalFetcher is an optional capability for institutions that can
// reconstruct cashflow history from a given date.
type HistoricalFetcher interface {
	Fetcher
	FetchSince(ctx context.Context, from Date) ([]Cashflow, error)
}

// Registry is the fixed mapping from account identifier to its fetcher.
type Registry struct {
	fetchers map[string]Fetcher
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register binds an account identifier to its fetcher, replacing any previous binding.
func (r *Registry) Register(account string, f Fetcher) {
	r.fetchers[account] = f
}

// Lookup returns the fetcher for the account, if any.
func (r *Registry) Lookup(account string) (Fetcher, bool) {
	f, ok := r.fetchers[account]
	return f, ok
}

// Names returns the registered account identifiers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
