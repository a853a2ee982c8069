package patry

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Resolution is the outcome of a cache decision for one account.
type Resolution struct {
	Flows  []Cashflow
	Result FetchResult // balances and as-of date, only meaningful when Fresh
	Fresh  bool        // true when the fetcher actually ran
}

// CacheManager decides, per account, whether stored cashflows are enough or a
// live fetch is needed, and keeps the store up to date with fetched records.
type CacheManager struct {
	store    *Store
	registry *Registry
	log      zerolog.Logger
}

func NewCacheManager(store *Store, registry *Registry, log zerolog.Logger) *CacheManager {
	return &CacheManager{store: store, registry: registry, log: log}
}

// Store exposes the underlying store for date-filtered reads.
func (m *CacheManager) Store() *Store { return m.store }

// Lookup returns the registered fetcher for the account, if any.
func (m *CacheManager) Lookup(account string) (Fetcher, bool) {
	return m.registry.Lookup(account)
}

// Resolve returns the account's cashflows. With bypass false and stored
// records present, the stored series is returned unchanged and the fetcher
// never runs. With bypass true, or when the store holds nothing for the
// account, the fetcher runs and its records are appended to the store before
// the merged series is returned.
//
// A fetcher failure is returned as a *FetchError and leaves the store
// untouched. A corrupt store file is logged and treated as an empty history.
func (m *CacheManager) Resolve(ctx context.Context, account string, bypass bool) (Resolution, error) {
	stored, err := m.store.Load(account)
	var corrupt *CorruptError
	if errors.As(err, &corrupt) {
		m.log.Warn().Str("account", account).Err(corrupt.Err).Msg("corrupt cashflow file, treating as empty history")
		stored = nil
	} else if err != nil {
		return Resolution{}, err
	}

	if !bypass && len(stored) > 0 {
		m.log.Debug().Str("account", account).Int("records", len(stored)).Msg("cache hit")
		return Resolution{Flows: stored}, nil
	}

	fetcher, ok := m.registry.Lookup(account)
	if !ok {
		return Resolution{}, &FetchError{Account: account, Err: ErrUnknownAccount}
	}

	m.log.Info().Str("account", account).Bool("bypass", bypass).Msg("fetching live data")
	result, err := fetcher.Fetch(ctx)
	if err != nil {
		return Resolution{}, &FetchError{Account: account, Err: err}
	}

	if len(result.Cashflows) > 0 {
		if err := m.store.Append(account, result.Cashflows); err != nil {
			// The fetched data is still good for this run; only caching failed.
			m.log.Warn().Str("account", account).Err(err).Msg("could not cache fetched cashflows")
			return Resolution{Flows: mergeCashflows(stored, result.Cashflows), Result: result, Fresh: true}, nil
		}
		merged, err := m.store.Load(account)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Flows: merged, Result: result, Fresh: true}, nil
	}
	return Resolution{Flows: stored, Result: result, Fresh: true}, nil
}
