// Package patry implements a cache-backed cashflow and valuation pipeline
// for a small, fixed set of personal financial accounts.
//
// The durable state is a [Store] of dated, signed cashflow records, one JSONL
// file per account. A [CacheManager] decides per account whether stored
// records are enough or a live fetch through the institution's [Fetcher] is
// needed, and appends fetched records idempotently. Growth is measured as an
// annualized internal rate of return over the irregular series ([Rate],
// [CAGR]). A [Builder] assembles everything into a [PortfolioSnapshot] that
// the renderer or the JSON exporter consumes.
package patry
