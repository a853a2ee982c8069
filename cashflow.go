package patry

import (
	"fmt"
	"sort"
)

// Cashflow is a single dated, signed cash movement on an account's asset.
// Negative amounts are money invested (outflow from the investor), positive
// amounts are money returned. A Cashflow is immutable once stored.
type Cashflow struct {
	Date    Date
	Amount  Money
	Account string
	Asset   string
}

func (c Cashflow) String() string {
	return fmt.Sprintf("(%s, %s)", c.Date, c.Amount)
}

// key identifies a record for set-like append: two records are the same
// record iff date, amount, account and asset all match.
func (c Cashflow) key() string {
	return c.Date.String() + "|" + c.Amount.Decimal().String() + "|" + c.Amount.Currency() + "|" + c.Account + "|" + c.Asset
}

// less orders records by date first, then asset and amount to keep the
// persisted sequence deterministic when several movements share a day.
func (c Cashflow) less(o Cashflow) bool {
	if cmp := c.Date.Compare(o.Date); cmp != 0 {
		return cmp < 0
	}
	if c.Asset != o.Asset {
		return c.Asset < o.Asset
	}
	return c.Amount.Decimal().Cmp(o.Amount.Decimal()) < 0
}

// sortCashflows sorts records in place, in non-decreasing date order.
func sortCashflows(flows []Cashflow) {
	sort.SliceStable(flows, func(i, j int) bool { return flows[i].less(flows[j]) })
}

// mergeCashflows returns the union of both record sets, deduplicated by full
// record equality and sorted by date. Inputs are not modified.
func mergeCashflows(existing, incoming []Cashflow) []Cashflow {
	seen := make(map[string]bool, len(existing)+len(incoming))
	merged := make([]Cashflow, 0, len(existing)+len(incoming))
	for _, set := range [][]Cashflow{existing, incoming} {
		for _, cf := range set {
			if k := cf.key(); !seen[k] {
				seen[k] = true
				merged = append(merged, cf)
			}
		}
	}
	sortCashflows(merged)
	return merged
}

// Outlay returns the net amount invested over the series: the negated sum of
// all signed amounts, so deposits count positively towards the outlay.
func Outlay(flows []Cashflow) Money {
	var total Money
	for _, cf := range flows {
		total = total.Add(cf.Amount)
	}
	return total.Neg()
}

// filterSince keeps records dated on or after the given threshold.
func filterSince(flows []Cashflow, from Date) []Cashflow {
	kept := make([]Cashflow, 0, len(flows))
	for _, cf := range flows {
		if !cf.Date.Before(from) {
			kept = append(kept, cf)
		}
	}
	return kept
}

// groupByAsset splits a date-ordered series per asset, preserving order
// within each asset, and returns asset names in first-appearance order.
func groupByAsset(flows []Cashflow) (map[string][]Cashflow, []string) {
	groups := make(map[string][]Cashflow)
	var order []string
	for _, cf := range flows {
		if _, ok := groups[cf.Asset]; !ok {
			order = append(order, cf.Asset)
		}
		groups[cf.Asset] = append(groups[cf.Asset], cf)
	}
	return groups, order
}
