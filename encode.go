package patry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// cashflowLine is the on-disk form of one record: one JSON object per line.
// The account is implied by the file it lives in; the currency is omitted
// when it is the reporting currency.
type cashflowLine struct {
	Date     Date            `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
	Asset    string          `json:"asset,omitempty"`
}

func (l cashflowLine) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", l.Date)
	w.Append("amount", l.Amount)
	w.Optional("currency", l.Currency)
	w.Optional("asset", l.Asset)
	return w.MarshalJSON()
}

// EncodeCashflows writes records as JSONL, one record per line, in the order given.
func EncodeCashflows(w io.Writer, flows []Cashflow) error {
	enc := json.NewEncoder(w)
	for _, cf := range flows {
		line := cashflowLine{
			Date:   cf.Date,
			Amount: cf.Amount.Decimal(),
			Asset:  cf.Asset,
		}
		if c := cf.Amount.Currency(); c != DefaultCurrency {
			line.Currency = c
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("could not encode cashflow %s: %w", cf, err)
		}
	}
	return nil
}

// DecodeCashflows reads a stream of JSONL cashflow records for the given
// account and returns them sorted in non-decreasing date order.
// Blank lines are skipped.
func DecodeCashflows(r io.Reader, account string) ([]Cashflow, error) {
	var flows []Cashflow
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var line cashflowLine
		if err := json.Unmarshal(lineBytes, &line); err != nil {
			return nil, fmt.Errorf("could not decode cashflow line %d %q: %w", n, string(lineBytes), err)
		}
		if line.Date.IsZero() {
			return nil, fmt.Errorf("could not decode cashflow line %d: missing date", n)
		}
		currency := line.Currency
		if currency == "" {
			currency = DefaultCurrency
		}
		flows = append(flows, Cashflow{
			Date:    line.Date,
			Amount:  M(line.Amount, currency),
			Account: account,
			Asset:   line.Asset,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sortCashflows(flows)
	return flows, nil
}
