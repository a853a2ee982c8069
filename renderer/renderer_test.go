package renderer

import (
	"errors"
	"strings"
	"testing"

	"github.com/etnz/patry"
	"github.com/shopspring/decimal"
)

func testSnapshot() *patry.PortfolioSnapshot {
	rate := patry.Percent(6.7)
	years := 0.8
	row := patry.AccountSnapshot{
		Account: "fintual",
		Asset:   "Risky Norris",
		Outlay:  patry.M(1500, "CLP"),
		Value:   patry.M(1600, "CLP"),
		Rate:    &rate,
		Years:   &years,
	}
	failed := patry.AccountSnapshot{
		Account: "banco",
		Err:     errors.New("connection refused"),
	}
	return &patry.PortfolioSnapshot{
		AsOf:     patry.MustParseDate("2023-12-31"),
		Accounts: []string{"fintual", "banco"},
		Rows:     []patry.AccountSnapshot{row, failed},
		Totals: map[string]patry.AccountSnapshot{
			"fintual": {Account: "fintual", Outlay: row.Outlay, Value: row.Value, Rate: &rate, Years: &years},
			"banco":   {Account: "banco", Err: failed.Err},
		},
		Total: patry.AccountSnapshot{Outlay: row.Outlay, Value: row.Value, Rate: &rate},
	}
}

func TestPortfolio(t *testing.T) {
	md := Portfolio(testSnapshot())

	for _, want := range []string{
		"# Portfolio — 2023-12-31",
		"| Name",
		"Σ FINTUAL",
		"Risky Norris",
		"Σ BANCO",
		"\n| Total",
		"6.70%",
		"connection refused",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("output missing %q:\n%s", want, md)
		}
	}

	// The failed account renders as unavailable, not as numbers.
	for _, line := range strings.Split(md, "\n") {
		if strings.Contains(line, "Σ BANCO") && !strings.Contains(line, "n/a") {
			t.Errorf("failed account row should be n/a: %s", line)
		}
	}

	if strings.Contains(md, "Value USD") {
		t.Error("USD column should be absent by default")
	}
}

func TestPortfolioUSDColumn(t *testing.T) {
	snap := testSnapshot()
	snap.USD = &patry.USDColumn{Index: 3, Rate: decimal.NewFromInt(8)}
	md := Portfolio(snap)

	if !strings.Contains(md, "Value USD") {
		t.Fatalf("missing USD column header:\n%s", md)
	}
	header := strings.SplitN(md, "\n", 4)[2]
	cells := strings.Split(header, "|")
	// Cell 0 is the text before the leading pipe; header column 3 is cell 4.
	if !strings.Contains(cells[4], "Value USD") {
		t.Errorf("USD column not at index 3: %q", header)
	}
	// 1600 CLP at 8 CLP per USD, rounded to the nearest ten dollars.
	if !strings.Contains(md, "$200.00") {
		t.Errorf("converted value missing:\n%s", md)
	}
}

func TestPortfolioRowOrder(t *testing.T) {
	md := Portfolio(testSnapshot())
	sub := strings.Index(md, "Σ FINTUAL")
	asset := strings.Index(md, "Risky Norris")
	total := strings.Index(md, "\n| Total")
	if !(sub < asset && asset < total) {
		t.Errorf("rows out of order: subtotal@%d asset@%d total@%d", sub, asset, total)
	}
}
