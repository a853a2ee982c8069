package patry

import "testing"

// cf builds a CLP cashflow for tests.
func cf(date string, amount float64, asset string) Cashflow {
	return Cashflow{
		Date:    MustParseDate(date),
		Amount:  M(amount, DefaultCurrency),
		Account: "test",
		Asset:   asset,
	}
}

func TestOutlay(t *testing.T) {
	tests := []struct {
		name  string
		flows []Cashflow
		want  Money
	}{
		{"empty", nil, Money{}},
		{"deposits only", []Cashflow{cf("2023-01-01", -1000, "a"), cf("2023-06-01", -500, "a")}, M(1500, "CLP")},
		{"with withdrawal", []Cashflow{cf("2023-01-01", -1000, "a"), cf("2023-06-01", 200, "a")}, M(800, "CLP")},
		{"net zero", []Cashflow{cf("2023-01-01", -1000, "a"), cf("2023-06-01", 1000, "a")}, M(0, "CLP")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outlay(tt.flows); !got.Decimal().Equal(tt.want.Decimal()) {
				t.Errorf("Outlay = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeCashflows(t *testing.T) {
	a := cf("2023-01-01", -1000, "x")
	b := cf("2023-06-01", -500, "x")
	c := cf("2023-03-01", -200, "y")

	merged := mergeCashflows([]Cashflow{b, a}, []Cashflow{a, c})
	if len(merged) != 3 {
		t.Fatalf("len = %d, want 3 (union, not sum)", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Date.Before(merged[i-1].Date) {
			t.Errorf("merged not sorted: %v before %v", merged[i], merged[i-1])
		}
	}
}

func TestMergeKeepsDistinctSameDayRecords(t *testing.T) {
	// Two deposits of different amounts on the same day are two records.
	a := cf("2023-01-01", -1000, "x")
	b := cf("2023-01-01", -500, "x")
	if got := mergeCashflows([]Cashflow{a}, []Cashflow{b}); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	// The exact same record is one.
	if got := mergeCashflows([]Cashflow{a}, []Cashflow{a}); len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestFilterSince(t *testing.T) {
	flows := []Cashflow{
		cf("2023-01-01", -1, "a"),
		cf("2023-06-01", -2, "a"),
		cf("2023-12-01", -3, "a"),
	}
	got := filterSince(flows, MustParseDate("2023-06-01"))
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// The threshold day itself is kept.
	if got[0].Date != MustParseDate("2023-06-01") {
		t.Errorf("first = %v, want the threshold day", got[0].Date)
	}
}

func TestGroupByAsset(t *testing.T) {
	flows := []Cashflow{
		cf("2023-01-01", -1, "risky"),
		cf("2023-02-01", -2, "safe"),
		cf("2023-03-01", -3, "risky"),
	}
	groups, order := groupByAsset(flows)
	if len(order) != 2 || order[0] != "risky" || order[1] != "safe" {
		t.Fatalf("order = %v, want [risky safe]", order)
	}
	if len(groups["risky"]) != 2 || len(groups["safe"]) != 1 {
		t.Errorf("groups = %v", groups)
	}
}

func TestSortCashflows(t *testing.T) {
	flows := []Cashflow{
		cf("2023-06-01", -2, "b"),
		cf("2023-01-01", -1, "a"),
		cf("2023-06-01", -3, "a"),
	}
	sortCashflows(flows)
	if flows[0].Date != MustParseDate("2023-01-01") {
		t.Errorf("first = %v", flows[0])
	}
	// Same day orders by asset.
	if flows[1].Asset != "a" || flows[2].Asset != "b" {
		t.Errorf("same-day order = %v, %v", flows[1], flows[2])
	}
}
