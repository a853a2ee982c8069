package cmd

import (
	"testing"

	"github.com/etnz/patry"
	"github.com/rs/zerolog"
)

func flow(date string, amount float64) patry.Cashflow {
	return patry.Cashflow{
		Date:    patry.MustParseDate(date),
		Amount:  patry.M(amount, patry.DefaultCurrency),
		Account: "test",
		Asset:   "Fund",
	}
}

func TestUpTo(t *testing.T) {
	flows := []patry.Cashflow{
		flow("2023-01-01", -1000),
		flow("2023-06-01", -500),
		flow("2023-12-01", -200),
	}
	got := upTo(flows, patry.MustParseDate("2023-06-01"))
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (the boundary day included)", len(got))
	}
	if got[1].Date != patry.MustParseDate("2023-06-01") {
		t.Errorf("last = %v", got[1])
	}
}

func TestReconcile(t *testing.T) {
	flows := []patry.Cashflow{
		flow("2023-01-01", -1000),
		flow("2023-06-01", -500),
	}
	log := zerolog.Nop()

	// In agreement: nothing to do.
	got := reconcile(log, "Fund", flows, patry.M(1500, "CLP"))
	if len(got) != 2 {
		t.Errorf("len = %d, want the full series", len(got))
	}

	// The institution recorded the total before the last movement settled.
	got = reconcile(log, "Fund", flows, patry.M(1000, "CLP"))
	if len(got) != 1 || got[0].Date != patry.MustParseDate("2023-01-01") {
		t.Errorf("got = %v, want the trailing cashflow dropped", got)
	}

	// A disagreement the trim does not explain keeps the series intact.
	got = reconcile(log, "Fund", flows, patry.M(999, "CLP"))
	if len(got) != 2 {
		t.Errorf("len = %d, want the full series kept", len(got))
	}

	// A single record is never trimmed.
	got = reconcile(log, "Fund", flows[:1], patry.M(42, "CLP"))
	if len(got) != 1 {
		t.Errorf("len = %d", len(got))
	}
}
