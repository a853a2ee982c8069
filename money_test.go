package patry

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMConstructors(t *testing.T) {
	want := M(10.0, "CLP")
	if got := M(10, "CLP"); !got.Equal(want) {
		t.Errorf("M(int) = %v, want %v", got, want)
	}
	if got := M(decimal.NewFromInt(10), "CLP"); !got.Equal(want) {
		t.Errorf("M(decimal) = %v, want %v", got, want)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := M(1000, "CLP"), M(500, "CLP")
	if got := a.Add(b); !got.Equal(M(1500, "CLP")) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Sub(b); !got.Equal(M(500, "CLP")) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Neg(); !got.Equal(M(-1000, "CLP")) {
		t.Errorf("Neg = %v", got)
	}
}

// The zero Money carries no currency: it must sum with any currency, so the
// accumulators can start from the zero value.
func TestMoneyWeakZeroCurrency(t *testing.T) {
	var zero Money
	got := zero.Add(M(42, "USD"))
	if got.Currency() != "USD" {
		t.Errorf("currency = %q, want USD", got.Currency())
	}
	if !got.Equal(M(42, "USD")) {
		t.Errorf("value = %v, want $42", got)
	}
}

func TestMoneyString(t *testing.T) {
	if got := M(1500, "USD").String(); got != "$1,500.00" {
		t.Errorf("String = %q", got)
	}
}

func TestMoneySignedString(t *testing.T) {
	if got := M(0, "CLP").SignedString(); got != "-" {
		t.Errorf("zero = %q, want -", got)
	}
	if got := M(1500, "USD").SignedString(); got != "+$1,500.00" {
		t.Errorf("positive = %q", got)
	}
}

func TestMoneyDivRate(t *testing.T) {
	clp := M(900000, "CLP")
	usd := clp.DivRate(decimal.NewFromInt(900), "USD")
	if usd.Currency() != "USD" {
		t.Errorf("currency = %q, want USD", usd.Currency())
	}
	if !usd.Decimal().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("value = %v, want 1000", usd.Decimal())
	}
}

func TestPercent(t *testing.T) {
	p := Percent(6.7)
	if got := p.String(); got != "6.70%" {
		t.Errorf("String = %q", got)
	}
	if got := p.Rate(); got != 0.067 {
		t.Errorf("Rate = %v", got)
	}
	if got := Percent(0).SignedString(); got != "-" {
		t.Errorf("zero SignedString = %q", got)
	}
	if got := Percent(-2.5).SignedString(); got != "-2.50%" {
		t.Errorf("negative SignedString = %q", got)
	}
	if !p.Equal(6.70001) {
		t.Error("Equal should tolerate sub-precision noise")
	}
	if p.Equal(6.8) {
		t.Error("Equal should reject a real difference")
	}
}
