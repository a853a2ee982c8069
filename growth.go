package patry

import (
	"math"
)

// daysPerYear is the annualization basis for growth rates.
const daysPerYear = 365.0

const (
	// rateTolerance is the absolute convergence tolerance on the discounted sum.
	rateTolerance = 1e-6
	// maxIterations bounds the Newton-Raphson loop.
	maxIterations = 100
	// maxBisections bounds the bisection fallback.
	maxBisections = 200
	// minRate and maxRate bracket the search: a yearly loss of 99.99% up to +1000%.
	minRate = -0.9999
	maxRate = 10.0
)

// point is a cashflow expressed for the solver: a signed amount at a time
// offset in years from the series start.
type point struct {
	years  float64
	amount float64
}

// Rate computes the annualized internal rate of return of an irregular
// cashflow series, with the terminal valuation acting as one final positive
// cashflow at the given date. It solves for r such that
//
//	sum(amount_i * (1+r)^(-years_i)) == 0
//
// on a 365-day basis using Newton-Raphson with a bisection fallback.
//
// The rate is undefined when fewer than two dated cashflows exist
// (ErrInsufficientData), when every signed amount shares the same sign
// (ErrNoSignChange), or when the solver exhausts its budget
// (ErrNoConvergence). Negative rates are valid and never clamped.
func Rate(flows []Cashflow, terminalValue Money, on Date) (Percent, error) {
	if len(flows) == 0 {
		return 0, ErrInsufficientData
	}

	start := flows[0].Date
	for _, cf := range flows[1:] {
		if cf.Date.Before(start) {
			start = cf.Date
		}
	}

	points := make([]point, 0, len(flows)+1)
	for _, cf := range flows {
		points = append(points, point{
			years:  float64(cf.Date.DaysSince(start)) / daysPerYear,
			amount: cf.Amount.AsFloat(),
		})
	}
	if !terminalValue.IsZero() {
		points = append(points, point{
			years:  float64(on.DaysSince(start)) / daysPerYear,
			amount: terminalValue.AsFloat(),
		})
	}

	if len(points) < 2 {
		return 0, ErrInsufficientData
	}
	positive, negative := false, false
	for _, p := range points {
		if p.amount > 0 {
			positive = true
		}
		if p.amount < 0 {
			negative = true
		}
	}
	if !positive || !negative {
		return 0, ErrNoSignChange
	}

	r, err := solve(points)
	if err != nil {
		return 0, err
	}
	return Percent(100 * r), nil
}

// CAGR computes the compound annual growth rate for a single cashflow held
// until the terminal date. It is the degenerate case of Rate where the series
// has exactly one movement.
func CAGR(flow Cashflow, terminalValue Money, on Date) (Percent, error) {
	days := on.DaysSince(flow.Date)
	outlay := flow.Amount.Neg().AsFloat()
	if days <= 0 || outlay <= 0 {
		return 0, ErrInsufficientData
	}
	value := terminalValue.AsFloat()
	if value <= 0 {
		return 0, ErrNoSignChange
	}
	r := math.Pow(value/outlay, daysPerYear/float64(days)) - 1
	return Percent(100 * r), nil
}

// AssetRate returns the annualized growth rate of one asset: CAGR for a
// single movement, internal rate of return for a composite series.
func AssetRate(flows []Cashflow, terminalValue Money, on Date) (Percent, error) {
	switch len(flows) {
	case 0:
		return 0, ErrInsufficientData
	case 1:
		return CAGR(flows[0], terminalValue, on)
	default:
		return Rate(flows, terminalValue, on)
	}
}

// WeightedYears returns the outlay-weighted investment time in years.
// The second return is false when the series' outlay is zero.
func WeightedYears(flows []Cashflow, on Date) (float64, bool) {
	outlay := Outlay(flows).AsFloat()
	if outlay == 0 {
		return 0, false
	}
	var weightedDays float64
	for _, cf := range flows {
		weightedDays += cf.Amount.Neg().AsFloat() * float64(on.DaysSince(cf.Date))
	}
	return weightedDays / outlay / daysPerYear, true
}

// npv evaluates the discounted sum and its derivative with respect to r.
func npv(points []point, r float64) (value, derivative float64) {
	for _, p := range points {
		discount := math.Pow(1+r, -p.years)
		value += p.amount * discount
		derivative += p.amount * -p.years * math.Pow(1+r, -p.years-1)
	}
	return value, derivative
}

// solve finds the root of the discounted sum: Newton-Raphson from a neutral
// guess, falling back to bracketing and bisection when Newton leaves the
// valid domain, stalls, or oscillates.
func solve(points []point) (float64, error) {
	r := 0.1
	for i := 0; i < maxIterations; i++ {
		value, derivative := npv(points, r)
		if math.Abs(value) < rateTolerance {
			return r, nil
		}
		if derivative == 0 || math.IsNaN(derivative) {
			break
		}
		next := r - value/derivative
		if math.IsNaN(next) || next <= minRate || next >= maxRate {
			break
		}
		r = next
	}
	if value, _ := npv(points, r); math.Abs(value) < rateTolerance {
		return r, nil
	}
	return bisect(points)
}

// bisect brackets a sign change of the discounted sum on a coarse grid over
// [minRate, maxRate] and narrows it down.
func bisect(points []point) (float64, error) {
	const gridSteps = 400
	lo, hi := math.NaN(), math.NaN()
	prev := minRate
	prevValue, _ := npv(points, prev)
	if prevValue == 0 {
		return prev, nil
	}
	for i := 1; i <= gridSteps; i++ {
		r := minRate + (maxRate-minRate)*float64(i)/gridSteps
		value, _ := npv(points, r)
		// A grid point can land exactly on the root.
		if value == 0 {
			return r, nil
		}
		if prevValue*value < 0 {
			lo, hi = prev, r
			break
		}
		prev, prevValue = r, value
	}
	if math.IsNaN(lo) {
		return 0, ErrNoConvergence
	}

	loValue, _ := npv(points, lo)
	for i := 0; i < maxBisections; i++ {
		mid := (lo + hi) / 2
		value, _ := npv(points, mid)
		if math.Abs(value) < rateTolerance {
			return mid, nil
		}
		if loValue*value < 0 {
			hi = mid
		} else {
			lo, loValue = mid, value
		}
	}
	return 0, ErrNoConvergence
}
