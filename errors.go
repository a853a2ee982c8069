package patry

import (
	"errors"
	"fmt"
)

// Solver outcomes for the growth calculator. All of them mean "rate
// undefined", never zero.
var (
	// ErrInsufficientData is returned when fewer than two dated cashflows exist.
	ErrInsufficientData = errors.New("growth: fewer than two dated cashflows")
	// ErrNoSignChange is returned when all signed amounts share the same sign.
	ErrNoSignChange = errors.New("growth: no sign change in cashflow series")
	// ErrNoConvergence is returned when the solver exhausts its iteration budget.
	ErrNoConvergence = errors.New("growth: solver did not converge")
)

// ErrUnknownAccount is returned when no fetcher is registered for an account.
var ErrUnknownAccount = errors.New("no fetcher registered for account")

// FetchError reports a failed adapter fetch for one account. It is non-fatal
// to the run: the assembler records it against the account's row.
type FetchError struct {
	Account string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for account %q: %v", e.Account, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UnsupportedError reports an option requested on an account whose fetcher
// has no such capability, e.g. historical reconstruction.
type UnsupportedError struct {
	Account string
	Option  string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("account %q does not support %s", e.Account, e.Option)
}

// CorruptError reports a malformed persisted cashflow file. Readers degrade
// to an empty history for that account; writers refuse to touch the file.
type CorruptError struct {
	Account string
	Path    string
	Err     error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt cashflow file %q for account %q: %v", e.Path, e.Account, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }
