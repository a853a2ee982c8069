package patry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const storeExt = ".jsonl"

// Store is the durable per-account record of cashflows. Each account owns one
// JSONL file under the store directory; a missing file is a valid empty state.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created lazily on
// the first append.
func NewStore(dir string) *Store { return &Store{dir: dir} }

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(account string) string {
	return filepath.Join(s.dir, account+storeExt)
}

// validAccount rejects account names that would escape the store directory
// or collide with the temporary files written during an append.
func validAccount(account string) error {
	if account == "" || account != filepath.Base(account) || strings.HasPrefix(account, ".") {
		return fmt.Errorf("invalid account name %q", account)
	}
	return nil
}

// Load returns the account's records in non-decreasing date order.
// A missing file returns an empty sequence; a malformed file returns a *CorruptError.
func (s *Store) Load(account string) ([]Cashflow, error) {
	if err := validAccount(account); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(account))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open cashflow file for account %q: %w", account, err)
	}
	defer f.Close()

	flows, err := DecodeCashflows(f, account)
	if err != nil {
		return nil, &CorruptError{Account: account, Path: s.path(account), Err: err}
	}
	return flows, nil
}

// LoadSince returns the account's records dated on or after the given date,
// in non-decreasing date order.
func (s *Store) LoadSince(account string, from Date) ([]Cashflow, error) {
	flows, err := s.Load(account)
	if err != nil {
		return nil, err
	}
	return filterSince(flows, from), nil
}

// Append merges records into the account's persisted state. The merge is
// set-like on full record equality: appending the same set twice leaves the
// file unchanged. The new state is written to a temporary file and renamed
// over the old one, so a crash mid-append cannot corrupt previous records.
// Appending over a malformed file fails with a *CorruptError without writing.
func (s *Store) Append(account string, records []Cashflow) error {
	if len(records) == 0 {
		return nil
	}
	existing, err := s.Load(account)
	if err != nil {
		return err
	}
	// The file's account is authoritative: loaded records are stamped with it,
	// so incoming records must carry it too or re-appends would never match.
	normalized := make([]Cashflow, len(records))
	for i, r := range records {
		r.Account = account
		normalized[i] = r
	}
	merged := mergeCashflows(existing, normalized)
	if len(merged) == len(existing) {
		return nil // nothing new, the file is already up to date
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("could not create store directory %q: %w", s.dir, err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+account+"-*")
	if err != nil {
		return fmt.Errorf("could not create temporary cashflow file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := EncodeCashflows(tmp, merged); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temporary cashflow file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(account)); err != nil {
		return fmt.Errorf("could not replace cashflow file for account %q: %w", account, err)
	}
	return nil
}

// Accounts lists the accounts that have a persisted cashflow file.
func (s *Store) Accounts() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var accounts []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, storeExt) || strings.HasPrefix(name, ".") {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(name, storeExt))
	}
	sort.Strings(accounts)
	return accounts, nil
}
