package patry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreMissingFileIsEmpty(t *testing.T) {
	s := NewStore(t.TempDir())
	flows, err := s.Load("nobody")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(flows) != 0 {
		t.Errorf("flows = %v, want empty", flows)
	}
}

func TestStoreAppendLoad(t *testing.T) {
	s := NewStore(t.TempDir())
	in := []Cashflow{
		cf("2023-06-01", -500, "risky"),
		cf("2023-01-01", -1000, "risky"),
	}
	if err := s.Append("fintual", in); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	flows, err := s.Load("fintual")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(flows) != 2 {
		t.Fatalf("len = %d, want 2", len(flows))
	}
	if flows[0].Date != MustParseDate("2023-01-01") {
		t.Errorf("not date-ordered: %v", flows)
	}
	if flows[0].Account != "fintual" {
		t.Errorf("account = %q, want the file's account", flows[0].Account)
	}
}

func TestStoreAppendIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	in := []Cashflow{cf("2023-01-01", -1000, "risky"), cf("2023-06-01", -500, "risky")}
	if err := s.Append("a", in); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(filepath.Join(dir, "a.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append("a", in); err != nil {
		t.Fatal(err)
	}
	after, err := os.ReadFile(filepath.Join(dir, "a.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("re-appending the same records changed the file")
	}
}

func TestStoreAppendIsAUnion(t *testing.T) {
	s := NewStore(t.TempDir())
	a := cf("2023-01-01", -1000, "x")
	b := cf("2023-02-01", -500, "x")
	c := cf("2023-03-01", -200, "x")
	if err := s.Append("acct", []Cashflow{a, b}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append("acct", []Cashflow{b, c}); err != nil {
		t.Fatal(err)
	}
	flows, err := s.Load("acct")
	if err != nil {
		t.Fatal(err)
	}
	if len(flows) != 3 {
		t.Errorf("len = %d, want 3 (union, not sum)", len(flows))
	}
}

func TestStoreAppendIgnoresRecordOrigin(t *testing.T) {
	s := NewStore(t.TempDir())
	// The cf helper stamps Account "test"; the file's account wins.
	fetched := []Cashflow{cf("2023-01-01", -1000, "x"), cf("2023-06-01", -500, "x")}
	if err := s.Append("fintual", fetched); err != nil {
		t.Fatal(err)
	}
	// Re-appending the same fetch result must match the persisted copies even
	// though their Account field differs from the store key.
	if err := s.Append("fintual", fetched); err != nil {
		t.Fatal(err)
	}
	flows, err := s.Load("fintual")
	if err != nil {
		t.Fatal(err)
	}
	if len(flows) != 2 {
		t.Errorf("store size = %d, want 2", len(flows))
	}
	for _, cf := range flows {
		if cf.Account != "fintual" {
			t.Errorf("account = %q, want the file's account", cf.Account)
		}
	}
}

func TestStoreRejectsUnsafeAccountNames(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, name := range []string{"", "../evil", "a/b", ".hidden"} {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Load(name); err == nil {
				t.Errorf("Load(%q) accepted an unsafe account name", name)
			}
			err := s.Append(name, []Cashflow{cf("2023-01-01", -1, "a")})
			if err == nil {
				t.Errorf("Append(%q) accepted an unsafe account name", name)
			}
		})
	}
}

func TestStoreAppendEmptyIsANoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	s := NewStore(dir)
	if err := s.Append("a", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Error("appending nothing should not create the store directory")
	}
}

func TestStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	path := filepath.Join(dir, "broken.jsonl")
	if err := os.WriteFile(path, []byte("this is not json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load("broken")
	var corrupt *CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Load error = %v, want *CorruptError", err)
	}
	if corrupt.Account != "broken" || corrupt.Path != path {
		t.Errorf("CorruptError = %+v", corrupt)
	}

	// Appending must refuse rather than destroy whatever is in the file.
	err = s.Append("broken", []Cashflow{cf("2023-01-01", -1, "a")})
	if !errors.As(err, &corrupt) {
		t.Fatalf("Append error = %v, want *CorruptError", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "this is not json\n" {
		t.Error("Append over a corrupt file modified it")
	}
}

func TestStoreLoadSince(t *testing.T) {
	s := NewStore(t.TempDir())
	in := []Cashflow{
		cf("2023-01-01", -1, "a"),
		cf("2023-06-01", -2, "a"),
		cf("2023-12-01", -3, "a"),
	}
	if err := s.Append("acct", in); err != nil {
		t.Fatal(err)
	}
	flows, err := s.LoadSince("acct", MustParseDate("2023-06-01"))
	if err != nil {
		t.Fatal(err)
	}
	if len(flows) != 2 || flows[0].Date != MustParseDate("2023-06-01") {
		t.Errorf("flows = %v, want the threshold day and later", flows)
	}
}

func TestStoreAccounts(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := s.Append("fintual", []Cashflow{cf("2023-01-01", -1, "a")}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append("extras", []Cashflow{cf("2023-01-01", -1, "a")}); err != nil {
		t.Fatal(err)
	}
	// Strays that must not be listed.
	os.WriteFile(filepath.Join(dir, ".hidden.jsonl"), nil, 0644)
	os.WriteFile(filepath.Join(dir, "README.md"), nil, 0644)

	accounts, err := s.Accounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 2 || accounts[0] != "extras" || accounts[1] != "fintual" {
		t.Errorf("accounts = %v, want [extras fintual]", accounts)
	}
}

func TestStoreAccountsMissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope"))
	accounts, err := s.Accounts()
	if err != nil || len(accounts) != 0 {
		t.Errorf("accounts = %v, err = %v, want empty and nil", accounts, err)
	}
}
