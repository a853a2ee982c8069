package patry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ExportJSON writes the snapshot's per-account subtotals into the given file,
// keyed by the snapshot date. Existing entries for other dates are preserved;
// an entry for the same date is replaced. The file is written to a temporary
// file and renamed, so a crash cannot corrupt previous exports.
func ExportJSON(path string, snap *PortfolioSnapshot) error {
	// Other dates' entries are kept as raw JSON so re-exporting never rewrites them.
	data := make(map[string]json.RawMessage)
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// first export, start empty
	case err != nil:
		return fmt.Errorf("could not read export file %q: %w", path, err)
	default:
		if err := json.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("could not parse export file %q: %w", path, err)
		}
	}

	entry, err := json.Marshal(snap.Subtotals())
	if err != nil {
		return err
	}
	data[snap.AsOf.String()] = entry

	out, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("could not create temporary export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not replace export file %q: %w", path, err)
	}
	return nil
}
