package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileSnapshot persists the table list as a JSON file next to the process:
// written on every mutation, validated on load, and discarded in favor of
// the empty fleet when corrupt.
type FileSnapshot struct {
	Path string
}

func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{Path: path}
}

func (f *FileSnapshot) Save(tables []Table) error {
	data, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("marshal tables: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot back. A missing file is not an error: it returns
// nil tables so the store starts from the fixed fleet. Corrupt or
// wrongly-shaped data is rejected the same way.
func (f *FileSnapshot) Load() ([]Table, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var tables []Table
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	for i := range tables {
		if !validTable(&tables[i]) {
			return nil, fmt.Errorf("snapshot entry %d has invalid shape", i)
		}
	}
	return tables, nil
}

// validTable checks the required shape before the snapshot is trusted. It
// also repairs the derived total when the stored one drifted from the lines.
func validTable(t *Table) bool {
	if t.ID <= 0 {
		return false
	}
	if t.Items == nil {
		return false
	}
	for _, line := range t.Items {
		if line.ItemID <= 0 || line.Quantity <= 0 || line.Price.IsNegative() {
			return false
		}
	}
	t.recalc()
	return true
}
