// Package export persists the audit trail to disk so that settlements
// can be verified independently of the running process.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gridflex/gridflex/core/audit"
)

// WriteFile exports the ledger to path in the given format ("json" for a
// single indented array, "jsonl" for one entry per line). The file is
// replaced atomically so a crashed export never leaves a half-written
// trail behind.
func WriteFile(path, format string, l *audit.Ledger) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".audit-*.tmp")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	switch format {
	case "json":
		err = l.Export(tmp)
	case "jsonl":
		err = writeJSONL(tmp, l.Entries())
	default:
		err = fmt.Errorf("unknown export format %s", format)
	}
	if err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeJSONL(f *os.File, entries []audit.Entry) error {
	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile loads a previously exported audit trail. Both formats are
// accepted; jsonl is detected by the leading byte.
func ReadFile(path string) ([]audit.Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '[' {
		var entries []audit.Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decode export: %w", err)
		}
		return entries, nil
	}
	var entries []audit.Entry
	dec := json.NewDecoder(bytes.NewReader(raw))
	for dec.More() {
		var e audit.Entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode export line %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
