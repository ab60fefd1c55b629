// Package export turns the store's phone records into CSV deliverables and
// merges exports from multiple crawl targets into one combined sheet.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dmaher/rentleads/internal/types"
)

// header is the CSV column layout. Readers key on these names, not positions.
var header = []string{"phone", "agent_name", "business_name", "addresses", "units"}

const addressSeparator = "; "

// WriteCSV writes records to path atomically: a temp file in the same
// directory is renamed over the target, so a crash mid-export never leaves a
// truncated sheet. Called after every stored candidate, the export on disk is
// always complete for everything stored so far.
func WriteCSV(path string, records []types.PhoneRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".export-*.csv")
	if err != nil {
		return fmt.Errorf("creating export temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing export header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Phone,
			rec.AgentName,
			rec.BusinessName,
			strings.Join(rec.Addresses, addressSeparator),
			strconv.Itoa(rec.Units),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("writing export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing export temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing export file: %w", err)
	}
	return nil
}

// ReadCSV loads a previously written export. Rows are mapped by column name so
// older exports with reordered or extra columns still load.
func ReadCSV(path string) ([]types.PhoneRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading export file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	get := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var records []types.PhoneRecord
	for _, row := range rows[1:] {
		rec := types.PhoneRecord{
			Phone:        get(row, "phone"),
			AgentName:    get(row, "agent_name"),
			BusinessName: get(row, "business_name"),
		}
		if rec.AgentName == "" {
			rec.AgentName = get(row, "manager_name")
		}
		if joined := get(row, "addresses"); joined != "" {
			for _, a := range strings.Split(joined, ";") {
				if a = strings.TrimSpace(a); a != "" {
					rec.Addresses = append(rec.Addresses, a)
				}
			}
		}
		sort.Strings(rec.Addresses)
		rec.Units = len(rec.Addresses)
		if rec.Phone != "" {
			records = append(records, rec)
		}
	}
	return records, nil
}

// WriteCombinedCSV writes a combined export with a trailing source column.
func WriteCombinedCSV(path string, records []types.CombinedRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".combined-*.csv")
	if err != nil {
		return fmt.Errorf("creating export temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(append(append([]string{}, header...), "source")); err != nil {
		tmp.Close()
		return fmt.Errorf("writing export header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Phone,
			rec.AgentName,
			rec.BusinessName,
			strings.Join(rec.Addresses, addressSeparator),
			strconv.Itoa(rec.Units),
			rec.Source,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("writing export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing export temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing export file: %w", err)
	}
	return nil
}
