// Package taxonomy loads the external skills catalog and aligns candidate
// KSA statements to its entries via fuzzy matching.
package taxonomy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Entry is a read-only catalog record.
type Entry struct {
	ID        string
	Label     string
	AltLabels []string
}

// Catalog holds the full taxonomy, loaded once and shared read-only across
// all pipeline runs. There is no invalidation path.
type Catalog struct {
	entries []Entry
}

const defaultMaxAltLabels = 8

// NewCatalog builds a catalog from pre-built entries. It exists for
// injecting controlled catalogs in tests and seeded setups.
func NewCatalog(entries []Entry) *Catalog {
	return &Catalog{entries: entries}
}

// LoadCatalog reads an ESCO-style CSV file. Header columns are matched
// case-insensitively: an identifier column (esco_id / id / identifier), a
// label column and an optional alt_labels column with semicolon-separated
// synonyms, truncated to maxAlt per entry.
//
// A missing file yields an empty catalog, not an error: alignment then
// degrades to a pass-through.
func LoadCatalog(path string, maxAlt int, logger *zap.Logger) (*Catalog, error) {
	if maxAlt <= 0 {
		maxAlt = defaultMaxAltLabels
	}

	if strings.TrimSpace(path) == "" {
		return &Catalog{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if logger != nil {
				logger.Warn("taxonomy catalog file not found, alignment disabled", zap.String("path", path))
			}
			return &Catalog{}, nil
		}
		return nil, fmt.Errorf("open taxonomy catalog: %w", err)
	}
	defer f.Close()

	catalog, err := readCatalog(f, maxAlt)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy catalog %q: %w", path, err)
	}

	if logger != nil {
		logger.Info("taxonomy catalog loaded",
			zap.String("path", path),
			zap.Int("entries", catalog.Len()),
		)
	}

	return catalog, nil
}

func readCatalog(r io.Reader, maxAlt int) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Catalog{}, nil
		}
		return nil, err
	}

	idCol, labelCol, altCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "esco_id", "id", "identifier":
			idCol = i
		case "label":
			labelCol = i
		case "alt_labels", "altlabels":
			altCol = i
		}
	}
	if idCol < 0 || labelCol < 0 {
		return nil, fmt.Errorf("identifier and label columns are required, got header %v", header)
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if idCol >= len(record) || labelCol >= len(record) {
			continue
		}

		entry := Entry{
			ID:    strings.TrimSpace(record[idCol]),
			Label: strings.TrimSpace(record[labelCol]),
		}
		if entry.ID == "" || entry.Label == "" {
			continue
		}

		if altCol >= 0 && altCol < len(record) {
			for _, alt := range strings.Split(record[altCol], ";") {
				if alt = strings.TrimSpace(alt); alt == "" {
					continue
				}
				entry.AltLabels = append(entry.AltLabels, alt)
				if len(entry.AltLabels) == maxAlt {
					break
				}
			}
		}

		entries = append(entries, entry)
	}

	return &Catalog{entries: entries}, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns the loaded entries. Callers must treat them as read-only.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return c.entries
}
