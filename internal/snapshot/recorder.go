// Package snapshot writes a per-run traceability snapshot: the report, a
// tabular item export and the normalized text.
package snapshot

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/ksa"
)

var itemColumns = []string{"text", "type", "evidence", "confidence", "taxonomy_id", "canonical_key"}

// Recorder writes snapshots under <root>/<date>/<role_code>/.
type Recorder struct {
	root   string
	logger *zap.Logger

	now func() time.Time
}

// NewRecorder builds a recorder rooted at the given directory.
func NewRecorder(root string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{root: root, logger: logger, now: time.Now}
}

// Record writes report.json, items.csv and normalized.txt for one run and
// returns the snapshot directory. The report is any JSON-marshalable value.
func (r *Recorder) Record(code string, report any, items []ksa.ItemDraft, normalized string) (string, error) {
	dir := filepath.Join(r.root, r.now().Format("2006-01-02"), code)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	if err := r.writeReport(filepath.Join(dir, "report.json"), report); err != nil {
		return "", err
	}
	if err := r.writeItems(filepath.Join(dir, "items.csv"), items); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "normalized.txt"), []byte(normalized), 0o644); err != nil {
		return "", fmt.Errorf("write normalized text: %w", err)
	}

	r.logger.Info("run snapshot written", zap.String("dir", dir), zap.Int("items", len(items)))

	return dir, nil
}

func (r *Recorder) writeReport(path string, report any) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (r *Recorder) writeItems(path string, items []ksa.ItemDraft) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create item export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(itemColumns); err != nil {
		return fmt.Errorf("write item export header: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.Text,
			string(item.Type),
			item.Evidence,
			strconv.FormatFloat(item.Confidence, 'f', -1, 64),
			item.TaxonomyID,
			item.CanonicalKey(),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write item export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush item export: %w", err)
	}

	return nil
}
