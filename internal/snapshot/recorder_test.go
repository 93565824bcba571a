package snapshot

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/ksa"
)

func TestRecord(t *testing.T) {
	root := t.TempDir()

	recorder := NewRecorder(root, zap.NewNop())
	recorder.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}

	report := map[string]any{"role_code": "1N0X1", "warnings": []string{}}
	items := []ksa.ItemDraft{
		{Text: "Analyzes intelligence information", Type: ksa.TypeSkill, Confidence: 0.8, TaxonomyID: "S1", Evidence: "exact"},
	}

	dir, err := recorder.Record("1N0X1", report, items, "normalized body\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := filepath.Join(root, "2026-08-30", "1N0X1"); dir != want {
		t.Fatalf("unexpected snapshot dir: %q, want %q", dir, want)
	}

	reportData, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(reportData, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded["role_code"] != "1N0X1" {
		t.Fatalf("unexpected report contents: %v", decoded)
	}

	f, err := os.Open(filepath.Join(dir, "items.csv"))
	if err != nil {
		t.Fatalf("opening item export: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading item export: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d records", len(records))
	}
	if records[0][0] != "text" || records[0][5] != "canonical_key" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	row := records[1]
	if row[0] != "Analyzes intelligence information" || row[1] != "skill" || row[4] != "S1" {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[5] != "analyzes intelligence information" {
		t.Fatalf("unexpected canonical key: %q", row[5])
	}

	text, err := os.ReadFile(filepath.Join(dir, "normalized.txt"))
	if err != nil {
		t.Fatalf("reading normalized text: %v", err)
	}
	if string(text) != "normalized body\n" {
		t.Fatalf("unexpected normalized text: %q", text)
	}
}

func TestRecordFailsWhenRootIsAFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing blocker file: %v", err)
	}

	recorder := NewRecorder(root, zap.NewNop())

	if _, err := recorder.Record("1N0X1", map[string]any{}, nil, ""); err == nil {
		t.Fatalf("expected error when snapshot root is a file")
	}
}
