package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "esco.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing catalog file: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalogFile(t, strings.Join([]string{
		"ESCO_ID,Label,Alt_Labels",
		"S1.1.1,intelligence analysis,signal analysis;information analysis",
		"S2.2.2,database administration,",
		",missing id,",
	}, "\n"))

	catalog, err := LoadCatalog(path, 8, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if catalog.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", catalog.Len())
	}

	first := catalog.Entries()[0]
	if first.ID != "S1.1.1" || first.Label != "intelligence analysis" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if len(first.AltLabels) != 2 {
		t.Fatalf("expected 2 alt labels, got %v", first.AltLabels)
	}
}

func TestLoadCatalogCapsAltLabels(t *testing.T) {
	path := writeCatalogFile(t, strings.Join([]string{
		"id,label,alt_labels",
		"S1,analysis,a;b;c;d;e",
	}, "\n"))

	catalog, err := LoadCatalog(path, 3, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := catalog.Entries()[0].AltLabels; len(got) != 3 {
		t.Fatalf("expected alt labels capped at 3, got %v", got)
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.csv"), 8, zap.NewNop())
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}
	if catalog.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d entries", catalog.Len())
	}
}

func TestLoadCatalogRejectsHeaderlessFile(t *testing.T) {
	path := writeCatalogFile(t, "S1,analysis\nS2,reporting\n")

	if _, err := LoadCatalog(path, 8, zap.NewNop()); err == nil {
		t.Fatalf("expected error for file without identifier/label header")
	}
}
