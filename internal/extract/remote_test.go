package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/roledoc"
)

func TestRemoteExtract(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req["text"] == "" {
			t.Errorf("expected text in request body")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"skill": "intelligence analysis", "confidence": 0.91, "taxonomy_id": "S1", "evidence": "exact"},
				{"skill": "database administration", "confidence": "0.8"},
				{"skill": "", "confidence": 0.9},
			},
		})
	}))
	defer server.Close()

	client := NewRemote(server.URL, "secret", zap.NewNop())

	items, err := client.Extract(context.Background(), &roledoc.Document{Normalized: "some text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items (empty skill dropped), got %d", len(items))
	}

	first := items[0]
	if first.Text != "intelligence analysis" || first.TaxonomyID != "S1" || first.Evidence != "exact" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.Source != remoteSource {
		t.Fatalf("expected remote source, got %q", first.Source)
	}

	// String confidence is weakly decoded.
	if items[1].Confidence != 0.8 {
		t.Fatalf("expected weak-decoded confidence 0.8, got %v", items[1].Confidence)
	}
}

func TestRemoteExtractBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRemote(server.URL, "", zap.NewNop())

	if _, err := client.Extract(context.Background(), &roledoc.Document{Normalized: "text"}); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}
