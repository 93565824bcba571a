package graph

import (
	"testing"

	"github.com/spigell/ksa-graph/internal/ksa"
)

func TestItemParams(t *testing.T) {
	items := []ksa.ItemDraft{
		{Text: "Analyzes intelligence information", Type: ksa.TypeSkill, Confidence: 0.8, Source: "heuristic", TaxonomyID: "S1"},
	}

	params := itemParams(items)
	if len(params) != 1 {
		t.Fatalf("expected 1 param map, got %d", len(params))
	}

	p := params[0]
	if p["signature"] != items[0].Signature() {
		t.Fatalf("unexpected signature param: %v", p["signature"])
	}
	if p["item_type"] != "skill" {
		t.Fatalf("item_type must be the string form, got %v", p["item_type"])
	}
	if p["taxonomy_id"] != "S1" || p["confidence"] != 0.8 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestSignaturesAlignWithItemParams(t *testing.T) {
	items := []ksa.ItemDraft{
		{Text: "a b c", Type: ksa.TypeSkill},
		{Text: "d e f", Type: ksa.TypeAbility},
	}

	sigs := signatures(items)
	params := itemParams(items)

	for i := range items {
		if sigs[i] != params[i]["signature"] {
			t.Fatalf("signature order mismatch at %d", i)
		}
	}
}
