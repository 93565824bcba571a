package extract

import (
	"context"
	"strings"
	"unicode"

	"github.com/spigell/ksa-graph/internal/ksa"
	"github.com/spigell/ksa-graph/internal/roledoc"
)

const (
	heuristicSource = "heuristic"
	// Candidates shorter than this many tokens are noise.
	defaultMinTokens = 3
	// Fixed moderate confidence for pattern-matched candidates.
	heuristicConfidence = 0.6
)

// Heuristic treats bulleted and lowercase-leading lines of the normalized
// text as skill candidates. It is the fallback when no remote extraction
// service is configured.
type Heuristic struct {
	minTokens int
}

// NewHeuristic builds the fallback extractor.
func NewHeuristic() *Heuristic {
	return &Heuristic{minTokens: defaultMinTokens}
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Extract(_ context.Context, doc *roledoc.Document) ([]ksa.ItemDraft, error) {
	var items []ksa.ItemDraft

	for _, line := range strings.Split(doc.Normalized, "\n") {
		candidate, ok := h.candidate(line)
		if !ok {
			continue
		}

		items = append(items, ksa.ItemDraft{
			Text:       candidate,
			Type:       ksa.TypeSkill,
			Confidence: heuristicConfidence,
			Source:     heuristicSource,
		})
	}

	return items, nil
}

// candidate strips bullet markers and decides whether a line looks like a
// skill statement.
func (h *Heuristic) candidate(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}

	bulleted := false
	for _, marker := range []string{"- ", "* "} {
		if strings.HasPrefix(line, marker) {
			line = strings.TrimSpace(strings.TrimPrefix(line, marker))
			bulleted = true
			break
		}
	}

	if !bulleted && !startsLowercase(line) {
		return "", false
	}

	if len(strings.Fields(line)) < h.minTokens {
		return "", false
	}

	return strings.TrimRight(line, "."), true
}

func startsLowercase(line string) bool {
	for _, r := range line {
		return unicode.IsLower(r)
	}
	return false
}
