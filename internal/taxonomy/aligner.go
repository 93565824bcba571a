package taxonomy

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/ksa"
)

// Thresholds are the per-type minimum similarity scores. Knowledge and
// ability statements carry linguistic framing that skill phrases lack, so
// they need a stricter cut-off. The defaults are tuned constants with no
// calibration behind them; treat them as a starting point.
type Thresholds struct {
	Skill     float64
	Knowledge float64
	Ability   float64
}

// DefaultThresholds returns the shipped defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Skill: 0.72, Knowledge: 0.80, Ability: 0.80}
}

// Hybrid similarity weights: token-set overlap dominates, a character-level
// Sorensen-Dice similarity breaks up false token matches.
const (
	tokenWeight    = 0.6
	sequenceWeight = 0.4
)

// Type-specific phrase prefixes stripped before matching.
var matchPrefixes = []string{
	"knowledge of",
	"ability to",
	"skill in",
	"skilled in",
	"proficiency in",
}

// Aligner decorates drafts with taxonomy identifiers. It holds the shared
// read-only catalog and never mutates input drafts.
type Aligner struct {
	catalog    *Catalog
	thresholds Thresholds
	sequence   *metrics.SorensenDice
	logger     *zap.Logger
}

// NewAligner builds an aligner over the provided catalog.
func NewAligner(catalog *Catalog, thresholds Thresholds, logger *zap.Logger) *Aligner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aligner{
		catalog:    catalog,
		thresholds: thresholds,
		sequence:   metrics.NewSorensenDice(),
		logger:     logger,
	}
}

// Align returns a new slice in which every draft lacking a taxonomy
// identifier has been scored against the catalog and, when the best score
// meets the per-type threshold, decorated with the matched entry's ID.
// An empty catalog makes this a pass-through.
func (a *Aligner) Align(items []ksa.ItemDraft) []ksa.ItemDraft {
	if a == nil || a.catalog.Len() == 0 {
		return items
	}

	out := make([]ksa.ItemDraft, 0, len(items))
	matched := 0
	for _, item := range items {
		if item.TaxonomyID != "" {
			out = append(out, item)
			continue
		}

		entry, score, ok := a.bestMatch(item.Text, item.Type)
		if !ok {
			out = append(out, item)
			continue
		}

		matched++
		a.logger.Debug("aligned item to taxonomy entry",
			zap.String("item", item.Text),
			zap.String("taxonomy_id", entry.ID),
			zap.String("label", entry.Label),
			zap.Float64("score", score),
		)
		out = append(out, item.WithTaxonomyID(entry.ID))
	}

	if matched > 0 {
		a.logger.Info("taxonomy alignment",
			zap.Int("initial", len(items)),
			zap.Int("matched", matched),
		)
	}

	return out
}

// bestMatch scores the text against every label of every entry and returns
// the best entry when its score meets the type threshold. A score exactly
// equal to the threshold is accepted.
func (a *Aligner) bestMatch(text string, t ksa.Type) (Entry, float64, bool) {
	candidate := normalizeForMatch(text, t)
	if candidate == "" {
		return Entry{}, 0, false
	}

	var (
		best      Entry
		bestScore float64
	)
	for _, entry := range a.catalog.Entries() {
		score := a.score(candidate, entry.Label)
		for _, alt := range entry.AltLabels {
			if s := a.score(candidate, alt); s > score {
				score = s
			}
		}
		if score > bestScore {
			best = entry
			bestScore = score
		}
	}

	if bestScore >= a.threshold(t) {
		return best, bestScore, true
	}
	return Entry{}, bestScore, false
}

func (a *Aligner) threshold(t ksa.Type) float64 {
	switch t {
	case ksa.TypeKnowledge:
		return a.thresholds.Knowledge
	case ksa.TypeAbility:
		return a.thresholds.Ability
	default:
		return a.thresholds.Skill
	}
}

func (a *Aligner) score(candidate, label string) float64 {
	label = strings.Join(strings.Fields(strings.ToLower(label)), " ")
	if label == "" {
		return 0
	}

	return tokenWeight*tokenJaccard(candidate, label) +
		sequenceWeight*strutil.Similarity(candidate, label, a.sequence)
}

// normalizeForMatch lowercases, strips the type-specific leading phrase and
// collapses whitespace.
func normalizeForMatch(text string, t ksa.Type) string {
	s := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	s = strings.Trim(s, ".")

	for _, prefix := range matchPrefixes {
		if strings.HasPrefix(s, prefix+" ") {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}

	return s
}

// tokenJaccard computes set overlap between the word tokens of two strings.
func tokenJaccard(a, b string) float64 {
	left := tokenSet(a)
	right := tokenSet(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	intersection := 0
	for token := range left {
		if _, ok := right[token]; ok {
			intersection++
		}
	}
	union := len(left) + len(right) - intersection

	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}
