// Package consolidate canonicalizes the combined item set, drops duplicates
// and applies the confidence/anchoring quality gate.
package consolidate

import (
	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/ksa"
)

// Options control the quality gate.
type Options struct {
	// MinConfidence is the unconditional retention threshold.
	MinConfidence float64
	// Tolerance is the band below MinConfidence within which unanchored
	// items still survive.
	Tolerance float64
	// StrictSkills additionally requires low-confidence skill items to be
	// taxonomy-anchored. Knowledge/ability items keep the looser rule.
	StrictSkills bool
}

// DefaultOptions returns the shipped gate settings.
func DefaultOptions() Options {
	return Options{MinConfidence: 0.55, Tolerance: 0.05}
}

// Step reports what one consolidation stage did, in the same shape the
// pipeline logs for every stage.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Dedupe drops items whose canonical key was already seen in this batch.
// First occurrence wins and insertion order is preserved. Items with an
// empty canonical key are dropped outright.
func Dedupe(items []ksa.ItemDraft) ([]ksa.ItemDraft, Step) {
	seen := make(map[string]struct{}, len(items))
	out := make([]ksa.ItemDraft, 0, len(items))

	for _, item := range items {
		key := item.CanonicalKey()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}

	return out, Step{Initial: len(items), Dropped: len(items) - len(out), Left: len(out)}
}

// Gate applies the quality filter. An item survives when:
//   - its confidence meets MinConfidence, or
//   - it is anchored to a taxonomy entry, or
//   - its confidence falls within Tolerance below MinConfidence.
//
// With StrictSkills, a low-confidence skill survives only when anchored.
// Items with an invalid type or empty text never survive.
func Gate(items []ksa.ItemDraft, opts Options, logger *zap.Logger) ([]ksa.ItemDraft, Step) {
	out := make([]ksa.ItemDraft, 0, len(items))

	for _, item := range items {
		if !item.Type.Valid() || item.Text == "" {
			continue
		}
		if !survives(item, opts) {
			if logger != nil {
				logger.Debug("item dropped by quality gate",
					zap.String("text", item.Text),
					zap.String("type", string(item.Type)),
					zap.Float64("confidence", item.Confidence),
					zap.String("taxonomy_id", item.TaxonomyID),
				)
			}
			continue
		}
		out = append(out, item)
	}

	return out, Step{Initial: len(items), Dropped: len(items) - len(out), Left: len(out)}
}

func survives(item ksa.ItemDraft, opts Options) bool {
	if item.Confidence >= opts.MinConfidence {
		return true
	}

	anchored := item.TaxonomyID != ""

	if opts.StrictSkills && item.Type == ksa.TypeSkill {
		return anchored
	}

	return anchored || item.Confidence >= opts.MinConfidence-opts.Tolerance
}
