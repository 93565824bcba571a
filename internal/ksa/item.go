package ksa

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"
)

// Type is the closed set of KSA statement kinds.
type Type string

const (
	TypeKnowledge Type = "knowledge"
	TypeSkill     Type = "skill"
	TypeAbility   Type = "ability"
)

// Valid reports whether t is one of the three known kinds.
func (t Type) Valid() bool {
	switch t {
	case TypeKnowledge, TypeSkill, TypeAbility:
		return true
	}
	return false
}

// ParseType converts a free-form string into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown item type: %q", s)
	}
	return t, nil
}

// ItemDraft is a candidate KSA statement flowing through the pipeline.
// Drafts are value types: stages return modified copies and leave the
// originals alone.
type ItemDraft struct {
	Text       string
	Type       Type
	Confidence float64
	// Source labels the producer: heuristic, remote, gemini.
	Source string
	// TaxonomyID is a stable external identifier, attached by the aligner
	// or carried over from a remote extraction. Empty when unmatched.
	TaxonomyID string
	// Evidence describes how a remote extraction matched the statement.
	Evidence string
}

// WithTaxonomyID returns a copy of the draft with the identifier attached.
func (d ItemDraft) WithTaxonomyID(id string) ItemDraft {
	d.TaxonomyID = id
	return d
}

// CanonicalKey returns the duplicate-detection key for the draft text.
func (d ItemDraft) CanonicalKey() string {
	return CanonicalKey(d.Text)
}

// Signature returns the deterministic content fingerprint used as the
// persistence key. Two drafts whose text differs only in case, punctuation
// or whitespace share a signature as long as their types match.
func (d ItemDraft) Signature() string {
	sum := sha256.Sum256([]byte(d.CanonicalKey() + "|" + string(d.Type)))
	return fmt.Sprintf("%x", sum[:])
}

// CanonicalKey lowercases the text, strips punctuation and collapses
// whitespace. All-punctuation input yields an empty key.
func CanonicalKey(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
