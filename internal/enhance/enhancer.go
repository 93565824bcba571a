// Package enhance defines the capability boundary for generating additional
// Knowledge/Ability statements from a role description.
package enhance

import (
	"context"
	"fmt"

	"github.com/spigell/ksa-graph/internal/ksa"
	"github.com/spigell/ksa-graph/internal/roledoc"
)

// Enhancer synthesizes Knowledge/Ability drafts using the normalized text and
// the skill drafts extracted so far as context.
//
// Available reports whether the capability can be invoked at all; callers
// must check it before calling Enhance and treat false as a recoverable
// condition, not a failure.
type Enhancer interface {
	Available() bool
	Enhance(ctx context.Context, doc *roledoc.Document, skills []ksa.ItemDraft) ([]ksa.ItemDraft, error)
}

// EnhancementError is a genuine runtime failure of an available enhancer.
// Callers degrade to extractor-only output and record a warning.
type EnhancementError struct {
	Reason string
	Err    error
}

func (e *EnhancementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("enhancement failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("enhancement failed: %s", e.Reason)
}

func (e *EnhancementError) Unwrap() error { return e.Err }
