// Package extract produces initial skill candidates from a normalized role
// description, either heuristically or through a remote skill-extraction
// service.
package extract

import (
	"context"

	"github.com/spigell/ksa-graph/internal/ksa"
	"github.com/spigell/ksa-graph/internal/roledoc"
)

// Extractor produces skill-type drafts from a role document. An empty
// result is valid: a description without recognizable candidates is not an
// error.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, doc *roledoc.Document) ([]ksa.ItemDraft, error)
}
