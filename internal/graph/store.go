// Package graph persists roles, KSA items and their Requires edges into a
// labeled property graph.
package graph

import (
	"context"

	"github.com/spigell/ksa-graph/internal/ksa"
)

// Role identifies the role node a run writes under.
type Role struct {
	Code  string
	Title string
}

// Delta holds the per-call creation counts. A second identical call must
// report zeros for the created fields.
type Delta struct {
	RolesCreated int
	ItemsCreated int
	ItemsUpdated int
	EdgesCreated int
}

// Store is the single persistence contract. PersistRun must execute as one
// atomic write: the role node, every item node keyed by content signature
// and a Requires edge per item, with first-seen timestamps set once and
// last-seen timestamps refreshed on every call. A non-empty incoming
// taxonomy identifier overwrites the stored one; an empty one never erases
// it.
type Store interface {
	EnsureSchema(ctx context.Context) error
	PersistRun(ctx context.Context, role Role, items []ksa.ItemDraft) (Delta, error)
	Close(ctx context.Context) error
}
