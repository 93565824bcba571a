package graph

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spigell/ksa-graph/internal/ksa"
)

// MemoryStore keeps the graph in process memory. It backs dry runs and
// tests, and mirrors the Neo4j store's upsert semantics exactly.
type MemoryStore struct {
	mu    sync.Mutex
	roles map[string]*roleNode
	items map[string]*ItemNode
	edges map[edgeKey]*edgeState

	now func() time.Time
}

type roleNode struct {
	Code      string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemNode is the stored shape of one KSA item.
type ItemNode struct {
	Signature  string
	Text       string
	Type       ksa.Type
	Source     string
	Confidence float64
	TaxonomyID string
	FirstSeen  time.Time
	LastSeen   time.Time
}

type edgeKey struct {
	RoleCode  string
	Signature string
}

type edgeState struct {
	FirstSeen time.Time
	LastSeen  time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		roles: make(map[string]*roleNode),
		items: make(map[string]*ItemNode),
		edges: make(map[edgeKey]*edgeState),
		now:   time.Now,
	}
}

func (s *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

func (s *MemoryStore) PersistRun(_ context.Context, role Role, items []ksa.ItemDraft) (Delta, error) {
	if role.Code == "" {
		return Delta{}, errors.New("role code is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var delta Delta

	r, ok := s.roles[role.Code]
	if !ok {
		r = &roleNode{Code: role.Code, CreatedAt: now}
		s.roles[role.Code] = r
		delta.RolesCreated++
	}
	r.Title = role.Title
	r.UpdatedAt = now

	for _, item := range items {
		sig := item.Signature()

		node, ok := s.items[sig]
		if !ok {
			node = &ItemNode{Signature: sig, FirstSeen: now}
			s.items[sig] = node
			delta.ItemsCreated++
		} else {
			delta.ItemsUpdated++
		}

		node.Text = item.Text
		node.Type = item.Type
		node.Source = item.Source
		node.Confidence = item.Confidence
		node.LastSeen = now
		if item.TaxonomyID != "" {
			node.TaxonomyID = item.TaxonomyID
		}

		key := edgeKey{RoleCode: role.Code, Signature: sig}
		edge, ok := s.edges[key]
		if !ok {
			edge = &edgeState{FirstSeen: now}
			s.edges[key] = edge
			delta.EdgesCreated++
		}
		edge.LastSeen = now
	}

	return delta, nil
}

// Item returns a copy of the stored item node, for inspection.
func (s *MemoryStore) Item(signature string) (ItemNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.items[signature]
	if !ok {
		return ItemNode{}, false
	}
	return *node, true
}

// Counts returns the total node and edge counts.
func (s *MemoryStore) Counts() (roles, items, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roles), len(s.items), len(s.edges)
}
