package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/ksa"
)

const (
	roleMergeQuery = `
MERGE (r:Role {code: $code})
ON CREATE SET r.created_at = $now
SET r.title = $title, r.updated_at = $now`

	itemMergeQuery = `
UNWIND $items AS item
MERGE (i:Item {content_signature: item.signature})
ON CREATE SET i.first_seen = $now
SET i.text = item.text,
    i.item_type = item.item_type,
    i.source = item.source,
    i.confidence = item.confidence,
    i.last_seen = $now
FOREACH (_ IN CASE WHEN item.taxonomy_id <> '' THEN [1] ELSE [] END |
    SET i.taxonomy_id = item.taxonomy_id)`

	edgeMergeQuery = `
MATCH (r:Role {code: $code})
UNWIND $signatures AS signature
MATCH (i:Item {content_signature: signature})
MERGE (r)-[e:Requires]->(i)
ON CREATE SET e.first_seen = $now
SET e.last_seen = $now`
)

var schemaQueries = []string{
	"CREATE CONSTRAINT role_code IF NOT EXISTS FOR (r:Role) REQUIRE r.code IS UNIQUE",
	"CREATE CONSTRAINT item_content_signature IF NOT EXISTS FOR (i:Item) REQUIRE i.content_signature IS UNIQUE",
}

// Neo4jConfig carries the connection settings for the graph database.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jStore persists runs into a Neo4j database. All writes of one run
// happen inside a single write transaction; creation counts come from the
// transaction summary counters.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger

	now func() time.Time
}

// NewNeo4j connects to the database and verifies connectivity.
func NewNeo4j(ctx context.Context, cfg Neo4jConfig, logger *zap.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Neo4jStore{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// EnsureSchema establishes the uniqueness constraints. Must run before the
// first write.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	for _, query := range schemaQueries {
		if _, err := session.Run(ctx, query, nil); err != nil {
			return fmt.Errorf("ensure graph schema: %w", err)
		}
	}

	return nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) PersistRun(ctx context.Context, role Role, items []ksa.ItemDraft) (Delta, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	now := s.now().UTC()

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		var delta Delta

		created, err := runCounted(ctx, tx, roleMergeQuery, map[string]any{
			"code":  role.Code,
			"title": role.Title,
			"now":   now,
		})
		if err != nil {
			return nil, fmt.Errorf("merge role: %w", err)
		}
		delta.RolesCreated = created.nodes

		if len(items) == 0 {
			return delta, nil
		}

		created, err = runCounted(ctx, tx, itemMergeQuery, map[string]any{
			"items": itemParams(items),
			"now":   now,
		})
		if err != nil {
			return nil, fmt.Errorf("merge items: %w", err)
		}
		delta.ItemsCreated = created.nodes
		delta.ItemsUpdated = len(items) - created.nodes

		created, err = runCounted(ctx, tx, edgeMergeQuery, map[string]any{
			"code":       role.Code,
			"signatures": signatures(items),
			"now":        now,
		})
		if err != nil {
			return nil, fmt.Errorf("merge edges: %w", err)
		}
		delta.EdgesCreated = created.relationships

		return delta, nil
	})
	if err != nil {
		return Delta{}, fmt.Errorf("persist run for role %s: %w", role.Code, err)
	}

	delta := result.(Delta)
	s.logger.Debug("persisted run",
		zap.String("role_code", role.Code),
		zap.Int("items", len(items)),
		zap.Int("items_created", delta.ItemsCreated),
		zap.Int("edges_created", delta.EdgesCreated),
	)

	return delta, nil
}

type createdCounts struct {
	nodes         int
	relationships int
}

func runCounted(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) (createdCounts, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return createdCounts{}, err
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return createdCounts{}, err
	}

	counters := summary.Counters()
	return createdCounts{
		nodes:         counters.NodesCreated(),
		relationships: counters.RelationshipsCreated(),
	}, nil
}

func itemParams(items []ksa.ItemDraft) []map[string]any {
	params := make([]map[string]any, 0, len(items))
	for _, item := range items {
		params = append(params, map[string]any{
			"signature":   item.Signature(),
			"text":        item.Text,
			"item_type":   string(item.Type),
			"source":      item.Source,
			"confidence":  item.Confidence,
			"taxonomy_id": item.TaxonomyID,
		})
	}
	return params
}

func signatures(items []ksa.ItemDraft) []string {
	sigs := make([]string, 0, len(items))
	for _, item := range items {
		sigs = append(sigs, item.Signature())
	}
	return sigs
}
