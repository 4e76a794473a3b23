package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"

	"msgstudio/internal/export"
)

// Connect opens a Neo4j driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}

// GraphBuilder records message files, their entries and the control tags
// each entry uses:
//
//	(:MessageFile)-[:HAS_ENTRY]->(:Entry)-[:USES_TAG]->(:Tag)
type GraphBuilder struct {
	driver neo4j.DriverWithContext
}

// NewGraphBuilder creates a new graph builder.
func NewGraphBuilder(driver neo4j.DriverWithContext) *GraphBuilder {
	return &GraphBuilder{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (gb *GraphBuilder) EnsureSchema(ctx context.Context) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:MessageFile) REQUIRE f.hash IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Tag) REQUIRE t.name IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// Write replaces the graph of one document.
func (gb *GraphBuilder) Write(ctx context.Context, doc export.Document) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (f:MessageFile {hash: $hash})
			SET f.path = $path
			WITH f
			OPTIONAL MATCH (f)-[:HAS_ENTRY]->(old:Entry)
			DETACH DELETE old
		`, map[string]any{"hash": doc.Hash, "path": doc.File})
		if err != nil {
			return nil, fmt.Errorf("upsert file node: %w", err)
		}

		for i, e := range doc.Entries {
			_, err := tx.Run(ctx, `
				MATCH (f:MessageFile {hash: $hash})
				MERGE (f)-[:HAS_ENTRY]->(e:Entry {label: $label})
				ON CREATE SET e.position = $position
				SET e.text = $text
				WITH e
				OPTIONAL MATCH (e)-[old:USES_TAG]->()
				DELETE old
				WITH DISTINCT e
				UNWIND $tags AS tag
				MERGE (t:Tag {name: tag})
				MERGE (e)-[:USES_TAG]->(t)
			`, map[string]any{
				"hash":     doc.Hash,
				"label":    e.Label,
				"text":     e.Text,
				"position": i,
				"tags":     entryTags(doc, i),
			})
			if err != nil {
				return nil, fmt.Errorf("add entry %s: %w", e.Label, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("write graph for %s: %w", doc.File, err)
	}

	log.Debug().Str("file", doc.File).Int("entries", len(doc.Entries)).Msg("Stored document in Neo4j")
	return nil
}

func (gb *GraphBuilder) Close(ctx context.Context) error {
	return gb.driver.Close(ctx)
}

func entryTags(doc export.Document, i int) []string {
	if i < len(doc.Tags) && doc.Tags[i] != nil {
		return doc.Tags[i]
	}
	return []string{}
}
