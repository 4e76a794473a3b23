package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// EntryRef locates an entry inside a message file.
type EntryRef struct {
	File  string
	Label string
	Text  string
}

// GraphQuerier reads the message graph.
type GraphQuerier struct {
	driver neo4j.DriverWithContext
}

// NewGraphQuerier creates a new graph querier.
func NewGraphQuerier(driver neo4j.DriverWithContext) *GraphQuerier {
	return &GraphQuerier{driver: driver}
}

// EntriesUsingTag returns every entry that uses the named control tag, ordered by file and position.
func (gq *GraphQuerier) EntriesUsingTag(ctx context.Context, tag string, limit int) ([]EntryRef, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (f:MessageFile)-[:HAS_ENTRY]->(e:Entry)-[:USES_TAG]->(:Tag {name: $tag})
		RETURN f.path AS file, e.label AS label, e.text AS text
		ORDER BY f.path, e.position
		LIMIT $limit
	`, map[string]any{"tag": tag, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("query entries using %s: %w", tag, err)
	}

	var refs []EntryRef
	for result.Next(ctx) {
		record := result.Record()
		file, _ := record.Get("file")
		label, _ := record.Get("label")
		text, _ := record.Get("text")

		refs = append(refs, EntryRef{
			File:  fmt.Sprintf("%v", file),
			Label: fmt.Sprintf("%v", label),
			Text:  fmt.Sprintf("%v", text),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read entries using %s: %w", tag, err)
	}

	return refs, nil
}

// TagUsage counts entries per tag name.
func (gq *GraphQuerier) TagUsage(ctx context.Context) (map[string]int64, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (:Entry)-[:USES_TAG]->(t:Tag)
		RETURN t.name AS name, count(*) AS uses
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("query tag usage: %w", err)
	}

	usage := make(map[string]int64)
	for result.Next(ctx) {
		record := result.Record()
		name, _ := record.Get("name")
		uses, _ := record.Get("uses")
		if n, ok := uses.(int64); ok {
			usage[fmt.Sprintf("%v", name)] = n
		}
	}
	return usage, result.Err()
}
