package graph

import (
	"context"
	"fmt"

	"modloc/internal/pairs"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// GraphQuerier reads glossary terms from Neo4j.
type GraphQuerier struct {
	driver neo4j.DriverWithContext
}

// NewGraphQuerier creates a new graph querier.
func NewGraphQuerier(driver neo4j.DriverWithContext) *GraphQuerier {
	return &GraphQuerier{driver: driver}
}

// Terminology returns every glossary term ordered by English text.
func (gq *GraphQuerier) Terminology(ctx context.Context) (*pairs.PairMap, error) {
	return gq.collect(ctx, `
		MATCH (t:Term)
		RETURN t.english AS english, t.russian AS russian
		ORDER BY t.english
	`, nil)
}

// ModTerminology returns the terms used by one mod.
func (gq *GraphQuerier) ModTerminology(ctx context.Context, mod string) (*pairs.PairMap, error) {
	return gq.collect(ctx, `
		MATCH (:Mod {name: $mod})-[:USES]->(t:Term)
		RETURN t.english AS english, t.russian AS russian
		ORDER BY t.english
	`, map[string]any{"mod": mod})
}

func (gq *GraphQuerier) collect(ctx context.Context, cypher string, params map[string]any) (*pairs.PairMap, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("query terminology: %w", err)
	}

	terms := pairs.NewPairMap()
	for result.Next(ctx) {
		record := result.Record()
		english, _ := record.Get("english")
		russian, _ := record.Get("russian")
		terms.Set(fmt.Sprintf("%v", english), fmt.Sprintf("%v", russian))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read terminology: %w", err)
	}

	log.Info().Int("count", terms.Len()).Msg("Loaded terminology from graph")
	return terms, nil
}
