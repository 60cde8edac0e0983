package graph

import (
	"context"
	"fmt"
	"strings"

	"modloc/internal/pairs"
	"modloc/internal/textutil"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Term is an English→Russian glossary entry.
type Term struct {
	English string
	Russian string
}

// GraphBuilder writes glossary terms and the mods that use them to Neo4j.
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
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Term) REQUIRE t.english IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (m:Mod) REQUIRE m.name IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Debug().Msg("Glossary schema ensured")
	return nil
}

// UpsertTerms stores the translated rows of a mod as glossary terms and links them
// to the mod. Returns the number of terms written.
func (gb *GraphBuilder) UpsertTerms(ctx context.Context, mod string, rows pairs.RowSet) (int, error) {
	terms := TermsFromRows(rows)
	if len(terms) == 0 {
		return 0, nil
	}

	params := make([]map[string]any, 0, len(terms))
	for _, t := range terms {
		params = append(params, map[string]any{"english": t.English, "russian": t.Russian})
	}

	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (m:Mod {name: $mod})
		WITH m
		UNWIND $terms AS term
		MERGE (t:Term {english: term.english})
		SET t.russian = term.russian
		MERGE (m)-[:USES]->(t)
	`, map[string]any{
		"mod":   mod,
		"terms": params,
	})
	if err != nil {
		return 0, fmt.Errorf("upsert terms for %s: %w", mod, err)
	}

	log.Info().Str("mod", mod).Int("terms", len(terms)).Msg("Glossary updated")
	return len(terms), nil
}

// TermsFromRows returns one Term per distinct original of the rows translated into
// Cyrillic text. A later row with the same original replaces the earlier translation.
func TermsFromRows(rows pairs.RowSet) []Term {
	pm := pairs.NewPairMap()
	for _, r := range rows {
		english := strings.TrimSpace(r.Original)
		russian := strings.TrimSpace(pairs.Cleanup(r.Translation))
		if english == "" || !textutil.ContainsCyrillic(russian) {
			continue
		}
		pm.Set(english, russian)
	}

	terms := make([]Term, 0, pm.Len())
	for _, p := range pm.Pairs() {
		terms = append(terms, Term{English: p.Original, Russian: p.Translation})
	}
	return terms
}
