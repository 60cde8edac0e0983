package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"modloc/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Entry is one remembered translation.
type Entry struct {
	Hash       string    `json:"hash"`
	Source     string    `json:"source"`
	Translated string    `json:"translated"`
	Origin     string    `json:"origin"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS translation_memory (
	hash       TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	translated TEXT NOT NULL,
	origin     TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const getSQL = `SELECT translated FROM translation_memory WHERE hash = $1`

const upsertSQL = `
INSERT INTO translation_memory (hash, source, translated, origin, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (hash) DO UPDATE
SET translated = EXCLUDED.translated, origin = EXCLUDED.origin, updated_at = EXCLUDED.updated_at`

const listSQL = `SELECT hash, source, translated, origin, updated_at FROM translation_memory ORDER BY source`

// TranslationCache is an in-memory translation memory, optionally backed by PostgreSQL.
type TranslationCache struct {
	pool   *pgxpool.Pool
	mu     sync.RWMutex
	memory map[string]Entry // hash → entry
	now    func() time.Time
}

// NewTranslationCache creates a cache. A nil pool keeps everything in memory.
func NewTranslationCache(pool *pgxpool.Pool) *TranslationCache {
	return &TranslationCache{
		pool:   pool,
		memory: make(map[string]Entry),
		now:    time.Now,
	}
}

// Persistent reports whether entries are written to PostgreSQL.
func (c *TranslationCache) Persistent() bool {
	return c.pool != nil
}

// EnsureSchema creates the translation_memory table if needed.
func (c *TranslationCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create translation_memory: %w", err)
	}
	return nil
}

// Get retrieves a remembered translation.
func (c *TranslationCache) Get(ctx context.Context, sourceText string) (string, bool) {
	hash := textutil.Hash(sourceText)

	c.mu.RLock()
	if e, ok := c.memory[hash]; ok {
		c.mu.RUnlock()
		return e.Translated, true
	}
	c.mu.RUnlock()

	if c.pool == nil {
		return "", false
	}

	var translated string
	if err := c.pool.QueryRow(ctx, getSQL, hash).Scan(&translated); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Debug().Err(err).Msg("Translation memory lookup failed")
		}
		return "", false
	}

	c.mu.Lock()
	c.memory[hash] = Entry{Hash: hash, Source: sourceText, Translated: translated}
	c.mu.Unlock()

	return translated, true
}

// Set stores a translation in memory and, when persistent, in PostgreSQL.
func (c *TranslationCache) Set(ctx context.Context, sourceText, translated, origin string) error {
	e := Entry{
		Hash:       textutil.Hash(sourceText),
		Source:     sourceText,
		Translated: translated,
		Origin:     origin,
		UpdatedAt:  c.now().UTC(),
	}

	c.mu.Lock()
	c.memory[e.Hash] = e
	c.mu.Unlock()

	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, upsertSQL, e.Hash, e.Source, e.Translated, e.Origin, e.UpdatedAt); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// SetPairs stores every pair with a non-empty translation. Returns the number stored.
func (c *TranslationCache) SetPairs(ctx context.Context, pairs map[string]string, origin string) (int, error) {
	stored := 0
	for source, translated := range pairs {
		if translated == "" {
			continue
		}
		if err := c.Set(ctx, source, translated, origin); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// Preload loads all persisted translations into memory.
func (c *TranslationCache) Preload(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	entries, err := c.load(ctx)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		c.memory[e.Hash] = e
	}

	log.Info().Int("count", len(entries)).Msg("Preloaded translation memory")
	return nil
}

// Entries returns every known translation sorted by source text. When persistent the
// database is authoritative.
func (c *TranslationCache) Entries(ctx context.Context) ([]Entry, error) {
	if c.pool != nil {
		return c.load(ctx)
	}

	c.mu.RLock()
	entries := make([]Entry, 0, len(c.memory))
	for _, e := range c.memory {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Source < entries[j].Source })
	return entries, nil
}

func (c *TranslationCache) load(ctx context.Context) ([]Entry, error) {
	rows, err := c.pool.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("query translation memory: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.Source, &e.Translated, &e.Origin, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan translation memory: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
