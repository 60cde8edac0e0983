package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// ExportTSV writes all entries as tab-separated values with a header line.
func (c *TranslationCache) ExportTSV(ctx context.Context, w io.Writer) error {
	entries, err := c.Entries(ctx)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "source\ttranslated\torigin"); err != nil {
		return fmt.Errorf("write TSV header: %w", err)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", escapeTSV(e.Source), escapeTSV(e.Translated), e.Origin); err != nil {
			return fmt.Errorf("write TSV row: %w", err)
		}
	}

	log.Info().Int("entries", len(entries)).Msg("Exported translation memory to TSV")
	return nil
}

// ExportJSON writes all entries as an indented JSON array.
func (c *TranslationCache) ExportJSON(ctx context.Context, w io.Writer) error {
	entries, err := c.Entries(ctx)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	log.Info().Int("entries", len(entries)).Msg("Exported translation memory to JSON")
	return nil
}

// escapeTSV replaces tabs and newlines in a string for TSV safety.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
