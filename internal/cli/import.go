package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"modloc/internal/filewalker"
	"modloc/internal/pairs"
	"modloc/internal/parser"
	"modloc/internal/textutil"
	"modloc/internal/translation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// originImport tags memory entries created from imported pairs.
const originImport = "import"

type importOptions struct {
	mode     string
	glossary bool
	resume   bool
	dryRun   bool
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <xml> [pairs-file|-]",
		Short: "Fill a localization file from English|Russian translation pairs",
		Long: `Reads "original|translation" lines (or pasted "English | Russian" text) and fills
every untranslated row of <xml> whose original matches a pair. The result is saved to
../Russian/russian.xml next to the source file. Pairs are read from stdin when no file
is given or the file is "-".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts importOptions
			opts.mode, _ = cmd.Flags().GetString("mode")
			opts.glossary, _ = cmd.Flags().GetBool("glossary")
			opts.resume, _ = cmd.Flags().GetBool("resume")
			opts.dryRun, _ = cmd.Flags().GetBool("dry-run")

			pairsPath := "-"
			if len(args) == 2 {
				pairsPath = args[1]
			}
			return runImport(cmd, args[0], pairsPath, opts)
		},
	}

	cmd.Flags().String("mode", "", "Matching mode: basic or levenshtein (default IMPORT_METHOD)")
	cmd.Flags().Bool("glossary", false, "Add glossary terms to the imported pairs")
	cmd.Flags().Bool("resume", false, "Start from the saved russian.xml")
	cmd.Flags().Bool("dry-run", false, "Report matches without saving anything")

	return cmd
}

func runImport(cmd *cobra.Command, xmlPath, pairsPath string, opts importOptions) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := loadConfig()

	modeName := opts.mode
	if modeName == "" {
		modeName = cfg.ImportMethod
	}
	mode, err := pairs.ParseMode(modeName)
	if err != nil {
		return err
	}

	text, err := readPairs(cmd, pairsPath)
	if err != nil {
		return err
	}
	pm := pairs.Parse(text)
	if pm.Len() == 0 {
		log.Warn().Msg("No translation pairs found")
		return nil
	}
	userPairs := pm.Pairs()

	result, err := loadRows(xmlPath, opts.resume)
	if err != nil {
		return err
	}

	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close(ctx)

	if opts.glossary {
		if deps.querier == nil {
			log.Warn().Msg("NEO4J_URI is not set, glossary skipped")
		} else {
			added, err := mergeGlossary(ctx, deps, pm, filewalker.ModName(xmlPath))
			if err != nil {
				return err
			}
			log.Info().Int("terms", added).Msg("Glossary terms added")
		}
	}

	log.Info().
		Str("file", xmlPath).
		Int("rows", len(result.Rows)).
		Int("pairs", pm.Len()).
		Str("mode", string(mode)).
		Msg("Importing translation pairs")

	bar := newProgress(cmd.ErrOrStderr(), "Matching")
	rows, res := pairs.Apply(result.Rows, pm, mode, pairs.WithProgress(bar.Update))
	bar.Finish()

	remaining := countUntranslated(rows)
	log.Info().
		Int("exact", res.Exact).
		Int("fuzzy", res.Fuzzy).
		Int("untranslated", remaining).
		Msg("Pairs applied")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Filled %d rows (%d exact, %d fuzzy), %d untranslated\n", res.Total(), res.Exact, res.Fuzzy, remaining)

	if opts.dryRun {
		return nil
	}

	outPath := parser.OutputPath(xmlPath)
	if err := parser.NewXMLParser().Write(result, rows, outPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", outPath)

	remember(ctx, deps, userPairs)

	if deps.builder != nil {
		if _, err := deps.builder.UpsertTerms(ctx, filewalker.ModName(xmlPath), rows); err != nil {
			log.Warn().Err(err).Msg("Failed to update glossary")
		}
	}

	return nil
}

// readPairs reads pair text from a file, or from stdin when path is "-".
func readPairs(cmd *cobra.Command, path string) (string, error) {
	if path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read pairs file: %w", err)
		}
		return string(data), nil
	}
	return readPiped(cmd)
}

// mergeGlossary adds the mod's own terms, then the rest of the glossary, to pm.
// Pairs already in pm are kept.
func mergeGlossary(ctx context.Context, deps *dependencies, pm *pairs.PairMap, mod string) (int, error) {
	modTerms, err := deps.querier.ModTerminology(ctx, mod)
	if err != nil {
		return 0, err
	}
	allTerms, err := deps.querier.Terminology(ctx)
	if err != nil {
		return 0, err
	}
	return pm.Merge(modTerms) + pm.Merge(allTerms), nil
}

// remember stores the user's pairs in the translation memory.
func remember(ctx context.Context, deps *dependencies, imported []pairs.TranslationPair) {
	m := make(map[string]string, len(imported))
	for _, p := range imported {
		m[p.Original] = pairs.Cleanup(p.Translation)
	}
	stored, err := deps.memory.SetPairs(ctx, m, originImport)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to store pairs in translation memory")
		return
	}
	log.Debug().Int("pairs", stored).Msg("Pairs stored in translation memory")
}

func countUntranslated(rows pairs.RowSet) int {
	n := 0
	for _, r := range rows {
		if r.Original != "" && textutil.IsBlank(r.Translation) {
			n++
		}
	}
	return n
}

type autotranslateOptions struct {
	keepExisting bool
	resume       bool
	dryRun       bool
	provider     string
}

func autotranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autotranslate <xml>",
		Short: "Machine-translate the rows of a localization file",
		Long: `Translates every row of <xml> with the configured provider, reusing the translation
memory, and saves the result to ../Russian/russian.xml next to the source file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts autotranslateOptions
			opts.keepExisting, _ = cmd.Flags().GetBool("keep-existing")
			opts.resume, _ = cmd.Flags().GetBool("resume")
			opts.dryRun, _ = cmd.Flags().GetBool("dry-run")
			opts.provider, _ = cmd.Flags().GetString("provider")
			return runAutotranslate(cmd, args[0], opts)
		},
	}

	cmd.Flags().Bool("keep-existing", false, "Only translate rows that have no translation yet")
	cmd.Flags().Bool("resume", false, "Start from the saved russian.xml")
	cmd.Flags().Bool("dry-run", false, "Print translations without saving")
	cmd.Flags().String("provider", "", "Translation provider: google or gemini (default TRANSLATOR)")

	return cmd
}

func runAutotranslate(cmd *cobra.Command, xmlPath string, opts autotranslateOptions) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := loadConfig()
	if opts.provider != "" {
		cfg.Translator = opts.provider
	}

	tr, err := translation.New(cfg)
	if err != nil {
		return err
	}

	result, err := loadRows(xmlPath, opts.resume)
	if err != nil {
		return err
	}

	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close(ctx)

	if err := deps.memory.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload translation memory")
	}

	bar := newProgress(cmd.ErrOrStderr(), "Translating")
	at := translation.NewAutoTranslator(tr, deps.memory, cfg.MaxConcurrentAPICalls, cfg.SourceLang, cfg.TargetLang)
	stats, runErr := at.Run(ctx, result.Rows, translation.AutoOptions{
		KeepExisting: opts.keepExisting,
		Progress:     bar.Update,
	})
	bar.Finish()

	log.Info().
		Int("translated", stats.Translated).
		Int("from_memory", stats.FromMemory).
		Int("failed", stats.Failed).
		Msg("Auto-translation finished")

	out := cmd.OutOrStdout()
	if opts.dryRun {
		for i, r := range result.Rows {
			fmt.Fprintf(out, "%d\t%s | %s\n", i+1, r.Original, r.Translation)
		}
		return runErr
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	// A cancelled run still saves what was translated so far.
	outPath := parser.OutputPath(xmlPath)
	if err := parser.NewXMLParser().Write(result, result.Rows, outPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Translated %d rows (%d from memory, %d failed), saved %s\n",
		stats.Translated, stats.FromMemory, stats.Failed, outPath)

	return runErr
}
