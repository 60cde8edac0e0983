package translation

import (
	"context"
	"strings"
	"sync/atomic"

	"modloc/internal/interpolation"
	"modloc/internal/pairs"
	"modloc/internal/textutil"
	"modloc/internal/worker"

	"github.com/rs/zerolog/log"
)

// Memory is the translation memory consulted before calling a provider.
type Memory interface {
	Get(ctx context.Context, source string) (string, bool)
	Set(ctx context.Context, source, translated, origin string) error
}

// OriginMachine tags memory entries produced by a translation provider.
const OriginMachine = "machine"

// AutoOptions controls one auto-translation run.
type AutoOptions struct {
	// KeepExisting leaves rows that already have a translation alone.
	KeepExisting bool
	// Progress is called after each distinct text is resolved.
	Progress pairs.ProgressFunc
}

// AutoStats summarises an auto-translation run, counted per row.
type AutoStats struct {
	Translated int
	FromMemory int
	Failed     int
}

// AutoTranslator fills rows with machine translations.
type AutoTranslator struct {
	translator  Translator
	memory      Memory
	concurrency int
	sourceLang  string
	targetLang  string
}

// NewAutoTranslator creates an AutoTranslator. memory may be nil.
func NewAutoTranslator(tr Translator, memory Memory, concurrency int, sourceLang, targetLang string) *AutoTranslator {
	return &AutoTranslator{
		translator:  tr,
		memory:      memory,
		concurrency: concurrency,
		sourceLang:  sourceLang,
		targetLang:  targetLang,
	}
}

type outcome struct {
	text       string
	fromMemory bool
}

// Run translates every row with a non-blank original, overwriting earlier
// translations unless opts.KeepExisting is set. Identical originals are translated
// once. A row whose translation fails keeps its current value.
func (at *AutoTranslator) Run(ctx context.Context, rows pairs.RowSet, opts AutoOptions) (AutoStats, error) {
	targets := make(map[string][]int)
	var texts []string
	for i, r := range rows {
		text := strings.TrimSpace(r.Original)
		if text == "" || (opts.KeepExisting && !textutil.IsBlank(r.Translation)) {
			continue
		}
		if _, seen := targets[text]; !seen {
			texts = append(texts, text)
		}
		targets[text] = append(targets[text], i)
	}

	log.Info().Int("rows", len(rows)).Int("unique_texts", len(texts)).Msg("Translation plan")

	var done atomic.Int32
	pool := worker.NewPool[string, outcome](at.concurrency, at.translateOne).OnDone(func() {
		n := done.Add(1)
		if opts.Progress != nil {
			opts.Progress(int(n), len(texts))
		}
	})

	var stats AutoStats
	for _, task := range pool.Execute(ctx, texts) {
		indexes := targets[task.Input]
		if task.Skipped {
			continue
		}
		if task.Err != nil {
			log.Error().Err(task.Err).Str("text", textutil.Truncate(task.Input, 40)).Msg("Translation failed")
			stats.Failed += len(indexes)
			continue
		}
		for _, idx := range indexes {
			rows[idx].Translation = task.Result.text
		}
		if task.Result.fromMemory {
			stats.FromMemory += len(indexes)
		} else {
			stats.Translated += len(indexes)
		}
	}

	return stats, ctx.Err()
}

func (at *AutoTranslator) translateOne(ctx context.Context, text string) (outcome, error) {
	if at.memory != nil {
		if cached, ok := at.memory.Get(ctx, text); ok {
			return outcome{text: cached, fromMemory: true}, nil
		}
	}

	protected, mappings := interpolation.Protect(text)
	translated, err := at.translator.Translate(ctx, protected, at.sourceLang, at.targetLang)
	if err != nil {
		return outcome{}, err
	}
	if missing := interpolation.Missing(translated, mappings); len(missing) > 0 {
		log.Warn().Strs("placeholders", missing).Str("text", textutil.Truncate(text, 40)).Msg("Translation dropped placeholders")
	}
	translated = strings.TrimSpace(interpolation.Restore(translated, mappings))

	if at.memory != nil {
		if err := at.memory.Set(ctx, text, translated, OriginMachine); err != nil {
			log.Warn().Err(err).Msg("Failed to store translation in memory")
		}
	}
	return outcome{text: translated}, nil
}
