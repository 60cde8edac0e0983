package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"modloc/internal/cache"
	"modloc/internal/config"
	"modloc/internal/graph"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "modloc",
		Short:        "Russian localization toolkit for game mod XML files",
		Long:         "Imports English|Russian translation pairs into mod localization files, machine-translates the rest and keeps a reusable translation memory.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(modsCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(templateCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(autotranslateCmd())
	rootCmd.AddCommand(memoryCmd())

	return rootCmd
}

// loadConfig reads the configuration and applies its log level.
func loadConfig() *config.Config {
	cfg := config.Load()
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return cfg
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// dependencies holds the optional backing stores. Without DATABASE_URL the
// translation memory lives in process memory; without NEO4J_URI there is no glossary.
type dependencies struct {
	pgPool      *pgxpool.Pool
	neo4jDriver neo4j.DriverWithContext

	memory  *cache.TranslationCache
	builder *graph.GraphBuilder
	querier *graph.GraphQuerier
}

// initDependencies connects the configured stores and prepares their schemas.
func initDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	d := &dependencies{}

	if cfg.MemoryEnabled() {
		pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect PostgreSQL: %w", err)
		}
		if err := pgPool.Ping(ctx); err != nil {
			pgPool.Close()
			return nil, fmt.Errorf("ping PostgreSQL: %w", err)
		}
		d.pgPool = pgPool
		log.Info().Msg("Connected to PostgreSQL")
	}

	d.memory = cache.NewTranslationCache(d.pgPool)
	if err := d.memory.EnsureSchema(ctx); err != nil {
		d.Close(ctx)
		return nil, fmt.Errorf("ensure memory schema: %w", err)
	}

	if cfg.GlossaryEnabled() {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
		if err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("connect Neo4j: %w", err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx)
			d.Close(ctx)
			return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
		}
		d.neo4jDriver = driver
		log.Info().Msg("Connected to Neo4j")

		d.builder = graph.NewGraphBuilder(driver)
		if err := d.builder.EnsureSchema(ctx); err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("ensure graph schema: %w", err)
		}
		d.querier = graph.NewGraphQuerier(driver)
	}

	return d, nil
}

// Close releases every open connection.
func (d *dependencies) Close(ctx context.Context) {
	if d.neo4jDriver != nil {
		if err := d.neo4jDriver.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to close Neo4j driver")
		}
	}
	if d.pgPool != nil {
		d.pgPool.Close()
	}
}

// progress draws a bar on stderr. A new phase starts when total changes or when
// updates begin again after the previous phase completed. Update is safe for
// concurrent use.
type progress struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	total int
	done  int
}

func newProgress(w io.Writer, description string) *progress {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
	return &progress{bar: bar}
}

func (p *progress) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if total != p.total || (p.done >= p.total && done <= p.done) {
		p.total = total
		p.done = 0
		p.bar.Reset()
		p.bar.ChangeMax(total)
	}
	if done > p.done {
		p.done = done
		_ = p.bar.Set(done)
	}
}

func (p *progress) Finish() {
	_ = p.bar.Finish()
}
