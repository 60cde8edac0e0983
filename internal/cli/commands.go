package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"modloc/internal/filewalker"
	"modloc/internal/pairs"
	"modloc/internal/parser"
	"modloc/internal/splitter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [file]",
		Short: "Split pasted English|Russian text into one pair per line",
		Long: `Finds every "English | Russian" pair in a block of text and prints one pair per line.
Text is read from the file argument, else from piped stdin, else from the clipboard.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			copyResult, _ := cmd.Flags().GetBool("copy")
			return runSplit(cmd, args, splitter.New(splitter.SystemClipboard), copyResult)
		},
	}

	cmd.Flags().Bool("copy", false, "Copy the result to the clipboard")

	return cmd
}

func runSplit(cmd *cobra.Command, args []string, s *splitter.Splitter, copyResult bool) error {
	var input string
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
		input = string(data)
	} else {
		text, err := readPiped(cmd)
		if err != nil {
			return err
		}
		input = text
	}

	result, err := s.Run(input)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)

	if copyResult {
		if err := s.Copy(result); err != nil {
			return err
		}
		log.Info().Msg("Result copied to clipboard")
	}
	return nil
}

// readPiped returns stdin contents unless stdin is an interactive terminal.
func readPiped(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		info, err := f.Stat()
		if err != nil || info.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func modsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mods <folder>",
		Short: "List mods under <folder>/UnpackedMods and their localization files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMods(cmd, args[0])
		},
	}
}

func runMods(cmd *cobra.Command, mainFolder string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := loadConfig()

	w := filewalker.NewWalker(cfg.WorkerCount)
	mods, err := w.Discover(mainFolder)
	if err != nil {
		return err
	}

	bar := newProgress(cmd.ErrOrStderr(), "Loading files")
	total := filewalker.CandidateCount(mods)
	var loaded atomic.Int64
	w.OnFileLoaded(func() {
		bar.Update(int(loaded.Add(1)), total)
	})
	mods = w.Load(ctx, mods)
	bar.Finish()

	if err := ctx.Err(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range mods {
		fmt.Fprintln(out, m.Name)
		for _, f := range m.Files {
			rel, err := filepath.Rel(m.Path, f.Path)
			if err != nil {
				rel = f.Path
			}
			fmt.Fprintf(out, "  %s (%d rows)\n", rel, len(f.Rows))
		}
		if m.RussianXML != "" {
			rel, err := filepath.Rel(m.Path, m.RussianXML)
			if err != nil {
				rel = m.RussianXML
			}
			fmt.Fprintf(out, "  %s (translation)\n", rel)
		}
	}

	log.Info().Int("mods", len(mods)).Msg("Scan complete")
	return nil
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <xml>",
		Short: "Print the rows of a localization file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resume, _ := cmd.Flags().GetBool("resume")
			return runShow(cmd, args[0], resume)
		},
	}

	cmd.Flags().Bool("resume", false, "Fill rows from the saved russian.xml")

	return cmd
}

func runShow(cmd *cobra.Command, xmlPath string, resume bool) error {
	loadConfig()

	result, err := loadRows(xmlPath, resume)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, r := range result.Rows {
		fmt.Fprintf(out, "%d\t%s | %s\n", i+1, r.Original, r.Translation)
	}
	return nil
}

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template <xml>",
		Short: "Print an import template with one \"original|\" line per untranslated row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resume, _ := cmd.Flags().GetBool("resume")
			return runTemplate(cmd, args[0], resume)
		},
	}

	cmd.Flags().Bool("resume", false, "Skip rows already translated in the saved russian.xml")

	return cmd
}

func runTemplate(cmd *cobra.Command, xmlPath string, resume bool) error {
	loadConfig()

	result, err := loadRows(xmlPath, resume)
	if err != nil {
		return err
	}

	if tmpl := pairs.Template(result.Rows); tmpl != "" {
		fmt.Fprintln(cmd.OutOrStdout(), tmpl)
	}
	return nil
}

// loadRows parses xmlPath and, with resume, seeds the rows from its saved translation.
func loadRows(xmlPath string, resume bool) (*parser.ParseResult, error) {
	xp := parser.NewXMLParser()
	result, err := xp.Parse(xmlPath)
	if err != nil {
		return nil, err
	}

	if resume {
		outPath := parser.OutputPath(xmlPath)
		seeded, err := xp.Resume(result.Rows, outPath)
		if err != nil {
			log.Warn().Err(err).Str("path", outPath).Msg("No saved translation to resume from")
		} else {
			log.Info().Int("rows", seeded).Msg("Resumed saved translations")
		}
	}

	return result, nil
}

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage the translation memory",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export remembered translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			return runMemoryExport(cmd, format, output)
		},
	}
	exportCmd.Flags().String("format", "tsv", "Export format: tsv or json")
	exportCmd.Flags().String("output", "", "Output file (default stdout)")

	cmd.AddCommand(exportCmd)
	return cmd
}

func runMemoryExport(cmd *cobra.Command, format, output string) error {
	format = strings.ToLower(format)
	if format != "tsv" && format != "json" {
		return fmt.Errorf("unknown export format %q", format)
	}

	ctx, cancel := setupContext()
	defer cancel()

	cfg := loadConfig()

	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close(ctx)

	if !deps.memory.Persistent() {
		log.Warn().Msg("DATABASE_URL is not set, nothing is remembered between runs")
	}

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "json" {
		err = deps.memory.ExportJSON(ctx, w)
	} else {
		err = deps.memory.ExportTSV(ctx, w)
	}
	if err != nil {
		return err
	}

	if output != "" {
		log.Info().Str("format", format).Str("path", output).Msg("Translation memory exported")
	}
	return nil
}
