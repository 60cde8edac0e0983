package filewalker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"modloc/internal/pairs"
	"modloc/internal/parser"
	"modloc/internal/worker"

	"github.com/rs/zerolog/log"
)

const (
	// UnpackedModsDir is the folder under the game folder that holds one directory per mod.
	UnpackedModsDir = "UnpackedMods"
	// LocalizationDir marks directories whose XML files are localization tables.
	LocalizationDir = "Localization"

	englishFile = "english.xml"
	russianFile = "russian.xml"
)

// ErrNoUnpackedMods is returned when the selected folder has no UnpackedMods directory.
var ErrNoUnpackedMods = errors.New("UnpackedMods folder not found")

// FileEntry is a localization file with its extracted rows.
type FileEntry struct {
	Path   string
	Parser parser.Parser
	Rows   pairs.RowSet
}

// Mod describes one mod directory and the localization files found in it.
type Mod struct {
	Name string
	Path string
	// EnglishXML is the first english.xml found under a Localization directory.
	EnglishXML string
	// RussianXML is Localization/Russian/russian.xml when it exists. It is listed but
	// never loaded.
	RussianXML string
	// Files holds EnglishXML followed by the other localization XML files, each only
	// if it has at least one row. Filled by Load.
	Files []FileEntry

	candidates []string
}

// Walker discovers mods and loads their localization files.
type Walker struct {
	parser  *parser.XMLParser
	workers int
	onLoad  func()
}

// NewWalker creates a Walker that loads files with the given number of workers.
func NewWalker(workers int) *Walker {
	return &Walker{
		parser:  parser.NewXMLParser(),
		workers: workers,
	}
}

// OnFileLoaded registers a callback run after every loaded file.
func (w *Walker) OnFileLoaded(fn func()) {
	w.onLoad = fn
}

// Discover lists the mods under mainFolder/UnpackedMods in name order and locates
// their localization files without reading them.
func (w *Walker) Discover(mainFolder string) ([]Mod, error) {
	root := filepath.Join(mainFolder, UnpackedModsDir)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoUnpackedMods, mainFolder)
	}

	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read mods directory: %w", err)
	}

	var mods []Mod
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		mod, err := w.discoverMod(de.Name(), filepath.Join(root, de.Name()))
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}

	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })

	log.Info().Int("count", len(mods)).Str("root", root).Msg("Discovered mods")
	return mods, nil
}

// CandidateCount is the number of files Load will read for mods.
func CandidateCount(mods []Mod) int {
	n := 0
	for _, m := range mods {
		n += len(m.candidates)
	}
	return n
}

func (w *Walker) discoverMod(name, modPath string) (Mod, error) {
	mod := Mod{Name: name, Path: modPath}

	russianDir := filepath.Join(modPath, LocalizationDir, "Russian")
	if entries, err := os.ReadDir(russianDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(e.Name(), russianFile) {
				mod.RussianXML = filepath.Join(russianDir, e.Name())
				break
			}
		}
	}

	var others []string
	err := filepath.WalkDir(modPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, _ := filepath.Rel(modPath, filepath.Dir(path))
		if !strings.Contains(rel, LocalizationDir) || !w.parser.CanParse(filepath.Ext(path)) {
			return nil
		}

		switch {
		case mod.EnglishXML == "" && strings.EqualFold(d.Name(), englishFile):
			mod.EnglishXML = path
		case path == mod.RussianXML:
		default:
			others = append(others, path)
		}
		return nil
	})
	if err != nil {
		return mod, fmt.Errorf("walk mod %s: %w", name, err)
	}

	if mod.EnglishXML != "" {
		mod.candidates = append(mod.candidates, mod.EnglishXML)
	}
	mod.candidates = append(mod.candidates, others...)
	return mod, nil
}

// Load parses the candidate files of every mod concurrently and fills Mod.Files.
// Unreadable files and files without rows are left out.
func (w *Walker) Load(ctx context.Context, mods []Mod) []Mod {
	type job struct {
		mod  int
		path string
	}

	var jobs []job
	for i, m := range mods {
		for _, c := range m.candidates {
			jobs = append(jobs, job{mod: i, path: c})
		}
	}

	pool := worker.NewPool[job, *parser.ParseResult](w.workers,
		func(ctx context.Context, j job) (*parser.ParseResult, error) {
			return w.parser.Parse(j.path)
		},
	)
	if w.onLoad != nil {
		pool.OnDone(w.onLoad)
	}

	for _, task := range pool.Execute(ctx, jobs) {
		if task.Err != nil {
			log.Warn().Err(task.Err).Str("file", task.Input.path).Msg("Skipping unreadable file")
			continue
		}
		if task.Skipped || task.Result == nil || len(task.Result.Rows) == 0 {
			continue
		}
		m := &mods[task.Input.mod]
		m.Files = append(m.Files, FileEntry{
			Path:   task.Input.path,
			Parser: w.parser,
			Rows:   task.Result.Rows,
		})
	}

	return mods
}

// Scan discovers and loads all mods under mainFolder.
func (w *Walker) Scan(ctx context.Context, mainFolder string) ([]Mod, error) {
	mods, err := w.Discover(mainFolder)
	if err != nil {
		return nil, err
	}
	return w.Load(ctx, mods), nil
}

// ModName derives the mod name from the path of one of its localization files:
// the directory containing the Localization folder.
func ModName(xmlPath string) string {
	dir := filepath.Dir(filepath.Clean(xmlPath))
	for d := dir; ; {
		parent := filepath.Dir(d)
		if filepath.Base(d) == LocalizationDir {
			return filepath.Base(parent)
		}
		if parent == d {
			break
		}
		d = parent
	}
	return filepath.Base(dir)
}
