package filewalker

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

// buildTree creates:
//
//	game/UnpackedMods/
//	  Beta/Localization/English/english.xml
//	  Beta/Localization/English/items.xml
//	  Beta/Localization/English/empty.xml      (no <content>)
//	  Beta/Localization/Russian/Russian.xml
//	  Beta/Defs/things.xml                     (outside Localization)
//	  Alpha/Localization/Extra/notes.xml
//	  Gamma/                                   (no localization)
//	  readme.txt
func buildTree(t *testing.T) string {
	t.Helper()
	game := t.TempDir()
	mods := filepath.Join(game, UnpackedModsDir)

	writeFile(t, filepath.Join(mods, "Beta", "Localization", "English", "english.xml"),
		"<LanguageData><content>Open</content><content>Close</content></LanguageData>")
	writeFile(t, filepath.Join(mods, "Beta", "Localization", "English", "items.xml"),
		"<LanguageData><content>Sword</content></LanguageData>")
	writeFile(t, filepath.Join(mods, "Beta", "Localization", "English", "empty.xml"),
		"<LanguageData></LanguageData>")
	writeFile(t, filepath.Join(mods, "Beta", "Localization", "Russian", "Russian.xml"),
		"<LanguageData><content>Открыть</content></LanguageData>")
	writeFile(t, filepath.Join(mods, "Beta", "Defs", "things.xml"),
		"<Defs><content>Thing</content></Defs>")
	writeFile(t, filepath.Join(mods, "Alpha", "Localization", "Extra", "notes.xml"),
		"<LanguageData><content>Note</content></LanguageData>")
	require.NoError(t, os.MkdirAll(filepath.Join(mods, "Gamma"), 0755))
	writeFile(t, filepath.Join(mods, "readme.txt"), "not a mod")

	return game
}

func TestWalker_Scan(t *testing.T) {
	game := buildTree(t)

	var loaded atomic.Int32
	w := NewWalker(2)
	w.OnFileLoaded(func() { loaded.Add(1) })

	mods, err := w.Scan(context.Background(), game)
	require.NoError(t, err)
	require.Len(t, mods, 3)

	assert.Equal(t, "Alpha", mods[0].Name)
	assert.Empty(t, mods[0].EnglishXML)
	require.Len(t, mods[0].Files, 1)
	assert.Equal(t, "notes.xml", filepath.Base(mods[0].Files[0].Path))

	beta := mods[1]
	assert.Equal(t, "Beta", beta.Name)
	assert.Equal(t, "english.xml", filepath.Base(beta.EnglishXML))
	assert.Equal(t, "Russian.xml", filepath.Base(beta.RussianXML))
	require.Len(t, beta.Files, 2)
	assert.Equal(t, beta.EnglishXML, beta.Files[0].Path, "english.xml comes first")
	assert.Len(t, beta.Files[0].Rows, 2)
	assert.Equal(t, "items.xml", filepath.Base(beta.Files[1].Path))

	assert.Equal(t, "Gamma", mods[2].Name)
	assert.Empty(t, mods[2].Files)

	// english, items, empty for Beta and notes for Alpha.
	assert.Equal(t, int32(4), loaded.Load())
}

func TestWalker_DiscoverCountsCandidates(t *testing.T) {
	mods, err := NewWalker(1).Discover(buildTree(t))
	require.NoError(t, err)
	assert.Equal(t, 4, CandidateCount(mods))
	for _, m := range mods {
		assert.Empty(t, m.Files, "Discover does not read files")
	}
}

func TestWalker_MissingUnpackedMods(t *testing.T) {
	_, err := NewWalker(1).Scan(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoUnpackedMods)
}

func TestWalker_SkipsBrokenFiles(t *testing.T) {
	game := t.TempDir()
	writeFile(t, filepath.Join(game, UnpackedModsDir, "Mod", "Localization", "English", "english.xml"), "<broken>")

	mods, err := NewWalker(1).Scan(context.Background(), game)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Empty(t, mods[0].Files)
}

func TestModName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{filepath.Join("game", "UnpackedMods", "Beta", "Localization", "English", "english.xml"), "Beta"},
		{filepath.Join("Beta", "Localization", "english.xml"), "Beta"},
		{filepath.Join("loose", "file.xml"), "loose"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, ModName(tt.path))
		})
	}
}
