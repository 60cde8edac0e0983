package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modXML = `<?xml version="1.0" encoding="utf-8"?>
<LanguageData>
  <entry><content>Open the door</content></entry>
  <entry><content>Close the door</content></entry>
  <entry><content>Key</content></entry>
</LanguageData>
`

// isolate keeps the commands away from real databases and translators.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NEO4J_URI", "")
	t.Setenv("IMPORT_METHOD", "basic")
	t.Setenv("LOG_LEVEL", "error")
}

func writeMod(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "UnpackedMods", "Doors", "Localization", "English", "english.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(modXML), 0644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImport_WritesTranslation(t *testing.T) {
	isolate(t)
	src := writeMod(t)

	out, err := run(t, "Open the door|Открыть дверь\nKey|Ключ", "import", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Filled 2 rows (2 exact, 0 fuzzy), 1 untranslated")

	saved := filepath.Join(filepath.Dir(filepath.Dir(src)), "Russian", "russian.xml")
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<content>Открыть дверь</content>")
	assert.Contains(t, string(data), "<content>Ключ</content>")
	assert.Contains(t, string(data), "<content>Close the door</content>")
}

func TestImport_LevenshteinFromFile(t *testing.T) {
	isolate(t)
	src := writeMod(t)
	pairsFile := filepath.Join(t.TempDir(), "pairs.txt")
	require.NoError(t, os.WriteFile(pairsFile, []byte("Open the door|Открыть дверь"), 0644))

	out, err := run(t, "", "import", src, pairsFile, "--mode", "levenshtein", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Filled 1 rows (1 exact, 0 fuzzy)")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(filepath.Dir(src)), "Russian", "russian.xml"))
}

func TestImport_FuzzyMatch(t *testing.T) {
	isolate(t)
	src := writeMod(t)

	out, err := run(t, "Clse the door|Закрыть дверь", "import", src, "-", "--mode", "levenshtein", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Filled 1 rows (0 exact, 1 fuzzy)")
}

func TestImport_UnknownMode(t *testing.T) {
	isolate(t)
	src := writeMod(t)

	_, err := run(t, "Key|Ключ", "import", src, "--mode", "soundex")
	assert.ErrorContains(t, err, "unknown import mode")
}

func TestImport_ResumeKeepsSavedRows(t *testing.T) {
	isolate(t)
	src := writeMod(t)

	_, err := run(t, "Key|Ключ", "import", src)
	require.NoError(t, err)

	out, err := run(t, "", "template", src, "--resume")
	require.NoError(t, err)
	assert.Equal(t, "Open the door|\nClose the door|\n", out)
}

func TestTemplate(t *testing.T) {
	isolate(t)
	src := writeMod(t)

	out, err := run(t, "", "template", src)
	require.NoError(t, err)
	assert.Equal(t, "Open the door|\nClose the door|\nKey|\n", out)
}

func TestShow(t *testing.T) {
	isolate(t)
	src := writeMod(t)

	out, err := run(t, "", "show", src)
	require.NoError(t, err)
	assert.Contains(t, out, "1\tOpen the door | \n")
	assert.Contains(t, out, "3\tKey | \n")
}

func TestMods(t *testing.T) {
	isolate(t)
	src := writeMod(t)
	root := filepath.Dir(filepath.Dir(filepath.Dir(filepath.Dir(filepath.Dir(src)))))

	out, err := run(t, "", "mods", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Doors\n")
	assert.Contains(t, out, filepath.Join("Localization", "English", "english.xml")+" (3 rows)")
}

func TestSplit_FromFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "paste.txt")
	require.NoError(t, os.WriteFile(path, []byte("Yes | Да No | Нет"), 0644))

	out, err := run(t, "", "split", path)
	require.NoError(t, err)
	assert.Equal(t, "Yes | Да\nNo | Нет\n", out)
}

func TestSplit_FromStdin(t *testing.T) {
	isolate(t)

	out, err := run(t, "Door|Дверь", "split")
	require.NoError(t, err)
	assert.Equal(t, "Door | Дверь\n", out)
}

func TestMemoryExport_EmptyJSON(t *testing.T) {
	isolate(t)

	out, err := run(t, "", "memory", "export", "--format", "json")
	require.NoError(t, err)

	var entries []any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Empty(t, entries)
}

func TestMemoryExport_UnknownFormat(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "memory", "export", "--format", "csv")
	assert.ErrorContains(t, err, "unknown export format")
}
