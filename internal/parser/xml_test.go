package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modloc/internal/pairs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const englishXML = `<?xml version="1.0" encoding="utf-8"?>
<LanguageData>
  <entry>
    <key>door_open</key>
    <content>Open the door</content>
  </entry>
  <entry>
    <key>tom</key>
    <content>  Tom &amp; Jerry  </content>
  </entry>
  <entry>
    <key>empty</key>
    <content/>
  </entry>
  <entry>
    <key>nested</key>
    <content><b>Bold</b></content>
  </entry>
  <entry>
    <key>key</key>
    <content>Key</content>
  </entry>
</LanguageData>
`

func writeFixture(t *testing.T, rel, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestXMLParser_CanParse(t *testing.T) {
	p := NewXMLParser()
	assert.True(t, p.CanParse(".xml"))
	assert.True(t, p.CanParse(".XML"))
	assert.False(t, p.CanParse(".lua"))
}

func TestXMLParser_Parse(t *testing.T) {
	path := writeFixture(t, "Localization/English/english.xml", englishXML)

	result, err := NewXMLParser().Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "xml", result.FileType)
	assert.Equal(t, pairs.RowSet{
		{Original: "Open the door"},
		{Original: "Tom &amp; Jerry"},
		{Original: ""},
		{Original: ""},
		{Original: "Key"},
	}, result.Rows)
}

func TestXMLParser_ParseInvalid(t *testing.T) {
	path := writeFixture(t, "broken.xml", "<LanguageData><content>oops</LanguageData>")
	_, err := NewXMLParser().Parse(path)
	assert.Error(t, err)
}

func TestXMLParser_Write(t *testing.T) {
	src := writeFixture(t, "Mod/Localization/English/english.xml", englishXML)
	p := NewXMLParser()

	result, err := p.Parse(src)
	require.NoError(t, err)

	rows := make(pairs.RowSet, len(result.Rows))
	copy(rows, result.Rows)
	rows[0].Translation = "Открыть дверь"
	rows[1].Translation = "Том &amp; Джерри"

	out := OutputPath(src)
	assert.Equal(t, filepath.Join(filepath.Dir(filepath.Dir(src)), "Russian", "russian.xml"), out)

	require.NoError(t, p.Write(result, rows, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "<?xml"), "declaration is kept")
	assert.Contains(t, text, "<content>Открыть дверь</content>")
	assert.Contains(t, text, "<content>Том & Джерри</content>")
	assert.NotContains(t, text, "amp;")
	assert.Contains(t, text, "<content>Key</content>", "untranslated rows keep the source text")
}

func TestXMLParser_Resume(t *testing.T) {
	src := writeFixture(t, "Mod/Localization/English/english.xml",
		"<LanguageData><content>Open the door</content><content>Key</content><content>Lock</content></LanguageData>")
	p := NewXMLParser()

	result, err := p.Parse(src)
	require.NoError(t, err)

	out := OutputPath(src)
	require.NoError(t, p.Write(result, pairs.RowSet{{Translation: "Открыть дверь"}, {}, {}}, out))

	rows := make(pairs.RowSet, len(result.Rows))
	copy(rows, result.Rows)
	rows[2].Translation = "Замок"

	seeded, err := p.Resume(rows, out)
	require.NoError(t, err)

	assert.Equal(t, 1, seeded)
	assert.Equal(t, "Открыть дверь", rows[0].Translation)
	assert.Empty(t, rows[1].Translation, "rows still equal to the source are not seeded")
	assert.Equal(t, "Замок", rows[2].Translation)
}

func TestXMLParser_ResumeMissingFile(t *testing.T) {
	_, err := NewXMLParser().Resume(pairs.RowSet{{Original: "x"}}, filepath.Join(t.TempDir(), "none.xml"))
	assert.Error(t, err)
}

func TestXMLParser_ReconstructAddsDeclaration(t *testing.T) {
	src := writeFixture(t, "plain.xml", "<LanguageData><content>Hi</content></LanguageData>")
	p := NewXMLParser()
	result, err := p.Parse(src)
	require.NoError(t, err)

	data, err := p.Reconstruct(result, pairs.RowSet{{Original: "Hi", Translation: "Привет"}})
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, text, "<content>Привет</content>")
}
