package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modloc/internal/pairs"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"
)

// contentPath selects every translatable element, in document order.
const contentPath = "//content"

var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// XMLParser reads and writes mod localization XML files.
type XMLParser struct{}

func NewXMLParser() *XMLParser { return &XMLParser{} }

func (p *XMLParser) CanParse(ext string) bool {
	return strings.EqualFold(ext, ".xml")
}

// Parse extracts one row per <content> element. The original is the element's inner
// markup, so entities such as &amp; appear escaped exactly as in the file.
func (p *XMLParser) Parse(filePath string) (*ParseResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(filePath); err != nil {
		return nil, fmt.Errorf("read xml file: %w", err)
	}

	result := &ParseResult{
		FilePath: filePath,
		FileType: "xml",
	}

	for _, el := range doc.FindElements(contentPath) {
		var original string
		if text := el.Text(); text != "" && len(el.ChildElements()) == 0 {
			original = strings.TrimSpace(markupEscaper.Replace(text))
		}
		result.Rows = append(result.Rows, pairs.Row{Original: original})
	}

	return result, nil
}

// Reconstruct re-reads the source file and writes each non-blank row translation into
// the matching <content> element. The serialized document is indented, carries an
// XML declaration and has every "amp;" removed.
func (p *XMLParser) Reconstruct(result *ParseResult, rows pairs.RowSet) ([]byte, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromFile(result.FilePath); err != nil {
		return nil, fmt.Errorf("read xml file: %w", err)
	}

	for i, el := range doc.FindElements(contentPath) {
		if i >= len(rows) {
			break
		}
		translation := strings.TrimSpace(pairs.Cleanup(rows[i].Translation))
		if translation != "" {
			el.SetText(translation)
		}
	}

	ensureDeclaration(doc)
	doc.Indent(2)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize xml: %w", err)
	}

	return []byte(pairs.Cleanup(string(out))), nil
}

func ensureDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			return
		}
	}
	doc.InsertChildAt(0, etree.NewProcInst("xml", `version="1.0" encoding="UTF-8"`))
}

// OutputPath returns where the translation of sourcePath is saved:
// a russian.xml in the Russian folder next to the source file's folder.
func OutputPath(sourcePath string) string {
	return filepath.Join(filepath.Dir(sourcePath), "..", "Russian", "russian.xml")
}

// Write reconstructs the file parsed into result with rows and saves it to outPath,
// creating parent directories as needed.
func (p *XMLParser) Write(result *ParseResult, rows pairs.RowSet, outPath string) error {
	data, err := p.Reconstruct(result, rows)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write translation: %w", err)
	}

	log.Info().Str("source", result.FilePath).Str("output", outPath).Msg("Translation saved")
	return nil
}

// Resume seeds untranslated rows from a previously saved translation of the same
// document. A saved element counts as translated when its text differs from the
// original. Returns the number of rows seeded.
func (p *XMLParser) Resume(rows pairs.RowSet, savedPath string) (int, error) {
	saved, err := p.Parse(savedPath)
	if err != nil {
		return 0, err
	}

	seeded := 0
	for i := range rows {
		if i >= len(saved.Rows) {
			break
		}
		prev := saved.Rows[i].Original
		if strings.TrimSpace(rows[i].Translation) != "" || prev == "" || prev == rows[i].Original {
			continue
		}
		rows[i].Translation = prev
		seeded++
	}

	log.Debug().Str("path", savedPath).Int("seeded", seeded).Msg("Resumed saved translations")
	return seeded, nil
}
