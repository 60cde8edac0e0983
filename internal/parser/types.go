package parser

import "modloc/internal/pairs"

// ParseResult holds the translatable rows of one localization file.
type ParseResult struct {
	// FilePath is the path the rows were read from.
	FilePath string
	// FileType is the detected format, currently always "xml".
	FileType string
	// Rows has one entry per <content> element, in document order. Elements whose
	// content is not plain text produce a row with an empty original so indexes stay
	// aligned with the document.
	Rows pairs.RowSet
}

// Parser is the interface for localization file formats.
type Parser interface {
	// CanParse returns true if this parser handles the given file extension.
	CanParse(ext string) bool
	// Parse extracts translatable rows from a file.
	Parse(filePath string) (*ParseResult, error)
	// Reconstruct rebuilds the file with translations taken from rows, by index.
	Reconstruct(result *ParseResult, rows pairs.RowSet) ([]byte, error)
}
