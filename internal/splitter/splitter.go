// Package splitter extracts "English | Russian" pairs from pasted text or the clipboard.
package splitter

import (
	"errors"
	"fmt"
	"strings"

	"modloc/internal/pairs"

	"github.com/atotto/clipboard"
)

// ErrNoInput is returned when neither the input nor the clipboard holds text.
var ErrNoInput = errors.New("no text to process")

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemClipboard is the OS clipboard.
var SystemClipboard Clipboard = systemClipboard{}

// Split returns one "English | Russian" line per pair found in text.
func Split(text string) []string {
	found := pairs.SplitInline(text)
	lines := make([]string, 0, len(found))
	for _, p := range found {
		lines = append(lines, p.Original+" | "+p.Translation)
	}
	return lines
}

// Splitter runs Split over user input, falling back to the clipboard.
type Splitter struct {
	clip Clipboard
}

// New creates a Splitter using clip for fallback input and copying.
func New(clip Clipboard) *Splitter {
	return &Splitter{clip: clip}
}

// Run splits input, or the clipboard contents when input is empty.
func (s *Splitter) Run(input string) (string, error) {
	if input == "" && s.clip != nil {
		text, err := s.clip.ReadAll()
		if err != nil {
			return "", fmt.Errorf("read clipboard: %w", err)
		}
		input = text
	}
	if input == "" {
		return "", ErrNoInput
	}
	return strings.Join(Split(input), "\n"), nil
}

// Copy puts result on the clipboard. Empty results are not copied.
func (s *Splitter) Copy(result string) error {
	if result == "" || s.clip == nil {
		return nil
	}
	if err := s.clip.WriteAll(result); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
