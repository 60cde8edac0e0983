package translation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"modloc/internal/config"

	"github.com/bregydoc/gtranslate"
)

// Translator translates a single text between two languages.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Error reports a failed call to a translation provider.
type Error struct {
	Provider string
	Text     string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s translation failed: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds the translator selected by cfg.Translator.
func New(cfg *config.Config) (Translator, error) {
	switch strings.ToLower(cfg.Translator) {
	case "", "google":
		return NewGoogleTranslator(cfg.TranslateDelay), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini translator: GEMINI_API_KEY is not set")
		}
		return NewGeminiTranslator(cfg.GeminiAPIKey, cfg.TranslationModel, cfg.GeminiBaseURL), nil
	}
	return nil, fmt.Errorf("unknown translator %q", cfg.Translator)
}

// GoogleTranslator uses the public Google Translate endpoint.
type GoogleTranslator struct {
	delay time.Duration
}

// NewGoogleTranslator creates a translator that waits delay before every request.
func NewGoogleTranslator(delay time.Duration) *GoogleTranslator {
	return &GoogleTranslator{delay: delay}
}

func (g *GoogleTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.delay):
		}
	}

	translated, err := gtranslate.TranslateWithParams(text, gtranslate.TranslationParams{
		From: sourceLang,
		To:   targetLang,
	})
	if err != nil {
		return "", &Error{Provider: "google", Text: text, Err: err}
	}
	return translated, nil
}
