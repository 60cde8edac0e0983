package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const localizerPrompt = `You localize video game mods.
Translate the user's text from %s to %s.
Placeholders such as {{var_1}} must appear in the translation unchanged.
Keep the tone and capitalization of game UI text.
Reply with the translated text only.`

// GeminiTranslator translates through the Gemini generateContent endpoint.
type GeminiTranslator struct {
	apiKey   string
	model    string
	endpoint string
	attempts int
	backoff  time.Duration
	client   *http.Client
}

// NewGeminiTranslator creates a Gemini client. baseURL points at the models collection.
func NewGeminiTranslator(apiKey, model, baseURL string) *GeminiTranslator {
	return &GeminiTranslator{
		apiKey:   apiKey,
		model:    model,
		endpoint: fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(baseURL, "/"), model),
		attempts: 3,
		backoff:  2 * time.Second,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction content          `json:"systemInstruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// statusError is a non-200 reply from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gemini returned %d: %s", e.code, strings.TrimSpace(e.body))
}

// temporary reports whether another attempt may succeed.
func temporary(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// Translate sends text to Gemini. Rate limits, server errors and network failures
// are retried with a growing delay.
func (gt *GeminiTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	body, err := json.Marshal(generateRequest{
		SystemInstruction: content{Parts: []part{{Text: fmt.Sprintf(localizerPrompt, sourceLang, targetLang)}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: text}}}},
		GenerationConfig:  generationConfig{Temperature: 0.2, MaxOutputTokens: 1024},
	})
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= gt.attempts; attempt++ {
		translated, err := gt.generate(ctx, body)
		if err == nil {
			return translated, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !temporary(err) || attempt == gt.attempts {
			break
		}

		wait := time.Duration(attempt) * gt.backoff
		log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("Gemini request failed, retrying")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	return "", &Error{Provider: "gemini", Text: text, Err: lastErr}
}

func (gt *GeminiTranslator) generate(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gt.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", gt.apiKey)

	resp, err := gt.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &statusError{code: resp.StatusCode, body: string(msg)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", errors.New("gemini response has no candidates")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	log.Debug().
		Str("model", gt.model).
		Int("prompt_tokens", out.UsageMetadata.PromptTokenCount).
		Int("output_tokens", out.UsageMetadata.CandidatesTokenCount).
		Msg("Gemini translation received")

	return strings.TrimSpace(sb.String()), nil
}
