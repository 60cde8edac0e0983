package translation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"modloc/internal/pairs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranslator upper-cases text and fails for texts containing "fail".
type fakeTranslator struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if strings.Contains(text, "fail") {
		return "", &Error{Provider: "fake", Text: text, Err: errors.New("quota exceeded")}
	}
	return "[" + targetLang + "] " + strings.ToUpper(text), nil
}

type mapMemory struct {
	mu      sync.Mutex
	entries map[string]string
}

func (m *mapMemory) Get(ctx context.Context, source string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[source]
	return v, ok
}

func (m *mapMemory) Set(ctx context.Context, source, translated, origin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[source] = translated
	return nil
}

func TestAutoTranslator_Run(t *testing.T) {
	tr := &fakeTranslator{}
	memory := &mapMemory{entries: map[string]string{"Key": "Ключ"}}
	at := NewAutoTranslator(tr, memory, 2, "en", "ru")

	rows := pairs.RowSet{
		{Original: "door"},
		{Original: "Key"},
		{Original: "  door  ", Translation: "old"},
		{Original: ""},
		{Original: "please fail"},
	}

	stats, err := at.Run(context.Background(), rows, AutoOptions{})
	require.NoError(t, err)

	assert.Equal(t, "[ru] DOOR", rows[0].Translation)
	assert.Equal(t, "Ключ", rows[1].Translation)
	assert.Equal(t, "[ru] DOOR", rows[2].Translation, "existing translations are overwritten by default")
	assert.Empty(t, rows[3].Translation)
	assert.Empty(t, rows[4].Translation, "failed rows are left unchanged")

	assert.Equal(t, AutoStats{Translated: 2, FromMemory: 1, Failed: 1}, stats)
	assert.ElementsMatch(t, []string{"door", "please fail"}, tr.calls, "identical texts are translated once")

	cached, ok := memory.Get(context.Background(), "door")
	assert.True(t, ok)
	assert.Equal(t, "[ru] DOOR", cached)
}

func TestAutoTranslator_KeepExisting(t *testing.T) {
	tr := &fakeTranslator{}
	at := NewAutoTranslator(tr, nil, 1, "en", "ru")
	rows := pairs.RowSet{{Original: "door", Translation: "Дверь"}, {Original: "key"}}

	var progress []int
	stats, err := at.Run(context.Background(), rows, AutoOptions{
		KeepExisting: true,
		Progress:     func(done, total int) { progress = append(progress, done, total) },
	})
	require.NoError(t, err)

	assert.Equal(t, "Дверь", rows[0].Translation)
	assert.Equal(t, "[ru] KEY", rows[1].Translation)
	assert.Equal(t, 1, stats.Translated)
	assert.Equal(t, []int{1, 1}, progress)
}

func TestAutoTranslator_ProtectsPlaceholders(t *testing.T) {
	tr := &fakeTranslator{}
	at := NewAutoTranslator(tr, nil, 1, "en", "ru")
	rows := pairs.RowSet{{Original: "Gained {0} gold"}}

	_, err := at.Run(context.Background(), rows, AutoOptions{})
	require.NoError(t, err)

	require.Len(t, tr.calls, 1)
	assert.Equal(t, "Gained {{var_1}} gold", tr.calls[0])
	// The fake upper-cases the placeholder, so it cannot be restored.
	assert.Equal(t, "[ru] GAINED {{VAR_1}} GOLD", rows[0].Translation)
}

func TestAutoTranslator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	at := NewAutoTranslator(&fakeTranslator{}, nil, 1, "en", "ru")
	_, err := at.Run(ctx, pairs.RowSet{{Original: "door"}}, AutoOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("network down")
	var err error = &Error{Provider: "google", Text: "door", Err: cause}

	var trErr *Error
	require.True(t, errors.As(err, &trErr))
	assert.Equal(t, "google", trErr.Provider)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "network down")
}
