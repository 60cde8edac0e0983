package cli

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_NewPhaseWithSameTotal(t *testing.T) {
	p := newProgress(io.Discard, "Matching")

	p.Update(1, 2)
	p.Update(2, 2)
	p.Update(1, 2)

	assert.Equal(t, 2, p.total)
	assert.Equal(t, 1, p.done)
}

func TestProgress_OutOfOrderUpdates(t *testing.T) {
	p := newProgress(io.Discard, "Translating")

	p.Update(2, 3)
	p.Update(1, 3)

	assert.Equal(t, 3, p.total)
	assert.Equal(t, 2, p.done)
}

func TestProgress_TotalChangeStartsPhase(t *testing.T) {
	p := newProgress(io.Discard, "Matching")

	p.Update(3, 3)
	p.Update(1, 5)

	assert.Equal(t, 5, p.total)
	assert.Equal(t, 1, p.done)
}
