package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsCyrillic(t *testing.T) {
	assert.True(t, ContainsCyrillic("Open дверь"))
	assert.False(t, ContainsCyrillic("Open door"))
	assert.False(t, ContainsCyrillic(""))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank(" \t\n"))
	assert.False(t, IsBlank(" x "))
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("door"), Hash("door"))
	assert.NotEqual(t, Hash("door"), Hash("Door"))
	assert.Len(t, Hash(""), 64)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Приве...", Truncate("Привет мир", 5))
}
