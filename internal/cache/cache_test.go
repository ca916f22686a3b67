package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New[int](time.Hour, nil)
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", 42)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := New[int](time.Millisecond, nil)
	c.Set("k", 1)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Sweep_RemovesExpired(t *testing.T) {
	c := New[int](time.Millisecond, nil)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(5 * time.Millisecond)
	removed := c.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, c.Size())
}

func TestCache_LastWriterWins(t *testing.T) {
	c := New[string](time.Hour, nil)
	c.Set("k", "first")
	c.Set("k", "second")
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestArticleKey_PrefersDOI(t *testing.T) {
	assert.Equal(t, "doi:10.1/x", ArticleKey("10.1/x", "123"))
	assert.Equal(t, "pmid:123", ArticleKey("", "123"))
}
