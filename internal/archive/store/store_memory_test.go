package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_PutAndGet(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "a/b.json", []byte(`{"n":1}`), "application/json"))
	assert.Equal(t, 1, st.Len())

	doc, ok := st.Get("a/b.json")
	require.True(t, ok)
	assert.Equal(t, `{"n":1}`, string(doc))

	_, ok = st.Get("missing")
	assert.False(t, ok)
}

func TestInMemoryStore_ExistingKeyWins(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "a/b.json", []byte(`original`), ""))
	require.NoError(t, st.Put(ctx, "a/b.json", []byte(`replacement`), ""))

	doc, ok := st.Get("a/b.json")
	require.True(t, ok)
	assert.Equal(t, "original", string(doc))
	assert.Equal(t, 1, st.Len())
}
