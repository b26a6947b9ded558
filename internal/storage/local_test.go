package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := NewKey("endmill.stl")
	require.NoError(t, store.Save(ctx, key, strings.NewReader("solid geometry")))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "solid geometry", string(data))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	require.Error(t, err)
}

func TestLocalStoreDeleteMissingIsNoOp(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "never-saved.stl"))
}

func TestNewKeyPreservesFilenameAndIsUnique(t *testing.T) {
	t.Parallel()

	first := NewKey("endmill.stl")
	second := NewKey("endmill.stl")

	require.NotEqual(t, first, second)
	require.True(t, strings.HasSuffix(first, "_endmill.stl"))

	// Path components in the uploaded name must not escape the store.
	traversal := NewKey("../../etc/passwd")
	require.NotContains(t, traversal, "/")
}
