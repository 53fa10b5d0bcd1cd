package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/medintake/internal/domain"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.SaveArtifact(ctx, "dana_medical_plan.txt", "first draft"))
	require.NoError(t, store.SaveArtifact(ctx, "dana_medical_plan.txt", "מנוחה ושתייה מרובה"))

	got, err := store.LoadArtifact(ctx, "dana_medical_plan.txt")
	require.NoError(t, err)
	assert.Equal(t, "מנוחה ושתייה מרובה", got)

	raw, err := os.ReadFile(filepath.Join(dir, "dana_medical_plan.txt"))
	require.NoError(t, err)
	assert.Equal(t, "מנוחה ושתייה מרובה", string(raw))
}

func TestFileStoreMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadArtifact(context.Background(), "nobody_medical_plan.txt")
	assert.True(t, errors.Is(err, domain.ErrArtifactNotFound))
}

func TestFileStoreRejectsEmptyKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.SaveArtifact(context.Background(), "", "x"))
}

func TestFileStoreEncodesPathKeys(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "plans")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	keys := []string{
		"ana/bo_medical_plan.txt",
		".dana_medical_plan.txt",
		"../escape_medical_plan.txt",
		`c:\x_medical_plan.txt`,
		"ana%2Fbo_medical_plan.txt",
	}
	for i, key := range keys {
		content := fmt.Sprintf("plan %d", i)
		require.NoError(t, store.SaveArtifact(ctx, key, content), "key %q", key)
	}
	for i, key := range keys {
		got, err := store.LoadArtifact(ctx, key)
		require.NoError(t, err, "key %q", key)
		assert.Equal(t, fmt.Sprintf("plan %d", i), got, "key %q", key)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(keys))
	for _, e := range entries {
		assert.False(t, e.IsDir())
		assert.NotEqual(t, ".", e.Name()[:1], "hidden file %q", e.Name())
	}

	outside, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, outside, 1, "nothing may be written beside the store directory")
}
