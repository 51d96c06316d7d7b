package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askelund/packup/internal/stats"
)

func stageIdenticalTree(t *testing.T, files map[string]string) (src, staging string, entries []FileEntry) {
	t.Helper()
	src = buildStagedTree(t, files)
	staging = buildStagedTree(t, files)
	entries = scanForStaging(t, src)
	return src, staging, entries
}

func TestVerifyStagedAllMatch(t *testing.T) {
	src, staging, entries := stageIdenticalTree(t, map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})

	st := stats.NewCollector()
	mismatches := verifyStaged(context.Background(), src, staging, entries, 2, st, nil)
	assert.Empty(t, mismatches)
	assert.Equal(t, int64(2), st.Snapshot().FilesVerified)
	assert.Equal(t, int64(0), st.Snapshot().FilesVerifyFailed)
}

func TestVerifyStagedDetectsMutation(t *testing.T) {
	src, staging, entries := stageIdenticalTree(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
	})

	// Corrupt one staged file.
	require.NoError(t, os.WriteFile(filepath.Join(staging, "b.txt"), []byte("bETA"), 0644))

	st := stats.NewCollector()
	mismatches := verifyStaged(context.Background(), src, staging, entries, 2, st, nil)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "b.txt", mismatches[0].Path)
	assert.NotEqual(t, mismatches[0].SrcHash, mismatches[0].StagedHash)
	assert.Equal(t, int64(1), st.Snapshot().FilesVerifyFailed)
}

func TestVerifyStagedMissingStagedFile(t *testing.T) {
	src, staging, entries := stageIdenticalTree(t, map[string]string{"a.txt": "alpha"})

	require.NoError(t, os.Remove(filepath.Join(staging, "a.txt")))

	mismatches := verifyStaged(context.Background(), src, staging, entries, 1, stats.NewCollector(), nil)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "error", mismatches[0].StagedHash)
}

func TestHashFileBlake3Deterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(path, []byte("stable content"), 0644))

	first, err := hashFileBlake3(path)
	require.NoError(t, err)
	second, err := hashFileBlake3(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}
