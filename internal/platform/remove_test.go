package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearWriteProtectionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readonly.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0444))

	require.NoError(t, ClearWriteProtection(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0200, "owner write bit should be set")
}

func TestClearWriteProtectionDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.Chmod(sub, 0500))

	require.NoError(t, ClearWriteProtection(sub, true))

	info, err := os.Stat(sub)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm()&0700)
}

func TestClearWriteProtectionSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0444))
	require.NoError(t, os.Symlink(target, link))

	// Symlinks are left alone; the target must not change.
	require.NoError(t, ClearWriteProtection(link, false))
	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0444), info.Mode().Perm())
}

func TestRemoveAllForcedReadOnlyTree(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "staging")
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.txt"), []byte("a"), 0400))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0400))

	// Lock the directories after populating them.
	require.NoError(t, os.Chmod(sub, 0500))
	require.NoError(t, os.Chmod(root, 0500))

	require.NoError(t, RemoveAllForced(root))

	_, err := os.Lstat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveAllForcedMissingRoot(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, RemoveAllForced(filepath.Join(dir, "never-existed")))
}

func TestRemoveAllForcedPlainTree(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "staging")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "c.txt"), []byte("c"), 0644))

	require.NoError(t, RemoveAllForced(root))

	_, err := os.Lstat(root)
	assert.True(t, os.IsNotExist(err))
}
