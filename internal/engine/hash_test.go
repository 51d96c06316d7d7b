package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexDigestRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestDigestFileKnownValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	data := []byte("the quick brown fox")
	require.NoError(t, os.WriteFile(path, data, 0644))

	got, err := DigestFile(path)
	require.NoError(t, err)

	want := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
	assert.Regexp(t, hexDigestRe, got)
}

func TestDigestFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	// Larger than one hashing chunk so multiple reads are exercised.
	data := make([]byte, 3*digestChunkSize+17)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0644))

	first, err := DigestFile(path)
	require.NoError(t, err)
	second, err := DigestFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDigestFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	got, err := DigestFile(path)
	require.NoError(t, err)
	// SHA-256 of the empty input.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
}

func TestDigestFileMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := DigestFile(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestVerifyArchiveMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	require.NoError(t, os.WriteFile(path, []byte("archive bytes"), 0644))

	digest, err := DigestFile(path)
	require.NoError(t, err)

	ok, err := VerifyArchive(path, digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyArchiveSingleByteMutation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	data := []byte("archive bytes that will be tampered with")
	require.NoError(t, os.WriteFile(path, data, 0644))

	digest, err := DigestFile(path)
	require.NoError(t, err)

	data[10] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0644))

	ok, err := VerifyArchive(path, digest)
	require.NoError(t, err)
	assert.False(t, ok)
}
