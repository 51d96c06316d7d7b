package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// digestChunkSize bounds memory use while hashing regardless of file size.
const digestChunkSize = 4096

// DigestFile computes the SHA-256 of the file at path in fixed-size reads,
// returning the hex-encoded digest. Deterministic for byte-identical input.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, digestChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyArchive recomputes the digest of path and compares it to expected by
// exact string equality. It never mutates the archive.
func VerifyArchive(path, expected string) (bool, error) {
	actual, err := DigestFile(path)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
