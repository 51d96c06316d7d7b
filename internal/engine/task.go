package engine

import (
	"os"
	"time"
)

// FileEntry is a regular file discovered during traversal, slated for
// staging. Created by the scanner, consumed once by the staging pool.
type FileEntry struct {
	AbsPath string // absolute source path
	RelPath string // path relative to the source root
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
}

// ArchiveResult describes a finalized archive.
type ArchiveResult struct {
	Path    string
	Entries int64
	Size    int64
	Digest  string // hex-encoded SHA-256, filled after the archive is written
}
