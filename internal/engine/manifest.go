package engine

import (
	"fmt"
	"os"
	"strings"
)

// ManifestName is the sidecar manifest written next to the archive.
const ManifestName = "readme.txt"

// Manifest holds the fields persisted to the sidecar manifest.
type Manifest struct {
	CreatedAt string // run timestamp, same format as folder and zip names
	ZipName   string
	Digest    string // hex-encoded SHA-256 of the archive
	Comment   string // optional caller-supplied free text
}

// Render produces the manifest file content.
func (m Manifest) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Backup created on: %s\n", m.CreatedAt)
	fmt.Fprintf(&b, "ZIP file created: %s\n", m.ZipName)
	fmt.Fprintf(&b, "SHA-256 hash of the ZIP file: %s\n", m.Digest)
	if m.Comment != "" {
		fmt.Fprintf(&b, "Comment: %s\n", m.Comment)
	}
	return b.String()
}

// writeManifest persists the manifest to path.
func writeManifest(path string, m Manifest) error {
	if err := os.WriteFile(path, []byte(m.Render()), 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}
