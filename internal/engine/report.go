package engine

import (
	"fmt"
	"strings"

	"github.com/askelund/packup/internal/stats"
)

// Report aggregates the run outcome for presentation.
type Report struct {
	Stats      stats.Snapshot
	SourceDir  string
	DestDir    string
	BackupDir  string
	Archive    ArchiveResult
	Verified   *bool // nil when archive verification was not requested
	Mismatches []StagedMismatch
}

// Render produces the human-readable backup report block.
func (r Report) Render() string {
	var b strings.Builder
	b.WriteString("Backup Report\n")
	b.WriteString("-------------------------------\n")
	fmt.Fprintf(&b, "Time taken:         %.2fs\n", r.Stats.Elapsed.Seconds())
	fmt.Fprintf(&b, "Files copied:       %d\n", r.Stats.FilesCopied)
	fmt.Fprintf(&b, "Files ignored:      %d\n", r.Stats.FilesIgnored)
	fmt.Fprintf(&b, "Source directory:   %s\n", r.SourceDir)
	fmt.Fprintf(&b, "Destination:        %s\n", r.BackupDir)
	fmt.Fprintf(&b, "ZIP file size:      %s\n", stats.FormatBytes(r.Archive.Size))
	fmt.Fprintf(&b, "SHA-256:            %s\n", r.Archive.Digest)
	if r.Verified != nil {
		if *r.Verified {
			b.WriteString("Verification:       OK\n")
		} else {
			b.WriteString("Verification:       MISMATCH (archive altered or corrupted)\n")
		}
	}
	if n := len(r.Mismatches); n > 0 {
		fmt.Fprintf(&b, "Staged mismatches:  %d\n", n)
	}
	return b.String()
}
