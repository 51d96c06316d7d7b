package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	FileCopied
	FileIgnored
	FileFailed
	StageComplete
	ArchiveStarted
	EntryArchived
	ArchiveComplete
	VerifyStarted
	VerifyOK
	VerifyFailed
	ManifestWritten
)

var typeNames = [...]string{
	ScanStarted:     "ScanStarted",
	ScanComplete:    "ScanComplete",
	FileCopied:      "FileCopied",
	FileIgnored:     "FileIgnored",
	FileFailed:      "FileFailed",
	StageComplete:   "StageComplete",
	ArchiveStarted:  "ArchiveStarted",
	EntryArchived:   "EntryArchived",
	ArchiveComplete: "ArchiveComplete",
	VerifyStarted:   "VerifyStarted",
	VerifyOK:        "VerifyOK",
	VerifyFailed:    "VerifyFailed",
	ManifestWritten: "ManifestWritten",
}

func (t Type) String() string {
	if int(t) < len(typeNames) && int(t) > 0 {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the backup pipeline.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // source-relative path, or archive path for archive events
	Size      int64  // file size, or archive size for ArchiveComplete
	Total     int64  // total files (ScanComplete)
	TotalSize int64  // total bytes (ScanComplete)
	Digest    string // hex digest (ArchiveComplete, Verify*)
	Error     error
}
