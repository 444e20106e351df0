package store

import (
	"os"
	"time"
)

// Run is one recorded analyze or apply invocation.
type Run struct {
	ID             int64
	RunID          string // report run id, YYYYMMDD_HHMMSS
	Root           string
	Mode           string // "analyze" or "apply"
	CreatedAt      time.Time
	TotalFiles     int
	DeleteSafe     int
	KeepRequired   int
	ReviewRequired int
	ReportPath     string
}

// RunFile is the decision recorded for one file in a run.
type RunFile struct {
	RunID      int64
	Path       string
	Category   string
	Decision   string
	Confidence float64
	SizeBytes  int64
}

// Snapshot is a set of files copied aside before an apply deleted them.
type Snapshot struct {
	ID           int64
	CreatedAt    time.Time
	Reason       string
	Root         string
	FileCount    int
	SnapshotPath string
	RestoredAt   *time.Time
}

// SnapshotFile is one file held in a snapshot.
type SnapshotFile struct {
	SnapshotID int64
	Path       string // relative to the snapshot root, slash-separated
	StoredPath string // copy inside the snapshot directory
	SizeBytes  int64
	Mode       os.FileMode
	ModTime    time.Time
}
