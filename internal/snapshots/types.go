package snapshots

import (
	"os"
	"time"

	"github.com/blackwell-systems/workprune/internal/store"
)

// manifestName is the JSON file written at the top of each snapshot directory.
const manifestName = "manifest.json"

// DefaultRetention is how long snapshot copies are kept by CleanupOldSnapshots.
const DefaultRetention = 90 * 24 * time.Hour

// SnapshotData represents the JSON manifest stored with each snapshot.
type SnapshotData struct {
	CreatedAt time.Time
	Reason    string
	Root      string
	Files     []*FileSnapshot
}

// FileSnapshot represents one copied file in a snapshot manifest.
type FileSnapshot struct {
	Path      string // relative to Root, slash-separated
	SizeBytes int64
	Mode      os.FileMode
	ModTime   time.Time
}

// Manager manages snapshot creation, restoration, and cleanup.
type Manager struct {
	store       *store.Store
	snapshotDir string
	now         func() time.Time
}

// New creates a new snapshot Manager.
func New(store *store.Store, snapshotDir string) *Manager {
	return &Manager{
		store:       store,
		snapshotDir: snapshotDir,
		now:         time.Now,
	}
}
