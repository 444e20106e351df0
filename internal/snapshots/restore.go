package snapshots

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrAlreadyRestored is returned when restoring a snapshot twice.
var ErrAlreadyRestored = errors.New("snapshot already restored")

// RestoreSnapshot copies every file of a snapshot back to where it was.
// Files that exist again at their original path are left alone and
// reported as failures. It returns the restored relative paths.
func (m *Manager) RestoreSnapshot(id int64) ([]string, error) {
	snapshot, err := m.store.GetSnapshot(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if snapshot.RestoredAt != nil {
		return nil, fmt.Errorf("snapshot %d restored at %s: %w",
			id, snapshot.RestoredAt.Format("2006-01-02 15:04:05"), ErrAlreadyRestored)
	}

	data, err := loadSnapshotFile(filepath.Join(snapshot.SnapshotPath, manifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot file: %w", err)
	}

	var restored, failures []string
	for _, f := range data.Files {
		if err := restoreFile(snapshot.SnapshotPath, data.Root, f); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", f.Path, err))
			continue
		}
		restored = append(restored, f.Path)
	}

	if len(restored) > 0 {
		if err := m.store.MarkSnapshotRestored(id, m.now()); err != nil {
			return restored, fmt.Errorf("failed to mark snapshot restored: %w", err)
		}
	}

	if len(failures) > 0 {
		return restored, fmt.Errorf("restored %d/%d files, %d failures: %v",
			len(restored), len(data.Files), len(failures), failures)
	}

	return restored, nil
}

// restoreFile copies one file from the snapshot back under root.
func restoreFile(dir, root string, f *FileSnapshot) error {
	dst := filepath.Join(root, filepath.FromSlash(f.Path))
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("file exists at original path")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	src := storedPath(dir, f.Path)
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("snapshot copy missing: %w", err)
	}

	if err := copyFile(src, dst, info); err != nil {
		return err
	}
	if f.Mode != 0 {
		if err := os.Chmod(dst, f.Mode); err != nil {
			return err
		}
	}
	return os.Chtimes(dst, f.ModTime, f.ModTime)
}

// loadSnapshotFile reads and parses a snapshot JSON manifest.
func loadSnapshotFile(path string) (*SnapshotData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshotData SnapshotData
	if err := json.Unmarshal(data, &snapshotData); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}

	return &snapshotData, nil
}
