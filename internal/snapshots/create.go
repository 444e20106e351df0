package snapshots

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/workprune/internal/store"
)

// CreateSnapshot copies the files at paths (relative to root) into a new
// snapshot directory and records them. It returns the snapshot ID.
// Nothing is recorded if any copy fails.
func (m *Manager) CreateSnapshot(root string, paths []string, reason string) (int64, error) {
	if err := os.MkdirAll(m.snapshotDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	createdAt := m.now()

	// Snapshot directory: YYYY-MM-DD-HHMMSS-<random>
	dir, err := os.MkdirTemp(m.snapshotDir, createdAt.Format("2006-01-02-150405")+"-")
	if err != nil {
		return 0, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data := &SnapshotData{
		CreatedAt: createdAt,
		Reason:    reason,
		Root:      root,
		Files:     make([]*FileSnapshot, 0, len(paths)),
	}

	for _, rel := range paths {
		file, err := copyIn(root, dir, rel)
		if err != nil {
			os.RemoveAll(dir)
			return 0, fmt.Errorf("failed to snapshot %s: %w", rel, err)
		}
		data.Files = append(data.Files, file)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		os.RemoveAll(dir)
		return 0, fmt.Errorf("failed to marshal snapshot data: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), jsonData, 0644); err != nil {
		os.RemoveAll(dir)
		return 0, fmt.Errorf("failed to write snapshot manifest: %w", err)
	}

	snapshotID, err := m.store.InsertSnapshot(createdAt, reason, root, len(data.Files), dir)
	if err != nil {
		os.RemoveAll(dir)
		return 0, fmt.Errorf("failed to insert snapshot into database: %w", err)
	}

	for _, f := range data.Files {
		record := &store.SnapshotFile{
			SnapshotID: snapshotID,
			Path:       f.Path,
			StoredPath: storedPath(dir, f.Path),
			SizeBytes:  f.SizeBytes,
			Mode:       f.Mode,
			ModTime:    f.ModTime,
		}
		if err := m.store.InsertSnapshotFile(record); err != nil {
			// Dropping the row cascades to the file records already inserted.
			m.store.DeleteSnapshot(snapshotID)
			os.RemoveAll(dir)
			return 0, fmt.Errorf("failed to insert snapshot file %s: %w", f.Path, err)
		}
	}

	return snapshotID, nil
}

// ListSnapshots returns all snapshots from the database.
func (m *Manager) ListSnapshots() ([]*store.Snapshot, error) {
	snapshots, err := m.store.ListSnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// CleanupOldSnapshots removes snapshot copies older than maxAge and returns
// how many were removed. Database rows are kept as an audit log.
func (m *Manager) CleanupOldSnapshots(maxAge time.Duration) (int, error) {
	snapshots, err := m.store.ListSnapshots()
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}

	cutoff := m.now().Add(-maxAge)
	deleted := 0

	for _, snapshot := range snapshots {
		if !snapshot.CreatedAt.Before(cutoff) {
			continue
		}
		if _, err := os.Stat(snapshot.SnapshotPath); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(snapshot.SnapshotPath); err != nil {
			return deleted, fmt.Errorf("failed to delete snapshot %s: %w", snapshot.SnapshotPath, err)
		}
		deleted++
	}

	return deleted, nil
}

// storedPath is where rel is kept inside a snapshot directory.
func storedPath(dir, rel string) string {
	return filepath.Join(dir, "files", filepath.FromSlash(rel))
}

// copyIn copies root/rel into the snapshot directory.
func copyIn(root, dir, rel string) (*FileSnapshot, error) {
	src := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file")
	}

	if err := copyFile(src, storedPath(dir, rel), info); err != nil {
		return nil, err
	}

	return &FileSnapshot{
		Path:      filepath.ToSlash(rel),
		SizeBytes: info.Size(),
		Mode:      info.Mode().Perm(),
		ModTime:   info.ModTime(),
	}, nil
}

// copyFile copies src to dst, creating parent directories and keeping the
// permission bits and modification time of info.
func copyFile(src, dst string, info os.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
