package snapshots

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRestoreSnapshot(t *testing.T) {
	db := newTestStore(t)
	root := writeTree(t, map[string]string{
		"logs/run.log":      "log\n",
		"output/result.csv": "a,b\n",
	})
	manager := New(db, filepath.Join(t.TempDir(), "snapshots"))
	restoredAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return restoredAt }

	paths := []string{"logs/run.log", "output/result.csv"}
	id, err := manager.CreateSnapshot(root, paths, "pre-apply")
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	// Simulate apply: delete the originals and their now-empty directories.
	for _, p := range paths {
		if err := os.Remove(filepath.Join(root, filepath.FromSlash(p))); err != nil {
			t.Fatalf("remove %s: %v", p, err)
		}
	}
	os.Remove(filepath.Join(root, "output"))

	restored, err := manager.RestoreSnapshot(id)
	if err != nil {
		t.Fatalf("RestoreSnapshot failed: %v", err)
	}
	if len(restored) != 2 {
		t.Fatalf("Expected 2 restored files, got %d", len(restored))
	}

	content, err := os.ReadFile(filepath.Join(root, "output", "result.csv"))
	if err != nil {
		t.Fatalf("Restored file missing: %v", err)
	}
	if string(content) != "a,b\n" {
		t.Errorf("Restored content = %q", content)
	}

	info, err := os.Stat(filepath.Join(root, "logs", "run.log"))
	if err != nil {
		t.Fatalf("Restored file missing: %v", err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("Expected mode 0640, got %v", info.Mode().Perm())
	}
	if !info.ModTime().Equal(testMtime) {
		t.Errorf("Expected mtime %v, got %v", testMtime, info.ModTime())
	}

	snap, err := db.GetSnapshot(id)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if snap.RestoredAt == nil || !snap.RestoredAt.Equal(restoredAt) {
		t.Errorf("Expected RestoredAt %v, got %v", restoredAt, snap.RestoredAt)
	}
}

func TestRestoreSnapshot_Twice(t *testing.T) {
	db := newTestStore(t)
	root := writeTree(t, map[string]string{"a.tmp": "a"})
	manager := New(db, filepath.Join(t.TempDir(), "snapshots"))

	id, err := manager.CreateSnapshot(root, []string{"a.tmp"}, "test")
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}
	os.Remove(filepath.Join(root, "a.tmp"))

	if _, err := manager.RestoreSnapshot(id); err != nil {
		t.Fatalf("first RestoreSnapshot failed: %v", err)
	}
	if _, err := manager.RestoreSnapshot(id); !errors.Is(err, ErrAlreadyRestored) {
		t.Errorf("Expected ErrAlreadyRestored, got %v", err)
	}
}

func TestRestoreSnapshot_ExistingFileNotOverwritten(t *testing.T) {
	db := newTestStore(t)
	root := writeTree(t, map[string]string{"a.tmp": "old", "b.tmp": "b"})
	manager := New(db, filepath.Join(t.TempDir(), "snapshots"))

	id, err := manager.CreateSnapshot(root, []string{"a.tmp", "b.tmp"}, "test")
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	// a.tmp was recreated after the snapshot; b.tmp was deleted.
	if err := os.WriteFile(filepath.Join(root, "a.tmp"), []byte("new"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	os.Remove(filepath.Join(root, "b.tmp"))

	restored, err := manager.RestoreSnapshot(id)
	if err == nil {
		t.Fatal("Expected error for file that exists again")
	}
	if !strings.Contains(err.Error(), "restored 1/2 files, 1 failures") {
		t.Errorf("Unexpected error message: %v", err)
	}
	if len(restored) != 1 || restored[0] != "b.tmp" {
		t.Errorf("Expected only b.tmp restored, got %v", restored)
	}

	content, _ := os.ReadFile(filepath.Join(root, "a.tmp"))
	if string(content) != "new" {
		t.Errorf("Existing file was overwritten: %q", content)
	}
}

func TestRestoreSnapshot_NotFound(t *testing.T) {
	db := newTestStore(t)
	manager := New(db, filepath.Join(t.TempDir(), "snapshots"))

	if _, err := manager.RestoreSnapshot(999); err == nil {
		t.Fatal("Expected error for missing snapshot")
	}
}

func TestRestoreSnapshot_MissingManifest(t *testing.T) {
	db := newTestStore(t)
	root := writeTree(t, map[string]string{"a.tmp": "a"})
	manager := New(db, filepath.Join(t.TempDir(), "snapshots"))

	id, err := manager.CreateSnapshot(root, []string{"a.tmp"}, "test")
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}
	snap, _ := db.GetSnapshot(id)
	if err := os.Remove(filepath.Join(snap.SnapshotPath, manifestName)); err != nil {
		t.Fatalf("remove manifest: %v", err)
	}

	_, err = manager.RestoreSnapshot(id)
	if err == nil || !strings.Contains(err.Error(), "failed to load snapshot file") {
		t.Errorf("Expected manifest load error, got %v", err)
	}
}
