package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/blackwell-systems/workprune/internal/report"
)

// timestamp formats t for storage. Stored times are UTC so that string
// comparison in SQL orders them correctly.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Run operations

// RecordRun stores r and its per-file decisions for root. It returns the
// new run's database id.
func (s *Store) RecordRun(root, reportPath string, r *report.Report) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs
		(run_id, root, mode, created_at, total_files, delete_safe, keep_required, review_required, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID,
		root,
		string(r.Mode),
		timestamp(r.Timestamp),
		r.TotalFiles(),
		r.Summary.DeleteSafe,
		r.Summary.KeepRequired,
		r.Summary.ReviewRequired,
		reportPath,
	)
	if err != nil {
		return 0, wrap(err, "failed to insert run")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO run_files (run_id, path, category, decision, confidence, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare run file insert: %w", err)
	}
	defer stmt.Close()

	for _, fa := range r.Files {
		if _, err := stmt.Exec(id, fa.Path, string(fa.Category), string(fa.Decision), fa.Confidence, fa.SizeBytes); err != nil {
			return 0, fmt.Errorf("failed to insert run file %s: %w", fa.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

const runColumns = `id, run_id, root, mode, created_at, total_files, delete_safe, keep_required, review_required, report_path`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var createdAt string
	var reportPath sql.NullString

	err := row.Scan(
		&run.ID,
		&run.RunID,
		&run.Root,
		&run.Mode,
		&createdAt,
		&run.TotalFiles,
		&run.DeleteSafe,
		&run.KeepRequired,
		&run.ReviewRequired,
		&reportPath,
	)
	if err != nil {
		return nil, err
	}

	run.ReportPath = reportPath.String
	run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for run %d: %w", run.ID, err)
	}
	return &run, nil
}

// GetRun retrieves a run by database id.
func (s *Store) GetRun(id int64) (*Run, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrap(err, fmt.Sprintf("failed to get run %d", id))
	}
	return run, nil
}

// ListRuns returns runs newest first. A limit of zero or less means all.
// An empty root matches every workspace.
func (s *Store) ListRuns(root string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM runs
		WHERE ? = '' OR root = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, root, root, limit)
	if err != nil {
		return nil, wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetRunFiles returns the recorded files of a run ordered by path.
// A non-empty decision filters the result.
func (s *Store) GetRunFiles(runID int64, decision string) ([]*RunFile, error) {
	rows, err := s.db.Query(`
		SELECT run_id, path, category, decision, confidence, size_bytes
		FROM run_files
		WHERE run_id = ? AND (? = '' OR decision = ?)
		ORDER BY path
	`, runID, decision, decision)
	if err != nil {
		return nil, wrap(err, "failed to get run files")
	}
	defer rows.Close()

	var files []*RunFile
	for rows.Next() {
		var f RunFile
		if err := rows.Scan(&f.RunID, &f.Path, &f.Category, &f.Decision, &f.Confidence, &f.SizeBytes); err != nil {
			return nil, fmt.Errorf("failed to scan run file row: %w", err)
		}
		files = append(files, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run files: %w", err)
	}

	return files, nil
}

// DeleteRunsBefore removes runs created before cutoff and returns how many
// were removed.
func (s *Store) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM runs WHERE created_at < ?`, timestamp(cutoff))
	if err != nil {
		return 0, wrap(err, "failed to prune runs")
	}
	return res.RowsAffected()
}

// Snapshot operations

// InsertSnapshot creates a snapshot record created at createdAt and
// returns its id.
func (s *Store) InsertSnapshot(createdAt time.Time, reason, root string, fileCount int, path string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO snapshots (created_at, reason, root, file_count, snapshot_path)
		VALUES (?, ?, ?, ?, ?)
	`, timestamp(createdAt), reason, root, fileCount, path)
	if err != nil {
		return 0, wrap(err, "failed to insert snapshot")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}
	return id, nil
}

const snapshotColumns = `id, created_at, reason, root, file_count, snapshot_path, restored_at`

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var createdAt string
	var reason sql.NullString
	var restoredAt sql.NullString

	err := row.Scan(
		&snap.ID,
		&createdAt,
		&reason,
		&snap.Root,
		&snap.FileCount,
		&snap.SnapshotPath,
		&restoredAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Reason = reason.String
	snap.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for snapshot %d: %w", snap.ID, err)
	}
	if restoredAt.Valid && restoredAt.String != "" {
		t, err := time.Parse(time.RFC3339, restoredAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse restored_at for snapshot %d: %w", snap.ID, err)
		}
		snap.RestoredAt = &t
	}
	return &snap, nil
}

// GetSnapshot retrieves a snapshot by id.
func (s *Store) GetSnapshot(id int64) (*Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow(`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrap(err, fmt.Sprintf("failed to get snapshot %d", id))
	}
	return snap, nil
}

// ListSnapshots returns all snapshots ordered by creation time (newest first).
func (s *Store) ListSnapshots() ([]*Snapshot, error) {
	rows, err := s.db.Query(`SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, wrap(err, "failed to list snapshots")
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

// MarkSnapshotRestored records when a snapshot was restored.
func (s *Store) MarkSnapshotRestored(id int64, at time.Time) error {
	res, err := s.db.Exec(`UPDATE snapshots SET restored_at = ? WHERE id = ?`, timestamp(at), id)
	if err != nil {
		return wrap(err, fmt.Sprintf("failed to mark snapshot %d restored", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("snapshot %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteSnapshot removes a snapshot record and its files.
func (s *Store) DeleteSnapshot(id int64) error {
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return wrap(err, fmt.Sprintf("failed to delete snapshot %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("snapshot %d: %w", id, ErrNotFound)
	}
	return nil
}

// InsertSnapshotFile adds a file to a snapshot.
func (s *Store) InsertSnapshotFile(f *SnapshotFile) error {
	_, err := s.db.Exec(`
		INSERT INTO snapshot_files (snapshot_id, path, stored_path, size_bytes, mode, mod_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		f.SnapshotID,
		f.Path,
		f.StoredPath,
		f.SizeBytes,
		int64(f.Mode),
		f.ModTime.Format(time.RFC3339Nano),
	)
	if err != nil {
		return wrap(err, fmt.Sprintf("failed to insert snapshot file %s", f.Path))
	}
	return nil
}

// GetSnapshotFiles returns all files in a snapshot ordered by path.
func (s *Store) GetSnapshotFiles(snapshotID int64) ([]*SnapshotFile, error) {
	rows, err := s.db.Query(`
		SELECT snapshot_id, path, stored_path, size_bytes, mode, mod_time
		FROM snapshot_files
		WHERE snapshot_id = ?
		ORDER BY path
	`, snapshotID)
	if err != nil {
		return nil, wrap(err, "failed to get snapshot files")
	}
	defer rows.Close()

	var files []*SnapshotFile
	for rows.Next() {
		var f SnapshotFile
		var mode int64
		var modTime string

		if err := rows.Scan(&f.SnapshotID, &f.Path, &f.StoredPath, &f.SizeBytes, &mode, &modTime); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot file row: %w", err)
		}
		f.Mode = os.FileMode(mode)
		if f.ModTime, err = time.Parse(time.RFC3339Nano, modTime); err != nil {
			return nil, fmt.Errorf("failed to parse mod_time for %s: %w", f.Path, err)
		}
		files = append(files, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot files: %w", err)
	}

	return files, nil
}
