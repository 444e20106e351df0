package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    root TEXT NOT NULL,
    mode TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    total_files INTEGER NOT NULL,
    delete_safe INTEGER NOT NULL,
    keep_required INTEGER NOT NULL,
    review_required INTEGER NOT NULL,
    report_path TEXT
);

CREATE TABLE IF NOT EXISTS run_files (
    run_id INTEGER NOT NULL,
    path TEXT NOT NULL,
    category TEXT NOT NULL,
    decision TEXT NOT NULL,
    confidence REAL NOT NULL,
    size_bytes INTEGER NOT NULL,
    PRIMARY KEY (run_id, path),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL,
    reason TEXT,
    root TEXT NOT NULL,
    file_count INTEGER,
    snapshot_path TEXT NOT NULL,
    restored_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS snapshot_files (
    snapshot_id INTEGER NOT NULL,
    path TEXT NOT NULL,
    stored_path TEXT NOT NULL,
    size_bytes INTEGER,
    mode INTEGER,
    mod_time TIMESTAMP,
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root);
CREATE INDEX IF NOT EXISTS idx_run_files_decision ON run_files(run_id, decision);
CREATE INDEX IF NOT EXISTS idx_snapshot_files ON snapshot_files(snapshot_id);
`
