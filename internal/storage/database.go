package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS datasets (
    id TEXT PRIMARY KEY,
    num_points INTEGER NOT NULL,
    dim INTEGER NOT NULL,
    seed INTEGER,
    points BLOB NOT NULL,
    created_at TEXT
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    session_id TEXT,
    dataset_id TEXT,
    mode TEXT NOT NULL,
    num_points INTEGER NOT NULL,
    k INTEGER NOT NULL,
    init_method TEXT NOT NULL,
    iterations INTEGER NOT NULL,
    converged INTEGER NOT NULL,
    exhausted INTEGER NOT NULL,
    inertia REAL,
    centroids_json TEXT,
    created_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session_id);
`

// Database provides thread-safe SQLite operations.
type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}
	return &Database{db: db}, nil
}

func (d *Database) Initialize() error {
	_, err := d.db.Exec(schemaDDL)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Ping reports whether the database is reachable.
func (d *Database) Ping() error {
	return d.db.Ping()
}

// -- Dataset operations --

// InsertDataset stores the points of ps under ds.ID.
func (d *Database) InsertDataset(ds Dataset, ps *kmeans.PointSet) error {
	blob, err := EncodePoints(ps)
	if err != nil {
		return fmt.Errorf("encode dataset %s: %w", ds.ID, err)
	}
	_, err = d.db.Exec(`
		INSERT INTO datasets (id, num_points, dim, seed, points, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ds.ID, ps.Len(), ps.Dim(), ds.Seed, blob, ds.CreatedAt,
	)
	return err
}

// GetDataset returns the dataset metadata and its points, or nil when absent.
func (d *Database) GetDataset(id string) (*Dataset, *kmeans.PointSet, error) {
	var ds Dataset
	var blob []byte
	err := d.db.QueryRow(
		"SELECT id, num_points, dim, seed, points, created_at FROM datasets WHERE id=?", id,
	).Scan(&ds.ID, &ds.NumPoints, &ds.Dim, &ds.Seed, &blob, &ds.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	ps, err := DecodePoints(blob)
	if err != nil {
		return nil, nil, fmt.Errorf("decode dataset %s: %w", id, err)
	}
	return &ds, ps, nil
}

func (d *Database) CountDatasets() (int, error) {
	var cnt int
	err := d.db.QueryRow("SELECT COUNT(*) FROM datasets").Scan(&cnt)
	return cnt, err
}

// -- Run operations --

func (d *Database) InsertRun(r Run) error {
	_, err := d.db.Exec(`
		INSERT INTO runs
		(id, session_id, dataset_id, mode, num_points, k, init_method, iterations,
		 converged, exhausted, inertia, centroids_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.DatasetID, string(r.Mode), r.NumPoints, r.K, r.InitMethod,
		r.Iterations, r.Converged, r.Exhausted, r.Inertia, r.CentroidsJSON, r.CreatedAt,
	)
	return err
}

// GetRecentRuns returns up to limit runs, newest first.
func (d *Database) GetRecentRuns(limit int) ([]Run, error) {
	q := "SELECT * FROM runs ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := d.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return d.scanRuns(rows)
}

// GetRunsForSession returns the runs recorded for a session, oldest first.
func (d *Database) GetRunsForSession(sessionID string) ([]Run, error) {
	rows, err := d.db.Query("SELECT * FROM runs WHERE session_id=? ORDER BY created_at, rowid", sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return d.scanRuns(rows)
}

func (d *Database) CountRuns() (int, error) {
	var cnt int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&cnt)
	return cnt, err
}

func (d *Database) scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var mode string
		err := rows.Scan(
			&r.ID, &r.SessionID, &r.DatasetID, &mode, &r.NumPoints, &r.K, &r.InitMethod,
			&r.Iterations, &r.Converged, &r.Exhausted, &r.Inertia, &r.CentroidsJSON, &r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		r.Mode = RunMode(mode)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
