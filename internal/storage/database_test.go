package storage

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatasetRoundTrip(t *testing.T) {
	db := newTestDB(t)

	ps, err := kmeans.Generate(64, kmeans.Seed(3))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	ds := NewDataset("ds1", kmeans.Seed(3))
	if err := db.InsertDataset(ds, ps); err != nil {
		t.Fatalf("InsertDataset: %v", err)
	}

	got, points, err := db.GetDataset("ds1")
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if got == nil {
		t.Fatal("expected dataset, got nil")
	}
	if got.NumPoints != 64 || got.Dim != 2 {
		t.Errorf("expected 64x2, got %dx%d", got.NumPoints, got.Dim)
	}
	if got.Seed == nil || *got.Seed != 3 {
		t.Errorf("expected seed 3, got %v", got.Seed)
	}
	if !points.Equal(ps) {
		t.Error("stored points differ from generated points")
	}

	cnt, err := db.CountDatasets()
	if err != nil {
		t.Fatalf("CountDatasets: %v", err)
	}
	if cnt != 1 {
		t.Errorf("expected 1 dataset, got %d", cnt)
	}
}

func TestDatasetWithoutSeed(t *testing.T) {
	db := newTestDB(t)
	ps, _ := kmeans.NewPointSet([]kmeans.Point{{1, 2, 3}})
	if err := db.InsertDataset(NewDataset("ds2", nil), ps); err != nil {
		t.Fatalf("InsertDataset: %v", err)
	}
	got, points, err := db.GetDataset("ds2")
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if got.Seed != nil {
		t.Errorf("expected nil seed, got %d", *got.Seed)
	}
	if points.Dim() != 3 {
		t.Errorf("expected dimension 3, got %d", points.Dim())
	}
}

func TestDatasetNotFound(t *testing.T) {
	db := newTestDB(t)
	got, points, err := db.GetDataset("missing")
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if got != nil || points != nil {
		t.Error("expected nil for missing dataset")
	}
}

func TestRunHistory(t *testing.T) {
	db := newTestDB(t)

	res := kmeans.Result{
		Centroids: []kmeans.Point{{0, 0.5}, {10, 0.5}},
		Converged: true,
		Iteration: 2,
		Inertia:   1,
	}
	sid := "sess-1"
	first := NewRun("run1", ModeStep, 4, 2, kmeans.InitManual, res)
	first.SessionID = &sid
	if err := db.InsertRun(first); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	second := NewRun("run2", ModeFull, 4, 2, kmeans.InitRandom, res)
	if err := db.InsertRun(second); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	runs, err := db.GetRecentRuns(10)
	if err != nil {
		t.Fatalf("GetRecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run2" {
		t.Errorf("expected newest run first, got %s", runs[0].ID)
	}

	limited, _ := db.GetRecentRuns(1)
	if len(limited) != 1 {
		t.Errorf("expected 1 run with limit, got %d", len(limited))
	}

	forSession, err := db.GetRunsForSession(sid)
	if err != nil {
		t.Fatalf("GetRunsForSession: %v", err)
	}
	if len(forSession) != 1 || forSession[0].Mode != ModeStep {
		t.Fatalf("unexpected session runs: %+v", forSession)
	}
	r := forSession[0]
	if !r.Converged || r.Exhausted || r.Iterations != 2 || r.InitMethod != "manual" {
		t.Errorf("run fields not preserved: %+v", r)
	}
	centroids, err := r.Centroids()
	if err != nil {
		t.Fatalf("Centroids: %v", err)
	}
	if len(centroids) != 2 || centroids[1][0] != 10 {
		t.Errorf("unexpected centroids: %v", centroids)
	}

	cnt, _ := db.CountRuns()
	if cnt != 2 {
		t.Errorf("expected 2 runs, got %d", cnt)
	}
}

func TestNewRunUnencodableCentroids(t *testing.T) {
	res := kmeans.Result{Centroids: []kmeans.Point{{math.Inf(1), 0}}}
	run := NewRun("bad", ModeFull, 1, 1, kmeans.InitRandom, res)
	if run.CentroidsJSON != "[]" {
		t.Errorf("expected empty centroid list, got %q", run.CentroidsJSON)
	}
	centroids, err := run.Centroids()
	if err != nil || len(centroids) != 0 {
		t.Errorf("expected no centroids, got %v (%v)", centroids, err)
	}
}

func TestInMemoryDatabase(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, err := db.CountRuns(); err != nil {
		t.Fatalf("schema not visible on pooled connection: %v", err)
	}
}
