package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"blemap/internal/identifier"
	"blemap/internal/mapping"
)

const (
	vendorID = "6E400001-B5A3-F393-E0A9-E50E24DCCA9E"
	otherID  = "0000FFF0-0000-1000-8000-00805F9B34FB"
)

func setupTestDB(t *testing.T) (*DB, string) {
	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dbPath := filepath.Join(tmpDir, "out", "results.db")
	db, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db, dbPath
}

func sampleOutput() mapping.Output {
	return mapping.Output{
		"APP1": {
			identifier.Identifier(vendorID): &mapping.Assignment{
				Components: mapping.Categories{
					API:      []string{"power:query"},
					Strings:  []string{"power:query", "power:query"},
					Fields:   []string{},
					Combined: []string{"power:query", "power:query", "power:query"},
				},
				Final: "power:query",
			},
		},
		"APP2": {
			identifier.Identifier(otherID): &mapping.Assignment{
				Components: mapping.Categories{
					API:      []string{},
					Strings:  []string{},
					Fields:   []string{},
					Combined: []string{},
				},
				Final: mapping.Unresolved,
			},
		},
	}
}

func TestDatabaseInitialization(t *testing.T) {
	db, dbPath := setupTestDB(t)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("Database file was not created at %s", dbPath)
	}
	if db.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, db.Path())
	}

	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbPath := filepath.Join(tmpDir, "results.db")

	db, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	run := &Run{RunID: uuid.NewString(), StartedAt: time.Now().UTC().Truncate(time.Second), CorpusDigest: "abc"}
	if err := NewRunRepository(db).Create(run); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	db, err = Open(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	got, err := NewRunRepository(db).GetByID(run.RunID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if got == nil {
		t.Fatal("Expected run to survive reopen")
	}
}

func TestRunRepository(t *testing.T) {
	db, _ := setupTestDB(t)
	repo := NewRunRepository(db)

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	finished := started.Add(time.Minute)
	run := &Run{
		RunID:          uuid.NewString(),
		StartedAt:      started,
		FinishedAt:     &finished,
		CorpusDigest:   "digest-1",
		ValidationMode: true,
		Apps:           2,
		Identifiers:    3,
		Resolved:       1,
	}
	if err := repo.Create(run); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	got, err := repo.GetByID(run.RunID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if got == nil {
		t.Fatal("Run not found")
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("Expected started_at %v, got %v", started, got.StartedAt)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("Expected finished_at %v, got %v", finished, got.FinishedAt)
	}
	if !got.ValidationMode || got.Apps != 2 || got.Identifiers != 3 || got.Resolved != 1 {
		t.Errorf("Unexpected run counters: %+v", got)
	}

	missing, err := repo.GetByID("nope")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing run, got %+v", missing)
	}

	later := &Run{RunID: uuid.NewString(), StartedAt: started.Add(time.Hour), CorpusDigest: "digest-1"}
	if err := repo.Create(later); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	runs, err := repo.ListByDigest("digest-1")
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != later.RunID {
		t.Errorf("Expected most recent run first, got %d runs", len(runs))
	}
}

func TestSaveAndLoadOutput(t *testing.T) {
	db, _ := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	run := &Run{RunID: uuid.NewString(), StartedAt: time.Now().UTC().Truncate(time.Second), CorpusDigest: "d"}
	want := sampleOutput()
	if err := repo.SaveRun(run, want); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}
	if run.Apps != 2 || run.Identifiers != 2 || run.Resolved != 1 {
		t.Errorf("Run counters not filled from output: %+v", run)
	}

	got, err := repo.LoadOutput(run.RunID)
	if err != nil {
		t.Fatalf("Failed to load output: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("Loaded output differs:\nwant %+v\ngot  %+v", want, got)
	}

	counts, err := repo.CategoryCounts(run.RunID)
	if err != nil {
		t.Fatalf("Failed to count categories: %v", err)
	}
	if counts["power:query"] != 1 || counts[mapping.Unresolved] != 1 {
		t.Errorf("Unexpected category counts: %v", counts)
	}
}

func TestDeleteRunCascades(t *testing.T) {
	db, _ := setupTestDB(t)
	run := &Run{RunID: uuid.NewString(), StartedAt: time.Now().UTC(), CorpusDigest: "d"}
	if err := NewAssignmentRepository(db).SaveRun(run, sampleOutput()); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	if err := NewRunRepository(db).Delete(run.RunID); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM assignment_categories").Scan(&n); err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected categories to be deleted with the run, %d remain", n)
	}
}

func TestSaveRunRollsBackOnDuplicate(t *testing.T) {
	db, _ := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	run := &Run{RunID: uuid.NewString(), StartedAt: time.Now().UTC(), CorpusDigest: "d"}
	if err := repo.SaveRun(run, sampleOutput()); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}
	if err := repo.SaveRun(run, sampleOutput()); err == nil {
		t.Fatal("Expected duplicate run ID to fail")
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM assignments").Scan(&n); err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 assignments after rollback, got %d", n)
	}
}
