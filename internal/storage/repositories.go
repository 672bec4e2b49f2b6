package storage

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"blemap/internal/identifier"
	"blemap/internal/mapping"
)

// Run represents one functionality-mapping run
type Run struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     *time.Time
	CorpusDigest   string
	ValidationMode bool
	Apps           int
	Identifiers    int
	Resolved       int
}

// RunRepository provides CRUD operations for the runs table
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run
func (r *RunRepository) Create(run *Run) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		return insertRun(tx, run)
	})
}

func insertRun(tx *sql.Tx, run *Run) error {
	_, err := tx.Exec(`
		INSERT INTO runs (
			run_id, started_at, finished_at, corpus_digest,
			validation_mode, apps, identifiers, resolved
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.StartedAt.Format(time.RFC3339),
		formatTimePtr(run.FinishedAt),
		run.CorpusDigest,
		run.ValidationMode,
		run.Apps,
		run.Identifiers,
		run.Resolved,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID
func (r *RunRepository) GetByID(runID string) (*Run, error) {
	rows, err := r.db.Query(`
		SELECT run_id, started_at, finished_at, corpus_digest,
			validation_mode, apps, identifiers, resolved
		FROM runs WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// ListByDigest returns all runs over the corpus with the given digest,
// most recent first
func (r *RunRepository) ListByDigest(digest string) ([]*Run, error) {
	rows, err := r.db.Query(`
		SELECT run_id, started_at, finished_at, corpus_digest,
			validation_mode, apps, identifiers, resolved
		FROM runs WHERE corpus_digest = ?
		ORDER BY started_at DESC, run_id
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return scanRuns(rows)
}

// Delete removes a run together with its assignments
func (r *RunRepository) Delete(runID string) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM runs WHERE run_id = ?", runID)
		return err
	})
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var startedAt string
		var finishedAt sql.NullString

		if err := rows.Scan(
			&run.RunID,
			&startedAt,
			&finishedAt,
			&run.CorpusDigest,
			&run.ValidationMode,
			&run.Apps,
			&run.Identifiers,
			&run.Resolved,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		t, err := time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		run.StartedAt = t

		if finishedAt.Valid {
			t, err := time.Parse(time.RFC3339, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse finished_at: %w", err)
			}
			run.FinishedAt = &t
		}

		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// AssignmentRepository stores the per-identifier output of a run
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// SaveRun records run and its complete output in one transaction. The run's
// counters are taken from out.
func (r *AssignmentRepository) SaveRun(run *Run, out mapping.Output) error {
	run.Apps, run.Identifiers, run.Resolved = out.Counts()

	return r.db.WithTx(func(tx *sql.Tx) error {
		if err := insertRun(tx, run); err != nil {
			return err
		}

		assignStmt, err := tx.Prepare(`
			INSERT INTO assignments (run_id, app_key, identifier, final_category)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer assignStmt.Close()

		catStmt, err := tx.Prepare(`
			INSERT INTO assignment_categories (
				run_id, app_key, identifier, component, position, category
			) VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer catStmt.Close()

		for _, appKey := range sortedKeys(out) {
			for id, as := range out[appKey] {
				if _, err := assignStmt.Exec(run.RunID, appKey, string(id), as.Final); err != nil {
					return fmt.Errorf("failed to insert assignment %s/%s: %w", appKey, id, err)
				}
				components := map[string][]string{
					componentAPI:    as.Components.API,
					componentString: as.Components.Strings,
					componentField:  as.Components.Fields,
				}
				for component, cats := range components {
					for pos, cat := range cats {
						if _, err := catStmt.Exec(run.RunID, appKey, string(id), component, pos, cat); err != nil {
							return fmt.Errorf("failed to insert category: %w", err)
						}
					}
				}
			}
		}
		return nil
	})
}

const (
	componentAPI    = "api"
	componentString = "string"
	componentField  = "field"
)

// LoadOutput rebuilds the output of a stored run. Combined lists are
// reconstructed in API, string, field order.
func (r *AssignmentRepository) LoadOutput(runID string) (mapping.Output, error) {
	rows, err := r.db.Query(`
		SELECT app_key, identifier, final_category
		FROM assignments WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}

	out := mapping.Output{}
	for rows.Next() {
		var appKey, id, final string
		if err := rows.Scan(&appKey, &id, &final); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if out[appKey] == nil {
			out[appKey] = mapping.AppOutput{}
		}
		out[appKey][identifier.Identifier(id)] = &mapping.Assignment{
			Components: mapping.Categories{API: []string{}, Strings: []string{}, Fields: []string{}},
			Final:      final,
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = r.db.Query(`
		SELECT app_key, identifier, component, category
		FROM assignment_categories WHERE run_id = ?
		ORDER BY app_key, identifier, component, position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var appKey, id, component, category string
		if err := rows.Scan(&appKey, &id, &component, &category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		as := out[appKey][identifier.Identifier(id)]
		if as == nil {
			continue
		}
		switch component {
		case componentAPI:
			as.Components.API = append(as.Components.API, category)
		case componentString:
			as.Components.Strings = append(as.Components.Strings, category)
		case componentField:
			as.Components.Fields = append(as.Components.Fields, category)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, app := range out {
		for _, as := range app {
			c := &as.Components
			c.Combined = make([]string, 0, len(c.API)+len(c.Strings)+len(c.Fields))
			c.Combined = append(c.Combined, c.API...)
			c.Combined = append(c.Combined, c.Strings...)
			c.Combined = append(c.Combined, c.Fields...)
		}
	}
	return out, nil
}

// CategoryCounts returns how many identifiers were resolved to each final
// category in a run, unresolved ones included.
func (r *AssignmentRepository) CategoryCounts(runID string) (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT final_category, COUNT(*)
		FROM assignments WHERE run_id = ?
		GROUP BY final_category
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

func sortedKeys(out mapping.Output) []string {
	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatTimePtr formats a time pointer for database storage
func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
