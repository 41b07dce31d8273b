// Package sqlite persists optimization runs into an embedded SQLite
// database via modernc.org/sqlite, implementing state.LiveStateProvider
// (Live) for writes during a run and a read-only replay provider
// (Database) satisfying the Replay Identity invariant (spec.md §4.8).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/lookatitude/policyopt/core"
	"github.com/lookatitude/policyopt/schema"
	"github.com/lookatitude/policyopt/state"

	_ "modernc.org/sqlite"
)

// Open returns a *sql.DB for the database file at path using the pure-Go
// modernc.org/sqlite driver, creating the file if it does not exist.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := ensureSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS experiments (
			run_id             TEXT PRIMARY KEY,
			name               TEXT NOT NULL,
			type               TEXT NOT NULL,
			config_json        TEXT NOT NULL,
			created_at         TEXT NOT NULL,
			completed_at       TEXT,
			num_iterations     INTEGER NOT NULL DEFAULT 0,
			converged          INTEGER NOT NULL DEFAULT 0,
			convergence_reason TEXT NOT NULL DEFAULT '',
			state              TEXT NOT NULL DEFAULT 'idle'
		)`,
		`CREATE TABLE IF NOT EXISTS iterations (
			run_id        TEXT NOT NULL,
			iteration     INTEGER NOT NULL,
			costs_json    TEXT NOT NULL,
			accepted_json TEXT NOT NULL,
			policies_json TEXT NOT NULL,
			timestamp     TEXT NOT NULL,
			PRIMARY KEY (run_id, iteration)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id     TEXT NOT NULL,
			sequence   INTEGER NOT NULL,
			iteration  INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			data_json  TEXT NOT NULL,
			timestamp  TEXT NOT NULL,
			PRIMARY KEY (run_id, sequence)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	return nil
}

// experimentType is the constant "type" column value for every run this
// module persists; the column exists for forward compatibility with other
// experiment families sharing the same database file.
const experimentType = "policy-optimization"

// timeFormat is used for every persisted timestamp so lexical and
// chronological order agree.
const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeFormat, s)
	return t
}

var _ state.LiveStateProvider = (*Live)(nil)
var _ state.StateProvider = (*Database)(nil)

// Live is the write-through StateProvider used during an optimization run.
// RecordEvent buffers events for the current iteration in memory;
// RecordIteration flushes them together with the iteration row inside a
// single transaction (group commit, spec.md §4.8), so a crash mid-iteration
// never leaves a partial iteration visible to Database.
type Live struct {
	db    *sql.DB
	runID string

	mu      sync.Mutex
	nextSeq int64
	pending []schema.EventRecord
}

// NewLive creates the experiments row for runID and returns a Live
// provider ready to record iterations. cfg is the ExperimentConfig to
// snapshot as canonical JSON.
func NewLive(db *sql.DB, runID, name string, cfg *schema.ExperimentConfig) (*Live, error) {
	configJSON, err := state.CanonicalJSON(cfg)
	if err != nil {
		return nil, core.NewError("sqlite.new_live", core.ErrDatabaseFailure, "marshal config snapshot", err)
	}
	_, err = db.Exec(
		`INSERT INTO experiments (run_id, name, type, config_json, created_at, num_iterations, converged, convergence_reason, state)
		 VALUES (?, ?, ?, ?, ?, 0, 0, '', ?)`,
		runID, name, experimentType, configJSON, formatTime(time.Now()), string(schema.RunRunning),
	)
	if err != nil {
		return nil, core.NewError("sqlite.new_live", core.ErrDatabaseFailure, "insert experiment row", err)
	}
	return &Live{db: db, runID: runID}, nil
}

func (l *Live) RunID() string { return l.runID }

// DB returns the underlying connection, so a caller can open a Database
// reader over the same run without a second connection.
func (l *Live) DB() *sql.DB { return l.db }

// RecordEvent buffers one event for the iteration currently being
// assembled; it is not durable until the enclosing RecordIteration call
// commits. Sequence numbers are assigned in buffering order and are
// globally monotonic for the run (spec.md §5 ordering guarantee).
func (l *Live) RecordEvent(iteration int, eventType string, data any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	dataJSON, err := state.CanonicalJSON(data)
	if err != nil {
		return core.NewError("sqlite.record_event", core.ErrDatabaseFailure, "marshal event data", err)
	}
	l.pending = append(l.pending, schema.EventRecord{
		Sequence:  l.nextSeq,
		Iteration: iteration,
		EventType: eventType,
		EventData: dataJSON,
		Timestamp: time.Now(),
	})
	l.nextSeq++
	return nil
}

// RecordIteration commits every event buffered since the last call
// together with the iteration's costs/accepted-changes/policies row, in
// one transaction (spec.md §4.8 group commit).
func (l *Live) RecordIteration(iteration int, costsPerAgent map[string]int64, accepted []state.AcceptedChange, policies map[string]schema.Policy) error {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	costsJSON, err := state.CanonicalJSON(costsPerAgent)
	if err != nil {
		return core.NewError("sqlite.record_iteration", core.ErrDatabaseFailure, "marshal costs", err)
	}
	acceptedJSON, err := state.CanonicalJSON(accepted)
	if err != nil {
		return core.NewError("sqlite.record_iteration", core.ErrDatabaseFailure, "marshal accepted changes", err)
	}
	policiesJSON, err := state.CanonicalJSON(policies)
	if err != nil {
		return core.NewError("sqlite.record_iteration", core.ErrDatabaseFailure, "marshal policies", err)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return core.NewError("sqlite.record_iteration", core.ErrDatabaseFailure, "begin transaction", err)
	}
	defer tx.Rollback()

	for _, ev := range batch {
		if _, err := tx.Exec(
			`INSERT INTO events (run_id, sequence, iteration, event_type, data_json, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
			l.runID, ev.Sequence, ev.Iteration, ev.EventType, ev.EventData, formatTime(ev.Timestamp),
		); err != nil {
			return core.NewError("sqlite.record_iteration", core.ErrDatabaseFailure, "insert event", err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO iterations (run_id, iteration, costs_json, accepted_json, policies_json, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		l.runID, iteration, costsJSON, acceptedJSON, policiesJSON, formatTime(time.Now()),
	); err != nil {
		return core.NewError("sqlite.record_iteration", core.ErrDatabaseFailure, "insert iteration", err)
	}

	if _, err := tx.Exec(
		`UPDATE experiments SET num_iterations = ? WHERE run_id = ?`, iteration+1, l.runID,
	); err != nil {
		return core.NewError("sqlite.record_iteration", core.ErrDatabaseFailure, "update num_iterations", err)
	}

	if err := tx.Commit(); err != nil {
		return core.NewError("sqlite.record_iteration", core.ErrDatabaseFailure, "commit transaction", err)
	}
	return nil
}

// SetConverged marks the run complete with the given convergence reason
// (empty reason and state RunAborted are used for a cooperative-cancel
// stop, per spec.md §5).
func (l *Live) SetConverged(reason string) error {
	runState := schema.RunConverged
	converged := true
	switch reason {
	case "max-iterations":
		runState = schema.RunMaxIterations
	case "":
		runState = schema.RunAborted
		converged = false
	}
	_, err := l.db.Exec(
		`UPDATE experiments SET converged = ?, convergence_reason = ?, state = ?, completed_at = ? WHERE run_id = ?`,
		converged, reason, string(runState), formatTime(time.Now()), l.runID,
	)
	if err != nil {
		return core.NewError("sqlite.set_converged", core.ErrDatabaseFailure, "update experiment completion", err)
	}
	return nil
}

// The read methods below are shared verbatim in spirit between Live (so a
// caller can inspect the in-progress run) and Database (replay); both
// delegate to the package-level query helpers against *sql.DB.

func (l *Live) GetRunMetadata() (state.RunMetadata, error) { return getRunMetadata(l.db, l.runID) }
func (l *Live) GetTotalIterations() (int, error)           { return getTotalIterations(l.db, l.runID) }
func (l *Live) GetIterationEvents(i int) ([]schema.EventRecord, error) {
	return getIterationEvents(l.db, l.runID, i)
}
func (l *Live) GetIterationPolicies(i int) (map[string]schema.Policy, error) {
	return getIterationPolicies(l.db, l.runID, i)
}
func (l *Live) GetIterationCosts(i int) (map[string]int64, error) {
	return getIterationCosts(l.db, l.runID, i)
}
func (l *Live) GetIterationAcceptedChanges(i int) ([]state.AcceptedChange, error) {
	return getIterationAcceptedChanges(l.db, l.runID, i)
}
func (l *Live) GetAllEvents() iter.Seq[schema.EventRecord] { return getAllEvents(l.db, l.runID) }
func (l *Live) GetFinalResult() (schema.ExperimentRecord, error) {
	return getFinalResult(l.db, l.runID)
}

// Database is a read-only StateProvider over a completed (or in-progress)
// run, used for replay. It returns exactly the same shapes Live returns
// for identical queries (spec.md §4.8), satisfying the Replay Identity
// invariant together with Live's group-commit write discipline.
type Database struct {
	db    *sql.DB
	runID string
}

// NewDatabase opens a read-only StateProvider for an existing run.
func NewDatabase(db *sql.DB, runID string) *Database {
	return &Database{db: db, runID: runID}
}

func (d *Database) RunID() string                            { return d.runID }
func (d *Database) GetRunMetadata() (state.RunMetadata, error) { return getRunMetadata(d.db, d.runID) }
func (d *Database) GetTotalIterations() (int, error)          { return getTotalIterations(d.db, d.runID) }
func (d *Database) GetIterationEvents(i int) ([]schema.EventRecord, error) {
	return getIterationEvents(d.db, d.runID, i)
}
func (d *Database) GetIterationPolicies(i int) (map[string]schema.Policy, error) {
	return getIterationPolicies(d.db, d.runID, i)
}
func (d *Database) GetIterationCosts(i int) (map[string]int64, error) {
	return getIterationCosts(d.db, d.runID, i)
}
func (d *Database) GetIterationAcceptedChanges(i int) ([]state.AcceptedChange, error) {
	return getIterationAcceptedChanges(d.db, d.runID, i)
}
func (d *Database) GetAllEvents() iter.Seq[schema.EventRecord] { return getAllEvents(d.db, d.runID) }
func (d *Database) GetFinalResult() (schema.ExperimentRecord, error) {
	return getFinalResult(d.db, d.runID)
}

// ListRuns returns up to limit runs recorded in db, most recently created
// first, optionally filtered to one experiment name. Unlike the
// StateProvider methods above, this is not scoped to a single run_id --
// it backs "policyopt results", which reports across a whole database.
func ListRuns(db *sql.DB, experimentName string, limit int) ([]state.RunMetadata, error) {
	return listRuns(db, experimentName, limit)
}
