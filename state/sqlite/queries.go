package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/lookatitude/policyopt/core"
	"github.com/lookatitude/policyopt/schema"
	"github.com/lookatitude/policyopt/state"
)

func getRunMetadata(db *sql.DB, runID string) (state.RunMetadata, error) {
	var m state.RunMetadata
	var createdAt string
	var completedAt sql.NullString
	var converged bool
	var runState string
	err := db.QueryRow(
		`SELECT run_id, name, config_json, created_at, completed_at, converged, convergence_reason, state
		 FROM experiments WHERE run_id = ?`, runID,
	).Scan(&m.RunID, &m.Name, &m.ConfigSnapshot, &createdAt, &completedAt, &converged, &m.ConvergenceReason, &runState)
	if err != nil {
		return state.RunMetadata{}, core.NewError("sqlite.get_run_metadata", core.ErrDatabaseFailure,
			fmt.Sprintf("run %q", runID), err)
	}
	m.Converged = converged
	m.State = schema.RunState(runState)
	m.CreatedAt = parseTime(createdAt)
	if completedAt.Valid {
		m.CompletedAt = parseTime(completedAt.String)
	}
	return m, nil
}

func getTotalIterations(db *sql.DB, runID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT num_iterations FROM experiments WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, core.NewError("sqlite.get_total_iterations", core.ErrDatabaseFailure, runID, err)
	}
	return n, nil
}

func getIterationEvents(db *sql.DB, runID string, iteration int) ([]schema.EventRecord, error) {
	rows, err := db.Query(
		`SELECT sequence, iteration, event_type, data_json, timestamp FROM events
		 WHERE run_id = ? AND iteration = ? ORDER BY sequence ASC`, runID, iteration,
	)
	if err != nil {
		return nil, core.NewError("sqlite.get_iteration_events", core.ErrDatabaseFailure, runID, err)
	}
	defer rows.Close()

	var out []schema.EventRecord
	for rows.Next() {
		var ev schema.EventRecord
		var ts string
		if err := rows.Scan(&ev.Sequence, &ev.Iteration, &ev.EventType, &ev.EventData, &ts); err != nil {
			return nil, core.NewError("sqlite.get_iteration_events", core.ErrDatabaseFailure, "scan", err)
		}
		ev.Timestamp = parseTime(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func getAllEvents(db *sql.DB, runID string) iter.Seq[schema.EventRecord] {
	return func(yield func(schema.EventRecord) bool) {
		rows, err := db.Query(
			`SELECT sequence, iteration, event_type, data_json, timestamp FROM events
			 WHERE run_id = ? ORDER BY sequence ASC`, runID,
		)
		if err != nil {
			return
		}
		defer rows.Close()
		for rows.Next() {
			var ev schema.EventRecord
			var ts string
			if err := rows.Scan(&ev.Sequence, &ev.Iteration, &ev.EventType, &ev.EventData, &ts); err != nil {
				return
			}
			ev.Timestamp = parseTime(ts)
			if !yield(ev) {
				return
			}
		}
	}
}

func getIterationPolicies(db *sql.DB, runID string, iteration int) (map[string]schema.Policy, error) {
	var raw string
	err := db.QueryRow(
		`SELECT policies_json FROM iterations WHERE run_id = ? AND iteration = ?`, runID, iteration,
	).Scan(&raw)
	if err != nil {
		return nil, core.NewError("sqlite.get_iteration_policies", core.ErrDatabaseFailure,
			fmt.Sprintf("run %q iteration %d", runID, iteration), err)
	}
	var policies map[string]schema.Policy
	if err := json.Unmarshal([]byte(raw), &policies); err != nil {
		return nil, core.NewError("sqlite.get_iteration_policies", core.ErrDatabaseFailure, "unmarshal", err)
	}
	return policies, nil
}

func getIterationCosts(db *sql.DB, runID string, iteration int) (map[string]int64, error) {
	var raw string
	err := db.QueryRow(
		`SELECT costs_json FROM iterations WHERE run_id = ? AND iteration = ?`, runID, iteration,
	).Scan(&raw)
	if err != nil {
		return nil, core.NewError("sqlite.get_iteration_costs", core.ErrDatabaseFailure,
			fmt.Sprintf("run %q iteration %d", runID, iteration), err)
	}
	var costs map[string]int64
	if err := json.Unmarshal([]byte(raw), &costs); err != nil {
		return nil, core.NewError("sqlite.get_iteration_costs", core.ErrDatabaseFailure, "unmarshal", err)
	}
	return costs, nil
}

func getIterationAcceptedChanges(db *sql.DB, runID string, iteration int) ([]state.AcceptedChange, error) {
	var raw string
	err := db.QueryRow(
		`SELECT accepted_json FROM iterations WHERE run_id = ? AND iteration = ?`, runID, iteration,
	).Scan(&raw)
	if err != nil {
		return nil, core.NewError("sqlite.get_iteration_accepted_changes", core.ErrDatabaseFailure,
			fmt.Sprintf("run %q iteration %d", runID, iteration), err)
	}
	var changes []state.AcceptedChange
	if err := json.Unmarshal([]byte(raw), &changes); err != nil {
		return nil, core.NewError("sqlite.get_iteration_accepted_changes", core.ErrDatabaseFailure, "unmarshal", err)
	}
	return changes, nil
}

func listRuns(db *sql.DB, experimentName string, limit int) ([]state.RunMetadata, error) {
	query := `SELECT run_id, name, config_json, created_at, completed_at, converged, convergence_reason, state
	          FROM experiments`
	args := []any{}
	if experimentName != "" {
		query += ` WHERE name = ?`
		args = append(args, experimentName)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, core.NewError("sqlite.list_runs", core.ErrDatabaseFailure, "query", err)
	}
	defer rows.Close()

	var out []state.RunMetadata
	for rows.Next() {
		var m state.RunMetadata
		var createdAt string
		var completedAt sql.NullString
		var converged bool
		var runState string
		if err := rows.Scan(&m.RunID, &m.Name, &m.ConfigSnapshot, &createdAt, &completedAt, &converged, &m.ConvergenceReason, &runState); err != nil {
			return nil, core.NewError("sqlite.list_runs", core.ErrDatabaseFailure, "scan", err)
		}
		m.Converged = converged
		m.State = schema.RunState(runState)
		m.CreatedAt = parseTime(createdAt)
		if completedAt.Valid {
			m.CompletedAt = parseTime(completedAt.String)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func getFinalResult(db *sql.DB, runID string) (schema.ExperimentRecord, error) {
	m, err := getRunMetadata(db, runID)
	if err != nil {
		return schema.ExperimentRecord{}, err
	}
	n, err := getTotalIterations(db, runID)
	if err != nil {
		return schema.ExperimentRecord{}, err
	}
	return schema.ExperimentRecord{
		RunID:             m.RunID,
		ExperimentName:    m.Name,
		ConfigSnapshot:    m.ConfigSnapshot,
		CreatedAt:         m.CreatedAt,
		CompletedAt:       m.CompletedAt,
		NumIterations:     n,
		Converged:         m.Converged,
		ConvergenceReason: m.ConvergenceReason,
		State:             m.State,
	}, nil
}
