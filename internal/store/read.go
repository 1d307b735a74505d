package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/eqsat/internal/ir"
)

// ListOptions filters ListRuns.
type ListOptions struct {
	RuleSetHash string // only runs of this rule set, when set
	Limit       int    // at most this many runs (most recent), when > 0
}

const runColumns = `seq, id, ruleset_hash, input, cost_model, best_cost, best_expr, stop_reason, nodes, classes, elapsed_us, engine_version`

// ReadRun retrieves a run with its iterations and diagnostics.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return ir.RunRecord{}, err
	}

	if run.Iterations, err = s.readIterations(ctx, id); err != nil {
		return ir.RunRecord{}, err
	}
	if run.Diagnostics, err = s.readDiagnostics(ctx, id); err != nil {
		return ir.RunRecord{}, err
	}
	return run, nil
}

// ListRuns returns run headers (without iterations or diagnostics) ordered
// by seq ASC, id ASC COLLATE BINARY. With a Limit, the most recent runs
// are returned, still in ascending order.
//
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ListRuns(ctx context.Context, opts ListOptions) ([]ir.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if opts.RuleSetHash != "" {
		query += ` WHERE ruleset_hash = ?`
		args = append(args, opts.RuleSetHash)
	}
	if opts.Limit > 0 {
		query = `SELECT * FROM (` + query + ` ORDER BY seq DESC LIMIT ?)`
		args = append(args, opts.Limit)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// CountRuns returns the number of stored runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

func (s *Store) readIterations(ctx context.Context, runID string) ([]ir.IterationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, matches, applied, unions, rejected, guard_errors, truncated, nodes, classes, elapsed_us
		FROM iterations
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}
	defer rows.Close()

	var out []ir.IterationRecord
	for rows.Next() {
		var it ir.IterationRecord
		var truncated string
		if err := rows.Scan(&it.Index, &it.Matches, &it.Applied, &it.Unions, &it.Rejected,
			&it.GuardErrors, &truncated, &it.Nodes, &it.Classes, &it.ElapsedMicros); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		if it.Truncated, err = unmarshalTruncated(truncated); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate iterations: %w", err)
	}
	return out, nil
}

func (s *Store) readDiagnostics(ctx context.Context, runID string) ([]ir.DiagnosticRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT iteration, rule, class_id, message
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY pos ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []ir.DiagnosticRecord
	for rows.Next() {
		var d ir.DiagnosticRecord
		if err := rows.Scan(&d.Iteration, &d.Rule, &d.ClassID, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (ir.RunRecord, error) {
	var run ir.RunRecord
	err := sc.Scan(
		&run.Seq,
		&run.ID,
		&run.RuleSetHash,
		&run.Input,
		&run.CostModel,
		&run.BestCost,
		&run.BestExpr,
		&run.StopReason,
		&run.Nodes,
		&run.Classes,
		&run.ElapsedMicros,
		&run.EngineVersion,
	)
	if err == sql.ErrNoRows {
		return ir.RunRecord{}, err
	}
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}
