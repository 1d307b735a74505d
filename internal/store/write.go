package store

import (
	"context"
	"fmt"

	"github.com/roach88/eqsat/internal/ir"
)

// WriteRun inserts a run with its iterations and diagnostics in one
// transaction. Returns the run's seq and whether a new run was inserted.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing a run id that is
// already present leaves the stored copy untouched and returns its seq.
func (s *Store) WriteRun(ctx context.Context, run ir.RunRecord) (seq int64, inserted bool, err error) {
	if run.ID == "" {
		return 0, false, fmt.Errorf("write run: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, ruleset_hash, input, cost_model, best_cost, best_expr, stop_reason, nodes, classes, elapsed_us, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.RuleSetHash,
		run.Input,
		run.CostModel,
		run.BestCost,
		run.BestExpr,
		run.StopReason,
		run.Nodes,
		run.Classes,
		run.ElapsedMicros,
		run.EngineVersion,
	)
	if err != nil {
		return 0, false, fmt.Errorf("write run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("write run: rows affected: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, run.ID).Scan(&seq); err != nil {
		return 0, false, fmt.Errorf("write run: read seq: %w", err)
	}
	if affected == 0 {
		return seq, false, tx.Commit()
	}

	for _, it := range run.Iterations {
		truncated, err := marshalTruncated(it.Truncated)
		if err != nil {
			return 0, false, fmt.Errorf("write run: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO iterations
			(run_id, idx, matches, applied, unions, rejected, guard_errors, truncated, nodes, classes, elapsed_us)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			it.Index,
			it.Matches,
			it.Applied,
			it.Unions,
			it.Rejected,
			it.GuardErrors,
			truncated,
			it.Nodes,
			it.Classes,
			it.ElapsedMicros,
		)
		if err != nil {
			return 0, false, fmt.Errorf("write run: iteration %d: %w", it.Index, err)
		}
	}

	for i, d := range run.Diagnostics {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO diagnostics
			(run_id, pos, iteration, rule, class_id, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			d.Iteration,
			d.Rule,
			d.ClassID,
			d.Message,
		)
		if err != nil {
			return 0, false, fmt.Errorf("write run: diagnostic %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write run: commit: %w", err)
	}
	return seq, true, nil
}

// DeleteRun removes a run and, by cascade, its iterations and diagnostics.
// Returns false if no such run existed.
func (s *Store) DeleteRun(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete run: rows affected: %w", err)
	}
	return n > 0, nil
}
