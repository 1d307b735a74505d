package engine

import (
	"github.com/roach88/eqsat/internal/ir"
)

// Record flattens the first root of o into a run-log record.
func (o *Outcome) Record(ruleSetHash string) ir.RunRecord {
	rec := ir.RunRecord{
		ID:            o.Report.RunID,
		RuleSetHash:   ruleSetHash,
		CostModel:     o.Model,
		StopReason:    string(o.Report.StopReason),
		Nodes:         o.Report.Nodes,
		Classes:       o.Report.Classes,
		ElapsedMicros: o.Report.Elapsed.Microseconds(),
		EngineVersion: ir.EngineVersion,
	}
	if len(o.Roots) > 0 {
		root := o.Roots[0]
		rec.Input = root.Input.String()
		rec.BestCost = float64(root.Cost)
		rec.BestExpr = root.Best.String()
	}
	for _, it := range o.Report.Iterations {
		rec.Iterations = append(rec.Iterations, ir.IterationRecord{
			Index:         it.Index,
			Matches:       it.Matches,
			Applied:       it.Applied,
			Unions:        it.Unions,
			Rejected:      it.Rejected,
			GuardErrors:   it.GuardErrors,
			Truncated:     it.Truncated,
			Nodes:         it.Nodes,
			Classes:       it.Classes,
			ElapsedMicros: it.Elapsed.Microseconds(),
		})
	}
	for _, d := range o.Report.Diagnostics {
		rec.Diagnostics = append(rec.Diagnostics, ir.DiagnosticRecord{
			Iteration: d.Iteration,
			Rule:      d.Rule,
			ClassID:   uint32(d.Class),
			Message:   d.Message,
		})
	}
	return rec
}
