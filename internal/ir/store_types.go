package ir

// NOTE: These are store-layer records, not part of the interchange format.
// They flatten a run report into rows for the run log.

// RunRecord is one persisted simplify run.
type RunRecord struct {
	ID            string  `json:"id"`  // Run id (UUIDv7 in production)
	Seq           int64   `json:"seq"` // Assigned by the store on insert
	RuleSetHash   string  `json:"ruleset_hash"`
	Input         string  `json:"input"`
	CostModel     string  `json:"cost_model"`
	BestCost      float64 `json:"best_cost"`
	BestExpr      string  `json:"best_expr"`
	StopReason    string  `json:"stop_reason"`
	Nodes         int     `json:"nodes"`
	Classes       int     `json:"classes"`
	ElapsedMicros int64   `json:"elapsed_us"`
	EngineVersion string  `json:"engine_version"`

	Iterations  []IterationRecord  `json:"iterations,omitempty"`
	Diagnostics []DiagnosticRecord `json:"diagnostics,omitempty"`
}

// IterationRecord is one scheduler pass of a run.
type IterationRecord struct {
	Index         int      `json:"index"`
	Matches       int      `json:"matches"`
	Applied       int      `json:"applied"`
	Unions        int      `json:"unions"`
	Rejected      int      `json:"rejected"`
	GuardErrors   int      `json:"guard_errors"`
	Truncated     []string `json:"truncated,omitempty"` // Rules whose search hit the match cap
	Nodes         int      `json:"nodes"`
	Classes       int      `json:"classes"`
	ElapsedMicros int64    `json:"elapsed_us"`
}

// DiagnosticRecord is a non-fatal problem raised during a run,
// e.g. a guard predicate that returned an error.
type DiagnosticRecord struct {
	Iteration int    `json:"iteration"`
	Rule      string `json:"rule"`
	ClassID   uint32 `json:"class_id"`
	Message   string `json:"message"`
}
