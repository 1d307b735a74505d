// Package store provides a SQLite-backed log of saturation runs.
//
// Each run is stored as one row in runs plus its per-pass rows in
// iterations and its non-fatal problems in diagnostics. A run is written in
// a single transaction, so readers never see a run without its passes.
//
// Ordering:
//   - Runs are listed by seq (assigned on insert), then id COLLATE BINARY
//   - Iterations by idx, diagnostics by their position in the report
//
// Writes are idempotent on run id: writing the same run twice keeps the
// first copy.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
