// Package reconciliation implements the sales reconciliation engine.
//
// A run correlates sale records from two or more independent sources
// (POS sales report, hardware sales log, payment-gateway ledger) over a
// date window, under configurable time and amount tolerances. Records
// that correlate across all sources form matched groups; everything
// else becomes a persisted, typed mismatch feeding the operator
// resolution workflow.
//
// # Lifecycle
//
// Runs move through an explicit state machine:
//
//	PENDING -> RUNNING -> COMPLETED
//	PENDING -> CANCELLED            (operator cancel, only before start)
//	RUNNING -> FAILED               (anchor load or engine error)
//
// Creation returns the PENDING run immediately; a background worker
// pool drains a queue of run IDs and drives each run to a terminal
// state. All transitions are conditional updates, so a cancel racing
// the engine resolves deterministically, and any asynchronous failure
// is persisted on the run row rather than only logged.
//
// The matching and classification algorithms live in the match
// subpackage; per-origin loaders live in the source subpackage.
package reconciliation
