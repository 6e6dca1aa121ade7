// Package apperr defines the error taxonomy shared by all features.
//
// Synchronous API failures fall into three user-correctable classes
// (validation, not-found, state-conflict), each backed by a sentinel
// error that handlers map to an HTTP status. Asynchronous run failures
// are persisted on the run record instead of being surfaced through
// this package; see feature/reconciliation.
package apperr
