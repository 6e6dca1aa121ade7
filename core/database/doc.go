// Package database manages the GORM connection and schema inspection.
//
// The production driver is MySQL; sqlite (in-memory) backs tests and
// local CLI runs. The inspector utilities let callers verify that the
// externally-owned sale source tables exist before starting a
// reconciliation run, instead of failing mid-flight.
package database
