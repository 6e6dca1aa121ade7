// Package source contains the per-origin sale record loaders.
//
// Each adapter translates one origin schema (POS sales report ledger,
// hardware-imported sales log, payment-gateway ledger) into the
// normalized record shape consumed by the matcher. Adapters apply the
// date window and machine filter server-side and return records in a
// stable order so a run over identical data is reproducible.
//
// Unknown source identifiers resolve to an empty record list, not an
// error: a run configured with a source that has no adapter yet still
// completes, reporting zero records contributed by that source.
package source
