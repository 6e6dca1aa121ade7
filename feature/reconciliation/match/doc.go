// Package match implements the correlation algorithm and the mismatch
// classifier of the reconciliation engine.
//
// Matching is a pairwise reduction over a designated anchor source (the
// first source of a run): every anchor record claims at most one record
// from each other source, chosen inside the time/amount tolerance window
// with a deterministic tie-break. Whatever remains unclaimed, and every
// correlated group violating the classification tolerances, is turned
// into a typed mismatch by Classify.
//
// Both passes are pure functions over in-memory record slices; for the
// same input lists in the same order they always produce the same
// output, which the persistence layer and the tests rely on.
package match
