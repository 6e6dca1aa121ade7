package match

import (
	"time"

	"vendhub-backend/feature/reconciliation/models"
)

// SourceRecords is one source's normalized records in load order.
type SourceRecords struct {
	SourceID string
	Records  []models.NormalizedSaleRecord
}

// Tolerances bound how far two records may deviate and still be
// considered the same physical transaction.
type Tolerances struct {
	// Time is the maximum absolute timestamp deviation (inclusive).
	Time time.Duration
	// Amount is the maximum absolute amount deviation in currency
	// minor units (inclusive).
	Amount int64
}

// Group is a set of records correlated to one underlying transaction.
// Records[0] is always the anchor record; the rest follow the run's
// source order. Missing lists the source IDs for which no candidate was
// found; it is empty for a full group.
type Group struct {
	Records []models.NormalizedSaleRecord
	Missing []string
}

// Anchor returns the anchor-source record of the group.
func (g Group) Anchor() models.NormalizedSaleRecord {
	return g.Records[0]
}

// IsFull reports whether the group has one record per source.
func (g Group) IsFull() bool {
	return len(g.Missing) == 0
}

// Result is the matcher output for one run.
type Result struct {
	// Groups are full matched groups, one record per source.
	Groups []Group
	// Partial are groups where the anchor matched in some but not all
	// other sources.
	Partial []Group
	// Unmatched are records with no counterpart anywhere: anchor records
	// that matched nothing, and leftover non-anchor records.
	Unmatched []models.NormalizedSaleRecord
}

// Run correlates records across N sources. The first source is the
// anchor: for every anchor record, each other source's remaining pool is
// scanned for the best candidate within the tolerances. A consumed
// candidate leaves its pool, so no record appears in more than one
// group. The candidate ranking (smallest time delta, then smallest
// amount delta, then lowest external ID) together with the stable input
// order makes the result deterministic for identical inputs.
func Run(sources []SourceRecords, tol Tolerances) Result {
	var res Result

	if len(sources) < 2 {
		// Degenerate input; nothing can correlate.
		for _, src := range sources {
			res.Unmatched = append(res.Unmatched, src.Records...)
		}
		return res
	}

	anchor := sources[0]
	others := sources[1:]

	used := make([][]bool, len(others))
	for i, src := range others {
		used[i] = make([]bool, len(src.Records))
	}

	for _, rec := range anchor.Records {
		group := Group{Records: []models.NormalizedSaleRecord{rec}}

		for i, src := range others {
			idx := bestCandidate(src.Records, used[i], rec, tol)
			if idx < 0 {
				group.Missing = append(group.Missing, src.SourceID)
				continue
			}
			used[i][idx] = true
			group.Records = append(group.Records, src.Records[idx])
		}

		switch {
		case group.IsFull():
			res.Groups = append(res.Groups, group)
		case len(group.Records) == 1:
			// No candidate in any other source.
			res.Unmatched = append(res.Unmatched, rec)
		default:
			res.Partial = append(res.Partial, group)
		}
	}

	// Non-anchor records never consumed by any anchor record.
	for i, src := range others {
		for j, rec := range src.Records {
			if !used[i][j] {
				res.Unmatched = append(res.Unmatched, rec)
			}
		}
	}

	return res
}

// bestCandidate returns the index of the best unconsumed record within
// the tolerance window, or -1 if none qualifies.
func bestCandidate(records []models.NormalizedSaleRecord, used []bool, anchor models.NormalizedSaleRecord, tol Tolerances) int {
	best := -1
	var bestTime time.Duration
	var bestAmount int64

	for i, rec := range records {
		if used[i] {
			continue
		}
		// Machine IDs must agree when both sides carry one.
		if rec.MachineID != "" && anchor.MachineID != "" && rec.MachineID != anchor.MachineID {
			continue
		}
		dt := absDuration(rec.OccurredAt.Sub(anchor.OccurredAt))
		if dt > tol.Time {
			continue
		}
		da := absInt64(rec.Amount - anchor.Amount)
		if da > tol.Amount {
			continue
		}

		if best < 0 || ranksBefore(dt, da, rec.ExternalID, bestTime, bestAmount, records[best].ExternalID) {
			best = i
			bestTime = dt
			bestAmount = da
		}
	}
	return best
}

// ranksBefore implements the candidate tie-break: smallest absolute time
// delta, then smallest absolute amount delta, then lowest external ID.
func ranksBefore(dt time.Duration, da int64, extID string, bestDt time.Duration, bestDa int64, bestExtID string) bool {
	if dt != bestDt {
		return dt < bestDt
	}
	if da != bestDa {
		return da < bestDa
	}
	return extID < bestExtID
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
