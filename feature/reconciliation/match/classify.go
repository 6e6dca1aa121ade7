package match

import (
	"vendhub-backend/feature/reconciliation/models"
)

// Mismatch is an unpersisted discrepancy produced by classification.
// The run service turns these into ReconciliationMismatch rows.
type Mismatch struct {
	Type              models.MismatchType
	MachineID         string
	Amount            int64
	DiscrepancyAmount int64
	// SourceRefs maps source ID to the external reference contributed by
	// that source; an empty value marks the source the record is missing
	// from. Enough to open both sides' original records.
	SourceRefs map[string]string
}

// Classify turns the matcher output into typed mismatches.
//
// Duplicate external references within one source are reported first,
// then matched groups violating the classification tolerances, then
// partial groups and fully unmatched records as ORDER_NOT_FOUND. The
// emission order is deterministic given deterministic matcher output.
//
// A pair whose amounts deviate beyond tolerance never matches in the
// first place and therefore surfaces as two ORDER_NOT_FOUND mismatches,
// not one AMOUNT_MISMATCH. AMOUNT_MISMATCH and TIME_MISMATCH occur when
// a run is reprocessed with tolerances looser than the ones a group is
// re-checked against.
func Classify(sources []SourceRecords, res Result, tol Tolerances) []Mismatch {
	var out []Mismatch

	out = append(out, classifyDuplicates(sources)...)
	out = append(out, classifyGroups(res.Groups, tol)...)

	for _, group := range res.Partial {
		out = append(out, orderNotFound(group))
	}
	for _, rec := range res.Unmatched {
		out = append(out, orderNotFoundRecord(rec, sources))
	}

	return out
}

// classifyDuplicates reports external references appearing more than
// once within a single source's input.
func classifyDuplicates(sources []SourceRecords) []Mismatch {
	var out []Mismatch
	for _, src := range sources {
		seen := make(map[string]int, len(src.Records))
		for _, rec := range src.Records {
			seen[rec.ExternalID]++
			if seen[rec.ExternalID] == 2 {
				// Report once per duplicated reference.
				out = append(out, Mismatch{
					Type:      models.MismatchDuplicate,
					MachineID: rec.MachineID,
					Amount:    rec.Amount,
					SourceRefs: map[string]string{
						src.SourceID: rec.ExternalID,
					},
				})
			}
		}
	}
	return out
}

// classifyGroups re-checks full groups against the classification
// tolerances. Amount violations take precedence over time violations.
func classifyGroups(groups []Group, tol Tolerances) []Mismatch {
	var out []Mismatch
	for _, group := range groups {
		anchor := group.Anchor()

		var maxAmountDelta int64
		var maxTimeDelta int64
		for _, rec := range group.Records[1:] {
			if da := absInt64(rec.Amount - anchor.Amount); da > maxAmountDelta {
				maxAmountDelta = da
			}
			dt := int64(absDuration(rec.OccurredAt.Sub(anchor.OccurredAt)))
			if dt > maxTimeDelta {
				maxTimeDelta = dt
			}
		}

		switch {
		case maxAmountDelta > tol.Amount:
			out = append(out, Mismatch{
				Type:              models.MismatchAmount,
				MachineID:         anchor.MachineID,
				Amount:            anchor.Amount,
				DiscrepancyAmount: maxAmountDelta,
				SourceRefs:        groupRefs(group),
			})
		case maxTimeDelta > int64(tol.Time):
			out = append(out, Mismatch{
				Type:              models.MismatchTime,
				MachineID:         anchor.MachineID,
				Amount:            anchor.Amount,
				DiscrepancyAmount: maxAmountDelta,
				SourceRefs:        groupRefs(group),
			})
		}
	}
	return out
}

// orderNotFound builds the mismatch for a partial group: the anchor sale
// exists, with counterparts in some sources and holes in others.
func orderNotFound(group Group) Mismatch {
	anchor := group.Anchor()
	refs := groupRefs(group)
	for _, missing := range group.Missing {
		refs[missing] = ""
	}
	return Mismatch{
		Type:       models.MismatchOrderNotFound,
		MachineID:  anchor.MachineID,
		Amount:     anchor.Amount,
		SourceRefs: refs,
	}
}

// orderNotFoundRecord builds the mismatch for a record with no
// counterpart in any other source of the run.
func orderNotFoundRecord(rec models.NormalizedSaleRecord, sources []SourceRecords) Mismatch {
	refs := map[string]string{rec.SourceID: rec.ExternalID}
	for _, src := range sources {
		if src.SourceID != rec.SourceID {
			refs[src.SourceID] = ""
		}
	}
	return Mismatch{
		Type:       models.MismatchOrderNotFound,
		MachineID:  rec.MachineID,
		Amount:     rec.Amount,
		SourceRefs: refs,
	}
}

func groupRefs(group Group) map[string]string {
	refs := make(map[string]string, len(group.Records))
	for _, rec := range group.Records {
		refs[rec.SourceID] = rec.ExternalID
	}
	return refs
}
