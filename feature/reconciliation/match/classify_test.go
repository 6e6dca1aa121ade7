package match_test

import (
	"testing"
	"time"

	"vendhub-backend/feature/reconciliation/match"
	"vendhub-backend/feature/reconciliation/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classify runs the matcher and classifier with the same tolerances,
// the way the run engine does.
func classify(sources []match.SourceRecords, tol match.Tolerances) []match.Mismatch {
	return match.Classify(sources, match.Run(sources, tol), tol)
}

func TestClassifyAmountBeyondToleranceYieldsTwoOrderNotFound(t *testing.T) {
	// Same sale, amounts 300 apart: the pair never matches, so both
	// sides surface as ORDER_NOT_FOUND rather than one AMOUNT_MISMATCH.
	sources := []match.SourceRecords{
		{SourceID: "sales_report", Records: []models.NormalizedSaleRecord{
			rec("sales_report", "TX-1", 0, 250, "m-1"),
		}},
		{SourceID: "hardware", Records: []models.NormalizedSaleRecord{
			rec("hardware", "HW-1", time.Second, 550, "m-1"),
		}},
	}

	out := classify(sources, defaultTol())

	require.Len(t, out, 2)
	for _, m := range out {
		assert.Equal(t, models.MismatchOrderNotFound, m.Type)
	}
	// Each side references its own record and an explicit hole for the
	// other source.
	assert.Equal(t, map[string]string{"sales_report": "TX-1", "hardware": ""}, out[0].SourceRefs)
	assert.Equal(t, map[string]string{"hardware": "HW-1", "sales_report": ""}, out[1].SourceRefs)
}

func TestClassifyMissingCounterpart(t *testing.T) {
	sources := []match.SourceRecords{
		{SourceID: "sales_report", Records: []models.NormalizedSaleRecord{
			rec("sales_report", "TX-1", 0, 250, "m-1"),
			rec("sales_report", "TX-2", time.Minute, 300, "m-1"),
		}},
		{SourceID: "hardware", Records: []models.NormalizedSaleRecord{
			rec("hardware", "HW-1", time.Second, 250, "m-1"),
		}},
	}

	out := classify(sources, defaultTol())

	require.Len(t, out, 1)
	assert.Equal(t, models.MismatchOrderNotFound, out[0].Type)
	assert.Equal(t, int64(300), out[0].Amount)
	assert.Equal(t, map[string]string{"sales_report": "TX-2", "hardware": ""}, out[0].SourceRefs)
}

func TestClassifyPartialGroupMarksMissingSources(t *testing.T) {
	sources := []match.SourceRecords{
		{SourceID: "sales_report", Records: []models.NormalizedSaleRecord{
			rec("sales_report", "TX-1", 0, 250, "m-1"),
		}},
		{SourceID: "hardware", Records: []models.NormalizedSaleRecord{
			rec("hardware", "HW-1", time.Second, 250, "m-1"),
		}},
		{SourceID: "gateway", Records: nil},
	}

	out := classify(sources, defaultTol())

	require.Len(t, out, 1)
	assert.Equal(t, models.MismatchOrderNotFound, out[0].Type)
	assert.Equal(t, map[string]string{
		"sales_report": "TX-1",
		"hardware":     "HW-1",
		"gateway":      "",
	}, out[0].SourceRefs)
}

func TestClassifyDuplicateReportedOncePerReference(t *testing.T) {
	sources := []match.SourceRecords{
		{SourceID: "sales_report", Records: []models.NormalizedSaleRecord{
			rec("sales_report", "TX-1", 0, 250, "m-1"),
			rec("sales_report", "TX-1", time.Second, 250, "m-1"),
			rec("sales_report", "TX-1", 2*time.Second, 250, "m-1"),
		}},
		{SourceID: "hardware", Records: []models.NormalizedSaleRecord{
			rec("hardware", "HW-1", 0, 250, "m-1"),
		}},
	}

	out := classify(sources, defaultTol())

	var dups []match.Mismatch
	for _, m := range out {
		if m.Type == models.MismatchDuplicate {
			dups = append(dups, m)
		}
	}
	require.Len(t, dups, 1)
	assert.Equal(t, map[string]string{"sales_report": "TX-1"}, dups[0].SourceRefs)
	// Duplicates are emitted before everything else.
	assert.Equal(t, models.MismatchDuplicate, out[0].Type)
}

func TestClassifyGroupAmountViolation(t *testing.T) {
	// Matched under loose tolerances, re-checked against tight ones.
	loose := match.Tolerances{Time: 10 * time.Second, Amount: 500}
	tight := match.Tolerances{Time: 5 * time.Second, Amount: 100}

	sources := []match.SourceRecords{
		{SourceID: "sales_report", Records: []models.NormalizedSaleRecord{
			rec("sales_report", "TX-1", 0, 250, "m-1"),
		}},
		{SourceID: "hardware", Records: []models.NormalizedSaleRecord{
			rec("hardware", "HW-1", 7*time.Second, 450, "m-1"),
		}},
	}

	res := match.Run(sources, loose)
	require.Len(t, res.Groups, 1)

	out := match.Classify(sources, res, tight)

	// Both deltas violate; amount takes precedence.
	require.Len(t, out, 1)
	assert.Equal(t, models.MismatchAmount, out[0].Type)
	assert.Equal(t, int64(200), out[0].DiscrepancyAmount)
	assert.Equal(t, map[string]string{"sales_report": "TX-1", "hardware": "HW-1"}, out[0].SourceRefs)
}

func TestClassifyGroupTimeViolation(t *testing.T) {
	loose := match.Tolerances{Time: 30 * time.Second, Amount: 100}
	tight := match.Tolerances{Time: 5 * time.Second, Amount: 100}

	sources := []match.SourceRecords{
		{SourceID: "sales_report", Records: []models.NormalizedSaleRecord{
			rec("sales_report", "TX-1", 0, 250, "m-1"),
		}},
		{SourceID: "hardware", Records: []models.NormalizedSaleRecord{
			rec("hardware", "HW-1", 20*time.Second, 260, "m-1"),
		}},
	}

	res := match.Run(sources, loose)
	require.Len(t, res.Groups, 1)

	out := match.Classify(sources, res, tight)

	require.Len(t, out, 1)
	assert.Equal(t, models.MismatchTime, out[0].Type)
}

func TestClassifyCleanRunProducesNothing(t *testing.T) {
	sources := []match.SourceRecords{
		{SourceID: "sales_report", Records: []models.NormalizedSaleRecord{
			rec("sales_report", "TX-1", 0, 250, "m-1"),
			rec("sales_report", "TX-2", time.Minute, 300, "m-2"),
		}},
		{SourceID: "hardware", Records: []models.NormalizedSaleRecord{
			rec("hardware", "HW-1", time.Second, 250, "m-1"),
			rec("hardware", "HW-2", time.Minute+2*time.Second, 300, "m-2"),
		}},
	}

	out := classify(sources, defaultTol())
	assert.Empty(t, out)
}
