package sbu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trueup/trueup/pkg/check"
	"github.com/trueup/trueup/pkg/types"
	"gopkg.in/yaml.v3"
)

// loadFiling reads the FY 2023-24 distribution dataset the repo ships
// with. The aggregation tests reconcile it against the published
// totals end to end.
func loadFiling(t *testing.T) *types.Filing {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "data", "sbu_d_fy2324.yaml"))
	require.NoError(t, err)
	var f types.Filing
	require.NoError(t, yaml.Unmarshal(raw, &f))
	require.NoError(t, f.Validate())
	return &f
}

func testAssessor() *Assessor {
	return NewAssessor(check.Configured(), Configured())
}

func acceptAll(findings []types.Finding) {
	for i := range findings {
		findings[i].Review.Status = types.ReviewAccepted
	}
}

func TestAssess(t *testing.T) {
	a := testAssessor()
	f := loadFiling(t)

	findings, err := a.Assess(f)
	require.NoError(t, err)
	assert.Len(t, findings, 21)

	// catalogue order: the first finding belongs to power purchase,
	// the last to non-tariff income
	assert.Equal(t, "PP-COST-01", findings[0].CheckID)
	assert.Equal(t, "NTI-01", findings[len(findings)-1].CheckID)

	for _, fd := range findings {
		assert.NoError(t, fd.Validate())
		assert.Equal(t, types.ReviewPending, fd.Review.Status, fd.CheckID)
	}

	t.Run("unknown SBU", func(t *testing.T) {
		bad := loadFiling(t)
		bad.SBU = "SBU-X"
		_, err := a.Assess(bad)
		assert.ErrorContains(t, err, "unknown SBU")
	})
}

func TestSummarize(t *testing.T) {
	a := testAssessor()
	f := loadFiling(t)
	findings, err := a.Assess(f)
	require.NoError(t, err)

	t.Run("fresh assessment", func(t *testing.T) {
		s, err := a.Summarize(f, findings)
		require.NoError(t, err)
		assert.False(t, s.Ready)
		assert.Equal(t, 21, s.Review.Pending)
		assert.Equal(t, FlagCounts{Green: 15, Yellow: 2, Red: 4}, s.Flags)
		assert.Len(t, s.LineItems, 15)

		byKey := make(map[string]LineItemSummary)
		for _, li := range s.LineItems {
			byKey[li.Key] = li
		}
		assert.InDelta(t, 1536.15, byKey[types.ItemIFC].Approved, 0.005)
		assert.Equal(t, types.FlagRed, byKey[types.ItemIFC].Flag)
		assert.InDelta(t, 3728.01, byKey[types.ItemOMExpenses].Approved, 0.005)
		assert.InDelta(t, 598.70, byKey[types.ItemSBUGTransfer].Approved, 0.005)
		assert.Equal(t, types.FlagGreen, byKey[types.ItemSBUGTransfer].Flag)
		assert.Zero(t, byKey[types.ItemPayRevision].Approved)
		assert.Zero(t, byKey[types.ItemTDLossSharing].Approved)
		assert.InDelta(t, 920.18, byKey[types.ItemNTI].Approved, 0.005)
		assert.False(t, byKey[types.ItemNTI].Expense)
	})

	t.Run("ready once reviewed", func(t *testing.T) {
		acceptAll(findings)
		s, err := a.Summarize(f, findings)
		require.NoError(t, err)
		assert.True(t, s.Ready)
		assert.Equal(t, 21, s.Review.Accepted)
		assert.Zero(t, s.Review.Pending)
	})

	t.Run("missing finding", func(t *testing.T) {
		_, err := a.Summarize(f, findings[1:])
		assert.ErrorContains(t, err, "no finding for check")
	})
}

func TestARR(t *testing.T) {
	a := testAssessor()
	f := loadFiling(t)
	findings, err := a.Assess(f)
	require.NoError(t, err)

	t.Run("blocked while pending", func(t *testing.T) {
		_, err := a.ARR(f, findings)
		assert.ErrorIs(t, err, ErrPendingReview)
	})

	t.Run("reconciles with the published order", func(t *testing.T) {
		acceptAll(findings)
		arr, err := a.ARR(f, findings)
		require.NoError(t, err)
		assert.InDelta(t, 21413.35, arr.GrossExpense, 0.005)
		assert.InDelta(t, 920.18, arr.IncomeOffset, 0.005)
		assert.InDelta(t, 20493.17, arr.TotalARR, 0.005)
		assert.Zero(t, arr.Difference)
		assert.Equal(t, ReconcilePass, arr.Verdict)
		assert.Len(t, arr.Lines, 15)
	})

	t.Run("amount override flows through", func(t *testing.T) {
		acceptAll(findings)
		for i := range findings {
			if findings[i].CheckID == "IFC-LTL-01" {
				amt := 483.76
				findings[i].Review.Status = types.ReviewOverridden
				findings[i].Review.ApprovedAmount = &amt
			}
		}
		arr, err := a.ARR(f, findings)
		require.NoError(t, err)
		// IFC picks up the overridden loan interest
		assert.InDelta(t, 21452.07, arr.GrossExpense, 0.005)
		assert.Equal(t, ReconcileFail, arr.Verdict)
	})
}

func TestExport(t *testing.T) {
	a := testAssessor()
	f := loadFiling(t)
	findings, err := a.Assess(f)
	require.NoError(t, err)

	snap, err := a.Export(f, findings)
	require.NoError(t, err)
	assert.Nil(t, snap.ARR)
	assert.False(t, snap.GeneratedAt.IsZero())

	acceptAll(findings)
	snap, err = a.Export(f, findings)
	require.NoError(t, err)
	require.NotNil(t, snap.ARR)
	assert.InDelta(t, 20493.17, snap.ARR.TotalARR, 0.005)
}

func TestPending(t *testing.T) {
	a := testAssessor()
	f := loadFiling(t)
	findings, err := a.Assess(f)
	require.NoError(t, err)

	assert.Len(t, Pending(findings), 21)
	findings[0].Review.Status = types.ReviewAccepted
	findings[1].Review.Status = types.ReviewOverridden
	assert.Len(t, Pending(findings), 19)
}

func TestCatalogue(t *testing.T) {
	c := Configured()

	defs, err := c.LineItems("SBU-D")
	require.NoError(t, err)
	assert.Len(t, defs, 15)
	assert.Equal(t, types.ItemSBUGTransfer, defs[0].Key)
	assert.Equal(t, types.ItemNTI, defs[len(defs)-1].Key)

	_, err = c.LineItems("SBU-X")
	assert.ErrorContains(t, err, "unknown SBU")

	// every referenced check must exist in the registry
	m := check.Configured()
	for _, def := range defs {
		for _, id := range def.Checks {
			_, err := m.Check(id)
			assert.NoError(t, err, id)
		}
	}

	// IFC-OTH-02 is a generation-SBU check; no distribution row carries it
	for _, def := range defs {
		assert.NotContains(t, def.Checks, "IFC-OTH-02", def.Key)
	}
}
