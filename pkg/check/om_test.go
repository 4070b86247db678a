package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trueup/trueup/pkg/types"
)

func TestOMInflation(t *testing.T) {
	out := evaluate(t, "OM-INFL-01", fyFiling())
	assert.False(t, out.Primary)
	assert.Equal(t, types.OutputCalculatedValue, out.OutputType)
	// 70/30 weighted CPI and WPI movement
	assert.InDelta(t, 3.41, out.AllowableAmount, 0.005)
	assert.Equal(t, types.FlagGreen, out.Flag)
}

func TestOMDistNorms(t *testing.T) {
	t.Run("norms plus R&M", func(t *testing.T) {
		out := evaluate(t, "OM-DIST-NORM-01", fyFiling())
		assert.True(t, out.Primary)
		assert.InDelta(t, 3728.01, out.AllowableAmount, 0.005)
		assert.InDelta(t, 55.55, out.VarianceAbsolute, 0.005)
		assert.Equal(t, types.FlagGreen, out.Flag)
		assert.Equal(t, []string{"OM-INFL-01"}, out.DependsOn)
	})

	t.Run("claim above norms capped", func(t *testing.T) {
		f := fyFiling()
		for i := range f.LineItems {
			if f.LineItems[i].Key == types.ItemOMExpenses {
				f.LineItems[i].ClaimedAmount = 3900.00
			}
		}
		out := evaluate(t, "OM-DIST-NORM-01", f)
		assert.Equal(t, types.FlagYellow, out.Flag)
		assert.InDelta(t, 3728.01, out.RecommendedAmount, 0.005)
		assert.Contains(t, out.Recommendation, "Cap O&M")
	})

	t.Run("claim below norms passes", func(t *testing.T) {
		f := fyFiling()
		for i := range f.LineItems {
			if f.LineItems[i].Key == types.ItemOMExpenses {
				f.LineItems[i].ClaimedAmount = 3500.00
			}
		}
		out := evaluate(t, "OM-DIST-NORM-01", f)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})
}

func TestPayRevision(t *testing.T) {
	t.Run("revision without government order disallowed", func(t *testing.T) {
		out := evaluate(t, "EMP-PAYREV-01", fyFiling())
		assert.True(t, out.Primary)
		assert.Zero(t, out.AllowableAmount)
		assert.InDelta(t, 100, out.VariancePercent, 0.005)
		assert.Equal(t, types.FlagRed, out.Flag)
		assert.Contains(t, out.Recommendation, "without State Government approval")
	})

	t.Run("government order allows provisionally", func(t *testing.T) {
		f := fyFiling()
		f.PayRevision.GovtOrderRef = "GO(Ms) 25/2024/PD"
		out := evaluate(t, "EMP-PAYREV-01", f)
		assert.InDelta(t, 7.93, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagYellow, out.Flag)
		assert.Contains(t, out.Recommendation, "GO(Ms) 25/2024/PD")
	})

	t.Run("no revision in effect bands on wage variance", func(t *testing.T) {
		f := fyFiling()
		f.PayRevision.RevisionEffective = false
		for i := range f.LineItems {
			if f.LineItems[i].Key == types.ItemPayRevision {
				f.LineItems[i].ClaimedAmount = 0
			}
		}
		out := evaluate(t, "EMP-PAYREV-01", f)
		assert.Zero(t, out.AllowableAmount)
		// actual wages within 5% of the normative base
		assert.Equal(t, types.FlagGreen, out.Flag)
	})
}
