package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trueup/trueup/pkg/types"
)

func TestROE(t *testing.T) {
	t.Run("matches rate application", func(t *testing.T) {
		out := evaluate(t, "ROE-01", fyFiling())
		assert.Equal(t, types.ItemROE, out.LineItem)
		assert.Equal(t, types.OutputApprovedAmount, out.OutputType)
		assert.True(t, out.Primary)
		assert.InDelta(t, 253.50, out.AllowableAmount, 0.005)
		assert.InDelta(t, 253.50, out.RecommendedAmount, 0.005)
		assert.Equal(t, types.FlagGreen, out.Flag)
		assert.Equal(t, types.ReviewPending, out.Review.Status)
	})

	t.Run("overclaim flagged red", func(t *testing.T) {
		f := fyFiling()
		for i := range f.LineItems {
			if f.LineItems[i].Key == types.ItemROE {
				f.LineItems[i].ClaimedAmount = 260.00
			}
		}
		out := evaluate(t, "ROE-01", f)
		assert.Equal(t, types.FlagRed, out.Flag)
		assert.InDelta(t, 253.50, out.RecommendedAmount, 0.005)
		assert.Contains(t, out.Recommendation, "Restrict")
	})

	t.Run("infusion raises the base", func(t *testing.T) {
		f := fyFiling()
		f.Equity.Infusion = 100
		out := evaluate(t, "ROE-01", f)
		assert.InDelta(t, 267.50, out.AllowableAmount, 0.005)
	})
}
