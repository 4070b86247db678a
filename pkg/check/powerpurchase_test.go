package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trueup/trueup/pkg/types"
)

func TestPowerPurchaseCost(t *testing.T) {
	t.Run("source wise sum", func(t *testing.T) {
		out := evaluate(t, "PP-COST-01", fyFiling())
		assert.Equal(t, types.ItemPowerPurchase, out.LineItem)
		assert.InDelta(t, 12773.50, out.AllowableAmount, 0.005)
		assert.InDelta(t, 209.09, out.VarianceAbsolute, 0.005)
		assert.InDelta(t, 1.64, out.VariancePercent, 0.005)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("transfer charges recited not summed", func(t *testing.T) {
		out := evaluate(t, "PP-COST-01", fyFiling())
		var found int
		for _, s := range out.Steps {
			switch s.Description {
			case "Transfer cost of SBU-G (approved separately)":
				assert.InDelta(t, 598.70, s.Value, 0.005)
				found++
			case "Transfer cost of SBU-T (approved separately)":
				assert.InDelta(t, 1505.80, s.Value, 0.005)
				found++
			}
		}
		assert.Equal(t, 2, found)
		// The allowable stays external-only.
		assert.InDelta(t, 12773.50, out.AllowableAmount, 0.005)
	})

	t.Run("large disallowance flagged", func(t *testing.T) {
		f := fyFiling()
		for i := range f.LineItems {
			if f.LineItems[i].Key == types.ItemPowerPurchase {
				f.LineItems[i].ClaimedAmount = 13200.00
			}
		}
		out := evaluate(t, "PP-COST-01", f)
		assert.Equal(t, types.FlagYellow, out.Flag)
		assert.Contains(t, out.Recommendation, "banking and swap")
	})
}
