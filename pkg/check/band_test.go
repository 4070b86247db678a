package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trueup/trueup/pkg/types"
)

func TestSetDefaultBands(t *testing.T) {
	defer SetDefaultBands(2, 5)

	// PP-COST-01 lands at 1.64% variance on the filed dataset, inside
	// the standard green band.
	t.Run("standard bands", func(t *testing.T) {
		out := evaluate(t, "PP-COST-01", fyFiling())
		assert.InDelta(t, 1.64, out.VariancePercent, 0.005)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("tightened bands reflag", func(t *testing.T) {
		SetDefaultBands(1, 3)
		out := evaluate(t, "PP-COST-01", fyFiling())
		assert.Equal(t, types.FlagYellow, out.Flag)

		SetDefaultBands(0.5, 1)
		out = evaluate(t, "PP-COST-01", fyFiling())
		assert.Equal(t, types.FlagRed, out.Flag)
	})

	t.Run("zero keeps current", func(t *testing.T) {
		SetDefaultBands(1, 3)
		SetDefaultBands(0, 0)
		out := evaluate(t, "PP-COST-01", fyFiling())
		assert.Equal(t, types.FlagYellow, out.Flag)
	})

	t.Run("own thresholds untouched", func(t *testing.T) {
		SetDefaultBands(50, 90)
		f := fyFiling()
		for i := range f.LineItems {
			if f.LineItems[i].Key == types.ItemBondRepayment {
				f.LineItems[i].ClaimedAmount = 346.00
			}
		}
		// Bond repayment carries its own 1/3 bands.
		out := evaluate(t, "MT-REPAY-01", f)
		assert.Equal(t, types.FlagYellow, out.Flag)
	})
}
