package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trueup/trueup/pkg/types"
)

func TestNonTariffIncome(t *testing.T) {
	t.Run("exclusions reduce the accounts figure", func(t *testing.T) {
		out := evaluate(t, "NTI-01", fyFiling())
		assert.Equal(t, types.ItemNTI, out.LineItem)
		assert.InDelta(t, 920.18, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("additions raise it", func(t *testing.T) {
		f := fyFiling()
		f.NonTariffIncome.Additions = []types.NamedAmount{
			{Name: "Delayed payment surcharge understated", Amount: 10.00},
		}
		out := evaluate(t, "NTI-01", f)
		assert.InDelta(t, 930.18, out.AllowableAmount, 0.005)
	})

	t.Run("MYT overshoot remarked", func(t *testing.T) {
		f := fyFiling()
		f.NonTariffIncome.MYTApproved = 600.00
		out := evaluate(t, "NTI-01", f)
		assert.Contains(t, out.Recommendation, "above the MYT projection")
	})

	t.Run("unreconciled claim flagged", func(t *testing.T) {
		f := fyFiling()
		for i := range f.LineItems {
			if f.LineItems[i].Key == types.ItemNTI {
				f.LineItems[i].ClaimedAmount = 850.00
			}
		}
		out := evaluate(t, "NTI-01", f)
		assert.Equal(t, types.FlagRed, out.Flag)
	})
}
