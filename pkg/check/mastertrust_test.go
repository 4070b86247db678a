package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trueup/trueup/pkg/types"
)

func TestMasterTrustBond(t *testing.T) {
	out := evaluate(t, "MT-BOND-01", fyFiling())
	assert.Equal(t, types.ItemIFC, out.LineItem)
	assert.InDelta(t, 477.03, out.AllowableAmount, 0.005)
	assert.Equal(t, types.FlagGreen, out.Flag)
}

func TestMasterTrustRepayment(t *testing.T) {
	t.Run("apportioned principal", func(t *testing.T) {
		out := evaluate(t, "MT-REPAY-01", fyFiling())
		assert.Equal(t, types.ItemBondRepayment, out.LineItem)
		assert.InDelta(t, 339.42, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("allocation drift", func(t *testing.T) {
		f := fyFiling()
		for i := range f.LineItems {
			if f.LineItems[i].Key == types.ItemBondRepayment {
				f.LineItems[i].ClaimedAmount = 346.00
			}
		}
		out := evaluate(t, "MT-REPAY-01", f)
		// just under 2% off the employee-strength share
		assert.Equal(t, types.FlagYellow, out.Flag)
	})
}

func TestMasterTrustAdditional(t *testing.T) {
	setClaim := func(f *types.Filing, amount float64) {
		for i := range f.LineItems {
			if f.LineItems[i].Key == types.ItemMTAdditional {
				f.LineItems[i].ClaimedAmount = amount
			}
		}
	}

	t.Run("report without government approval capped", func(t *testing.T) {
		out := evaluate(t, "MT-ADD-01", fyFiling())
		assert.InDelta(t, 333.42, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagYellow, out.Flag)
		assert.Contains(t, out.Recommendation, "pending State Government approval")
	})

	t.Run("report and approval allow full liability", func(t *testing.T) {
		f := fyFiling()
		f.MasterTrust.HasGovtApproval = true
		setClaim(f, 1224.45)
		out := evaluate(t, "MT-ADD-01", f)
		assert.InDelta(t, 1224.45, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("approval without report capped with deadline", func(t *testing.T) {
		f := fyFiling()
		f.MasterTrust.HasActuarialReport = false
		f.MasterTrust.HasGovtApproval = true
		out := evaluate(t, "MT-ADD-01", f)
		assert.InDelta(t, 333.42, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagYellow, out.Flag)
		assert.Contains(t, out.Recommendation, "two months")
	})

	t.Run("neither rejected", func(t *testing.T) {
		f := fyFiling()
		f.MasterTrust.HasActuarialReport = false
		out := evaluate(t, "MT-ADD-01", f)
		assert.Zero(t, out.AllowableAmount)
		assert.Equal(t, types.FlagRed, out.Flag)
	})
}
