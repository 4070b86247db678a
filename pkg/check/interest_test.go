package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trueup/trueup/pkg/types"
)

func TestLoanInterest(t *testing.T) {
	t.Run("normative roll forward", func(t *testing.T) {
		out := evaluate(t, "IFC-LTL-01", fyFiling())
		assert.Equal(t, types.ItemIFC, out.LineItem)
		assert.InDelta(t, 445.04, out.AllowableAmount, 0.005)
		assert.InDelta(t, 483.76, out.ClaimedAmount, 0.005)
		assert.InDelta(t, 8.70, out.VariancePercent, 0.005)
		// 5-15% points at the wrong rate being applied.
		assert.Equal(t, types.FlagRed, out.Flag)
		assert.Equal(t, []string{"DEP-GEN-01"}, out.DependsOn)
	})

	t.Run("disputed claims flagged", func(t *testing.T) {
		f := fyFiling()
		f.LongTermLoans.DisputedClaims = true
		f.LongTermLoans.ClaimedInterest = 445.04
		out := evaluate(t, "IFC-LTL-01", f)
		assert.Equal(t, types.FlagYellow, out.Flag)
		assert.Contains(t, out.Recommendation, "disputed")
	})

	t.Run("high cost loan in a clean portfolio", func(t *testing.T) {
		f := fyFiling()
		f.LongTermLoans.HighestRatePct = 9.80
		f.LongTermLoans.ClaimedInterest = 445.04
		out := evaluate(t, "IFC-LTL-01", f)
		assert.Equal(t, types.FlagYellow, out.Flag)
		assert.Contains(t, out.Recommendation, "refinancing")
	})
}

func TestWorkingCapitalInterest(t *testing.T) {
	t.Run("deposits cover the requirement", func(t *testing.T) {
		out := evaluate(t, "IFC-WC-01", fyFiling())
		assert.Zero(t, out.AllowableAmount)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("normative interest without deposits", func(t *testing.T) {
		f := fyFiling()
		f.WorkingCapital.AvgSecurityDeposit = 0
		f.WorkingCapital.ClaimedInterest = 51.51
		out := evaluate(t, "IFC-WC-01", f)
		// (3728.01/12 + 1% of 15133.25) at 11.15%
		assert.InDelta(t, 51.51, out.AllowableAmount, 0.01)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("inflated claim flagged", func(t *testing.T) {
		f := fyFiling()
		f.WorkingCapital.AvgSecurityDeposit = 0
		f.WorkingCapital.ClaimedInterest = 70.00
		out := evaluate(t, "IFC-WC-01", f)
		assert.Equal(t, types.FlagRed, out.Flag)
	})
}

func TestGPFInterest(t *testing.T) {
	out := evaluate(t, "IFC-GPF-01", fyFiling())
	assert.InDelta(t, 164.88, out.AllowableAmount, 0.005)
	assert.Equal(t, types.FlagGreen, out.Flag)
	assert.Equal(t, types.OutputPassThrough, out.OutputType)
}

func TestSecurityDepositInterest(t *testing.T) {
	t.Run("actual disbursement allowed", func(t *testing.T) {
		out := evaluate(t, "IFC-SD-01", fyFiling())
		assert.InDelta(t, 146.88, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("provision claimed instead of disbursement", func(t *testing.T) {
		f := fyFiling()
		f.SecurityDeposit.ClaimedInterest = 265.92
		out := evaluate(t, "IFC-SD-01", f)
		assert.InDelta(t, 146.88, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagYellow, out.Flag)
	})
}

func TestCarryingCost(t *testing.T) {
	t.Run("net gap after GPF and SD deductions", func(t *testing.T) {
		out := evaluate(t, "IFC-CC-01", fyFiling())
		assert.InDelta(t, 258.25, out.AllowableAmount, 0.005)
		assert.InDelta(t, 62.99, out.VarianceAbsolute, 0.005)
		assert.Equal(t, types.FlagYellow, out.Flag)
		assert.Equal(t, []string{"IFC-WC-01"}, out.DependsOn)
	})

	t.Run("deductions swallow the gap", func(t *testing.T) {
		f := fyFiling()
		f.CarryingCost.UnbridgedGap = 3000.00
		f.CarryingCost.Claimed = 0
		out := evaluate(t, "IFC-CC-01", f)
		assert.Zero(t, out.AllowableAmount)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("claim below calculation", func(t *testing.T) {
		f := fyFiling()
		f.CarryingCost.Claimed = 200.00
		out := evaluate(t, "IFC-CC-01", f)
		assert.Equal(t, types.FlagGreen, out.Flag)
		assert.Contains(t, out.Recommendation, "below")
	})
}

func TestOtherInterestDist(t *testing.T) {
	out := evaluate(t, "IFC-OTH-D-01", fyFiling())
	assert.InDelta(t, 44.07, out.AllowableAmount, 0.005)
	assert.Zero(t, out.VariancePercent)
	assert.Equal(t, types.FlagGreen, out.Flag)
}

func TestOtherCharges(t *testing.T) {
	t.Run("elevated bank charges", func(t *testing.T) {
		out := evaluate(t, "IFC-OTH-02", fyFiling())
		assert.InDelta(t, 0.81, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagYellow, out.Flag)
	})

	t.Run("modest bank charges pass", func(t *testing.T) {
		f := fyFiling()
		f.OtherInterest.BankCharges = 0.30
		out := evaluate(t, "IFC-OTH-02", f)
		assert.InDelta(t, 0.30, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagGreen, out.Flag)
	})

	t.Run("excessive bank charges zeroed", func(t *testing.T) {
		f := fyFiling()
		f.OtherInterest.BankCharges = 1.50
		out := evaluate(t, "IFC-OTH-02", f)
		assert.Zero(t, out.AllowableAmount)
		assert.InDelta(t, -100, out.VariancePercent, 0.005)
		assert.Equal(t, types.FlagRed, out.Flag)
	})

	t.Run("GBI disallowed outright", func(t *testing.T) {
		f := fyFiling()
		f.OtherInterest.GBIIncentive = 12.00
		out := evaluate(t, "IFC-OTH-02", f)
		assert.InDelta(t, 0.81, out.AllowableAmount, 0.005)
		assert.Equal(t, types.FlagRed, out.Flag)
		assert.Contains(t, out.Recommendation, "no scheme in force")
	})
}
