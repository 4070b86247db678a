package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// powerPurchaseCost validates the external power purchase cost, the
// largest cost of the distribution SBU. The allowable cost is the sum
// of the source-wise approved detail. Transfer charges from the
// generation and transmission SBUs are separate line items and are
// only recited here for context.
type powerPurchaseCost struct {
	meta
}

func newPowerPurchaseCost() *powerPurchaseCost {
	return &powerPurchaseCost{meta{
		id:       "PP-COST-01",
		name:     "Power Purchase Cost Validation",
		lineItem: types.ItemPowerPurchase,
		basis:    "Regulations 77-78, Tariff Regulations 2021",
		output:   types.OutputApprovedAmount,
		primary:  true,
	}}
}

func (c *powerPurchaseCost) Evaluate(f *types.Filing) (types.Finding, error) {
	pp := f.PowerPurchase
	if pp == nil {
		return types.Finding{}, c.missing(f, "power purchase")
	}

	var allowable float64
	steps := []types.Step{note("Source-wise approved cost:")}
	for _, s := range pp.Sources {
		allowable += s.Amount
		steps = append(steps, step(s.Name, s.Amount, "Cr"))
	}
	var disallowed float64
	for _, d := range pp.Disallowed {
		disallowed += d.Amount
		steps = append(steps, step("Disallowed: "+d.Name, d.Amount, "Cr"))
	}
	claimed := f.ClaimedAmount(types.ItemPowerPurchase)

	steps = append(steps,
		step("Total external power purchase approved", allowable, "Cr"),
		step("Claimed", claimed, "Cr"),
		step("Energy purchased", pp.EnergyMU, "MU"),
	)
	if g, err := f.Claim(types.ItemSBUGTransfer); err == nil {
		steps = append(steps, step("Transfer cost of SBU-G (approved separately)", g.ExternalApproved, "Cr"))
	}
	if t, err := f.Claim(types.ItemSBUTTransfer); err == nil {
		steps = append(steps, step("Transfer cost of SBU-T (approved separately)", t.ExternalApproved, "Cr"))
	}
	if pp.MYTApproved > 0 {
		dev := allowable - pp.MYTApproved
		steps = append(steps,
			step("MYT approved power purchase", pp.MYTApproved, "Cr"),
			step("Deviation from MYT", dev, "Cr"),
		)
	}

	out := c.finding(f, claimed, allowable)
	out.Steps = steps

	out.Flag = defaultBandFlag(abs(out.VariancePercent))
	switch out.Flag {
	case types.FlagGreen:
		out.Recommendation = fmt.Sprintf("Approve external power purchase cost of %.2f Cr; variance within normal range.", out.RecommendedAmount)
	case types.FlagYellow:
		out.Recommendation = fmt.Sprintf("Approve %.2f Cr. Disallowance of %.2f Cr mainly from banking and swap arrangements (%.2f Cr).",
			out.RecommendedAmount, out.VarianceAbsolute, disallowed)
	default:
		out.Recommendation = fmt.Sprintf("Significant disallowance of %.2f Cr. Review the external components, especially exchange and banking purchases.",
			out.VarianceAbsolute)
	}
	return out, nil
}
