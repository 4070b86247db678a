package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// depreciationGen validates the depreciation claim using the two
// age-based asset buckets: the pre-2005 block at its low residual rate
// on the closing depreciable balance, and the later block at the
// normal rate on the average balance over the year.
type depreciationGen struct {
	meta
}

func newDepreciationGen() *depreciationGen {
	return &depreciationGen{meta{
		id:       "DEP-GEN-01",
		name:     "Depreciation",
		lineItem: types.ItemDepreciation,
		basis:    "Regulation 48, Tariff Regulations 2021",
		output:   types.OutputApprovedAmount,
		primary:  true,
	}}
}

func (c *depreciationGen) Evaluate(f *types.Filing) (types.Finding, error) {
	d := f.Depreciation
	if d == nil {
		return types.Finding{}, c.missing(f, "depreciation")
	}

	preBase := d.Pre2005GFA - d.Pre2005Land - d.Pre2005Grants
	preDep := preBase * d.Pre2005RatePct / 100

	closing := d.PostOpening + d.PostAdditions - d.PostWithdrawals
	avg := (d.PostOpening + closing) / 2
	postDep := avg * d.PostRatePct / 100

	allowable := preDep + postDep
	claimed := f.ClaimedAmount(types.ItemDepreciation)

	out := c.finding(f, claimed, allowable)
	out.Steps = []types.Step{
		step("Pre-2005 GFA less land and grants", preBase, "Cr"),
		step(fmt.Sprintf("Depreciation at %.2f%% on pre-2005 block", d.Pre2005RatePct), preDep, "Cr"),
		step("Post-2005 opening depreciable balance", d.PostOpening, "Cr"),
		step("Additions during the year", d.PostAdditions, "Cr"),
		step("Withdrawals during the year", d.PostWithdrawals, "Cr"),
		step("Average post-2005 balance", avg, "Cr"),
		step(fmt.Sprintf("Depreciation at %.2f%% on average balance", d.PostRatePct), postDep, "Cr"),
		step("Total allowable depreciation", allowable, "Cr"),
		step("Claimed", claimed, "Cr"),
	}

	out.Flag = defaultBandFlag(abs(out.VariancePercent))
	switch out.Flag {
	case types.FlagGreen:
		out.Recommendation = fmt.Sprintf("Approve depreciation of %.2f Cr; claim is within tolerance of the calculated amount.", out.RecommendedAmount)
	case types.FlagYellow:
		out.Recommendation = fmt.Sprintf("Approve %.2f Cr per calculation. Claim deviates %.2f%%; seek asset register reconciliation.", out.RecommendedAmount, out.VariancePercent)
	default:
		out.Flag = types.FlagRed
		out.Recommendation = fmt.Sprintf("Claim deviates %.2f%% from the calculated %.2f Cr. Restrict to calculation pending verification of the fixed asset register.", out.VariancePercent, out.RecommendedAmount)
	}
	return out, nil
}
