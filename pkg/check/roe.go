package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// roe validates the return on equity claim: the regulated rate applied
// to opening equity plus any infusion during the year.
type roe struct {
	meta
}

func newROE() *roe {
	return &roe{meta{
		id:       "ROE-01",
		name:     "Return on Equity",
		lineItem: types.ItemROE,
		basis:    "Regulation 47, Tariff Regulations 2021",
		output:   types.OutputApprovedAmount,
		primary:  true,
	}}
}

func (c *roe) Evaluate(f *types.Filing) (types.Finding, error) {
	eq := f.Equity
	if eq == nil {
		return types.Finding{}, c.missing(f, "equity")
	}

	base := eq.OpeningEquity + eq.Infusion
	allowable := base * eq.ROERatePct / 100
	claimed := f.ClaimedAmount(types.ItemROE)

	out := c.finding(f, claimed, allowable)
	out.Steps = []types.Step{
		step("Opening equity", eq.OpeningEquity, "Cr"),
		step("Equity infusion during the year", eq.Infusion, "Cr"),
		step("Equity base", base, "Cr"),
		step("Return rate", eq.ROERatePct, "%"),
		step("Allowable return on equity", allowable, "Cr"),
		step("Claimed", claimed, "Cr"),
	}

	// RoE is a straight rate application, so anything beyond rounding
	// noise is an error in the claim.
	if abs(out.VarianceAbsolute) < 0.01 {
		out.Flag = types.FlagGreen
		out.Recommendation = fmt.Sprintf("Approve RoE of %.2f Cr at %.2f%% on equity base of %.2f Cr.",
			out.RecommendedAmount, eq.ROERatePct, base)
	} else {
		out.Flag = types.FlagRed
		out.Recommendation = fmt.Sprintf("Claimed RoE %.2f Cr does not match %.2f%% of the equity base (%.2f Cr). Restrict to %.2f Cr.",
			claimed, eq.ROERatePct, base, out.RecommendedAmount)
	}
	return out, nil
}
