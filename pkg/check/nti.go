package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// nonTariffIncome validates non-tariff income, which offsets the
// revenue requirement rather than adding to it. Regulatory exclusions
// come off the accounts figure and assessed additions go on.
type nonTariffIncome struct {
	meta
}

func newNonTariffIncome() *nonTariffIncome {
	return &nonTariffIncome{meta{
		id:       "NTI-01",
		name:     "Non-Tariff Income",
		lineItem: types.ItemNTI,
		basis:    "Regulation 52, Tariff Regulations 2021",
		output:   types.OutputApprovedAmount,
		primary:  true,
	}}
}

func (c *nonTariffIncome) Evaluate(f *types.Filing) (types.Finding, error) {
	n := f.NonTariffIncome
	if n == nil {
		return types.Finding{}, c.missing(f, "non-tariff income")
	}

	allowable := n.BaseIncome
	steps := []types.Step{
		step("Non-tariff income per accounts", n.BaseIncome, "Cr"),
	}
	for _, ex := range n.Exclusions {
		allowable -= ex.Amount
		steps = append(steps, step("Less: "+ex.Name, ex.Amount, "Cr"))
	}
	for _, ad := range n.Additions {
		allowable += ad.Amount
		steps = append(steps, step("Add: "+ad.Name, ad.Amount, "Cr"))
	}
	claimed := f.ClaimedAmount(types.ItemNTI)
	steps = append(steps,
		step("Assessed non-tariff income", allowable, "Cr"),
		step("Claimed", claimed, "Cr"),
		step("MYT approved", n.MYTApproved, "Cr"),
	)

	out := c.finding(f, claimed, allowable)
	out.Steps = steps

	out.Flag = defaultBandFlag(abs(out.VariancePercent))
	out.Recommendation = fmt.Sprintf("Adopt non-tariff income of %.2f Cr as a reduction of the revenue requirement.", out.RecommendedAmount)
	if out.Flag != types.FlagGreen {
		out.Recommendation += fmt.Sprintf(" Claim deviates %.2f%% from the assessed figure; reconcile against audited accounts.", out.VariancePercent)
	}

	// Large swings against the MYT projection deserve a remark even
	// when the claim reconciles.
	if n.MYTApproved > 0 {
		devPct := (allowable - n.MYTApproved) / n.MYTApproved * 100
		if devPct > 50 {
			out.Recommendation += fmt.Sprintf(" Income is %.2f%% above the MYT projection; verify one-time receipts.", devPct)
		} else if devPct < -20 {
			out.Recommendation += fmt.Sprintf(" Income is %.2f%% below the MYT projection; examine the shortfall.", devPct)
		}
	}
	return out, nil
}
