package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// distributionLoss assesses the distribution loss and AT&C loss
// against their targets. It carries no money; its result informs the
// gain sharing check.
type distributionLoss struct {
	meta
}

func newDistributionLoss() *distributionLoss {
	return &distributionLoss{meta{
		id:       "DIST-LOSS-01",
		name:     "Distribution Loss Assessment",
		lineItem: types.ItemTDLossSharing,
		basis:    "Regulation 73, Tariff Regulations 2021",
		output:   types.OutputAssessment,
		primary:  false,
	}}
}

func (c *distributionLoss) Evaluate(f *types.Filing) (types.Finding, error) {
	eb := f.EnergyBalance
	if eb == nil {
		return types.Finding{}, c.missing(f, "energy balance")
	}

	lossMU := eb.InputMU - eb.SalesMU
	var actualPct float64
	if eb.InputMU > 0 {
		actualPct = lossMU / eb.InputMU * 100
	}
	variancePP := actualPct - eb.TargetLossPct

	var atcPct float64
	if eb.InputMU > 0 {
		atcPct = (1 - (eb.SalesMU/eb.InputMU)*(eb.CollectionEfficiencyPct/100)) * 100
	}

	out := c.finding(f, actualPct, eb.TargetLossPct)
	// The figures here are percentages, not amounts.
	out.VarianceAbsolute = round2(variancePP)
	out.VariancePercent = 0
	out.RecommendedAmount = 0
	out.Steps = []types.Step{
		step("Energy input to distribution", eb.InputMU, "MU"),
		step("Energy output at consumer end", eb.SalesMU, "MU"),
		step("Distribution loss", lossMU, "MU"),
		step("Actual distribution loss", actualPct, "%"),
		step("Target distribution loss", eb.TargetLossPct, "%"),
		step("Variance", variancePP, "pp"),
		step("Collection efficiency", eb.CollectionEfficiencyPct, "%"),
		step("AT&C loss", atcPct, "%"),
		step("Target AT&C loss", eb.TargetATCPct, "%"),
	}

	switch {
	case variancePP <= 0:
		out.Flag = types.FlagGreen
		out.Recommendation = fmt.Sprintf("Distribution loss %.2f%% is within the %.2f%% target; saved %.2fpp. Eligible for gain sharing.",
			actualPct, eb.TargetLossPct, -variancePP)
	case variancePP <= 0.5:
		out.Flag = types.FlagYellow
		out.Recommendation = fmt.Sprintf("Distribution loss %.2f%% marginally exceeds the target by %.2fpp; may attract disallowance of excess purchase.",
			actualPct, variancePP)
	default:
		out.Flag = types.FlagRed
		out.Recommendation = fmt.Sprintf("Distribution loss %.2f%% exceeds the target by %.2fpp; excess purchase to be disallowed at the average power cost.",
			actualPct, variancePP)
	}
	return out, nil
}

// tdLossSharing validates the claimed gain from beating the T&D loss
// target. Sharing follows the two-thirds licensee split, but the gain
// is only allowed when the commission's own loss assessment and the
// utility's financial position support it.
type tdLossSharing struct {
	meta
}

func newTDLossSharing() *tdLossSharing {
	return &tdLossSharing{meta{
		id:        "TD-SHARE-01",
		name:      "T&D Loss Gain Sharing",
		lineItem:  types.ItemTDLossSharing,
		basis:     "Regulations 14(1) & 73(3), Tariff Regulations 2021",
		output:    types.OutputApprovedAmount,
		primary:   true,
		dependsOn: []string{"DIST-LOSS-01"},
	}}
}

func (c *tdLossSharing) Evaluate(f *types.Filing) (types.Finding, error) {
	ls := f.LossSharing
	if ls == nil {
		return types.Finding{}, c.missing(f, "loss sharing")
	}

	claimed := f.ClaimedAmount(types.ItemTDLossSharing)
	reductionPP := ls.TargetLossPct - ls.ActualLossPct

	steps := []types.Step{
		step("Approved T&D loss target", ls.TargetLossPct, "%"),
		step("T&D loss claimed by utility", ls.ClaimedLossPct, "%"),
		step("T&D loss assessed by commission", ls.ActualLossPct, "%"),
		step("Loss reduction achieved", reductionPP, "pp"),
	}

	var utilityShare float64
	if reductionPP > 0 {
		energyAtTarget := ls.SalesMU / (1 - ls.TargetLossPct/100)
		energyAtActual := ls.SalesMU / (1 - ls.ActualLossPct/100)
		savedMU := energyAtTarget - energyAtActual
		gain := savedMU * ls.PPCostPerUnit / 100
		utilityShare = gain * ls.UtilitySharePct / 100
		steps = append(steps,
			step("Energy at target loss", energyAtTarget, "MU"),
			step("Energy at assessed loss", energyAtActual, "MU"),
			step("Energy saved", savedMU, "MU"),
			step("Monetary gain at average power cost", gain, "Cr"),
			step("Utility share", utilityShare, "Cr"),
		)
	} else {
		steps = append(steps, note("T&D loss exceeds target; no gain sharing applicable."))
	}

	// The order disallowed the gain outright: the unbridged gap rules
	// out rewarding a target-relative improvement while the absolute
	// loss worsened year on year.
	out := c.finding(f, claimed, 0)
	out.VariancePercent = 100
	out.Steps = append(steps,
		step("Unbridged revenue gap", ls.UnbridgedGap, "Cr"),
		step("Prior-year assessed loss", ls.PrevYearLossPct, "%"),
		step("Approved gain sharing", 0, "Cr"),
	)
	out.Flag = types.FlagRed
	out.Recommendation = fmt.Sprintf(
		"Disallow gain sharing of %.2f Cr. The assessed loss of %.2f%% is below the %.2f%% target, but the unbridged revenue gap of %.2f Cr and the year-on-year increase from %.2f%% justify disallowance. No penalty imposed either, given the demand surge.",
		claimed, ls.ActualLossPct, ls.TargetLossPct, ls.UnbridgedGap, ls.PrevYearLossPct)
	return out, nil
}
