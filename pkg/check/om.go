package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// omInflation computes the weighted CPI/WPI escalation applied to the
// O&M norms. It is informational: its output is a percentage, not an
// amount, and it always carries a green flag.
type omInflation struct {
	meta
}

func newOMInflation() *omInflation {
	return &omInflation{meta{
		id:       "OM-INFL-01",
		name:     "O&M Inflation Escalation",
		lineItem: types.ItemOMExpenses,
		basis:    "Annexure-7, Para 1, Tariff Regulations 2021",
		output:   types.OutputCalculatedValue,
		primary:  false,
	}}
}

func (c *omInflation) Evaluate(f *types.Filing) (types.Finding, error) {
	in := f.Inflation
	if in == nil {
		return types.Finding{}, c.missing(f, "inflation")
	}

	cpiPct := (in.CPINew - in.CPIOld) / in.CPIOld * 100
	wpiPct := (in.WPINew - in.WPIOld) / in.WPIOld * 100
	weighted := cpiPct*in.CPIWeight + wpiPct*in.WPIWeight

	out := c.finding(f, 0, 0)
	out.AllowableAmount = round2(weighted)
	out.RecommendedAmount = round2(weighted)
	out.Flag = types.FlagGreen
	out.Steps = []types.Step{
		step("CPI previous year", in.CPIOld, "index"),
		step("CPI current year", in.CPINew, "index"),
		step("CPI increase", cpiPct, "%"),
		step("WPI previous year", in.WPIOld, "index"),
		step("WPI current year", in.WPINew, "index"),
		step("WPI increase", wpiPct, "%"),
		step("CPI weight", in.CPIWeight*100, "%"),
		step("WPI weight", in.WPIWeight*100, "%"),
		step("Weighted escalation", weighted, "%"),
	}
	out.Recommendation = fmt.Sprintf("Apply weighted escalation of %.2f%% to the O&M norms.", weighted)
	return out, nil
}

// omDistNorms validates distribution O&M against the normative
// formula: employee and A&G costs from the five network parameters,
// plus repairs and maintenance at a fixed share of the asset base.
type omDistNorms struct {
	meta
}

func newOMDistNorms() *omDistNorms {
	return &omDistNorms{meta{
		id:        "OM-DIST-NORM-01",
		name:      "Distribution O&M Norms",
		lineItem:  types.ItemOMExpenses,
		basis:     "Regulation 80 + Annexure-7, Tariff Regulations 2021",
		output:    types.OutputApprovedAmount,
		primary:   true,
		dependsOn: []string{"OM-INFL-01"},
	}}
}

func (c *omDistNorms) Evaluate(f *types.Filing) (types.Finding, error) {
	om := f.OMNorms
	if om == nil {
		return types.Finding{}, c.missing(f, "O&M norms")
	}

	// Norms are Rs Lakh per unit of the matching parameter; divide by
	// 100 to land in Rs Crore. The energy norm is Rs per unit, which
	// works out to a divide by 10 on MU.
	costConsumers := om.NormPerKConsumers * om.Consumers / 1000 / 100
	costDTRs := om.NormPerDTR * om.DTRs / 100
	costHT := om.NormPerHTKm * om.HTLineKm / 100
	costLT := om.NormPerLTKm * om.LTLineKm / 100
	costEnergy := om.NormPerMU * om.EnergyHandledMU / 10
	employee := costConsumers + costDTRs + costHT + costLT + costEnergy

	netGFA := om.RMGrossBlock - om.RMDerecognized - om.RMLandValue
	rm := netGFA * om.RMRatePct / 100

	allowable := employee + rm
	claimed := f.ClaimedAmount(types.ItemOMExpenses)

	out := c.finding(f, claimed, allowable)
	out.Steps = []types.Step{
		note("Employee and A&G by network parameter:"),
		step("Consumers", costConsumers, "Cr"),
		step("Distribution transformers", costDTRs, "Cr"),
		step("HT lines", costHT, "Cr"),
		step("LT lines", costLT, "Cr"),
		step("Energy sales", costEnergy, "Cr"),
		step("Total employee and A&G", employee, "Cr"),
		step("Claimed employee and A&G", om.EmployeeClaimed, "Cr"),
		step("Opening GFA for R&M", om.RMGrossBlock, "Cr"),
		step("Less: derecognized assets", om.RMDerecognized, "Cr"),
		step("Less: land", om.RMLandValue, "Cr"),
		step(fmt.Sprintf("R&M at %.1f%% of net GFA", om.RMRatePct), rm, "Cr"),
		step("Claimed R&M", om.RMClaimed, "Cr"),
		step("Total normative O&M", allowable, "Cr"),
		step("Claimed total O&M", claimed, "Cr"),
		step("MYT approved", om.MYTApproved, "Cr"),
	}

	switch {
	case abs(out.VariancePercent) <= 2:
		out.Flag = types.FlagGreen
		out.Recommendation = fmt.Sprintf("Approve O&M of %.2f Cr per norms.", out.RecommendedAmount)
	case out.VarianceAbsolute > 0:
		out.Flag = types.FlagYellow
		out.Recommendation = fmt.Sprintf("Cap O&M to the normative %.2f Cr; the claim exceeds norms by %.2f Cr.",
			out.RecommendedAmount, out.VarianceAbsolute)
	default:
		out.Flag = types.FlagGreen
		out.Recommendation = fmt.Sprintf("Claimed %.2f Cr is below the normative %.2f Cr.", claimed, out.RecommendedAmount)
	}
	return out, nil
}

// payRevision scrutinizes pay revision arrears. An implemented
// revision needs State Government approval before the arrears enter
// the revenue requirement; without one the claim is disallowed.
type payRevision struct {
	meta
}

func newPayRevision() *payRevision {
	return &payRevision{meta{
		id:       "EMP-PAYREV-01",
		name:     "Pay Revision Prudence Check",
		lineItem: types.ItemPayRevision,
		basis:    "Regulation 14(3), Tariff Regulations 2021; APTEL Order 10.11.2014",
		output:   types.OutputPrudenceCheck,
		primary:  true,
	}}
}

func (c *payRevision) Evaluate(f *types.Filing) (types.Finding, error) {
	pr := f.PayRevision
	if pr == nil {
		return types.Finding{}, c.missing(f, "pay revision")
	}

	claimed := f.ClaimedAmount(types.ItemPayRevision)
	wageVar := pr.ActualWageExpense - pr.NormativeWageBase
	var wageVarPct float64
	if pr.NormativeWageBase > 0 {
		wageVarPct = wageVar / pr.NormativeWageBase * 100
	}

	var allowable float64
	var flag types.Flag
	var reason string
	switch {
	case !pr.RevisionEffective:
		allowable = 0
		flag = bandFlag(abs(wageVarPct), 5, 15)
		reason = fmt.Sprintf("No pay revision in effect; actual wage expense deviates %.2f%% from the normative base.", wageVarPct)
	case pr.GovtOrderRef != "":
		allowable = claimed
		flag = types.FlagYellow
		reason = fmt.Sprintf("Pay revision backed by Government order %s; arrears allowed provisionally pending prudence review.", pr.GovtOrderRef)
	default:
		allowable = 0
		flag = types.FlagRed
		reason = "Pay revision implemented without State Government approval; arrears disallowed."
	}

	out := c.finding(f, claimed, allowable)
	out.Flag = flag
	out.Steps = []types.Step{
		step("Normative wage base", pr.NormativeWageBase, "Cr"),
		step("Actual wage expense", pr.ActualWageExpense, "Cr"),
		step("Wage variance", wageVar, "Cr"),
		step("Claimed arrears", claimed, "Cr"),
		note(fmt.Sprintf("Pay revision implemented: %t", pr.RevisionEffective)),
		step("Allowable arrears", allowable, "Cr"),
	}
	out.Recommendation = fmt.Sprintf("Approve pay revision arrears of %.2f Cr. %s", out.RecommendedAmount, reason)
	return out, nil
}
