package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// masterTrustBond validates interest on the pension Master Trust
// bonds. The coupon schedule is fixed company-wide; the SBU carries
// its employee-strength share.
type masterTrustBond struct {
	meta
}

func newMasterTrustBond() *masterTrustBond {
	return &masterTrustBond{meta{
		id:       "MT-BOND-01",
		name:     "Interest on Master Trust Bonds",
		lineItem: types.ItemIFC,
		basis:    "Regulation 30, Regulation 34; Transfer Scheme notified vide GO(P) 46/2013/PD dated 31.10.2013 and GO(P) 3/2015/PD dated 28.01.2015",
		output:   types.OutputPassThrough,
		primary:  true,
	}}
}

func (c *masterTrustBond) Evaluate(f *types.Filing) (types.Finding, error) {
	mt := f.MasterTrust
	if mt == nil {
		return types.Finding{}, c.missing(f, "master trust")
	}

	allowable := mt.CompanyBondInterest * mt.SBUSharePct / 100

	out := c.finding(f, mt.ClaimedBondInterest, allowable)
	out.Steps = []types.Step{
		step("Total bond interest (company)", mt.CompanyBondInterest, "Cr"),
		step("SBU allocation ratio (employee strength)", mt.SBUSharePct, "%"),
		step("Allowable SBU bond interest", allowable, "Cr"),
		step("Claimed", mt.ClaimedBondInterest, "Cr"),
	}

	out.Flag = bandFlag(abs(out.VariancePercent), 1, 3)
	switch out.Flag {
	case types.FlagGreen:
		out.Recommendation = fmt.Sprintf("Approve Master Trust bond interest of %.2f Cr.", out.RecommendedAmount)
	case types.FlagYellow:
		out.Recommendation = fmt.Sprintf("Approve %.2f Cr. Minor variance of %.2f%%; verify the SBU allocation ratio.",
			out.RecommendedAmount, out.VariancePercent)
	default:
		out.Recommendation = fmt.Sprintf("Approve %.2f Cr. Variance of %.2f%%; recalculate the allocation from the audited employee strength ratio.",
			out.RecommendedAmount, out.VariancePercent)
	}
	return out, nil
}

// masterTrustRepayment validates the fixed annual principal repayment
// on the Master Trust bonds, apportioned like the coupon.
type masterTrustRepayment struct {
	meta
}

func newMasterTrustRepayment() *masterTrustRepayment {
	return &masterTrustRepayment{meta{
		id:       "MT-REPAY-01",
		name:     "Repayment of Master Trust Bond Principal",
		lineItem: types.ItemBondRepayment,
		basis:    "Regulation 34(iv) as amended by KSERC (Terms and Conditions for Determination of Tariff) (Second Amendment) Regulations, 2024; Transfer Scheme provisions",
		output:   types.OutputPassThrough,
		primary:  true,
	}}
}

func (c *masterTrustRepayment) Evaluate(f *types.Filing) (types.Finding, error) {
	mt := f.MasterTrust
	if mt == nil {
		return types.Finding{}, c.missing(f, "master trust")
	}

	allowable := mt.CompanyRepayment * mt.SBUSharePct / 100
	claimed := f.ClaimedAmount(types.ItemBondRepayment)

	out := c.finding(f, claimed, allowable)
	out.Steps = []types.Step{
		step("Annual principal repayment (company)", mt.CompanyRepayment, "Cr"),
		step("SBU allocation ratio (employee strength)", mt.SBUSharePct, "%"),
		step("Allowable SBU principal repayment", allowable, "Cr"),
		step("Claimed", claimed, "Cr"),
	}

	out.Flag = bandFlag(abs(out.VariancePercent), 1, 3)
	switch out.Flag {
	case types.FlagGreen:
		out.Recommendation = fmt.Sprintf("Approve Master Trust bond principal repayment of %.2f Cr.", out.RecommendedAmount)
	case types.FlagYellow:
		out.Recommendation = fmt.Sprintf("Approve %.2f Cr. Minor variance of %.2f%%; verify the SBU allocation methodology.",
			out.RecommendedAmount, out.VariancePercent)
	default:
		out.Recommendation = fmt.Sprintf("Approve %.2f Cr. Variance of %.2f%%; recalculate the allocation from the audited employee strength ratio.",
			out.RecommendedAmount, out.VariancePercent)
	}
	return out, nil
}

// masterTrustAdditional validates the additional contribution that
// funds actuarial liability beyond the bonds. The allowance is
// conditional on an actuarial report and government approval; without
// both it is capped, without either it is rejected.
type masterTrustAdditional struct {
	meta
}

func newMasterTrustAdditional() *masterTrustAdditional {
	return &masterTrustAdditional{meta{
		id:       "MT-ADD-01",
		name:     "Additional Contribution to Master Trust",
		lineItem: types.ItemMTAdditional,
		basis:    "Regulation 30(3), Regulation 45(2), Regulation 58(3), Regulation 80; MYT Order dated 25.06.2022; Truing-Up Order Para 6.81-6.82",
		output:   types.OutputConditional,
		primary:  true,
	}}
}

func (c *masterTrustAdditional) Evaluate(f *types.Filing) (types.Finding, error) {
	mt := f.MasterTrust
	if mt == nil {
		return types.Finding{}, c.missing(f, "master trust")
	}

	var companyAllowable float64
	var flag types.Flag
	var condition string
	switch {
	case mt.HasActuarialReport && mt.HasGovtApproval:
		companyAllowable = mt.ActuarialLiability
		flag = types.FlagGreen
		condition = "Actuarial report submitted and Government approval obtained; full actuarial liability approved."
	case mt.HasActuarialReport:
		companyAllowable = mt.ContributionCap
		if mt.ActuarialLiability < companyAllowable {
			companyAllowable = mt.ActuarialLiability
		}
		flag = types.FlagYellow
		condition = fmt.Sprintf("Provisionally approved at the %.2f Cr cap pending State Government approval.", mt.ContributionCap)
	case mt.HasGovtApproval:
		companyAllowable = mt.ContributionCap
		flag = types.FlagYellow
		condition = fmt.Sprintf("Provisionally approved at the %.2f Cr cap; actuarial report must be submitted within two months or the approval may be revoked.", mt.ContributionCap)
	default:
		companyAllowable = 0
		flag = types.FlagRed
		condition = "Disallowed pending actuarial valuation report, a board-approved funding proposal and State Government approval."
	}

	allowable := companyAllowable * mt.SBUSharePct / 100
	claimed := f.ClaimedAmount(types.ItemMTAdditional)

	out := c.finding(f, claimed, allowable)
	out.Flag = flag
	out.Steps = []types.Step{
		step("Actuarial liability addition (company)", mt.ActuarialLiability, "Cr"),
		step("Provisional cap", mt.ContributionCap, "Cr"),
		note(fmt.Sprintf("Actuarial report submitted: %t; Government approval: %t", mt.HasActuarialReport, mt.HasGovtApproval)),
		step("Total allowable (company)", companyAllowable, "Cr"),
		step("SBU allocation ratio", mt.SBUSharePct, "%"),
		step("Allowable SBU contribution", allowable, "Cr"),
		step("Claimed", claimed, "Cr"),
	}
	out.Recommendation = fmt.Sprintf("Approve additional Master Trust contribution of %.2f Cr. %s", out.RecommendedAmount, condition)
	return out, nil
}
