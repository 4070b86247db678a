package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// loanInterest validates interest on long-term loans against the
// normative loan methodology: the loan balance rolls forward with GFA
// additions less depreciation, and interest accrues on the average
// balance at the opening rate.
type loanInterest struct {
	meta
}

func newLoanInterest() *loanInterest {
	return &loanInterest{meta{
		id:        "IFC-LTL-01",
		name:      "Interest on Long-Term Loans",
		lineItem:  types.ItemIFC,
		basis:     "Regulation 29, Tariff Regulations 2021; Normative loan methodology per MYT framework",
		output:    types.OutputNormative,
		primary:   true,
		dependsOn: []string{"DEP-GEN-01"},
	}}
}

func (c *loanInterest) Evaluate(f *types.Filing) (types.Finding, error) {
	l := f.LongTermLoans
	if l == nil {
		return types.Finding{}, c.missing(f, "long-term loan")
	}

	closing := l.OpeningBalance + l.GFAAdditions - l.Depreciation
	avg := (l.OpeningBalance + closing) / 2
	allowable := avg * l.OpeningRatePct / 100

	out := c.finding(f, l.ClaimedInterest, allowable)
	out.Steps = []types.Step{
		step("Opening normative loan", l.OpeningBalance, "Cr"),
		step("Add: GFA additions", l.GFAAdditions, "Cr"),
		step("Less: depreciation", l.Depreciation, "Cr"),
		step("Closing normative loan", closing, "Cr"),
		step("Average normative loan", avg, "Cr"),
		step("Opening interest rate", l.OpeningRatePct, "%"),
		step("Allowable interest", allowable, "Cr"),
		step("Claimed", l.ClaimedInterest, "Cr"),
	}

	flag := types.FlagGreen
	var notes []string
	if l.DisputedClaims {
		flag = types.FlagYellow
		notes = append(notes, "Opening loan includes disputed claims; verify appellate status before allowing.")
	}
	absPct := abs(out.VariancePercent)
	switch {
	case absPct > 15:
		if flag != types.FlagYellow {
			flag = types.FlagYellow
		}
		notes = append(notes, fmt.Sprintf("Large variance (%.2f%%) suggests an incorrect rate, e.g. the prior-year average instead of the opening rate.", out.VariancePercent))
	case absPct > 5:
		flag = types.FlagRed
		notes = append(notes, fmt.Sprintf("Significant variance (%.2f%%); verify the interest rate and loan roll-forward.", out.VariancePercent))
	}
	if l.HighestRatePct > 9 && flag == types.FlagGreen {
		flag = types.FlagYellow
		notes = append(notes, fmt.Sprintf("High-cost loan at %.2f%% in the portfolio; verify refinancing efforts.", l.HighestRatePct))
	}
	out.Flag = flag

	out.Recommendation = fmt.Sprintf("Approve normative interest of %.2f Cr.", out.RecommendedAmount)
	if len(notes) > 0 {
		out.Recommendation += " " + joinNotes(notes)
	} else {
		out.Recommendation += " Calculation verified."
	}
	return out, nil
}

// workingCapitalInterest validates interest on working capital. The
// normative working capital is one month of approved O&M plus 1% of
// GFA excluding land as spares, carried at EBLR plus margin.
type workingCapitalInterest struct {
	meta
}

func newWorkingCapitalInterest() *workingCapitalInterest {
	return &workingCapitalInterest{meta{
		id:        "IFC-WC-01",
		name:      "Interest on Working Capital",
		lineItem:  types.ItemIFC,
		basis:     "Regulation 32, Tariff Regulations 2021; Regulation 3(12) (Base rate = SBI EBLR)",
		output:    types.OutputNormative,
		primary:   true,
		dependsOn: []string{"OM-DIST-NORM-01"},
	}}
}

func (c *workingCapitalInterest) Evaluate(f *types.Filing) (types.Finding, error) {
	w := f.WorkingCapital
	if w == nil {
		return types.Finding{}, c.missing(f, "working capital")
	}

	oneMonthOM := w.OMExpenses / 12
	spares := w.GFAExclLand * 0.01
	workingCapital := oneMonthOM + spares
	rate := w.EBLRPct + w.MarginPct
	allowable := workingCapital * rate / 100

	// Interest-bearing security deposits fund working capital first;
	// when they cover the requirement no separate interest is allowed
	// and the excess feeds the carrying cost deduction instead.
	depositsCover := w.AvgSecurityDeposit >= workingCapital
	if depositsCover {
		allowable = 0
	}

	out := c.finding(f, w.ClaimedInterest, allowable)
	out.Steps = []types.Step{
		step("Approved O&M expenses", w.OMExpenses, "Cr"),
		step("One month O&M", oneMonthOM, "Cr"),
		step("Opening GFA excluding land", w.GFAExclLand, "Cr"),
		step("Spares at 1% of GFA", spares, "Cr"),
		step("Normative working capital", workingCapital, "Cr"),
		step("Interest rate (EBLR plus margin)", rate, "%"),
		step("Average security deposit held", w.AvgSecurityDeposit, "Cr"),
		step("Allowable working capital interest", allowable, "Cr"),
		step("Claimed", w.ClaimedInterest, "Cr"),
	}
	if depositsCover {
		out.Steps = append(out.Steps, note("Security deposits exceed the working capital requirement; no working capital interest allowed."))
	}

	absPct := abs(out.VariancePercent)
	switch {
	case absPct <= 5:
		out.Flag = types.FlagGreen
		out.Recommendation = fmt.Sprintf("Approve normative WC interest of %.2f Cr.", out.RecommendedAmount)
	case absPct <= 15:
		out.Flag = types.FlagYellow
		out.Recommendation = fmt.Sprintf("Approve normative WC interest of %.2f Cr. Variance of %.2f%%; verify the approved O&M figure was used, not the MYT baseline.",
			out.RecommendedAmount, out.VariancePercent)
	default:
		out.Flag = types.FlagRed
		out.Recommendation = fmt.Sprintf("Approve normative WC interest of %.2f Cr. Large variance (%.2f%%) suggests non-O&M items were folded into working capital.",
			out.RecommendedAmount, out.VariancePercent)
	}
	return out, nil
}

// gpfInterest validates interest on the general provident fund.
// Interest accrues company-wide on the average balance and is
// apportioned to the SBU by employee strength.
type gpfInterest struct {
	meta
}

func newGPFInterest() *gpfInterest {
	return &gpfInterest{meta{
		id:       "IFC-GPF-01",
		name:     "Interest on GPF",
		lineItem: types.ItemIFC,
		basis:    "Established practice for low-cost internal funding; GPF interest allowed as actuals per audited accounts; SBU allocation per employee strength ratio",
		output:   types.OutputPassThrough,
		primary:  true,
	}}
}

func (c *gpfInterest) Evaluate(f *types.Filing) (types.Finding, error) {
	g := f.GPF
	if g == nil {
		return types.Finding{}, c.missing(f, "GPF")
	}

	avg := (g.OpeningBalance + g.ClosingBalance) / 2
	companyInterest := avg * g.RatePct / 100
	allowable := companyInterest * g.SBUSharePct / 100

	out := c.finding(f, g.ClaimedInterest, allowable)
	out.Steps = []types.Step{
		step("Opening GPF balance (company)", g.OpeningBalance, "Cr"),
		step("Closing GPF balance (company)", g.ClosingBalance, "Cr"),
		step("Average GPF balance", avg, "Cr"),
		step("GPF interest rate", g.RatePct, "%"),
		step("Total GPF interest (company)", companyInterest, "Cr"),
		step("SBU allocation ratio", g.SBUSharePct, "%"),
		step("Allowable SBU GPF interest", allowable, "Cr"),
		step("Claimed", g.ClaimedInterest, "Cr"),
	}

	absPct := abs(out.VariancePercent)
	switch {
	case absPct <= 2:
		out.Flag = types.FlagGreen
		out.Recommendation = fmt.Sprintf("Approve GPF interest of %.2f Cr.", out.RecommendedAmount)
	case absPct <= 5:
		out.Flag = types.FlagYellow
		out.Recommendation = fmt.Sprintf("Approve %.2f Cr. Minor variance of %.2f%%; verify the allocation ratio and balances against audited accounts.",
			out.RecommendedAmount, out.VariancePercent)
	default:
		out.Flag = types.FlagRed
		out.Recommendation = fmt.Sprintf("Approve %.2f Cr. Significant variance of %.2f%%; verify the GPF balances and the employee strength allocation.",
			out.RecommendedAmount, out.VariancePercent)
	}
	return out, nil
}

// securityDepositInterest validates interest on consumer security
// deposits. Only the amount actually disbursed to consumers during the
// year is allowed at truing-up, not the accounting provision.
type securityDepositInterest struct {
	meta
}

func newSecurityDepositInterest() *securityDepositInterest {
	return &securityDepositInterest{meta{
		id:       "IFC-SD-01",
		name:     "Interest on Security Deposits",
		lineItem: types.ItemIFC,
		basis:    "Regulation 29(8), Tariff Regulations 2021",
		output:   types.OutputApprovedAmount,
		primary:  true,
	}}
}

func (c *securityDepositInterest) Evaluate(f *types.Filing) (types.Finding, error) {
	sd := f.SecurityDeposit
	if sd == nil {
		return types.Finding{}, c.missing(f, "security deposit")
	}

	allowable := sd.ActualDisbursement
	expected := sd.AvgDeposit * sd.RatePct / 100

	out := c.finding(f, sd.ClaimedInterest, allowable)
	out.Steps = []types.Step{
		step("Average security deposit", sd.AvgDeposit, "Cr"),
		step("Interest rate (bank rate at start of year)", sd.RatePct, "%"),
		step("Expected interest (notional)", expected, "Cr"),
		step("Provision in accounts", sd.Provision, "Cr"),
		step("Actual disbursement", sd.ActualDisbursement, "Cr"),
		step("MYT approved", sd.MYTApproved, "Cr"),
		step("Claimed", sd.ClaimedInterest, "Cr"),
		note("Provision exceeds disbursement because it includes interest payable next April; balance may be claimed next year."),
	}

	if abs(out.VariancePercent) <= 2 {
		out.Flag = types.FlagGreen
	} else {
		out.Flag = types.FlagYellow
	}
	out.Recommendation = fmt.Sprintf("Approve %.2f Cr, the actual disbursement to consumers.", out.RecommendedAmount)
	return out, nil
}

// carryingCost validates the carrying cost on the unbridged revenue
// gap. The GPF balance and the excess of security deposits over
// working capital are netted off the gap before interest applies,
// since both are already funded through other interest allowances.
type carryingCost struct {
	meta
}

func newCarryingCost() *carryingCost {
	return &carryingCost{meta{
		id:        "IFC-CC-01",
		name:      "Carrying Cost on Revenue Gap",
		lineItem:  types.ItemIFC,
		basis:     "Regulation 29(9), Tariff Regulations 2021",
		output:    types.OutputApprovedAmount,
		primary:   true,
		dependsOn: []string{"IFC-WC-01"},
	}}
}

func (c *carryingCost) Evaluate(f *types.Filing) (types.Finding, error) {
	cc := f.CarryingCost
	if cc == nil {
		return types.Finding{}, c.missing(f, "carrying cost")
	}

	netGap := cc.UnbridgedGap - cc.AvgGPFBalance - cc.ExcessSDOverWC
	if netGap < 0 {
		netGap = 0
	}
	allowable := netGap * cc.RatePct / 100

	out := c.finding(f, cc.Claimed, allowable)
	out.Steps = []types.Step{
		step("Unbridged revenue gap at start of year", cc.UnbridgedGap, "Cr"),
		step("Less: average GPF balance", cc.AvgGPFBalance, "Cr"),
		step("Less: excess SD over working capital", cc.ExcessSDOverWC, "Cr"),
		step("Net gap eligible for carrying cost", netGap, "Cr"),
		step("Weighted average interest rate", cc.RatePct, "%"),
		step("Allowable carrying cost", allowable, "Cr"),
		step("MYT approved", cc.MYTApproved, "Cr"),
		step("Claimed", cc.Claimed, "Cr"),
	}

	switch {
	case abs(out.VariancePercent) <= 2:
		out.Flag = types.FlagGreen
		out.Recommendation = fmt.Sprintf("Approve carrying cost of %.2f Cr.", out.RecommendedAmount)
	case out.VarianceAbsolute > 0:
		out.Flag = types.FlagYellow
		out.Recommendation = fmt.Sprintf("Approve carrying cost of %.2f Cr; disallow %.2f Cr arising from the GPF and SD deduction methodology.",
			out.RecommendedAmount, out.VarianceAbsolute)
	default:
		out.Flag = types.FlagGreen
		out.Recommendation = fmt.Sprintf("Approve carrying cost of %.2f Cr; claim is below the calculated amount.", out.RecommendedAmount)
	}
	return out, nil
}

// otherInterestDist validates the residual interest charges of the
// distribution SBU: bank charges and interest on power purchase dues
// from provisional versus final generator tariffs.
type otherInterestDist struct {
	meta
}

func newOtherInterestDist() *otherInterestDist {
	return &otherInterestDist{meta{
		id:       "IFC-OTH-D-01",
		name:     "Other Interest Charges",
		lineItem: types.ItemIFC,
		basis:    "Para 5.191, KSERC Order",
		output:   types.OutputApprovedAmount,
		primary:  true,
	}}
}

func (c *otherInterestDist) Evaluate(f *types.Filing) (types.Finding, error) {
	oi := f.OtherInterest
	if oi == nil {
		return types.Finding{}, c.missing(f, "other interest")
	}

	allowable := oi.BankCharges + oi.PPDuesInterest

	out := c.finding(f, oi.Claimed, allowable)
	// Approved as claimed; the percentage band is not meaningful here.
	out.VariancePercent = 0
	out.Steps = []types.Step{
		step("Other bank charges", oi.BankCharges, "Cr"),
		step("Interest on power purchase dues", oi.PPDuesInterest, "Cr"),
		step("Total other interest", allowable, "Cr"),
		step("Claimed", oi.Claimed, "Cr"),
	}

	if abs(out.VarianceAbsolute) < 0.5 {
		out.Flag = types.FlagGreen
	} else {
		out.Flag = types.FlagYellow
	}
	out.Recommendation = fmt.Sprintf("Approve %.2f Cr as claimed.", out.RecommendedAmount)
	return out, nil
}

// otherCharges validates the generation-side residual charges: a
// generation-based incentive that has no scheme in force, and bank
// charges allowed when reasonable.
type otherCharges struct {
	meta
}

func newOtherCharges() *otherCharges {
	return &otherCharges{meta{
		id:       "IFC-OTH-02",
		name:     "Other Interest & Charges (GBI + Bank Charges)",
		lineItem: types.ItemIFC,
		basis:    "No applicable GBI scheme for the year; Bank charges allowed as legitimate operational expenses subject to prudence check",
		output:   types.OutputMixed,
		primary:  true,
	}}
}

func (c *otherCharges) Evaluate(f *types.Filing) (types.Finding, error) {
	oi := f.OtherInterest
	if oi == nil {
		return types.Finding{}, c.missing(f, "other interest")
	}

	var allowableBank float64
	bankFlag := types.FlagGreen
	switch {
	case oi.BankCharges <= 0.5:
		allowableBank = oi.BankCharges
	case oi.BankCharges <= 1.0:
		allowableBank = oi.BankCharges
		bankFlag = types.FlagYellow
	default:
		allowableBank = 0
		bankFlag = types.FlagRed
	}

	claimed := oi.GBIIncentive + oi.BankCharges
	allowable := allowableBank

	out := c.finding(f, claimed, allowable)
	if allowable == 0 && claimed > 0 {
		out.VariancePercent = -100
	}
	out.Steps = []types.Step{
		step("Claimed GBI", oi.GBIIncentive, "Cr"),
		note("No GBI scheme in force for the year; GBI disallowed."),
		step("Claimed bank charges", oi.BankCharges, "Cr"),
		step("Allowable bank charges", allowableBank, "Cr"),
		step("Total allowable", allowable, "Cr"),
	}

	if oi.GBIIncentive > 0 {
		out.Flag = types.FlagRed
	} else {
		out.Flag = bankFlag
	}

	var notes []string
	if oi.GBIIncentive > 0 {
		notes = append(notes, fmt.Sprintf("GBI of %.2f Cr disallowed; no scheme in force.", oi.GBIIncentive))
	}
	switch bankFlag {
	case types.FlagYellow:
		notes = append(notes, fmt.Sprintf("Bank charges of %.2f Cr are elevated; flagged for staff review.", oi.BankCharges))
	case types.FlagRed:
		notes = append(notes, fmt.Sprintf("Bank charges of %.2f Cr appear excessive; require supporting documents.", oi.BankCharges))
	}
	out.Recommendation = fmt.Sprintf("Approve %.2f Cr of %.2f Cr claimed.", out.RecommendedAmount, out.ClaimedAmount)
	if len(notes) > 0 {
		out.Recommendation += " " + joinNotes(notes)
	}
	return out, nil
}

func joinNotes(notes []string) string {
	out := notes[0]
	for _, n := range notes[1:] {
		out += " " + n
	}
	return out
}
