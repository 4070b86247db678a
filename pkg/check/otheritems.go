package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// otherExpenses scrutinizes the residual operating expenses: the
// advance-payment discount to consumers, calamity losses and
// miscellaneous write-offs. Each component stands or falls on its own
// documentation and the worst component flag wins.
type otherExpenses struct {
	meta
}

func newOtherExpenses() *otherExpenses {
	return &otherExpenses{meta{
		id:       "OTHER-EXP-01",
		name:     "Other Expenses",
		lineItem: types.ItemOtherExpenses,
		basis:    "Note 38 of audited accounts; Prudence check on operational expenses; Prior period adjustments per appeal authority directions",
		output:   types.OutputMixed,
		primary:  true,
	}}
}

func (c *otherExpenses) Evaluate(f *types.Filing) (types.Finding, error) {
	oe := f.OtherExpenses
	if oe == nil {
		return types.Finding{}, c.missing(f, "other expenses")
	}

	var flags []types.Flag
	var notes []string

	allowableDiscount := oe.CashDiscount
	if oe.CashDiscount > 0 {
		notes = append(notes, fmt.Sprintf("Discount to consumers (%.2f Cr) approved; it benefits both licensee and consumers.", oe.CashDiscount))
	}

	var allowableFlood float64
	if oe.FloodDocumented {
		allowableFlood = oe.FloodExpense
		if oe.FloodExpense > 0 {
			notes = append(notes, fmt.Sprintf("Calamity losses (%.2f Cr) approved against verified documentation.", oe.FloodExpense))
		}
	} else if oe.FloodExpense > 0 {
		flags = append(flags, types.FlagYellow)
		notes = append(notes, fmt.Sprintf("Calamity losses (%.2f Cr) require supporting documentation.", oe.FloodExpense))
	}

	var allowableWriteoffs float64
	if oe.WriteOffsAppellate {
		allowableWriteoffs = oe.WriteOffs
		if oe.WriteOffs > 0 {
			notes = append(notes, fmt.Sprintf("Write-offs (%.2f Cr) approved per appeal authority orders.", oe.WriteOffs))
		}
	} else if oe.WriteOffs > 0 {
		flags = append(flags, types.FlagYellow)
		notes = append(notes, fmt.Sprintf("Write-offs (%.2f Cr) require appeal authority orders or error documentation.", oe.WriteOffs))
	}

	allowable := allowableDiscount + allowableFlood + allowableWriteoffs
	claimed := oe.CashDiscount + oe.FloodExpense + oe.WriteOffs

	out := c.finding(f, claimed, allowable)
	out.Flag = types.StrictestFlag(flags...)
	out.Steps = []types.Step{
		step("Discount to consumers", oe.CashDiscount, "Cr"),
		step("Calamity losses claimed", oe.FloodExpense, "Cr"),
		step("Allowable calamity losses", allowableFlood, "Cr"),
		step("Write-offs claimed", oe.WriteOffs, "Cr"),
		step("Allowable write-offs", allowableWriteoffs, "Cr"),
		step("Total allowable", allowable, "Cr"),
		step("Claimed", claimed, "Cr"),
	}
	out.Recommendation = fmt.Sprintf("Approve other expenses of %.2f Cr of %.2f Cr claimed.", out.RecommendedAmount, out.ClaimedAmount)
	if len(notes) > 0 {
		out.Recommendation += " " + joinNotes(notes)
	}
	return out, nil
}

// exceptionalItems scrutinizes one-time exceptional expenses. Calamity
// restoration needs separate account coding to keep it out of the O&M
// norms; a government loss takeover is always excluded because it was
// trued up in the prior year.
type exceptionalItems struct {
	meta
}

func newExceptionalItems() *exceptionalItems {
	return &exceptionalItems{meta{
		id:       "EXC-01",
		name:     "Exceptional Items",
		lineItem: types.ItemExceptional,
		basis:    "Prudence assessment; One-time exceptional expenses; Order Para 6.101-6.106",
		output:   types.OutputDiscretionary,
		primary:  true,
	}}
}

func (c *exceptionalItems) Evaluate(f *types.Filing) (types.Finding, error) {
	ex := f.Exceptional
	if ex == nil {
		return types.Finding{}, c.missing(f, "exceptional items")
	}

	var allowableCalamity float64
	var calamityFlag types.Flag
	var notes []string
	switch {
	case ex.SeparateAccountCode && ex.Documented:
		allowableCalamity = ex.CalamityExpense
		calamityFlag = types.FlagGreen
		notes = append(notes, fmt.Sprintf("Calamity R&M (%.2f Cr) approved with separate account coding verified.", ex.CalamityExpense))
	case ex.SeparateAccountCode:
		allowableCalamity = ex.CalamityExpense
		calamityFlag = types.FlagYellow
		notes = append(notes, fmt.Sprintf("Calamity R&M (%.2f Cr) approved but requires detailed supporting documents.", ex.CalamityExpense))
	default:
		allowableCalamity = 0
		calamityFlag = types.FlagRed
		notes = append(notes, fmt.Sprintf("Calamity R&M (%.2f Cr) requires separate account codes to keep it out of normative O&M.", ex.CalamityExpense))
	}

	govtFlag := types.FlagGreen
	if ex.GovtLossTakeover != 0 {
		govtFlag = types.FlagRed
		notes = append(notes, fmt.Sprintf("Government loss takeover (%.2f Cr) excluded; it was already counted in the prior year's truing-up.", abs(ex.GovtLossTakeover)))
	}

	allowable := allowableCalamity
	claimed := ex.CalamityExpense + ex.GovtLossTakeover

	out := c.finding(f, claimed, allowable)
	out.Flag = types.StrictestFlag(calamityFlag, govtFlag)
	out.Steps = []types.Step{
		step("Calamity R&M claimed", ex.CalamityExpense, "Cr"),
		note(fmt.Sprintf("Separate account code: %t; supporting documents: %t", ex.SeparateAccountCode, ex.Documented)),
		step("Allowable calamity R&M", allowableCalamity, "Cr"),
		step("Government loss takeover claimed", ex.GovtLossTakeover, "Cr"),
		step("Allowable government loss takeover", 0, "Cr"),
		step("Total allowable", allowable, "Cr"),
	}
	out.Recommendation = fmt.Sprintf("Approve exceptional items of %.2f Cr of %.2f Cr claimed.", out.RecommendedAmount, out.ClaimedAmount)
	if len(notes) > 0 {
		out.Recommendation += " " + joinNotes(notes)
	}
	return out, nil
}

// intangibleAssets scrutinizes intangible amortization. In-house
// software capitalizes employee costs that may already sit inside the
// normative O&M allowance, so it needs proof the staff were additional
// to the norms; purchased intangibles only need their invoices.
type intangibleAssets struct {
	meta
}

func newIntangibleAssets() *intangibleAssets {
	return &intangibleAssets{meta{
		id:       "INTANG-01",
		name:     "Intangible Assets Amortization",
		lineItem: types.ItemIntangibles,
		basis:    "Regulation 49, Tariff Regulations 2021; Truing-Up Order 2023-24 (Rejection Precedent)",
		output:   types.OutputMixed,
		primary:  true,
	}}
}

func (c *intangibleAssets) Evaluate(f *types.Filing) (types.Finding, error) {
	in := f.Intangibles
	if in == nil {
		return types.Finding{}, c.missing(f, "intangibles")
	}

	var softwareAllowable float64
	softwareFlag := types.FlagGreen
	var notes []string
	if in.Software > 0 {
		switch {
		case !in.SoftwareDocumented:
			softwareFlag = types.FlagRed
			notes = append(notes, fmt.Sprintf("Software amortization (%.2f Cr) rejected; no employee list, timeline or cost breakdown provided.", in.Software))
		case !in.SoftwareBeyondNorms:
			softwareFlag = types.FlagRed
			notes = append(notes, fmt.Sprintf("Software amortization (%.2f Cr) rejected; the capitalized employee costs are likely already inside the O&M norms.", in.Software))
		default:
			softwareAllowable = in.Software
			softwareFlag = types.FlagYellow
			notes = append(notes, fmt.Sprintf("Software amortization (%.2f Cr) allowed pending verification that the staff were additional to the O&M headcount.", in.Software))
		}
	}

	var otherAllowable float64
	otherFlag := types.FlagGreen
	if in.OtherIntangibles > 0 {
		if in.OtherDocumented {
			otherAllowable = in.OtherIntangibles
			notes = append(notes, fmt.Sprintf("Purchased intangibles (%.2f Cr) approved with documentation.", in.OtherIntangibles))
		} else {
			otherAllowable = in.OtherIntangibles
			otherFlag = types.FlagYellow
			notes = append(notes, fmt.Sprintf("Purchased intangibles (%.2f Cr) allowed pending invoice verification.", in.OtherIntangibles))
		}
	}

	allowable := softwareAllowable + otherAllowable
	claimed := in.Software + in.OtherIntangibles

	out := c.finding(f, claimed, allowable)
	out.Flag = types.StrictestFlag(softwareFlag, otherFlag)
	out.Steps = []types.Step{
		step("Software amortization claimed", in.Software, "Cr"),
		note(fmt.Sprintf("Software documents: %t; staff additional to norms: %t", in.SoftwareDocumented, in.SoftwareBeyondNorms)),
		step("Allowable software amortization", softwareAllowable, "Cr"),
		step("Other intangibles claimed", in.OtherIntangibles, "Cr"),
		step("Allowable other intangibles", otherAllowable, "Cr"),
		step("Total allowable", allowable, "Cr"),
	}
	out.Recommendation = fmt.Sprintf("Approve intangible amortization of %.2f Cr of %.2f Cr claimed.", out.RecommendedAmount, out.ClaimedAmount)
	if len(notes) > 0 {
		out.Recommendation += " " + joinNotes(notes)
	}
	return out, nil
}
