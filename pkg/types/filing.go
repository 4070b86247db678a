package types

import "fmt"

// Pattern describes how a line item maps onto checks.
type Pattern string

const (
	// PatternSingle means one check produces the approved amount.
	PatternSingle Pattern = "single"
	// PatternMulti means several checks contribute; primary
	// approved-amount findings are summed.
	PatternMulti Pattern = "multi"
	// PatternNone means the amount was approved upstream (inter-SBU
	// transfer charges) and is not re-evaluated here.
	PatternNone Pattern = "none"
)

// Line item keys used across filings, checks and the catalogue.
const (
	ItemSBUGTransfer  = "sbu_g_transfer"
	ItemPowerPurchase = "power_purchase"
	ItemSBUTTransfer  = "sbu_t_transfer"
	ItemIFC           = "ifc"
	ItemMTAdditional  = "mt_additional"
	ItemDepreciation  = "depreciation"
	ItemOMExpenses    = "om_expenses"
	ItemPayRevision   = "pay_revision"
	ItemROE           = "roe"
	ItemOtherExpenses = "other_expenses"
	ItemExceptional   = "exceptional_items"
	ItemTDLossSharing = "td_loss_sharing"
	ItemIntangibles   = "intangible_assets"
	ItemBondRepayment = "bond_repayment"
	ItemNTI           = "nti"
)

// LineItemClaim is a line item row of a filing: the utility's claim and,
// for PatternNone items, the externally approved amount.
type LineItemClaim struct {
	Key              string  `json:"key" yaml:"key"`
	ClaimedAmount    float64 `json:"claimedAmount" yaml:"claimedAmount"`
	ExternalApproved float64 `json:"externalApproved,omitempty" yaml:"externalApproved,omitempty"`
}

// NamedAmount is a labelled amount used for itemized side-tables
// (non-tariff income exclusions, power purchase sources and the like).
type NamedAmount struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// EquityData feeds the return-on-equity check.
type EquityData struct {
	OpeningEquity float64 `json:"openingEquity" yaml:"openingEquity"`
	Infusion      float64 `json:"infusion" yaml:"infusion"`
	ROERatePct    float64 `json:"roeRatePct" yaml:"roeRatePct"`
}

// DepreciationData splits the gross fixed assets into the pre-2005
// bucket (depreciated at the pre-2005 weighted rate) and the post-2005
// bucket (averaged over the year).
type DepreciationData struct {
	Pre2005GFA      float64 `json:"pre2005GFA" yaml:"pre2005GFA"`
	Pre2005Land     float64 `json:"pre2005Land" yaml:"pre2005Land"`
	Pre2005Grants   float64 `json:"pre2005Grants" yaml:"pre2005Grants"`
	Pre2005RatePct  float64 `json:"pre2005RatePct" yaml:"pre2005RatePct"`
	PostOpening     float64 `json:"postOpening" yaml:"postOpening"`
	PostAdditions   float64 `json:"postAdditions" yaml:"postAdditions"`
	PostWithdrawals float64 `json:"postWithdrawals" yaml:"postWithdrawals"`
	PostRatePct     float64 `json:"postRatePct" yaml:"postRatePct"`
}

// LoanData feeds the long-term loan interest check.
type LoanData struct {
	OpeningBalance float64 `json:"openingBalance" yaml:"openingBalance"`
	GFAAdditions   float64 `json:"gfaAdditions" yaml:"gfaAdditions"`
	Depreciation   float64 `json:"depreciation" yaml:"depreciation"`
	// OpeningRatePct is the effective rate on the opening portfolio.
	OpeningRatePct float64 `json:"openingRatePct" yaml:"openingRatePct"`
	// HighestRatePct is the costliest instrument in the portfolio.
	HighestRatePct  float64 `json:"highestRatePct" yaml:"highestRatePct"`
	DisputedClaims  bool    `json:"disputedClaims" yaml:"disputedClaims"`
	ClaimedInterest float64 `json:"claimedInterest" yaml:"claimedInterest"`
}

// WorkingCapitalData feeds the normative working-capital interest check.
type WorkingCapitalData struct {
	OMExpenses  float64 `json:"omExpenses" yaml:"omExpenses"`
	GFAExclLand float64 `json:"gfaExclLand" yaml:"gfaExclLand"`
	EBLRPct     float64 `json:"eblrPct" yaml:"eblrPct"`
	MarginPct   float64 `json:"marginPct" yaml:"marginPct"`
	// AvgSecurityDeposit offsets the requirement: deposits already
	// carrying interest fund working capital first.
	AvgSecurityDeposit float64 `json:"avgSecurityDeposit" yaml:"avgSecurityDeposit"`
	ClaimedInterest    float64 `json:"claimedInterest" yaml:"claimedInterest"`
}

// GPFData feeds the general provident fund interest check.
type GPFData struct {
	OpeningBalance  float64 `json:"openingBalance" yaml:"openingBalance"`
	ClosingBalance  float64 `json:"closingBalance" yaml:"closingBalance"`
	RatePct         float64 `json:"ratePct" yaml:"ratePct"`
	SBUSharePct     float64 `json:"sbuSharePct" yaml:"sbuSharePct"`
	ClaimedInterest float64 `json:"claimedInterest" yaml:"claimedInterest"`
}

// SecurityDepositData feeds the consumer security deposit interest
// check. Only the actual disbursement is allowed at truing-up; the
// provision and notional figures are carried for the working.
type SecurityDepositData struct {
	ActualDisbursement float64 `json:"actualDisbursement" yaml:"actualDisbursement"`
	Provision          float64 `json:"provision" yaml:"provision"`
	AvgDeposit         float64 `json:"avgDeposit" yaml:"avgDeposit"`
	RatePct            float64 `json:"ratePct" yaml:"ratePct"`
	MYTApproved        float64 `json:"mytApproved" yaml:"mytApproved"`
	ClaimedInterest    float64 `json:"claimedInterest" yaml:"claimedInterest"`
}

// CarryingCostData feeds the revenue-gap carrying cost check. The GPF
// balance and the excess security deposit are netted off the gap
// before interest is applied.
type CarryingCostData struct {
	UnbridgedGap   float64 `json:"unbridgedGap" yaml:"unbridgedGap"`
	AvgGPFBalance  float64 `json:"avgGPFBalance" yaml:"avgGPFBalance"`
	ExcessSDOverWC float64 `json:"excessSDOverWC" yaml:"excessSDOverWC"`
	RatePct        float64 `json:"ratePct" yaml:"ratePct"`
	MYTApproved    float64 `json:"mytApproved" yaml:"mytApproved"`
	Claimed        float64 `json:"claimed" yaml:"claimed"`
}

// OtherInterestData feeds the residual interest and finance charge checks.
type OtherInterestData struct {
	GBIIncentive   float64 `json:"gbiIncentive" yaml:"gbiIncentive"`
	BankCharges    float64 `json:"bankCharges" yaml:"bankCharges"`
	PPDuesInterest float64 `json:"ppDuesInterest" yaml:"ppDuesInterest"`
	Claimed        float64 `json:"claimed" yaml:"claimed"`
}

// MasterTrustData feeds the pension bond checks. Company-level figures
// are apportioned to the SBU by SBUSharePct.
type MasterTrustData struct {
	CompanyBondInterest float64 `json:"companyBondInterest" yaml:"companyBondInterest"`
	CompanyRepayment    float64 `json:"companyRepayment" yaml:"companyRepayment"`
	SBUSharePct         float64 `json:"sbuSharePct" yaml:"sbuSharePct"`
	ClaimedBondInterest float64 `json:"claimedBondInterest" yaml:"claimedBondInterest"`

	// Additional contribution beyond the bond coupon.
	ActuarialLiability float64 `json:"actuarialLiability" yaml:"actuarialLiability"`
	ContributionCap    float64 `json:"contributionCap" yaml:"contributionCap"`
	HasActuarialReport bool    `json:"hasActuarialReport" yaml:"hasActuarialReport"`
	HasGovtApproval    bool    `json:"hasGovtApproval" yaml:"hasGovtApproval"`
}

// NonTariffIncomeData feeds the non-tariff income check.
type NonTariffIncomeData struct {
	BaseIncome  float64       `json:"baseIncome" yaml:"baseIncome"`
	Exclusions  []NamedAmount `json:"exclusions,omitempty" yaml:"exclusions,omitempty"`
	Additions   []NamedAmount `json:"additions,omitempty" yaml:"additions,omitempty"`
	MYTApproved float64       `json:"mytApproved" yaml:"mytApproved"`
}

// PowerPurchaseData feeds the power purchase cost check. Sources hold
// the source-wise approved detail for drill-down; the allowable cost
// is their sum.
type PowerPurchaseData struct {
	Sources     []NamedAmount `json:"sources,omitempty" yaml:"sources,omitempty"`
	Disallowed  []NamedAmount `json:"disallowed,omitempty" yaml:"disallowed,omitempty"`
	EnergyMU    float64       `json:"energyMU" yaml:"energyMU"`
	MYTApproved float64       `json:"mytApproved" yaml:"mytApproved"`
}

// OMNormsData feeds the normative O&M check: physical network
// parameters, the per-unit norms and the R&M asset base.
type OMNormsData struct {
	Consumers       float64 `json:"consumers" yaml:"consumers"`
	DTRs            float64 `json:"dtrs" yaml:"dtrs"`
	HTLineKm        float64 `json:"htLineKm" yaml:"htLineKm"`
	LTLineKm        float64 `json:"ltLineKm" yaml:"ltLineKm"`
	EnergyHandledMU float64 `json:"energyHandledMU" yaml:"energyHandledMU"`

	// Norms in Rs Lakh per unit of the matching parameter.
	NormPerKConsumers float64 `json:"normPerKConsumers" yaml:"normPerKConsumers"`
	NormPerDTR        float64 `json:"normPerDTR" yaml:"normPerDTR"`
	NormPerHTKm       float64 `json:"normPerHTKm" yaml:"normPerHTKm"`
	NormPerLTKm       float64 `json:"normPerLTKm" yaml:"normPerLTKm"`
	NormPerMU         float64 `json:"normPerMU" yaml:"normPerMU"`

	RMGrossBlock   float64 `json:"rmGrossBlock" yaml:"rmGrossBlock"`
	RMDerecognized float64 `json:"rmDerecognized" yaml:"rmDerecognized"`
	RMLandValue    float64 `json:"rmLandValue" yaml:"rmLandValue"`
	RMRatePct      float64 `json:"rmRatePct" yaml:"rmRatePct"`

	// Claimed split of the line item total, for the working.
	EmployeeClaimed float64 `json:"employeeClaimed" yaml:"employeeClaimed"`
	RMClaimed       float64 `json:"rmClaimed" yaml:"rmClaimed"`
	MYTApproved     float64 `json:"mytApproved" yaml:"mytApproved"`
}

// InflationData feeds the weighted inflation index check used to
// escalate O&M norms. Old is the prior-year index, New the current.
type InflationData struct {
	CPIOld    float64 `json:"cpiOld" yaml:"cpiOld"`
	CPINew    float64 `json:"cpiNew" yaml:"cpiNew"`
	WPIOld    float64 `json:"wpiOld" yaml:"wpiOld"`
	WPINew    float64 `json:"wpiNew" yaml:"wpiNew"`
	CPIWeight float64 `json:"cpiWeight" yaml:"cpiWeight"`
	WPIWeight float64 `json:"wpiWeight" yaml:"wpiWeight"`
}

// PayRevisionData feeds the pay revision prudence check.
type PayRevisionData struct {
	ClaimedArrears    float64 `json:"claimedArrears" yaml:"claimedArrears"`
	NormativeWageBase float64 `json:"normativeWageBase" yaml:"normativeWageBase"`
	ActualWageExpense float64 `json:"actualWageExpense" yaml:"actualWageExpense"`
	RevisionEffective bool    `json:"revisionEffective" yaml:"revisionEffective"`
	GovtOrderRef      string  `json:"govtOrderRef,omitempty" yaml:"govtOrderRef,omitempty"`
}

// EnergyBalanceData feeds the distribution loss assessment.
type EnergyBalanceData struct {
	InputMU                 float64 `json:"inputMU" yaml:"inputMU"`
	SalesMU                 float64 `json:"salesMU" yaml:"salesMU"`
	CollectionEfficiencyPct float64 `json:"collectionEfficiencyPct" yaml:"collectionEfficiencyPct"`
	TargetLossPct           float64 `json:"targetLossPct" yaml:"targetLossPct"`
	TargetATCPct            float64 `json:"targetATCPct" yaml:"targetATCPct"`
}

// LossSharingData feeds the T&D gain sharing check. ActualLossPct is
// the commission-assessed loss, which can differ from the figure the
// utility claimed.
type LossSharingData struct {
	TargetLossPct   float64 `json:"targetLossPct" yaml:"targetLossPct"`
	ActualLossPct   float64 `json:"actualLossPct" yaml:"actualLossPct"`
	ClaimedLossPct  float64 `json:"claimedLossPct" yaml:"claimedLossPct"`
	PrevYearLossPct float64 `json:"prevYearLossPct" yaml:"prevYearLossPct"`
	SalesMU         float64 `json:"salesMU" yaml:"salesMU"`
	PPCostPerUnit   float64 `json:"ppCostPerUnit" yaml:"ppCostPerUnit"`
	UtilitySharePct float64 `json:"utilitySharePct" yaml:"utilitySharePct"`
	UnbridgedGap    float64 `json:"unbridgedGap" yaml:"unbridgedGap"`
}

// OtherExpensesData feeds the other-expense scrutiny check.
type OtherExpensesData struct {
	CashDiscount       float64 `json:"cashDiscount" yaml:"cashDiscount"`
	FloodExpense       float64 `json:"floodExpense" yaml:"floodExpense"`
	FloodDocumented    bool    `json:"floodDocumented" yaml:"floodDocumented"`
	WriteOffs          float64 `json:"writeOffs" yaml:"writeOffs"`
	WriteOffsAppellate bool    `json:"writeOffsAppellate" yaml:"writeOffsAppellate"`
}

// ExceptionalData feeds the exceptional items check.
type ExceptionalData struct {
	CalamityExpense     float64 `json:"calamityExpense" yaml:"calamityExpense"`
	SeparateAccountCode bool    `json:"separateAccountCode" yaml:"separateAccountCode"`
	Documented          bool    `json:"documented" yaml:"documented"`
	GovtLossTakeover    float64 `json:"govtLossTakeover" yaml:"govtLossTakeover"`
}

// IntangibleData feeds the intangible asset amortization check.
type IntangibleData struct {
	Software            float64 `json:"software" yaml:"software"`
	SoftwareDocumented  bool    `json:"softwareDocumented" yaml:"softwareDocumented"`
	SoftwareBeyondNorms bool    `json:"softwareBeyondNorms" yaml:"softwareBeyondNorms"`
	OtherIntangibles    float64 `json:"otherIntangibles" yaml:"otherIntangibles"`
	OtherDocumented     bool    `json:"otherDocumented" yaml:"otherDocumented"`
}

// PublishedTotals holds the order's published totals the aggregation is
// reconciled against.
type PublishedTotals struct {
	GrossARR float64 `json:"grossARR" yaml:"grossARR"`
	NetARR   float64 `json:"netARR" yaml:"netARR"`
	Revenue  float64 `json:"revenue" yaml:"revenue"`
	Gap      float64 `json:"gap" yaml:"gap"`
}

// Filing is the structured dataset extracted from one truing-up
// petition for one SBU and year. Sections an SBU does not file are nil;
// checks fail with an explicit error when their section is missing.
type Filing struct {
	SBU  string `json:"sbu" yaml:"sbu"`
	Year string `json:"year" yaml:"year"`

	LineItems []LineItemClaim `json:"lineItems" yaml:"lineItems"`

	Equity          *EquityData          `json:"equity,omitempty" yaml:"equity,omitempty"`
	Depreciation    *DepreciationData    `json:"depreciation,omitempty" yaml:"depreciation,omitempty"`
	LongTermLoans   *LoanData            `json:"longTermLoans,omitempty" yaml:"longTermLoans,omitempty"`
	WorkingCapital  *WorkingCapitalData  `json:"workingCapital,omitempty" yaml:"workingCapital,omitempty"`
	GPF             *GPFData             `json:"gpf,omitempty" yaml:"gpf,omitempty"`
	SecurityDeposit *SecurityDepositData `json:"securityDeposit,omitempty" yaml:"securityDeposit,omitempty"`
	CarryingCost    *CarryingCostData    `json:"carryingCost,omitempty" yaml:"carryingCost,omitempty"`
	OtherInterest   *OtherInterestData   `json:"otherInterest,omitempty" yaml:"otherInterest,omitempty"`
	MasterTrust     *MasterTrustData     `json:"masterTrust,omitempty" yaml:"masterTrust,omitempty"`
	NonTariffIncome *NonTariffIncomeData `json:"nonTariffIncome,omitempty" yaml:"nonTariffIncome,omitempty"`
	PowerPurchase   *PowerPurchaseData   `json:"powerPurchase,omitempty" yaml:"powerPurchase,omitempty"`
	OMNorms         *OMNormsData         `json:"omNorms,omitempty" yaml:"omNorms,omitempty"`
	Inflation       *InflationData       `json:"inflation,omitempty" yaml:"inflation,omitempty"`
	PayRevision     *PayRevisionData     `json:"payRevision,omitempty" yaml:"payRevision,omitempty"`
	EnergyBalance   *EnergyBalanceData   `json:"energyBalance,omitempty" yaml:"energyBalance,omitempty"`
	LossSharing     *LossSharingData     `json:"lossSharing,omitempty" yaml:"lossSharing,omitempty"`
	OtherExpenses   *OtherExpensesData   `json:"otherExpenses,omitempty" yaml:"otherExpenses,omitempty"`
	Exceptional     *ExceptionalData     `json:"exceptional,omitempty" yaml:"exceptional,omitempty"`
	Intangibles     *IntangibleData      `json:"intangibles,omitempty" yaml:"intangibles,omitempty"`

	Published *PublishedTotals `json:"published,omitempty" yaml:"published,omitempty"`
}

// Claim returns the line item claim for the given key.
func (f *Filing) Claim(key string) (LineItemClaim, error) {
	for _, li := range f.LineItems {
		if li.Key == key {
			return li, nil
		}
	}
	return LineItemClaim{}, fmt.Errorf("filing %s/%s has no line item %q", f.SBU, f.Year, key)
}

// ClaimedAmount returns the claimed amount for the given line item key,
// or 0 if the filing does not carry the item.
func (f *Filing) ClaimedAmount(key string) float64 {
	li, err := f.Claim(key)
	if err != nil {
		return 0
	}
	return li.ClaimedAmount
}

// Validate checks the identifying fields of a filing.
func (f *Filing) Validate() error {
	if f.SBU == "" {
		return fmt.Errorf("filing missing sbu")
	}
	if f.Year == "" {
		return fmt.Errorf("filing missing year")
	}
	if len(f.LineItems) == 0 {
		return fmt.Errorf("filing %s/%s has no line items", f.SBU, f.Year)
	}
	seen := make(map[string]bool, len(f.LineItems))
	for _, li := range f.LineItems {
		if li.Key == "" {
			return fmt.Errorf("filing %s/%s has a line item without a key", f.SBU, f.Year)
		}
		if seen[li.Key] {
			return fmt.Errorf("filing %s/%s repeats line item %q", f.SBU, f.Year, li.Key)
		}
		seen[li.Key] = true
	}
	return nil
}
