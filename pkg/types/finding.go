package types

import (
	"fmt"
	"time"
)

// Flag is the scrutiny outcome of a check.
type Flag string

const (
	FlagGreen  Flag = "GREEN"
	FlagYellow Flag = "YELLOW"
	FlagRed    Flag = "RED"
)

// Severity orders flags from least to most severe. Unknown flags sort
// below GREEN so a zero value never wins a rollup.
func (f Flag) Severity() int {
	switch f {
	case FlagGreen:
		return 1
	case FlagYellow:
		return 2
	case FlagRed:
		return 3
	}
	return 0
}

func (f Flag) Valid() bool {
	return f == FlagGreen || f == FlagYellow || f == FlagRed
}

// StrictestFlag returns the most severe flag of the given flags. It
// returns GREEN when called with no flags.
func StrictestFlag(flags ...Flag) Flag {
	out := FlagGreen
	for _, f := range flags {
		if f.Severity() > out.Severity() {
			out = f
		}
	}
	return out
}

// ReviewStatus is the staff review state of a finding.
type ReviewStatus string

const (
	ReviewPending    ReviewStatus = "Pending"
	ReviewAccepted   ReviewStatus = "Accepted"
	ReviewOverridden ReviewStatus = "Overridden"
)

// OutputType describes what a check's allowable value represents.
// Assessment, calculated-value and prudence outputs carry percentages
// or judgments rather than money.
type OutputType string

const (
	OutputApprovedAmount  OutputType = "approved_amount"
	OutputAssessment      OutputType = "assessment"
	OutputCalculatedValue OutputType = "calculated_value"
	OutputPassThrough     OutputType = "pass_through"
	OutputNormative       OutputType = "normative"
	OutputMixed           OutputType = "mixed"
	OutputConditional     OutputType = "conditional"
	OutputPrudenceCheck   OutputType = "prudence_check"
	OutputDiscretionary   OutputType = "discretionary"
)

// Step is one row of a check's calculation trail. Values are in Rs
// Crore unless Unit says otherwise.
type Step struct {
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit,omitempty"`
}

// StaffReview holds the mutable review state attached to a finding.
type StaffReview struct {
	Status ReviewStatus `json:"status"`
	// OverrideFlag replaces the computed flag when set.
	OverrideFlag Flag `json:"overrideFlag,omitempty"`
	// ApprovedAmount replaces the recommended amount when set.
	ApprovedAmount *float64   `json:"approvedAmount,omitempty"`
	Justification  string     `json:"justification,omitempty"`
	Reviewer       string     `json:"reviewer,omitempty"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
}

// Finding is the result of one check over one filing.
type Finding struct {
	CheckID   string `json:"checkID"`
	CheckName string `json:"checkName"`
	SBU       string `json:"sbu"`
	Year      string `json:"year"`
	LineItem  string `json:"lineItem"`

	// Amounts are Rs Crore.
	ClaimedAmount     float64 `json:"claimedAmount"`
	AllowableAmount   float64 `json:"allowableAmount"`
	VarianceAbsolute  float64 `json:"varianceAbsolute"`
	VariancePercent   float64 `json:"variancePercent"`
	Flag              Flag    `json:"flag"`
	RecommendedAmount float64 `json:"recommendedAmount"`
	Recommendation    string  `json:"recommendation"`
	RegulatoryBasis   string  `json:"regulatoryBasis"`
	Steps             []Step  `json:"steps,omitempty"`

	OutputType OutputType `json:"outputType"`
	// Primary findings carry money and gate aggregation; non-primary
	// findings are assessments attached to a line item.
	Primary   bool     `json:"primary"`
	DependsOn []string `json:"dependsOn,omitempty"`

	Review StaffReview `json:"review"`
}

// ApprovedAmount returns the staff-approved amount if one was set,
// otherwise the check's recommended amount.
func (f Finding) ApprovedAmount() float64 {
	if f.Review.ApprovedAmount != nil {
		return *f.Review.ApprovedAmount
	}
	return f.RecommendedAmount
}

// EffectiveFlag returns the staff override flag if one was set,
// otherwise the computed flag.
func (f Finding) EffectiveFlag() Flag {
	if f.Review.OverrideFlag.Valid() {
		return f.Review.OverrideFlag
	}
	return f.Flag
}

// Reviewed reports whether staff have acted on the finding.
func (f Finding) Reviewed() bool {
	return f.Review.Status == ReviewAccepted || f.Review.Status == ReviewOverridden
}

// Validate checks the fields every stored finding must carry.
func (f Finding) Validate() error {
	if f.CheckID == "" {
		return fmt.Errorf("finding missing checkID")
	}
	if f.SBU == "" || f.Year == "" {
		return fmt.Errorf("finding %s missing sbu/year", f.CheckID)
	}
	if !f.Flag.Valid() {
		return fmt.Errorf("finding %s has invalid flag %q", f.CheckID, f.Flag)
	}
	if f.OutputType == "" {
		return fmt.Errorf("finding %s missing output type", f.CheckID)
	}
	return nil
}
