package check

import (
	"fmt"

	"github.com/trueup/trueup/pkg/types"
)

// Check evaluates one scrutiny rule against a filing and produces a
// finding. Checks are pure: they read the filing and return a result,
// they never mutate state.
type Check interface {
	// ID returns the stable check identifier, e.g. "ROE-01".
	ID() string

	// Name returns the human readable check name.
	Name() string

	// LineItem returns the key of the line item the check belongs to.
	LineItem() string

	// Primary reports whether the check's finding carries money for
	// its line item, as opposed to an attached assessment.
	Primary() bool

	// Evaluate runs the check against the filing. It returns an error
	// if the filing does not carry the section the check needs.
	Evaluate(f *types.Filing) (types.Finding, error)
}

// meta carries the static identity of a check and is embedded in every
// check implementation.
type meta struct {
	id        string
	name      string
	lineItem  string
	basis     string
	output    types.OutputType
	primary   bool
	dependsOn []string
}

func (m meta) ID() string       { return m.id }
func (m meta) Name() string     { return m.name }
func (m meta) LineItem() string { return m.lineItem }
func (m meta) Primary() bool    { return m.primary }

// missing returns the error for a filing that lacks the section the
// check reads.
func (m meta) missing(f *types.Filing, section string) error {
	return fmt.Errorf("%s: filing %s/%s has no %s data", m.id, f.SBU, f.Year, section)
}

// finding builds the base finding for the check with the standard
// variance convention: variance = claimed - allowable, percentage
// relative to the allowable. Callers fill in the flag, recommendation
// and steps, and may adjust the variance fields where a check uses a
// different convention.
func (m meta) finding(f *types.Filing, claimed, allowable float64) types.Finding {
	varAbs := claimed - allowable
	return types.Finding{
		CheckID:           m.id,
		CheckName:         m.name,
		SBU:               f.SBU,
		Year:              f.Year,
		LineItem:          m.lineItem,
		ClaimedAmount:     round2(claimed),
		AllowableAmount:   round2(allowable),
		VarianceAbsolute:  round2(varAbs),
		VariancePercent:   round2(variancePct(varAbs, allowable, claimed)),
		RecommendedAmount: round2(allowable),
		RegulatoryBasis:   m.basis,
		OutputType:        m.output,
		Primary:           m.primary,
		DependsOn:         m.dependsOn,
		Review:            types.StaffReview{Status: types.ReviewPending},
	}
}
