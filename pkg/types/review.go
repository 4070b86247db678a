package types

import (
	"fmt"
	"time"
)

// ReviewActionType is the kind of action a reviewer took on a finding.
type ReviewActionType string

const (
	// ActionAccept accepts the recommendation as-is.
	ActionAccept ReviewActionType = "accept"
	// ActionOverrideFlag replaces the computed flag.
	ActionOverrideFlag ReviewActionType = "override_flag"
	// ActionOverrideAmount replaces the recommended amount.
	ActionOverrideAmount ReviewActionType = "override_amount"
	// ActionRemark attaches a note to a non-primary finding without
	// changing the recommendation.
	ActionRemark ReviewActionType = "remark"
	// ActionReset clears review state back to pending. Admin only.
	ActionReset ReviewActionType = "reset"
)

// ReviewAction is one entry of the review audit trail.
type ReviewAction struct {
	SBU     string `json:"sbu"`
	Year    string `json:"year"`
	CheckID string `json:"checkID"`

	Action        ReviewActionType `json:"action"`
	Reviewer      string           `json:"reviewer"`
	Justification string           `json:"justification,omitempty"`
	Flag          Flag             `json:"flag,omitempty"`
	Amount        *float64         `json:"amount,omitempty"`
	At            time.Time        `json:"at"`
}

// Validate checks that the action carries what its type requires.
func (a ReviewAction) Validate() error {
	if a.SBU == "" || a.Year == "" || a.CheckID == "" {
		return fmt.Errorf("review action missing sbu/year/checkID")
	}
	if a.Reviewer == "" {
		return fmt.Errorf("review action missing reviewer")
	}
	switch a.Action {
	case ActionAccept, ActionRemark, ActionReset:
	case ActionOverrideFlag:
		if !a.Flag.Valid() {
			return fmt.Errorf("override_flag requires a valid flag, got %q", a.Flag)
		}
	case ActionOverrideAmount:
		if a.Amount == nil {
			return fmt.Errorf("override_amount requires an amount")
		}
	default:
		return fmt.Errorf("unknown review action %q", a.Action)
	}
	return nil
}

// Apply applies the action to a finding's review state.
// requireJustification rejects overrides and remarks without one.
func (a ReviewAction) Apply(f *Finding, requireJustification bool) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if f.CheckID != a.CheckID {
		return fmt.Errorf("action for %s applied to finding %s", a.CheckID, f.CheckID)
	}
	at := a.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	switch a.Action {
	case ActionAccept:
		f.Review.Status = ReviewAccepted
	case ActionOverrideFlag:
		if requireJustification && a.Justification == "" {
			return fmt.Errorf("flag override requires a justification")
		}
		f.Review.Status = ReviewOverridden
		f.Review.OverrideFlag = a.Flag
	case ActionOverrideAmount:
		if requireJustification && a.Justification == "" {
			return fmt.Errorf("amount override requires a justification")
		}
		f.Review.Status = ReviewOverridden
		amt := *a.Amount
		f.Review.ApprovedAmount = &amt
	case ActionRemark:
		if f.Primary {
			return fmt.Errorf("remark only applies to non-primary findings, %s is primary", f.CheckID)
		}
		if a.Justification == "" {
			return fmt.Errorf("remark requires a note")
		}
		f.Review.Status = ReviewAccepted
	case ActionReset:
		f.Review = StaffReview{Status: ReviewPending}
		return nil
	}

	if a.Justification != "" {
		f.Review.Justification = a.Justification
	}
	f.Review.Reviewer = a.Reviewer
	f.Review.ReviewedAt = &at
	return nil
}
