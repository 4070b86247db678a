package types

// CurrentSettingsVersion is the current version of the settings struct.
// Increment this value when adding new fields that require default values.
const CurrentSettingsVersion = 3

// Settings represents the review configuration stored in the database.
// These are dynamic settings that can be changed without redeploying.
type Settings struct {
	// DryRun disables persisting review actions (findings are still
	// computed and returned).
	DryRun bool `json:"dryRun"`

	// Default variance bands (percent of claimed) used by checks that
	// do not carry their own thresholds.
	GreenVariancePct  float64 `json:"greenVariancePct"`
	YellowVariancePct float64 `json:"yellowVariancePct"`

	// Aggregation reconciliation against the published totals.
	// Differences at or under RoundingTolerance pass; at or under
	// RoundingWarn they warn; above that they fail.
	RoundingTolerance float64 `json:"roundingTolerance"`
	RoundingWarn      float64 `json:"roundingWarn"`

	// Emails allowed to submit review actions. Empty means any
	// authenticated user may review.
	ReviewerEmails []string `json:"reviewerEmails,omitempty"`

	// RequireJustification rejects overrides without a justification.
	RequireJustification bool `json:"requireJustification"`
}

// ReviewerAllowed reports whether the given email may submit review
// actions under these settings.
func (s Settings) ReviewerAllowed(email string) bool {
	if len(s.ReviewerEmails) == 0 {
		return true
	}
	for _, e := range s.ReviewerEmails {
		if e == email {
			return true
		}
	}
	return false
}

// MigrateSettings migrates the settings to the current version.
// It returns the migrated settings, a boolean indicating if changes were made, and an error if migration failed.
func MigrateSettings(s Settings, currentVersion int) (Settings, bool, error) {
	if currentVersion >= CurrentSettingsVersion {
		return s, false, nil
	}

	migrated := false
	// Loop through versions to apply migrations sequentially
	for version := currentVersion + 1; version <= CurrentSettingsVersion; version++ {
		switch version {
		case 1:
			// version 1: initial
			if s.GreenVariancePct == 0 {
				s.GreenVariancePct = 2
				migrated = true
			}
			if s.YellowVariancePct == 0 {
				s.YellowVariancePct = 5
				migrated = true
			}
		case 2:
			// version 2: add rounding reconciliation bands
			if s.RoundingTolerance == 0 {
				s.RoundingTolerance = 0.01
				migrated = true
			}
			if s.RoundingWarn == 0 {
				s.RoundingWarn = 0.5
				migrated = true
			}
		case 3:
			// version 3: overrides must be justified
			if !s.RequireJustification {
				s.RequireJustification = true
				migrated = true
			}
		}
	}

	return s, migrated, nil
}
