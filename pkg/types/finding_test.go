package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrictestFlag(t *testing.T) {
	tests := []struct {
		name  string
		flags []Flag
		want  Flag
	}{
		{"empty", nil, FlagGreen},
		{"all green", []Flag{FlagGreen, FlagGreen}, FlagGreen},
		{"yellow wins over green", []Flag{FlagGreen, FlagYellow, FlagGreen}, FlagYellow},
		{"red wins over all", []Flag{FlagYellow, FlagRed, FlagGreen}, FlagRed},
		{"unknown flag loses", []Flag{Flag("PURPLE"), FlagGreen}, FlagGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StrictestFlag(tt.flags...))
		})
	}
}

func TestFindingApprovedAmount(t *testing.T) {
	f := Finding{RecommendedAmount: 253.50}
	assert.Equal(t, 253.50, f.ApprovedAmount())

	amt := 260.0
	f.Review.ApprovedAmount = &amt
	assert.Equal(t, 260.0, f.ApprovedAmount())
}

func TestFindingEffectiveFlag(t *testing.T) {
	f := Finding{Flag: FlagRed}
	assert.Equal(t, FlagRed, f.EffectiveFlag())

	f.Review.OverrideFlag = FlagGreen
	assert.Equal(t, FlagGreen, f.EffectiveFlag())
}

func TestReviewActionApply(t *testing.T) {
	base := func() Finding {
		return Finding{
			CheckID:           "ROE-01",
			RecommendedAmount: 253.50,
			Flag:              FlagGreen,
			Primary:           true,
			Review:            StaffReview{Status: ReviewPending},
		}
	}

	t.Run("accept", func(t *testing.T) {
		f := base()
		a := ReviewAction{
			SBU: "sbu-d", Year: "2023-24", CheckID: "ROE-01",
			Action: ActionAccept, Reviewer: "Asha",
		}
		require.NoError(t, a.Apply(&f, true))
		assert.Equal(t, ReviewAccepted, f.Review.Status)
		assert.Equal(t, "Asha", f.Review.Reviewer)
		require.NotNil(t, f.Review.ReviewedAt)
	})

	t.Run("override amount requires justification", func(t *testing.T) {
		f := base()
		amt := 250.0
		a := ReviewAction{
			SBU: "sbu-d", Year: "2023-24", CheckID: "ROE-01",
			Action: ActionOverrideAmount, Reviewer: "Asha", Amount: &amt,
		}
		require.Error(t, a.Apply(&f, true))

		a.Justification = "DPR filed late, interim figure"
		require.NoError(t, a.Apply(&f, true))
		assert.Equal(t, ReviewOverridden, f.Review.Status)
		assert.Equal(t, 250.0, f.ApprovedAmount())
	})

	t.Run("override flag", func(t *testing.T) {
		f := base()
		a := ReviewAction{
			SBU: "sbu-d", Year: "2023-24", CheckID: "ROE-01",
			Action: ActionOverrideFlag, Reviewer: "Asha",
			Flag: FlagYellow, Justification: "pending audited accounts",
		}
		require.NoError(t, a.Apply(&f, true))
		assert.Equal(t, FlagYellow, f.EffectiveFlag())
		// computed flag untouched
		assert.Equal(t, FlagGreen, f.Flag)
	})

	t.Run("remark rejected on primary", func(t *testing.T) {
		f := base()
		a := ReviewAction{
			SBU: "sbu-d", Year: "2023-24", CheckID: "ROE-01",
			Action: ActionRemark, Reviewer: "Asha", Justification: "noted",
		}
		require.Error(t, a.Apply(&f, true))
	})

	t.Run("remark on assessment finding", func(t *testing.T) {
		f := base()
		f.Primary = false
		a := ReviewAction{
			SBU: "sbu-d", Year: "2023-24", CheckID: "ROE-01",
			Action: ActionRemark, Reviewer: "Asha", Justification: "loss target met",
		}
		require.NoError(t, a.Apply(&f, true))
		assert.Equal(t, ReviewAccepted, f.Review.Status)
		assert.Equal(t, "loss target met", f.Review.Justification)
	})

	t.Run("reset clears state", func(t *testing.T) {
		f := base()
		now := time.Now().UTC()
		f.Review = StaffReview{
			Status: ReviewOverridden, OverrideFlag: FlagYellow,
			Reviewer: "Asha", ReviewedAt: &now,
		}
		a := ReviewAction{
			SBU: "sbu-d", Year: "2023-24", CheckID: "ROE-01",
			Action: ActionReset, Reviewer: "admin",
		}
		require.NoError(t, a.Apply(&f, true))
		assert.Equal(t, ReviewPending, f.Review.Status)
		assert.Empty(t, f.Review.Reviewer)
	})

	t.Run("missing reviewer", func(t *testing.T) {
		f := base()
		a := ReviewAction{SBU: "sbu-d", Year: "2023-24", CheckID: "ROE-01", Action: ActionAccept}
		require.Error(t, a.Apply(&f, true))
	})
}
