package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trueup/trueup/pkg/types"
)

func TestFirestoreProvider(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	// Use a random database for isolation
	randDB := fmt.Sprintf("test-db-%d", time.Now().UnixNano())
	f := &FirestoreProvider{
		projectID: "test-project-id",
		database:  randDB,
	}

	ctx := context.Background()
	require.NoError(t, f.Init(ctx))
	defer f.Close()

	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, f.Validate())
	})

	t.Run("Filing", func(t *testing.T) {
		_, err := f.GetFiling(ctx, "SBU-D", "2023-24")
		assert.ErrorIs(t, err, ErrFilingNotFound)

		filing := &types.Filing{
			SBU:  "SBU-D",
			Year: "2023-24",
			LineItems: []types.LineItemClaim{
				{Key: types.ItemROE, ClaimedAmount: 253.50},
			},
			Equity: &types.EquityData{OpeningEquity: 1810.73, ROERatePct: 14},
		}
		require.NoError(t, f.SetFiling(ctx, filing))

		got, err := f.GetFiling(ctx, "SBU-D", "2023-24")
		require.NoError(t, err)
		assert.Equal(t, filing, got)
	})

	t.Run("EmptyKey", func(t *testing.T) {
		_, err := f.GetFiling(ctx, "", "2023-24")
		assert.ErrorContains(t, err, "cannot be empty")
	})

	t.Run("Findings", func(t *testing.T) {
		findings := []types.Finding{
			{
				CheckID: "ROE-01", SBU: "SBU-D", Year: "2023-24", LineItem: types.ItemROE,
				RecommendedAmount: 253.50, Flag: types.FlagGreen,
				OutputType: types.OutputApprovedAmount, Primary: true,
				Review: types.StaffReview{Status: types.ReviewPending},
			},
			{
				CheckID: "DEP-GEN-01", SBU: "SBU-D", Year: "2023-24", LineItem: types.ItemDepreciation,
				RecommendedAmount: 307.66, Flag: types.FlagGreen,
				OutputType: types.OutputApprovedAmount, Primary: true,
				Review: types.StaffReview{Status: types.ReviewPending},
			},
		}
		require.NoError(t, f.SetFindings(ctx, "SBU-D", "2023-24", findings))

		got, err := f.GetFindings(ctx, "SBU-D", "2023-24")
		require.NoError(t, err)
		assert.Len(t, got, 2)

		_, err = f.GetFinding(ctx, "SBU-D", "2023-24", "NOPE-01")
		assert.ErrorIs(t, err, ErrFindingNotFound)

		fd := findings[0]
		fd.Review.Status = types.ReviewAccepted
		require.NoError(t, f.SetFinding(ctx, fd))
		single, err := f.GetFinding(ctx, "SBU-D", "2023-24", "ROE-01")
		require.NoError(t, err)
		assert.Equal(t, types.ReviewAccepted, single.Review.Status)
	})

	t.Run("Reviews", func(t *testing.T) {
		base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
		actions := []types.ReviewAction{
			{SBU: "SBU-D", Year: "2023-24", CheckID: "ROE-01", Action: types.ActionAccept, Reviewer: "a@kserc.example", At: base},
			{SBU: "SBU-D", Year: "2023-24", CheckID: "DEP-GEN-01", Action: types.ActionAccept, Reviewer: "a@kserc.example", At: base.Add(time.Hour)},
		}
		for _, a := range actions {
			require.NoError(t, f.InsertReview(ctx, a))
		}

		got, err := f.GetReviews(ctx, "SBU-D", "2023-24", "ROE-01")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ROE-01", got[0].CheckID)

		all, err := f.GetReviews(ctx, "SBU-D", "2023-24", "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Settings", func(t *testing.T) {
		settings := types.Settings{
			GreenVariancePct:  2,
			YellowVariancePct: 5,
			RoundingTolerance: 0.01,
		}
		require.NoError(t, f.SetSettings(ctx, settings, 2))

		got, version, err := f.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, version)
		assert.Equal(t, settings.GreenVariancePct, got.GreenVariancePct)
		assert.Equal(t, settings.RoundingTolerance, got.RoundingTolerance)
	})
}
