// Package storage persists filings, findings, review actions and
// settings behind a provider interface.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/levenlabs/go-lflag"
	"github.com/trueup/trueup/pkg/types"
)

var (
	ErrFilingNotFound  = errors.New("filing not found")
	ErrFindingNotFound = errors.New("finding not found")
)

// Database defines the interface for persisting review data and
// retrieving settings.
type Database interface {
	// Filings
	GetFiling(ctx context.Context, sbu, year string) (*types.Filing, error)
	SetFiling(ctx context.Context, filing *types.Filing) error

	// Findings
	// SetFindings replaces the stored findings of a filing; it is used
	// after a fresh assessment.
	SetFindings(ctx context.Context, sbu, year string, findings []types.Finding) error
	GetFindings(ctx context.Context, sbu, year string) ([]types.Finding, error)
	GetFinding(ctx context.Context, sbu, year, checkID string) (types.Finding, error)
	// SetFinding updates a single finding, usually its review state.
	SetFinding(ctx context.Context, finding types.Finding) error

	// Review audit trail
	InsertReview(ctx context.Context, action types.ReviewAction) error
	// GetReviews returns the audit trail for a check, oldest first.
	// An empty checkID returns the whole filing's trail.
	GetReviews(ctx context.Context, sbu, year, checkID string) ([]types.ReviewAction, error)

	// Settings
	GetSettings(ctx context.Context) (types.Settings, int, error)
	SetSettings(ctx context.Context, settings types.Settings, version int) error

	// Lifecycle
	Close() error
}

// Configured sets up the storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore, postgres)")

	var p struct{ Database }

	fs := configuredFirestore()
	pg := configuredPostgres()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		case "postgres":
			if err := pg.Validate(); err != nil {
				panic(fmt.Sprintf("postgres validation failed: %v", err))
			}
			p.Database = pg
			if err := pg.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("postgres init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
