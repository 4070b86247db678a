package storage

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/levenlabs/go-lflag"
	"github.com/trueup/trueup/pkg/types"
)

//go:embed schema.sql
var pgSchema string

// PostgresProvider implements the Database interface on Postgres.
// Rows carry the same JSON blob the Firestore provider stores, with a
// few extracted columns for filtering.
type PostgresProvider struct {
	pool *pgxpool.Pool
	url  string
}

// configuredPostgres sets up the Postgres provider.
// It registers flags for configuration.
func configuredPostgres() *PostgresProvider {
	url := lflag.String("postgres-url", "", "Postgres connection URL")

	p := &PostgresProvider{}

	lflag.Do(func() {
		p.url = *url
	})

	return p
}

// Validate checks if the provider is properly configured.
func (p *PostgresProvider) Validate() error {
	if p.url == "" {
		return fmt.Errorf("postgres-url is required")
	}
	return nil
}

// Init connects the pool and applies the schema.
// This must be called before using the provider methods.
func (p *PostgresProvider) Init(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, p.url)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	p.pool = pool
	return nil
}

// Close closes the connection pool.
func (p *PostgresProvider) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// GetFiling retrieves a filing row.
func (p *PostgresProvider) GetFiling(ctx context.Context, sbu, year string) (*types.Filing, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT doc FROM filings WHERE sbu = $1 AND year = $2`, sbu, year).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrFilingNotFound, sbu, year)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch filing %s/%s: %w", sbu, year, err)
	}

	var filing types.Filing
	if err := json.Unmarshal(doc, &filing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filing %s/%s: %w", sbu, year, err)
	}
	return &filing, nil
}

// SetFiling upserts a filing row.
func (p *PostgresProvider) SetFiling(ctx context.Context, filing *types.Filing) error {
	doc, err := json.Marshal(filing)
	if err != nil {
		return fmt.Errorf("failed to marshal filing: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO filings (sbu, year, doc) VALUES ($1, $2, $3)
		 ON CONFLICT (sbu, year) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		filing.SBU, filing.Year, doc)
	if err != nil {
		return fmt.Errorf("failed to save filing %s/%s: %w", filing.SBU, filing.Year, err)
	}
	return nil
}

// SetFindings replaces the findings of a filing in one transaction.
func (p *PostgresProvider) SetFindings(ctx context.Context, sbu, year string, findings []types.Finding) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM findings WHERE sbu = $1 AND year = $2`, sbu, year); err != nil {
		return fmt.Errorf("failed to clear findings: %w", err)
	}
	for i := range findings {
		if err := upsertFinding(ctx, tx, findings[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit findings: %w", err)
	}
	return nil
}

// SetFinding upserts one finding, keyed by its check ID.
func (p *PostgresProvider) SetFinding(ctx context.Context, finding types.Finding) error {
	return upsertFinding(ctx, p.pool, finding)
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertFinding(ctx context.Context, ex execer, finding types.Finding) error {
	if finding.CheckID == "" {
		return fmt.Errorf("finding missing checkID")
	}
	doc, err := json.Marshal(finding)
	if err != nil {
		return fmt.Errorf("failed to marshal finding %s: %w", finding.CheckID, err)
	}
	_, err = ex.Exec(ctx,
		`INSERT INTO findings (sbu, year, check_id, line_item, status, doc)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (sbu, year, check_id) DO UPDATE
		 SET line_item = EXCLUDED.line_item, status = EXCLUDED.status,
		     doc = EXCLUDED.doc, updated_at = now()`,
		finding.SBU, finding.Year, finding.CheckID, finding.LineItem,
		string(finding.Review.Status), doc)
	if err != nil {
		return fmt.Errorf("failed to save finding %s: %w", finding.CheckID, err)
	}
	return nil
}

// GetFindings retrieves all findings of a filing.
func (p *PostgresProvider) GetFindings(ctx context.Context, sbu, year string) ([]types.Finding, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT doc FROM findings WHERE sbu = $1 AND year = $2 ORDER BY check_id`, sbu, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []types.Finding
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		var fd types.Finding
		if err := json.Unmarshal(doc, &fd); err != nil {
			return nil, fmt.Errorf("failed to unmarshal finding: %w", err)
		}
		findings = append(findings, fd)
	}
	return findings, rows.Err()
}

// GetFinding retrieves one finding by check ID.
func (p *PostgresProvider) GetFinding(ctx context.Context, sbu, year, checkID string) (types.Finding, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT doc FROM findings WHERE sbu = $1 AND year = $2 AND check_id = $3`,
		sbu, year, checkID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Finding{}, fmt.Errorf("%w: %s", ErrFindingNotFound, checkID)
	}
	if err != nil {
		return types.Finding{}, fmt.Errorf("failed to fetch finding %s: %w", checkID, err)
	}

	var fd types.Finding
	if err := json.Unmarshal(doc, &fd); err != nil {
		return types.Finding{}, fmt.Errorf("failed to unmarshal finding %s: %w", checkID, err)
	}
	return fd, nil
}

// InsertReview appends a review action to the audit trail.
func (p *PostgresProvider) InsertReview(ctx context.Context, action types.ReviewAction) error {
	doc, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal review action: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO reviews (sbu, year, check_id, at, doc) VALUES ($1, $2, $3, $4, $5)`,
		action.SBU, action.Year, action.CheckID, action.At, doc)
	if err != nil {
		return fmt.Errorf("failed to insert review action: %w", err)
	}
	return nil
}

// GetReviews retrieves the audit trail, oldest first. An empty
// checkID returns the whole filing's trail.
func (p *PostgresProvider) GetReviews(ctx context.Context, sbu, year, checkID string) ([]types.ReviewAction, error) {
	query := `SELECT doc FROM reviews WHERE sbu = $1 AND year = $2 ORDER BY at, id`
	args := []any{sbu, year}
	if checkID != "" {
		query = `SELECT doc FROM reviews WHERE sbu = $1 AND year = $2 AND check_id = $3 ORDER BY at, id`
		args = append(args, checkID)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query review actions: %w", err)
	}
	defer rows.Close()

	var actions []types.ReviewAction
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan review action: %w", err)
		}
		var a types.ReviewAction
		if err := json.Unmarshal(doc, &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal review action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// GetSettings retrieves the dynamic configuration.
func (p *PostgresProvider) GetSettings(ctx context.Context) (types.Settings, int, error) {
	var doc []byte
	var version int
	err := p.pool.QueryRow(ctx,
		`SELECT doc, version FROM settings WHERE id = 1`).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		// Return default settings if not found
		return types.Settings{}, 0, nil
	}
	if err != nil {
		return types.Settings{}, 0, fmt.Errorf("failed to fetch settings: %w", err)
	}

	var s types.Settings
	if err := json.Unmarshal(doc, &s); err != nil {
		return types.Settings{}, 0, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, version, nil
}

// SetSettings saves the dynamic configuration.
func (p *PostgresProvider) SetSettings(ctx context.Context, settings types.Settings, version int) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO settings (id, version, doc) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, doc = EXCLUDED.doc`,
		version, doc)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
