package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/trueup/trueup/pkg/log"
	"github.com/trueup/trueup/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreProvider implements the Database interface using Google
// Cloud Firestore. Documents hold a JSON blob so the stored shape
// stays portable across providers.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) filingDoc(sbu, year string) (*firestore.DocumentRef, error) {
	if sbu == "" || year == "" {
		return nil, fmt.Errorf("sbu and year cannot be empty")
	}
	return f.client.Collection("filings").Doc(sbu + "_" + year), nil
}

// GetFiling retrieves a filing document.
func (f *FirestoreProvider) GetFiling(ctx context.Context, sbu, year string) (*types.Filing, error) {
	ref, err := f.filingDoc(sbu, year)
	if err != nil {
		return nil, err
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s/%s", ErrFilingNotFound, sbu, year)
		}
		return nil, fmt.Errorf("failed to fetch filing %s/%s: %w", sbu, year, err)
	}

	jsonStr, err := docJSON(doc)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "filing doc malformed", slog.String("sbu", sbu), slog.String("year", year), slog.Any("err", err))
		return nil, fmt.Errorf("filing %s/%s: %w", sbu, year, err)
	}

	var filing types.Filing
	if err := json.Unmarshal([]byte(jsonStr), &filing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filing %s/%s: %w", sbu, year, err)
	}
	return &filing, nil
}

// SetFiling saves a filing document as a JSON blob.
func (f *FirestoreProvider) SetFiling(ctx context.Context, filing *types.Filing) error {
	jsonBytes, err := json.Marshal(filing)
	if err != nil {
		return fmt.Errorf("failed to marshal filing: %w", err)
	}
	ref, err := f.filingDoc(filing.SBU, filing.Year)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, map[string]interface{}{
		"json": string(jsonBytes),
		"sbu":  filing.SBU,
		"year": filing.Year,
	})
	if err != nil {
		return fmt.Errorf("failed to save filing %s/%s: %w", filing.SBU, filing.Year, err)
	}
	return nil
}

// SetFindings replaces the findings of a filing. The document ID is
// the check ID, so a rerun overwrites in place.
func (f *FirestoreProvider) SetFindings(ctx context.Context, sbu, year string, findings []types.Finding) error {
	ref, err := f.filingDoc(sbu, year)
	if err != nil {
		return err
	}
	coll := ref.Collection("findings")

	// Clear stale findings from a previous catalogue shape first.
	iter := coll.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("error iterating findings: %w", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete stale finding %s: %w", doc.Ref.ID, err)
		}
	}

	for i := range findings {
		if err := f.SetFinding(ctx, findings[i]); err != nil {
			return err
		}
	}
	return nil
}

// SetFinding saves one finding, keyed by its check ID.
func (f *FirestoreProvider) SetFinding(ctx context.Context, finding types.Finding) error {
	if finding.CheckID == "" {
		return fmt.Errorf("finding missing checkID")
	}
	jsonBytes, err := json.Marshal(finding)
	if err != nil {
		return fmt.Errorf("failed to marshal finding %s: %w", finding.CheckID, err)
	}
	ref, err := f.filingDoc(finding.SBU, finding.Year)
	if err != nil {
		return err
	}
	_, err = ref.Collection("findings").Doc(finding.CheckID).Set(ctx, map[string]interface{}{
		"json":     string(jsonBytes),
		"lineItem": finding.LineItem,
		"status":   string(finding.Review.Status),
	})
	if err != nil {
		return fmt.Errorf("failed to save finding %s: %w", finding.CheckID, err)
	}
	return nil
}

// GetFindings retrieves all findings of a filing.
func (f *FirestoreProvider) GetFindings(ctx context.Context, sbu, year string) ([]types.Finding, error) {
	ref, err := f.filingDoc(sbu, year)
	if err != nil {
		return nil, err
	}
	iter := ref.Collection("findings").Documents(ctx)
	defer iter.Stop()

	var findings []types.Finding
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating findings: %w", err)
		}

		jsonStr, err := docJSON(doc)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "finding doc malformed", slog.String("checkID", doc.Ref.ID), slog.String("sbu", sbu), slog.Any("err", err))
			return nil, fmt.Errorf("finding document %s: %w", doc.Ref.ID, err)
		}

		var fd types.Finding
		if err := json.Unmarshal([]byte(jsonStr), &fd); err != nil {
			return nil, fmt.Errorf("failed to unmarshal finding (id=%s): %w", doc.Ref.ID, err)
		}
		findings = append(findings, fd)
	}
	return findings, nil
}

// GetFinding retrieves one finding by check ID.
func (f *FirestoreProvider) GetFinding(ctx context.Context, sbu, year, checkID string) (types.Finding, error) {
	ref, err := f.filingDoc(sbu, year)
	if err != nil {
		return types.Finding{}, err
	}
	doc, err := ref.Collection("findings").Doc(checkID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Finding{}, fmt.Errorf("%w: %s", ErrFindingNotFound, checkID)
		}
		return types.Finding{}, fmt.Errorf("failed to fetch finding %s: %w", checkID, err)
	}

	jsonStr, err := docJSON(doc)
	if err != nil {
		return types.Finding{}, fmt.Errorf("finding %s: %w", checkID, err)
	}
	var fd types.Finding
	if err := json.Unmarshal([]byte(jsonStr), &fd); err != nil {
		return types.Finding{}, fmt.Errorf("failed to unmarshal finding %s: %w", checkID, err)
	}
	return fd, nil
}

// InsertReview appends a review action to the filing's audit trail.
// The document ID is the nanosecond timestamp for lexicographic order.
func (f *FirestoreProvider) InsertReview(ctx context.Context, action types.ReviewAction) error {
	jsonBytes, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal review action: %w", err)
	}
	ref, err := f.filingDoc(action.SBU, action.Year)
	if err != nil {
		return err
	}
	docID := action.At.UTC().Format(time.RFC3339Nano) + "_" + action.CheckID
	_, err = ref.Collection("reviews").Doc(docID).Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"checkID": action.CheckID,
		"at":      action.At,
	})
	if err != nil {
		return fmt.Errorf("failed to insert review action: %w", err)
	}
	return nil
}

// GetReviews retrieves the audit trail, oldest first. An empty
// checkID returns the whole filing's trail.
func (f *FirestoreProvider) GetReviews(ctx context.Context, sbu, year, checkID string) ([]types.ReviewAction, error) {
	ref, err := f.filingDoc(sbu, year)
	if err != nil {
		return nil, err
	}
	q := ref.Collection("reviews").OrderBy(firestore.DocumentID, firestore.Asc)
	if checkID != "" {
		q = ref.Collection("reviews").Where("checkID", "==", checkID).OrderBy(firestore.DocumentID, firestore.Asc)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var actions []types.ReviewAction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating review actions: %w", err)
		}

		jsonStr, err := docJSON(doc)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "review doc malformed", slog.String("docID", doc.Ref.ID), slog.Any("err", err))
			return nil, fmt.Errorf("review document %s: %w", doc.Ref.ID, err)
		}

		var a types.ReviewAction
		if err := json.Unmarshal([]byte(jsonStr), &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal review action (id=%s): %w", doc.Ref.ID, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// GetSettings retrieves the dynamic configuration from the
// "config/settings" document.
func (f *FirestoreProvider) GetSettings(ctx context.Context) (types.Settings, int, error) {
	doc, err := f.client.Collection("config").Doc("settings").Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// Return default settings if not found
			return types.Settings{}, 0, nil
		}
		return types.Settings{}, 0, fmt.Errorf("failed to fetch settings doc: %w", err)
	}

	// Read version if available (default 0)
	var version int
	if v, err := doc.DataAt("version"); err == nil {
		if vInt, ok := v.(int64); ok {
			version = int(vInt)
		}
	}

	jsonStr, err := docJSON(doc)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "settings doc malformed", slog.Any("err", err))
		return types.Settings{}, 0, err
	}

	var s types.Settings
	if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal settings json", slog.Any("err", err))
		return types.Settings{}, 0, fmt.Errorf("failed to unmarshal settings json: %w", err)
	}
	return s, version, nil
}

// SetSettings saves the dynamic configuration to the "config/settings"
// document. It stores the settings as a JSON string for portability.
func (f *FirestoreProvider) SetSettings(ctx context.Context, settings types.Settings, version int) error {
	jsonBytes, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = f.client.Collection("config").Doc("settings").Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"version": version,
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// docJSON extracts the JSON blob every document carries.
func docJSON(doc *firestore.DocumentSnapshot) (string, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		return "", fmt.Errorf("document missing 'json' field: %w", err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("document 'json' field is not a string")
	}
	return jsonStr, nil
}
