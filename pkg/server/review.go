package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/trueup/trueup/pkg/log"
	"github.com/trueup/trueup/pkg/storage"
	"github.com/trueup/trueup/pkg/types"
)

// handleReview applies a staff review action to a finding and records
// it in the audit trail.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var action types.ReviewAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user := s.getUser(r)
	if action.Reviewer == "" {
		action.Reviewer = user.Email
	}
	if action.At.IsZero() {
		action.At = time.Now().UTC()
	}
	if err := action.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// reset wipes review state back to pending, only admins may do it
	if action.Action == types.ActionReset && !s.isAdmin(user) {
		log.Ctx(ctx).WarnContext(ctx, "reset requires admin", slog.String("email", user.Email))
		writeJSONError(w, "reset requires admin", http.StatusForbidden)
		return
	}

	settings, err := s.getSettingsWithMigration(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}

	// reviewer allow-list is enforced against the authenticated email,
	// not the self-reported reviewer field
	if !s.bypassAuth && !settings.ReviewerAllowed(user.Email) {
		log.Ctx(ctx).WarnContext(ctx, "email not allowed to review", slog.String("email", user.Email))
		writeJSONError(w, "not allowed to review", http.StatusForbidden)
		return
	}

	finding, err := s.storage.GetFinding(ctx, action.SBU, action.Year, action.CheckID)
	if err != nil {
		if errors.Is(err, storage.ErrFindingNotFound) {
			writeJSONError(w, "finding not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get finding", slog.Any("error", err))
		writeJSONError(w, "failed to get finding", http.StatusInternalServerError)
		return
	}

	if err := action.Apply(&finding, settings.RequireJustification); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if settings.DryRun {
		log.Ctx(ctx).InfoContext(ctx, "dry run, review action not persisted",
			slog.String("checkID", action.CheckID),
			slog.String("action", string(action.Action)),
		)
		writeJSON(w, finding)
		return
	}

	if err := s.storage.SetFinding(ctx, finding); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save finding", slog.Any("error", err))
		writeJSONError(w, "failed to save finding", http.StatusInternalServerError)
		return
	}
	if err := s.storage.InsertReview(ctx, action); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to record review action", slog.Any("error", err))
		writeJSONError(w, "failed to record review action", http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).InfoContext(ctx, "review action applied",
		slog.String("checkID", action.CheckID),
		slog.String("action", string(action.Action)),
		slog.String("reviewer", action.Reviewer),
	)

	writeJSON(w, finding)
}

// handleListReviews returns the audit trail for a filing, optionally
// filtered to one check.
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sbu, year, err := filingParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	reviews, err := s.storage.GetReviews(ctx, sbu, year, r.URL.Query().Get("checkID"))
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get reviews", slog.Any("error", err))
		writeJSONError(w, "failed to get reviews", http.StatusInternalServerError)
		return
	}
	if reviews == nil {
		reviews = []types.ReviewAction{}
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, reviews)
}
