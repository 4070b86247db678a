package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/trueup/trueup/pkg/log"
	"github.com/trueup/trueup/pkg/storage"
	"github.com/trueup/trueup/pkg/types"
)

type assessResponse struct {
	SBU      string          `json:"sbu"`
	Year     string          `json:"year"`
	Findings []types.Finding `json:"findings"`
}

// handleAssess loads the filing, runs the check catalogue over it and
// persists the findings. Review state from an earlier assessment is
// carried over for findings whose result did not change.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		SBU  string `json:"sbu"`
		Year string `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.SBU == "" || req.Year == "" {
		writeJSONError(w, "sbu and year are required", http.StatusBadRequest)
		return
	}
	ctx = log.WithFiling(ctx, req.SBU, req.Year)

	settings, err := s.getSettingsWithMigration(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}

	filing, err := s.storage.GetFiling(ctx, req.SBU, req.Year)
	if err != nil {
		if errors.Is(err, storage.ErrFilingNotFound) {
			writeJSONError(w, "filing not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get filing", slog.Any("error", err))
		writeJSONError(w, "failed to get filing", http.StatusInternalServerError)
		return
	}

	findings, err := s.assessor(settings.Settings).Assess(filing)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "assessment failed", slog.Any("error", err))
		writeJSONError(w, "assessment failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	// carry over review decisions from a previous run where the check
	// produced the same result
	prev, err := s.storage.GetFindings(ctx, req.SBU, req.Year)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to get previous findings", slog.Any("error", err))
	}
	prevByID := make(map[string]types.Finding, len(prev))
	for _, f := range prev {
		prevByID[f.CheckID] = f
	}
	for i, f := range findings {
		old, ok := prevByID[f.CheckID]
		if !ok || !old.Reviewed() {
			continue
		}
		if old.RecommendedAmount == f.RecommendedAmount && old.Flag == f.Flag {
			findings[i].Review = old.Review
		}
	}

	if err := s.storage.SetFindings(ctx, req.SBU, req.Year, findings); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save findings", slog.Any("error", err))
		writeJSONError(w, "failed to save findings", http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).InfoContext(ctx, "filing assessed", slog.Int("findings", len(findings)))

	writeJSON(w, assessResponse{SBU: req.SBU, Year: req.Year, Findings: findings})
}
