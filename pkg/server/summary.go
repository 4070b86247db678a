package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/trueup/trueup/pkg/log"
	"github.com/trueup/trueup/pkg/sbu"
	"github.com/trueup/trueup/pkg/storage"
	"github.com/trueup/trueup/pkg/types"
)

// loadAssessed fetches the filing and its persisted findings.
func (s *Server) loadAssessed(r *http.Request) (*types.Filing, []types.Finding, settingsWithVersion, error) {
	ctx := r.Context()
	sbuName, year, err := filingParams(r)
	if err != nil {
		return nil, nil, settingsWithVersion{}, err
	}
	ctx = log.WithFiling(ctx, sbuName, year)
	settings, err := s.getSettingsWithMigration(ctx)
	if err != nil {
		return nil, nil, settingsWithVersion{}, err
	}
	filing, err := s.storage.GetFiling(ctx, sbuName, year)
	if err != nil {
		return nil, nil, settingsWithVersion{}, err
	}
	findings, err := s.storage.GetFindings(ctx, sbuName, year)
	if err != nil {
		return nil, nil, settingsWithVersion{}, err
	}
	return filing, findings, settings, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filing, findings, settings, err := s.loadAssessed(r)
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}

	summary, err := s.assessor(settings.Settings).Summarize(filing, findings)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to summarize filing", slog.Any("error", err))
		writeJSONError(w, "failed to summarize filing: "+err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, summary)
}

type arrPendingResponse struct {
	Error   string   `json:"error"`
	Pending []string `json:"pending"`
}

func (s *Server) handleARR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filing, findings, settings, err := s.loadAssessed(r)
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}

	arr, err := s.assessor(settings.Settings).ARR(filing, findings)
	if err != nil {
		if errors.Is(err, sbu.ErrPendingReview) {
			pending := sbu.Pending(findings)
			ids := make([]string, len(pending))
			for i, f := range pending {
				ids[i] = f.CheckID
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			if err := json.NewEncoder(w).Encode(arrPendingResponse{Error: err.Error(), Pending: ids}); err != nil {
				panic(http.ErrAbortHandler)
			}
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to assemble revenue requirement", slog.Any("error", err))
		writeJSONError(w, "failed to assemble revenue requirement: "+err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, arr)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filing, findings, settings, err := s.loadAssessed(r)
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}

	snapshot, err := s.assessor(settings.Settings).Export(filing, findings)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to export filing", slog.Any("error", err))
		writeJSONError(w, "failed to export filing: "+err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, snapshot)
}

func (s *Server) writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, storage.ErrFilingNotFound):
		writeJSONError(w, "filing not found", http.StatusNotFound)
	case errors.Is(err, errMissingParams):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Ctx(ctx).ErrorContext(ctx, "failed to load filing state", slog.Any("error", err))
		writeJSONError(w, "failed to load filing state", http.StatusInternalServerError)
	}
}
