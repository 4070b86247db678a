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

func (s *Server) handleGetFiling(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sbuName, year, err := filingParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filing, err := s.storage.GetFiling(ctx, sbuName, year)
	if err != nil {
		if errors.Is(err, storage.ErrFilingNotFound) {
			writeJSONError(w, "filing not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get filing", slog.Any("error", err))
		writeJSONError(w, "failed to get filing", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, filing)
}

// handleSetFiling replaces the stored filing data. Findings from an
// earlier assessment are left in place until the next /api/assess.
func (s *Server) handleSetFiling(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := s.getUser(r)
	if !s.isAdmin(user) {
		log.Ctx(ctx).WarnContext(ctx, "unauthorized for filing update", slog.String("email", user.Email))
		writeJSONError(w, "unauthorized", http.StatusForbidden)
		return
	}

	var filing types.Filing
	if err := json.NewDecoder(r.Body).Decode(&filing); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := filing.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.storage.SetFiling(ctx, &filing); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save filing", slog.Any("error", err))
		writeJSONError(w, "failed to save filing", http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).InfoContext(ctx, "filing updated",
		slog.String("sbu", filing.SBU),
		slog.String("year", filing.Year),
		slog.String("email", user.Email),
	)

	w.WriteHeader(http.StatusOK)
}
