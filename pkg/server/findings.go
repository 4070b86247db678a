package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/trueup/trueup/pkg/log"
	"github.com/trueup/trueup/pkg/sbu"
	"github.com/trueup/trueup/pkg/storage"
	"github.com/trueup/trueup/pkg/types"
)

func (s *Server) handleListFindings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sbuName, year, err := filingParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	findings, err := s.storage.GetFindings(ctx, sbuName, year)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get findings", slog.Any("error", err))
		writeJSONError(w, "failed to get findings", http.StatusInternalServerError)
		return
	}

	if lineItem := r.URL.Query().Get("lineItem"); lineItem != "" {
		filtered := findings[:0]
		for _, f := range findings {
			if f.LineItem == lineItem {
				filtered = append(filtered, f)
			}
		}
		findings = filtered
	}
	if findings == nil {
		findings = []types.Finding{}
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, findings)
}

func (s *Server) handleGetFinding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sbuName, year, err := filingParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	finding, err := s.storage.GetFinding(ctx, sbuName, year, r.PathValue("checkID"))
	if err != nil {
		if errors.Is(err, storage.ErrFindingNotFound) {
			writeJSONError(w, "finding not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get finding", slog.Any("error", err))
		writeJSONError(w, "failed to get finding", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, finding)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sbuName, year, err := filingParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	findings, err := s.storage.GetFindings(ctx, sbuName, year)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get findings", slog.Any("error", err))
		writeJSONError(w, "failed to get findings", http.StatusInternalServerError)
		return
	}

	pending := sbu.Pending(findings)
	if pending == nil {
		pending = []types.Finding{}
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, pending)
}

type flagsResponse struct {
	Counts sbu.FlagCounts      `json:"counts"`
	Checks map[string][]string `json:"checks"`
}

// handleFlags groups the filing's check IDs by effective flag.
func (s *Server) handleFlags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sbuName, year, err := filingParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	findings, err := s.storage.GetFindings(ctx, sbuName, year)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get findings", slog.Any("error", err))
		writeJSONError(w, "failed to get findings", http.StatusInternalServerError)
		return
	}

	resp := flagsResponse{Checks: map[string][]string{}}
	for _, f := range findings {
		flag := f.EffectiveFlag()
		switch flag {
		case types.FlagGreen:
			resp.Counts.Green++
		case types.FlagYellow:
			resp.Counts.Yellow++
		case types.FlagRed:
			resp.Counts.Red++
		}
		resp.Checks[string(flag)] = append(resp.Checks[string(flag)], f.CheckID)
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, resp)
}
