package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/levenlabs/go-lflag"
	"github.com/trueup/trueup/pkg/check"
	"github.com/trueup/trueup/pkg/log"
	"github.com/trueup/trueup/pkg/sbu"
	"github.com/trueup/trueup/pkg/storage"
	"github.com/trueup/trueup/pkg/types"
	"gopkg.in/yaml.v3"
)

// seed loads a filing dataset into storage so the review workflow can
// be exercised locally against the firestore emulator.
func main() {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	}
	s := storage.Configured()
	file := lflag.String("seed-file", "data/sbu_d_fy2324.yaml", "filing dataset to load")
	assess := lflag.Bool("seed-assess", false, "run the check catalogue after seeding")
	lflag.Configure()

	ctx := context.Background()
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to read seed file", slog.String("file", *file), slog.Any("error", err))
		os.Exit(1)
	}

	var filing types.Filing
	if err := yaml.Unmarshal(raw, &filing); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to parse seed file", slog.String("file", *file), slog.Any("error", err))
		os.Exit(1)
	}
	if err := filing.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid filing", slog.Any("error", err))
		os.Exit(1)
	}

	if err := s.SetFiling(ctx, &filing); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save filing", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "filing seeded",
		slog.String("sbu", filing.SBU),
		slog.String("year", filing.Year),
		slog.Int("lineItems", len(filing.LineItems)),
	)

	if !*assess {
		return
	}

	assessor := sbu.NewAssessor(check.Configured(), sbu.Configured())
	findings, err := assessor.Assess(&filing)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "assessment failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := s.SetFindings(ctx, filing.SBU, filing.Year, findings); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save findings", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "findings seeded", slog.Int("findings", len(findings)))
}
