package main

import (
	"context"
	"log"
	"os"

	"countglm/adapters/excel"
	"countglm/app"
	"countglm/internal"
	"countglm/internal/config"
	"countglm/internal/report"
	"countglm/ports"

	"github.com/joho/godotenv"
)

// analyze reads a tabular dataset, fits a Poisson regression of binned
// delay counts on the category column, and prints the coefficient
// summary. All configuration is environment-driven; see internal/config.
func main() {
	// .env is optional; real environments set the variables directly
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	var reader ports.SampleReader = excel.NewSampleReader(
		cfg.Data.FilePath, cfg.Data.ValueColumn, cfg.Data.CategoryColumn)

	svc := app.NewAnalysisService(logger)
	result, err := svc.RunFromSource(ctx, reader, app.Params{
		BinWidth:       cfg.Model.BinWidth,
		IQRMultiplier:  cfg.Model.IQRMultiplier,
		ReferenceLevel: cfg.Model.ReferenceLevel,
		Tolerance:      cfg.Model.Tolerance,
		MaxIterations:  cfg.Model.MaxIterations,
	})
	if err != nil {
		logger.Error("analysis failed: %v", err)
		os.Exit(1)
	}

	logger.Info("analysis %s complete in %dms", result.AnalysisID, result.RuntimeMs)
	if err := report.Render(os.Stdout, result.Summary); err != nil {
		logger.Error("rendering summary: %v", err)
		os.Exit(1)
	}
}
