package main

import (
	"fmt"
	"log/slog"

	"github.com/crimson-sun/vettriage/internal/output"
	"github.com/crimson-sun/vettriage/internal/output/file"
	"github.com/crimson-sun/vettriage/internal/output/stdout"
	"github.com/crimson-sun/vettriage/pkg/vettriage"
)

// newPredictor builds a lazily loaded predictor from the engine configuration.
func newPredictor() *vettriage.Predictor {
	return vettriage.NewLazy(
		vettriage.WithArtifactPath(cfg.Engine.ArtifactPath),
		vettriage.WithCatalogPath(cfg.Engine.CatalogPath),
		vettriage.WithTopK(cfg.Engine.TopK),
	)
}

// recordOutput opens the configured record sink. It returns nil for "none".
func recordOutput(verbosity string) (output.Output, error) {
	v, err := output.ParseVerbosity(verbosity)
	if err != nil {
		return nil, err
	}
	switch cfg.Output.Kind {
	case "stdout":
		return stdout.New(v, cfg.Output.Pretty), nil
	case "file":
		out, err := file.New(cfg.Output.FilePath, v)
		if err != nil {
			return nil, fmt.Errorf("open output file: %w", err)
		}
		return out, nil
	}
	return nil, nil
}

// logSinkError returns an error callback for background outputs.
func logSinkError(sink string) func(error) {
	return func(err error) {
		slog.Warn("output write failed", "sink", sink, "error", err)
	}
}
