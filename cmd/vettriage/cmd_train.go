package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/vettriage/internal/engine/artifact"
	"github.com/crimson-sun/vettriage/internal/engine/severity"
	"github.com/crimson-sun/vettriage/internal/format"
	"github.com/crimson-sun/vettriage/internal/logging"
	"github.com/crimson-sun/vettriage/internal/training"
)

var trainFlags struct {
	config       string
	out          string
	report       string
	format       string
	trees        int
	seed         int64
	writeCatalog bool
}

var trainCmd = &cobra.Command{
	Use:   "train <dataset.csv>",
	Short: "Train the disease model from a labelled CSV dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainFlags.config, "config", "", "Training config YAML (target column, split, forest parameters)")
	f.StringVarP(&trainFlags.out, "out", "o", "", "Artifact output path (default: VETTRIAGE_ARTIFACT_PATH)")
	f.StringVar(&trainFlags.report, "report", "", "Also write the evaluation report as JSON to this path")
	f.StringVar(&trainFlags.format, "format", "table", "Report format: table or markdown")
	f.IntVar(&trainFlags.trees, "trees", 0, "Override the number of trees")
	f.Int64Var(&trainFlags.seed, "seed", 0, "Override the random seed")
	f.BoolVar(&trainFlags.writeCatalog, "write-catalog", true, "Write the built-in severity catalog if none exists")
}

func runTrain(cmd *cobra.Command, args []string) error {
	mode, err := format.ParseMode(trainFlags.format)
	if err != nil {
		return err
	}

	tc := training.DefaultConfig()
	if trainFlags.config != "" {
		if tc, err = training.LoadConfig(trainFlags.config); err != nil {
			return err
		}
	}
	if trainFlags.trees > 0 {
		tc.Forest.Trees = trainFlags.trees
	}
	if cmd.Flags().Changed("seed") {
		tc.Forest.Seed = trainFlags.seed
	}

	ds, err := training.LoadCSV(args[0])
	if err != nil {
		return err
	}
	art, rep, err := training.Fit(cmd.Context(), ds, tc)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	out := trainFlags.out
	if out == "" {
		out = cfg.Engine.ArtifactPath
	}
	if err := art.Save(out); err != nil {
		return err
	}
	if err := art.WriteInfo(artifact.InfoPath(out)); err != nil {
		return err
	}
	slog.Info("model saved",
		logging.PathKey, out,
		logging.ClassesKey, len(art.Classes),
		logging.AccuracyKey, rep.TestAccuracy,
	)

	if trainFlags.writeCatalog && cfg.Engine.CatalogPath != "" {
		if err := ensureCatalog(cfg.Engine.CatalogPath); err != nil {
			return err
		}
	}
	if trainFlags.report != "" {
		if err := writeJSON(trainFlags.report, rep); err != nil {
			return err
		}
	}
	return rep.Render(cmd.OutOrStdout(), mode)
}

// ensureCatalog writes the built-in catalog to path unless a file is there.
func ensureCatalog(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := severity.Default().Save(path); err != nil {
		return err
	}
	slog.Info("severity catalog written", logging.PathKey, path)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
