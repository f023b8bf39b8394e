package training

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/crimson-sun/vettriage/internal/engine/artifact"
	"github.com/crimson-sun/vettriage/internal/engine/encoder"
	"github.com/crimson-sun/vettriage/internal/engine/forest"
	"github.com/crimson-sun/vettriage/internal/logging"
)

// Fit trains a forest on ds and returns the artifact with its evaluation
// report. No artifact is returned on error.
func Fit(ctx context.Context, ds *Dataset, cfg Config) (*artifact.Artifact, *Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if ds == nil || ds.Len() == 0 {
		return nil, nil, ErrNoData
	}
	if !ds.HasColumn(cfg.TargetColumn) {
		return nil, nil, fmt.Errorf("%w: target column %q not found", ErrNoData, cfg.TargetColumn)
	}
	start := time.Now()

	p := prepare(ds, cfg.TargetColumn)
	if len(p.cases) == 0 {
		return nil, nil, fmt.Errorf("%w: no labelled rows", ErrNoData)
	}
	if len(p.features) == 0 {
		return nil, nil, fmt.Errorf("%w: no feature columns", ErrNoData)
	}
	slog.Info("preprocessed dataset",
		logging.PhaseKey, "training",
		logging.SamplesKey, len(p.cases),
		logging.FeaturesKey, len(p.features),
	)

	// Encoders see every labelled row, including classes dropped below.
	records := make([]map[string]string, len(p.cases))
	for i, c := range p.cases {
		records[i] = encoder.Record(c)
	}
	set := encoder.FitEncoderSet(p.categorical, records)
	fe := encoder.NewFeatureEncoder(set, p.features)

	counts := make(map[string]int)
	for _, l := range p.labels {
		counts[l]++
	}
	var dropped []string
	for l, n := range counts {
		if n < cfg.MinClassSamples {
			dropped = append(dropped, l)
		}
	}
	sort.Strings(dropped)
	if len(dropped) > 0 {
		slog.Warn("dropping rare classes", "count", len(dropped), "min_samples", cfg.MinClassSamples)
	}

	var x [][]float64
	var kept []string
	for i, c := range p.cases {
		if counts[p.labels[i]] < cfg.MinClassSamples {
			continue
		}
		x = append(x, fe.EncodeCase(c))
		kept = append(kept, p.labels[i])
	}
	if len(x) == 0 {
		return nil, nil, fmt.Errorf("%w: every class has fewer than %d samples", ErrNoData, cfg.MinClassSamples)
	}

	// Re-fit on the surviving labels so class indices are dense.
	target := encoder.FitLabelEncoder(kept)
	y := make([]int, len(kept))
	for i, l := range kept {
		y[i], _ = target.Transform(l)
	}
	classes := target.Classes()

	trainIdx, testIdx, err := stratifiedSplit(y, len(classes), cfg.TestFraction, cfg.Forest.Seed)
	if err != nil {
		return nil, nil, err
	}
	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	f, err := forest.Fit(ctx, xTrain, yTrain, len(classes), cfg.Forest)
	if err != nil {
		return nil, nil, fmt.Errorf("training: %w", err)
	}

	trainPred, err := predictAll(f, xTrain)
	if err != nil {
		return nil, nil, err
	}
	testPred, err := predictAll(f, xTest)
	if err != nil {
		return nil, nil, err
	}
	cm := confusionMatrix(yTest, testPred, len(classes))
	perClass, macro, weighted := classificationReport(cm, classes)

	importances := f.FeatureImportances()
	scores := make([]artifact.FeatureScore, len(p.features))
	for i, col := range p.features {
		scores[i] = artifact.FeatureScore{Feature: col, Importance: importances[i]}
	}
	slices.SortStableFunc(scores, func(a, b artifact.FeatureScore) int {
		switch {
		case a.Importance > b.Importance:
			return -1
		case a.Importance < b.Importance:
			return 1
		}
		return 0
	})

	report := &Report{
		Samples:        len(x),
		DroppedRows:    p.droppedRows,
		DroppedClasses: dropped,
		Features:       len(p.features),
		Classes:        classes,
		TrainSamples:   len(trainIdx),
		TestSamples:    len(testIdx),
		TrainAccuracy:  accuracy(yTrain, trainPred),
		TestAccuracy:   accuracy(yTest, testPred),
		PerClass:       perClass,
		MacroAvg:       macro,
		WeightedAvg:    weighted,
		Importance:     scores,
		Confusion:      cm,
		Duration:       time.Since(start),
	}
	slog.Info("training complete",
		logging.ModelTypeKey, forest.Kind,
		logging.ClassesKey, len(classes),
		logging.AccuracyKey, report.TestAccuracy,
		logging.DurationMsKey, report.Duration.Milliseconds(),
	)

	art := &artifact.Artifact{
		Model:          artifact.ModelEnvelope{Kind: forest.Kind, Forest: f},
		LabelEncoders:  set,
		TargetEncoder:  target,
		FeatureColumns: p.features,
		Classes:        classes,
		ModelType:      forest.Kind,
		TrainingDate:   time.Now().UTC(),
		Metrics: &artifact.Summary{
			TrainAccuracy:     report.TrainAccuracy,
			TestAccuracy:      report.TestAccuracy,
			TrainSamples:      report.TrainSamples,
			TestSamples:       report.TestSamples,
			DroppedClasses:    dropped,
			FeatureImportance: scores,
		},
	}
	if err := art.Validate(); err != nil {
		return nil, nil, fmt.Errorf("training: produced invalid artifact: %w", err)
	}
	return art, report, nil
}

func subset(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i], ys[i] = x[j], y[j]
	}
	return xs, ys
}

func predictAll(f *forest.Forest, x [][]float64) ([]int, error) {
	out := make([]int, len(x))
	for i, row := range x {
		k, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("training: evaluate: %w", err)
		}
		out[i] = k
	}
	return out, nil
}
