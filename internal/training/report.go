package training

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/crimson-sun/vettriage/internal/engine/artifact"
	"github.com/crimson-sun/vettriage/internal/format"
)

// Report describes a finished training run.
type Report struct {
	Samples        int                     `json:"samples"`
	DroppedRows    int                     `json:"dropped_rows"`
	DroppedClasses []string                `json:"dropped_classes"`
	Features       int                     `json:"features"`
	Classes        []string                `json:"classes"`
	TrainSamples   int                     `json:"train_samples"`
	TestSamples    int                     `json:"test_samples"`
	TrainAccuracy  float64                 `json:"train_accuracy"`
	TestAccuracy   float64                 `json:"test_accuracy"`
	PerClass       []ClassMetrics          `json:"per_class"`
	MacroAvg       ClassMetrics            `json:"macro_avg"`
	WeightedAvg    ClassMetrics            `json:"weighted_avg"`
	Importance     []artifact.FeatureScore `json:"feature_importance"`
	Confusion      [][]int                 `json:"confusion_matrix"`
	Duration       time.Duration           `json:"duration_ns"`
}

// topFeatures is how many importance rows Render prints.
const topFeatures = 15

// Render prints the report as tables in the given mode.
func (r *Report) Render(w io.Writer, mode format.Mode) error {
	summary := format.NewTable(mode)
	summary.Title("Training Summary")
	summary.Header("Metric", "Value")
	summary.Row("Samples", r.Samples)
	summary.Row("Features", r.Features)
	summary.Row("Classes", len(r.Classes))
	summary.Row("Dropped rare classes", len(r.DroppedClasses))
	summary.Row("Train / test rows", fmt.Sprintf("%d / %d", r.TrainSamples, r.TestSamples))
	summary.Row("Train accuracy", format.Percent(r.TrainAccuracy))
	summary.Row("Test accuracy", format.Percent(r.TestAccuracy))
	summary.Row("Duration", format.Duration(r.Duration))
	if _, err := fmt.Fprintln(w, summary.String()); err != nil {
		return err
	}

	if len(r.PerClass) > 0 {
		cls := format.NewTable(mode)
		cls.Title("Classification Report (test set)")
		cls.Header("Class", "Precision", "Recall", "F1", "Support")
		cls.Columns(
			format.ColumnConfig{Number: 2, Align: format.AlignRight},
			format.ColumnConfig{Number: 3, Align: format.AlignRight},
			format.ColumnConfig{Number: 4, Align: format.AlignRight},
			format.ColumnConfig{Number: 5, Align: format.AlignRight},
		)
		for _, m := range r.PerClass {
			cls.Row(m.Class, format.Decimal(m.Precision), format.Decimal(m.Recall), format.Decimal(m.F1), m.Support)
		}
		for _, m := range []ClassMetrics{r.MacroAvg, r.WeightedAvg} {
			cls.Footer(m.Class, format.Decimal(m.Precision), format.Decimal(m.Recall), format.Decimal(m.F1), m.Support)
		}
		if _, err := fmt.Fprintln(w, cls.String()); err != nil {
			return err
		}
	}

	if len(r.Importance) > 0 {
		imp := format.NewTable(mode)
		imp.Title("Feature Importance")
		imp.Header("#", "Feature", "Importance")
		for i, f := range r.Importance {
			if i == topFeatures {
				break
			}
			imp.Row(strconv.Itoa(i+1), f.Feature, strconv.FormatFloat(f.Importance, 'f', 4, 64))
		}
		if _, err := fmt.Fprintln(w, imp.String()); err != nil {
			return err
		}
	}
	return nil
}
