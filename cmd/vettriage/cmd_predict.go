package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/vettriage/internal/engine/classifier"
	"github.com/crimson-sun/vettriage/internal/format"
	"github.com/crimson-sun/vettriage/pkg/vettriage"
)

var predictFlags struct {
	req     vettriage.Request
	numeric map[string]*float64 // flag name -> value, applied only when set
	json    bool
	format  string
}

var predictCmd = &cobra.Command{
	Use:   "predict <symptom>...",
	Short: "Rank likely diseases for one animal",
	Long: "Rank likely diseases for one animal. Each argument is one symptom;\n" +
		"comma-separated arguments are split, so \"fever, vomiting\" is two symptoms.",
	Args: cobra.MinimumNArgs(1),
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&predictFlags.req.AnimalType, "animal", "", "Animal type, e.g. Dog, Cat, Cow (default Dog)")
	f.StringVar(&predictFlags.req.Breed, "breed", "", "Breed (default Mixed)")
	f.StringVar(&predictFlags.req.Gender, "gender", "", "Male or Female (default Male)")
	f.StringVar(&predictFlags.req.Duration, "duration", "", "How long symptoms have lasted, e.g. \"3 days\"")
	predictFlags.numeric = map[string]*float64{
		"age":         f.Float64("age", 0, "Age in years (default 3)"),
		"weight":      f.Float64("weight", 0, "Weight in kg (default 20)"),
		"heart-rate":  f.Float64("heart-rate", 0, "Heart rate in bpm (default 120)"),
		"temperature": f.Float64("temperature", 0, "Body temperature in °C (default 39)"),
	}
	f.BoolVar(&predictFlags.json, "json", false, "Print the response as JSON")
	f.StringVar(&predictFlags.format, "format", "table", "Table format: table or markdown")
}

func runPredict(cmd *cobra.Command, args []string) error {
	p := newPredictor()
	defer p.Close()

	req := predictFlags.req
	req.Symptoms = splitSymptoms(args)
	numericFlags(cmd, &req)
	resp := p.Predict(req)

	out := cmd.OutOrStdout()
	if predictFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	if !resp.OK() {
		return fmt.Errorf("predict: %s (%s)", resp.Error, resp.Kind)
	}
	if predictFlags.json {
		return nil
	}

	mode, err := format.ParseMode(predictFlags.format)
	if err != nil {
		return err
	}
	tb := format.NewTable(mode)
	tb.Title("Predictions for " + strings.Join(req.Symptoms, ", "))
	tb.Header("#", "Disease", "Confidence", "Severity", "Urgency", "Recommendation")
	tb.Columns(format.ColumnConfig{Number: 3, Align: format.AlignRight})
	for i, pr := range resp.Predictions {
		tb.Row(i+1, pr.Disease, classifier.FormatConfidenceDetailed(pr.Probability), pr.Severity, pr.Urgency, format.Truncate(pr.Recommendation, 60))
	}
	_, err = fmt.Fprintln(out, tb.String())
	return err
}

// splitSymptoms splits comma-separated arguments and drops empty entries.
func splitSymptoms(args []string) []string {
	var out []string
	for _, a := range args {
		for _, s := range strings.Split(a, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// numericFlags copies the numeric flags the user actually set into req, so
// an explicit --age=0 is kept while an omitted flag takes the default.
func numericFlags(cmd *cobra.Command, req *vettriage.Request) {
	dst := map[string]**float64{
		"age":         &req.Age,
		"weight":      &req.Weight,
		"heart-rate":  &req.HeartRate,
		"temperature": &req.Temperature,
	}
	for name, v := range predictFlags.numeric {
		if cmd.Flags().Changed(name) {
			*dst[name] = vettriage.Float(*v)
		}
	}
}
