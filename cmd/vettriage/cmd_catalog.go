package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/vettriage/internal/engine"
	"github.com/crimson-sun/vettriage/internal/engine/severity"
	"github.com/crimson-sun/vettriage/internal/format"
	"github.com/crimson-sun/vettriage/internal/model"
)

var catalogFlags struct {
	format   string
	json     bool
	severity string
	urgency  string
	animal   string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the disease severity catalog",
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count diseases per severity, urgency and typical animal",
	Args:  cobra.NoArgs,
	RunE:  runCatalogStats,
}

var catalogLookupCmd = &cobra.Command{
	Use:   "lookup <disease>",
	Short: "Show the severity entry for one disease",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCatalogLookup,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog diseases, optionally filtered",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

func init() {
	pf := catalogCmd.PersistentFlags()
	pf.StringVar(&catalogFlags.format, "format", "table", "Table format: table or markdown")
	pf.BoolVar(&catalogFlags.json, "json", false, "Print JSON instead of a table")

	f := catalogListCmd.Flags()
	f.StringVar(&catalogFlags.severity, "severity", "", "Only diseases with this severity (Mild, Moderate, Severe)")
	f.StringVar(&catalogFlags.urgency, "urgency", "", "Only diseases with this urgency (Low, Medium, High, Emergency)")
	f.StringVar(&catalogFlags.animal, "animal", "", "Only diseases typical for this animal")

	catalogCmd.AddCommand(catalogStatsCmd)
	catalogCmd.AddCommand(catalogLookupCmd)
	catalogCmd.AddCommand(catalogListCmd)
}

func runCatalogStats(cmd *cobra.Command, _ []string) error {
	cat, err := engine.LoadCatalog(cfg.Engine.CatalogPath)
	if err != nil {
		return err
	}
	st := cat.Stats()
	if catalogFlags.json {
		return printJSON(cmd.OutOrStdout(), st)
	}
	tb, err := catalogTable()
	if err != nil {
		return err
	}
	tb.Title(fmt.Sprintf("Severity Catalog (%d diseases)", st.Total))
	tb.Header("Dimension", "Value", "Diseases")
	tb.Columns(format.ColumnConfig{Number: 3, Align: format.AlignRight})
	for _, k := range slices.Sorted(maps.Keys(st.Severity)) {
		tb.Row("severity", k, st.Severity[k])
	}
	for _, k := range slices.Sorted(maps.Keys(st.Urgency)) {
		tb.Row("urgency", k, st.Urgency[k])
	}
	for _, k := range slices.Sorted(maps.Keys(st.Animals)) {
		tb.Row("animal", k, st.Animals[k])
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return err
}

func runCatalogLookup(cmd *cobra.Command, args []string) error {
	cat, err := engine.LoadCatalog(cfg.Engine.CatalogPath)
	if err != nil {
		return err
	}
	name := strings.Join(args, " ")
	rec, ok := cat.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", severity.ErrUnknownDisease, name)
	}
	if catalogFlags.json {
		return printJSON(cmd.OutOrStdout(), struct {
			Disease string `json:"disease"`
			model.SeverityRecord
		}{name, rec})
	}
	tb, err := catalogTable()
	if err != nil {
		return err
	}
	tb.Title(name)
	tb.Header("Field", "Value")
	tb.Columns(format.ColumnConfig{Number: 2, MaxWidth: 80})
	tb.Row("Severity", rec.Severity)
	tb.Row("Urgency", rec.Urgency)
	tb.Row("Recommendation", rec.Recommendation)
	tb.Row("Description", rec.Description)
	tb.Row("Typical animals", strings.Join(rec.TypicalAnimals, ", "))
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return err
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	cat, err := engine.LoadCatalog(cfg.Engine.CatalogPath)
	if err != nil {
		return err
	}
	names, err := filterCatalog(cat)
	if err != nil {
		return err
	}
	if catalogFlags.json {
		return printJSON(cmd.OutOrStdout(), names)
	}
	tb, err := catalogTable()
	if err != nil {
		return err
	}
	tb.Header("Disease", "Severity", "Urgency", "Typical animals")
	for _, n := range names {
		r := cat.Lookup(n)
		tb.Row(n, r.Severity, r.Urgency, format.Truncate(strings.Join(r.TypicalAnimals, ", "), 40))
	}
	tb.Footer("", "", "Total", len(names))
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return err
}

// filterCatalog intersects the severity, urgency and animal filters. With no
// filter set it returns every disease.
func filterCatalog(cat *severity.Catalog) ([]string, error) {
	names := cat.Diseases()
	if catalogFlags.severity != "" {
		names = intersect(names, cat.BySeverity(model.Severity(catalogFlags.severity)))
	}
	if catalogFlags.urgency != "" {
		u, ok := model.ParseUrgency(catalogFlags.urgency)
		if !ok {
			return nil, fmt.Errorf("unknown urgency %q", catalogFlags.urgency)
		}
		names = intersect(names, cat.ByUrgency(u))
	}
	if catalogFlags.animal != "" {
		names = intersect(names, cat.ByAnimal(catalogFlags.animal))
	}
	return names, nil
}

func intersect(a, b []string) []string {
	out := make([]string, 0, len(a))
	for _, s := range a {
		if slices.Contains(b, s) {
			out = append(out, s)
		}
	}
	return out
}

func catalogTable() (format.TableBuilder, error) {
	mode, err := format.ParseMode(catalogFlags.format)
	if err != nil {
		return nil, err
	}
	return format.NewTable(mode), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
