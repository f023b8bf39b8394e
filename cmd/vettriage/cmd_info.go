package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/vettriage/internal/format"
)

var infoFlags struct {
	json bool
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the trained model",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoFlags.json, "json", false, "Print JSON instead of a table")
}

func runInfo(cmd *cobra.Command, _ []string) error {
	p := newPredictor()
	defer p.Close()

	info, err := p.Info()
	if err != nil {
		return err
	}
	if infoFlags.json {
		return printJSON(cmd.OutOrStdout(), info)
	}

	tb := format.NewTable(format.ASCII)
	tb.Title("Model")
	tb.Header("Field", "Value")
	tb.Columns(format.ColumnConfig{Number: 2, MaxWidth: 80})
	tb.Row("Artifact", cfg.Engine.ArtifactPath)
	tb.Row("Type", info.ModelType)
	tb.Row("Trained", info.Trained)
	tb.Row("Features", info.Features)
	tb.Row("Diseases", len(info.Diseases))
	tb.Row("Classes", strings.Join(info.Diseases, ", "))
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return err
}
