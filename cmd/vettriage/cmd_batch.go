package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/vettriage/internal/format"
	"github.com/crimson-sun/vettriage/internal/output"
	"github.com/crimson-sun/vettriage/internal/output/multi"
	"github.com/crimson-sun/vettriage/internal/pipeline"
	"github.com/crimson-sun/vettriage/internal/store"
)

var batchFlags struct {
	workers   int
	chunkSize int
	verbosity string
	history   bool
}

var batchCmd = &cobra.Command{
	Use:   "batch <cases.csv|cases.jsonl|->",
	Short: "Score a file of cases and write one prediction record per case",
	Long: "Score every case in a CSV (training column layout) or JSON lines file.\n" +
		"\"-\" reads JSON lines from stdin. Records go to the configured output\n" +
		"(VETTRIAGE_OUTPUT) in input order; malformed rows are logged and skipped.",
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.IntVar(&batchFlags.workers, "workers", 0, "Concurrent scorers (default GOMAXPROCS)")
	f.IntVar(&batchFlags.chunkSize, "chunk-size", 0, "Cases scored per chunk (default 256)")
	f.StringVar(&batchFlags.verbosity, "verbosity", "standard", "Record detail: minimal, standard or full")
	f.BoolVar(&batchFlags.history, "history", false, "Also save records to the history store (VETTRIAGE_HISTORY_DSN)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p := newPredictor()
	defer p.Close()
	eng, err := p.Get()
	if err != nil {
		return err
	}

	primary, err := recordOutput(batchFlags.verbosity)
	if err != nil {
		return err
	}
	outs := []output.Output{primary}
	if batchFlags.history {
		if cfg.History.DSN == "" {
			return fmt.Errorf("--history needs VETTRIAGE_HISTORY_DSN")
		}
		st, err := store.Open(ctx, cfg.History.DSN)
		if err != nil {
			return err
		}
		outs = append(outs, st)
	}
	out := multi.New(outs...)
	if out.Len() == 0 {
		slog.Warn("no output configured, records are discarded")
	}

	src, err := pipeline.Open(args[0])
	if err != nil {
		out.Close()
		return err
	}
	pl := pipeline.New(src, eng, out,
		pipeline.WithWorkers(batchFlags.workers),
		pipeline.WithChunkSize(batchFlags.chunkSize),
	)
	sum, runErr := pl.Run(ctx)
	closeErr := pl.Close()

	tb := format.NewTable(format.ASCII)
	tb.Title("Batch Summary")
	tb.Header("Read", "Predicted", "Failed", "Skipped", "Duration")
	tb.Row(sum.Read, sum.Predicted, sum.Failed, sum.Skipped, format.Duration(sum.Duration))
	fmt.Fprintln(cmd.ErrOrStderr(), tb.String())

	if runErr != nil {
		return runErr
	}
	return closeErr
}
