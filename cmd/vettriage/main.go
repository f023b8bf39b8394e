// vettriage trains and serves the animal disease prediction model.
//
// Usage:
//
//	vettriage train <dataset.csv> [--config=<train.yaml>] [--out=<artifact>]
//	vettriage predict <symptom>... [--animal=Dog] [--age=3] [--json]
//	vettriage batch <cases.csv|cases.jsonl|->
//	vettriage serve [--addr=:5000]
//	vettriage catalog stats|lookup|list
//	vettriage info
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/vettriage/internal/config"
	"github.com/crimson-sun/vettriage/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

// cfg is loaded once per invocation by the root PersistentPreRunE.
var cfg config.Config

var rootFlags struct {
	envFile string
}

var rootCmd = &cobra.Command{
	Use:   "vettriage",
	Short: "Animal disease prediction from symptoms and attributes",
	Long: "vettriage ranks likely diseases for an animal from free-text symptoms\n" +
		"and basic attributes, joined with severity and urgency advice.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.envFile, "env-file", ".env", "Dotenv file loaded before reading VETTRIAGE_* variables")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.Version = version
}

// setup loads the dotenv file, reads configuration and installs the logger.
// A missing dotenv file is not an error.
func setup(_ *cobra.Command, _ []string) error {
	if rootFlags.envFile != "" {
		if err := godotenv.Load(rootFlags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", rootFlags.envFile, err)
		}
	}
	cfg = config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	logging.Init(cfg.Log.JSON, logging.ParseLevel(cfg.Log.Level))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
