package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"driftsim/internal/config"
	"driftsim/internal/logging"
	driftapi "driftsim/pkg/driftsim"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "driftctl",
		Short: "Simulate genetic drift of three alleles in a constant-size population",
		Long: `driftctl runs batches of independent genetic drift simulations, writes
per-run allele frequency tables and a statistics report, and keeps every
batch in a store for later listing, export and plotting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "YAML configuration file")
	root.PersistentFlags().String("store", "", "store backend: memory|sqlite")
	root.PersistentFlags().String("db-path", "", "sqlite database path")
	root.PersistentFlags().String("log-level", "", "log level: info|debug|trace")
	root.PersistentFlags().Bool("json", false, "emit JSON output")

	root.AddCommand(
		newRunCmd(),
		newRunsCmd(),
		newSummaryCmd(),
		newExportCmd(),
		newPlotCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves defaults, the --config file, DRIFT_ variables and the
// persistent flags, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("store") {
		cfg.Store, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("db-path") {
		cfg.DBPath, _ = cmd.Flags().GetString("db-path")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	return logging.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
}

func openClient(cmd *cobra.Command, cfg config.Config) (*driftapi.Client, error) {
	return driftapi.New(driftapi.Options{
		StoreKind: cfg.Store,
		DBPath:    cfg.DBPath,
		Logger:    newLogger(cmd, cfg),
	})
}

// batchSelection reads --batch-id and --latest, which are mutually exclusive.
func batchSelection(cmd *cobra.Command) (string, bool, error) {
	batchID, _ := cmd.Flags().GetString("batch-id")
	latest, _ := cmd.Flags().GetBool("latest")
	if batchID != "" && latest {
		return "", false, errors.New("use either --batch-id or --latest")
	}
	if batchID == "" && !latest {
		return "", false, errors.New("--batch-id or --latest is required")
	}
	return batchID, latest, nil
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().String("batch-id", "", "batch id")
	cmd.Flags().Bool("latest", false, "use the most recent batch")
}
