package driftsim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"driftsim/internal/config"
	"driftsim/internal/genetics"
	"driftsim/internal/stats"
)

func smallConfig(outDir string) Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.StartingFrequencies = []float64{0.25, 0.25, 0.5}
	cfg.NumberOfRuns = 3
	cfg.Workers = 2
	cfg.Seed = 5
	cfg.OutputDir = outDir
	cfg.Store = "memory"
	return cfg
}

func newMemoryClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", ExportsDir: filepath.Join(t.TempDir(), "exports")})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientRunBatchesSummaryExportAndPlot(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	client := newMemoryClient(t)

	cfg := smallConfig(filepath.Join(base, "output"))
	cfg.Plot = true
	summary, err := client.Run(ctx, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !regexp.MustCompile(`^drift-5-[0-9a-f]{8}$`).MatchString(summary.BatchID) {
		t.Fatalf("unexpected batch id %q", summary.BatchID)
	}
	if summary.Replicates != 3 || summary.Summary.SampleSize != 3 {
		t.Fatalf("unexpected run summary %+v", summary)
	}
	if summary.Summary.PercentFixed != 100 {
		t.Fatalf("runs to fixation should all fix, got %v%%", summary.Summary.PercentFixed)
	}
	if h := summary.Summary.MeanFinalHeterozygosity; h == nil || *h != 0 {
		t.Fatalf("fixed populations have no heterozygotes, got %v", h)
	}
	for i := 0; i < 3; i++ {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, stats.FrequencyTableName(i))); err != nil {
			t.Fatalf("missing frequency table %d: %v", i, err)
		}
	}
	if _, err := os.Stat(summary.StatisticsPath); err != nil {
		t.Fatalf("missing statistics file: %v", err)
	}
	if _, err := os.Stat(summary.PlotPath); err != nil {
		t.Fatalf("missing plot: %v", err)
	}

	batches, err := client.Batches(ctx, 5)
	if err != nil {
		t.Fatalf("batches: %v", err)
	}
	if len(batches) != 1 || batches[0].BatchID != summary.BatchID {
		t.Fatalf("unexpected batches %+v", batches)
	}
	if batches[0].PercentFixed == nil || *batches[0].PercentFixed != 100 {
		t.Fatalf("expected percent fixed on batch item, got %+v", batches[0])
	}

	stored, err := client.Summary(ctx, BatchRequest{Latest: true})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if stored.BatchID != summary.BatchID || stored.FixedRuns != 3 {
		t.Fatalf("unexpected stored summary %+v", stored)
	}

	replicates, err := client.Replicates(ctx, BatchRequest{BatchID: summary.BatchID})
	if err != nil {
		t.Fatalf("replicates: %v", err)
	}
	if len(replicates) != 3 || replicates[2].Seed != 7 {
		t.Fatalf("unexpected replicates %+v", replicates)
	}

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	runTable, err := os.ReadFile(filepath.Join(cfg.OutputDir, stats.FrequencyTableName(1)))
	if err != nil {
		t.Fatalf("read run table: %v", err)
	}
	copied, err := os.ReadFile(filepath.Join(exported.Directory, stats.FrequencyTableName(1)))
	if err != nil {
		t.Fatalf("read exported table: %v", err)
	}
	if string(runTable) != string(copied) {
		t.Fatal("exported table differs from the one written by run")
	}

	plotPath := filepath.Join(base, "trajectory.svg")
	plotted, err := client.Plot(ctx, PlotRequest{BatchID: summary.BatchID, OutPath: plotPath})
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if plotted.Generations == 0 {
		t.Fatal("expected a non-empty trajectory")
	}
	if _, err := os.Stat(plotPath); err != nil {
		t.Fatalf("missing plot file: %v", err)
	}
}

func TestClientRunIsReproducibleForSeed(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)

	first, err := client.Run(ctx, smallConfig(filepath.Join(t.TempDir(), "a")))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	cfg := smallConfig(filepath.Join(t.TempDir(), "b"))
	cfg.Workers = 1
	second, err := client.Run(ctx, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.BatchID == second.BatchID {
		t.Fatal("expected distinct batch ids")
	}

	a, err := client.Replicates(ctx, BatchRequest{BatchID: first.BatchID})
	if err != nil {
		t.Fatalf("replicates: %v", err)
	}
	b, err := client.Replicates(ctx, BatchRequest{BatchID: second.BatchID})
	if err != nil {
		t.Fatalf("replicates: %v", err)
	}
	for i := range a {
		if a[i].FixationGeneration != b[i].FixationGeneration || len(a[i].History) != len(b[i].History) {
			t.Fatalf("replicate %d differs between runs with the same seed", i)
		}
	}
}

func TestClientRunRejectsInvalidConfig(t *testing.T) {
	client := newMemoryClient(t)
	cfg := smallConfig(t.TempDir())
	cfg.StartingFrequencies = []float64{0.5, 0.5, 0.5}
	if _, err := client.Run(context.Background(), cfg); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}

func TestClientBatchSelectionErrors(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t)

	if _, err := client.Summary(ctx, BatchRequest{BatchID: "x", Latest: true}); err == nil {
		t.Fatal("expected error for both batch id and latest")
	}
	if _, err := client.Summary(ctx, BatchRequest{}); err == nil {
		t.Fatal("expected error without batch id or latest")
	}
	if _, err := client.Export(ctx, ExportRequest{Latest: true}); err == nil {
		t.Fatal("expected error with no stored batches")
	}
	if _, err := client.Summary(ctx, BatchRequest{BatchID: "missing"}); err == nil {
		t.Fatal("expected not found error")
	}
	if _, err := client.Plot(ctx, PlotRequest{Latest: true}); err == nil {
		t.Fatal("expected missing output path error")
	}
}

func TestClientSQLitePersistsAcrossClients(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	dbPath := filepath.Join(base, "driftsim.db")

	writer, err := New(Options{StoreKind: "sqlite", DBPath: dbPath})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	cfg := smallConfig(filepath.Join(base, "output"))
	cfg.Store = "sqlite"
	cfg.DBPath = dbPath
	cfg.FixedNumberOfGenerations = 4
	run, err := writer.Run(ctx, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader, err := New(Options{StoreKind: "sqlite", DBPath: dbPath})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	t.Cleanup(func() {
		_ = reader.Close()
	})
	replicates, err := reader.Replicates(ctx, BatchRequest{Latest: true})
	if err != nil {
		t.Fatalf("replicates: %v", err)
	}
	if len(replicates) != 3 {
		t.Fatalf("expected 3 replicates, got %d", len(replicates))
	}
	for _, r := range replicates {
		if r.BatchID != run.BatchID {
			t.Fatalf("unexpected batch id %s", r.BatchID)
		}
		if len(r.History) != 5 {
			t.Fatalf("expected 5 history entries, got %d", len(r.History))
		}
		if r.History[0] != (genetics.Frequencies{0.25, 0.25, 0.5}) {
			t.Fatalf("unexpected initial frequencies %v", r.History[0])
		}
	}
}
