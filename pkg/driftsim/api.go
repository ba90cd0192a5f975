// Package driftsim is the programmatic entry point for running genetic drift
// batches and reading them back from a store.
package driftsim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"driftsim/internal/config"
	"driftsim/internal/genetics"
	"driftsim/internal/logging"
	"driftsim/internal/model"
	"driftsim/internal/platform"
	"driftsim/internal/stats"
	"driftsim/internal/storage"
)

const (
	defaultExportsDir = "exports"
	defaultPlotName   = "mean_trajectory.png"
)

// Config is the batch configuration accepted by Run.
type Config = config.Config

// DefaultConfig returns the classic T. rex settings.
func DefaultConfig() Config {
	return config.Default()
}

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
	Logger     *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger

	exportsDir string

	mu          sync.Mutex
	initialized bool
}

type RunSummary struct {
	BatchID        string
	OutputDir      string
	StatisticsPath string
	PlotPath       string
	Replicates     int
	Summary        model.Summary
}

type BatchItem struct {
	BatchID                  string
	CreatedAt                time.Time
	SpeciesName              string
	PopulationSize           int
	NumberOfRuns             int
	FixedNumberOfGenerations int
	Seed                     int64
	PercentFixed             *float64
}

// BatchRequest names a stored batch by id, or the newest one with Latest.
type BatchRequest struct {
	BatchID string
	Latest  bool
}

type ExportRequest struct {
	BatchID string
	Latest  bool
	OutDir  string
}

type ExportSummary struct {
	BatchID        string
	Directory      string
	StatisticsPath string
}

type PlotRequest struct {
	BatchID string
	Latest  bool
	OutPath string
}

type PlotSummary struct {
	BatchID     string
	Path        string
	Generations int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = storage.DefaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		logger:     logger,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}

// Run validates cfg, simulates every replicate, writes the frequency tables
// and statistics report to cfg.OutputDir and persists the batch.
func (c *Client) Run(ctx context.Context, cfg Config) (RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	batch := model.Batch{
		VersionedRecord: storage.CurrentVersion(),
		ID:              newBatchID(cfg.Seed),
		CreatedAt:       time.Now().UTC(),
		Config:          cfg.BatchConfig(),
	}
	logger := c.logger.With("batch", batch.ID)

	runner, err := platform.NewReplicateRunner(batch.Config, logger)
	if err != nil {
		return RunSummary{}, err
	}
	results, err := runner.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	histories := platform.Histories(results)
	summary := stats.BuildSummary(batch.Config, histories)
	summary.VersionedRecord = storage.CurrentVersion()
	summary.BatchID = batch.ID
	if h, ok := stats.MeanFinalHeterozygosity(platform.Heterozygosities(results)); ok {
		summary.MeanFinalHeterozygosity = &h
	}

	replicates := make([]model.Replicate, len(results))
	for i, result := range results {
		replicates[i] = result.Record(batch.ID, storage.CurrentVersion())
	}

	if err := c.store.SaveBatch(ctx, batch); err != nil {
		return RunSummary{}, fmt.Errorf("save batch: %w", err)
	}
	if err := c.store.SaveReplicates(ctx, batch.ID, replicates); err != nil {
		return RunSummary{}, fmt.Errorf("save replicates: %w", err)
	}
	if err := c.store.SaveSummary(ctx, summary); err != nil {
		return RunSummary{}, fmt.Errorf("save summary: %w", err)
	}

	statsPath, err := stats.WriteBatchArtifacts(cfg.OutputDir, stats.BatchArtifacts{
		Batch:     batch,
		Histories: histories,
		Summary:   summary,
	})
	if err != nil {
		return RunSummary{}, fmt.Errorf("write artifacts: %w", err)
	}

	out := RunSummary{
		BatchID:        batch.ID,
		OutputDir:      filepath.Clean(cfg.OutputDir),
		StatisticsPath: statsPath,
		Replicates:     len(results),
		Summary:        summary,
	}
	if cfg.Plot {
		out.PlotPath = filepath.Join(cfg.OutputDir, defaultPlotName)
		if err := stats.WriteTrajectoryPlot(out.PlotPath, stats.MeanTrajectory(histories), plotTitle(batch)); err != nil {
			return RunSummary{}, fmt.Errorf("write plot: %w", err)
		}
	}
	logger.Info("batch persisted", "output_dir", out.OutputDir, "fixed_runs", summary.FixedRuns)
	return out, nil
}

// Batches lists stored batches newest first. A limit <= 0 returns all.
func (c *Client) Batches(ctx context.Context, limit int) ([]BatchItem, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	batches, err := c.store.ListBatches(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]BatchItem, 0, len(batches))
	for _, b := range batches {
		item := BatchItem{
			BatchID:                  b.ID,
			CreatedAt:                b.CreatedAt,
			SpeciesName:              b.Config.SpeciesName,
			PopulationSize:           b.Config.PopulationSize,
			NumberOfRuns:             b.Config.NumberOfRuns,
			FixedNumberOfGenerations: b.Config.FixedNumberOfGenerations,
			Seed:                     b.Config.Seed,
		}
		summary, ok, err := c.store.GetSummary(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			percent := summary.PercentFixed
			item.PercentFixed = &percent
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Client) Summary(ctx context.Context, req BatchRequest) (model.Summary, error) {
	batchID, err := c.resolveBatchID(ctx, req.BatchID, req.Latest)
	if err != nil {
		return model.Summary{}, err
	}
	summary, ok, err := c.store.GetSummary(ctx, batchID)
	if err != nil {
		return model.Summary{}, err
	}
	if !ok {
		return model.Summary{}, fmt.Errorf("summary not found for batch id: %s", batchID)
	}
	return summary, nil
}

func (c *Client) Replicates(ctx context.Context, req BatchRequest) ([]model.Replicate, error) {
	batchID, err := c.resolveBatchID(ctx, req.BatchID, req.Latest)
	if err != nil {
		return nil, err
	}
	replicates, ok, err := c.store.GetReplicates(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("replicates not found for batch id: %s", batchID)
	}
	return replicates, nil
}

// Export rewrites the frequency tables, config.json and statistics report of
// a stored batch. OutDir defaults to <exports dir>/<batch id>.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	batchID, err := c.resolveBatchID(ctx, req.BatchID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = filepath.Join(c.exportsDir, batchID)
	}

	batch, ok, err := c.store.GetBatch(ctx, batchID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("batch not found: %s", batchID)
	}
	replicates, err := c.Replicates(ctx, BatchRequest{BatchID: batchID})
	if err != nil {
		return ExportSummary{}, err
	}
	summary, err := c.Summary(ctx, BatchRequest{BatchID: batchID})
	if err != nil {
		return ExportSummary{}, err
	}

	statsPath, err := stats.WriteBatchArtifacts(outDir, stats.BatchArtifacts{
		Batch:     batch,
		Histories: replicateHistories(replicates),
		Summary:   summary,
	})
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{BatchID: batchID, Directory: filepath.Clean(outDir), StatisticsPath: statsPath}, nil
}

// Plot charts the mean allele trajectory of a stored batch.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (PlotSummary, error) {
	if req.OutPath == "" {
		return PlotSummary{}, errors.New("plot requires an output path")
	}
	batchID, err := c.resolveBatchID(ctx, req.BatchID, req.Latest)
	if err != nil {
		return PlotSummary{}, err
	}
	batch, ok, err := c.store.GetBatch(ctx, batchID)
	if err != nil {
		return PlotSummary{}, err
	}
	if !ok {
		return PlotSummary{}, fmt.Errorf("batch not found: %s", batchID)
	}
	replicates, err := c.Replicates(ctx, BatchRequest{BatchID: batchID})
	if err != nil {
		return PlotSummary{}, err
	}

	series := stats.MeanTrajectory(replicateHistories(replicates))
	if err := stats.WriteTrajectoryPlot(req.OutPath, series, plotTitle(batch)); err != nil {
		return PlotSummary{}, err
	}
	return PlotSummary{BatchID: batchID, Path: filepath.Clean(req.OutPath), Generations: len(series)}, nil
}

func (c *Client) resolveBatchID(ctx context.Context, batchID string, latest bool) (string, error) {
	if batchID != "" && latest {
		return "", errors.New("use either batch id or latest")
	}
	if batchID == "" && !latest {
		return "", errors.New("batch id or latest is required")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if !latest {
		return batchID, nil
	}
	batches, err := c.store.ListBatches(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(batches) == 0 {
		return "", errors.New("no batches available")
	}
	return batches[0].ID, nil
}

func newBatchID(seed int64) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("drift-%d-%s", seed, token[:8])
}

func replicateHistories(replicates []model.Replicate) [][]genetics.Frequencies {
	histories := make([][]genetics.Frequencies, len(replicates))
	for i, r := range replicates {
		histories[i] = r.History
	}
	return histories
}

func plotTitle(batch model.Batch) string {
	return fmt.Sprintf("%s: mean allele frequency (%d runs, N=%d)",
		batch.Config.SpeciesName, batch.Config.NumberOfRuns, batch.Config.PopulationSize)
}
