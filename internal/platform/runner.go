package platform

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sourcegraph/conc/pool"

	"driftsim/internal/drift"
	"driftsim/internal/genetics"
	"driftsim/internal/logging"
	"driftsim/internal/model"
	"driftsim/internal/species"
	"driftsim/internal/stats"
)

// ReplicateResult is the outcome of one replicate. Heterozygosity holds the
// observed heterozygote fraction for every generation in History.
type ReplicateResult struct {
	Index              int
	Seed               int64
	History            []genetics.Frequencies
	Outcome            drift.Outcome
	FixationGeneration int
	FixedAllele        int
	Heterozygosity     []float64
}

// Record converts the result into its persistent form.
func (r ReplicateResult) Record(batchID string, version model.VersionedRecord) model.Replicate {
	return model.Replicate{
		VersionedRecord:    version,
		BatchID:            batchID,
		Index:              r.Index,
		Seed:               r.Seed,
		FixationGeneration: r.FixationGeneration,
		FixedAllele:        r.FixedAllele,
		Outcome:            string(r.Outcome),
		History:            r.History,
		Heterozygosity:     r.Heterozygosity,
	}
}

// ReplicateRunner runs every replicate of a batch on a bounded pool.
// Replicate i draws from its own source seeded with Seed+i, so results do not
// depend on the worker count.
type ReplicateRunner struct {
	cfg    model.BatchConfig
	logger *slog.Logger
}

func NewReplicateRunner(cfg model.BatchConfig, logger *slog.Logger) (*ReplicateRunner, error) {
	if cfg.NumberOfRuns <= 0 {
		return nil, fmt.Errorf("number of runs must be > 0, got %d", cfg.NumberOfRuns)
	}
	if cfg.FixedNumberOfGenerations < 0 {
		return nil, fmt.Errorf("%w: fixed number of generations must be >= 0, got %d", drift.ErrNegativeGenerations, cfg.FixedNumberOfGenerations)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &ReplicateRunner{cfg: cfg, logger: logger}, nil
}

// Run executes all replicates and returns them in index order. The first
// failing replicate cancels the batch. Once ctx is done no new replicate is
// started; replicates already running finish first.
func (r *ReplicateRunner) Run(ctx context.Context) ([]ReplicateResult, error) {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	start := time.Now()
	r.logger.Info("batch started",
		"species", r.cfg.SpeciesName,
		"runs", r.cfg.NumberOfRuns,
		"population", r.cfg.PopulationSize,
		"generations", r.cfg.FixedNumberOfGenerations,
		"workers", workers,
		"seed", r.cfg.Seed,
	)

	results := make([]ReplicateResult, r.cfg.NumberOfRuns)
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(workers).
		WithCancelOnError().
		WithFirstError()
	for i := 0; i < r.cfg.NumberOfRuns; i++ {
		if ctx.Err() != nil {
			break
		}
		index := i
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := r.RunReplicate(index)
			if err != nil {
				return fmt.Errorf("replicate %d: %w", index, err)
			}
			results[index] = result
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fixed := 0
	for _, result := range results {
		if result.FixationGeneration >= 0 {
			fixed++
		}
	}
	r.logger.Info("batch finished",
		"species", r.cfg.SpeciesName,
		"runs", len(results),
		"fixed", fixed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return results, nil
}

// RunReplicate builds a fresh species and simulates it once.
func (r *ReplicateRunner) RunReplicate(index int) (ReplicateResult, error) {
	seed := r.cfg.Seed + int64(index)
	rng := rand.New(rand.NewSource(seed))

	s, err := species.New(r.cfg.PopulationSize, r.cfg.StartingFrequencies, r.cfg.LitterSizeDistribution, r.cfg.SpeciesName, rng)
	if err != nil {
		return ReplicateResult{}, err
	}

	var heterozygosity []float64
	sim, err := drift.NewSimulator(drift.Config{
		FixedGenerations: r.cfg.FixedNumberOfGenerations > 0,
		Generations:      r.cfg.FixedNumberOfGenerations,
		Rand:             rng,
		Logger:           r.logger.With("replicate", index),
		OnGeneration: func(_ int, s *species.Species) {
			heterozygosity = append(heterozygosity, s.GenotypeCounts().Heterozygosity())
		},
	})
	if err != nil {
		return ReplicateResult{}, err
	}
	out, err := sim.Run(s)
	if err != nil {
		return ReplicateResult{}, err
	}

	result := ReplicateResult{
		Index:              index,
		Seed:               seed,
		History:            out.History,
		Outcome:            out.Outcome,
		FixationGeneration: stats.GenerationsToFixation(out.History),
		FixedAllele:        -1,
		Heterozygosity:     heterozygosity,
	}
	if result.FixationGeneration >= 0 {
		allele, _ := out.History[result.FixationGeneration].Fixed()
		result.FixedAllele = int(allele)
	}
	r.logger.Debug("replicate finished",
		"replicate", index,
		"seed", seed,
		"generations", out.Generations,
		"outcome", out.Outcome,
		"fixation_generation", result.FixationGeneration,
	)
	return result, nil
}

// Histories returns the frequency histories in replicate order.
func Histories(results []ReplicateResult) [][]genetics.Frequencies {
	histories := make([][]genetics.Frequencies, len(results))
	for i, result := range results {
		histories[i] = result.History
	}
	return histories
}

func Heterozygosities(results []ReplicateResult) [][]float64 {
	series := make([][]float64, len(results))
	for i, result := range results {
		series[i] = result.Heterozygosity
	}
	return series
}
