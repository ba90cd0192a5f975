package model

import (
	"time"

	"driftsim/internal/genetics"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// BatchConfig is the configuration a batch was run with.
type BatchConfig struct {
	SpeciesName              string                      `json:"species_name"`
	PopulationSize           int                         `json:"population_size"`
	StartingFrequencies      []float64                   `json:"starting_frequencies"`
	LitterSizeDistribution   genetics.LitterDistribution `json:"litter_size_distribution"`
	NumberOfRuns             int                         `json:"number_of_runs"`
	FixedNumberOfGenerations int                         `json:"fixed_number_of_generations"`
	Seed                     int64                       `json:"seed"`
	Workers                  int                         `json:"workers"`
}

type Batch struct {
	VersionedRecord
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Config    BatchConfig `json:"config"`
}

// Replicate is one independent simulation run inside a batch.
type Replicate struct {
	VersionedRecord
	BatchID string `json:"batch_id"`
	Index   int    `json:"index"`
	Seed    int64  `json:"seed"`
	// FixationGeneration is -1 when no allele was fixed.
	FixationGeneration int                    `json:"fixation_generation"`
	FixedAllele        int                    `json:"fixed_allele"`
	Outcome            string                 `json:"outcome"`
	History            []genetics.Frequencies `json:"history"`
	Heterozygosity     []float64              `json:"heterozygosity,omitempty"`
}

// Summary aggregates generations-to-fixation over a batch. Mean, StdDev, Min
// and Max are nil when no replicate fixed.
type Summary struct {
	VersionedRecord
	BatchID                  string                   `json:"batch_id"`
	SampleSize               int                      `json:"sample_size"`
	PopulationSize           int                      `json:"population_size"`
	FixedNumberOfGenerations int                      `json:"fixed_number_of_generations"`
	StartingFrequencies      []float64                `json:"starting_frequencies"`
	FixedRuns                int                      `json:"fixed_runs"`
	PercentFixed             float64                  `json:"percent_fixed"`
	MeanGenerations          *float64                 `json:"mean_generations,omitempty"`
	StdDevGenerations        *float64                 `json:"stddev_generations,omitempty"`
	MinGenerations           *int                     `json:"min_generations,omitempty"`
	MaxGenerations           *int                     `json:"max_generations,omitempty"`
	FixationsByAllele        [genetics.NumAlleles]int `json:"fixations_by_allele"`
	// MeanFinalHeterozygosity averages each replicate's last observed
	// heterozygosity. Nil when no replicate recorded any.
	MeanFinalHeterozygosity *float64 `json:"mean_final_heterozygosity,omitempty"`
}
