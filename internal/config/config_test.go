package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"driftsim/internal/genetics"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drift.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.PopulationSize != 100 || cfg.NumberOfRuns != 100 || cfg.FixedNumberOfGenerations != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SpeciesName != "T. rex" {
		t.Fatalf("unexpected species name %q", cfg.SpeciesName)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
population_size: 40
starting_frequencies: [0.25, 0.25, 0.5]
litter_size_distribution:
  2: 0.5
  3: 0.5
number_of_runs: 7
fixed_number_of_generations: 12
workers: 4
store: memory
log_level: debug
plot: true
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.PopulationSize != 40 || cfg.NumberOfRuns != 7 || cfg.FixedNumberOfGenerations != 12 {
		t.Fatalf("unexpected loaded values: %+v", cfg)
	}
	if len(cfg.LitterSizeDistribution) != 2 || cfg.LitterSizeDistribution[3] != 0.5 {
		t.Fatalf("litter distribution was merged with defaults: %v", cfg.LitterSizeDistribution)
	}
	if cfg.SpeciesName != "T. rex" || cfg.OutputDir != "output" {
		t.Fatalf("unset keys should keep defaults: %+v", cfg)
	}
	if !cfg.Plot || cfg.Store != "memory" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "population: 10\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestLoadFileAcceptsEmptyFile(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, ""))
	if err != nil {
		t.Fatalf("load empty file: %v", err)
	}
	if cfg.PopulationSize != Default().PopulationSize {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadAppliesEnvironmentAfterFile(t *testing.T) {
	path := writeFile(t, "population_size: 40\nnumber_of_runs: 3\n")
	t.Setenv("DRIFT_POPULATION_SIZE", "64")
	t.Setenv("DRIFT_STARTING_FREQUENCIES", "0.5,0.25,0.25")
	t.Setenv("DRIFT_LITTER_SIZE_DISTRIBUTION", "1:0.5,2:0.5")
	t.Setenv("DRIFT_SEED", "99")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PopulationSize != 64 {
		t.Fatalf("expected env to override file, got %d", cfg.PopulationSize)
	}
	if cfg.NumberOfRuns != 3 {
		t.Fatalf("expected file value to survive, got %d", cfg.NumberOfRuns)
	}
	if cfg.Seed != 99 {
		t.Fatalf("unexpected seed %d", cfg.Seed)
	}
	if cfg.StartingFrequencies[0] != 0.5 || len(cfg.StartingFrequencies) != 3 {
		t.Fatalf("unexpected frequencies %v", cfg.StartingFrequencies)
	}
	want := genetics.LitterDistribution{1: 0.5, 2: 0.5}
	if len(cfg.LitterSizeDistribution) != len(want) || cfg.LitterSizeDistribution[2] != 0.5 {
		t.Fatalf("unexpected litter distribution %v", cfg.LitterSizeDistribution)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadRejectsMalformedEnvironment(t *testing.T) {
	t.Setenv("DRIFT_NUMBER_OF_RUNS", "many")
	if _, err := Load(""); err == nil {
		t.Fatal("expected env parse error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "population", mutate: func(c *Config) { c.PopulationSize = 0 }, want: "population_size"},
		{name: "arity", mutate: func(c *Config) { c.StartingFrequencies = []float64{0.5, 0.5} }, want: "exactly 3 values"},
		{name: "frequency sum", mutate: func(c *Config) { c.StartingFrequencies = []float64{0.5, 0.5, 0.5} }, want: "starting_frequencies must sum to 1"},
		{name: "frequency range", mutate: func(c *Config) { c.StartingFrequencies = []float64{1.5, -0.5, 0} }, want: "starting_frequencies[0]"},
		{name: "litter sum", mutate: func(c *Config) { c.LitterSizeDistribution = genetics.LitterDistribution{1: 0.5} }, want: "litter_size_distribution must sum to 1"},
		{name: "litter empty", mutate: func(c *Config) { c.LitterSizeDistribution = nil }, want: "at least 1"},
		{name: "litter key", mutate: func(c *Config) { c.LitterSizeDistribution = genetics.LitterDistribution{0: 1} }, want: "litter_size_distribution"},
		{name: "runs", mutate: func(c *Config) { c.NumberOfRuns = 0 }, want: "number_of_runs"},
		{name: "generations", mutate: func(c *Config) { c.FixedNumberOfGenerations = -1 }, want: "fixed_number_of_generations"},
		{name: "store", mutate: func(c *Config) { c.Store = "redis" }, want: "store must be one of"},
		{name: "db path", mutate: func(c *Config) { c.DBPath = "" }, want: "db_path is required"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, want: "log_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected invalid configuration, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestValidateAllowsMemoryStoreWithoutPath(t *testing.T) {
	cfg := Default()
	cfg.Store = "memory"
	cfg.DBPath = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestBatchConfigCopiesCollections(t *testing.T) {
	cfg := Default()
	cfg.Workers = 0
	batch := cfg.BatchConfig()
	if batch.Workers != 1 {
		t.Fatalf("expected zero workers to mean one, got %d", batch.Workers)
	}
	batch.StartingFrequencies[0] = 1
	batch.LitterSizeDistribution[1] = 1
	if cfg.StartingFrequencies[0] != 0.05 || cfg.LitterSizeDistribution[1] != 0.25 {
		t.Fatal("batch config shares storage with the configuration")
	}
}
