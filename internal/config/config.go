// Package config loads batch settings from defaults, a YAML file and
// DRIFT_ environment variables, and validates the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"driftsim/internal/genetics"
	"driftsim/internal/model"
)

const EnvPrefix = "DRIFT_"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	SpeciesName              string                      `yaml:"species_name" env:"SPECIES_NAME" validate:"required"`
	PopulationSize           int                         `yaml:"population_size" env:"POPULATION_SIZE" validate:"gt=0"`
	StartingFrequencies      []float64                   `yaml:"starting_frequencies" env:"STARTING_FREQUENCIES" validate:"len=3,sumone,dive,gte=0,lte=1"`
	LitterSizeDistribution   genetics.LitterDistribution `yaml:"litter_size_distribution" env:"LITTER_SIZE_DISTRIBUTION" validate:"min=1,sumone,dive,keys,gt=0,endkeys,gte=0,lte=1"`
	NumberOfRuns             int                         `yaml:"number_of_runs" env:"NUMBER_OF_RUNS" validate:"gt=0"`
	FixedNumberOfGenerations int                         `yaml:"fixed_number_of_generations" env:"FIXED_NUMBER_OF_GENERATIONS" validate:"gte=0"`
	Seed                     int64                       `yaml:"seed" env:"SEED"`
	Workers                  int                         `yaml:"workers" env:"WORKERS" validate:"gte=0"`
	OutputDir                string                      `yaml:"output_dir" env:"OUTPUT_DIR" validate:"required"`
	Store                    string                      `yaml:"store" env:"STORE" validate:"oneof=memory sqlite"`
	DBPath                   string                      `yaml:"db_path" env:"DB_PATH" validate:"required_if=Store sqlite"`
	LogLevel                 string                      `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=info debug trace"`
	Plot                     bool                        `yaml:"plot" env:"PLOT"`
}

// Default returns the settings of the classic T. rex experiment: 100
// individuals, a rare pair of alleles against a common one, litters of one
// to four, and 100 replicates run until fixation.
func Default() Config {
	return Config{
		SpeciesName:         "T. rex",
		PopulationSize:      100,
		StartingFrequencies: []float64{0.05, 0.05, 0.9},
		LitterSizeDistribution: genetics.LitterDistribution{
			1: 0.25,
			2: 0.25,
			3: 0.25,
			4: 0.25,
		},
		NumberOfRuns:             100,
		FixedNumberOfGenerations: 0,
		Seed:                     1,
		Workers:                  1,
		OutputDir:                "output",
		Store:                    "sqlite",
		DBPath:                   "driftsim.db",
		LogLevel:                 "info",
	}
}

// Load applies defaults, then the YAML file at path (if any), then DRIFT_
// environment overrides. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	// yaml.v3 merges into a non-nil map, so a file's distribution would be
	// mixed with the default one.
	litter := cfg.LitterSizeDistribution
	cfg.LitterSizeDistribution = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.LitterSizeDistribution == nil {
		cfg.LitterSizeDistribution = litter
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DRIFT_-prefixed variables. Lists use commas
// and the litter distribution uses size:probability pairs, e.g.
// DRIFT_LITTER_SIZE_DISTRIBUTION=1:0.5,2:0.5.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return fmt.Errorf("environment overrides: %w", aggErr.Errors[0])
		}
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// EffectiveWorkers maps 0 to sequential execution.
func (c Config) EffectiveWorkers() int {
	if c.Workers <= 0 {
		return 1
	}
	return c.Workers
}

// BatchConfig is the part of the configuration recorded with a batch.
func (c Config) BatchConfig() model.BatchConfig {
	return model.BatchConfig{
		SpeciesName:              c.SpeciesName,
		PopulationSize:           c.PopulationSize,
		StartingFrequencies:      append([]float64(nil), c.StartingFrequencies...),
		LitterSizeDistribution:   c.LitterSizeDistribution.Clone(),
		NumberOfRuns:             c.NumberOfRuns,
		FixedNumberOfGenerations: c.FixedNumberOfGenerations,
		Seed:                     c.Seed,
		Workers:                  c.EffectiveWorkers(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("sumone", sumsToOne)
	return v
}

// sumsToOne requires the exactly rounded sum of the values to be 1.0, the
// same test the simulator applies before a run.
func sumsToOne(fl validator.FieldLevel) bool {
	switch values := fl.Field().Interface().(type) {
	case []float64:
		return genetics.ExactSum(values) == 1.0
	case genetics.LitterDistribution:
		return values.Total() == 1.0
	default:
		return false
	}
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, after, ok := strings.Cut(field, "."); ok {
		field = after
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	case "sumone":
		return fmt.Sprintf("%s must sum to 1", field)
	case "len":
		return fmt.Sprintf("%s must have exactly %s values", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}
