package drift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"driftsim/internal/genetics"
	"driftsim/internal/logging"
	"driftsim/internal/species"
)

var (
	ErrModeMismatch        = errors.New("generation mode mismatch")
	ErrNegativeGenerations = errors.New("negative generation count")
	ErrFrequencySum        = errors.New("allele frequencies must sum to 1")
	ErrLitterSum           = errors.New("litter size probabilities must sum to 1")
	ErrLitterSize          = errors.New("litter sizes must be positive")
	ErrNoBreedingPair      = errors.New("no breeding pair")
)

// Outcome names the terminal state a run ended in.
type Outcome string

const (
	OutcomeFixed           Outcome = "fixed"
	OutcomeGenerationLimit Outcome = "generation_limit"
)

type Config struct {
	// FixedGenerations runs exactly Generations generations instead of
	// running until an allele is fixed.
	FixedGenerations bool
	Generations      int
	Rand             *rand.Rand
	// OnGeneration is called with the species after generation 0 and after
	// every advance.
	OnGeneration func(generation int, s *species.Species)
	Logger       *slog.Logger
}

type Result struct {
	History     []genetics.Frequencies
	Generations int
	Outcome     Outcome
	FixedAllele genetics.Allele
	Fixed       bool
}

// Simulator drives one Species through discrete, non-overlapping generations.
// It is not safe for concurrent use; each run owns its own Simulator.
type Simulator struct {
	cfg    Config
	rng    *rand.Rand
	logger *slog.Logger
}

func NewSimulator(cfg Config) (*Simulator, error) {
	if !cfg.FixedGenerations && cfg.Generations != 0 {
		return nil, fmt.Errorf("%w: cannot simulate until fixation while also requesting %d generations", ErrModeMismatch, cfg.Generations)
	}
	if cfg.FixedGenerations && cfg.Generations < 0 {
		return nil, fmt.Errorf("%w: number of generations to simulate must be >= 0, got %d", ErrNegativeGenerations, cfg.Generations)
	}
	if cfg.Rand == nil {
		return nil, fmt.Errorf("random source is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Simulator{cfg: cfg, rng: cfg.Rand, logger: logger}, nil
}

// SimulateDrift runs s until an allele is fixed or, when endAfterFixedNumGenerations
// is set, for exactly numGenerations generations. The returned history starts
// with the initial frequencies.
func SimulateDrift(s *species.Species, endAfterFixedNumGenerations bool, numGenerations int, rng *rand.Rand) ([]genetics.Frequencies, error) {
	sim, err := NewSimulator(Config{
		FixedGenerations: endAfterFixedNumGenerations,
		Generations:      numGenerations,
		Rand:             rng,
	})
	if err != nil {
		return nil, err
	}
	result, err := sim.Run(s)
	if err != nil {
		return nil, err
	}
	return result.History, nil
}

func (sim *Simulator) Run(s *species.Species) (Result, error) {
	if err := validateSpecies(s); err != nil {
		return Result{}, err
	}

	history := []genetics.Frequencies{s.AlleleFrequencies()}
	generation := 0
	sim.observe(generation, s)
	for !sim.finished(s.AlleleFrequencies(), generation) {
		if err := sim.Advance(s); err != nil {
			return Result{}, fmt.Errorf("generation %d: %w", generation+1, err)
		}
		history = append(history, s.AlleleFrequencies())
		generation++
		sim.observe(generation, s)
	}

	result := Result{
		History:     history,
		Generations: generation,
		Outcome:     OutcomeFixed,
	}
	if sim.cfg.FixedGenerations {
		result.Outcome = OutcomeGenerationLimit
	}
	result.FixedAllele, result.Fixed = history[len(history)-1].Fixed()
	return result, nil
}

func validateSpecies(s *species.Species) error {
	if s == nil {
		return fmt.Errorf("species is required")
	}
	freqs := s.AlleleFrequencies()
	if sum := freqs.Sum(); sum != 1.0 {
		return fmt.Errorf("%w: yours sum to %v", ErrFrequencySum, sum)
	}
	litter := s.LitterSizes()
	if sum := litter.Total(); sum != 1.0 {
		return fmt.Errorf("%w: yours sum to %v", ErrLitterSum, sum)
	}
	// A litter of zero never grows the next generation.
	if sizes := litter.Sizes(); sizes[0] <= 0 {
		return fmt.Errorf("%w: got %d", ErrLitterSize, sizes[0])
	}
	// Frequencies is a fixed three-element array, so the allele arity is
	// enforced when the species is built.
	return nil
}

func (sim *Simulator) finished(freqs genetics.Frequencies, generation int) bool {
	if sim.cfg.FixedGenerations {
		return generation >= sim.cfg.Generations
	}
	_, fixed := freqs.Fixed()
	return fixed
}

func (sim *Simulator) observe(generation int, s *species.Species) {
	if sim.logger.Enabled(context.Background(), logging.LevelTrace) {
		f := s.AlleleFrequencies()
		sim.logger.Log(context.Background(), logging.LevelTrace, "generation",
			"species", s.Name(),
			"generation", generation,
			"a0", f[0], "a1", f[1], "a2", f[2],
		)
	}
	if sim.cfg.OnGeneration != nil {
		sim.cfg.OnGeneration(generation, s)
	}
}

// Advance replaces the population of s with one new generation of exactly
// the same size, bred by random mating.
func (sim *Simulator) Advance(s *species.Species) error {
	size := s.PopulationSize()
	parents := s.Population()
	// Truncation below removes children by position, so mate order must be random.
	sim.rng.Shuffle(len(parents), func(i, j int) {
		parents[i], parents[j] = parents[j], parents[i]
	})

	var males, females []genetics.Individual
	for _, parent := range parents {
		if parent.Sex().Is(int(genetics.Male)) {
			males = append(males, parent)
		} else {
			females = append(females, parent)
		}
	}
	if len(males) == 0 || len(females) == 0 {
		return fmt.Errorf("%w: population has %d males and %d females", ErrNoBreedingPair, len(males), len(females))
	}

	sampler := newLitterSampler(s.LitterSizes())
	children := make([]genetics.Individual, 0, size+sampler.max())
	for len(children) < size {
		dad := males[sim.rng.Intn(len(males))]
		mom := females[sim.rng.Intn(len(females))]

		litter := sampler.sample(sim.rng)
		for i := 0; i < litter; i++ {
			child, err := breed(sim.rng, dad, mom)
			if err != nil {
				return err
			}
			children = append(children, child)
		}
	}

	for len(children) > size {
		i := sim.rng.Intn(len(children))
		children = append(children[:i], children[i+1:]...)
	}

	return s.SetPopulation(children)
}

func breed(rng *rand.Rand, dad, mom genetics.Individual) (genetics.Individual, error) {
	alleles := [2]genetics.Allele{
		dad.Alleles()[rng.Intn(2)],
		mom.Alleles()[rng.Intn(2)],
	}
	// Either parent's allele may land first.
	if rng.Intn(2) == 1 {
		alleles[0], alleles[1] = alleles[1], alleles[0]
	}
	return genetics.NewIndividual(alleles, genetics.RandomSex(rng))
}
