package species

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"driftsim/internal/genetics"
)

var (
	ErrPopulationSize = errors.New("population size mismatch")
	ErrAllelePool     = errors.New("starting allele pool too small")
)

// GenotypeCounts tallies heterozygotes and per-allele homozygotes.
type GenotypeCounts struct {
	Heterozygotes int                      `json:"heterozygotes"`
	Homozygotes   [genetics.NumAlleles]int `json:"homozygotes"`
}

// Heterozygosity is the observed fraction of heterozygous individuals.
func (c GenotypeCounts) Heterozygosity() float64 {
	total := c.Heterozygotes
	for _, n := range c.Homozygotes {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(c.Heterozygotes) / float64(total)
}

// Species owns a fixed-size population and the allele frequencies derived
// from it. Frequencies are recomputed on every population replacement and
// cannot be set independently.
type Species struct {
	name        string
	size        int
	population  []genetics.Individual
	frequencies genetics.Frequencies
	litterSizes genetics.LitterDistribution
}

// New seeds a population whose allele counts match startingFrequencies after
// rounding to whole alleles. Alleles are drawn without replacement from a
// shuffled pool, two per individual, each paired with a random sex.
func New(populationSize int, startingFrequencies []float64, litterSizes genetics.LitterDistribution, name string, rng *rand.Rand) (*Species, error) {
	if populationSize <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0, got %d", ErrPopulationSize, populationSize)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	start, err := genetics.FrequenciesFromSlice(startingFrequencies)
	if err != nil {
		return nil, err
	}

	allelesInPop := 2 * populationSize
	pool := make([]genetics.Allele, 0, allelesInPop)
	for i, freq := range start {
		count := int(math.RoundToEven(float64(allelesInPop) * freq))
		for j := 0; j < count; j++ {
			pool = append(pool, genetics.Allele(i))
		}
	}
	if len(pool) < allelesInPop {
		return nil, fmt.Errorf("%w: frequencies %v give %d alleles, need %d", ErrAllelePool, startingFrequencies, len(pool), allelesInPop)
	}
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	population := make([]genetics.Individual, 0, populationSize)
	for i := 0; i < populationSize; i++ {
		last := len(pool) - 1
		alleles := [2]genetics.Allele{pool[last], pool[last-1]}
		pool = pool[:last-1]
		individual, err := genetics.NewIndividual(alleles, genetics.RandomSex(rng))
		if err != nil {
			return nil, err
		}
		population = append(population, individual)
	}

	s := &Species{
		name:        name,
		size:        populationSize,
		litterSizes: litterSizes.Clone(),
	}
	if err := s.SetPopulation(population); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Species) AlleleFrequencies() genetics.Frequencies {
	return s.frequencies
}

// SetPopulation replaces the whole population and recounts allele
// frequencies. The population size is invariant for the life of the Species.
func (s *Species) SetPopulation(population []genetics.Individual) error {
	if len(population) != s.size {
		return fmt.Errorf("%w: new population must have exactly %d individuals, got %d", ErrPopulationSize, s.size, len(population))
	}
	frequencies, err := countFrequencies(population)
	if err != nil {
		return err
	}
	s.population = population
	s.frequencies = frequencies
	return nil
}

func countFrequencies(population []genetics.Individual) (genetics.Frequencies, error) {
	var counts [genetics.NumAlleles]int
	for _, individual := range population {
		for _, allele := range individual.Alleles() {
			if !allele.Valid() {
				return genetics.Frequencies{}, fmt.Errorf("%w: individuals can carry only alleles 0, 1, or 2, found %d", genetics.ErrInvalidAllele, int(allele))
			}
			counts[allele]++
		}
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	var out genetics.Frequencies
	if total == 0 {
		return out, nil
	}
	for i, n := range counts {
		out[i] = float64(n) / float64(total)
	}
	return out, nil
}

// Population returns a copy of the current population.
func (s *Species) Population() []genetics.Individual {
	return append([]genetics.Individual(nil), s.population...)
}

func (s *Species) LitterSizes() genetics.LitterDistribution {
	return s.litterSizes.Clone()
}

func (s *Species) Name() string {
	return s.name
}

func (s *Species) PopulationSize() int {
	return s.size
}

func (s *Species) GenotypeCounts() GenotypeCounts {
	var counts GenotypeCounts
	for _, individual := range s.population {
		alleles := individual.Alleles()
		if alleles[0] == alleles[1] {
			counts.Homozygotes[alleles[0]]++
			continue
		}
		counts.Heterozygotes++
	}
	return counts
}

func (s *Species) String() string {
	f := s.frequencies
	return fmt.Sprintf("Species '%s' has %d individuals and allele frequencies of (%.4f, %.4f, %.4f)", s.name, s.size, f[0], f[1], f[2])
}
