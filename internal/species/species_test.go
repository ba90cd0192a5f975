package species

import (
	"errors"
	"math/rand"
	"testing"

	"driftsim/internal/genetics"
)

func newTestSpecies(t *testing.T, size int, freqs []float64, seed int64) *Species {
	t.Helper()
	s, err := New(size, freqs, genetics.LitterDistribution{2: 1.0}, "test", rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("new species: %v", err)
	}
	return s
}

func TestNewMatchesRoundedStartingCounts(t *testing.T) {
	s := newTestSpecies(t, 50, []float64{0.2, 0.3, 0.5}, 1)

	if got := len(s.Population()); got != 50 {
		t.Fatalf("unexpected population size: %d", got)
	}
	want := genetics.Frequencies{0.2, 0.3, 0.5}
	if s.AlleleFrequencies() != want {
		t.Fatalf("unexpected frequencies: got=%v want=%v", s.AlleleFrequencies(), want)
	}
}

func TestNewRoundsHalfToEven(t *testing.T) {
	// 2*5*0.25 = 2.5 rounds to 2 and 2*5*0.75 = 7.5 rounds to 8.
	s := newTestSpecies(t, 5, []float64{0.25, 0.75, 0}, 2)
	want := genetics.Frequencies{0.2, 0.8, 0}
	if s.AlleleFrequencies() != want {
		t.Fatalf("unexpected realized frequencies: got=%v want=%v", s.AlleleFrequencies(), want)
	}
}

func TestNewRejectsShortAllelePool(t *testing.T) {
	// 2*3*(1/6) rounds down for every allele: 1+1+3 = 5 < 6.
	_, err := New(3, []float64{1.0 / 6, 1.0 / 6, 0.5}, genetics.LitterDistribution{1: 1}, "short", rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrAllelePool) {
		t.Fatalf("expected allele pool error, got %v", err)
	}
}

func TestNewRejectsWrongArity(t *testing.T) {
	_, err := New(4, []float64{0.5, 0.5}, genetics.LitterDistribution{1: 1}, "pair", rand.New(rand.NewSource(1)))
	if !errors.Is(err, genetics.ErrAlleleArity) {
		t.Fatalf("expected arity error, got %v", err)
	}
}

func TestSetPopulationRejectsWrongSize(t *testing.T) {
	s := newTestSpecies(t, 4, []float64{0.5, 0.5, 0}, 3)
	pop := s.Population()

	err := s.SetPopulation(pop[:3])
	if !errors.Is(err, ErrPopulationSize) {
		t.Fatalf("expected wrong size error, got %v", err)
	}
	err = s.SetPopulation(append(pop, pop[0]))
	if !errors.Is(err, ErrPopulationSize) {
		t.Fatalf("expected wrong size error for oversized population, got %v", err)
	}
}

func TestSetPopulationRecomputesFrequencies(t *testing.T) {
	s := newTestSpecies(t, 4, []float64{0.5, 0.5, 0}, 4)

	homozygote, err := genetics.NewIndividual([2]genetics.Allele{genetics.A2, genetics.A2}, genetics.Male)
	if err != nil {
		t.Fatalf("new individual: %v", err)
	}
	het, err := genetics.NewIndividual([2]genetics.Allele{genetics.A0, genetics.A1}, genetics.Female)
	if err != nil {
		t.Fatalf("new individual: %v", err)
	}
	if err := s.SetPopulation([]genetics.Individual{homozygote, homozygote, homozygote, het}); err != nil {
		t.Fatalf("set population: %v", err)
	}
	want := genetics.Frequencies{0.125, 0.125, 0.75}
	if s.AlleleFrequencies() != want {
		t.Fatalf("unexpected frequencies: got=%v want=%v", s.AlleleFrequencies(), want)
	}
	counts := s.GenotypeCounts()
	if counts.Heterozygotes != 1 || counts.Homozygotes[genetics.A2] != 3 {
		t.Fatalf("unexpected genotype counts: %+v", counts)
	}
	if counts.Heterozygosity() != 0.25 {
		t.Fatalf("unexpected heterozygosity: %v", counts.Heterozygosity())
	}
}

func TestFrequencyDerivationIsIdempotent(t *testing.T) {
	s := newTestSpecies(t, 32, []float64{0.25, 0.25, 0.5}, 5)
	first := s.AlleleFrequencies()
	if err := s.SetPopulation(s.Population()); err != nil {
		t.Fatalf("set population: %v", err)
	}
	if s.AlleleFrequencies() != first {
		t.Fatalf("frequencies changed without mutation: %v -> %v", first, s.AlleleFrequencies())
	}
}

func TestPopulationReturnsCopy(t *testing.T) {
	s := newTestSpecies(t, 4, []float64{1, 0, 0}, 6)
	pop := s.Population()
	other, err := genetics.NewIndividual([2]genetics.Allele{genetics.A1, genetics.A1}, genetics.Male)
	if err != nil {
		t.Fatalf("new individual: %v", err)
	}
	pop[0] = other
	if s.Population()[0].Alleles() != [2]genetics.Allele{genetics.A0, genetics.A0} {
		t.Fatal("caller mutation leaked into species population")
	}
	if s.AlleleFrequencies() != (genetics.Frequencies{1, 0, 0}) {
		t.Fatalf("unexpected frequencies: %v", s.AlleleFrequencies())
	}
}

func TestAccessors(t *testing.T) {
	litter := genetics.LitterDistribution{1: 0.5, 2: 0.5}
	s, err := New(8, []float64{0.5, 0.25, 0.25}, litter, "T. rex", rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("new species: %v", err)
	}
	if s.Name() != "T. rex" || s.PopulationSize() != 8 {
		t.Fatalf("unexpected accessors: %q %d", s.Name(), s.PopulationSize())
	}
	got := s.LitterSizes()
	got[9] = 1
	if _, ok := s.LitterSizes()[9]; ok {
		t.Fatal("litter distribution should be returned as a copy")
	}
	if s.String() == "" {
		t.Fatal("expected string form")
	}
}
