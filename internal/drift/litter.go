package drift

import (
	"math/rand"

	"driftsim/internal/genetics"
)

// litterSampler draws litter sizes by rejection: pick a size uniformly from
// the key set, then accept it with that size's own probability. Keys are held
// in ascending order so seeded runs are reproducible.
//
// A distribution in which every size has probability 0 never accepts and
// sample does not return. Simulator.Run rejects such distributions, along with
// non-positive sizes, before breeding.
type litterSampler struct {
	sizes []int
	probs []float64
}

func newLitterSampler(d genetics.LitterDistribution) litterSampler {
	sizes := d.Sizes()
	probs := make([]float64, len(sizes))
	for i, size := range sizes {
		probs[i] = d[size]
	}
	return litterSampler{sizes: sizes, probs: probs}
}

func (ls litterSampler) sample(rng *rand.Rand) int {
	for {
		i := rng.Intn(len(ls.sizes))
		if rng.Float64() < ls.probs[i] {
			return ls.sizes[i]
		}
	}
}

func (ls litterSampler) max() int {
	if len(ls.sizes) == 0 || ls.sizes[len(ls.sizes)-1] < 0 {
		return 0
	}
	return ls.sizes[len(ls.sizes)-1]
}

// SampleLitterSize draws one litter size from d with the rejection scheme
// used during reproduction. d must not be empty.
func SampleLitterSize(rng *rand.Rand, d genetics.LitterDistribution) int {
	return newLitterSampler(d).sample(rng)
}
