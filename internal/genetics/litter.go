package genetics

import "sort"

// LitterDistribution maps a litter size to the probability that a mating
// produces that many offspring.
type LitterDistribution map[int]float64

// Sizes returns the litter sizes in ascending order.
func (d LitterDistribution) Sizes() []int {
	sizes := make([]int, 0, len(d))
	for size := range d {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}

// Total returns the exactly rounded sum of all probabilities.
func (d LitterDistribution) Total() float64 {
	probs := make([]float64, 0, len(d))
	for _, size := range d.Sizes() {
		probs = append(probs, d[size])
	}
	return ExactSum(probs)
}

func (d LitterDistribution) Clone() LitterDistribution {
	out := make(LitterDistribution, len(d))
	for size, p := range d {
		out[size] = p
	}
	return out
}
