package genetics

import (
	"errors"
	"fmt"
)

// NumAlleles is the number of alleles tracked at the locus.
const NumAlleles = 3

var (
	ErrInvalidAllele = errors.New("invalid allele")
	ErrInvalidSex    = errors.New("invalid sex")
	ErrAlleleArity   = errors.New("allele arity mismatch")
)

// Allele identifies one of the three variants at the simulated locus.
type Allele int

const (
	A0 Allele = iota
	A1
	A2
)

func (a Allele) Valid() bool {
	return a >= A0 && a <= A2
}

func (a Allele) String() string {
	return fmt.Sprintf("a_%d", int(a))
}

// Frequencies holds the frequency of each allele, indexed by Allele.
type Frequencies [NumAlleles]float64

// Sum returns the exactly rounded sum of the three frequencies.
func (f Frequencies) Sum() float64 {
	return ExactSum(f[:])
}

// Fixed reports the allele whose frequency is exactly 1.0, if any.
func (f Frequencies) Fixed() (Allele, bool) {
	for i, freq := range f {
		if freq == 1.0 {
			return Allele(i), true
		}
	}
	return 0, false
}

// FrequenciesFromSlice converts a configuration vector, rejecting any length other than three.
func FrequenciesFromSlice(values []float64) (Frequencies, error) {
	var out Frequencies
	if len(values) != NumAlleles {
		return out, fmt.Errorf("%w: need exactly %d allele frequencies, got %d", ErrAlleleArity, NumAlleles, len(values))
	}
	copy(out[:], values)
	return out, nil
}
