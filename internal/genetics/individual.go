package genetics

import "fmt"

// Individual is a diploid genotype plus a sex tag. Values are never mutated;
// offspring are new Individuals.
type Individual struct {
	alleles [2]Allele
	sex     Sex
}

func NewIndividual(alleles [2]Allele, sex Sex) (Individual, error) {
	for _, allele := range alleles {
		if !allele.Valid() {
			return Individual{}, fmt.Errorf("%w: %d (must be 0, 1, or 2)", ErrInvalidAllele, int(allele))
		}
	}
	if !sex.Valid() {
		return Individual{}, fmt.Errorf("%w: %d (must be male or female)", ErrInvalidSex, int(sex))
	}
	return Individual{alleles: alleles, sex: sex}, nil
}

func (i Individual) Alleles() [2]Allele {
	return i.alleles
}

func (i Individual) Sex() Sex {
	return i.sex
}

func (i Individual) IsHeterozygous() bool {
	return i.alleles[0] != i.alleles[1]
}

func (i Individual) String() string {
	return fmt.Sprintf("%s(%d,%d)", i.sex, int(i.alleles[0]), int(i.alleles[1]))
}
