package genetics

import "math/rand"

// Sex is the two-valued sex tag carried by every individual.
type Sex int

const (
	Male Sex = iota
	Female
)

// SexFromValue maps the Male tag to Male and every other value to Female.
func SexFromValue(v int) Sex {
	if v == int(Male) {
		return Male
	}
	return Female
}

// ParseSex accepts the single-letter shorthand. "M" and "m" are Male; any
// other input, including garbage, is Female.
func ParseSex(s string) Sex {
	if s == "M" || s == "m" {
		return Male
	}
	return Female
}

// RandomSex picks Male or Female with equal probability.
func RandomSex(rng *rand.Rand) Sex {
	return Sex(rng.Intn(2))
}

func (s Sex) Valid() bool {
	return s == Male || s == Female
}

func (s Sex) Equal(other Sex) bool {
	return s == other
}

// Is compares against a raw integer tag.
func (s Sex) Is(tag int) bool {
	return int(s) == tag
}

func (s Sex) String() string {
	if s == Male {
		return "Male"
	}
	return "Female"
}
