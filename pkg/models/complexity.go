package models

// ComplexityTier classifies how much work a request needs before it can be answered.
type ComplexityTier string

const (
	// ComplexitySimple requests are answered by a single subtask.
	ComplexitySimple ComplexityTier = "simple"
	// ComplexityModerate requests may be split into a few dependent subtasks.
	ComplexityModerate ComplexityTier = "moderate"
	// ComplexityComplex requests span several data domains or actions.
	ComplexityComplex ComplexityTier = "complex"
)

// Valid returns true if the tier is a known value.
func (t ComplexityTier) Valid() bool {
	switch t {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

// Rank orders tiers from SIMPLE (0) to COMPLEX (2). Unknown tiers rank as SIMPLE.
func (t ComplexityTier) Rank() int {
	switch t {
	case ComplexityModerate:
		return 1
	case ComplexityComplex:
		return 2
	default:
		return 0
	}
}

// AtLeast returns the higher of t and floor.
func (t ComplexityTier) AtLeast(floor ComplexityTier) ComplexityTier {
	if floor.Rank() > t.Rank() {
		return floor
	}
	return t
}

// Bump returns the next tier up, saturating at COMPLEX.
func (t ComplexityTier) Bump() ComplexityTier {
	switch t {
	case ComplexitySimple:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}
