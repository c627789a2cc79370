package firefly

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Firefly is a single candidate solution: a coordinate vector plus the
// cached objective score at that position
type Firefly struct {
	// Coords is the position in the search space
	Coords []float64

	// Score is the objective value at Coords. It is refreshed once after
	// every full update step; during a fold it keeps the value the firefly
	// entered the generation with.
	Score float64

	// moved records whether any attraction acted during the current update
	// step. The hybrid escape move fires only when it stays false for the
	// whole fold.
	moved bool
}

// genParams is the immutable parameter set one generation runs under.
// Workers receive it by value and never reach back into Population state.
type genParams struct {
	alpha float64
	beta0 float64
	gamma float64
	mins  []float64
	maxs  []float64
}

// newFirefly allocates a firefly with dim zeroed coordinates
func newFirefly(dim int) Firefly {
	return Firefly{Coords: make([]float64, dim)}
}

// copyFrom turns f into an independent deep copy of other
func (f *Firefly) copyFrom(other *Firefly) {
	copy(f.Coords, other.Coords)
	f.Score = other.Score
	f.moved = other.moved
}

// fold applies the attraction rule against every snapshot member in index
// order. Coordinate changes accumulate within the step: comparison k+1 sees
// the position comparison k left behind. The cached score is not refreshed
// until the whole update step finishes.
func (f *Firefly) fold(snapshot []Firefly, p genParams, rng *rand.Rand) {
	for i := range snapshot {
		f.attractTo(&snapshot[i], p, rng)
	}
}

// attractTo moves f toward other if other is strictly brighter (lower
// score). Attractiveness decays with the squared Euclidean distance between
// the current positions.
func (f *Firefly) attractTo(other *Firefly, p genParams, rng *rand.Rand) {
	if f.Score <= other.Score {
		return
	}
	dist := floats.Distance(f.Coords, other.Coords, 2)
	beta := p.beta0 * math.Exp(-p.gamma*dist*dist)
	f.move(other, beta, p, rng)
}

// move blends f toward other with attractiveness beta and jitters every
// dimension by alpha*(U-0.5), clamping back into the search box.
func (f *Firefly) move(other *Firefly, beta float64, p genParams, rng *rand.Rand) {
	for i := range f.Coords {
		jitter := p.alpha * (rng.Float64() - 0.5)
		val := (1-beta)*other.Coords[i] + beta*f.Coords[i] + jitter
		f.Coords[i] = clamp(val, p.mins[i], p.maxs[i])
	}
	f.moved = true
}

// moveRandom jitters every dimension by alpha*(U-0.5) from the current
// position, clamped. The hybrid variant uses it when no neighbor attracted f.
func (f *Firefly) moveRandom(p genParams, rng *rand.Rand) {
	for i := range f.Coords {
		jitter := p.alpha * (rng.Float64() - 0.5)
		f.Coords[i] = clamp(f.Coords[i]+jitter, p.mins[i], p.maxs[i])
	}
}

// clamp keeps v inside [min, max]
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
