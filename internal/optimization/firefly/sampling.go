package firefly

import (
	"math/rand"

	"github.com/copyleftdev/EMBER/internal/optimization"
)

// Sampling selects the population seeding policy
type Sampling int

const (
	// SamplingUniform draws every coordinate independently uniform within
	// its bounds
	SamplingUniform Sampling = iota

	// SamplingStratified uses Latin Hypercube Sampling: the range of each
	// dimension is split into population-size strata, one draw lands in
	// each stratum, and the strata are permuted across fireflies
	SamplingStratified
)

// String returns the config spelling of the sampling policy
func (s Sampling) String() string {
	switch s {
	case SamplingStratified:
		return "stratified"
	default:
		return "uniform"
	}
}

// ParseSampling maps the config strings "uniform" and "stratified"
func ParseSampling(s string) (Sampling, error) {
	switch s {
	case "uniform":
		return SamplingUniform, nil
	case "stratified":
		return SamplingStratified, nil
	default:
		return 0, optimization.NewErrorf("unknown sampling policy %q (want uniform or stratified)", s)
	}
}

// samplePopulation assigns fresh coordinates to every firefly according to
// the seeding policy. Scores are not touched.
func samplePopulation(flies []Firefly, mins, maxs []float64, policy Sampling, rng *rand.Rand) {
	if policy == SamplingStratified {
		latinHypercube(flies, mins, maxs, rng)
		return
	}
	uniformSample(flies, mins, maxs, rng)
}

// uniformSample draws each coordinate independently in [mins[d], maxs[d])
func uniformSample(flies []Firefly, mins, maxs []float64, rng *rand.Rand) {
	for i := range flies {
		for d := range mins {
			flies[i].Coords[d] = mins[d] + rng.Float64()*(maxs[d]-mins[d])
		}
	}
}

// latinHypercube stratifies each dimension into len(flies) equal bins, puts
// one draw in every bin, and shuffles bin assignment per dimension so the
// joint coverage is spread instead of diagonal.
func latinHypercube(flies []Firefly, mins, maxs []float64, rng *rand.Rand) {
	n := len(flies)
	samples1D := make([]float64, n)

	for d := range mins {
		for j := 0; j < n; j++ {
			samples1D[j] = float64(j) + rng.Float64()
		}

		rng.Shuffle(n, func(k, l int) {
			samples1D[k], samples1D[l] = samples1D[l], samples1D[k]
		})

		width := maxs[d] - mins[d]
		for j := 0; j < n; j++ {
			flies[j].Coords[d] = mins[d] + samples1D[j]/float64(n)*width
		}
	}
}
