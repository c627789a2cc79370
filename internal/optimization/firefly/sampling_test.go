package firefly

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFlies(n, dim int) []Firefly {
	flies := make([]Firefly, n)
	for i := range flies {
		flies[i] = newFirefly(dim)
	}
	return flies
}

func TestUniformSamplingWithinBounds(t *testing.T) {
	mins := []float64{-3, 2}
	maxs := []float64{7, 2.5}
	flies := makeFlies(50, 2)

	samplePopulation(flies, mins, maxs, SamplingUniform, rand.New(rand.NewSource(42)))

	for i, f := range flies {
		for d := range mins {
			assert.GreaterOrEqual(t, f.Coords[d], mins[d], "firefly %d dimension %d", i, d)
			assert.Less(t, f.Coords[d], maxs[d], "firefly %d dimension %d", i, d)
		}
	}
}

func TestStratifiedSamplingCoversEveryStratum(t *testing.T) {
	mins := []float64{-2, 0}
	maxs := []float64{2, 5}
	n := 10
	flies := makeFlies(n, 2)

	samplePopulation(flies, mins, maxs, SamplingStratified, rand.New(rand.NewSource(42)))

	// Latin hypercube property: dividing each dimension into n bins,
	// every bin holds exactly one firefly
	for d := range mins {
		bins := make([]bool, n)
		for i, f := range flies {
			assert.GreaterOrEqual(t, f.Coords[d], mins[d])
			assert.LessOrEqual(t, f.Coords[d], maxs[d])

			bin := int(float64(n) * (f.Coords[d] - mins[d]) / (maxs[d] - mins[d]))
			if bin >= n {
				bin = n - 1
			}
			assert.False(t, bins[bin], "firefly %d landed in an occupied bin %d of dimension %d", i, bin, d)
			bins[bin] = true
		}
	}
}

func TestStratifiedSamplingShufflesDimensionsIndependently(t *testing.T) {
	mins := []float64{0, 0}
	maxs := []float64{1, 1}
	n := 16
	flies := makeFlies(n, 2)

	samplePopulation(flies, mins, maxs, SamplingStratified, rand.New(rand.NewSource(7)))

	// If the per-dimension permutations were shared, every firefly would
	// sit on the main diagonal (equal bin index in both dimensions)
	diagonal := 0
	for _, f := range flies {
		binX := int(float64(n) * f.Coords[0])
		binY := int(float64(n) * f.Coords[1])
		if binX == binY {
			diagonal++
		}
	}
	assert.Less(t, diagonal, n, "strata permutations look identical across dimensions")
}

func TestParseSampling(t *testing.T) {
	s, err := ParseSampling("uniform")
	require.NoError(t, err)
	assert.Equal(t, SamplingUniform, s)

	s, err = ParseSampling("stratified")
	require.NoError(t, err)
	assert.Equal(t, SamplingStratified, s)

	_, err = ParseSampling("sobol")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown sampling policy")

	assert.Equal(t, "uniform", SamplingUniform.String())
	assert.Equal(t, "stratified", SamplingStratified.String())
}
