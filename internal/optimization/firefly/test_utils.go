package firefly

// testObjective is a minimal Objective implementation for exercising the
// engine against hand-built functions.
type testObjective struct {
	name string
	dim  int
	mins []float64
	maxs []float64
	eval func(coords []float64) (float64, error)
}

func (o *testObjective) Name() string   { return o.name }
func (o *testObjective) Dimension() int { return o.dim }

func (o *testObjective) Bounds() (mins, maxs []float64) {
	return o.mins, o.maxs
}

func (o *testObjective) Evaluate(coords []float64) (float64, error) {
	return o.eval(coords)
}

// newQuadratic builds a sum-of-squares bowl over [-limit, limit]^dim with
// its minimum 0 at the origin
func newQuadratic(dim int, limit float64) *testObjective {
	mins := make([]float64, dim)
	maxs := make([]float64, dim)
	for i := range mins {
		mins[i] = -limit
		maxs[i] = limit
	}
	return &testObjective{
		name: "quadratic",
		dim:  dim,
		mins: mins,
		maxs: maxs,
		eval: func(coords []float64) (float64, error) {
			sum := 0.0
			for _, c := range coords {
				sum += c * c
			}
			return sum, nil
		},
	}
}

// newBowl is the canonical 2-D quadratic over [-5, 5]^2
func newBowl() *testObjective {
	return newQuadratic(2, 5)
}

// newConstant scores every point the same
func newConstant(dim int, value float64) *testObjective {
	mins := make([]float64, dim)
	maxs := make([]float64, dim)
	for i := range mins {
		mins[i] = -1
		maxs[i] = 1
	}
	return &testObjective{
		name: "constant",
		dim:  dim,
		mins: mins,
		maxs: maxs,
		eval: func(coords []float64) (float64, error) {
			return value, nil
		},
	}
}
