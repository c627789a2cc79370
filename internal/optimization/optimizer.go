package optimization

import (
	"context"
)

// Optimizer defines the interface for optimization engines
type Optimizer interface {
	// Run executes a fixed number of generations and returns the result
	Run(ctx context.Context) (*Result, error)

	// Converge runs until the population score means settle below the
	// engine's convergence threshold
	Converge(ctx context.Context) (*Result, error)
}

// Objective is a function to be minimized: lower scores are better.
// Evaluate is called concurrently and must be safe for parallel use.
type Objective interface {
	// Name identifies the function in registries and logs
	Name() string

	// Dimension is the number of coordinates the function accepts
	Dimension() int

	// Bounds returns the inclusive per-dimension search box; both slices
	// have Dimension() elements
	Bounds() (mins, maxs []float64)

	// Evaluate scores a coordinate vector. Scoring must be a pure
	// function of coords; a non-nil error aborts the calling run.
	Evaluate(coords []float64) (float64, error)
}

// Solution represents a point in the optimization space
type Solution struct {
	Parameters []float64
	Value      float64
}

// Result contains the outcome of an optimization run
type Result struct {
	// Best is the lowest-scoring solution in the final population
	Best *Solution

	// Population is the final population, ordered best first
	Population []Solution

	// BestByGeneration records the lowest score after each generation
	BestByGeneration []float64

	// Generations actually executed
	Generations int

	// Evaluations is generations executed times population size
	Evaluations int

	// Converged reports whether the delta-of-means criterion stopped the
	// run; always false for fixed-length runs
	Converged bool
}

// CopySolution returns a Solution with its own parameter storage.
func CopySolution(params []float64, value float64) *Solution {
	p := make([]float64, len(params))
	copy(p, params)
	return &Solution{Parameters: p, Value: value}
}
