package objective

import (
	"math"

	"github.com/copyleftdev/EMBER/internal/optimization"
)

// newDeJung creates De Jong's first function (the sphere): sum of squared
// coordinates over the box [-5.12, 5.12]^dim. Global minimum 0 at the origin.
func newDeJung(dim int) optimization.Objective {
	mins, maxs := symmetricBounds(dim, 5.12)
	return &function{
		name: "dejung",
		dim:  dim,
		mins: mins,
		maxs: maxs,
		eval: func(coords []float64) float64 {
			sum := 0.0
			for _, c := range coords {
				sum += c * c
			}
			return sum
		},
	}
}

// newAckley creates the Ackley function with the standard constants a=20,
// b=0.2, c=2*pi over the box [-32.768, 32.768]^dim. Highly multimodal with
// the global minimum 0 at the origin.
func newAckley(dim int) optimization.Objective {
	const (
		a = 20.0
		b = 0.2
		c = 2 * math.Pi
	)
	mins, maxs := symmetricBounds(dim, 32.768)
	return &function{
		name: "ackley",
		dim:  dim,
		mins: mins,
		maxs: maxs,
		eval: func(coords []float64) float64 {
			n := float64(len(coords))
			sumSq := 0.0
			sumCos := 0.0
			for _, x := range coords {
				sumSq += x * x
				sumCos += math.Cos(c * x)
			}
			return -a*math.Exp(-b*math.Sqrt(sumSq/n)) - math.Exp(sumCos/n) + a + math.E
		},
	}
}

// newRosenbrock creates the Rosenbrock valley over the box
// [-2.048, 2.048]^dim. Global minimum 0 at (1, ..., 1).
func newRosenbrock(dim int) optimization.Objective {
	mins, maxs := symmetricBounds(dim, 2.048)
	return &function{
		name: "rosenbrock",
		dim:  dim,
		mins: mins,
		maxs: maxs,
		eval: func(coords []float64) float64 {
			sum := 0.0
			for i := 0; i+1 < len(coords); i++ {
				a := coords[i+1] - coords[i]*coords[i]
				b := 1 - coords[i]
				sum += 100*a*a + b*b
			}
			return sum
		},
	}
}
