// Package objective provides the built-in objective functions the engine
// can be pointed at by name.
package objective

import (
	"sort"
	"strings"

	"github.com/copyleftdev/EMBER/internal/optimization"
)

// builders maps registry keys to constructors. Keys are lower-case.
var builders = map[string]func(dim int) optimization.Objective{
	"dejung":     newDeJung,
	"ackley":     newAckley,
	"rosenbrock": newRosenbrock,
}

// New returns the named objective bound to dim dimensions.
// The name is matched case-insensitively.
func New(name string, dim int) (optimization.Objective, error) {
	if dim <= 0 {
		return nil, optimization.WrapErrorf(optimization.ErrInvalidDimension,
			"objective %q requested with dimension %d", name, dim)
	}
	build, ok := builders[strings.ToLower(name)]
	if !ok {
		return nil, optimization.WrapErrorf(optimization.ErrUnknownObjective,
			"%q is not registered (known: %s)", name, strings.Join(Names(), ", "))
	}
	return build(dim), nil
}

// Names lists the registered objective names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// function is the common implementation behind the registered objectives.
type function struct {
	name string
	dim  int
	mins []float64
	maxs []float64
	eval func(coords []float64) float64
}

func (f *function) Name() string   { return f.name }
func (f *function) Dimension() int { return f.dim }

func (f *function) Bounds() (mins, maxs []float64) {
	return f.mins, f.maxs
}

func (f *function) Evaluate(coords []float64) (float64, error) {
	if len(coords) != f.dim {
		return 0, optimization.NewErrorf("objective %s expects %d coordinates, got %d",
			f.name, f.dim, len(coords))
	}
	return f.eval(coords), nil
}

// symmetricBounds builds the box [-limit, limit] in every dimension.
func symmetricBounds(dim int, limit float64) (mins, maxs []float64) {
	mins = make([]float64, dim)
	maxs = make([]float64, dim)
	for i := range mins {
		mins[i] = -limit
		maxs[i] = limit
	}
	return mins, maxs
}
