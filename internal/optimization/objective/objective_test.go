package objective

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/copyleftdev/EMBER/internal/optimization"
)

func TestObjectiveValues(t *testing.T) {
	tests := []struct {
		name     string
		fn       string
		dim      int
		coords   []float64
		expected float64
	}{
		{
			name:     "dejung at origin",
			fn:       "dejung",
			dim:      2,
			coords:   []float64{0, 0},
			expected: 0,
		},
		{
			name:     "dejung sums squares",
			fn:       "dejung",
			dim:      3,
			coords:   []float64{1, 2, 3},
			expected: 14,
		},
		{
			name:     "ackley at origin",
			fn:       "ackley",
			dim:      4,
			coords:   []float64{0, 0, 0, 0},
			expected: 0,
		},
		{
			name:   "ackley one dimensional",
			fn:     "ackley",
			dim:    1,
			coords: []float64{1.0},
			// -20*exp(-0.2) - exp(cos(2*pi)) + 20 + e
			expected: -20*math.Exp(-0.2) - math.E + 20 + math.E,
		},
		{
			name:     "rosenbrock at minimum",
			fn:       "rosenbrock",
			dim:      2,
			coords:   []float64{1, 1},
			expected: 0,
		},
		{
			name:     "rosenbrock at origin",
			fn:       "rosenbrock",
			dim:      2,
			coords:   []float64{0, 0},
			expected: 1,
		},
		{
			name:     "rosenbrock three dimensional",
			fn:       "rosenbrock",
			dim:      3,
			coords:   []float64{-1, 2, 2},
			expected: 505,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := New(tt.fn, tt.dim)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := fn.Evaluate(tt.coords)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestObjectiveBounds(t *testing.T) {
	tests := []struct {
		fn    string
		dim   int
		limit float64
	}{
		{fn: "dejung", dim: 3, limit: 5.12},
		{fn: "ackley", dim: 2, limit: 32.768},
		{fn: "rosenbrock", dim: 5, limit: 2.048},
	}

	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			fn, err := New(tt.fn, tt.dim)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fn.Dimension() != tt.dim {
				t.Errorf("expected dimension %d, got %d", tt.dim, fn.Dimension())
			}
			mins, maxs := fn.Bounds()
			if len(mins) != tt.dim || len(maxs) != tt.dim {
				t.Fatalf("bounds length mismatch: %d mins, %d maxs", len(mins), len(maxs))
			}
			for i := range mins {
				if mins[i] != -tt.limit || maxs[i] != tt.limit {
					t.Errorf("dimension %d: expected [%v, %v], got [%v, %v]",
						i, -tt.limit, tt.limit, mins[i], maxs[i])
				}
			}
		})
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New("nosuchfunction", 2); !errors.Is(err, optimization.ErrUnknownObjective) {
		t.Errorf("expected ErrUnknownObjective, got %v", err)
	}
	if _, err := New("dejung", 0); !errors.Is(err, optimization.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
	if _, err := New("dejung", -3); !errors.Is(err, optimization.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestNewIsCaseInsensitive(t *testing.T) {
	fn, err := New("DeJung", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fn.Name() != "dejung" {
		t.Errorf("expected canonical name dejung, got %s", fn.Name())
	}
}

func TestNames(t *testing.T) {
	want := []string{"ackley", "dejung", "rosenbrock"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEvaluateDimensionMismatch(t *testing.T) {
	fn, err := New("dejung", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fn.Evaluate([]float64{1, 2, 3}); err == nil {
		t.Fatal("expected error for mismatched coordinate count, got nil")
	}
}
