package optimization

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  NewError("population collapsed"),
			want: "population collapsed",
		},
		{
			name: "component and op",
			err:  NewError("population collapsed").WithComponent("firefly").WithOperation("Population.Run"),
			want: "firefly: Population.Run: population collapsed",
		},
		{
			name: "component only",
			err:  NewError("population collapsed").WithComponent("firefly"),
			want: "firefly: population collapsed",
		},
		{
			name: "op only",
			err:  NewError("population collapsed").WithOperation("Population.Run"),
			want: "Population.Run: population collapsed",
		},
		{
			name: "wrapped with context",
			err:  WrapError(ErrDegenerateBounds, "dimension 3").WithComponent("firefly").WithOperation("Population.Run"),
			want: "firefly: Population.Run: dimension 3: degenerate bounds",
		},
		{
			name: "wrapped without context",
			err:  WrapError(ErrDegenerateBounds, "dimension 3"),
			want: "dimension 3: degenerate bounds",
		},
		{
			name: "formatted message",
			err:  NewErrorf("generation %d of %d", 7, 100),
			want: "generation 7 of 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestErrorNilReceiver(t *testing.T) {
	var e *Error
	if got := e.Error(); got != "<nil>" {
		t.Errorf("expected <nil>, got %q", got)
	}
	if e.Unwrap() != nil {
		t.Error("expected nil from Unwrap on nil receiver")
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(nil, "ignored") != nil {
		t.Error("expected nil when wrapping nil")
	}
	if WrapErrorf(nil, "ignored %d", 1) != nil {
		t.Error("expected nil when wrapping nil")
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	sentinels := []error{
		ErrUnknownObjective,
		ErrInvalidDimension,
		ErrInvalidPopulationSize,
		ErrDegenerateBounds,
	}

	for _, sentinel := range sentinels {
		wrapped := WrapErrorf(sentinel, "while validating").WithComponent("firefly")
		if !errors.Is(wrapped, sentinel) {
			t.Errorf("errors.Is lost sentinel %v through wrapping", sentinel)
		}
		rewrapped := fmt.Errorf("run aborted: %w", wrapped)
		if !errors.Is(rewrapped, sentinel) {
			t.Errorf("errors.Is lost sentinel %v through double wrapping", sentinel)
		}
	}
}

func TestIsOptimizationError(t *testing.T) {
	optErr := NewError("bad request").WithComponent("server")
	if got, ok := IsOptimizationError(optErr); !ok || got != optErr {
		t.Error("expected IsOptimizationError to recognize *Error")
	}
	if _, ok := IsOptimizationError(errors.New("plain")); ok {
		t.Error("expected plain errors to be rejected")
	}
	if _, ok := IsOptimizationError(nil); ok {
		t.Error("expected nil to be rejected")
	}
}

func TestCopySolution(t *testing.T) {
	params := []float64{1.5, -2.0, 0.25}
	sol := CopySolution(params, 6.3125)

	if sol.Value != 6.3125 {
		t.Errorf("expected value 6.3125, got %v", sol.Value)
	}
	params[0] = 99
	if sol.Parameters[0] != 1.5 {
		t.Error("expected CopySolution to own its parameter storage")
	}
}
