package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/EMBER/internal/optimization/firefly"
)

var epsilon float64

var convergeCmd = &cobra.Command{
	Use:   "converge",
	Short: "Run until the population means settle",
	Long: `Runs the Firefly Algorithm until the absolute difference between the
mean scores of two consecutive generations drops below epsilon, then prints
the best solution found.`,
	RunE: runConvergence,
}

func init() {
	registerEngineFlags(convergeCmd)
	convergeCmd.Flags().Float64Var(&epsilon, "epsilon", firefly.DefaultEpsilon, "Convergence threshold on the delta of population means")
	rootCmd.AddCommand(convergeCmd)
}

func runConvergence(cmd *cobra.Command, args []string) error {
	pop, err := buildPopulation()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := pop.Converge(ctx)
	if err != nil {
		return err
	}

	return report(result, time.Since(start))
}
