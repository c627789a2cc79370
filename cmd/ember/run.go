package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/EMBER/internal/logging"
	"github.com/copyleftdev/EMBER/internal/optimization"
	"github.com/copyleftdev/EMBER/internal/optimization/firefly"
	"github.com/copyleftdev/EMBER/internal/optimization/objective"
	"github.com/copyleftdev/EMBER/internal/store"
)

var (
	objectiveName string
	dimensions    int
	generations   int
	popSize       int
	alpha         float64
	beta          float64
	gamma         float64
	gammaRange    float64
	variantName   string
	samplingName  string
	seed          int64
	workers       int
	dumpPath      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fixed number of generations",
	Long: `Runs the Firefly Algorithm for a fixed generation count against a
registered objective and prints the best solution found.`,
	RunE: runOptimization,
}

func init() {
	registerEngineFlags(runCmd)
	runCmd.Flags().IntVar(&generations, "generations", 100, "Generations to run")
	rootCmd.AddCommand(runCmd)
}

// registerEngineFlags binds the engine parameters shared by run and converge.
func registerEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&objectiveName, "objective", "", "Objective function name (required)")
	cmd.Flags().IntVar(&dimensions, "dim", 2, "Dimension count")
	cmd.Flags().IntVar(&popSize, "pop", 20, "Population size")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.2, "Jitter scale alpha0")
	cmd.Flags().Float64Var(&beta, "beta", 1.0, "Attractiveness at distance zero beta0")
	cmd.Flags().Float64Var(&gamma, "gamma", 1.0, "Light absorption gamma0")
	cmd.Flags().Float64Var(&gammaRange, "gamma-range", 0, "Coordinate range used to scale gamma (0 = extent of the first dimension)")
	cmd.Flags().StringVar(&variantName, "variant", "plain", "Update scheme: plain or hybrid")
	cmd.Flags().StringVar(&samplingName, "sampling", "stratified", "Seeding policy: uniform or stratified")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = seed from the clock)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Evaluation workers (0 = CPU count)")
	cmd.Flags().StringVar(&dumpPath, "dump", "", "Write the final population coordinates to this file")
	cmd.MarkFlagRequired("objective")
}

// buildPopulation assembles the engine from the flag values.
func buildPopulation() (*firefly.Population, error) {
	variant, err := firefly.ParseVariant(variantName)
	if err != nil {
		return nil, err
	}
	sampling, err := firefly.ParseSampling(samplingName)
	if err != nil {
		return nil, err
	}

	obj, err := objective.New(objectiveName, dimensions)
	if err != nil {
		return nil, err
	}

	return firefly.NewPopulation(firefly.Config{
		Generations:    generations,
		PopulationSize: popSize,
		Alpha0:         alpha,
		Beta0:          beta,
		Gamma0:         gamma,
		GammaRange:     gammaRange,
		Variant:        variant,
		Sampling:       sampling,
		Workers:        workers,
		Seed:           seed,
		Epsilon:        epsilon,
	}, obj, logging.NewZapLogger(logger))
}

func runOptimization(cmd *cobra.Command, args []string) error {
	pop, err := buildPopulation()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := pop.Run(ctx)
	if err != nil {
		return err
	}

	return report(result, time.Since(start))
}

// report prints the outcome and writes the coordinate dump when requested.
func report(result *optimization.Result, elapsed time.Duration) error {
	logger.Info("Optimization complete", map[string]interface{}{
		"objective":   objectiveName,
		"best_score":  result.Best.Value,
		"generations": result.Generations,
		"evaluations": result.Evaluations,
		"converged":   result.Converged,
		"elapsed":     elapsed.String(),
	})

	fmt.Printf("f(%v) = %g\n", result.Best.Parameters, result.Best.Value)
	fmt.Printf("%d generations, %d evaluations in %s\n",
		result.Generations, result.Evaluations, elapsed.Round(time.Millisecond))

	if dumpPath != "" {
		if err := store.SaveCoordinates(dumpPath, result.Population); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", dumpPath)
	}
	return nil
}
