// Package firefly implements the Firefly Algorithm for continuous-domain
// minimization: a population of candidate solutions moves toward brighter
// (lower-scoring) neighbors under a distance-decayed attraction rule.
package firefly

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/EMBER/internal/optimization"
)

// DefaultEpsilon is the convergence threshold on the delta between the
// score means of two consecutive generations.
const DefaultEpsilon = 1e-5

// Variant selects the per-generation update scheme
type Variant int

const (
	// VariantPlain keeps alpha constant at alpha0 for the whole run
	VariantPlain Variant = iota

	// VariantHybrid anneals alpha as alpha0/ln(i) per generation and lets
	// fireflies that no brighter neighbor attracted take a random escape step
	VariantHybrid
)

// String returns the config spelling of the variant
func (v Variant) String() string {
	switch v {
	case VariantHybrid:
		return "hybrid"
	default:
		return "plain"
	}
}

// ParseVariant maps the config strings "plain" and "hybrid"
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "plain":
		return VariantPlain, nil
	case "hybrid":
		return VariantHybrid, nil
	default:
		return 0, optimization.NewErrorf("unknown variant %q (want plain or hybrid)", s)
	}
}

// Config holds the engine parameters for one Population
type Config struct {
	// Generations run by Run. Converge ignores it and runs until the
	// population means settle.
	Generations int

	// PopulationSize is the number of fireflies
	PopulationSize int

	// Alpha0 scales the random jitter added to every move
	Alpha0 float64

	// Beta0 is the attractiveness at distance zero
	Beta0 float64

	// Gamma0 is the light absorption coefficient before range scaling
	Gamma0 float64

	// Variant selects plain or hybrid updates
	Variant Variant

	// Sampling selects the population seeding policy
	Sampling Sampling

	// Workers caps the evaluation pool size. Defaults to the CPU count
	// and never exceeds the population size.
	Workers int

	// Seed makes runs reproducible; 0 seeds from the clock
	Seed int64

	// Epsilon overrides DefaultEpsilon for Converge when positive
	Epsilon float64

	// GammaRange overrides the coordinate range used to scale Gamma0 into
	// gamma. When zero the extent of the first dimension is used.
	GammaRange float64
}

// Population drives the firefly search over one objective. It is
// constructed once per objective binding; every Run or Converge call
// reseeds both internal populations fresh.
type Population struct {
	cfg Config
	obj optimization.Objective

	mins []float64
	maxs []float64

	// snapshot[i] is the frozen start-of-generation copy of current[i];
	// workers read only the snapshot and write only their own slot
	current  []Firefly
	snapshot []Firefly

	alpha float64
	gamma float64
	seed  int64

	logger *zap.Logger
}

// NewPopulation builds an engine over obj. The configuration is validated
// eagerly; bound degeneracy is checked when a run starts.
func NewPopulation(cfg Config, obj optimization.Objective, logger *zap.Logger) (*Population, error) {
	const op = "firefly.NewPopulation"

	if obj == nil {
		return nil, optimization.NewError("objective must not be nil").WithOperation(op)
	}
	if cfg.PopulationSize <= 0 {
		return nil, optimization.WrapErrorf(optimization.ErrInvalidPopulationSize,
			"got %d", cfg.PopulationSize).WithOperation(op)
	}
	dim := obj.Dimension()
	if dim <= 0 {
		return nil, optimization.WrapErrorf(optimization.ErrInvalidDimension,
			"objective %s reports dimension %d", obj.Name(), dim).WithOperation(op)
	}
	if cfg.Alpha0 <= 0 {
		return nil, optimization.NewErrorf("alpha0 must be positive, got %v", cfg.Alpha0).WithOperation(op)
	}
	if cfg.Beta0 <= 0 {
		return nil, optimization.NewErrorf("beta0 must be positive, got %v", cfg.Beta0).WithOperation(op)
	}
	if cfg.Gamma0 <= 0 {
		return nil, optimization.NewErrorf("gamma0 must be positive, got %v", cfg.Gamma0).WithOperation(op)
	}

	mins, maxs := obj.Bounds()
	if len(mins) != dim || len(maxs) != dim {
		return nil, optimization.NewErrorf("objective %s bounds cover %d/%d dimensions, want %d",
			obj.Name(), len(mins), len(maxs), dim).WithOperation(op)
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = DefaultEpsilon
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}

	p := &Population{
		cfg:      cfg,
		obj:      obj,
		mins:     append([]float64(nil), mins...),
		maxs:     append([]float64(nil), maxs...),
		seed:     cfg.Seed,
		current:  make([]Firefly, cfg.PopulationSize),
		snapshot: make([]Firefly, cfg.PopulationSize),
		logger:   logger.Named("firefly"),
	}
	for i := range p.current {
		p.current[i] = newFirefly(dim)
		p.snapshot[i] = newFirefly(dim)
	}
	return p, nil
}

// Run executes exactly cfg.Generations generations and returns the final
// population sorted ascending by score, best first.
func (p *Population) Run(ctx context.Context) (*optimization.Result, error) {
	const op = "Population.Run"

	if p.cfg.Generations <= 0 {
		return nil, optimization.NewErrorf("generations must be positive, got %d",
			p.cfg.Generations).WithComponent("firefly").WithOperation(op)
	}

	e := newEvaluator(p.workers())
	defer e.close()

	if err := p.setup(e); err != nil {
		return nil, err
	}

	p.logger.Info("starting run",
		zap.String("objective", p.obj.Name()),
		zap.String("variant", p.cfg.Variant.String()),
		zap.Int("population", p.cfg.PopulationSize),
		zap.Int("generations", p.cfg.Generations),
		zap.Int("workers", p.workers()),
		zap.Int64("seed", p.seed),
	)

	best := make([]float64, 0, p.cfg.Generations)
	for gen := 0; gen < p.cfg.Generations; gen++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := p.step(e, gen); err != nil {
			return nil, optimization.WrapError(err, "firefly: "+op)
		}
		best = append(best, p.bestScore())

		p.logger.Debug("generation complete",
			zap.Int("generation", gen),
			zap.Float64("alpha", p.alpha),
			zap.Float64("best_score", best[gen]),
		)
	}

	p.sortByScore()
	result := p.result(p.cfg.Generations, best, false)

	p.logger.Info("run complete",
		zap.Float64("best_score", result.Best.Value),
		zap.Int("evaluations", result.Evaluations),
	)
	return result, nil
}

// Converge runs generations until the absolute difference between the mean
// score of the current population and the mean score of the previous one
// drops below epsilon.
func (p *Population) Converge(ctx context.Context) (*optimization.Result, error) {
	const op = "Population.Converge"

	e := newEvaluator(p.workers())
	defer e.close()

	if err := p.setup(e); err != nil {
		return nil, err
	}

	p.logger.Info("starting convergence run",
		zap.String("objective", p.obj.Name()),
		zap.String("variant", p.cfg.Variant.String()),
		zap.Int("population", p.cfg.PopulationSize),
		zap.Float64("epsilon", p.cfg.Epsilon),
		zap.Int64("seed", p.seed),
	)

	var best []float64
	generations := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := p.step(e, generations); err != nil {
			return nil, optimization.WrapError(err, "firefly: "+op)
		}
		generations++
		best = append(best, p.bestScore())

		delta := math.Abs(p.meanScore(p.current) - p.meanScore(p.snapshot))
		p.logger.Debug("generation complete",
			zap.Int("generation", generations-1),
			zap.Float64("delta_of_means", delta),
			zap.Float64("best_score", best[generations-1]),
		)
		if delta < p.cfg.Epsilon {
			break
		}
	}

	p.sortByScore()
	result := p.result(generations, best, true)

	p.logger.Info("converged",
		zap.Int("generations", generations),
		zap.Int("evaluations", result.Evaluations),
		zap.Float64("best_score", result.Best.Value),
	)
	return result, nil
}

// setup validates the search box, derives gamma, and seeds and scores both
// populations. Called at the start of every Run and Converge.
func (p *Population) setup(e *evaluator) error {
	const op = "Population.setup"

	for i := range p.mins {
		if p.mins[i] == p.maxs[i] {
			return optimization.WrapErrorf(optimization.ErrDegenerateBounds,
				"dimension %d has min == max (%v)", i, p.mins[i]).
				WithComponent("firefly").WithOperation(op)
		}
	}

	scale := p.cfg.GammaRange
	if scale <= 0 {
		scale = p.maxs[0] - p.mins[0]
	}
	p.gamma = p.cfg.Gamma0 / scale
	p.alpha = p.cfg.Alpha0

	rng := rand.New(rand.NewSource(p.seed))
	samplePopulation(p.current, p.mins, p.maxs, p.cfg.Sampling, rng)
	samplePopulation(p.snapshot, p.mins, p.maxs, p.cfg.Sampling, rng)

	if err := p.evalAll(e, p.current); err != nil {
		return err
	}
	return p.evalAll(e, p.snapshot)
}

// step runs one full generation: anneal alpha (hybrid), freeze the
// snapshot, then update every firefly in parallel against it. mapN is a
// full barrier, so generation gen+1 never observes partial state.
func (p *Population) step(e *evaluator, gen int) error {
	if p.cfg.Variant == VariantHybrid {
		// annealing index starts at 2 so the schedule opens at alpha0/ln(2)
		p.alpha = p.cfg.Alpha0 / math.Log(float64(gen+2))
	}

	for i := range p.current {
		p.snapshot[i].copyFrom(&p.current[i])
	}

	params := p.genParams()
	variant := p.cfg.Variant
	return e.mapN(len(p.current), func(i int) error {
		return p.update(i, gen, variant, params)
	})
}

// update applies the generation's move rule to firefly i. It reads only
// the frozen snapshot and params, writes only current[i], and owns a
// random stream keyed by (seed, generation, slot) so the outcome does not
// depend on which worker picks the task up.
func (p *Population) update(i, gen int, variant Variant, params genParams) error {
	f := &p.current[i]
	rng := rand.New(rand.NewSource(taskSeed(p.seed, gen, i)))

	f.moved = false
	f.fold(p.snapshot, params, rng)
	if variant == VariantHybrid && !f.moved {
		f.moveRandom(params, rng)
	}

	score, err := p.obj.Evaluate(f.Coords)
	if err != nil {
		return optimization.WrapErrorf(err, "evaluating firefly %d", i)
	}
	f.Score = score
	return nil
}

// evalAll scores every firefly in flies through the pool
func (p *Population) evalAll(e *evaluator, flies []Firefly) error {
	return e.mapN(len(flies), func(i int) error {
		score, err := p.obj.Evaluate(flies[i].Coords)
		if err != nil {
			return optimization.WrapErrorf(err, "evaluating firefly %d", i)
		}
		flies[i].Score = score
		return nil
	})
}

// genParams freezes the parameters the running generation sees
func (p *Population) genParams() genParams {
	return genParams{
		alpha: p.alpha,
		beta0: p.cfg.Beta0,
		gamma: p.gamma,
		mins:  p.mins,
		maxs:  p.maxs,
	}
}

// workers is the pool size: the configured count capped at the population
// size, one task per firefly being the widest useful parallelism
func (p *Population) workers() int {
	w := p.cfg.Workers
	if w > p.cfg.PopulationSize {
		w = p.cfg.PopulationSize
	}
	return w
}

// bestScore is the lowest cached score in the current population
func (p *Population) bestScore() float64 {
	best := p.current[0].Score
	for i := 1; i < len(p.current); i++ {
		if p.current[i].Score < best {
			best = p.current[i].Score
		}
	}
	return best
}

// meanScore is the arithmetic mean of the cached scores
func (p *Population) meanScore(flies []Firefly) float64 {
	scores := make([]float64, len(flies))
	for i := range flies {
		scores[i] = flies[i].Score
	}
	return stat.Mean(scores, nil)
}

// sortByScore orders the current population ascending, best first
func (p *Population) sortByScore() {
	sort.Slice(p.current, func(i, j int) bool {
		return p.current[i].Score < p.current[j].Score
	})
}

// result snapshots the current population into an immutable Result
func (p *Population) result(generations int, best []float64, converged bool) *optimization.Result {
	population := make([]optimization.Solution, len(p.current))
	for i := range p.current {
		population[i] = *optimization.CopySolution(p.current[i].Coords, p.current[i].Score)
	}
	return &optimization.Result{
		Best:             optimization.CopySolution(p.current[0].Coords, p.current[0].Score),
		Population:       population,
		BestByGeneration: best,
		Generations:      generations,
		Evaluations:      generations * p.cfg.PopulationSize,
		Converged:        converged,
	}
}

// taskSeed derives the seed for one update's private random stream
func taskSeed(base int64, gen, idx int) int64 {
	h := uint64(base)
	h ^= (uint64(gen) + 1) * 0x9e3779b97f4a7c15
	h ^= (uint64(idx) + 1) * 0xbf58476d1ce4e5b9
	h ^= h >> 33
	return int64(h)
}
