package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/copyleftdev/EMBER/internal/config"
	"github.com/copyleftdev/EMBER/internal/logging"
	"github.com/copyleftdev/EMBER/internal/optimization"
	"github.com/copyleftdev/EMBER/internal/optimization/firefly"
	"github.com/copyleftdev/EMBER/internal/optimization/objective"
	"github.com/copyleftdev/EMBER/internal/store"
)

// Request parameter defaults. A POST body only needs the objective name and
// dimension count; everything else falls back to these.
const (
	defaultGenerations = 100
	defaultPopulation  = 20
	defaultAlpha       = 0.2
	defaultBeta        = 1.0
	defaultGamma       = 1.0
	defaultVariant     = "plain"
	defaultSampling    = "stratified"
)

// OptimizeRequest is the body of POST /api/v1/optimize.
type OptimizeRequest struct {
	Objective      string  `json:"objective"`
	Dimensions     int     `json:"dimensions"`
	Mode           string  `json:"mode,omitempty"` // "run" (default) or "converge"
	Generations    int     `json:"generations,omitempty"`
	PopulationSize int     `json:"population_size,omitempty"`
	Alpha          float64 `json:"alpha,omitempty"`
	Beta           float64 `json:"beta,omitempty"`
	Gamma          float64 `json:"gamma,omitempty"`
	GammaRange     float64 `json:"gamma_range,omitempty"`
	Variant        string  `json:"variant,omitempty"`
	Sampling       string  `json:"sampling,omitempty"`
	Epsilon        float64 `json:"epsilon,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
	Workers        int     `json:"workers,omitempty"`
	Dump           bool    `json:"dump,omitempty"`
}

// JobState represents the state of an optimization job.
// It tracks the progress, status, and results of an optimization process.
// All fields are protected by the server's jobs mutex.
type JobState struct {
	ID          string
	Objective   string
	Dimensions  int
	Mode        string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Result      *optimization.Result
	Err         string
	DumpPath    string
	Optimizer   optimization.Optimizer
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server implements the HTTP API for the optimization service.
// It manages optimization jobs and provides endpoints to start, monitor, and
// cancel them.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	engine  *zap.Logger // feeds the optimization engines
	metrics *Metrics

	// pool runs the jobs; capacity is enforced at submission time so Go
	// never blocks a request handler
	pool *pool.Pool

	// Optimization job state management
	jobs   map[string]*JobState
	jobsMu sync.RWMutex // Protects the jobs map
}

// NewServer creates a new server instance with the given config and logger.
// Metrics are registered with reg, so tests can pass an isolated registry.
func NewServer(cfg *config.Config, logger *logging.Logger, reg prometheus.Registerer) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		engine:  logging.NewZapLogger(logger),
		metrics: NewMetrics(reg),
		pool:    pool.New().WithMaxGoroutines(cfg.Optimization.MaxConcurrentJobs),
		jobs:    make(map[string]*JobState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/objectives", s.handleObjectives)
		r.Post("/optimize", s.handleOptimize)
		r.Route("/jobs/{id}", func(r chi.Router) {
			r.Get("/", s.handleJob)
			r.Get("/coordinates", s.handleCoordinates)
			r.Delete("/", s.handleCancel)
		})
	})
}

// handleObjectives lists the registered objective functions.
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"objectives": objective.Names(),
	})
}

// handleOptimize handles POST /api/v1/optimize. It validates the request,
// builds the engine, and hands the job to the pool.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	s.applyDefaults(&req)
	if err := s.validateRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	variant, err := firefly.ParseVariant(req.Variant)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	sampling, err := firefly.ParseSampling(req.Sampling)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	obj, err := objective.New(req.Objective, req.Dimensions)
	if err != nil {
		s.respondError(w, statusFromError(err), err)
		return
	}

	optimizer, err := firefly.NewPopulation(firefly.Config{
		Generations:    req.Generations,
		PopulationSize: req.PopulationSize,
		Alpha0:         req.Alpha,
		Beta0:          req.Beta,
		Gamma0:         req.Gamma,
		GammaRange:     req.GammaRange,
		Variant:        variant,
		Sampling:       sampling,
		Workers:        req.Workers,
		Seed:           req.Seed,
		Epsilon:        req.Epsilon,
	}, obj, s.engine)
	if err != nil {
		s.respondError(w, statusFromError(err), err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	state := &JobState{
		ID:          uuid.NewString(),
		Objective:   obj.Name(),
		Dimensions:  req.Dimensions,
		Mode:        req.Mode,
		Status:      "pending",
		StartTime:   now,
		LastUpdated: now,
		Optimizer:   optimizer,
		CancelFunc:  cancel,
	}

	s.jobsMu.Lock()
	if active := s.activeJobsLocked(); active >= s.cfg.Optimization.MaxConcurrentJobs {
		s.jobsMu.Unlock()
		cancel()
		s.respondError(w, http.StatusTooManyRequests,
			fmt.Errorf("job limit reached (%d active)", active))
		return
	}
	s.jobs[state.ID] = state
	s.jobsMu.Unlock()

	s.metrics.jobAccepted(req.Mode)
	s.logger.Info("Optimization job accepted", map[string]interface{}{
		"job_id":     state.ID,
		"objective":  state.Objective,
		"dimensions": state.Dimensions,
		"mode":       state.Mode,
		"variant":    req.Variant,
	})

	mode, dump := req.Mode, req.Dump
	s.pool.Go(func() {
		s.runJob(ctx, state, mode, dump)
	})

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": state.ID,
		"status": state.Status,
	})
}

// handleJob handles GET /api/v1/jobs/{id} for checking job status.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.RLock()
	state, exists := s.jobs[id]
	var response map[string]interface{}
	if exists {
		response = jobStatusLocked(state)
	}
	s.jobsMu.RUnlock()

	if !exists {
		s.respondError(w, http.StatusNotFound, fmt.Errorf("job %s not found", id))
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// handleCoordinates handles GET /api/v1/jobs/{id}/coordinates. It streams
// the final population as plain text, one firefly per line.
func (s *Server) handleCoordinates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.RLock()
	state, exists := s.jobs[id]
	var (
		status     string
		population []optimization.Solution
	)
	if exists {
		status = state.Status
		if state.Result != nil {
			population = state.Result.Population
		}
	}
	s.jobsMu.RUnlock()

	if !exists {
		s.respondError(w, http.StatusNotFound, fmt.Errorf("job %s not found", id))
		return
	}
	if population == nil {
		s.respondError(w, http.StatusConflict,
			fmt.Errorf("job %s has no coordinates (status: %s)", id, status))
		return
	}

	// Result is immutable once published, so streaming outside the lock is
	// safe.
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := store.WriteCoordinates(w, population); err != nil {
		s.logger.Error("Failed to stream coordinates", map[string]interface{}{
			"job_id": id,
			"error":  err.Error(),
		})
	}
}

// handleCancel handles DELETE /api/v1/jobs/{id} for cancelling a job.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.Lock()
	state, exists := s.jobs[id]
	if !exists {
		s.jobsMu.Unlock()
		s.respondError(w, http.StatusNotFound, fmt.Errorf("job %s not found", id))
		return
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		// Already in a terminal state
		status := state.Status
		s.jobsMu.Unlock()
		s.respondError(w, http.StatusConflict,
			fmt.Errorf("cannot cancel job with status: %s", status))
		return
	}

	// Cancel the optimization
	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	// Update state
	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	s.jobsMu.Unlock()

	// Log the cancellation
	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"job_id": id,
	})

	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "cancellation requested",
	})
}

// runJob executes the optimization process on a pool worker.
func (s *Server) runJob(ctx context.Context, state *JobState, mode string, dump bool) {
	start := time.Now()

	// Update state to running unless the job was cancelled while pending
	s.jobsMu.Lock()
	if state.Status == "cancelled" {
		s.metrics.jobFinished("cancelled", time.Since(start).Seconds())
		s.jobsMu.Unlock()
		return
	}
	state.Status = "running"
	state.LastUpdated = time.Now()
	s.jobsMu.Unlock()

	var (
		result *optimization.Result
		err    error
	)
	if mode == "converge" {
		result, err = state.Optimizer.Converge(ctx)
	} else {
		result, err = state.Optimizer.Run(ctx)
	}

	var dumpPath string
	if err == nil && dump {
		dumpPath = filepath.Join(s.cfg.Store.DumpDir, state.ID+".txt")
		if saveErr := store.SaveCoordinates(dumpPath, result.Population); saveErr != nil {
			s.logger.Error("Failed to save coordinate dump", map[string]interface{}{
				"job_id": state.ID,
				"error":  saveErr.Error(),
			})
			dumpPath = ""
		}
	}

	// Update state with results
	now := time.Now()
	s.jobsMu.Lock()
	state.EndTime = &now
	state.LastUpdated = now
	switch {
	case state.Status == "cancelled" || errors.Is(err, context.Canceled):
		state.Status = "cancelled"
	case err != nil:
		state.Status = "failed"
		state.Err = err.Error()
	default:
		state.Status = "completed"
		state.Result = result
		state.DumpPath = dumpPath
	}
	status := state.Status
	// Metrics are recorded before the terminal status becomes observable, so
	// a poller that sees the job finished never reads stale counters.
	s.metrics.jobFinished(status, time.Since(start).Seconds())
	if status == "completed" {
		s.metrics.jobCompleted(state.Objective, result)
	}
	s.jobsMu.Unlock()

	switch status {
	case "completed":
		s.logger.Info("Optimization completed", map[string]interface{}{
			"job_id":      state.ID,
			"best_score":  result.Best.Value,
			"generations": result.Generations,
			"evaluations": result.Evaluations,
		})
	case "failed":
		s.logger.Error("Optimization failed", map[string]interface{}{
			"job_id": state.ID,
			"error":  err.Error(),
		})
	}
}

// Close cancels all running jobs and waits for the pool to drain.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	s.jobsMu.Unlock()

	s.pool.Wait()
	return nil
}

// applyDefaults fills the optional request parameters.
func (s *Server) applyDefaults(req *OptimizeRequest) {
	if req.Mode == "" {
		req.Mode = "run"
	}
	if req.Generations == 0 {
		req.Generations = defaultGenerations
	}
	if req.PopulationSize == 0 {
		req.PopulationSize = defaultPopulation
	}
	if req.Alpha == 0 {
		req.Alpha = defaultAlpha
	}
	if req.Beta == 0 {
		req.Beta = defaultBeta
	}
	if req.Gamma == 0 {
		req.Gamma = defaultGamma
	}
	if req.Variant == "" {
		req.Variant = defaultVariant
	}
	if req.Sampling == "" {
		req.Sampling = defaultSampling
	}
	if req.Workers == 0 {
		req.Workers = s.cfg.Optimization.WorkerCount
	}
}

// validateRequest enforces the request-level limits. Engine-level parameter
// validation happens in firefly.NewPopulation.
func (s *Server) validateRequest(req *OptimizeRequest) error {
	if req.Mode != "run" && req.Mode != "converge" {
		return fmt.Errorf("mode must be run or converge, got %q", req.Mode)
	}
	if req.Mode == "run" && req.Generations <= 0 {
		return fmt.Errorf("generations must be positive, got %d", req.Generations)
	}
	if max := s.cfg.Optimization.MaxGenerations; max > 0 && req.Generations > max {
		return fmt.Errorf("generations %d exceeds the configured maximum %d", req.Generations, max)
	}
	if max := s.cfg.Optimization.MaxPopulation; max > 0 && req.PopulationSize > max {
		return fmt.Errorf("population size %d exceeds the configured maximum %d", req.PopulationSize, max)
	}
	return nil
}

// activeJobsLocked counts jobs that hold or will hold a pool slot. The jobs
// mutex must be held.
func (s *Server) activeJobsLocked() int {
	active := 0
	for _, job := range s.jobs {
		switch job.Status {
		case "pending", "running":
			active++
		}
	}
	return active
}

// jobStatusLocked renders a job into a response payload. The jobs mutex
// must be held.
func jobStatusLocked(state *JobState) map[string]interface{} {
	response := map[string]interface{}{
		"job_id":      state.ID,
		"objective":   state.Objective,
		"dimensions":  state.Dimensions,
		"mode":        state.Mode,
		"status":      state.Status,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}

	// Add end time if available
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != "" {
		response["error"] = state.Err
	}
	if state.DumpPath != "" {
		response["coordinates_file"] = state.DumpPath
	}

	// Add the result if the job completed
	if state.Result != nil {
		response["result"] = map[string]interface{}{
			"best": map[string]interface{}{
				"parameters": state.Result.Best.Parameters,
				"value":      state.Result.Best.Value,
			},
			"generations":        state.Result.Generations,
			"evaluations":        state.Result.Evaluations,
			"converged":          state.Result.Converged,
			"best_by_generation": state.Result.BestByGeneration,
		}
	}

	return response
}

// statusFromError maps engine errors to HTTP status codes. Validation
// failures surface as 400s, anything else is a 500.
func statusFromError(err error) int {
	if _, ok := optimization.IsOptimizationError(err); ok {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondJSON writes a JSON response with the given status code.
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes a JSON error response and logs it.
func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("Request error", map[string]interface{}{
		"status": status,
		"error":  err.Error(),
	})
	s.respondJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}
