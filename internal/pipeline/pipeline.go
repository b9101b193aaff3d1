package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohammad-safakhou/mindtutor/internal/agent"
	"github.com/mohammad-safakhou/mindtutor/internal/store"
	"github.com/mohammad-safakhou/mindtutor/models"
)

// ErrAlreadyRunning is surfaced synchronously to a caller that tries to
// start a pipeline run while one is already in flight for the same
// solution and kind.
var ErrAlreadyRunning = errors.New("already processing")

// Storage is the slice of the store the pipelines depend on. Each call is
// its own short transaction; no transaction spans a full run.
type Storage interface {
	GetSolutionByID(ctx context.Context, id int64) (store.Solution, bool, error)
	GetProblemByID(ctx context.Context, id int64) (store.Problem, bool, error)
	UpdateSolutionMindmap(ctx context.Context, id int64, m models.MindMap) error
	UpdateSolutionSuggestion(ctx context.Context, id int64, summary string) error
}

// Generator produces mindmaps and gap-analysis suggestions.
type Generator interface {
	GenerateMindmap(ctx context.Context, problemContent, userSolution, taskID string) (models.MindMap, error)
	UpdateMindmap(ctx context.Context, problemContent string, existing models.MindMap, userInput, taskID string) (models.MindMap, error)
	GenerateSuggestion(ctx context.Context, problemContent, userSolution string, userMap, standardMap models.MindMap, taskID string) (agent.SuggestionResult, error)
}

// Resolver looks up live connection ids for a user; empty means offline.
type Resolver interface {
	Resolve(userID string) []string
}

// Notifier pushes events to a single connection. Fire-and-forget: delivery
// failures are the transport's concern and are only logged here.
type Notifier interface {
	SendMindmapUpdate(connID string, problemID, mindmapID int64, m models.MindMap) error
	SendSuggestion(connID string, problemID, mindmapID int64, res agent.SuggestionResult) error
}

// Outcome is the typed terminal result of one pipeline run. Runs are
// detached from the request that triggered them, so the outcome only feeds
// logs and metrics today; the type is the seam for future alerting.
type Outcome struct {
	Status string // completed, skipped or failed
	Reason string
}

const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

func completed() Outcome            { return Outcome{Status: StatusCompleted} }
func skipped(reason string) Outcome { return Outcome{Status: StatusSkipped, Reason: reason} }
func failed(err error) Outcome      { return Outcome{Status: StatusFailed, Reason: err.Error()} }

var runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mindtutor_pipeline_runs_total",
	Help: "Pipeline runs by kind and terminal status.",
}, []string{"kind", "status"})

// Runner executes the update and analysis pipelines as detached background
// tasks. Runs for different solutions interleave freely; runs for the same
// solution and kind are mutually exclusive via the guard. There is no
// cross-run ordering for one solution: a slow update and a fast analysis may
// interleave their commits, and each run commits its own delta.
type Runner struct {
	store    Storage
	agent    Generator
	sessions Resolver
	notifier Notifier
	guard    *Guard
	logger   *log.Logger
	spawn    func(func()) // detached execution, synchronous in tests
}

func NewRunner(st Storage, gen Generator, sessions Resolver, notifier Notifier, logger *log.Logger) *Runner {
	return &Runner{
		store:    st,
		agent:    gen,
		sessions: sessions,
		notifier: notifier,
		guard:    NewGuard(),
		logger:   logger,
		spawn:    func(fn func()) { go fn() },
	}
}

// RunUpdate triggers the mindmap update pipeline for a solution. It returns
// immediately; ErrAlreadyRunning when an update run for this solution is
// already in flight. All failures inside the detached run are contained.
func (r *Runner) RunUpdate(solutionID int64, newText string) error {
	return r.dispatch("update", solutionID, func(ctx context.Context) Outcome {
		return r.runUpdate(ctx, solutionID, newText)
	})
}

// RunAnalysis triggers the gap-analysis pipeline for a solution.
func (r *Runner) RunAnalysis(solutionID int64) error {
	return r.dispatch("analysis", solutionID, func(ctx context.Context) Outcome {
		return r.runAnalysis(ctx, solutionID)
	})
}

func (r *Runner) dispatch(kind string, solutionID int64, run func(context.Context) Outcome) error {
	key := fmt.Sprintf("sol_%d:%s", solutionID, kind)
	if !r.guard.TryAcquire(key) {
		return ErrAlreadyRunning
	}
	r.spawn(func() {
		defer r.guard.Release(key)
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Printf("[sol_%d] %s pipeline panic: %v", solutionID, kind, rec)
				runsTotal.WithLabelValues(kind, StatusFailed).Inc()
			}
		}()
		out := run(context.Background())
		runsTotal.WithLabelValues(kind, out.Status).Inc()
		if out.Status != StatusCompleted {
			r.logger.Printf("[sol_%d] %s pipeline %s: %s", solutionID, kind, out.Status, out.Reason)
		}
	})
	return nil
}

func (r *Runner) runUpdate(ctx context.Context, solutionID int64, newText string) Outcome {
	taskID := fmt.Sprintf("sol_%d", solutionID)
	r.logger.Printf("[%s] starting mindmap update", taskID)

	sol, ok, err := r.store.GetSolutionByID(ctx, solutionID)
	if err != nil {
		return failed(fmt.Errorf("load solution: %w", err))
	}
	if !ok {
		return skipped("solution not found")
	}
	problem, ok, err := r.store.GetProblemByID(ctx, sol.ProblemID)
	if err != nil {
		return failed(fmt.Errorf("load problem %d: %w", sol.ProblemID, err))
	}
	if !ok {
		return skipped(fmt.Sprintf("problem %d not found", sol.ProblemID))
	}
	conns := r.sessions.Resolve(strconv.FormatInt(sol.UserID, 10))
	r.logger.Printf("[%s] user %d has %d live connection(s)", taskID, sol.UserID, len(conns))

	// Sole branching condition: a mindmap with zero nodes is generated from
	// scratch, anything else is updated incrementally.
	var result models.MindMap
	if sol.Mindmap.IsEmpty() {
		r.logger.Printf("[%s] mode: generate from scratch", taskID)
		result, err = r.agent.GenerateMindmap(ctx, problem.Content, newText, taskID)
	} else {
		r.logger.Printf("[%s] mode: incremental update", taskID)
		result, err = r.agent.UpdateMindmap(ctx, problem.Content, sol.Mindmap, newText, taskID)
	}
	if err != nil {
		return failed(err)
	}
	if result.IsEmpty() {
		// A legitimate "nothing to save" outcome, not an error.
		return skipped("generation produced an empty mindmap")
	}

	if err := r.store.UpdateSolutionMindmap(ctx, solutionID, result); err != nil {
		return failed(fmt.Errorf("persist mindmap: %w", err))
	}
	r.logger.Printf("[%s] mindmap persisted", taskID)

	for _, conn := range conns {
		if err := r.notifier.SendMindmapUpdate(conn, problem.ID, sol.ID, result); err != nil {
			r.logger.Printf("[%s] push to %s failed: %v", taskID, conn, err)
		}
	}
	return completed()
}

func (r *Runner) runAnalysis(ctx context.Context, solutionID int64) Outcome {
	taskID := fmt.Sprintf("sol_%d", solutionID)
	r.logger.Printf("[%s] starting gap analysis", taskID)

	sol, ok, err := r.store.GetSolutionByID(ctx, solutionID)
	if err != nil {
		return failed(fmt.Errorf("load solution: %w", err))
	}
	if !ok {
		return skipped("solution not found")
	}
	problem, ok, err := r.store.GetProblemByID(ctx, sol.ProblemID)
	if err != nil {
		return failed(fmt.Errorf("load problem %d: %w", sol.ProblemID, err))
	}
	if !ok {
		return skipped(fmt.Sprintf("problem %d not found", sol.ProblemID))
	}

	if problem.Mindmap.IsEmpty() {
		return skipped("problem has no reference mindmap")
	}
	if sol.Mindmap.IsEmpty() {
		return skipped("user mindmap is empty, nothing to analyse")
	}

	res, err := r.agent.GenerateSuggestion(ctx, problem.Content, sol.CurrentSolution, sol.Mindmap, problem.Mindmap, taskID)
	if err != nil {
		return failed(err)
	}

	if err := r.store.UpdateSolutionSuggestion(ctx, solutionID, res.SuggestionSummary); err != nil {
		return failed(fmt.Errorf("persist suggestion: %w", err))
	}
	r.logger.Printf("[%s] suggestion summary persisted", taskID)

	for _, conn := range r.sessions.Resolve(strconv.FormatInt(sol.UserID, 10)) {
		if err := r.notifier.SendSuggestion(conn, problem.ID, sol.ID, res); err != nil {
			r.logger.Printf("[%s] push to %s failed: %v", taskID, conn, err)
		}
	}
	return completed()
}
