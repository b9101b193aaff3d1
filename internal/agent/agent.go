package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mohammad-safakhou/mindtutor/models"
	"github.com/mohammad-safakhou/mindtutor/provider"
)

// ErrGenerationFailed is returned when all attempts at a generation task are
// exhausted.
var ErrGenerationFailed = errors.New("generation failed")

const maxAttempts = 3

// SuggestionResult is the outcome of a gap analysis: a partial graph of
// recommended-but-missing directions plus a markdown summary.
type SuggestionResult struct {
	Suggestion        models.MindMap `json:"suggestion"`
	SuggestionSummary string         `json:"suggestion_summary"`
}

// Agent drives mindmap generation through an LLM provider with bounded
// retries and response-repair parsing.
type Agent struct {
	llm     provider.Provider
	logger  *log.Logger
	baseDir string        // debug artifact dir; empty disables dumps
	backoff time.Duration // pause between attempts
	sleep   func(time.Duration)
}

// New creates an Agent. baseDir receives per-task prompt/response artifacts
// for postmortem inspection; pass "" to disable.
func New(llm provider.Provider, logger *log.Logger, baseDir string, backoff time.Duration) *Agent {
	if backoff <= 0 {
		backoff = time.Second
	}
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			logger.Printf("debug artifact dir %s unavailable: %v", baseDir, err)
			baseDir = ""
		}
	}
	return &Agent{llm: llm, logger: logger, baseDir: baseDir, backoff: backoff, sleep: time.Sleep}
}

// GenerateMindmap builds a mindmap from scratch out of the problem statement
// and the user's current free-text solution.
func (a *Agent) GenerateMindmap(ctx context.Context, problemContent, userSolution, taskID string) (models.MindMap, error) {
	prompt := generateMindmapPrompt(problemContent, userSolution)
	return a.runMindmapTask(ctx, prompt, taskID, "gen")
}

// UpdateMindmap revises an existing mindmap against the user's latest
// solution text. The model returns a full revised graph, not a diff.
func (a *Agent) UpdateMindmap(ctx context.Context, problemContent string, existing models.MindMap, userInput, taskID string) (models.MindMap, error) {
	existingJSON, err := json.Marshal(existing)
	if err != nil {
		return models.MindMap{}, fmt.Errorf("marshal existing mindmap: %w", err)
	}
	prompt := updateMindmapPrompt(problemContent, string(existingJSON), userInput)
	return a.runMindmapTask(ctx, prompt, taskID, "update")
}

// GenerateSuggestion compares the user's mindmap against the reference map
// and produces missing-direction suggestions plus a summary.
func (a *Agent) GenerateSuggestion(ctx context.Context, problemContent, userSolution string, userMap, standardMap models.MindMap, taskID string) (SuggestionResult, error) {
	userJSON, err := json.Marshal(userMap)
	if err != nil {
		return SuggestionResult{}, fmt.Errorf("marshal user mindmap: %w", err)
	}
	stdJSON, err := json.Marshal(standardMap)
	if err != nil {
		return SuggestionResult{}, fmt.Errorf("marshal standard mindmap: %w", err)
	}
	prompt := generateSuggestionPrompt(problemContent, userSolution, string(userJSON), string(stdJSON))

	var result SuggestionResult
	err = a.executeAndParse(ctx, taskID, "suggestion", prompt, func(raw string) error {
		result = SuggestionResult{}
		return RepairParse(raw, outputTag, &result)
	})
	return result, err
}

// mindmapEnvelope tolerates both the canonical wrapped response and a bare
// graph emitted without the problem_mindmap key.
type mindmapEnvelope struct {
	ProblemMindmap *models.MindMap      `json:"problem_mindmap"`
	Nodes          []models.MindMapNode `json:"nodes"`
	Edges          []models.MindMapEdge `json:"edges"`
}

func (a *Agent) runMindmapTask(ctx context.Context, prompt, taskID, op string) (models.MindMap, error) {
	var result models.MindMap
	err := a.executeAndParse(ctx, taskID, op, prompt, func(raw string) error {
		var env mindmapEnvelope
		if err := RepairParse(raw, outputTag, &env); err != nil {
			return err
		}
		m, err := normalizeMindmap(env)
		if err != nil {
			return err
		}
		result = m
		return nil
	})
	return result, err
}

// normalizeMindmap unwraps the optional problem_mindmap key and validates the
// graph, rejecting shapes we would otherwise have to guess at.
func normalizeMindmap(env mindmapEnvelope) (models.MindMap, error) {
	var m models.MindMap
	switch {
	case env.ProblemMindmap != nil:
		m = *env.ProblemMindmap
	case env.Nodes != nil || env.Edges != nil:
		m = models.MindMap{Nodes: env.Nodes, Edges: env.Edges}
	default:
		return models.MindMap{}, fmt.Errorf("unexpected mindmap shape: neither problem_mindmap nor nodes/edges present")
	}
	if err := m.Validate(); err != nil {
		return models.MindMap{}, fmt.Errorf("invalid mindmap from model: %w", err)
	}
	return m, nil
}

// executeAndParse runs one model call with up to maxAttempts tries. Any
// provider or parse failure is logged with the attempt number; the loop
// sleeps between attempts but not after the last one. Exhaustion wraps
// ErrGenerationFailed with the task id so the orchestrator can name the
// failed task.
func (a *Agent) executeAndParse(ctx context.Context, taskID, op, prompt string, parse func(raw string) error) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := a.llm.Generate(ctx, prompt)
		if err == nil {
			a.dumpArtifact(taskID, op, prompt, raw)
			err = parse(raw)
			if err == nil {
				return nil
			}
		}
		a.logger.Printf("[%s] mindmap generation error (attempt %d): %v", taskID, attempt, err)
		if attempt < maxAttempts {
			a.sleep(a.backoff)
		}
	}
	return fmt.Errorf("%w: task %s", ErrGenerationFailed, taskID)
}

// dumpArtifact writes the filled prompt and raw response to a task-scoped
// file. Best effort: failures are logged and never abort the attempt.
func (a *Agent) dumpArtifact(taskID, op, prompt, raw string) {
	if a.baseDir == "" {
		return
	}
	path := filepath.Join(a.baseDir, fmt.Sprintf("%s_%s.txt", taskID, op))
	body := fmt.Sprintf("--- prompt ---\n%s\n--- response ---\n%s\n", prompt, raw)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		a.logger.Printf("[%s] write debug artifact: %v", taskID, err)
	}
}
