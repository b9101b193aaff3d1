package server

import (
	"github.com/mohammad-safakhou/mindtutor/internal/search"
	"github.com/mohammad-safakhou/mindtutor/internal/store"
	"github.com/mohammad-safakhou/mindtutor/models"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// CodeResponse is the bare status envelope used by mutation endpoints.
// Code 0 means success; auth endpoints overload it with their own codes.
type CodeResponse struct {
	Code int `json:"code"`
}

// RegisterRequest carries signup and login credentials.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CheckLoginResponse confirms the session and echoes the username.
type CheckLoginResponse struct {
	Code     int    `json:"code"`
	Username string `json:"username"`
}

// ProblemListResponse lists problem summaries for the catalogue view.
type ProblemListResponse struct {
	Code     int                    `json:"code"`
	Problems []store.ProblemSummary `json:"problems"`
}

// ProblemDetailRequest selects a problem by id.
type ProblemDetailRequest struct {
	ProblemID int64 `json:"problem_id"`
}

// ProblemDetailResponse carries the full reference material for a problem.
type ProblemDetailResponse struct {
	Code            int            `json:"code"`
	ProblemContent  string         `json:"problem_content"`
	ProblemSolution string         `json:"problem_solution"`
	ProblemMindmap  models.MindMap `json:"problem_mindmap"`
}

// SearchRequest is a keyword query over problem statements.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// SearchResponse carries ranked search hits.
type SearchResponse struct {
	Code    int          `json:"code"`
	Results []search.Hit `json:"results"`
}

// StartSolutionRequest opens (or resumes) a solution for a problem.
type StartSolutionRequest struct {
	ProblemID int64 `json:"problem_id"`
}

// StartSolutionResponse returns the solution state for the editor. The
// solution id doubles as the mindmap id on the wire.
type StartSolutionResponse struct {
	Code            int            `json:"code"`
	MindmapID       int64          `json:"mindmap_id"`
	ProblemContent  string         `json:"problem_content"`
	CurrentSolution string         `json:"current_solution"`
	CurrentMindmap  models.MindMap `json:"current_mindmap"`
}

// RefreshRequest reloads the state of an existing solution.
type RefreshRequest struct {
	MindmapID int64 `json:"mindmap_id"`
}

// RefreshResponse is the current persisted state of a solution.
type RefreshResponse struct {
	Code            int            `json:"code"`
	MindmapID       int64          `json:"mindmap_id"`
	ProblemID       int64          `json:"problem_id"`
	ProblemContent  string         `json:"problem_content"`
	CurrentSolution string         `json:"current_solution"`
	CurrentMindmap  models.MindMap `json:"current_mindmap"`
}

// UpdateMindmapRequest persists new solution text and triggers the update
// pipeline.
type UpdateMindmapRequest struct {
	MindmapID       int64  `json:"mindmap_id"`
	CurrentSolution string `json:"current_solution"`
}

// QueryAnalysisRequest triggers the gap-analysis pipeline.
type QueryAnalysisRequest struct {
	MindmapID int64 `json:"mindmap_id"`
}
