package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/mindtutor/internal/pipeline"
	"github.com/mohammad-safakhou/mindtutor/internal/store"
)

type SolutionsHandler struct {
	Store  *store.Store
	Runner *pipeline.Runner
}

func (h *SolutionsHandler) Register(g *echo.Group) {
	g.POST("/startSolution", h.startSolution)
	g.POST("/refresh", h.refresh)
	g.POST("/updateMindmap", h.updateMindmap)
	g.POST("/queryAnalysis", h.queryAnalysis)
}

func (h *SolutionsHandler) startSolution(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req StartSolutionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	problem, ok, err := h.Store.GetProblemByID(ctx, req.ProblemID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Problem not found")
	}
	sol, _, err := h.Store.CreateOrGetSolution(ctx, userID, req.ProblemID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, StartSolutionResponse{
		Code:            0,
		MindmapID:       sol.ID,
		ProblemContent:  problem.Content,
		CurrentSolution: sol.CurrentSolution,
		CurrentMindmap:  sol.Mindmap,
	})
}

func (h *SolutionsHandler) refresh(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	sol, ok, err := h.Store.GetSolutionByID(ctx, req.MindmapID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Solution record not found")
	}
	if sol.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	problem, ok, err := h.Store.GetProblemByID(ctx, sol.ProblemID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Problem not found")
	}
	return c.JSON(http.StatusOK, RefreshResponse{
		Code:            0,
		MindmapID:       sol.ID,
		ProblemID:       sol.ProblemID,
		ProblemContent:  problem.Content,
		CurrentSolution: sol.CurrentSolution,
		CurrentMindmap:  sol.Mindmap,
	})
}

// updateMindmap persists the new solution text synchronously, then triggers
// the update pipeline. The generation result arrives over the websocket; the
// HTTP response only acknowledges acceptance.
func (h *SolutionsHandler) updateMindmap(c echo.Context) error {
	var req UpdateMindmapRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.Store.UpdateSolutionText(c.Request().Context(), req.MindmapID, req.CurrentSolution); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Solution record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.Runner.RunUpdate(req.MindmapID, req.CurrentSolution); err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			return echo.NewHTTPError(http.StatusConflict, "already processing")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, CodeResponse{Code: 0})
}

func (h *SolutionsHandler) queryAnalysis(c echo.Context) error {
	var req QueryAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.Runner.RunAnalysis(req.MindmapID); err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			return echo.NewHTTPError(http.StatusConflict, "already processing")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, CodeResponse{Code: 0})
}
