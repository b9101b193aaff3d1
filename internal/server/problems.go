package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/mindtutor/internal/search"
	"github.com/mohammad-safakhou/mindtutor/internal/store"
)

type ProblemsHandler struct {
	Store *store.Store
	Cache *Cache
	Index *search.Index
}

func (h *ProblemsHandler) Register(g *echo.Group) {
	g.POST("/getAllProblems", h.getAllProblems)
	g.POST("/singleProblemDetail", h.singleProblemDetail)
	g.POST("/searchProblems", h.searchProblems)
}

func (h *ProblemsHandler) getAllProblems(c echo.Context) error {
	ctx := c.Request().Context()
	if problems, ok := h.Cache.GetProblems(ctx); ok {
		return c.JSON(http.StatusOK, ProblemListResponse{Code: 0, Problems: problems})
	}
	problems, err := h.Store.ListProblems(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if problems == nil {
		problems = []store.ProblemSummary{}
	}
	h.Cache.SetProblems(ctx, problems)
	return c.JSON(http.StatusOK, ProblemListResponse{Code: 0, Problems: problems})
}

func (h *ProblemsHandler) singleProblemDetail(c echo.Context) error {
	var req ProblemDetailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, ok, err := h.Store.GetProblemByID(c.Request().Context(), req.ProblemID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Problem not found")
	}
	return c.JSON(http.StatusOK, ProblemDetailResponse{
		Code:            0,
		ProblemContent:  p.Content,
		ProblemSolution: p.Solution,
		ProblemMindmap:  p.Mindmap,
	})
}

func (h *ProblemsHandler) searchProblems(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	hits, err := h.Index.Search(req.Query, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, SearchResponse{Code: 0, Results: hits})
}
