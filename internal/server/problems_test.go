package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/mindtutor/internal/search"
	"github.com/mohammad-safakhou/mindtutor/internal/store"
)

func TestGetAllProblems(t *testing.T) {
	e := echo.New()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// nil cache means every request hits the database
	handler := &ProblemsHandler{Store: &store.Store{DB: db}}

	mock.ExpectQuery(`SELECT id, chapter_id, chapter_name, difficulty, problem_content FROM problems ORDER BY chapter_id, id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "chapter_id", "chapter_name", "difficulty", "problem_content"}).
			AddRow(int64(1), int64(1), "Algebra", 2, "Solve x").
			AddRow(int64(2), int64(1), "Algebra", 4, "Solve y"))

	ctx, rec := postJSON(e, "/api/getAllProblems", `{}`)
	ctx.Set("user_id", "7")
	if err := handler.getAllProblems(ctx); err != nil {
		t.Fatalf("getAllProblems: %v", err)
	}
	var resp ProblemListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != 0 || len(resp.Problems) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Problems[0].Content != "Solve x" || resp.Problems[1].Difficulty != 4 {
		t.Fatalf("unexpected problems: %+v", resp.Problems)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSingleProblemDetailNotFound(t *testing.T) {
	e := echo.New()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	handler := &ProblemsHandler{Store: &store.Store{DB: db}}

	mock.ExpectQuery(`SELECT id, chapter_id, chapter_name, difficulty, problem_content, problem_solution, problem_mindmap, created_at FROM problems WHERE id=\$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	ctx, _ := postJSON(e, "/api/singleProblemDetail", `{"problem_id":99}`)
	ctx.Set("user_id", "7")
	err = handler.singleProblemDetail(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %#v", err)
	}
}

func TestSearchProblemsRequiresQuery(t *testing.T) {
	e := echo.New()
	ix, err := search.NewIndex()
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	handler := &ProblemsHandler{Index: ix}

	ctx, _ := postJSON(e, "/api/searchProblems", `{"query":"  "}`)
	ctx.Set("user_id", "7")
	err = handler.searchProblems(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %#v", err)
	}
}

func TestSearchProblems(t *testing.T) {
	e := echo.New()
	ix, err := search.NewIndex()
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if err := ix.Add(store.ProblemSummary{ID: 1, ChapterName: "Algebra", Content: "Solve the quadratic equation"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	handler := &ProblemsHandler{Index: ix}

	ctx, rec := postJSON(e, "/api/searchProblems", `{"query":"quadratic"}`)
	ctx.Set("user_id", "7")
	if err := handler.searchProblems(ctx); err != nil {
		t.Fatalf("searchProblems: %v", err)
	}
	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != 0 || len(resp.Results) != 1 || resp.Results[0].Problem.ID != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
