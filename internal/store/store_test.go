package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/mohammad-safakhou/mindtutor/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestGetSolutionByIDParsesMindmap(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, user_id, problem_id, current_solution, mindmap, suggestion_summary, updated_at FROM solutions WHERE id=\$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "problem_id", "current_solution", "mindmap", "suggestion_summary", "updated_at"}).
			AddRow(int64(7), int64(1), int64(2), "x=5",
				[]byte(`{"nodes":[{"node_id":"N1","node_content":"x=5"}],"edges":[]}`), nil, time.Now()))

	sol, ok, err := s.GetSolutionByID(context.Background(), 7)
	if err != nil || !ok {
		t.Fatalf("GetSolutionByID: ok=%v err=%v", ok, err)
	}
	if len(sol.Mindmap.Nodes) != 1 || sol.Mindmap.Nodes[0].NodeID != "N1" {
		t.Fatalf("unexpected mindmap: %+v", sol.Mindmap)
	}
	if sol.SuggestionSummary != "" {
		t.Fatalf("expected empty summary for NULL column, got %q", sol.SuggestionSummary)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetSolutionByIDMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, user_id, problem_id, current_solution, mindmap, suggestion_summary, updated_at FROM solutions WHERE id=\$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "problem_id", "current_solution", "mindmap", "suggestion_summary", "updated_at"}))

	_, ok, err := s.GetSolutionByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetSolutionByID: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing solution")
	}
}

func TestCreateOrGetSolutionReturnsExisting(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, user_id, problem_id, current_solution, mindmap, suggestion_summary, updated_at FROM solutions WHERE user_id=\$1 AND problem_id=\$2`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "problem_id", "current_solution", "mindmap", "suggestion_summary", "updated_at"}).
			AddRow(int64(5), int64(1), int64(2), "", []byte(`{"nodes":[],"edges":[]}`), nil, time.Now()))

	sol, created, err := s.CreateOrGetSolution(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("CreateOrGetSolution: %v", err)
	}
	if created {
		t.Fatal("expected existing row, not a new one")
	}
	if sol.ID != 5 {
		t.Fatalf("unexpected solution id: %d", sol.ID)
	}
}

func TestCreateOrGetSolutionCreatesNew(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, user_id, problem_id, current_solution, mindmap, suggestion_summary, updated_at FROM solutions WHERE user_id=\$1 AND problem_id=\$2`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "problem_id", "current_solution", "mindmap", "suggestion_summary", "updated_at"}))
	mock.ExpectQuery(`INSERT INTO solutions`).
		WithArgs(int64(1), int64(2), []byte(`{"nodes":[],"edges":[]}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(int64(6), time.Now()))

	sol, created, err := s.CreateOrGetSolution(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("CreateOrGetSolution: %v", err)
	}
	if !created {
		t.Fatal("expected a freshly created row")
	}
	if sol.ID != 6 || !sol.Mindmap.IsEmpty() {
		t.Fatalf("unexpected solution: %+v", sol)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateSolutionMindmapMissingRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE solutions SET mindmap=\$2, updated_at=now\(\) WHERE id=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateSolutionMindmap(context.Background(), 404, models.EmptyMindMap())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
