package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/mohammad-safakhou/mindtutor/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// User is an account row. PasswordHash is a bcrypt hash.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// ProblemSummary is the listing view of a problem (no reference solution or
// reference mindmap).
type ProblemSummary struct {
	ID          int64  `json:"problem_id"`
	ChapterID   int64  `json:"chapter_id"`
	ChapterName string `json:"chapter_name"`
	Difficulty  int    `json:"difficulty"`
	Content     string `json:"problem_content"`
}

// Problem is the immutable reference entity, created by the offline import
// and read-only to the pipeline.
type Problem struct {
	ID          int64
	ChapterID   int64
	ChapterName string
	Difficulty  int
	Content     string
	Solution    string
	Mindmap     models.MindMap
	CreatedAt   time.Time
}

// Solution is a user's attempt at one problem. The mindmap and suggestion
// summary are overwritten by pipeline runs.
type Solution struct {
	ID                int64
	UserID            int64
	ProblemID         int64
	CurrentSolution   string
	Mindmap           models.MindMap
	SuggestionSummary string
	UpdatedAt         time.Time
}

// User operations

func (s *Store) CreateUser(ctx context.Context, username, hash string) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `INSERT INTO users (username, password_hash) VALUES ($1,$2) RETURNING id`, username, hash).Scan(&id)
	return id, err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, bool, error) {
	var u User
	err := s.DB.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return u, true, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (User, bool, error) {
	var u User
	err := s.DB.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return u, true, nil
}

// Problem operations

func (s *Store) ListProblems(ctx context.Context) ([]ProblemSummary, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, chapter_id, chapter_name, difficulty, problem_content FROM problems ORDER BY chapter_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProblemSummary
	for rows.Next() {
		var p ProblemSummary
		if err := rows.Scan(&p.ID, &p.ChapterID, &p.ChapterName, &p.Difficulty, &p.Content); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProblemByID(ctx context.Context, id int64) (Problem, bool, error) {
	var p Problem
	var mindmapRaw []byte
	err := s.DB.QueryRowContext(ctx, `SELECT id, chapter_id, chapter_name, difficulty, problem_content, problem_solution, problem_mindmap, created_at FROM problems WHERE id=$1`, id).
		Scan(&p.ID, &p.ChapterID, &p.ChapterName, &p.Difficulty, &p.Content, &p.Solution, &mindmapRaw, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Problem{}, false, nil
	}
	if err != nil {
		return Problem{}, false, err
	}
	p.Mindmap, err = unmarshalMindmap(mindmapRaw)
	if err != nil {
		return Problem{}, false, fmt.Errorf("problem %d mindmap: %w", id, err)
	}
	return p, true, nil
}

func (s *Store) InsertProblem(ctx context.Context, p Problem) (int64, error) {
	mindmapJSON, err := json.Marshal(p.Mindmap)
	if err != nil {
		return 0, fmt.Errorf("marshal mindmap: %w", err)
	}
	var id int64
	err = s.DB.QueryRowContext(ctx,
		`INSERT INTO problems (chapter_id, chapter_name, difficulty, problem_content, problem_solution, problem_mindmap) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		p.ChapterID, p.ChapterName, p.Difficulty, p.Content, p.Solution, mindmapJSON).Scan(&id)
	return id, err
}

// Solution operations

func (s *Store) GetSolutionByID(ctx context.Context, id int64) (Solution, bool, error) {
	var sol Solution
	var mindmapRaw []byte
	var summary sql.NullString
	err := s.DB.QueryRowContext(ctx, `SELECT id, user_id, problem_id, current_solution, mindmap, suggestion_summary, updated_at FROM solutions WHERE id=$1`, id).
		Scan(&sol.ID, &sol.UserID, &sol.ProblemID, &sol.CurrentSolution, &mindmapRaw, &summary, &sol.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Solution{}, false, nil
	}
	if err != nil {
		return Solution{}, false, err
	}
	sol.SuggestionSummary = summary.String
	sol.Mindmap, err = unmarshalMindmap(mindmapRaw)
	if err != nil {
		return Solution{}, false, fmt.Errorf("solution %d mindmap: %w", id, err)
	}
	return sol, true, nil
}

// CreateOrGetSolution returns the existing attempt for (user, problem) or
// creates an empty one. The bool reports whether a new row was created.
func (s *Store) CreateOrGetSolution(ctx context.Context, userID, problemID int64) (Solution, bool, error) {
	var sol Solution
	var mindmapRaw []byte
	var summary sql.NullString
	err := s.DB.QueryRowContext(ctx, `SELECT id, user_id, problem_id, current_solution, mindmap, suggestion_summary, updated_at FROM solutions WHERE user_id=$1 AND problem_id=$2`, userID, problemID).
		Scan(&sol.ID, &sol.UserID, &sol.ProblemID, &sol.CurrentSolution, &mindmapRaw, &summary, &sol.UpdatedAt)
	if err == nil {
		sol.SuggestionSummary = summary.String
		sol.Mindmap, err = unmarshalMindmap(mindmapRaw)
		if err != nil {
			return Solution{}, false, fmt.Errorf("solution %d mindmap: %w", sol.ID, err)
		}
		return sol, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Solution{}, false, err
	}

	empty, _ := json.Marshal(models.EmptyMindMap())
	sol = Solution{UserID: userID, ProblemID: problemID, Mindmap: models.EmptyMindMap()}
	err = s.DB.QueryRowContext(ctx, `INSERT INTO solutions (user_id, problem_id, current_solution, mindmap) VALUES ($1,$2,'',$3) RETURNING id, updated_at`, userID, problemID, empty).
		Scan(&sol.ID, &sol.UpdatedAt)
	if err != nil {
		return Solution{}, false, err
	}
	return sol, true, nil
}

func (s *Store) UpdateSolutionText(ctx context.Context, id int64, text string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE solutions SET current_solution=$2, updated_at=now() WHERE id=$1`, id, text)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (s *Store) UpdateSolutionMindmap(ctx context.Context, id int64, m models.MindMap) error {
	mindmapJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal mindmap: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE solutions SET mindmap=$2, updated_at=now() WHERE id=$1`, id, mindmapJSON)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (s *Store) UpdateSolutionSuggestion(ctx context.Context, id int64, summary string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE solutions SET suggestion_summary=$2, updated_at=now() WHERE id=$1`, id, summary)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("solution %d: %w", id, ErrNotFound)
	}
	return nil
}

func unmarshalMindmap(raw []byte) (models.MindMap, error) {
	if len(raw) == 0 {
		return models.EmptyMindMap(), nil
	}
	var m models.MindMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return models.MindMap{}, err
	}
	if m.Nodes == nil {
		m.Nodes = []models.MindMapNode{}
	}
	if m.Edges == nil {
		m.Edges = []models.MindMapEdge{}
	}
	return m, nil
}
