package search

import (
	"testing"

	"github.com/mohammad-safakhou/mindtutor/internal/store"
)

func seeded(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex()
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	problems := []store.ProblemSummary{
		{ID: 1, ChapterName: "Quadratic Equations", Content: "Solve x^2 - 5x + 6 = 0 by factoring."},
		{ID: 2, ChapterName: "Linear Systems", Content: "Solve the system of two linear equations by substitution."},
		{ID: 3, ChapterName: "Geometry", Content: "Find the area of a triangle given its base and height."},
	}
	for _, p := range problems {
		if err := ix.Add(p); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return ix
}

func TestSearchRanksMatchingProblems(t *testing.T) {
	ix := seeded(t)

	hits, err := ix.Search("factoring quadratic", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].Problem.ID != 1 {
		t.Fatalf("expected problem 1 ranked first, got %d", hits[0].Problem.ID)
	}
	if hits[0].Rank != 1 {
		t.Fatalf("expected rank 1, got %d", hits[0].Rank)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	ix := seeded(t)

	hits, err := ix.Search("solve", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) > 1 {
		t.Fatalf("expected at most 1 hit, got %d", len(hits))
	}
}

func TestSearchNoMatches(t *testing.T) {
	ix := seeded(t)

	hits, err := ix.Search("astrophysics", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestAddOverwritesExistingEntry(t *testing.T) {
	ix := seeded(t)

	if err := ix.Add(store.ProblemSummary{ID: 3, ChapterName: "Geometry", Content: "Compute the circumference of a circle."}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hits, err := ix.Search("circumference", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Problem.ID != 3 {
		t.Fatalf("expected updated problem 3, got %+v", hits)
	}
	hits, err = ix.Search("triangle", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected old content gone, got %+v", hits)
	}
}
