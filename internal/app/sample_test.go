package app

import (
	"fmt"
	"math/rand"
	"testing"

	"quizhub/internal/domain"
)

func testPool(n int) []domain.Question {
	pool := make([]domain.Question, n)
	for i := range pool {
		pool[i] = domain.Question{
			ID:           fmt.Sprintf("q%d", i+1),
			Prompt:       fmt.Sprintf("question %d", i+1),
			Choices:      map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			CorrectLabel: "A",
		}
	}
	return pool
}

func TestSampleClampsCount(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	pool := testPool(8)

	cases := []struct {
		requested int
		want      int
	}{
		{-3, 0},
		{0, 0},
		{3, 3},
		{8, 8},
		{50, 8},
	}
	for _, tc := range cases {
		got := SampleQuestions(rnd, pool, tc.requested)
		if len(got) != tc.want {
			t.Fatalf("Sample(%d) returned %d questions, want %d", tc.requested, len(got), tc.want)
		}
	}
}

func TestSampleReturnsDistinctQuestions(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	pool := testPool(10)

	for trial := 0; trial < 100; trial++ {
		sampled := SampleQuestions(rnd, pool, 6)
		seen := make(map[string]struct{}, len(sampled))
		for _, q := range sampled {
			if _, dup := seen[q.ID]; dup {
				t.Fatalf("duplicate question %s in sample", q.ID)
			}
			seen[q.ID] = struct{}{}
		}
	}
}

func TestSampleDoesNotMutatePool(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	pool := testPool(10)

	SampleQuestions(rnd, pool, 10)
	for i, q := range pool {
		if q.ID != fmt.Sprintf("q%d", i+1) {
			t.Fatalf("pool reordered at %d: %s", i, q.ID)
		}
	}
}

// Each question should land in a sample of half the pool about half the
// time. A wide tolerance keeps the test stable while still catching a
// biased shuffle.
func TestSampleIsRoughlyUniform(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	pool := testPool(10)

	const trials = 20000
	counts := make(map[string]int, len(pool))
	for i := 0; i < trials; i++ {
		for _, q := range SampleQuestions(rnd, pool, 5) {
			counts[q.ID]++
		}
	}

	expected := trials / 2
	for id, count := range counts {
		if count < expected*9/10 || count > expected*11/10 {
			t.Fatalf("question %s sampled %d times, expected around %d", id, count, expected)
		}
	}
}
