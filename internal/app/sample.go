package app

import (
	"math/rand"

	"quizhub/internal/domain"
)

// DefaultSampleCount is used when the caller supplies no usable count.
const DefaultSampleCount = 5

// ClampCount normalizes a requested sample size against the bank size:
// negative counts become zero and counts beyond the bank are capped.
func ClampCount(n, bankSize int) int {
	if n < 0 {
		n = 0
	}
	if n > bankSize {
		n = bankSize
	}
	return n
}

// SampleQuestions draws n distinct questions uniformly at random using a
// partial Fisher-Yates shuffle over an index slice, so the pool itself is
// never reordered.
func SampleQuestions(rnd *rand.Rand, pool []domain.Question, n int) []domain.Question {
	n = ClampCount(n, len(pool))

	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + rnd.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	out := make([]domain.Question, n)
	for i := 0; i < n; i++ {
		out[i] = pool[idx[i]]
	}
	return out
}
