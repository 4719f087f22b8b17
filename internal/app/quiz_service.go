package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizhub/internal/domain"
)

// DefaultTopK is the leaderboard size served by the API.
const DefaultTopK = 10

// QuestionSource supplies the question bank (static, file or DB-backed,
// possibly behind a cache).
type QuestionSource interface {
	Questions(ctx context.Context) ([]domain.Question, error)
}

// LeaderboardStore persists attempts. Append must be idempotent per attempt
// ID and implementations must serialize concurrent Appends so no attempt is
// lost to a load-modify-save race.
type LeaderboardStore interface {
	Append(ctx context.Context, attempt domain.Attempt) error
	List(ctx context.Context) ([]domain.Attempt, error)
}

// SnapshotStore keeps completed attempts that have not yet reached the
// leaderboard store, so a recorder outage does not drop them.
type SnapshotStore interface {
	Save(ctx context.Context, attempt domain.Attempt) error
	Delete(ctx context.Context, id string) error
	Pending(ctx context.Context) ([]domain.Attempt, error)
}

// QuizService contains the core quiz use cases: sampling, timed attempts,
// authoritative scoring and leaderboard ranking.
type QuizService struct {
	source      QuestionSource
	board       LeaderboardStore
	snapshots   SnapshotStore
	perQuestion time.Duration
	now         func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(source QuestionSource, board LeaderboardStore, snapshots SnapshotStore, perQuestion time.Duration) *QuizService {
	if perQuestion <= 0 {
		perQuestion = DefaultQuestionSeconds * time.Second
	}
	return &QuizService{
		source:      source,
		board:       board,
		snapshots:   snapshots,
		perQuestion: perQuestion,
		now:         time.Now,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Sample draws count distinct questions from the bank. Counts are clamped
// to the bank size; callers pass DefaultSampleCount when the request had no
// usable count.
func (s *QuizService) Sample(ctx context.Context, count int) ([]domain.Question, error) {
	pool, err := s.source.Questions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	if len(pool) == 0 {
		return nil, domain.ErrQuestionBankEmpty
	}
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return SampleQuestions(s.rnd, pool, count), nil
}

// NewAttempt samples questions and builds a countdown-driven attempt engine
// whose completed result is recorded through the retrying pipeline.
func (s *QuizService) NewAttempt(ctx context.Context, username string, count int, perQuestion time.Duration) (*AttemptEngine, error) {
	questions, err := s.Sample(ctx, count)
	if err != nil {
		return nil, err
	}
	if perQuestion <= 0 {
		perQuestion = s.perQuestion
	}
	return NewAttemptEngine(username, questions, perQuestion, func(attempt domain.Attempt) {
		if err := s.RecordAttempt(context.Background(), attempt); err != nil {
			log.Printf("record attempt %s: %v", attempt.ID, err)
		}
	})
}

// ScoreAnswers recomputes an attempt's score against the bank instead of
// trusting a client-reported number. Answers whose prompt is not in the
// bank are rejected.
func (s *QuizService) ScoreAnswers(ctx context.Context, answers []domain.Answer) (int, error) {
	pool, err := s.source.Questions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load question bank: %w", err)
	}
	byPrompt := make(map[string]domain.Question, len(pool))
	for _, q := range pool {
		byPrompt[q.Prompt] = q
	}
	score := 0
	for _, answer := range answers {
		q, ok := byPrompt[answer.Prompt]
		if !ok {
			return 0, fmt.Errorf("%w: %q", domain.ErrUnknownQuestion, answer.Prompt)
		}
		if answer.Selected != "" && answer.Selected == q.CorrectLabel {
			score++
		}
	}
	return score, nil
}

// RecordAttempt persists a completed attempt. The attempt is snapshotted
// locally before the store append, so a transient store failure degrades to
// a deferred submission instead of a silent drop.
func (s *QuizService) RecordAttempt(ctx context.Context, attempt domain.Attempt) error {
	if attempt.Username == "" {
		return fmt.Errorf("attempt without username")
	}
	if attempt.Total <= 0 || attempt.Score < 0 || attempt.Score > attempt.Total {
		return fmt.Errorf("invalid attempt score %d/%d", attempt.Score, attempt.Total)
	}
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.SubmittedAt.IsZero() {
		attempt.SubmittedAt = s.now()
	}

	snapErr := s.snapshots.Save(ctx, attempt)
	if snapErr != nil {
		log.Printf("snapshot attempt %s: %v", attempt.ID, snapErr)
	}

	if err := s.board.Append(ctx, attempt); err != nil {
		if snapErr == nil {
			// The snapshot holds the attempt; FlushPending retries it.
			log.Printf("append attempt %s deferred: %v", attempt.ID, err)
			return nil
		}
		return fmt.Errorf("append attempt: %w", err)
	}

	if err := s.snapshots.Delete(ctx, attempt.ID); err != nil {
		log.Printf("drop snapshot %s: %v", attempt.ID, err)
	}
	return nil
}

// FlushPending resubmits snapshotted attempts that never reached the
// leaderboard store. Appends are idempotent per attempt ID, so replaying an
// attempt that did land is harmless.
func (s *QuizService) FlushPending(ctx context.Context) error {
	pending, err := s.snapshots.Pending(ctx)
	if err != nil {
		return fmt.Errorf("list pending attempts: %w", err)
	}
	for _, attempt := range pending {
		if err := s.board.Append(ctx, attempt); err != nil {
			return fmt.Errorf("replay attempt %s: %w", attempt.ID, err)
		}
		if err := s.snapshots.Delete(ctx, attempt.ID); err != nil {
			log.Printf("drop snapshot %s: %v", attempt.ID, err)
		}
	}
	return nil
}

// RunRetryLoop periodically flushes pending snapshots until ctx is done.
func (s *QuizService) RunRetryLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.FlushPending(ctx); err != nil {
				log.Printf("flush pending attempts: %v", err)
			}
		}
	}
}

// Top returns at most k attempts ranked by score descending. Ties go to the
// earlier submission, then to the lexically smaller username, so the
// ordering is fully deterministic.
func (s *QuizService) Top(ctx context.Context, k int) ([]domain.Attempt, error) {
	attempts, err := s.board.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	ranked := make([]domain.Attempt, len(attempts))
	copy(ranked, attempts)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].SubmittedAt.Equal(ranked[j].SubmittedAt) {
			return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
		}
		return ranked[i].Username < ranked[j].Username
	})
	if k >= 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, nil
}
