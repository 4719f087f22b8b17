package app

import (
	"errors"
	"testing"
	"time"

	"quizhub/internal/domain"
)

func engineQuestions() []domain.Question {
	return testPool(3)
}

func collectEvents(t *testing.T, events <-chan AttemptEvent, n int) []AttemptEvent {
	t.Helper()
	out := make([]AttemptEvent, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("events channel closed after %d events, want %d", i, n)
			}
			out = append(out, ev)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	return out
}

func TestEngineFullRun(t *testing.T) {
	recorded := make(chan domain.Attempt, 1)
	engine, err := NewAttemptEngine("alice", engineQuestions(), time.Minute, func(at domain.Attempt) {
		recorded <- at
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Answer q1 and q2 correctly, q3 wrong.
	selections := []string{"A", "A", "B"}
	for i, label := range selections {
		evs := collectEvents(t, engine.Events(), 1)
		if evs[0].Type != EventQuestion || evs[0].Question.Index != i {
			t.Fatalf("expected question %d, got %+v", i, evs[0])
		}
		if evs[0].Question.Total != 3 {
			t.Fatalf("expected total 3, got %d", evs[0].Question.Total)
		}
		if err := engine.Answer(label); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		evs = collectEvents(t, engine.Events(), 1)
		if evs[0].Type != EventAnswerResult {
			t.Fatalf("expected answerResult, got %s", evs[0].Type)
		}
		if err := engine.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}

	evs := collectEvents(t, engine.Events(), 1)
	if evs[0].Type != EventCompleted {
		t.Fatalf("expected completed, got %s", evs[0].Type)
	}
	if evs[0].Result.Score != 2 || evs[0].Result.Total != 3 {
		t.Fatalf("expected score 2/3, got %d/%d", evs[0].Result.Score, evs[0].Result.Total)
	}
	if len(evs[0].Result.Answers) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(evs[0].Result.Answers))
	}

	select {
	case attempt := <-recorded:
		if attempt.Username != "alice" || attempt.Score != 2 || attempt.Total != 3 {
			t.Fatalf("unexpected recorded attempt %+v", attempt)
		}
		if attempt.ID == "" || attempt.SubmittedAt.IsZero() {
			t.Fatalf("expected ID and timestamp on recorded attempt")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("attempt was never recorded")
	}

	if _, ok := engine.Result(); !ok {
		t.Fatalf("expected result after completion")
	}
}

func TestEngineCountdownExpiry(t *testing.T) {
	engine, err := NewAttemptEngine("alice", testPool(1), 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	evs := collectEvents(t, engine.Events(), 2)
	if evs[0].Type != EventQuestion {
		t.Fatalf("expected question, got %s", evs[0].Type)
	}
	if evs[1].Type != EventAnswerResult {
		t.Fatalf("expected expiry answerResult, got %s", evs[1].Type)
	}
	if evs[1].Answer.Selected != "" {
		t.Fatalf("expected empty selection on timeout, got %q", evs[1].Answer.Selected)
	}
	if evs[1].Answer.Correct {
		t.Fatalf("timeout must not score")
	}

	// The state machine still advances to completion.
	if err := engine.Advance(); err != nil {
		t.Fatalf("advance after timeout: %v", err)
	}
	evs = collectEvents(t, engine.Events(), 1)
	if evs[0].Type != EventCompleted || evs[0].Result.Score != 0 {
		t.Fatalf("expected completed with score 0, got %+v", evs[0])
	}
}

func TestEngineSecondTriggerIsNoOp(t *testing.T) {
	engine, err := NewAttemptEngine("alice", testPool(1), time.Minute, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	collectEvents(t, engine.Events(), 1)

	if err := engine.Answer("A"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	// A second selection for the same question is ignored.
	if err := engine.Answer("B"); err != nil {
		t.Fatalf("repeat answer: %v", err)
	}

	evs := collectEvents(t, engine.Events(), 1)
	if evs[0].Type != EventAnswerResult || evs[0].Answer.Selected != "A" {
		t.Fatalf("expected single answerResult for A, got %+v", evs[0])
	}
	select {
	case ev := <-engine.Events():
		t.Fatalf("unexpected extra event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngineManualAnswerBeatsRacingTimer(t *testing.T) {
	// Short countdown so the expiry goroutine is in flight around the
	// manual answer. Whatever fires first, exactly one answer per question
	// must be recorded.
	engine, err := NewAttemptEngine("alice", testPool(5), 5*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := false
	for !done {
		time.Sleep(4 * time.Millisecond)
		_ = engine.Answer("A")
		if err := engine.Advance(); err != nil {
			if errors.Is(err, domain.ErrAttemptFinished) {
				break
			}
			if errors.Is(err, ErrAdvanceNotReady) {
				continue
			}
			t.Fatalf("advance: %v", err)
		}
		if _, ok := engine.Result(); ok {
			done = true
		}
	}

	attempt, ok := engine.Result()
	if !ok {
		t.Fatalf("expected completed attempt")
	}
	if attempt.Total != 5 {
		t.Fatalf("expected 5 answers, got %d", attempt.Total)
	}
	if attempt.Score > attempt.Total {
		t.Fatalf("score %d exceeds total %d", attempt.Score, attempt.Total)
	}
}

func TestEngineAdvanceRequiresAnswer(t *testing.T) {
	engine, err := NewAttemptEngine("alice", testPool(2), time.Minute, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := engine.Advance(); !errors.Is(err, ErrAdvanceNotReady) {
		t.Fatalf("expected ErrAdvanceNotReady, got %v", err)
	}
}

func TestEngineAbandonDoesNotRecord(t *testing.T) {
	recorded := make(chan domain.Attempt, 1)
	engine, err := NewAttemptEngine("alice", testPool(2), time.Minute, func(at domain.Attempt) {
		recorded <- at
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	engine.Abandon()

	if _, ok := engine.Result(); ok {
		t.Fatalf("abandoned attempt must not have a result")
	}
	select {
	case at := <-recorded:
		t.Fatalf("abandoned attempt was recorded: %+v", at)
	case <-time.After(50 * time.Millisecond):
	}
	if err := engine.Answer("A"); !errors.Is(err, domain.ErrAttemptFinished) {
		t.Fatalf("expected ErrAttemptFinished after abandon, got %v", err)
	}
}

func TestEngineRequiresQuestions(t *testing.T) {
	if _, err := NewAttemptEngine("alice", nil, time.Minute, nil); !errors.Is(err, domain.ErrQuestionBankEmpty) {
		t.Fatalf("expected ErrQuestionBankEmpty, got %v", err)
	}
}
