package app

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizhub/internal/domain"
)

// DefaultQuestionSeconds is the countdown per question.
const DefaultQuestionSeconds = 15

// ErrAdvanceNotReady is returned when advance is requested before the
// current question has been answered.
var ErrAdvanceNotReady = errors.New("current question not answered yet")

type attemptState int

const (
	attemptLoading attemptState = iota
	attemptPresenting
	attemptAnswered
	attemptCompleted
)

// AttemptEventType discriminates engine events pushed to the client.
type AttemptEventType string

const (
	EventQuestion     AttemptEventType = "question"
	EventAnswerResult AttemptEventType = "answerResult"
	EventCompleted    AttemptEventType = "completed"
)

// QuestionView is a question as presented to the client: no correct label.
type QuestionView struct {
	Index   int               `json:"index"`
	Total   int               `json:"total"`
	Prompt  string            `json:"prompt"`
	Choices map[string]string `json:"choices"`
	Seconds int               `json:"seconds"`
}

// AnswerView reveals the outcome of a decided question.
type AnswerView struct {
	Index        int    `json:"index"`
	Selected     string `json:"selected"`
	CorrectLabel string `json:"correctLabel"`
	Correct      bool   `json:"correct"`
	Score        int    `json:"score"`
}

// ResultView is the final payload of a completed attempt.
type ResultView struct {
	Score   int             `json:"score"`
	Total   int             `json:"total"`
	Answers []domain.Answer `json:"answers"`
}

// AttemptEvent is one engine-to-client notification.
type AttemptEvent struct {
	Type     AttemptEventType `json:"type"`
	Question *QuestionView    `json:"question,omitempty"`
	Answer   *AnswerView      `json:"answer,omitempty"`
	Result   *ResultView      `json:"result,omitempty"`
}

// AttemptEngine drives one user's quiz attempt through the
// Loading -> Presenting(i) -> Answered(i) -> ... -> Completed state machine.
// Each presented question runs a countdown; a manual answer and the expiry
// race for the single decision slot, and whichever fires first wins.
type AttemptEngine struct {
	id          string
	username    string
	questions   []domain.Question
	perQuestion time.Duration
	now         func() time.Time
	onComplete  func(domain.Attempt)

	mu           sync.Mutex
	state        attemptState
	index        int
	answers      []domain.Answer
	score        int
	timer        *time.Timer
	timerGen     int
	events       chan AttemptEvent
	eventsClosed bool
	abandoned    bool
	result       domain.Attempt
}

// NewAttemptEngine builds an engine in the Loading state. onComplete is
// invoked exactly once, off the engine lock, when the attempt completes.
func NewAttemptEngine(username string, questions []domain.Question, perQuestion time.Duration, onComplete func(domain.Attempt)) (*AttemptEngine, error) {
	if len(questions) == 0 {
		return nil, domain.ErrQuestionBankEmpty
	}
	if perQuestion <= 0 {
		perQuestion = DefaultQuestionSeconds * time.Second
	}
	return &AttemptEngine{
		id:          uuid.New().String(),
		username:    username,
		questions:   questions,
		perQuestion: perQuestion,
		now:         time.Now,
		onComplete:  onComplete,
		state:       attemptLoading,
		answers:     make([]domain.Answer, 0, len(questions)),
		// Two events per question plus the completion event; sized so
		// emits under the lock never block.
		events: make(chan AttemptEvent, 2*len(questions)+1),
	}, nil
}

// ID identifies the attempt for idempotent recording.
func (e *AttemptEngine) ID() string { return e.id }

// Events returns the engine's notification stream. It is closed after the
// completed event or when the attempt is abandoned.
func (e *AttemptEngine) Events() <-chan AttemptEvent { return e.events }

// Start moves Loading -> Presenting(0) and arms the first countdown.
func (e *AttemptEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != attemptLoading {
		return domain.ErrAttemptFinished
	}
	e.presentLocked(0)
	return nil
}

// Answer records a manual selection for the current question. Input outside
// the Presenting state is ignored: the question was already decided by an
// earlier selection or by the countdown.
func (e *AttemptEngine) Answer(label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == attemptCompleted {
		return domain.ErrAttemptFinished
	}
	if e.state != attemptPresenting {
		return nil
	}
	e.answerLocked(label)
	return nil
}

// Advance moves Answered(i) -> Presenting(i+1), or to Completed after the
// last question.
func (e *AttemptEngine) Advance() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case attemptCompleted:
		return domain.ErrAttemptFinished
	case attemptAnswered:
	default:
		return ErrAdvanceNotReady
	}
	next := e.index + 1
	if next == len(e.questions) {
		e.completeLocked()
		return nil
	}
	e.presentLocked(next)
	return nil
}

// Abandon cancels the attempt without recording anything. Safe to call at
// any point, including after completion.
func (e *AttemptEngine) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == attemptCompleted {
		return
	}
	e.cancelTimerLocked()
	e.state = attemptCompleted
	e.abandoned = true
	e.closeEventsLocked()
}

// Result returns the final attempt once completed (and not abandoned).
func (e *AttemptEngine) Result() (domain.Attempt, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != attemptCompleted || e.abandoned {
		return domain.Attempt{}, false
	}
	return e.result, true
}

func (e *AttemptEngine) presentLocked(i int) {
	e.index = i
	e.state = attemptPresenting
	e.cancelTimerLocked()
	gen := e.timerGen
	e.timer = time.AfterFunc(e.perQuestion, func() { e.expire(gen) })

	q := e.questions[i]
	e.emitLocked(AttemptEvent{Type: EventQuestion, Question: &QuestionView{
		Index:   i,
		Total:   len(e.questions),
		Prompt:  q.Prompt,
		Choices: q.Choices,
		Seconds: int(e.perQuestion / time.Second),
	}})
}

// expire is the countdown trigger. The generation check makes cancellation
// exact: a timer stopped after its goroutine was already scheduled finds a
// newer generation and backs off.
func (e *AttemptEngine) expire(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != attemptPresenting || gen != e.timerGen {
		return
	}
	e.answerLocked("")
}

func (e *AttemptEngine) answerLocked(label string) {
	e.cancelTimerLocked()

	q := e.questions[e.index]
	answer := domain.Answer{
		Prompt:       q.Prompt,
		Selected:     label,
		CorrectLabel: q.CorrectLabel,
		Choices:      q.Choices,
	}
	e.answers = append(e.answers, answer)
	if answer.Correct() {
		e.score++
	}
	e.state = attemptAnswered

	e.emitLocked(AttemptEvent{Type: EventAnswerResult, Answer: &AnswerView{
		Index:        e.index,
		Selected:     label,
		CorrectLabel: q.CorrectLabel,
		Correct:      answer.Correct(),
		Score:        e.score,
	}})
}

func (e *AttemptEngine) completeLocked() {
	e.state = attemptCompleted
	e.result = domain.Attempt{
		ID:          e.id,
		Username:    e.username,
		Score:       e.score,
		Total:       len(e.questions),
		SubmittedAt: e.now(),
	}

	answers := make([]domain.Answer, len(e.answers))
	copy(answers, e.answers)
	e.emitLocked(AttemptEvent{Type: EventCompleted, Result: &ResultView{
		Score:   e.score,
		Total:   len(e.questions),
		Answers: answers,
	}})
	e.closeEventsLocked()

	if e.onComplete != nil {
		// Recording may hit slow storage; keep it off the engine lock.
		go e.onComplete(e.result)
	}
}

func (e *AttemptEngine) cancelTimerLocked() {
	e.timerGen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *AttemptEngine) emitLocked(ev AttemptEvent) {
	if e.eventsClosed {
		return
	}
	e.events <- ev
}

func (e *AttemptEngine) closeEventsLocked() {
	if e.eventsClosed {
		return
	}
	e.eventsClosed = true
	close(e.events)
}
