package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"quizhub/internal/domain"
)

// questionRecord matches the original questions.json layout: the four
// choice texts live in top-level A-D fields and "answer" names the correct
// label.
type questionRecord struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	A        string `json:"A"`
	B        string `json:"B"`
	C        string `json:"C"`
	D        string `json:"D"`
	Answer   string `json:"answer"`
}

// QuestionLoader reads the question bank from a JSON file once per load.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	var records []questionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.path, err)
	}
	questions := make([]domain.Question, 0, len(records))
	for i, rec := range records {
		id := rec.ID
		if id == "" {
			id = fmt.Sprintf("q%d", i+1)
		}
		questions = append(questions, domain.Question{
			ID:     id,
			Prompt: rec.Question,
			Choices: map[string]string{
				"A": rec.A,
				"B": rec.B,
				"C": rec.C,
				"D": rec.D,
			},
			CorrectLabel: rec.Answer,
		})
	}
	return questions, nil
}
