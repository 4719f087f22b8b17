package domain

import "time"

// Role controls access to privileged endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Credential is a stored login record. The hash is always the scrypt
// derivation of the password with the per-user salt; the salt is generated
// once at registration and never reused.
type Credential struct {
	Username string `json:"username"`
	Salt     string `json:"salt"`
	Hash     string `json:"hash"`
	Role     Role   `json:"role"`
}

// Labels are the four choice labels every question carries.
var Labels = []string{"A", "B", "C", "D"}

// Question is a multiple-choice question. Immutable once loaded.
type Question struct {
	ID           string            `json:"id"`
	Prompt       string            `json:"prompt"`
	Choices      map[string]string `json:"choices"`
	CorrectLabel string            `json:"correctLabel"`
}

// Answer captures one decided question within an attempt. Selected is empty
// when the countdown expired before the user picked a label. Write-once.
type Answer struct {
	Prompt       string            `json:"prompt"`
	Selected     string            `json:"selected"`
	CorrectLabel string            `json:"correctLabel"`
	Choices      map[string]string `json:"choices"`
}

// Correct reports whether the selected label matched.
func (a Answer) Correct() bool {
	return a.Selected != "" && a.Selected == a.CorrectLabel
}

// Attempt is one completed run through a sampled question set.
// Append-only once recorded; Score <= Total holds at creation.
type Attempt struct {
	ID          string    `json:"id"`
	Username    string    `json:"user"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"date"`
}
