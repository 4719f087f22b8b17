package domain

import "errors"

var (
	// ErrInvalidCredentials is the uniform login rejection; it deliberately
	// does not distinguish an unknown user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserExists is returned when registering an already-taken username.
	ErrUserExists = errors.New("username already taken")
	// ErrSessionNotFound is returned when a session token does not resolve.
	ErrSessionNotFound = errors.New("session not found")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("insufficient role")
	// ErrQuestionBankEmpty indicates the question bank has no questions.
	ErrQuestionBankEmpty = errors.New("question bank is empty")
	// ErrAttemptFinished is returned for actions on a completed attempt.
	ErrAttemptFinished = errors.New("attempt already completed")
	// ErrUnknownQuestion indicates a submitted answer references no bank question.
	ErrUnknownQuestion = errors.New("unknown question")
)

// ValidationError carries a machine-readable rejection reason for
// registration input ("missing", "mismatch", "short", "exists").
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NewValidationError builds a ValidationError with the given reason.
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}
