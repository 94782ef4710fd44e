package categorize

import (
	"errors"
	"fmt"
)

var (
	errEmptyAnswer   = errors.New("model returned an empty answer")
	errNoAssignments = errors.New("model answer assigned no known records")
)

type answerError struct {
	err error
}

func (e *answerError) Error() string {
	return fmt.Sprintf("model answer is not a category object: %v", e.err)
}

func (e *answerError) Unwrap() error {
	return e.err
}
