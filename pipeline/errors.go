package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrModelNotFound     = errors.New("model artifact not found")
	ErrNoExamples        = errors.New("no training examples")
	ErrEmptyArtifactPath = errors.New("empty model artifact path")
	ErrWeightsMismatch   = errors.New("model weights do not match preprocessing width")
	ErrNoModelID         = errors.New("model artifact has no id")
)

// ModelNotFoundError is returned when no artifact exists at the path
type ModelNotFoundError struct {
	Path string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("%s, %s", ErrModelNotFound.Error(), e.Path)
}

func (e *ModelNotFoundError) Unwrap() error {
	return ErrModelNotFound
}
