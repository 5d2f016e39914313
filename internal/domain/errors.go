package domain

import "errors"

// Lookup errors
var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrTopicNotFound    = errors.New("topic not found")
)

// General errors
var (
	ErrInvalidInput = errors.New("invalid input")
)
