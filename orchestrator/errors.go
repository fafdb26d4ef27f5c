package orchestrator

import "errors"

var (
	// ErrInvalidBudget is returned when Run is called with a non-positive
	// time budget.
	ErrInvalidBudget = errors.New("orchestrator: budget must be positive")
	// ErrInvalidConcurrency is returned when Run is called with
	// maxConcurrency < 1.
	ErrInvalidConcurrency = errors.New("orchestrator: maxConcurrency must be at least 1")
)
