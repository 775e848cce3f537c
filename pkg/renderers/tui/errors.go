package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoOrchestrator is returned by Run when no orchestrator is supplied.
	ErrNoOrchestrator = errors.New("tui: orchestrator is required")
)
