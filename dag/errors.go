package dag

import (
	"errors"
	"fmt"
)

var (
	ErrUpstream = errors.New("dag: upstream task failed")
	ErrCycle    = errors.New("dag: dependency cycle")
)

// UpstreamFailure is recorded for a task that never started because one of
// its dependencies failed. Cause names the task where the failure began.
type UpstreamFailure struct {
	Task  string
	Cause string
}

func (e *UpstreamFailure) Error() string {
	return fmt.Sprintf("skipped %s due to upstream failure of %s", e.Task, e.Cause)
}

func (e *UpstreamFailure) Unwrap() error { return ErrUpstream }

// TaskError wraps the error a task's own Run step returned.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string { return fmt.Sprintf("task %s: %v", e.Task, e.Err) }

func (e *TaskError) Unwrap() error { return e.Err }
