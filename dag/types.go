package dag

import (
	"context"
	"time"
)

// Task is a unit of pipeline work. Two tasks with the same ID are the same
// task and run at most once per Scheduler.
type Task interface {
	ID() string
	Deps() []Task
	Output() Target
	Run(ctx context.Context) (Outcome, error)
	Timeout() time.Duration
}

// Outcome is what a task's Run step reports back to the scheduler. A task
// that only learns its real work at run time returns MoreWork; the scheduler
// resolves those tasks before considering the parent succeeded.
type Outcome struct {
	More []Task
}

// Done reports that the task finished without spawning sub-tasks.
func Done() Outcome { return Outcome{} }

// MoreWork reports sub-tasks that must succeed before the caller is done.
func MoreWork(tasks ...Task) Outcome { return Outcome{More: tasks} }

type State int

const (
	Pending State = iota
	Running
	Succeeded
	Skipped // target already existed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ok reports whether dependents may proceed.
func (s State) ok() bool { return s == Succeeded || s == Skipped }

func (s State) terminal() bool { return s == Succeeded || s == Skipped || s == Failed }
