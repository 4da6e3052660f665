package dag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/humblenginr/site_publisher/logger"
)

type node struct {
	task  Task
	state State
	err   error
	cause string // ID of the task where a failure originated
}

// Scheduler walks a task graph depth-first. A task whose target exists is
// skipped without resolving its dependencies; everything else runs after its
// dependencies succeed. Execution is sequential.
type Scheduler struct {
	log      *logger.Logger
	nodes    map[string]*node
	visiting map[string]bool
	result   *Result
}

func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		log:      log,
		nodes:    make(map[string]*node),
		visiting: make(map[string]bool),
	}
}

// Run resolves every root in order. A failing root does not stop the roots
// after it. The returned error wraps the first root-cause failure.
func (s *Scheduler) Run(ctx context.Context, roots ...Task) (*Result, error) {
	s.result = &Result{}
	for _, t := range roots {
		s.resolve(ctx, t)
	}

	if rc := s.result.RootCause(); rc != nil {
		return s.result, fmt.Errorf("execution failed for %s: %w", rc.ID, rc.Err)
	}
	return s.result, nil
}

// State returns the recorded state of the task with the given ID.
func (s *Scheduler) State(id string) State {
	if n, ok := s.nodes[id]; ok {
		return n.state
	}
	return Pending
}

func (s *Scheduler) resolve(ctx context.Context, t Task) *node {
	id := t.ID()
	n, ok := s.nodes[id]
	if ok && n.state.terminal() {
		return n
	}
	if s.visiting[id] {
		// The node is on the current stack. Its own frame records the
		// cycle once the loop unwinds back to it.
		return &node{task: t, state: Failed, cause: id}
	}
	if !ok {
		n = &node{task: t, state: Pending}
		s.nodes[id] = n
	}

	s.visiting[id] = true
	defer delete(s.visiting, id)

	log := s.log.With("task", id)

	exists, err := t.Output().Exists()
	if err != nil {
		s.fail(n, fmt.Errorf("checking target %s: %w", t.Output(), err), id, 0)
		return n
	}
	if exists {
		log.Infow("target exists, skipping", "target", t.Output().String())
		n.state = Skipped
		s.result.add(Record{ID: id, State: Skipped})
		return n
	}

	if cause := s.resolveAll(ctx, t.Deps()); cause != "" {
		log.Warnw("skipping task due to upstream failure", "cause", cause)
		s.fail(n, upstreamErr(id, cause), cause, 0)
		return n
	}

	log.Infow("starting task")
	n.state = Running
	start := time.Now()

	out, err := s.runTask(ctx, t)
	if err != nil {
		log.Errorw("task failed", "error", err, "duration", time.Since(start))
		s.fail(n, &TaskError{Task: id, Err: err}, id, time.Since(start))
		return n
	}

	if len(out.More) > 0 {
		log.Infow("task yielded sub-tasks", "count", len(out.More))
		if cause := s.resolveAll(ctx, out.More); cause != "" {
			s.fail(n, upstreamErr(id, cause), cause, time.Since(start))
			return n
		}
	}

	n.state = Succeeded
	s.result.add(Record{ID: id, State: Succeeded, Duration: time.Since(start)})
	log.Infow("task succeeded", "duration", time.Since(start))
	return n
}

// resolveAll resolves every task, including those after a failure, and
// returns the root-cause ID of the first failure seen.
func (s *Scheduler) resolveAll(ctx context.Context, tasks []Task) string {
	cause := ""
	for _, dep := range tasks {
		dn := s.resolve(ctx, dep)
		if !dn.state.ok() && cause == "" {
			cause = dn.cause
		}
	}
	return cause
}

func (s *Scheduler) runTask(ctx context.Context, t Task) (Outcome, error) {
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}
	if d := t.Timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	out, err := t.Run(ctx)
	if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ctx.Err()
	}
	return out, err
}

// upstreamErr is the error for id when cause failed before it could run. A
// cause equal to id means the dependency chain led back to the task itself.
func upstreamErr(id, cause string) error {
	if cause == id {
		return fmt.Errorf("%w involving %s", ErrCycle, id)
	}
	return &UpstreamFailure{Task: id, Cause: cause}
}

func (s *Scheduler) fail(n *node, err error, cause string, d time.Duration) {
	n.state = Failed
	n.err = err
	n.cause = cause
	s.result.add(Record{ID: n.task.ID(), State: Failed, Err: err, Duration: d})
}
