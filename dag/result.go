package dag

import (
	"errors"
	"time"
)

type Status string

const (
	StatusNothingToDo Status = "nothing to do"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
)

// Record is the outcome of one task within a scheduler run.
type Record struct {
	ID       string
	State    State
	Err      error
	Duration time.Duration
}

// Result lists task records in the order they reached a terminal state.
type Result struct {
	Records []Record
}

func (r *Result) add(rec Record) { r.Records = append(r.Records, rec) }

// Status is StatusNothingToDo when every resolved task was skipped because
// its target already existed.
func (r *Result) Status() Status {
	if r.RootCause() != nil {
		return StatusFailed
	}
	for _, rec := range r.Records {
		if rec.State == Succeeded {
			return StatusSucceeded
		}
	}
	return StatusNothingToDo
}

// RootCause returns the first failure that was not itself caused by an
// upstream failure, or nil.
func (r *Result) RootCause() *Record {
	var fallback *Record
	for i := range r.Records {
		rec := &r.Records[i]
		if rec.State != Failed {
			continue
		}
		if !errors.Is(rec.Err, ErrUpstream) {
			return rec
		}
		if fallback == nil {
			fallback = rec
		}
	}
	return fallback
}

// Ran returns the IDs of tasks whose Run step completed successfully.
func (r *Result) Ran() []string {
	var ids []string
	for _, rec := range r.Records {
		if rec.State == Succeeded {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

// Lookup returns the record for id, if any.
func (r *Result) Lookup(id string) (Record, bool) {
	for _, rec := range r.Records {
		if rec.ID == id {
			return rec, true
		}
	}
	return Record{}, false
}
