package stage

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/shipgrid/internal/dag"
)

// Status is the outcome of an executed stage.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result records one executed stage. It lives for the duration of the run.
type Result struct {
	Stage    string
	Status   Status
	Fatal    bool
	ExitCode int
	Output   string
	Err      error
	Duration time.Duration
}

// Failed reports whether the stage failed.
func (r *Result) Failed() bool { return r.Status == StatusFailed }

// Report holds every Result of one invocation in execution order.
type Report struct {
	Target  string
	Results []*Result
}

// Result returns the result for the named stage, if it ran.
func (r *Report) Result(name string) (*Result, bool) {
	for _, res := range r.Results {
		if res.Stage == name {
			return res, true
		}
	}
	return nil, false
}

// Executed returns the names of the stages that ran, in order.
func (r *Report) Executed() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Stage)
	}
	return out
}

// Failures returns the results of every failed stage, fatal or not.
func (r *Report) Failures() []*Result {
	var out []*Result
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// StageError is returned when a fatal stage fails. It carries the stage name
// and the captured output so the caller can show what went wrong.
type StageError struct {
	Stage  string
	Output string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// UnknownStageError is returned for an invocation of an undeclared stage.
type UnknownStageError struct {
	Name string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q", e.Name)
}

func (e *UnknownStageError) Unwrap() error { return dag.ErrUnknownNode }

// exitCoder is implemented by errors that carry a process exit status.
type exitCoder interface {
	ExitCode() int
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 1
}
