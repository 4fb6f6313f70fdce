// Package events reports stage lifecycle events. Reporters implement
// stage.Observer and can be combined with Fanout.
package events

import (
	"context"
	"time"

	"github.com/vk/shipgrid/internal/stage"
)

// Event types.
const (
	TypeStarted  = "stage_started"
	TypeFinished = "stage_finished"
)

// Event is the payload broadcast for each lifecycle change.
type Event struct {
	Type       string    `json:"type"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status,omitempty"`
	Fatal      bool      `json:"fatal"`
	ExitCode   int       `json:"exit_code,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

func startedEvent(s *stage.Stage, now time.Time) Event {
	return Event{Type: TypeStarted, Stage: s.Name, Fatal: s.Fatal, Time: now}
}

func finishedEvent(r *stage.Result, now time.Time) Event {
	ev := Event{
		Type:       TypeFinished,
		Stage:      r.Stage,
		Status:     string(r.Status),
		Fatal:      r.Fatal,
		ExitCode:   r.ExitCode,
		DurationMS: r.Duration.Milliseconds(),
		Time:       now,
	}
	if r.Err != nil {
		ev.Error = r.Err.Error()
	}
	return ev
}

type fanout []stage.Observer

// Fanout returns an observer that forwards to every non-nil observer in
// order.
func Fanout(observers ...stage.Observer) stage.Observer {
	var f fanout
	for _, o := range observers {
		if o != nil {
			f = append(f, o)
		}
	}
	return f
}

func (f fanout) StageStarted(ctx context.Context, s *stage.Stage) {
	for _, o := range f {
		o.StageStarted(ctx, s)
	}
}

func (f fanout) StageFinished(ctx context.Context, r *stage.Result) {
	for _, o := range f {
		o.StageFinished(ctx, r)
	}
}
