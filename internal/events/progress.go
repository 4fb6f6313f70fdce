package events

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vk/shipgrid/internal/stage"
)

// Progress writes one human-readable line per finished stage.
type Progress struct {
	W io.Writer
}

// NewProgress returns a Progress writing to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{W: w}
}

func (p *Progress) StageStarted(context.Context, *stage.Stage) {}

func (p *Progress) StageFinished(_ context.Context, r *stage.Result) {
	switch {
	case !r.Failed():
		fmt.Fprintf(p.W, "ok    %-16s %s\n", r.Stage, r.Duration.Round(time.Millisecond))
	case r.Fatal:
		fmt.Fprintf(p.W, "FAIL  %-16s %s (exit %d)\n", r.Stage, r.Duration.Round(time.Millisecond), r.ExitCode)
	default:
		fmt.Fprintf(p.W, "WARN  %-16s %s (exit %d, ignored)\n", r.Stage, r.Duration.Round(time.Millisecond), r.ExitCode)
	}
}
