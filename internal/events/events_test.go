package events

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shipgrid/internal/stage"
)

type fakeEmitter struct {
	events []Event
	closed bool
}

func (f *fakeEmitter) emit(ev Event) { f.events = append(f.events, ev) }
func (f *fakeEmitter) close()        { f.closed = true }

type countingObserver struct{ started, finished int }

func (c *countingObserver) StageStarted(context.Context, *stage.Stage)   { c.started++ }
func (c *countingObserver) StageFinished(context.Context, *stage.Result) { c.finished++ }

func TestSocketReporter_EmitsLifecycle(t *testing.T) {
	em := &fakeEmitter{}
	r := newSocketReporter(em)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	ctx := context.Background()
	r.StageStarted(ctx, &stage.Stage{Name: "test", Fatal: true})
	r.StageFinished(ctx, &stage.Result{
		Stage:    "test",
		Status:   stage.StatusFailed,
		Fatal:    true,
		ExitCode: 2,
		Err:      errors.New("exit status 2"),
		Duration: 1500 * time.Millisecond,
	})
	r.Close()

	require.Len(t, em.events, 2)
	assert.Equal(t, Event{Type: TypeStarted, Stage: "test", Fatal: true, Time: fixed}, em.events[0])
	assert.Equal(t, Event{
		Type:       TypeFinished,
		Stage:      "test",
		Status:     "failed",
		Fatal:      true,
		ExitCode:   2,
		DurationMS: 1500,
		Error:      "exit status 2",
		Time:       fixed,
	}, em.events[1])
	assert.True(t, em.closed)
}

func TestFanout_SkipsNil(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	o := Fanout(a, nil, b)

	o.StageStarted(context.Background(), &stage.Stage{Name: "x"})
	o.StageFinished(context.Background(), &stage.Result{Stage: "x"})

	assert.Equal(t, 1, a.started)
	assert.Equal(t, 1, b.finished)
}

func TestProgress_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)
	ctx := context.Background()

	p.StageFinished(ctx, &stage.Result{Stage: "build", Status: stage.StatusSucceeded, Duration: 2 * time.Second})
	p.StageFinished(ctx, &stage.Result{Stage: "lint", Status: stage.StatusFailed, ExitCode: 16})
	p.StageFinished(ctx, &stage.Result{Stage: "test", Status: stage.StatusFailed, Fatal: true, ExitCode: 1})

	assert.Equal(t,
		"ok    build            2s\n"+
			"WARN  lint             0s (exit 16, ignored)\n"+
			"FAIL  test             0s (exit 1)\n",
		buf.String())
}

func TestDial_RejectsRelativeURL(t *testing.T) {
	_, err := Dial(context.Background(), "dashboard/socket", SocketOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be absolute")
}
