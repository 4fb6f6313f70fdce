package stage

import (
	"context"
	"io"
)

type outputKey struct{}

// WithOutput returns a context whose stage output writer is w. The executor
// installs one per stage so commands can stream into the stage's capture.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

// Output returns the current stage's output writer, or io.Discard outside a
// stage.
func Output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok {
		return w
	}
	return io.Discard
}
