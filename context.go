package couv

import (
	"context"
)

// taskletContextKey is the context key under which a tasklet stores
// itself.
type taskletContextKey struct{}

// withTaskletContext returns a child of ctx carrying t.
func withTaskletContext(ctx context.Context, t *Tasklet) context.Context {
	return context.WithValue(ctx, taskletContextKey{}, t)
}

// TaskletFromContext returns the tasklet carried by ctx, as passed to
// every tasklet body.
func TaskletFromContext(ctx context.Context) (*Tasklet, bool) {
	t, ok := ctx.Value(taskletContextKey{}).(*Tasklet)
	return t, ok
}

// MustTaskletFromContext is TaskletFromContext that panics if ctx carries
// no tasklet.
func MustTaskletFromContext(ctx context.Context) *Tasklet {
	t, ok := TaskletFromContext(ctx)
	if !ok {
		panic("couv: tasklet not found in context")
	}
	return t
}
