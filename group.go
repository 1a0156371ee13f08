package couv

import "context"

// Group runs child tasklets and collects the first error one of them
// returns. The group context is canceled with that error.
type Group struct {
	sched  *Scheduler
	ctx    context.Context
	cancel func(error)
	wg     WaitGroup
	err    error
}

// Group creates a Group whose tasklets are spawned on t's scheduler with a
// context derived from t's.
func (t *Tasklet) Group() *Group {
	ctx, cancel := context.WithCancelCause(t.ctx)
	return &Group{sched: t.sched, ctx: ctx, cancel: cancel}
}

// Go spawns fn as a new tasklet in the group.
func (g *Group) Go(fn func(context.Context) error) *Tasklet {
	g.wg.Add(1)
	return g.sched.Go(func(ctx context.Context) {
		defer g.wg.Done()

		t := MustTaskletFromContext(ctx)
		if err := fn(withTaskletContext(g.ctx, t)); err != nil && g.err == nil {
			g.err = err
			g.cancel(err)
		}
	})
}

// Wait parks t until every tasklet of the group has returned, then returns
// the first error.
func (g *Group) Wait(t *Tasklet) error {
	g.wg.Wait(t)
	g.cancel(g.err)
	return g.err
}
