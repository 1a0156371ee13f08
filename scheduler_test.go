package couv

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, opts ...Option) *Scheduler {
	t.Helper()
	s, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSpawnRunsInOrder(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		s.Spawn(name, func(ctx context.Context) {
			order = append(order, MustTaskletFromContext(ctx).Name())
		})
	}
	r.Equal(3, s.Runnable())

	r.NoError(s.Run(context.Background()))
	r.Equal([]string{"a", "b", "c"}, order)
	r.Zero(s.Runnable())
}

func TestYieldInterleaves(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	var order []string
	for _, name := range []string{"a", "b"} {
		s.Spawn(name, func(context.Context) {
			for i := 1; i <= 3; i++ {
				order = append(order, fmt.Sprintf("%s%d", name, i))
				s.Yield()
			}
		})
	}

	r.NoError(s.Run(context.Background()))
	r.Equal([]string{"a1", "b1", "a2", "b2", "a3", "b3"}, order)
}

func TestSwitchRunsTargetNext(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	var order []string
	var c *Tasklet
	s.Spawn("a", func(context.Context) {
		order = append(order, "a1")
		c.Switch()
		order = append(order, "a2")
	})
	s.Spawn("b", func(context.Context) { order = append(order, "b") })
	c = s.Spawn("c", func(context.Context) { order = append(order, "c") })

	r.NoError(s.Run(context.Background()))
	r.Equal([]string{"a1", "c", "b", "a2"}, order)
}

func TestRemoveAndInsert(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	var order []string
	a := s.Spawn("a", func(ctx context.Context) {
		order = append(order, "a1")
		MustTaskletFromContext(ctx).Remove()
		s.Yield()
		order = append(order, "a2")
	})
	s.Spawn("b", func(context.Context) {
		order = append(order, "b")
		r.True(a.Blocked())
		r.Equal(1, s.Parked())
		a.Insert()
		r.False(a.Blocked())
	})

	r.NoError(s.Run(context.Background()))
	r.Equal([]string{"a1", "b", "a2"}, order)
	r.False(a.Alive())
	r.Zero(s.Parked())
}

func TestRemoveQueuedTasklet(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	ran := false
	b := s.Spawn("b", func(context.Context) { ran = true })
	b.Remove()
	r.Zero(s.Runnable())

	err := s.Run(context.Background())
	r.ErrorIs(err, ErrDeadlock)
	r.False(ran)

	b.Insert()
	r.NoError(s.Run(context.Background()))
	r.True(ran)
}

func TestRemovedTaskletReturns(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	done := s.Spawn("removed", func(ctx context.Context) {
		MustTaskletFromContext(ctx).Remove()
	})

	r.NoError(s.Run(context.Background()))
	r.False(done.Alive())
	r.Zero(s.Parked())
}

func TestInsertRefusesWaitingTasklet(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	var mux Mutex
	var waiter *Tasklet
	s.Spawn("owner", func(ctx context.Context) {
		mux.Lock(MustTaskletFromContext(ctx))
		s.Yield()
		r.True(waiter.Blocked())
		r.Panics(waiter.Insert)
		r.Panics(waiter.Switch)
		mux.Unlock()
	})
	waiter = s.Spawn("waiter", func(ctx context.Context) {
		mux.Lock(MustTaskletFromContext(ctx))
		mux.Unlock()
	})

	r.NoError(s.Run(context.Background()))
	r.False(waiter.Alive())
}

func TestDeadlock(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	c := NewChannel[int](s)
	s.Go(func(context.Context) {
		_, _ = c.Receive()
		r.Fail("receive returned")
	})

	err := s.Run(context.Background())
	r.ErrorIs(err, ErrDeadlock)
	r.Equal(1, s.Parked())
	r.Equal(-1, c.Balance())
}

func TestTaskletContext(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	var child *Tasklet
	parent := s.Spawn("parent", func(ctx context.Context) {
		self, ok := TaskletFromContext(ctx)
		r.True(ok)
		r.Same(s.Current(), self)
		r.Equal("v", ctx.Value(key{}))
		r.Same(s, self.Scheduler())

		child = s.Go(func(ctx context.Context) {
			r.Same(child, MustTaskletFromContext(ctx))
		})
	})

	r.Nil(parent.Context())
	r.NoError(s.Run(ctx))
	r.NotNil(parent.Context())
	r.Same(parent, child.parent)
	r.Equal(fmt.Sprintf("tasklet-%d", child.ID()), child.Name())
	r.Nil(s.Current())

	_, ok := TaskletFromContext(context.Background())
	r.False(ok)
	r.Panics(func() { MustTaskletFromContext(context.Background()) })
}

func TestMutex(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	n := 0
	var order []string
	s.Spawn("main", func(ctx context.Context) {
		task := MustTaskletFromContext(ctx)

		var mux Mutex
		critical := 0
		mux.Lock(task)

		for _, name := range []string{"one", "two", "three"} {
			s.Spawn(name, func(ctx context.Context) {
				task := MustTaskletFromContext(ctx)

				mux.Lock(task)
				defer mux.Unlock()
				r.Same(task, mux.Owner())

				n++
				critical++
				r.Equal(1, critical)
				defer func() { critical-- }()

				s.Yield()
				order = append(order, name)
			})
		}

		s.Yield()
		r.Equal(3, mux.WaitCount())
		mux.Unlock()
		n++
	})

	r.NoError(s.Run(context.Background()))
	r.Equal(4, n)
	r.Equal([]string{"one", "two", "three"}, order)
}

func TestMutexUnlockUnlockedPanics(t *testing.T) {
	var mux Mutex
	require.Panics(t, mux.Unlock)
}

func TestWaitGroup(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	n := 0
	s.Spawn("main", func(ctx context.Context) {
		var wg WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			s.Go(func(context.Context) {
				defer wg.Done()
				s.Yield()
				n++
			})
		}
		wg.Wait(MustTaskletFromContext(ctx))
		r.Equal(10, n)
		wg.Wait(MustTaskletFromContext(ctx))
	})

	r.NoError(s.Run(context.Background()))
	r.Equal(10, n)
}

func TestWaitGroupNegativePanics(t *testing.T) {
	var wg WaitGroup
	require.Panics(t, wg.Done)
}

func TestGroup(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	errBoom := errors.New("boom")
	var waited error
	var canceled bool
	s.Spawn("main", func(ctx context.Context) {
		task := MustTaskletFromContext(ctx)
		group := task.Group()

		for i := 0; i < 5; i++ {
			group.Go(func(ctx context.Context) error {
				s.Yield()
				if i == 2 {
					return errBoom
				}
				if i == 4 {
					canceled = ctx.Err() != nil
				}
				return nil
			})
		}
		waited = group.Wait(task)
	})

	r.NoError(s.Run(context.Background()))
	r.ErrorIs(waited, errBoom)
	r.True(canceled)
}

func TestPanic(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)

	err := fmt.Errorf("UH OH")

	s.Go(func(context.Context) {
		s.Go(func(context.Context) {
			s.Go(func(context.Context) {
				panic(err)
			})
		})
	})

	r.Panics(func() { _ = s.Run(context.Background()) })
}

func TestOptionsValidation(t *testing.T) {
	r := require.New(t)

	_, err := New(WithYieldInterval(0))
	r.Error(err)

	_, err = New(WithLoopFactory(nil))
	r.Error(err)

	s, err := New(nil, WithYieldInterval(DefaultYieldInterval*2))
	r.NoError(err)
	r.Equal(2*DefaultYieldInterval, s.opts.yieldInterval)
}
