package couv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelReceiverFirst(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)
	c := NewChannel[string](s)

	var got string
	var order []string
	s.Spawn("receiver", func(context.Context) {
		v, err := c.Receive()
		r.NoError(err)
		got = v
		order = append(order, "received")
	})
	s.Spawn("sender", func(context.Context) {
		r.Equal(-1, c.Balance())
		c.Send("hello")
		// the receiver is readied, the sender keeps running
		order = append(order, "sent")
	})

	r.NoError(s.Run(context.Background()))
	r.Equal("hello", got)
	r.Equal([]string{"sent", "received"}, order)
	r.Zero(c.Balance())
}

func TestChannelSenderFirst(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)
	c := NewChannel[int](s)

	var order []string
	s.Spawn("sender", func(context.Context) {
		c.Send(42)
		order = append(order, "sent")
	})
	s.Spawn("receiver", func(context.Context) {
		r.Equal(1, c.Balance())
		v, err := c.Receive()
		r.NoError(err)
		r.Equal(42, v)
		order = append(order, "received")
	})

	r.NoError(s.Run(context.Background()))
	r.Equal([]string{"received", "sent"}, order)
}

func TestChannelFIFO(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)
	c := NewChannel[int](s)

	for i := 1; i <= 3; i++ {
		s.Go(func(context.Context) { c.Send(i) })
	}
	var got []int
	s.Go(func(context.Context) {
		for i := 0; i < 3; i++ {
			v, err := c.Receive()
			r.NoError(err)
			got = append(got, v)
		}
	})

	r.NoError(s.Run(context.Background()))
	r.Equal([]int{1, 2, 3}, got)
}

func TestChannelSendError(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)
	c := NewChannel[int](s)

	errBoom := errors.New("boom")
	var got error
	s.Go(func(context.Context) {
		v, err := c.Receive()
		r.Zero(v)
		got = err
	})
	s.Go(func(context.Context) { c.SendError(errBoom) })

	r.NoError(s.Run(context.Background()))
	r.ErrorIs(got, errBoom)
}

func TestChannelReceiverCannotBeInserted(t *testing.T) {
	r := require.New(t)
	s := newTestScheduler(t)
	c := NewChannel[int](s)

	var got []int
	receiver := s.Spawn("receiver", func(context.Context) {
		for i := 0; i < 2; i++ {
			v, err := c.Receive()
			r.NoError(err)
			got = append(got, v)
		}
	})
	s.Spawn("meddler", func(context.Context) {
		r.True(receiver.Blocked())
		r.Panics(receiver.Insert)
		r.Panics(receiver.Switch)
		r.Equal(-1, c.Balance())

		c.Send(1)
		s.Yield()
		r.Equal(-1, c.Balance())
		c.Send(2)
	})

	r.NoError(s.Run(context.Background()))
	r.Equal([]int{1, 2}, got)
	r.Zero(c.Balance())
}

func TestChannelOutsideTaskletPanics(t *testing.T) {
	s := newTestScheduler(t)
	c := NewChannel[int](s)

	require.Panics(t, func() { _, _ = c.Receive() })
	require.Panics(t, func() { c.Send(1) })
}
