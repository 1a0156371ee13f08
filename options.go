package couv

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/webriots/couv/reactor"
)

// schedulerOptions holds configuration for a Scheduler and its Hub.
type schedulerOptions struct {
	logger        *logiface.Logger[logiface.Event]
	yieldInterval time.Duration
	newLoop       func() (*reactor.Loop, error)
}

// Option configures a Scheduler.
type Option interface {
	applyScheduler(*schedulerOptions) error
}

type optionFunc func(*schedulerOptions) error

func (f optionFunc) applyScheduler(opts *schedulerOptions) error {
	return f(opts)
}

// WithLogger sets the structured logger used by the scheduler and its hub.
// A nil logger disables logging, which is the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return optionFunc(func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	})
}

// WithYieldInterval sets how often the reactor driver yields to other
// ready tasklets while the loop runs. It defaults to DefaultYieldInterval.
func WithYieldInterval(d time.Duration) Option {
	return optionFunc(func(opts *schedulerOptions) error {
		if d <= 0 {
			return errors.New("couv: yield interval must be positive")
		}
		opts.yieldInterval = d
		return nil
	})
}

// WithLoopFactory replaces reactor.New as the constructor of the hub's
// event loop.
func WithLoopFactory(fn func() (*reactor.Loop, error)) Option {
	return optionFunc(func(opts *schedulerOptions) error {
		if fn == nil {
			return errors.New("couv: nil loop factory")
		}
		opts.newLoop = fn
		return nil
	})
}

func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		yieldInterval: DefaultYieldInterval,
		newLoop:       reactor.New,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WaitOption configures a single blocking wait on the hub.
type WaitOption func(*waitOptions)

type waitOptions struct {
	keepAlive bool
}

// KeepAlive controls whether the pending wait keeps the event loop running
// on its own. It defaults to true. With false, the loop may finish while
// the wait is outstanding, leaving the waiter parked.
func KeepAlive(keep bool) WaitOption {
	return func(opts *waitOptions) {
		opts.keepAlive = keep
	}
}

func resolveWaitOptions(opts []WaitOption) waitOptions {
	cfg := waitOptions{keepAlive: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
