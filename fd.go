package couv

import (
	"fmt"

	"github.com/webriots/couv/reactor"
)

// DescriptorSource is implemented by values that name an OS file
// descriptor.
type DescriptorSource interface {
	Descriptor() (int, error)
}

// RawDescriptor is a file descriptor number.
type RawDescriptor int

func (d RawDescriptor) Descriptor() (int, error) {
	return int(d), nil
}

// AccessorValue holds a descriptor stored on some owning object.
type AccessorValue struct {
	FD int
}

func (a AccessorValue) Descriptor() (int, error) {
	return a.FD, nil
}

// AccessorMethod computes a descriptor on demand.
type AccessorMethod func() int

func (m AccessorMethod) Descriptor() (int, error) {
	if m == nil {
		return -1, fmt.Errorf("%w: nil accessor", ErrInvalidDescriptor)
	}
	return m(), nil
}

// ResolveDescriptor returns the descriptor named by x. Values of any
// built-in integer type are returned unchanged. A DescriptorSource, a
// value with an Fd() uintptr method such as *os.File, or a func() int are
// asked for their descriptor. Anything else fails with ErrInvalidDescriptor; strings and
// floats are never converted.
func ResolveDescriptor(x any) (int, error) {
	switch v := x.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case uintptr:
		return int(v), nil
	case DescriptorSource:
		return v.Descriptor()
	case interface{ Fd() uintptr }:
		return int(v.Fd()), nil
	case func() int:
		if v == nil {
			return -1, fmt.Errorf("%w: nil accessor", ErrInvalidDescriptor)
		}
		return v(), nil
	default:
		return -1, fmt.Errorf("%w: %T", ErrInvalidDescriptor, x)
	}
}

// Interest is the readiness a waiter cares about.
type Interest int

const (
	Read Interest = iota
	Write
	ReadWrite
)

func (m Interest) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("Interest(%d)", int(m))
	}
}

// ResolveInterest maps m to reactor events. Read and Write select one
// direction; every other value, ReadWrite included, selects both.
func ResolveInterest(m Interest) reactor.Events {
	switch m {
	case Read:
		return reactor.Readable
	case Write:
		return reactor.Writable
	default:
		return reactor.Readable | reactor.Writable
	}
}
