package couv

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webriots/couv/reactor"
)

func TestResolveDescriptor(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "fd")
	require.NoError(t, err)
	defer f.Close()

	for _, tc := range []struct {
		name string
		in   any
		want int
	}{
		{"int", 7, 7},
		{"negative int unchanged", -1, -1},
		{"int8", int8(5), 5},
		{"int16", int16(6), 6},
		{"uint", uint(15), 15},
		{"uint8", uint8(16), 16},
		{"uint16", uint16(17), 17},
		{"uint32", uint32(18), 18},
		{"uint64", uint64(19), 19},
		{"int32", int32(8), 8},
		{"int64", int64(9), 9},
		{"uintptr", uintptr(10), 10},
		{"raw descriptor", RawDescriptor(11), 11},
		{"accessor value", AccessorValue{FD: 12}, 12},
		{"accessor method", AccessorMethod(func() int { return 13 }), 13},
		{"plain func", func() int { return 14 }, 14},
		{"os file", f, int(f.Fd())},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveDescriptor(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestResolveDescriptorInvalid(t *testing.T) {
	var nilMethod AccessorMethod
	var nilFunc func() int

	for _, tc := range []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"string", "3"},
		{"float", 3.0},
		{"struct", struct{ FD int }{3}},
		{"nil accessor method", nilMethod},
		{"nil func", nilFunc},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveDescriptor(tc.in)
			require.ErrorIs(t, err, ErrInvalidDescriptor)
		})
	}
}

func TestResolveInterest(t *testing.T) {
	r := require.New(t)
	r.Equal(reactor.Readable, ResolveInterest(Read))
	r.Equal(reactor.Writable, ResolveInterest(Write))
	r.Equal(reactor.Readable|reactor.Writable, ResolveInterest(ReadWrite))
	r.Equal(reactor.Readable|reactor.Writable, ResolveInterest(Interest(42)))
	r.Equal(reactor.Readable|reactor.Writable, ResolveInterest(Interest(-1)))

	r.Equal("read", Read.String())
	r.Equal("Interest(42)", Interest(42).String())
}
