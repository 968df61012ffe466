// Package coder implements the finite-precision binary arithmetic coder that
// sits underneath the predictive loop: a shared renormalizing state machine
// specialized into an Encoder and a Decoder.
package coder

import (
	"math/bits"

	"github.com/mewkiz/pkg/errutil"
)

// numStateBits is B in the design: the coder carries exactly 64 bits of
// low/high/code precision.
const numStateBits = 64

const (
	half    = uint64(1) << (numStateBits - 1)
	quarter = uint64(1) << (numStateBits - 2)
)

// state is the {low, high} interval shared by Encoder and Decoder. Go's
// native uint64 wraparound on shift plays the role of the explicit
// "& mask" steps a bignum-based reference implementation needs, since low
// and high never exceed 64 bits of precision here.
type state struct {
	low, high uint64
}

func newState() state {
	return state{low: 0, high: ^uint64(0)}
}

// hooks are the two renormalization callbacks a concrete coder variant
// supplies; update never reads or writes bits itself.
type hooks interface {
	shift()
	underflow()
}

// ErrZeroMass is returned when a CDF's total frequency is zero, which would
// make update's divisions ill-defined. The CDF Builder invariant (every
// symbol has frequency >= 1) should make this unreachable in practice.
var ErrZeroMass = errutil.New("coder: cdf has zero total mass")

// update narrows the interval to the sub-range assigned to symbol s by cdf,
// then renormalizes, invoking h.shift()/h.underflow() for every bit the
// renormalization emits or consumes.
func (s *state) update(cdf []uint64, sym int, h hooks) error {
	total := cdf[len(cdf)-1]
	if total == 0 {
		return ErrZeroMass
	}
	var low uint64
	if sym > 0 {
		low = cdf[sym-1]
	}
	high := cdf[sym]

	origLow, origHigh := s.low, s.high
	s.high = origLow + scale(high, total, origLow, origHigh) - 1
	s.low = origLow + scale(low, total, origLow, origHigh)

	for (s.low^s.high)&half == 0 {
		h.shift()
		s.low = s.low << 1
		s.high = (s.high << 1) | 1
	}
	for s.low&^s.high&quarter != 0 {
		h.underflow()
		s.low = (s.low << 1) ^ half
		s.high = ((s.high ^ half) << 1) | half | 1
	}
	return nil
}

// scale computes floor(sym * (high-low+1) / total) using a 128-bit
// intermediate product so that the range (high-low+1, which equals 2^64
// exactly in the coder's initial state) never has to be materialized as a
// uint64 in its own right. bits.Mul64/Div64 are the stdlib's primitives for
// exactly this widen-multiply-then-divide pattern; there is no third-party
// big-integer library in the retrieved corpus that does this more directly,
// and reaching for math/big here would cost an allocation per coded symbol.
func scale(sym, total, low, high uint64) uint64 {
	diff := high - low // always < 2^64, even when the conceptual range is 2^64
	hi, lo := bits.Mul64(sym, diff)
	lo2, carry := bits.Add64(lo, sym, 0)
	hi2 := hi + carry
	if hi2 == total {
		// sym*(diff+1) == total*2^64 exactly: the true quotient is 2^64,
		// which is 0 modulo 2^64. Only possible when sym==total and the
		// state is still in its initial [0, 2^64) interval (the very first
		// symbol claims the entire range); the caller's "-1" step below
		// wraps 0-1 back to the correct 2^64-1 (MASK).
		return 0
	}
	q, _ := bits.Div64(hi2, lo2, total)
	return q
}
