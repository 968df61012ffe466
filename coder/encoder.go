package coder

// Encoder turns a sequence of (cdf, symbol) pairs into a bit stream. The
// bits are logical (one byte per bit, value 0 or 1), not packed; packing to
// a printable alphabet is the job of the internal/pack collaborator.
type Encoder struct {
	st             state
	bits           []byte
	underflowCount int
}

// NewEncoder returns a fresh encoder with the coder's initial [0, 2^64)
// interval.
func NewEncoder() *Encoder {
	return &Encoder{st: newState()}
}

// EncodeSymbol narrows the coder's interval to the sub-range cdf assigns to
// sym, emitting renormalization bits as needed.
func (e *Encoder) EncodeSymbol(cdf []uint64, sym int) error {
	return e.st.update(cdf, sym, e)
}

// Finish appends the single terminating 1 bit that lets a decoder recover
// the final symbol regardless of where within the final interval the true
// code point falls.
func (e *Encoder) Finish() {
	e.emit(1)
}

// Bits returns the bit sequence produced so far (0/1 per byte, in emission
// order). The slice is owned by the encoder and must not be mutated.
func (e *Encoder) Bits() []byte {
	return e.bits
}

func (e *Encoder) emit(bit byte) {
	e.bits = append(e.bits, bit)
}

// shift satisfies hooks: the top bit of low has settled, so emit it along
// with any bits deferred during underflow renormalization.
func (e *Encoder) shift() {
	bit := byte(e.st.low >> (numStateBits - 1))
	e.emit(bit)
	opposite := bit ^ 1
	for i := 0; i < e.underflowCount; i++ {
		e.emit(opposite)
	}
	e.underflowCount = 0
}

// underflow satisfies hooks: defer a bit of unknown polarity until the next
// shift resolves it.
func (e *Encoder) underflow() {
	e.underflowCount++
}
