// Package cdfbuild implements the CDF Builder (spec.md §4.4): turning a
// model's logits for one prediction step into the strictly monotonic
// cumulative-frequency table the arithmetic coder codes against.
package cdfbuild

import (
	"math"

	"github.com/mewkiz/pkg/errutil"
)

// Scale is S, the frequency scale factor (spec.md §4.4).
const Scale = uint64(1) << 32

// quarterRange is the coder's QUARTER (2^62), the total-mass ceiling a CDF
// must respect (spec.md §3, §4.4).
const quarterRange = uint64(1) << 62

// ErrVocabTooLarge is returned when V*Scale would exceed the coder's
// total-mass ceiling (spec.md §4.4's invariant: V*S <= 2^62).
var ErrVocabTooLarge = errutil.New("cdfbuild: vocabulary too large for frequency scale")

// LogProbFunc computes a numerically stable log-softmax over a logits
// vector; Build calls exactly the Model's own implementation
// (Model.LogitsToLogProbs) so that encoder and decoder share identical
// floating-point arithmetic, per spec.md §4.4's determinism requirement.
type LogProbFunc func(logits []float64) []float64

// Build converts logits into a strictly increasing cumulative-frequency
// table of length len(logits). Every symbol gets frequency >= 1 (so no
// token, however improbable, is ever unencodable); rounding is always
// round-half-to-even, fixed module-wide so two runs of this module agree
// bit-for-bit.
func Build(logits []float64, logProbs LogProbFunc) ([]uint64, error) {
	if err := checkVocabSize(len(logits)); err != nil {
		return nil, err
	}

	lp := logProbs(logits)
	cdf := make([]uint64, len(lp))
	var sum uint64
	for i, p := range lp {
		freq := uint64(math.RoundToEven(float64(Scale) * math.Exp(p)))
		if freq < 1 {
			freq = 1
		}
		sum += freq
		cdf[i] = sum
	}
	return cdf, nil
}

// checkVocabSize enforces V*Scale <= quarterRange without ever allocating a
// vocabulary-sized array, so the boundary can be exercised directly in
// tests.
func checkVocabSize(v int) error {
	if uint64(v)*Scale > quarterRange {
		return ErrVocabTooLarge
	}
	return nil
}
