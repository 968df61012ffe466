package coder

import (
	"math/rand"
	"testing"
)

// uniformCDF returns a strictly increasing CDF over n symbols, each with
// frequency freq, mirroring scenario E1 (uniform logits across V symbols).
func uniformCDF(n int, freq uint64) []uint64 {
	cdf := make([]uint64, n)
	var sum uint64
	for i := range cdf {
		sum += freq
		cdf[i] = sum
	}
	return cdf
}

func roundTrip(t *testing.T, cdfs [][]uint64, syms []int) []int {
	t.Helper()
	enc := NewEncoder()
	for i, sym := range syms {
		if err := enc.EncodeSymbol(cdfs[i], sym); err != nil {
			t.Fatalf("encode symbol %d: %v", i, err)
		}
	}
	enc.Finish()

	dec := NewDecoder(enc.Bits())
	got := make([]int, len(syms))
	for i := range syms {
		sym, err := dec.DecodeSymbol(cdfs[i])
		if err != nil {
			t.Fatalf("decode symbol %d: %v", i, err)
		}
		got[i] = sym
	}
	return got
}

func TestRoundTripUniform(t *testing.T) {
	const v = 256
	cdf := uniformCDF(v, 1<<24)
	syms := []int{65} // 'A'
	got := roundTrip(t, [][]uint64{cdf}, syms)
	if got[0] != syms[0] {
		t.Fatalf("got %d, want %d", got[0], syms[0])
	}
}

func TestRoundTripConcentrated(t *testing.T) {
	const v = 32
	syms := []int{3, 7, 7, 0, 31, 15, 15, 15}
	cdfs := make([][]uint64, len(syms))
	for i, s := range syms {
		cdf := make([]uint64, v)
		var sum uint64
		for j := 0; j < v; j++ {
			freq := uint64(1)
			if j == s {
				freq = 1 << 40
			}
			sum += freq
			cdf[j] = sum
		}
		cdfs[i] = cdf
	}
	got := roundTrip(t, cdfs, syms)
	for i := range syms {
		if got[i] != syms[i] {
			t.Fatalf("symbol %d: got %d, want %d", i, got[i], syms[i])
		}
	}
}

// TestRoundTripAdversarial mirrors scenario E3: the true symbol always sits
// in the least-probable bucket.
func TestRoundTripAdversarial(t *testing.T) {
	const v = 16
	syms := []int{15, 14, 13, 0, 1, 2}
	cdfs := make([][]uint64, len(syms))
	for i, s := range syms {
		cdf := make([]uint64, v)
		var sum uint64
		for j := 0; j < v; j++ {
			freq := uint64(1 << 28)
			if j == s {
				freq = 1
			}
			sum += freq
			cdf[j] = sum
		}
		if cdf[v-1] > quarter {
			t.Fatalf("total mass %d exceeds quarter-range ceiling", cdf[v-1])
		}
		cdfs[i] = cdf
	}
	got := roundTrip(t, cdfs, syms)
	for i := range syms {
		if got[i] != syms[i] {
			t.Fatalf("symbol %d: got %d, want %d", i, got[i], syms[i])
		}
	}
}

// TestRoundTripRandom exercises coder closure (§8 property 2) over random
// CDFs and symbol sequences.
func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const v = 64
	const steps = 200
	cdfs := make([][]uint64, steps)
	syms := make([]int, steps)
	for i := 0; i < steps; i++ {
		cdf := make([]uint64, v)
		var sum uint64
		for j := 0; j < v; j++ {
			sum += uint64(rng.Intn(1000) + 1)
			cdf[j] = sum
		}
		cdfs[i] = cdf
		syms[i] = rng.Intn(v)
	}
	got := roundTrip(t, cdfs, syms)
	for i := range syms {
		if got[i] != syms[i] {
			t.Fatalf("symbol %d: got %d, want %d", i, got[i], syms[i])
		}
	}
}

// TestIntervalNeverEmpty checks §8 property 3: after every update,
// high >= low and the interval never shrinks below quarter/2.
func TestIntervalNeverEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const v = 64
	e := NewEncoder()
	for i := 0; i < 500; i++ {
		cdf := make([]uint64, v)
		var sum uint64
		for j := 0; j < v; j++ {
			sum += uint64(rng.Intn(1000) + 1)
			cdf[j] = sum
		}
		sym := rng.Intn(v)
		if err := e.EncodeSymbol(cdf, sym); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if e.st.high < e.st.low {
			t.Fatalf("step %d: high < low", i)
		}
		if e.st.high-e.st.low+1 < quarter/2 {
			t.Fatalf("step %d: interval too small: %d", i, e.st.high-e.st.low+1)
		}
	}
}

func TestEmptySymbolStream(t *testing.T) {
	enc := NewEncoder()
	enc.Finish()
	dec := NewDecoder(enc.Bits())
	_ = dec // nothing to decode; constructing the decoder must not panic.
}
