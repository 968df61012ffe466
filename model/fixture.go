package model

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
)

// fixtureVocab is the fixture's vocabulary: the 256 possible byte values
// plus BOS and EOS sentinels. This is the "small deterministic test LLM
// stub with fixed logits" spec.md §8 calls for: a byte-level tokenizer (so
// Tokenize/Detokenize round-trip any input trivially) paired with logits
// that are a pure, reproducible function of the token history, so encode
// and decode runs see bit-identical CDFs without needing real weights.
const fixtureVocab = 258

// Fixture is a deterministic Model used by this module's own tests and
// importable by downstream integration tests. It is not a production
// inference backend: loading real model weights is explicitly out of
// scope for this core (spec.md §1).
type Fixture struct {
	ctxLen int
}

// NewFixture returns a Fixture with the given context length.
func NewFixture(ctxLen int) *Fixture {
	return &Fixture{ctxLen: ctxLen}
}

func (f *Fixture) Backend() Backend { return "fixture" }

func (f *Fixture) Reset() {}

func (f *Fixture) Tokenize(text []byte, addBOS bool) []Token {
	toks := make([]Token, 0, len(text)+1)
	if addBOS {
		toks = append(toks, f.TokenBOS())
	}
	for _, b := range text {
		toks = append(toks, Token(b))
	}
	return toks
}

func (f *Fixture) Detokenize(tokens []Token) []byte {
	out := make([]byte, 0, len(tokens))
	for _, t := range tokens {
		if t == f.TokenBOS() || t == f.TokenEOS() {
			continue
		}
		out = append(out, byte(t))
	}
	return out
}

func (f *Fixture) TokenEOS() Token { return fixtureVocab - 1 }
func (f *Fixture) TokenBOS() Token { return fixtureVocab - 2 }

func (f *Fixture) ContextLength() int { return f.ctxLen }

func (f *Fixture) Generate(ctx context.Context, prefix []Token) (Generator, error) {
	history := make([]Token, len(prefix))
	copy(history, prefix)
	return &fixtureGenerator{f: f, history: history}, nil
}

func (f *Fixture) LogitsToLogProbs(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	for _, v := range logits {
		sum += math.Exp(v - max)
	}
	logSum := math.Log(sum)
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = v - max - logSum
	}
	return out
}

// logitsFor derives a reproducible logits vector from the token history: a
// seeded PRNG keyed on an FNV hash of the history, so the same prefix
// always yields the same logits regardless of process or call order.
func (f *Fixture) logitsFor(history []Token) []float64 {
	h := fnv.New64a()
	for _, t := range history {
		h.Write([]byte{byte(t), byte(t >> 8), byte(t >> 16), byte(t >> 24)})
	}
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	logits := make([]float64, fixtureVocab)
	for i := range logits {
		logits[i] = rng.NormFloat64()
	}
	return logits
}

type fixtureGenerator struct {
	f       *Fixture
	history []Token
	closed  bool
}

func (g *fixtureGenerator) Next(ctx context.Context) ([]float64, bool, error) {
	if g.closed {
		return nil, false, nil
	}
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}
	// Leave headroom for the token Force is about to append, mirroring a
	// real backend's "would the next eval overflow the context" check.
	if len(g.history)+1 > g.f.ctxLen {
		return nil, false, nil
	}
	return g.f.logitsFor(g.history), true, nil
}

func (g *fixtureGenerator) Force(tok Token) {
	g.history = append(g.history, tok)
}

func (g *fixtureGenerator) Close() {
	g.closed = true
}
