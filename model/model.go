// Package model specifies the LLM collaborator contract the predictive
// loop drives (spec.md §6). The core never loads weights or runs a forward
// pass itself — that is explicitly out of scope (spec.md §1) — it only
// consumes this interface.
package model

import (
	"context"

	"github.com/mewkiz/pkg/errutil"
)

// Token is a vocabulary entry id in [0, V).
type Token int32

// Backend names the inference engine behind a Model, for diagnostics.
// Neither the predictive loop nor the CLI writes it into log lines or
// errors.
type Backend string

// ErrBackendFailure is the sentinel a Model implementation wraps around any
// error its Generate call or its Generator returns.
var ErrBackendFailure = errutil.New("model: backend failure")

// Model is the external collaborator contract: tokenizer, detokenizer,
// sentinel tokens, context length, and a deterministic greedy generator.
// Implementations MUST document their determinism contract (spec.md §9):
// the predictive loop assumes bit-identical logits for bit-identical
// token-prefixes across an encode and a matching decode run, and has no
// way to detect a violation short of the round-trip itself failing.
type Model interface {
	// Backend identifies the concrete implementation for diagnostics.
	Backend() Backend

	// Reset clears any KV cache / running state. Called once at the start
	// of every compress or decompress invocation (spec.md §3: "the model
	// is reset at entry. No state persists between calls.").
	Reset()

	// Tokenize converts text bytes to tokens. addBOS controls whether a
	// leading beginning-of-stream token is prepended.
	Tokenize(text []byte, addBOS bool) []Token

	// Detokenize converts tokens back to text bytes.
	Detokenize(tokens []Token) []byte

	// TokenEOS and TokenBOS return the model's sentinel tokens.
	TokenEOS() Token
	TokenBOS() Token

	// ContextLength returns W, the maximum number of tokens the model
	// conditions on in one forward pass.
	ContextLength() int

	// Generate returns a step-wise iterator over greedy-decoded logits for
	// the given token prefix (REDESIGN FLAGS, spec.md §9: an iterator
	// rather than a callback). The caller drives the coder from each step's
	// logits and is responsible for pinning the model's choice back to the
	// coded token (Generator.Force) so the backend's KV cache advances
	// consistent with the actual stream.
	Generate(ctx context.Context, prefix []Token) (Generator, error)

	// LogitsToLogProbs applies the model's own numerically stable
	// log-softmax. The CDF builder calls this rather than recomputing
	// softmax itself, since spec.md §4.4's determinism requirement demands
	// encoder and decoder both reuse exactly the same log-softmax
	// implementation the model provides.
	LogitsToLogProbs(logits []float64) []float64
}

// Generator is a step-wise iterator over a single Generate call: each call
// to Next advances the model by one token and returns that step's logits.
type Generator interface {
	// Next advances the model one step and returns the logits for the next
	// token. ok is false once the generator is exhausted (e.g. the
	// underlying context window is full); err is non-nil on a backend
	// failure.
	Next(ctx context.Context) (logits []float64, ok bool, err error)

	// Force pins the model's internal greedy choice to tok (by setting
	// that vocabulary entry's logit to +Inf) so that the KV cache the next
	// Next call builds on is consistent with the token the coder actually
	// produced, rather than whatever the raw argmax would have been.
	Force(tok Token)

	// Close releases any resources the generator holds (e.g. a cgo
	// decoding context). Safe to call multiple times.
	Close()
}
