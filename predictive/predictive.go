// Package predictive implements the predictive loop (spec.md §4.5): the
// orchestration between tokenization, the model's step-wise generator, the
// CDF builder, and the arithmetic coder, including window overlap, EOS
// handling, the leading-space tokenizer quirk, and cooperative interrupt
// handling during compression.
package predictive

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/mewkiz/pkg/errutil"

	"github.com/raffaeleberzoini/llamazip/cdfbuild"
	"github.com/raffaeleberzoini/llamazip/coder"
	"github.com/raffaeleberzoini/llamazip/internal/pack"
	"github.com/raffaeleberzoini/llamazip/model"
)

// ErrOutputNotUTF8 is returned by Decompress if the detokenized output is
// not valid UTF-8 — it should be unreachable for a correctly paired
// model/ciphertext, since spec.md's round-trip guarantee assumes the input
// to Compress was itself valid UTF-8.
var ErrOutputNotUTF8 = errutil.New("predictive: decompressed output is not valid UTF-8")

// CompressOptions configures an optional progress hook. OnProgress, if
// non-nil, is called after every coded symbol with the number of tokens
// coded so far and the total token count.
type CompressOptions struct {
	OnProgress func(done, total int)
}

// DecompressOptions configures an optional streaming hook. OnToken, if
// non-nil, is called with each token's detokenized bytes as they are
// produced, so a caller can stream output incrementally.
type DecompressOptions struct {
	OnToken func(detokenized []byte)
}

// Compress tokenizes text, appends EOS, and arithmetic-codes the resulting
// token sequence against the model's own greedy predictions, restarting the
// context window from the last windowOverlap coded tokens whenever the live
// context would otherwise exceed the model's context length.
//
// Cancelling ctx mid-stream does not abort the call: per spec.md §4.5 and
// §7, a cooperative interrupt during compression fast-forwards the cursor
// to the final EOS token so a well-formed, decodable prefix-plus-EOS
// ciphertext is still produced.
func Compress(ctx context.Context, m model.Model, text string, windowOverlap int, opts CompressOptions) (string, error) {
	m.Reset()
	tokens := m.Tokenize([]byte(text), false)
	tokens = append(tokens, m.TokenEOS())
	n := len(tokens)

	enc := coder.NewEncoder()
	i := 0
	interrupted := false
	// The model is driven with a context that ignores ctx's cancellation, so
	// an interrupt redirects the cursor to EOS instead of failing the model
	// step that has to code it.
	modelCtx := context.WithoutCancel(ctx)

	for i < n {
		start := i - windowOverlap
		if start < 0 {
			start = 0
		}
		prefix := buildPrefix(m.TokenBOS(), tokens[start:i])
		gen, err := m.Generate(modelCtx, prefix)
		if err != nil {
			return "", fmt.Errorf("predictive: generate: %w", err)
		}

		for {
			logits, ok, err := gen.Next(modelCtx)
			if err != nil {
				gen.Close()
				return "", fmt.Errorf("predictive: next: %w", err)
			}
			if !ok {
				break // context window full: restart with a shorter prefix
			}

			if !interrupted {
				select {
				case <-ctx.Done():
					interrupted = true
				default:
				}
			}
			if interrupted && i < n-1 {
				i = n - 1
			}

			cdf, err := cdfbuild.Build(logits, m.LogitsToLogProbs)
			if err != nil {
				gen.Close()
				return "", fmt.Errorf("predictive: build cdf: %w", err)
			}
			tok := tokens[i]
			if err := enc.EncodeSymbol(cdf, int(tok)); err != nil {
				gen.Close()
				return "", fmt.Errorf("predictive: encode symbol: %w", err)
			}
			if opts.OnProgress != nil {
				opts.OnProgress(i+1, n)
			}
			argmaxIsEOS := argmax(logits) == int(m.TokenEOS())
			justEncodedEOS := tok == m.TokenEOS()
			i++
			gen.Force(tok)

			if i == n || (argmaxIsEOS && justEncodedEOS) {
				break
			}
		}
		gen.Close()
	}

	enc.Finish()
	return pack.Pack(enc.Bits()), nil
}

// Decompress is the dual of Compress: it seeds a Decoder from the
// ciphertext's unpacked bits and drives the model step by step, stopping
// once the EOS symbol is decoded.
//
// Unlike Compress, cancelling ctx aborts Decompress immediately: spec.md §7
// makes no partial-output guarantee for a cancelled decompression.
func Decompress(ctx context.Context, m model.Model, ciphertext string, windowOverlap int, opts DecompressOptions) (string, error) {
	bits, err := pack.Unpack(ciphertext)
	if err != nil {
		return "", err
	}

	m.Reset()
	dec := coder.NewDecoder(bits)
	stripLeadingSpace := tokenizerAddsSpacePrefix(m)

	var tokens []model.Token
	var out []byte
	firstToken := true
	done := false

	for !done {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("predictive: %w", ctx.Err())
		default:
		}

		start := len(tokens) - windowOverlap
		if start < 0 {
			start = 0
		}
		prefix := buildPrefix(m.TokenBOS(), tokens[start:])
		gen, err := m.Generate(ctx, prefix)
		if err != nil {
			return "", fmt.Errorf("predictive: generate: %w", err)
		}

		for {
			select {
			case <-ctx.Done():
				gen.Close()
				return "", fmt.Errorf("predictive: %w", ctx.Err())
			default:
			}

			logits, ok, err := gen.Next(ctx)
			if err != nil {
				gen.Close()
				return "", fmt.Errorf("predictive: next: %w", err)
			}
			if !ok {
				break // context window full: restart with a shorter prefix
			}

			cdf, err := cdfbuild.Build(logits, m.LogitsToLogProbs)
			if err != nil {
				gen.Close()
				return "", fmt.Errorf("predictive: build cdf: %w", err)
			}
			sym, err := dec.DecodeSymbol(cdf)
			if err != nil {
				gen.Close()
				return "", fmt.Errorf("predictive: decode symbol: %w", err)
			}
			tok := model.Token(sym)
			gen.Force(tok)

			if tok == m.TokenEOS() {
				done = true
				break
			}

			detok := m.Detokenize([]model.Token{tok})
			if firstToken && stripLeadingSpace && len(detok) > 0 && detok[0] == ' ' {
				detok = detok[1:]
			}
			firstToken = false

			tokens = append(tokens, tok)
			out = append(out, detok...)
			if opts.OnToken != nil {
				opts.OnToken(detok)
			}
		}
		gen.Close()
	}

	if !utf8.Valid(out) {
		return "", ErrOutputNotUTF8
	}
	return string(out), nil
}

// tokenizerAddsSpacePrefix implements spec.md §4.5's leading-space quirk
// detection: some tokenizers implicitly prepend a space to the first
// decoded piece, which must be stripped exactly once.
func tokenizerAddsSpacePrefix(m model.Model) bool {
	toks := m.Tokenize([]byte(" "), false)
	return string(m.Detokenize(toks)) == "  "
}

func buildPrefix(bos model.Token, tail []model.Token) []model.Token {
	prefix := make([]model.Token, 0, len(tail)+1)
	prefix = append(prefix, bos)
	prefix = append(prefix, tail...)
	return prefix
}

func argmax(logits []float64) int {
	best := 0
	for i, v := range logits {
		if v > logits[best] {
			best = i
		}
	}
	return best
}
