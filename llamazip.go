// Package llamazip losslessly compresses UTF-8 text by treating a causal
// language model as a predictor and arithmetic-coding the gap between its
// predictions and the actual token stream (spec.md §1-2).
package llamazip

import (
	"context"

	"github.com/raffaeleberzoini/llamazip/internal/overlap"
	"github.com/raffaeleberzoini/llamazip/internal/utf8check"
	"github.com/raffaeleberzoini/llamazip/model"
	"github.com/raffaeleberzoini/llamazip/predictive"
)

// Compressor pairs a Model with the operations defined over it. It holds no
// state of its own between calls: per spec.md §3, the model is reset at
// the start of every Compress or Decompress.
type Compressor struct {
	Model model.Model
}

// New wraps m in a Compressor.
func New(m model.Model) *Compressor {
	return &Compressor{Model: m}
}

// ProgressFunc reports compression progress as tokens are coded.
type ProgressFunc func(done, total int)

// TokenFunc receives each token's detokenized bytes as Decompress produces
// them, for streaming callers.
type TokenFunc func(detokenized []byte)

// Compress encodes text against c.Model's predictions. windowOverlap is
// either an integer token count or a "NN%" string, normalized against the
// model's context length (spec.md §6).
func (c *Compressor) Compress(ctx context.Context, text string, windowOverlap string, onProgress ProgressFunc) (string, error) {
	raw := []byte(text)
	if err := utf8check.Validate(raw); err != nil {
		return "", ErrInputEncoding
	}
	b, err := utf8check.StripBOM(raw)
	if err != nil {
		return "", err
	}

	o, err := overlap.Parse(windowOverlap, c.Model.ContextLength())
	if err != nil {
		return "", err
	}

	return predictive.Compress(ctx, c.Model, string(b), o, predictive.CompressOptions{
		OnProgress: onProgress,
	})
}

// Decompress is the inverse of Compress.
func (c *Compressor) Decompress(ctx context.Context, ciphertext string, windowOverlap string, onToken TokenFunc) (string, error) {
	o, err := overlap.Parse(windowOverlap, c.Model.ContextLength())
	if err != nil {
		return "", err
	}

	return predictive.Decompress(ctx, c.Model, ciphertext, o, predictive.DecompressOptions{
		OnToken: onToken,
	})
}
