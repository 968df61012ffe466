package llamazip

import (
	"github.com/mewkiz/pkg/errutil"

	"github.com/raffaeleberzoini/llamazip/internal/overlap"
	"github.com/raffaeleberzoini/llamazip/internal/pack"
	"github.com/raffaeleberzoini/llamazip/model"
	"github.com/raffaeleberzoini/llamazip/predictive"
)

// Sentinel errors a caller can match with errors.Is across the whole call
// stack (spec.md §7's error kinds). Most of these are re-exported aliases
// of sentinels owned by the package that actually detects the condition,
// so callers of this package never need to import the internal packages
// directly.
var (
	// ErrInputEncoding is returned when Compress's input text is not valid
	// UTF-8.
	ErrInputEncoding = errutil.New("llamazip: input is not valid UTF-8")

	// ErrInvalidCiphertext is returned when Decompress's ciphertext contains
	// a byte outside the packing alphabet.
	ErrInvalidCiphertext = pack.ErrInvalidCiphertext

	// ErrParameterRange is returned when a window-overlap value normalizes
	// outside the model's context length.
	ErrParameterRange = overlap.ErrParameterRange

	// ErrBackendFailure wraps any error surfaced by the Model implementation
	// itself (tokenizer, forward pass, or detokenizer failure).
	ErrBackendFailure = model.ErrBackendFailure

	// ErrOutputNotUTF8 is returned by Decompress if decoding yields bytes
	// that are not valid UTF-8 — unreachable for a ciphertext produced by a
	// matching Compress call, but surfaced rather than silently returning
	// broken text if a mismatched model/ciphertext pair is ever decoded.
	ErrOutputNotUTF8 = predictive.ErrOutputNotUTF8
)
