// Package utf8check validates and normalizes the raw bytes a caller hands
// to Compress: stripping an optional byte-order mark and rejecting input
// that is not valid UTF-8 (spec.md §7's InputEncoding error kind), using
// golang.org/x/text for BOM handling rather than a hand-rolled byte check.
package utf8check

import (
	"fmt"
	"unicode/utf8"

	"github.com/mewkiz/pkg/errutil"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalidUTF8 is returned by Validate when the input contains a byte
// sequence that is not valid UTF-8.
var ErrInvalidUTF8 = errutil.New("utf8check: input is not valid UTF-8")

// StripBOM removes a leading UTF-8 byte-order mark, if present, using
// golang.org/x/text's BOM-aware UTF-8 decoder rather than comparing the
// first three bytes by hand. The underlying decoder replaces ill-formed
// bytes with U+FFFD instead of erroring, so callers must run Validate on
// the raw input before calling StripBOM, not after.
func StripBOM(b []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		return nil, errutil.Err(err)
	}
	return out, nil
}

// Validate reports ErrInvalidUTF8, annotated with the byte offset of the
// first invalid sequence, if b is not valid UTF-8.
func Validate(b []byte) error {
	if utf8.Valid(b) {
		return nil
	}
	offset := firstInvalidOffset(b)
	return fmt.Errorf("%w at byte offset %d", ErrInvalidUTF8, offset)
}

func firstInvalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
