// Package overlap parses and normalizes the "-w/--window-overlap" value
// described in spec.md §4.5 and §6: either an integer token count or a
// percentage of the model's context length, with negative integers
// wrapping around the context length.
package overlap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mewkiz/pkg/errutil"
)

// ErrParameterRange is returned when the overlap, once normalized, falls
// outside [0, contextLength) or the percentage falls outside [0, 100].
var ErrParameterRange = errutil.New("overlap: out of range")

// Parse normalizes raw (an integer token count, optionally negative, or a
// "NN%" percentage) into an effective overlap in [0, contextLength). A
// percentage is taken of contextLength-1 and truncated, so "100%" yields
// contextLength-1.
func Parse(raw string, contextLength int) (int, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, "%") {
		pctStr := strings.TrimSuffix(raw, "%")
		pct, err := strconv.ParseFloat(pctStr, 64)
		if err != nil {
			return 0, fmt.Errorf("window overlap must be an integer or a percentage: %w", err)
		}
		if pct < 0 || pct > 100 {
			return 0, fmt.Errorf("%w: percentage must be in [0, 100], got %v", ErrParameterRange, pct)
		}
		return int(pct / 100 * float64(contextLength-1)), nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("window overlap must be an integer (token count) or a percentage: %w", err)
	}
	given := n
	if n < 0 {
		n += contextLength
	}
	if n < 0 || n >= contextLength {
		return 0, fmt.Errorf("%w: window overlap must be in [%d, %d), got %d", ErrParameterRange, -contextLength, contextLength, given)
	}
	return n, nil
}
