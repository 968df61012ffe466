// Package session tags one compress or decompress invocation with a
// correlation id, so verbose/trace log lines from the same run can be
// grepped out of interleaved output.
package session

import "github.com/google/uuid"

// ID is a run-scoped correlation id suitable for log lines.
type ID string

// New returns a fresh correlation id.
func New() ID {
	return ID(uuid.New().String())
}

func (id ID) String() string { return string(id) }
