// Package mmapfile maps on-disk files into memory so that their bytes
// can be handed around as a slice.
package mmapfile

import "errors"

var (
	ErrNotOS = errors.New("not an operating system file")
	ErrEmpty = errors.New("nothing to map")
)

// A Map is a read-only view of a file. Its bytes must not be used after Close.
type Map struct {
	b []byte
}

func (m *Map) Bytes() []byte { return m.b }
func (m *Map) Len() int      { return len(m.b) }
