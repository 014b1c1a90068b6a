//go:build !unix

package mmapfile

import "io/fs"

func FromFile(f fs.File) (*Map, error) { return nil, ErrNotOS }

func (m *Map) Close() error { return nil }
