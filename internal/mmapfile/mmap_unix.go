//go:build unix

package mmapfile

import (
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// FromFile maps the whole of an open regular file read-only.
// The mapping outlives f and must be released with Close.
func FromFile(f fs.File) (*Map, error) {
	osf, ok := f.(*os.File)
	if !ok {
		return nil, ErrNotOS
	}
	stat, err := osf.Stat()
	if err != nil {
		return nil, err
	}
	size := stat.Size()
	if size == 0 || !stat.Mode().IsRegular() {
		return nil, ErrEmpty
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("mmap %s: %d bytes is too large", osf.Name(), size)
	}

	conn, err := osf.SyscallConn()
	if err != nil {
		return nil, err
	}
	var b []byte
	var inerr error
	err = conn.Control(func(fd uintptr) {
		b, inerr = unix.Mmap(int(fd), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	})
	if err == nil {
		err = inerr
	}
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", osf.Name(), err)
	}
	return &Map{b: b}, nil
}

func (m *Map) Close() error {
	if m.b == nil {
		return nil
	}
	err := unix.Munmap(m.b)
	m.b = nil
	return err
}
