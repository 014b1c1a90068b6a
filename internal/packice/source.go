// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package packice

import (
	"fmt"
	"io"
)

const defaultChunk = 4096

// backSource hands out the bytes of [start, end) of an io.ReadSeeker
// from the end toward the start. Bytes are fetched a chunk at a time;
// the few unconsumed bytes at the bottom of the old chunk are carried over
// so that a multi-byte read never straddles an unfetched region.
type backSource struct {
	r     io.ReadSeeker
	start int64
	lo    int64  // file offset of buf[0]
	pos   int64  // bytes [lo, pos) are buffered and unconsumed
	buf   []byte // holds [lo, lo+len(buf))
	chunk int
	err   error // sticky
}

func newBackSource(r io.ReadSeeker, start, end int64, chunk int) *backSource {
	if chunk <= 0 {
		chunk = defaultChunk
	}
	return &backSource{
		r:     r,
		start: start,
		lo:    end,
		pos:   end,
		buf:   make([]byte, 0, chunk+4),
		chunk: chunk,
	}
}

// remaining is the count of payload bytes not yet consumed.
func (s *backSource) remaining() int64 { return s.pos - s.start }

// ensure makes at least n unconsumed bytes available in the buffer.
// It returns false with no error if the payload is exhausted first.
func (s *backSource) ensure(n int) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for s.pos-s.lo < int64(n) {
		if s.lo == s.start {
			return false, nil
		}
		if err := s.refill(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// refill fetches the chunk below lo, keeping the unconsumed bytes.
func (s *backSource) refill() error {
	carry := int(s.pos - s.lo) // at most 3
	newLo := max(s.start, s.lo-int64(s.chunk))
	fetch := int(s.lo - newLo)

	s.buf = s.buf[:fetch+carry]
	copy(s.buf[fetch:], s.buf[:carry])

	if _, err := s.r.Seek(newLo, io.SeekStart); err != nil {
		s.err = fmt.Errorf("%w: seek to %d: %v", ErrIO, newLo, err)
		return s.err
	}
	if got, err := io.ReadFull(s.r, s.buf[:fetch]); err != nil {
		s.err = fmt.Errorf("%w: read %d bytes at %d, got %d: %v", ErrIO, fetch, newLo, got, err)
		return s.err
	}
	s.lo = newLo
	return nil
}

func (s *backSource) truncated() error {
	return fmt.Errorf("%w: compressed data exhausted at offset %d", ErrMalformed, s.pos)
}

func (s *backSource) readByte() (byte, error) {
	if ok, err := s.ensure(1); !ok {
		if err == nil {
			err = s.truncated()
		}
		return 0, err
	}
	s.pos--
	return s.buf[s.pos-s.lo], nil
}

// readUnit consumes n (1 or 4) bytes and returns them as a big-endian integer.
func (s *backSource) readUnit(n int) (uint32, error) {
	v, ok, err := s.peekUnit(0, n)
	if err != nil {
		return 0, err
	} else if !ok {
		return 0, s.truncated()
	}
	s.pos -= int64(n)
	return v, nil
}

// peekUnit returns the big-endian value of the n bytes that end back bytes
// below the cursor, without consuming anything.
func (s *backSource) peekUnit(back, n int) (v uint32, ok bool, err error) {
	ok, err = s.ensure(back + n)
	if !ok {
		return 0, false, err
	}
	i := int(s.pos-s.lo) - back - n
	for _, b := range s.buf[i : i+n] {
		v = v<<8 | uint32(b)
	}
	return v, true, nil
}
