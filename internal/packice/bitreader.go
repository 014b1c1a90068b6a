// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package packice

import (
	"fmt"
	"math/bits"
)

// unit is the granularity at which the bit window is topped up:
// a byte for most streams, a big-endian longword for the older ones.
type unit interface{ ~uint8 | ~uint32 }

func unitBits[U unit]() uint { return uint(bits.OnesCount64(uint64(^U(0)))) }

// bitReader pulls bits, most significant first, from units read backward
// out of a backSource. The window is left-justified; n counts its valid bits.
//
// Units are loaded only when a code needs more bits than the window holds.
// Literal bytes share the same backward byte stream, so loading early would
// hand the decoder the wrong literals.
type bitReader[U unit] struct {
	src    *backSource
	window uint64
	n      uint
}

func newBitReader[U unit](src *backSource) *bitReader[U] {
	return &bitReader[U]{src: src}
}

func (br *bitReader[U]) width() uint { return unitBits[U]() }

// preload loads the first unit. Its lowest set bit terminates the data bits
// above it; anything below is padding.
func (br *bitReader[U]) preload() error {
	w := br.width()
	u, err := br.src.readUnit(int(w / 8))
	if err != nil {
		return err
	}
	if u == 0 {
		return fmt.Errorf("%w: first %d-bit unit has no terminator bit", ErrMalformed, w)
	}

	tz := uint(bits.TrailingZeros32(u))
	live := w - tz - 1
	u >>= tz + 1

	br.window = uint64(u) << (64 - live)
	br.n = live
	return nil
}

func (br *bitReader[U]) load() error {
	w := br.width()
	u, err := br.src.readUnit(int(w / 8))
	if err != nil {
		return err
	}
	br.window |= uint64(u) << (64 - w - br.n)
	br.n += w
	return nil
}

// readBits consumes k <= 16 bits.
func (br *bitReader[U]) readBits(k uint) (uint32, error) {
	for br.n < k {
		if err := br.load(); err != nil {
			return 0, err
		}
	}
	v := uint32(br.window >> (64 - k))
	br.window <<= k
	br.n -= k
	return v, nil
}

func (br *bitReader[U]) readBit() (uint32, error) { return br.readBits(1) }

// peek returns the next k <= 16 bits without consuming them, looking ahead
// into units that have not been loaded yet. Past the end of the data the
// result is zero-padded; avail says how many of the k bits are real.
func (br *bitReader[U]) peek(k uint) (v uint32, avail uint, err error) {
	w := br.width()
	window, n := br.window, br.n
	for back := 0; n < k; back += int(w / 8) {
		u, ok, err := br.src.peekUnit(back, int(w/8))
		if err != nil {
			return 0, 0, err
		} else if !ok {
			break
		}
		window |= uint64(u) << (64 - w - n)
		n += w
	}
	return uint32(window >> (64 - k)), min(n, k), nil
}

// buffered reports whether peek(k) can be answered without another
// read from the underlying reader.
func (br *bitReader[U]) buffered(k uint) bool {
	s := br.src
	if s.err != nil || s.lo == s.start {
		return true
	}
	w := br.width()
	units := uint(s.pos-s.lo) / (w / 8)
	return br.n+units*w >= k
}

// skip consumes k bits that an earlier peek has shown to be present.
func (br *bitReader[U]) skip(k uint) error {
	_, err := br.readBits(k)
	return err
}

// leftover reports how many bits were never consumed.
func (br *bitReader[U]) leftover() int64 {
	return int64(br.n) + 8*br.src.remaining()
}
