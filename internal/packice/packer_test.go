package packice

import (
	"encoding/binary"
	"testing"
)

// The packer below exists only to feed the decoder in tests. It is greedy
// and slow, and it emits exactly the codes the decoder reads.

type bitWriter struct {
	width int    // unit size in bits
	rev   []byte // output, last byte of the file first
	slot  int    // index in rev of the unit being filled, or -1
	val   uint32
	used  int
	room  int
	first bool
}

func newBitWriter(width int) *bitWriter {
	return &bitWriter{width: width, slot: -1, first: true}
}

func (w *bitWriter) bit(b uint32) {
	if w.slot < 0 || w.used == w.room {
		w.flush()
		w.slot = len(w.rev)
		w.rev = append(w.rev, make([]byte, w.width/8)...)
		w.val, w.used, w.room = 0, 0, w.width
		if w.first {
			w.room-- // leave space for the terminator
		}
	}
	w.val |= b << (w.width - 1 - w.used)
	w.used++
}

func (w *bitWriter) flush() {
	if w.slot < 0 {
		return
	}
	v := w.val
	if w.first {
		v |= 1 << (w.width - 1 - w.used)
		w.first = false
	}
	for i := range w.width / 8 {
		w.rev[w.slot+i] = byte(v >> (8 * i))
	}
}

func (w *bitWriter) bits(v uint32, k int) {
	for i := k - 1; i >= 0; i-- {
		w.bit(v >> i & 1)
	}
}

func (w *bitWriter) code(s string) {
	for _, c := range s {
		w.bit(uint32(c - '0'))
	}
}

func (w *bitWriter) finish() []byte {
	w.flush()
	out := make([]byte, len(w.rev))
	for i, b := range w.rev {
		out[len(out)-1-i] = b
	}
	return out
}

func packLiteralRun(tb testing.TB, w *bitWriter, n int, flat bool) {
	switch {
	case n == 0:
		w.code("0")
	case n == 1:
		w.code("10")
	case n < 5:
		w.code("11")
		w.bits(uint32(n-2), 2)
	case n < 8:
		w.code("1111")
		w.bits(uint32(n-5), 2)
	case n < 15:
		w.code("111111")
		w.bits(uint32(n-8), 3)
	case flat:
		if n-15 >= 1<<10 {
			tb.Fatalf("literal run of %d is too long for a flat escape", n)
		}
		w.code("111111111")
		w.bits(uint32(n-15), 10)
	case n < 270:
		w.code("111111111")
		w.bits(uint32(n-15), 8)
	default:
		if n-270 >= 1<<15 {
			tb.Fatalf("literal run of %d is too long", n)
		}
		w.code("111111111")
		w.bits(255, 8)
		w.bits(uint32(n-270), 15)
	}
}

func packMatchLen(w *bitWriter, n int) {
	switch {
	case n == 2:
		w.code("0")
	case n == 3:
		w.code("10")
	case n < 6:
		w.code("110")
		w.bits(uint32(n-4), 1)
	case n < 10:
		w.code("1110")
		w.bits(uint32(n-6), 2)
	default:
		w.code("1111")
		w.bits(uint32(n-10), 10)
	}
}

func packDistance(w *bitWriter, n, d int) {
	if n == 2 {
		if d <= 64 {
			w.bits(uint32(d-1), 7)
		} else {
			w.bits(uint32(64+(d-65)>>3), 7)
			w.bits(uint32((d-65)&7), 3)
		}
		return
	}
	switch {
	case d <= 32:
		w.code("10")
		w.bits(uint32(d-1), 5)
	case d <= 288:
		w.code("0")
		w.bits(uint32(d-33), 8)
	default:
		w.code("11")
		w.bits(uint32(d-289), 12)
	}
}

const (
	packMaxLen   = 10 + 1023
	packMaxReach = 4384 + packMaxLen
)

func packMaxDistance(n int) int {
	if n == 2 {
		return 576
	}
	return 4384
}

// packDistanceCode inverts offset: it returns the raw distance code that
// reaches off bytes up for a match of length n, or 0 if none does.
func packDistanceCode(width, off, n int) int {
	if width == 32 {
		return max(off-n+1, 0)
	}
	switch {
	case off == 1:
		return 1
	case off >= n:
		return off - n + 2
	}
	return 0
}

// pack compresses data into a bare payload. tail is the bit string written
// after the last literal run, such as a bitplane flag.
func pack(tb testing.TB, data []byte, width int, flat bool, tail string) []byte {
	tb.Helper()
	w := newBitWriter(width)
	var pending []byte
	flushLiterals := func() {
		packLiteralRun(tb, w, len(pending), flat)
		w.rev = append(w.rev, pending...)
		pending = pending[:0]
	}

	n := len(data)
	c := n
	for c > 0 {
		bestLen, bestOff := 0, 0
		for off := 1; off <= min(n-c, packMaxReach); off++ {
			l := 0
			for l < packMaxLen && c-1-l >= 0 && c-1-l+off < n && data[c-1-l] == data[c-1-l+off] {
				l++
			}
			for ; l >= 2; l-- {
				if d := packDistanceCode(width, off, l); d >= 1 && d <= packMaxDistance(l) {
					break
				}
			}
			if l >= 2 && l > bestLen {
				bestLen, bestOff = l, off
			}
		}

		if bestLen >= 2 {
			flushLiterals()
			packMatchLen(w, bestLen)
			packDistance(w, bestLen, packDistanceCode(width, bestOff, bestLen))
			c -= bestLen
			if c == 0 {
				packLiteralRun(tb, w, 0, flat)
			}
		} else {
			c--
			pending = append(pending, data[c])
		}
	}
	if len(pending) > 0 {
		flushLiterals()
	}
	w.code(tail)
	return w.finish()
}

func frameV1(payload []byte, unpacked int) []byte {
	out := append([]byte(nil), payload...)
	out = binary.BigEndian.AppendUint32(out, uint32(unpacked))
	return append(out, magicV1...)
}

func frameV2(magic string, payload []byte, unpacked int) []byte {
	out := append([]byte(magic), 0, 0, 0, 0, 0, 0, 0, 0)
	binary.BigEndian.PutUint32(out[4:], uint32(HeaderSize+len(payload)))
	binary.BigEndian.PutUint32(out[8:], uint32(unpacked))
	return append(out, payload...)
}
