package packice

import "fmt"

// Strategy selects how the variable-length codes are read.
// Both produce identical output and fail on the same inputs.
type Strategy int

const (
	StrategyTable   Strategy = iota // peek a few bits and look them up
	StrategyBitwise                 // walk the prefix one bit at a time
)

func (s Strategy) String() string {
	switch s {
	case StrategyTable:
		return "table"
	case StrategyBitwise:
		return "bitwise"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// codeReader decodes the three code families of one stream.
type codeReader[U unit] struct {
	br *bitReader[U]
	// flatEscape: the longest literal runs carry a plain 10-bit count
	// instead of the 8-bit count with a 15-bit extension.
	flatEscape bool
	table      bool
}

// useTable reports whether a k-bit table lookup may be used for the next
// code. A lookup never fetches more input than the bitwise walk would,
// so near a chunk boundary the walk is used instead.
func (cr *codeReader[U]) useTable(k uint) bool {
	return cr.table && cr.br.buffered(k)
}

func (cr *codeReader[U]) take(t []tableEntry, k uint) (uint32, error) {
	v, avail, err := cr.br.peek(k)
	if err != nil {
		return 0, err
	}
	e := t[v]
	if uint(e.bits) > avail {
		return 0, cr.br.src.truncated()
	}
	return uint32(e.value), cr.br.skip(uint(e.bits))
}

// literalRun returns the number of literal bytes that come next.
func (cr *codeReader[U]) literalRun() (int, error) {
	var v uint32
	var err error
	if cr.useTable(litPeek) {
		v, err = cr.take(litTable[:], litPeek)
	} else {
		v, err = cr.literalPrefix()
	}
	if err != nil || v != litEscape {
		return int(v), err
	}

	if cr.flatEscape {
		x, err := cr.br.readBits(10)
		return litEscape + int(x), err
	}
	x, err := cr.br.readBits(8)
	if err != nil {
		return 0, err
	}
	n := litEscape + int(x)
	if n == 270 {
		x, err = cr.br.readBits(15)
		n += int(x)
	}
	return n, err
}

func (cr *codeReader[U]) literalPrefix() (uint32, error) {
	br := cr.br
	if b, err := br.readBit(); err != nil || b == 0 {
		return 0, err
	}
	if b, err := br.readBit(); err != nil || b == 0 {
		return 1, err
	}
	base := uint32(2)
	for _, k := range []uint{2, 2, 3} {
		x, err := br.readBits(k)
		if err != nil {
			return 0, err
		}
		if x != 1<<k-1 {
			return base + x, nil
		}
		base += 1<<k - 1
	}
	return litEscape, nil
}

// matchLen returns the length of the next back-reference, at least 2.
func (cr *codeReader[U]) matchLen() (int, error) {
	var v uint32
	var err error
	if cr.useTable(lenPeek) {
		v, err = cr.take(lenTable[:], lenPeek)
	} else {
		v, err = cr.matchLenPrefix()
	}
	if err != nil || v != lenEscape {
		return int(v), err
	}
	x, err := cr.br.readBits(10)
	return lenEscape + int(x), err
}

func (cr *codeReader[U]) matchLenPrefix() (uint32, error) {
	br := cr.br
	for _, v := range []uint32{2, 3} {
		if b, err := br.readBit(); err != nil || b == 0 {
			return v, err
		}
	}
	if b, err := br.readBit(); err != nil {
		return 0, err
	} else if b == 0 {
		x, err := br.readBit()
		return 4 + x, err
	}
	if b, err := br.readBit(); err != nil {
		return 0, err
	} else if b == 0 {
		x, err := br.readBits(2)
		return 6 + x, err
	}
	return lenEscape, nil
}

// distance returns the raw distance code for a match of length n.
// Two-byte matches have their own short code that no table covers.
func (cr *codeReader[U]) distance(n int) (int, error) {
	br := cr.br
	if n == 2 {
		x, err := br.readBits(7)
		if err != nil {
			return 0, err
		}
		d := 1 + int(x)
		if d >= 65 {
			x, err = br.readBits(3)
			d = (d-65)<<3 + 65 + int(x)
		}
		return d, err
	}

	var v uint32
	var err error
	if cr.useTable(distPeek) {
		v, err = cr.take(distTable[:], distPeek)
	} else {
		v, err = cr.distancePrefix()
	}
	if err != nil || v != distEscape {
		return int(v), err
	}
	x, err := br.readBits(12)
	return distEscape + int(x), err
}

func (cr *codeReader[U]) distancePrefix() (uint32, error) {
	br := cr.br
	if b, err := br.readBit(); err != nil {
		return 0, err
	} else if b == 0 {
		x, err := br.readBits(8)
		return 33 + x, err
	}
	if b, err := br.readBit(); err != nil {
		return 0, err
	} else if b == 0 {
		x, err := br.readBits(5)
		return 1 + x, err
	}
	return distEscape, nil
}

// offset converts a raw distance into how far past the end of the match
// its source lies. Byte-unit streams leave distance 1 alone.
func offset[U unit](d, n int) int {
	if unitBits[U]() == 32 {
		return d + n - 1
	}
	if d > 1 {
		return d + n - 2
	}
	return d
}
