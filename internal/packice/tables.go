package packice

// A tableEntry maps the next few bits of the stream to a decoded value
// and the number of bits that value occupies.
type tableEntry struct {
	value uint16
	bits  uint8
}

const (
	litPeek  = 9
	lenPeek  = 6
	distPeek = 9

	litEscape  = 15  // 111111111, a long literal run follows
	lenEscape  = 10  // 1111, a long match follows
	distEscape = 289 // 11, a 12-bit far distance follows
)

var (
	litTable  [1 << litPeek]tableEntry
	lenTable  [1 << lenPeek]tableEntry
	distTable [1 << distPeek]tableEntry
)

func init() {
	for i := range litTable {
		var e tableEntry
		switch {
		case i>>8 == 0: // 0
			e = tableEntry{0, 1}
		case i>>7 == 0b10:
			e = tableEntry{1, 2}
		case i>>5&3 != 3: // 11xx
			e = tableEntry{uint16(2 + i>>5&3), 4}
		case i>>3&3 != 3: // 1111xx
			e = tableEntry{uint16(5 + i>>3&3), 6}
		case i&7 != 7: // 111111xxx
			e = tableEntry{uint16(8 + i&7), 9}
		default:
			e = tableEntry{litEscape, 9}
		}
		litTable[i] = e
	}

	for i := range lenTable {
		var e tableEntry
		switch {
		case i>>5 == 0: // 0
			e = tableEntry{2, 1}
		case i>>4 == 0b10:
			e = tableEntry{3, 2}
		case i>>3 == 0b110: // 110x
			e = tableEntry{uint16(4 + i>>2&1), 4}
		case i>>2 == 0b1110: // 1110xx
			e = tableEntry{uint16(6 + i&3), 6}
		default:
			e = tableEntry{lenEscape, 4}
		}
		lenTable[i] = e
	}

	for i := range distTable {
		var e tableEntry
		switch {
		case i>>8 == 0: // 0 + 8 bits
			e = tableEntry{uint16(33 + i&0xff), 9}
		case i>>7 == 0b10: // 10 + 5 bits
			e = tableEntry{uint16(1 + i>>2&0x1f), 7}
		default:
			e = tableEntry{distEscape, 2}
		}
		distTable[i] = e
	}
}
