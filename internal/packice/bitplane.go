package packice

import (
	"encoding/binary"
	"math/bits"
)

// deplanar undoes the bitplane interleave on the last groups 8-byte groups
// of buf, working back from the end. Groups that would start before the
// buffer are left alone.
func deplanar(buf []byte, groups int) {
	groups = min(groups, len(buf)/8)
	gather := gatherGroup
	if bits.UintSize == 64 {
		gather = gatherGroup64
	}
	for p := len(buf) - 8; groups > 0; p -= 8 {
		gather((*[8]byte)(buf[p : p+8]))
		groups--
	}
}

// gatherGroup reads the four big-endian words of g from last to first,
// dealing the bits of each, top bit first, round-robin into four new words.
func gatherGroup(g *[8]byte) {
	var d [4]uint16
	for a := 3; a >= 0; a-- {
		w := binary.BigEndian.Uint16(g[2*a:])
		for range 4 {
			for j := range d {
				d[j] = d[j]<<1 | w>>15
				w <<= 1
			}
		}
	}
	for j, x := range d {
		binary.BigEndian.PutUint16(g[2*j:], x)
	}
}

// gatherGroup64 is gatherGroup done on one register: reverse the word
// order, then four delta swaps move each bit to its final place.
func gatherGroup64(g *[8]byte) {
	v := binary.BigEndian.Uint64(g[:])
	v = v<<32 | v>>32
	v = (v&0x0000ffff0000ffff)<<16 | (v>>16)&0x0000ffff0000ffff
	v = deltaSwap(v, 3, 0x0a0a0a0a0a0a0a0a)
	v = deltaSwap(v, 6, 0x00cc00cc00cc00cc)
	v = deltaSwap(v, 12, 0x0000f0f00000f0f0)
	v = deltaSwap(v, 24, 0x00000000ff00ff00)
	binary.BigEndian.PutUint64(g[:], v)
}

func deltaSwap(v uint64, shift uint, mask uint64) uint64 {
	t := (v>>shift ^ v) & mask
	return v ^ t ^ t<<shift
}
