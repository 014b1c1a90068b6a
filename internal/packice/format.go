package packice

import (
	"encoding/binary"
	"fmt"
)

// Header and trailer lengths.
const (
	TrailerSize = 8  // v1: uncompressed size, magic
	HeaderSize  = 12 // v2: magic, compressed size, uncompressed size
)

const (
	magicV1     = "Ice!"
	magicFixed  = "ICE!"
	magicLegacy = "Ice!"
)

// Aliases of the legacy magic written by rebranded packers.
var legacyAliases = []string{"-CJ-", "MICK", "SHE!", "TMM!", "TSM!"}

// Version identifies the bitstream dialect of a stream.
type Version int

const (
	VersionUnknown Version = iota
	Version1x              // trailer-framed, 32-bit units, flat literal escape
	Version21x             // "Ice!" header, 32-bit units
	Version23x             // "Ice!" header or alias, 8-bit units
	Version24x             // "ICE!" header, 8-bit units
)

func (v Version) String() string {
	switch v {
	case Version1x:
		return "1.x"
	case Version21x:
		return "2.1x"
	case Version23x:
		return "2.3x"
	case Version24x:
		return "2.4x"
	}
	return "unknown"
}

func (v Version) unitBits() int {
	if v == Version23x || v == Version24x {
		return 8
	}
	return 32
}

func (v Version) params(table bool) streamParams {
	return streamParams{
		flatEscape: v == Version1x,
		bitplane:   v != Version1x,
		table:      table,
	}
}

// Format is the framing found by Sniff.
type Format int

const (
	FormatNone Format = iota
	FormatV1          // trailer
	FormatV2          // header
)

func (f Format) String() string {
	switch f {
	case FormatV1:
		return "v1"
	case FormatV2:
		return "v2"
	}
	return "none"
}

// ProbeV1 checks the last TrailerSize bytes of a file for the v1 trailer
// and returns the uncompressed size it declares. Only the final
// TrailerSize bytes of tail are examined.
func ProbeV1(tail []byte) (int64, error) {
	if len(tail) < TrailerSize {
		return 0, fmt.Errorf("%w: %d-byte trailer is too short", ErrFormat, len(tail))
	}
	t := tail[len(tail)-TrailerSize:]
	if string(t[4:8]) != magicV1 {
		return 0, fmt.Errorf("%w: trailer magic %q", ErrFormat, t[4:8])
	}
	return int64(binary.BigEndian.Uint32(t)), nil
}

type header struct {
	magic            string
	packed, unpacked int64
}

func parseHeader(head []byte) (header, error) {
	if len(head) < HeaderSize {
		return header{}, fmt.Errorf("%w: %d-byte header is too short", ErrFormat, len(head))
	}
	h := header{
		magic:    string(head[:4]),
		packed:   int64(binary.BigEndian.Uint32(head[4:])),
		unpacked: int64(binary.BigEndian.Uint32(head[8:])),
	}
	if h.fixed() || h.legacy() {
		return h, nil
	}
	return header{}, fmt.Errorf("%w: header magic %q", ErrFormat, head[:4])
}

func (h header) fixed() bool { return h.magic == magicFixed }

func (h header) legacy() bool {
	if h.magic == magicLegacy {
		return true
	}
	for _, a := range legacyAliases {
		if h.magic == a {
			return true
		}
	}
	return false
}

// ProbeV2 checks the first HeaderSize bytes of a file for a v2 header
// and returns the uncompressed size it declares.
func ProbeV2(head []byte) (int64, error) {
	h, err := parseHeader(head)
	if err != nil {
		return 0, err
	}
	return h.unpacked, nil
}

// guessLegacyUnits decides the unit width of a legacy-magic stream from the
// last four payload bytes, which hold the first unit either way. It returns
// 0 when the bytes could be either.
func guessLegacyUnits(last4 []byte) int {
	if len(last4) < 4 {
		return 0
	}
	switch {
	case last4[3]&0x80 == 0:
		return 32
	case last4[0]&0x80 == 0:
		return 8
	}
	return 0
}
