// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package packice decodes Pack-Ice, the LZ77 packer common on the Atari ST
// and Amiga.
//
// A Pack-Ice stream is read from its last byte toward its first and
// written from the end of the output toward the start. Two framings exist:
// v1 files end in an 8-byte trailer, v2 files begin with a 12-byte header.
// Within v2 the "Ice!" magic and its rebranded aliases were used with both
// 8-bit and 32-bit bit units, and the unit width is guessed from the data.
//
// The whole output must be held in memory until decoding finishes, so there
// is no streaming interface.
package packice
