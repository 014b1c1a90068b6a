// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package packice

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// A Decoder holds the tunables for decoding. The zero value is ready to use.
// A Decoder has no per-call state and is safe for concurrent use.
type Decoder struct {
	Strategy  Strategy
	ChunkSize int          // backward read granularity, default 4096
	Logger    *slog.Logger // debug detail, default slog.Default()
}

var defaultDecoder Decoder

// DecodeV1 decodes the trailer-framed stream held in the first size bytes
// of r into dst, which must be at least as long as the declared size.
// Only dst[:declared size] is written. Nothing is written if the framing
// does not check out; after a later failure dst holds garbage.
func DecodeV1(dst []byte, r io.ReadSeeker, size int64) error {
	_, err := defaultDecoder.DecodeV1(dst, r, size)
	return err
}

// DecodeV2 is like DecodeV1 for the header-framed stream.
func DecodeV2(dst []byte, r io.ReadSeeker, size int64) error {
	_, err := defaultDecoder.DecodeV2(dst, r, size)
	return err
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// DecodeV1 decodes like the package-level DecodeV1 using d's settings,
// and reports the dialect that was decoded. The Version is VersionUnknown
// whenever the error is non-nil.
func (d *Decoder) DecodeV1(dst []byte, r io.ReadSeeker, size int64) (Version, error) {
	if size < TrailerSize {
		return VersionUnknown, fmt.Errorf("%w: %d-byte input", ErrFormat, size)
	}
	var tail [TrailerSize]byte
	if err := readAt(r, tail[:], size-TrailerSize); err != nil {
		return VersionUnknown, err
	}
	unpacked, err := ProbeV1(tail[:])
	if err != nil {
		return VersionUnknown, err
	}
	packed := size - TrailerSize
	if packed < 4 {
		return VersionUnknown, fmt.Errorf("%w: compressed size %d", ErrSize, packed)
	}
	out, err := checkDst(dst, unpacked)
	if err != nil {
		return VersionUnknown, err
	}
	return d.runAs(out, r, 0, packed, Version1x)
}

// DecodeV2 decodes like the package-level DecodeV2 using d's settings.
// The magic alone fixes the dialect except for the older signatures,
// whose unit width is worked out from the stream itself.
func (d *Decoder) DecodeV2(dst []byte, r io.ReadSeeker, size int64) (Version, error) {
	var head [HeaderSize]byte
	if size < HeaderSize {
		return VersionUnknown, fmt.Errorf("%w: %d-byte input", ErrFormat, size)
	}
	if err := readAt(r, head[:], 0); err != nil {
		return VersionUnknown, err
	}
	h, err := parseHeader(head[:])
	if err != nil {
		return VersionUnknown, err
	}
	if h.packed < 4 || h.packed > size {
		return VersionUnknown, fmt.Errorf("%w: compressed size %d in %d-byte input", ErrSize, h.packed, size)
	}
	out, err := checkDst(dst, h.unpacked)
	if err != nil {
		return VersionUnknown, err
	}

	// A packed size under the header length would overlap the header;
	// such a stream has no payload and fails as truncated.
	start := min(HeaderSize, h.packed)
	if h.fixed() {
		return d.runAs(out, r, start, h.packed, Version24x)
	}
	return d.runLegacy(out, r, start, h.packed)
}

// runLegacy decodes a stream whose magic does not say which unit width
// it uses.
func (d *Decoder) runLegacy(out []byte, r io.ReadSeeker, start, end int64) (Version, error) {
	src := newBackSource(r, start, end, d.ChunkSize)
	var last4 []byte
	if v, ok, err := src.peekUnit(0, 4); err != nil {
		return VersionUnknown, err
	} else if ok {
		last4 = []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	}

	switch guessLegacyUnits(last4) {
	case 32:
		return d.runAs(out, r, start, end, Version21x)
	case 8:
		return d.runAs(out, r, start, end, Version23x)
	}

	err8 := d.run(out, r, start, end, Version23x)
	if err8 == nil {
		return Version23x, nil
	} else if !errors.Is(err8, ErrMalformed) {
		return VersionUnknown, err8
	}
	d.logger().Debug("packIceRetry", "from", Version23x, "to", Version21x, "err", err8)
	err32 := d.run(out, r, start, end, Version21x)
	if err32 == nil {
		return Version21x, nil
	} else if !errors.Is(err32, ErrMalformed) {
		return VersionUnknown, err32
	}
	return VersionUnknown, fmt.Errorf("%w: 8-bit attempt: %w; 32-bit attempt: %w", ErrUnsupportedVariant, err8, err32)
}

func (d *Decoder) runAs(out []byte, r io.ReadSeeker, start, end int64, v Version) (Version, error) {
	if err := d.run(out, r, start, end, v); err != nil {
		return VersionUnknown, err
	}
	return v, nil
}

func (d *Decoder) run(out []byte, r io.ReadSeeker, start, end int64, v Version) error {
	src := newBackSource(r, start, end, d.ChunkSize)
	p := v.params(d.Strategy != StrategyBitwise)
	var err error
	if v.unitBits() == 8 {
		err = decodeStream[uint8](out, src, p, d.logger())
	} else {
		err = decodeStream[uint32](out, src, p, d.logger())
	}
	if err != nil {
		return fmt.Errorf("version %v: %w", v, err)
	}
	return nil
}

func checkDst(dst []byte, unpacked int64) ([]byte, error) {
	if unpacked <= 0 || unpacked > int64(len(dst)) {
		return nil, fmt.Errorf("%w: uncompressed size %d for %d-byte buffer", ErrSize, unpacked, len(dst))
	}
	return dst[:unpacked], nil
}

func readAt(r io.ReadSeeker, p []byte, off int64) error {
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to %d: %v", ErrIO, off, err)
	}
	if _, err := io.ReadFull(r, p); err != nil {
		return fmt.Errorf("%w: read %d bytes at %d: %v", ErrIO, len(p), off, err)
	}
	return nil
}

// Sniff reports how data is framed and the uncompressed size it declares.
// The header is tried before the trailer.
func Sniff(data []byte) (Format, int64, error) {
	if n, err := ProbeV2(data); err == nil {
		return FormatV2, n, nil
	}
	if n, err := ProbeV1(data); err == nil {
		return FormatV1, n, nil
	}
	return FormatNone, 0, ErrFormat
}

// Decompress decodes a whole Pack-Ice file held in memory.
func Decompress(data []byte) ([]byte, error) {
	out, _, err := defaultDecoder.Decompress(data)
	return out, err
}

// Decompress is like the package-level Decompress and also reports the
// dialect that was decoded.
func (d *Decoder) Decompress(data []byte) ([]byte, Version, error) {
	f, n, err := Sniff(data)
	if err != nil {
		return nil, VersionUnknown, err
	}
	if n <= 0 {
		return nil, VersionUnknown, fmt.Errorf("%w: uncompressed size %d", ErrSize, n)
	}
	out := make([]byte, n)
	r := bytes.NewReader(data)
	var v Version
	if f == FormatV2 {
		v, err = d.DecodeV2(out, r, int64(len(data)))
	} else {
		v, err = d.DecodeV1(out, r, int64(len(data)))
	}
	if err != nil {
		return nil, VersionUnknown, err
	}
	return out, v, nil
}
