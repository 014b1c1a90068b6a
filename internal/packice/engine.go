package packice

import (
	"errors"
	"fmt"
	"log/slog"
)

// window is the destination buffer seen from its write cursor,
// which starts at the end and only ever moves toward index 0.
// Everything at or above cur is final output.
type window struct {
	buf []byte
	cur int
}

func (w *window) literals(n int, src *backSource) error {
	if n > w.cur {
		return fmt.Errorf("%w: literal run of %d with %d bytes left to fill", ErrMalformed, n, w.cur)
	}
	for range n {
		b, err := src.readByte()
		if err != nil {
			return err
		}
		w.cur--
		w.buf[w.cur] = b
	}
	return nil
}

// match copies n bytes from off bytes further up the buffer. Source bytes
// past the end of the buffer read as zero.
func (w *window) match(n, off int) error {
	if n > w.cur {
		return fmt.Errorf("%w: match of %d with %d bytes left to fill", ErrMalformed, n, w.cur)
	}
	w.cur -= n
	for i := n - 1; i >= 0; i-- {
		at := w.cur + i
		if s := at + off; s < len(w.buf) {
			w.buf[at] = w.buf[s]
		} else {
			w.buf[at] = 0
		}
	}
	return nil
}

type streamParams struct {
	flatEscape bool // long literal runs use a flat 10-bit count
	bitplane   bool // a filter flag follows the last literal run
	table      bool
}

// decodeStream fills dst completely from the payload in src.
func decodeStream[U unit](dst []byte, src *backSource, p streamParams, log *slog.Logger) error {
	br := newBitReader[U](src)
	if err := br.preload(); err != nil {
		return err
	}
	cr := &codeReader[U]{br: br, flatEscape: p.flatEscape, table: p.table}
	w := &window{buf: dst, cur: len(dst)}

	for {
		n, err := cr.literalRun()
		if err != nil {
			return err
		}
		if err := w.literals(n, src); err != nil {
			return err
		}
		if w.cur == 0 {
			break
		}

		n, err = cr.matchLen()
		if err != nil {
			return err
		}
		d, err := cr.distance(n)
		if err != nil {
			return err
		}
		if err := w.match(n, offset[U](d, n)); err != nil {
			return err
		}
	}

	if p.bitplane {
		groups, err := bitplaneGroups(br)
		if err != nil {
			return err
		}
		if groups > 0 {
			log.Debug("packIceBitplane", "groups", groups, "size", len(dst))
			deplanar(dst, groups)
		}
	}

	if left := br.leftover(); left >= 8 {
		log.Debug("packIceLeftover", "bits", left)
	}
	return nil
}

const defaultBitplaneGroups = 320 * 200 / 16

// bitplaneGroups reads the filter flag that follows the last literal run
// and returns how many 8-byte groups to filter, or 0. A stream that ends
// early simply has no filter, or the default extent.
func bitplaneGroups[U unit](br *bitReader[U]) (int, error) {
	on, err := br.readBit()
	if err != nil || on == 0 {
		return 0, ioOnly(err)
	}
	explicit, err := br.readBit()
	if err != nil || explicit == 0 {
		return defaultBitplaneGroups, ioOnly(err)
	}
	n, err := br.readBits(16)
	if err != nil {
		return defaultBitplaneGroups, ioOnly(err)
	}
	return int(n) + 1, nil
}

// ioOnly drops running out of data, which is normal at the very end.
func ioOnly(err error) error {
	if errors.Is(err, ErrMalformed) {
		return nil
	}
	return err
}
