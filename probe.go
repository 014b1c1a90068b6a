// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/elliotnunn/unice/internal/mmapfile"
	"github.com/elliotnunn/unice/internal/packice"
	"github.com/therootcompany/xz"
)

// A packed file is a Pack-Ice stream, possibly inside a generic
// compression layer, found somewhere in the root FS.
type packed struct {
	name     string // in the root FS
	inner    string // name of the decoded file
	outer    string // "gzip", "bzip2", "xz" or ""
	format   packice.Format
	unpacked int64
	modTime  time.Time
}

type outerLayer struct {
	name, magic, suffixes string
	open                  func(io.Reader) (io.Reader, error)
}

var outerLayers = []outerLayer{
	{"gzip", "\x1f\x8b", ".gz .gzip", func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }},
	{"bzip2", "BZh", ".bz .bz2 .bzip2", func(r io.Reader) (io.Reader, error) { return bzip2.NewReader(r), nil }},
	{"xz", "\xfd7zXZ\x00", ".xz", func(r io.Reader) (io.Reader, error) { return xz.NewReader(r, xz.DefaultDictMax) }},
}

// probe returns nil without error for anything that is not Pack-Ice.
func probe(fsys fs.FS, name string) (*packed, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !stat.Mode().IsRegular() {
		return nil, nil
	}

	var head [packice.HeaderSize]byte
	n, err := io.ReadFull(f, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	pk := &packed{name: name, inner: path.Base(name), modTime: stat.ModTime()}

	for _, l := range outerLayers {
		if !bytes.HasPrefix(head[:n], []byte(l.magic)) {
			continue
		}
		r, err := l.open(io.MultiReader(bytes.NewReader(head[:n]), f))
		if err != nil {
			return nil, fmt.Errorf("%s layer: %w", l.name, err)
		}
		pk.outer = l.name
		pk.inner = changeSuffix(pk.inner, l.suffixes)
		pk, err = pk.sniffStream(r)
		if err != nil {
			return nil, fmt.Errorf("%s layer: %w", l.name, err)
		}
		return pk, nil
	}

	if n < packice.HeaderSize && n < packice.TrailerSize {
		return nil, nil
	}
	if u, err := packice.ProbeV2(head[:n]); err == nil {
		pk.format, pk.unpacked = packice.FormatV2, u
		return pk.named(), nil
	}

	// the trailer needs random access, or failing that a seek
	var tail [packice.TrailerSize]byte
	switch r := f.(type) {
	case io.ReaderAt:
		if n, err := r.ReadAt(tail[:], stat.Size()-packice.TrailerSize); n < len(tail) {
			return nil, err
		}
	case io.ReadSeeker:
		if _, err := r.Seek(-packice.TrailerSize, io.SeekEnd); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, tail[:]); err != nil {
			return nil, err
		}
	default:
		return pk.sniffStream(io.MultiReader(bytes.NewReader(head[:n]), f))
	}
	if u, err := packice.ProbeV1(tail[:]); err == nil {
		pk.format, pk.unpacked = packice.FormatV1, u
		return pk.named(), nil
	}
	return nil, nil
}

// sniffStream checks the first and last bytes of r without holding the
// rest in memory.
func (pk *packed) sniffStream(r io.Reader) (*packed, error) {
	var head [packice.HeaderSize]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	if u, err := packice.ProbeV2(head[:n]); err == nil {
		pk.format, pk.unpacked = packice.FormatV2, u
		return pk.named(), nil
	}

	var tw tailWriter
	tw.Write(head[:n])
	if _, err := io.Copy(&tw, r); err != nil {
		return nil, err
	}
	if u, err := packice.ProbeV1(tw.tail()); err == nil {
		pk.format, pk.unpacked = packice.FormatV1, u
		return pk.named(), nil
	}
	return nil, nil
}

// tailWriter keeps the last TrailerSize bytes written to it.
type tailWriter struct {
	buf [packice.TrailerSize]byte
	n   int64
}

func (w *tailWriter) Write(p []byte) (int, error) {
	k := len(p)
	if k > len(w.buf) {
		p = p[k-len(w.buf):]
	}
	copy(w.buf[:], w.buf[len(p):])
	copy(w.buf[len(w.buf)-len(p):], p)
	w.n += int64(k)
	return k, nil
}

func (w *tailWriter) tail() []byte {
	return w.buf[len(w.buf)-int(min(w.n, int64(len(w.buf)))):]
}

func (pk *packed) named() *packed {
	if s := changeSuffix(pk.inner, ".ice .ICE .pk .PK .ic .IC .pi .PI"); s != pk.inner {
		pk.inner = s
	} else {
		pk.inner += ".unpacked"
	}
	return pk
}

// load returns the Pack-Ice stream with any outer layer removed.
// The release function must be called when the data is no longer needed.
// Only here is an outer layer decompressed in full.
func (pk *packed) load(fsys fs.FS) (data []byte, release func(), err error) {
	if pk.outer == "" {
		if m, err := mapFile(fsys, pk.name); err == nil {
			return m.Bytes(), func() { m.Close() }, nil
		}
		data, err := readAll(fsys, pk.name)
		return data, func() {}, err
	}

	i := slices.IndexFunc(outerLayers, func(l outerLayer) bool { return l.name == pk.outer })
	if i < 0 {
		return nil, nil, fmt.Errorf("unknown outer layer %q", pk.outer)
	}
	f, err := fsys.Open(pk.name)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	r, err := outerLayers[i].open(f)
	if err != nil {
		return nil, nil, err
	}
	data, err = readLimited(r)
	if err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}

func mapFile(fsys fs.FS, name string) (*mmapfile.Map, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mmapfile.FromFile(f)
}

func readAll(fsys fs.FS, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(memLimit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > memLimit {
		return nil, fmt.Errorf("larger than the %d-byte memory limit (see UNICEGB)", memLimit)
	}
	return data, nil
}

func changeSuffix(s string, suffixes string) string {
	for _, rule := range strings.Split(suffixes, " ") {
		from, to, _ := strings.Cut(rule, "=")
		if strings.HasSuffix(s, from) && len(s) > len(from) {
			return s[:len(s)-len(from)] + to
		}
	}
	return s
}
