// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"fmt"
	"io"
	"io/fs"
)

// dumpPacked prints what is known about each packed file, decoding it
// to learn the bitstream version.
func dumpPacked(w io.Writer, fsys *FS, names []string) {
	const tfmt = "2006-01-02T15:04:05"
	for _, p := range names {
		m, ok := fsys.getMount(p)
		if !ok {
			continue
		}
		pk := m.pk
		fmt.Fprintf(w, "%#v\n", p)

		outer := pk.outer
		if outer == "" {
			outer = "none"
		}
		fmt.Fprintf(w, "    format=%v outer=%s unpacked=%d modtime=%s\n",
			pk.format, outer, pk.unpacked, pk.modTime.Format(tfmt))

		data, release, err := pk.load(fsys.root)
		if err != nil {
			fmt.Fprintf(w, "    dump error: %s\n", err.Error())
			continue
		}
		_, v, err := fsys.cache.dec.Decompress(data)
		packedLen := len(data)
		release()
		if err != nil {
			fmt.Fprintf(w, "    decode error: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "    version=%v packed=%d ratio=%.2f\n",
			v, packedLen, float64(packedLen)/float64(pk.unpacked))
		fmt.Fprintf(w, "    %s\n", p+Special+"/"+pk.inner)
	}
}

// findPacked lists every packed file among names.
func findPacked(fsys *FS, names []string) []string {
	var ret []string
	for _, p := range names {
		if _, ok := fsys.getMount(p); ok {
			ret = append(ret, p)
		}
	}
	return ret
}

var _ fs.StatFS = (*FS)(nil)
var _ fs.ReadDirFS = (*FS)(nil)
