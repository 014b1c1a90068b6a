package main

import (
	"cmp"
	"io/fs"
	gopath "path"
	"slices"
	"strings"
)

func (fsys *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	sub, subname, m, err := fsys.resolve(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	listing, err := fs.ReadDir(sub, subname)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return listing, nil // decoded files are never probed
	}

	answers := make(chan *mountEntry)

	n := 0
	for _, l := range listing {
		if l.IsDir() || strings.HasSuffix(l.Name(), Special) {
			continue
		}

		go func() {
			p := gopath.Join(name, l.Name())
			if _, ok := fsys.getMount(p); ok {
				answers <- &mountEntry{fsys: fsys, name: p + Special}
			} else {
				answers <- nil
			}
		}()
		n++
	}

	for range n {
		l := <-answers
		if l != nil {
			listing = append(listing, l)
		}
	}

	slices.SortFunc(listing, func(a, b fs.DirEntry) int {
		return cmp.Compare(a.Name(), b.Name())
	})

	return listing, nil
}
