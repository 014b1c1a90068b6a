package main

import (
	"io"
	"io/fs"
	gopath "path"
)

func (fsys *FS) Open(name string) (f fs.File, err error) {
	defer func() {
		if err != nil {
			err = &fs.PathError{Op: "open", Path: name, Err: err}
		}
	}()

	if !fs.ValidPath(name) {
		return nil, fs.ErrInvalid
	}

	sub, subname, m, err := fsys.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err = sub.Open(subname)
	if err != nil {
		return nil, unwrapPathError(err)
	}

	rdf, ok := f.(fs.ReadDirFile)
	if !ok {
		return f, nil
	}
	if m != nil && subname == "." {
		return &dir{fsys: fsys, name: name, obj: rdf}, nil
	}
	if s, err := f.Stat(); err == nil && s.IsDir() {
		return &dir{fsys: fsys, name: name, obj: rdf}, nil
	}
	return f, nil
}

func unwrapPathError(err error) error {
	if pe, ok := err.(*fs.PathError); ok {
		return pe.Err
	}
	return err
}

// A dir lists its packed files' Special siblings along with its own entries.
type dir struct {
	fsys  *FS
	name  string
	obj   fs.ReadDirFile
	list  []fs.DirEntry
	lseek int
	read  bool
}

func (d *dir) Stat() (fs.FileInfo, error) { return d.fsys.Stat(d.name) }
func (d *dir) Close() error               { return d.obj.Close() }
func (d *dir) Read(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *dir) ReadDir(count int) ([]fs.DirEntry, error) {
	if !d.read {
		listing, err := d.fsys.ReadDir(d.name)
		if err != nil {
			return nil, err
		}
		d.list = listing
		d.read = true
	}

	// Implement those tricky partial-listing semantics
	n := len(d.list) - d.lseek
	if n == 0 && count > 0 {
		return nil, io.EOF
	}
	if count > 0 && n > count {
		n = count
	}
	list := make([]fs.DirEntry, n)
	copy(list, d.list[d.lseek:][:n])
	d.lseek += n
	return list, nil
}

// A mountEntry is the directory entry for a packed file's Special sibling.
type mountEntry struct {
	fsys *FS
	name string
}

func (de *mountEntry) Name() string               { return gopath.Base(de.name) }
func (de *mountEntry) Info() (fs.FileInfo, error) { return de.fsys.Stat(de.name) }
func (de *mountEntry) Type() fs.FileMode          { return fs.ModeDir }
func (de *mountEntry) IsDir() bool                { return true }
