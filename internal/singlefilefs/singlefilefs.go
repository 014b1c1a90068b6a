// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package singlefilefs presents one lazily produced file as a directory
// holding just that file.
package singlefilefs

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"
)

// Single-file archive
type FS struct {
	Name    string
	Load    func() ([]byte, error) // called once per open file, on first access
	ModTime time.Time
	Size    int64 // must agree with what Load returns
}

type Dir struct {
	fsys     *FS
	listDone bool
}

type File struct {
	fsys *FS
	once sync.Once
	data *bytes.Reader
	err  error
}

func (fsys *FS) Open(name string) (fs.File, error) {
	switch name {
	default:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	case ".":
		return &Dir{fsys: fsys}, nil
	case fsys.Name:
		return &File{fsys: fsys}, nil
	}
}

func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	switch name {
	default:
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	case ".":
		return &Dir{fsys: fsys}, nil
	case fsys.Name:
		return &File{fsys: fsys}, nil
	}
}

func (fsys *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return []fs.DirEntry{&File{fsys: fsys}}, nil
}

func (d *Dir) Read(p []byte) (n int, err error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}

func (d *Dir) Stat() (fs.FileInfo, error) {
	return d, nil
}

func (d *Dir) Close() error {
	return nil
}

func (d *Dir) ReadDir(count int) ([]fs.DirEntry, error) {
	if d.listDone {
		if count > 0 {
			return nil, io.EOF
		}
		return nil, nil
	}
	d.listDone = true
	return []fs.DirEntry{&File{fsys: d.fsys}}, nil
}

func (f *File) load() (*bytes.Reader, error) {
	f.once.Do(func() {
		b, err := f.fsys.Load()
		if err == nil && int64(len(b)) != f.fsys.Size {
			err = fmt.Errorf("%s: produced %d bytes, expected %d", f.fsys.Name, len(b), f.fsys.Size)
		}
		if err != nil {
			f.err = &fs.PathError{Op: "read", Path: f.fsys.Name, Err: err}
			return
		}
		f.data = bytes.NewReader(b)
	})
	return f.data, f.err
}

func (f *File) Read(p []byte) (int, error) {
	r, err := f.load()
	if err != nil {
		return 0, err
	}
	return r.Read(p)
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	r, err := f.load()
	if err != nil {
		return 0, err
	}
	return r.ReadAt(p, off)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	r, err := f.load()
	if err != nil {
		return 0, err
	}
	return r.Seek(offset, whence)
}

func (f *File) Stat() (fs.FileInfo, error) {
	return f, nil
}

func (f *File) Close() error {
	return nil
}

func (f *File) Size() int64 {
	return f.fsys.Size
}

func (f *File) Name() string {
	return f.fsys.Name
}
func (f *File) Mode() fs.FileMode {
	return 0o444
}
func (f *File) Type() fs.FileMode {
	return 0 // regular file
}
func (f *File) Info() (fs.FileInfo, error) {
	return f, nil
}
func (f *File) ModTime() time.Time {
	return f.fsys.ModTime
}
func (f *File) IsDir() bool {
	return false
}
func (f *File) Sys() any {
	return nil
}

func (d *Dir) Name() string {
	return "."
}
func (d *Dir) Size() int64 {
	return 0
}
func (d *Dir) Mode() fs.FileMode {
	return 0o555 | fs.ModeDir
}
func (d *Dir) ModTime() time.Time {
	return d.fsys.ModTime
}
func (d *Dir) IsDir() bool {
	return true
}
func (d *Dir) Sys() any {
	return nil
}
