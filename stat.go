package main

import (
	"io/fs"
	gopath "path"
	"strings"
)

func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	// Special cases to cover:
	// - a mountpoint: it should not return a name of "."
	// - a mountpoint takes its times from the packed file
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}

	if packedName, isMountpoint := strings.CutSuffix(name, Special); isMountpoint {
		if _, ok := fsys.getMount(packedName); !ok {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
		}
		s, err := fs.Stat(fsys.root, packedName)
		if err != nil {
			return nil, err
		}
		return mountpointStat{FileInfo: s, name: gopath.Base(name)}, nil
	}

	sub, subname, _, err := fsys.resolve(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	return fs.Stat(sub, subname)
}

type mountpointStat struct {
	fs.FileInfo // inner
	name        string
}

func (s mountpointStat) Name() string { return s.name }
func (s mountpointStat) IsDir() bool  { return true }
func (s mountpointStat) Size() int64  { return 0 }
func (s mountpointStat) Mode() fs.FileMode {
	return s.FileInfo.Mode() | fs.ModeDir | s.FileInfo.Mode()&0o444>>2
}
