// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"io/fs"
	"log/slog"
	gopath "path"
	"strings"
	"sync"

	"github.com/elliotnunn/unice/internal/singlefilefs"
)

// Special marks the directory that holds the decoded form of a packed file:
// foo.ice has a sibling foo.ice◆ containing the unpacked foo.
const Special = "◆"

// FS wraps a file system, adding a decoded-file directory beside every
// Pack-Ice file.
type FS struct {
	mMu    sync.RWMutex
	mounts map[string]*mount // nonexistent or nil or pointer

	root  fs.FS
	cache *decodeCache
}

// if not present in the map, the file has not yet been probed
// if nil pointer, the file has been probed and is not packed (common)
type mount struct {
	lock sync.Mutex
	done bool
	pk   *packed
	fsys *singlefilefs.FS
}

func Wrapper(fsys fs.FS, cache *decodeCache) *FS {
	return &FS{
		root:   fsys,
		mounts: make(map[string]*mount),
		cache:  cache,
	}
}

// getMount probes name once and remembers the answer.
func (fsys *FS) getMount(name string) (*mount, bool) {
	// Undercooked files, do not touch
	switch gopath.Ext(name) {
	case ".crdownload", ".part":
		return nil, false
	}

	locksets := [...]struct{ lock, unlock func() }{
		{fsys.mMu.RLock, fsys.mMu.RUnlock},
		{fsys.mMu.Lock, fsys.mMu.Unlock},
	}

	var m *mount
	for i, mu := range locksets {
		mu.lock()
		var ok bool
		m, ok = fsys.mounts[name]
		if !ok && i == 1 {
			m = new(mount)
			fsys.mounts[name] = m
		}
		mu.unlock()
		if ok && m == nil {
			return nil, false // known NOT to be packed
		}
		if m != nil {
			break
		}
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if !m.done {
		m.done = true
		pk, err := probe(fsys.root, name)
		if err != nil {
			slog.Warn("probeError", "path", name, "err", err)
		}
		if pk == nil {
			fsys.mMu.Lock()
			fsys.mounts[name] = nil
			fsys.mMu.Unlock()
			return nil, false
		}
		m.pk = pk
		m.fsys = &singlefilefs.FS{
			Name:    pk.inner,
			ModTime: pk.modTime,
			Size:    pk.unpacked,
			Load:    func() ([]byte, error) { return fsys.decoded(pk) },
		}
	}
	return m, m.pk != nil
}

func (fsys *FS) decoded(pk *packed) ([]byte, error) {
	data, release, err := pk.load(fsys.root)
	if err != nil {
		return nil, err
	}
	defer release()
	return fsys.cache.decode(data)
}

// resolve splits a name into the FS that holds it and the name within.
// The mount is nil for names in the root FS.
func (fsys *FS) resolve(name string) (fs.FS, string, *mount, error) {
	outer, inner, found := strings.Cut(name, Special+"/")
	if !found {
		outer, found = strings.CutSuffix(name, Special)
		inner = "."
	}
	if !found {
		return fsys.root, name, nil, nil
	}
	if outer == "" || strings.Contains(inner, Special) {
		return nil, "", nil, fs.ErrNotExist // decoded files are never probed
	}
	m, ok := fsys.getMount(outer)
	if !ok {
		return nil, "", nil, fs.ErrNotExist
	}
	return m.fsys, inner, m, nil
}
