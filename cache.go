package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble/v2"
	"github.com/dgryski/go-tinylfu"
	"github.com/elliotnunn/unice/internal/packice"
)

// A decodeCache remembers decoded files by the hash of their packed bytes:
// first in memory, then optionally on disk.
// A decodeCache is safe for concurrent use by multiple goroutines.
type decodeCache struct {
	mu      sync.Mutex
	mem     *tinylfu.T[uint64, []byte]
	maxItem int
	db      *pebble.DB // nil if there is no disk cache
	dec     *packice.Decoder
}

const avgDecodedSize = 256 << 10 // a generous Atari-era file

func newDecodeCache(dec *packice.Decoder, dir string) (*decodeCache, error) {
	n := max(16, memLimit/avgDecodedSize)
	c := &decodeCache{
		mem:     tinylfu.New[uint64, []byte](n, n*10, func(k uint64) uint64 { return k }),
		maxItem: memLimit / 8,
		dec:     dec,
	}
	if dir != "" {
		db, err := pebble.Open(dir, &pebble.Options{})
		if err != nil {
			return nil, fmt.Errorf("open decode cache: %w", err)
		}
		c.db = db
	}
	return c, nil
}

func (c *decodeCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func cacheKey(packedData []byte) uint64 { return xxhash.Sum64(packedData) }

func dbKey(k uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte("ice1"), k)
}

// decode returns the decoded form of a whole Pack-Ice file.
// The returned slice is shared and must not be modified.
func (c *decodeCache) decode(packedData []byte) ([]byte, error) {
	k := cacheKey(packedData)

	c.mu.Lock()
	b, ok := c.mem.Get(k)
	c.mu.Unlock()
	if ok {
		return b, nil
	}

	if b, ok := c.fromDisk(k); ok {
		c.remember(k, b)
		return b, nil
	}

	b, v, err := c.dec.Decompress(packedData)
	if err != nil {
		return nil, err
	}
	slog.Debug("decoded", "version", v, "packed", len(packedData), "unpacked", len(b))
	c.remember(k, b)
	c.toDisk(k, b)
	return b, nil
}

func (c *decodeCache) remember(k uint64, b []byte) {
	if len(b) > c.maxItem {
		return
	}
	c.mu.Lock()
	c.mem.Add(k, b)
	c.mu.Unlock()
}

func (c *decodeCache) fromDisk(k uint64) ([]byte, bool) {
	if c.db == nil {
		return nil, false
	}
	v, closer, err := c.db.Get(dbKey(k))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false
	} else if err != nil {
		slog.Warn("cacheReadError", "key", k, "err", err)
		return nil, false
	}
	defer closer.Close()
	return append([]byte(nil), v...), true
}

func (c *decodeCache) toDisk(k uint64, b []byte) {
	if c.db == nil {
		return
	}
	if err := c.db.Set(dbKey(k), b, pebble.NoSync); err != nil {
		slog.Warn("cacheWriteError", "key", k, "err", err)
	}
}
