package singlefilefs

import (
	"errors"
	"io"
	"testing"
	"testing/fstest"
	"time"
)

func TestFS(t *testing.T) {
	content := []byte("decoded bytes of a packed file\n")
	loads := 0
	fsys := &FS{
		Name:    "demo.prg",
		Load:    func() ([]byte, error) { loads++; return content, nil },
		ModTime: time.Date(1991, 4, 1, 0, 0, 0, 0, time.UTC),
		Size:    int64(len(content)),
	}
	if err := fstest.TestFS(fsys, "demo.prg"); err != nil {
		t.Error(err)
	}
	if loads == 0 {
		t.Error("Load never called")
	}
}

func TestStatDoesNotLoad(t *testing.T) {
	fsys := &FS{
		Name: "x",
		Load: func() ([]byte, error) { t.Fatal("loaded"); return nil, nil },
		Size: 1234,
	}
	info, err := fsys.Stat("x")
	if err != nil || info.Size() != 1234 {
		t.Errorf("Stat = %v, %v", info, err)
	}
}

func TestLoadError(t *testing.T) {
	boom := errors.New("boom")
	fsys := &FS{Name: "x", Load: func() ([]byte, error) { return nil, boom }, Size: 3}
	f, err := fsys.Open("x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadAll(f); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}

	short := &FS{Name: "y", Load: func() ([]byte, error) { return []byte("ab"), nil }, Size: 3}
	f, _ = short.Open("y")
	if _, err := f.(io.ReaderAt).ReadAt(make([]byte, 1), 0); err == nil {
		t.Error("size mismatch not reported")
	}
}
