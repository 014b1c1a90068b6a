//go:build unix

package mmapfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFromFile(t *testing.T) {
	want := bytes.Repeat([]byte("Ice!"), 3000)
	name := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(name, want, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	m, err := FromFile(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(m.Bytes(), want) || m.Len() != len(want) {
		t.Error("mapped bytes differ")
	}
	if err := m.Close(); err != nil {
		t.Error(err)
	}
	if err := m.Close(); err != nil {
		t.Error("second Close:", err)
	}
}

func TestFromFileRefusals(t *testing.T) {
	name := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(name, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := FromFile(f); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty file: got %v", err)
	}

	mf, err := fstest.MapFS{"x": {Data: []byte("x")}}.Open("x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(mf); !errors.Is(err, ErrNotOS) {
		t.Errorf("in-memory file: got %v", err)
	}
}
