package iofile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/svenny-voxen/voxen-go/pkg/svc/counter"
)

func TestAsyncWriteThenAsyncRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	h, err := RegisterFile(path, Read|Write|Create|Truncate)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	worker := NewWorker(counter.New())
	defer worker.Close()

	payload := []byte("hello async world")
	wf := worker.AsyncWrite(h, payload, 0)
	wr := worker.Wait(wf)
	if wr.Err != nil || wr.N != len(payload) {
		t.Fatalf("write result = %+v, want N=%d err=nil", wr, len(payload))
	}

	buf := make([]byte, len(payload))
	rf := worker.AsyncRead(h, buf, 0)
	rr := worker.Wait(rf)
	if rr.Err != nil || rr.N != len(payload) {
		t.Fatalf("read result = %+v, want N=%d err=nil", rr, len(payload))
	}
	if string(buf) != string(payload) {
		t.Fatalf("read %q, want %q", buf, payload)
	}
}

func TestRegisterFileRefcountClosesOnLastRelease(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refcount.bin")

	h, err := RegisterFile(path, Read|Write|Create)
	if err != nil {
		t.Fatal(err)
	}
	h2 := h.Clone()

	h.Release()
	if h2.File() == nil {
		t.Fatal("file should still be open: one reference remains")
	}

	h2.Release()
	// No direct way to observe fd closure without relying on OS
	// internals; the invariant under test is that Release doesn't panic
	// or double-close when called the correct number of times.
}

func TestMaterializeTempFile(t *testing.T) {
	dir := t.TempDir()
	h, err := RegisterFile(filepath.Join(dir, "ignored"), Read|Write|TempFile|CreateSubdirs)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	dest := filepath.Join(dir, "materialized.bin")
	if err := MaterializeTempFile(h, dest); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("materialized file missing: %v", err)
	}
}
