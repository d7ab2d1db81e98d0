// Package iofile implements the engine's async file I/O: a refcounted
// file handle registry plus a single I/O worker goroutine that performs
// blocking ReadAt/WriteAt (Go's portable pread/pwrite equivalent) on
// behalf of callers who get back a waitable counter instead of blocking
// themselves.
//
// Grounded on spec.md §4.F / §6. This is explicitly a stopgap: Go's
// standard library exposes no portable io_uring/IOCP equivalent, so one
// dedicated goroutine serializes every registered file's I/O the same
// way the original serializes it onto one OS thread.
package iofile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/svenny-voxen/voxen-go/internal/rt"
)

// Flag is one bit of the file-open flag set from spec.md §6.
type Flag uint32

const (
	Read Flag = 1 << iota
	Write
	LockShared
	LockExclusive
	Create
	CreateSubdirs
	Truncate
	TempFile
	AsyncIo
	HintRandomAccess
	HintSequentialAccess
)

// handle is the payload behind a shared file reference: the open *os.File
// plus whatever advisory lock was taken on it.
type handle struct {
	f      *os.File
	locked bool
}

func (h *handle) close() {
	if h.locked {
		_ = unix.Flock(int(h.f.Fd()), unix.LOCK_UN)
	}
	_ = h.f.Close()
}

var filePool = newFilePool()

func newFilePool() *rt.SharedPool[handle] {
	p := rt.NewSharedPool[handle]()
	p.SetDestructor(func(h *handle) { h.close() })
	return p
}

// Handle is a refcounted reference to an open file, the Go analogue of
// the original's shared_ptr<File>. Release it when done; the underlying
// os.File is closed once the last reference is released.
type Handle struct {
	ref rt.SharedRef[handle]
}

// Release drops this reference. The file closes once every Handle
// obtained from RegisterFile/Clone for it has been released.
func (h Handle) Release() { h.ref.Release() }

// Clone returns a new independent Handle to the same file, incrementing
// its refcount.
func (h Handle) Clone() Handle {
	h.ref.AddRef()
	return h
}

// File returns the registered file, or nil if every reference
// (including this one) was already released.
func (h Handle) File() *os.File {
	if !h.ref.Valid() {
		return nil
	}
	return h.ref.Get().f
}

// RegisterFile opens path under the given flags and returns a refcounted
// Handle to it.
func RegisterFile(path string, flags Flag) (Handle, error) {
	openFlags := 0
	switch {
	case flags&Read != 0 && flags&Write != 0:
		openFlags = os.O_RDWR
	case flags&Write != 0:
		openFlags = os.O_WRONLY
	default:
		openFlags = os.O_RDONLY
	}
	if flags&Create != 0 {
		openFlags |= os.O_CREATE
	}
	if flags&Truncate != 0 {
		openFlags |= os.O_TRUNC
	}

	if flags&CreateSubdirs != 0 {
		if err := os.MkdirAll(parentDir(path), 0o755); err != nil {
			return Handle{}, fmt.Errorf("iofile: create parent dirs for %s: %w", path, err)
		}
	}

	var f *os.File
	var err error
	if flags&TempFile != 0 {
		var fd int
		fd, err = unix.Open(parentDir(path), unix.O_TMPFILE|unix.O_RDWR|unix.O_CLOEXEC, 0o644)
		if err == nil {
			f = os.NewFile(uintptr(fd), path)
		}
	} else {
		f, err = os.OpenFile(path, openFlags, 0o644)
	}
	if err != nil {
		return Handle{}, fmt.Errorf("iofile: open %s: %w", path, err)
	}

	locked := false
	if flags&LockExclusive != 0 {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
			f.Close()
			return Handle{}, fmt.Errorf("iofile: flock exclusive %s: %w", path, err)
		}
		locked = true
	} else if flags&LockShared != 0 {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err != nil {
			f.Close()
			return Handle{}, fmt.Errorf("iofile: flock shared %s: %w", path, err)
		}
		locked = true
	}

	ref := filePool.Acquire(func(h *handle) { h.f = f; h.locked = locked })
	return Handle{ref: ref}, nil
}

// MaterializeTempFile links a TempFile-flagged Handle's anonymous file to
// a permanent path, matching the original's "link it" semantics on
// Linux via /proc/self/fd.
func MaterializeTempFile(h Handle, destPath string) error {
	f := h.File()
	if f == nil {
		return fmt.Errorf("iofile: materialize: handle already released")
	}
	procPath := fmt.Sprintf("/proc/self/fd/%d", f.Fd())
	if err := unix.Linkat(unix.AT_FDCWD, procPath, unix.AT_FDCWD, destPath, unix.AT_SYMLINK_FOLLOW); err != nil {
		return fmt.Errorf("iofile: linkat %s -> %s: %w", procPath, destPath, err)
	}
	return nil
}

func parentDir(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '/' {
		i--
	}
	if i <= 0 {
		return "."
	}
	return path[:i]
}
