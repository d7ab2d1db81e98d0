package iofile

import (
	"fmt"

	"github.com/svenny-voxen/voxen-go/pkg/svc/counter"
)

type command int

const (
	cmdRead command = iota
	cmdWrite
)

type job struct {
	cmd     command
	file    Handle
	buf     []byte
	offset  int64
	counter uint64
	result  *Result
}

// Result is the shared outcome of an async read or write: bytes
// transferred, and any error encountered. It is safe to read once the
// associated counter is complete; reading it earlier races with the I/O
// worker.
type Result struct {
	N   int
	Err error
}

// Future is what AsyncRead/AsyncWrite hand back: a counter that
// completes once the I/O worker has finished the operation, and a
// pointer to where it recorded the outcome.
type Future struct {
	Counter uint64
	Result  *Result
}

// Worker is the engine's single I/O thread: it drains a job queue,
// performing blocking ReadAt/WriteAt (Go's pread/pwrite equivalent) one
// at a time. This is a deliberate stopgap ahead of true async I/O
// (io_uring on Linux, IOCP on Windows) — unavailable portably from the
// standard library, per spec.md §4.F.
type Worker struct {
	tracker *counter.Tracker
	jobs    chan job
	done    chan struct{}
}

// NewWorker starts the I/O worker goroutine. tracker is shared with
// whatever else in the engine allocates waitable counters (typically the
// task service's), since an async read's counter needs to be awaitable
// the same way a task's is.
func NewWorker(tracker *counter.Tracker) *Worker {
	w := &Worker{tracker: tracker, jobs: make(chan job, 256), done: make(chan struct{})}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer close(w.done)
	for j := range w.jobs {
		w.run(j)
	}
}

func (w *Worker) run(j job) {
	f := j.file.File()
	if f == nil {
		j.result.Err = fmt.Errorf("iofile: file handle released before I/O ran")
		w.tracker.Complete(j.counter)
		return
	}

	var n int
	var err error
	switch j.cmd {
	case cmdRead:
		n, err = f.ReadAt(j.buf, j.offset)
	case cmdWrite:
		n, err = f.WriteAt(j.buf, j.offset)
	}
	j.result.N = n
	j.result.Err = err
	w.tracker.Complete(j.counter)
}

// AsyncRead enqueues a read of len(buf) bytes at offset from h's file,
// returning a Future that completes once it has run.
func (w *Worker) AsyncRead(h Handle, buf []byte, offset int64) Future {
	return w.enqueue(cmdRead, h, buf, offset)
}

// AsyncWrite enqueues a write of buf to h's file at offset, returning a
// Future that completes once it has run.
func (w *Worker) AsyncWrite(h Handle, buf []byte, offset int64) Future {
	return w.enqueue(cmdWrite, h, buf, offset)
}

func (w *Worker) enqueue(cmd command, h Handle, buf []byte, offset int64) Future {
	c := w.tracker.Allocate()
	result := &Result{}
	w.jobs <- job{cmd: cmd, file: h, buf: buf, offset: offset, counter: c, result: result}
	return Future{Counter: c, Result: result}
}

// Wait blocks until f's operation has completed and returns its result.
func (w *Worker) Wait(f Future) *Result {
	<-w.tracker.WaitChan(f.Counter)
	return f.Result
}

// Close stops accepting new work once every already-enqueued job has run.
func (w *Worker) Close() {
	close(w.jobs)
	<-w.done
}
