// Package xlog is a thin wrapper around the standard library's log
// package, grounded on the teacher's inline-prefix logging convention
// (e.g. "ChunkManager: ..." in pkg/game/chunk_manager.go). No logging
// framework appears anywhere in the retrieved corpus's go.mod files, so
// subsystem loggers here are just a prefixed *log.Logger.
package xlog

import (
	"log"
	"os"
)

// New returns a logger prefixed with the given component name, writing to
// stderr with the standard date/time flags — the same defaults the
// teacher relies on implicitly via the global log package.
func New(component string) *log.Logger {
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}
