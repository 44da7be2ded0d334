// Package trace carries buffer pool, disk manager, and B+ tree diagnostic
// logging as short, tagged one-liners, routed through a real log.Logger so
// callers can silence or redirect them instead of writing straight to
// stdout.
package trace

import (
	"log"
	"os"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

var enabled atomic.Bool

var logger = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

// Enable turns on diagnostic logging. Off by default, the way a production
// build would not want per-page-fetch noise on stderr.
func Enable(on bool) {
	enabled.Store(on)
}

// Bufferpool logs a buffer pool event: hits, misses, evictions, flushes.
func Bufferpool(format string, args ...any) {
	if enabled.Load() {
		logger.Printf("[bufferpool] "+format, args...)
	}
}

// Disk logs a disk manager event.
func Disk(format string, args ...any) {
	if enabled.Load() {
		logger.Printf("[disk] "+format, args...)
	}
}

// Btree logs a B+ tree structural event (split, merge, root change).
func Btree(format string, args ...any) {
	if enabled.Load() {
		logger.Printf("[btree] "+format, args...)
	}
}

// Bytes formats a byte count for a log line, e.g. "16 MB" for a pool sized
// pool_size * page_size.
func Bytes(n int64) string {
	return humanize.Bytes(uint64(n))
}
