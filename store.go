package geoip

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// store abstracts random-access reads into a database file. A single
// capability, read, is composed by the three concrete strategies below
// rather than expressed as a class hierarchy — see the backing-store
// REDESIGN note this package implements.
type store interface {
	// read copies up to len(dest) bytes starting at offset into dest and
	// returns the number of bytes copied. Short reads at EOF are
	// tolerated; callers rely on NUL terminators, not exact lengths.
	read(dest []byte, offset int64) (n int)

	// close releases the underlying file handle. It is idempotent.
	close() error
}

// openStore opens path in mode and returns the corresponding store
// together with the file's size, needed by the metadata decoder.
func openStore(path string, mode Mode, logger *slog.Logger) (s store, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, 0, err
	}

	size = fi.Size()

	switch mode {
	case ModeMemoryCache:
		s, err = newMemoryStore(f, size)
	case ModeIndexCache:
		// The index length isn't known yet; newIndexStore reads the
		// metadata header itself via its fallback fileStore, then loads
		// the trie prefix.
		s, err = newIndexStore(f, size, logger)
	case ModeFile:
		s = newFileStore(f, logger)
	default:
		_ = f.Close()

		return nil, 0, fmt.Errorf("geoip: unknown backing-store mode %d", mode)
	}

	if err != nil {
		_ = f.Close()

		return nil, 0, err
	}

	return s, size, nil
}

// fileStore serves every read with a positional read on an open file
// handle. os.File.ReadAt does not share a seek cursor, so concurrent
// callers are safe without additional locking.
type fileStore struct {
	f      *os.File
	logger *slog.Logger
}

func newFileStore(f *os.File, logger *slog.Logger) *fileStore {
	return &fileStore{f: f, logger: logger}
}

// read implements the store interface for *fileStore.
func (s *fileStore) read(dest []byte, offset int64) (n int) {
	n, err := s.f.ReadAt(dest, offset)
	if err != nil {
		// io.EOF and short reads are expected near the end of the leaf
		// segment; only log genuine I/O failures, and even then, degrade
		// to zero-filled bytes rather than propagating the error, per
		// this package's best-effort read contract.
		clear(dest[n:])
		if !errors.Is(err, io.EOF) && s.logger != nil {
			s.logger.Warn("read failed", "offset", offset, "error", err)
		}
	}

	return n
}

// close implements the store interface for *fileStore. Closing an
// already closed store is not an error.
func (s *fileStore) close() (err error) {
	err = s.f.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}

	return err
}

// memoryStore holds the entire database file contents in memory. It is
// loaded once, under an advisory exclusive lock, so that a concurrent
// writer truncating the file mid-read cannot corrupt the copy.
type memoryStore struct {
	data []byte
}

func newMemoryStore(f *os.File, size int64) (s *memoryStore, err error) {
	defer func() {
		_ = f.Close()
	}()

	if err = lockShared(f); err != nil {
		return nil, err
	}
	defer func() {
		_ = unlock(f)
	}()

	data := make([]byte, size)
	if _, err = f.ReadAt(data, 0); err != nil {
		return nil, err
	}

	return &memoryStore{data: data}, nil
}

// read implements the store interface for *memoryStore.
func (s *memoryStore) read(dest []byte, offset int64) (n int) {
	if offset < 0 || offset >= int64(len(s.data)) {
		clear(dest)

		return 0
	}

	n = copy(dest, s.data[offset:])
	clear(dest[n:])

	return n
}

// close implements the store interface for *memoryStore.
func (s *memoryStore) close() (err error) {
	return nil
}

// indexStore composes an eagerly-loaded trie prefix with a fileStore
// fallback: reads wholly within the prefix window are served from
// memory, reads beyond it fall through to the file. This accelerates the
// hot node-traversal path without buffering the (potentially much
// larger) leaf segment.
type indexStore struct {
	fallback *fileStore
	prefix   []byte
}

func newIndexStore(f *os.File, size int64, logger *slog.Logger) (s *indexStore, err error) {
	fallback := newFileStore(f, logger)

	// Probe the metadata header through the fallback path to learn the
	// trie prefix length before deciding how much to cache.
	info, err := readDatabaseInfo(fallback, size, "")
	if err != nil {
		return nil, err
	}

	prefixLen := info.Segment * info.RecordLength * 2
	if prefixLen > int(size) {
		prefixLen = int(size)
	}

	prefix := make([]byte, prefixLen)
	fallback.read(prefix, 0)

	return &indexStore{fallback: fallback, prefix: prefix}, nil
}

// read implements the store interface for *indexStore.
func (s *indexStore) read(dest []byte, offset int64) (n int) {
	if offset >= 0 && offset+int64(len(dest)) <= int64(len(s.prefix)) {
		return copy(dest, s.prefix[offset:])
	}

	return s.fallback.read(dest, offset)
}

// close implements the store interface for *indexStore.
func (s *indexStore) close() (err error) {
	return s.fallback.close()
}

// lockShared and unlock take and release an advisory exclusive lock on f
// for the duration of a full-file read, so that a concurrent writer
// truncating or replacing the file doesn't corrupt the in-memory copy.
// Grounded on the original's use of java.nio.channels.FileLock during
// MemoryReader construction; golang.org/x/sys/unix.Flock is the direct
// Go analogue, already a dependency of this corpus for syscall-level
// file/socket options.
func lockShared(f *os.File) (err error) {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlock(f *os.File) (err error) {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// noopLogger is used where a caller doesn't supply one, so that every
// component can assume logger is never nil.
func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// discardWriter is an io.Writer that discards everything written to it.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}
