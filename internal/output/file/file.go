package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/crimson-sun/vettriage/internal/model"
	"github.com/crimson-sun/vettriage/internal/output"
)

const (
	defaultBufSize    = 64 * 1024 // 64KB
	defaultMaxBackups = 10
)

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize sets the file size (bytes) at which rotation triggers.
// 0 (default) disables rotation.
func WithMaxSize(bytes int64) Option {
	return func(o *Output) { o.maxSize = bytes }
}

// WithBufSize sets the bufio.Writer buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// WithMaxBackups caps the number of rotated files kept ({path}.1 .. {path}.n).
// Default: 10.
func WithMaxBackups(n int) Option {
	return func(o *Output) {
		if n > 0 {
			o.maxBackups = n
		}
	}
}

// Output appends prediction records as NDJSON to a file with buffered I/O
// and optional size-based rotation.
type Output struct {
	path       string
	verbosity  output.Verbosity
	maxSize    int64 // 0 = no rotation
	maxBackups int
	bufSize    int

	mu   sync.Mutex
	f    *os.File
	buf  *bufio.Writer
	size int64 // bytes in the current file, buffered included
}

// New creates a file output that writes NDJSON to the given path. Missing
// parent directories are created.
func New(path string, verbosity output.Verbosity, opts ...Option) (*Output, error) {
	o := &Output{
		path:       path,
		verbosity:  verbosity,
		bufSize:    defaultBufSize,
		maxBackups: defaultMaxBackups,
	}
	for _, opt := range opts {
		opt(o)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("file output: mkdir %s: %w", dir, err)
		}
	}
	if err := o.openFile(); err != nil {
		return nil, err
	}
	return o, nil
}

// Write appends rec as one JSON line, rotating first when the line would push
// the file past the size limit. A single oversized line still goes into an
// empty file.
func (o *Output) Write(_ context.Context, rec model.PredictionRecord) error {
	data, err := json.Marshal(output.FormatRecord(rec, o.verbosity))
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}
	data = append(data, '\n')

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.maxSize > 0 && o.size > 0 && o.size+int64(len(data)) > o.maxSize {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}

	n, err := o.buf.Write(data)
	o.size += int64(n)
	if err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

// Flush pushes buffered records to the file without closing it.
func (o *Output) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.buf.Flush(); err != nil {
		return fmt.Errorf("file output: flush: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.buf.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}

func (o *Output) openFile() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file output: stat %s: %w", o.path, err)
	}
	o.f = f
	o.buf = bufio.NewWriterSize(f, o.bufSize)
	o.size = info.Size()
	return nil
}

// rotate closes the current file, shifts {path}.i to {path}.i+1 (dropping the
// oldest), renames the current file to {path}.1 and reopens.
func (o *Output) rotate() error {
	if err := o.buf.Flush(); err != nil {
		return err
	}
	if err := o.f.Close(); err != nil {
		return err
	}

	os.Remove(o.backup(o.maxBackups))
	for i := o.maxBackups - 1; i >= 1; i-- {
		// Missing backups are expected early on.
		os.Rename(o.backup(i), o.backup(i+1))
	}
	if err := os.Rename(o.path, o.backup(1)); err != nil {
		return err
	}

	o.size = 0
	return o.openFile()
}

// backup returns the name of the i-th rotated file.
func (o *Output) backup(i int) string {
	return o.path + "." + strconv.Itoa(i)
}
