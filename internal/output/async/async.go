package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/vettriage/internal/model"
	"github.com/crimson-sun/vettriage/internal/output"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async output: closed")

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write return immediately (dropping the record) when the
// buffer is full, instead of blocking. Suits lossy sinks such as alert webhooks.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// WithDrainTimeout bounds how long Close waits for buffered records. Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// Async decouples the prediction path from slow sinks (history database,
// webhooks) via a buffered channel drained by one background goroutine.
// Errors from the inner output go to errFunc, never to the caller.
type Async struct {
	inner        output.Output
	ch           chan model.PredictionRecord
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	dropOnFull   bool
	drainTimeout time.Duration

	mu        sync.RWMutex // guards closed against concurrent sends
	closed    bool
	closeOnce sync.Once
	dropped   atomic.Int64
}

// New wraps inner and starts the drain goroutine.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		errFunc:      func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.PredictionRecord, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write enqueues rec. By default it blocks while the buffer is full; with
// WithDropOnFull the record is discarded instead.
func (a *Async) Write(ctx context.Context, rec model.PredictionRecord) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	if a.dropOnFull {
		select {
		case a.ch <- rec:
		default:
			a.dropped.Add(1)
			slog.Warn("async output buffer full, dropping record", "id", rec.ID)
		}
		return nil
	}
	select {
	case a.ch <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped reports how many records were discarded because the buffer was full.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Close stops accepting records, waits for the drain goroutine (bounded by
// the drain timeout) and closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()

		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			slog.Warn("async output drain timed out", "pending", len(a.ch))
		}
		err = a.inner.Close()
	})
	return err
}

func (a *Async) drain() {
	defer close(a.done)
	for rec := range a.ch {
		if err := a.inner.Write(context.Background(), rec); err != nil {
			a.errFunc(err)
		}
	}
}
