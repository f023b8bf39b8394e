// Package webhook forwards urgent prediction records to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/crimson-sun/vettriage/internal/model"
	"github.com/crimson-sun/vettriage/internal/output"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
	defaultTimeout       = 10 * time.Second
	defaultBackoff       = time.Second
	defaultRetries       = 3
	maxErrorBody         = 512
)

// StatusError is a non-2xx response from the endpoint.
type StatusError struct {
	Code       int
	Body       string // at most 512 bytes
	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook: HTTP %d", e.Code)
	}
	return fmt.Sprintf("webhook: HTTP %d: %s", e.Code, e.Body)
}

// Temporary reports whether the request may succeed if retried: 429 and 5xx.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders adds headers to every request, e.g. an Authorization token.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithBatchSize sets how many accepted records are posted together. Default: 50.
func WithBatchSize(n int) Option {
	return func(o *Output) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithFlushInterval bounds how long an incomplete batch waits. Default: 5s.
func WithFlushInterval(d time.Duration) Option {
	return func(o *Output) { o.interval = d }
}

// WithTimeout sets the per-request HTTP timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.Timeout = d }
}

// WithBackoff sets the base retry delay; retry n waits base * 2^(n-1) unless
// the endpoint sent Retry-After. Default: 1s.
func WithBackoff(d time.Duration) Option {
	return func(o *Output) { o.backoff = d }
}

// WithRetries sets how many times a temporary failure is retried. Default: 3.
func WithRetries(n int) Option {
	return func(o *Output) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithMinUrgency forwards only records whose top prediction is at least u
// urgent. Failed predictions are never forwarded once a threshold is set.
func WithMinUrgency(u model.Urgency) Option {
	return func(o *Output) { o.threshold = u.Rank() }
}

// WithVerbosity controls which fields are posted. Default: output.Standard.
func WithVerbosity(v output.Verbosity) Option {
	return func(o *Output) { o.verbosity = v }
}

// WithOnError sets the callback for failures of interval-triggered flushes,
// which have no caller to return to. Default: slog warning.
func WithOnError(f func(error)) Option {
	return func(o *Output) { o.onError = f }
}

// Output posts accepted records as a JSON array. A batch is sent when it
// reaches the batch size, when the flush interval elapses after its first
// record, or on Close. Batches are posted one at a time, in order.
type Output struct {
	endpoint  string
	client    *http.Client
	headers   map[string]string
	batchSize int
	interval  time.Duration
	backoff   time.Duration
	retries   int
	threshold int
	verbosity output.Verbosity
	onError   func(error)

	mu    sync.Mutex
	batch []model.PredictionRecord
	timer *time.Timer
}

// New creates a webhook output posting to endpoint.
func New(endpoint string, opts ...Option) *Output {
	o := &Output{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: defaultTimeout},
		batchSize: defaultBatchSize,
		interval:  defaultFlushInterval,
		backoff:   defaultBackoff,
		retries:   defaultRetries,
		verbosity: output.Standard,
		onError:   func(err error) { slog.Warn("webhook flush failed", "error", err) },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Accepts reports whether rec passes the urgency threshold.
func (o *Output) Accepts(rec model.PredictionRecord) bool {
	if o.threshold == 0 {
		return true
	}
	top, ok := rec.Result.Top()
	return ok && top.Urgency.Rank() >= o.threshold
}

// Write queues rec if it passes the threshold. Completing a batch posts it
// before Write returns, bounded by ctx.
func (o *Output) Write(ctx context.Context, rec model.PredictionRecord) error {
	if !o.Accepts(rec) {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.batch = append(o.batch, output.FormatRecord(rec, o.verbosity))
	switch {
	case len(o.batch) >= o.batchSize:
		return o.flushLocked(ctx)
	case len(o.batch) == 1 && o.interval > 0:
		o.timer = time.AfterFunc(o.interval, o.flushOnTimer)
	}
	return nil
}

func (o *Output) flushOnTimer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.flushLocked(context.Background()); err != nil {
		o.onError(err)
	}
}

// Close posts whatever is queued.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.flushLocked(context.Background())
}

// flushLocked posts and clears the queued batch. Caller holds o.mu.
func (o *Output) flushLocked(ctx context.Context) error {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if len(o.batch) == 0 {
		return nil
	}
	body, err := json.Marshal(o.batch)
	o.batch = nil
	if err != nil {
		return fmt.Errorf("webhook: encode batch: %w", err)
	}
	return o.post(ctx, body)
}

// post sends body, retrying temporary failures with exponential backoff.
func (o *Output) post(ctx context.Context, body []byte) error {
	var err error
	for attempt := 0; attempt <= o.retries; attempt++ {
		if attempt > 0 {
			if werr := o.wait(ctx, attempt, err); werr != nil {
				return werr
			}
		}
		err = o.send(ctx, body)
		var se *StatusError
		if err == nil || !errors.As(err, &se) || !se.Temporary() {
			return err
		}
	}
	return err
}

func (o *Output) wait(ctx context.Context, attempt int, last error) error {
	d := o.backoff << (attempt - 1)
	var se *StatusError
	if errors.As(last, &se) && se.retryAfter > 0 {
		d = se.retryAfter
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (o *Output) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		se.retryAfter = time.Duration(secs) * time.Second
	}
	return se
}
