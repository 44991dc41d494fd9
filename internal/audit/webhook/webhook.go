package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/copperline/triage/internal/audit"
)

const (
	defaultBatchSize     = 20
	defaultFlushInterval = 5 * time.Second
	defaultTimeout       = 10 * time.Second
	maxRetries           = 3
)

// Option configures a webhook Sink.
type Option func(*Sink)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(s *Sink) { s.headers = h }
}

// WithBatchSize sets the number of records accumulated before a flush.
// Default: 20.
func WithBatchSize(n int) Option {
	return func(s *Sink) { s.batchSize = n }
}

// WithFlushInterval sets the maximum time between flushes. Default: 5s.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Sink) { s.flushInterval = d }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(s *Sink) { s.client.Timeout = d }
}

// WithOnError sets a callback invoked when a timer-triggered flush fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(s *Sink) { s.errFunc = f }
}

// Sink POSTs batched audit records to an HTTP endpoint as a JSON array.
// Records accumulate in an internal buffer and flush when batchSize is
// reached or flushInterval elapses. Retries on 5xx with exponential backoff.
type Sink struct {
	client        *http.Client
	url           string
	headers       map[string]string
	batchSize     int
	flushInterval time.Duration
	errFunc       func(error)
	mu            sync.Mutex
	pending       []audit.Record
	timer         *time.Timer
}

// New creates a webhook sink targeting the given URL.
func New(url string, opts ...Option) *Sink {
	s := &Sink{
		client:        &http.Client{Timeout: defaultTimeout},
		url:           url,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		errFunc:       func(err error) { slog.Warn("audit webhook flush error", "error", err) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write appends a record to the batch. When batchSize is reached, the batch
// is flushed immediately. A timer started on the first record ensures the
// batch flushes even if batchSize is never reached.
func (s *Sink) Write(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, rec)

	if len(s.pending) >= s.batchSize {
		return s.flushLocked()
	}

	if len(s.pending) == 1 {
		s.timer = time.AfterFunc(s.flushInterval, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if err := s.flushLocked(); err != nil {
				s.errFunc(err)
			}
		})
	}
	return nil
}

// Close flushes any remaining records and stops the timer.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(s.pending) > 0 {
		return s.flushLocked()
	}
	return nil
}

// flushLocked sends the pending batch via HTTP POST. Caller must hold s.mu.
func (s *Sink) flushLocked() error {
	if len(s.pending) == 0 {
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	batch := s.pending
	s.pending = nil

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("audit webhook: marshal: %w", err)
	}
	return s.postWithRetry(body)
}

// postWithRetry sends the body via HTTP POST, retrying 5xx only.
func (s *Sink) postWithRetry(body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("audit webhook: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range s.headers {
			req.Header.Set(k, v)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("audit webhook: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("audit webhook: HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return lastErr
		}
	}
	return lastErr
}
