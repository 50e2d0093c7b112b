package persistence

import (
	"context"
	"errors"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
)

// ErrWriterClosed is returned for saves requested after Close.
var ErrWriterClosed = errors.New("snapshot writer closed")

// pendingWrite is the single coalescing slot: the newest snapshot plus
// every caller waiting on the write that will cover it.
type pendingWrite struct {
	snap    *Snapshot
	waiters []chan error
}

// Writer serializes snapshot writes onto one goroutine. Saves requested
// while a write is in flight are coalesced: only the newest snapshot hits
// the store, and every queued caller receives that write's result. Writes
// are retried with exponential backoff behind a circuit breaker.
type Writer struct {
	store  Store
	logger *log.Logger

	retry   RetryConfig
	breaker *gobreaker.CircuitBreaker

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending *pendingWrite
	closing bool

	wake chan struct{}
	done chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewWriter starts the writer goroutine. Cancelling ctx aborts in-flight
// retries; Close still flushes whatever is queued first.
func NewWriter(ctx context.Context, store Store, logger *log.Logger, retry RetryConfig) *Writer {
	wctx, cancel := context.WithCancel(ctx)
	w := &Writer{
		store:   store,
		logger:  logger,
		retry:   retry,
		breaker: newStoreBreaker(logger),
		ctx:     wctx,
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Save queues snap for writing and returns a channel reporting the outcome
// of the write that covers it. The channel is buffered; callers may drop it
// without reading. Never blocks.
func (w *Writer) Save(snap *Snapshot) <-chan error {
	ch := make(chan error, 1)

	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		ch <- ErrWriterClosed
		return ch
	}
	if w.pending == nil {
		w.pending = &pendingWrite{snap: snap}
	} else {
		// Latest snapshot wins; earlier waiters ride along.
		w.pending.snap = snap
	}
	w.pending.waiters = append(w.pending.waiters, ch)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	return ch
}

// Close flushes the queued snapshot, stops the writer goroutine, and
// closes the underlying store. Idempotent.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closing = true
		w.mu.Unlock()

		select {
		case w.wake <- struct{}{}:
		default:
		}
		<-w.done

		w.cancel()
		w.closeErr = w.store.Close()
	})
	return w.closeErr
}

func (w *Writer) loop() {
	defer close(w.done)

	for {
		select {
		case <-w.wake:
		case <-w.ctx.Done():
			// Lifecycle cancellation also stops accepting saves.
			w.mu.Lock()
			w.closing = true
			w.mu.Unlock()
		}

		for {
			w.mu.Lock()
			p := w.pending
			w.pending = nil
			closing := w.closing
			w.mu.Unlock()

			if p == nil {
				if closing {
					return
				}
				break
			}

			err := w.write(p.snap)
			for _, ch := range p.waiters {
				ch <- err
			}
		}
	}
}

// write pushes one snapshot to the store with retry and breaker protection.
func (w *Writer) write(snap *Snapshot) error {
	operation := func() error {
		if w.ctx.Err() != nil {
			return backoff.Permanent(w.ctx.Err())
		}

		_, err := w.breaker.Execute(func() (interface{}, error) {
			return nil, w.store.Save(w.ctx, snap)
		})
		if err != nil {
			// Open breaker: fail fast, the next save will probe again.
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			if w.ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.retry.InitialInterval
	policy.MaxInterval = w.retry.MaxInterval
	policy.MaxElapsedTime = w.retry.MaxElapsedTime
	policy.Multiplier = w.retry.Multiplier
	policy.RandomizationFactor = w.retry.RandomizationFactor

	err := backoff.Retry(operation, backoff.WithContext(policy, w.ctx))
	if err != nil {
		w.logger.Error("snapshot write failed", "todos", len(snap.Todos), "err", err)
	}
	return err
}
