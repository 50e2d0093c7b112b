package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aristath/tasktracker/internal/task"
)

// fakeStore records saves and can be gated or made to fail.
type fakeStore struct {
	mu      sync.Mutex
	saves   []*Snapshot
	failAll bool
	closes  int

	// When gate is set, Save signals entered and then blocks until the
	// gate closes. Used to hold a write in flight.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeStore) Load(ctx context.Context) (*Snapshot, error) {
	return &Snapshot{Todos: []*task.Task{}, NextID: 1}, nil
}

func (f *fakeStore) Save(ctx context.Context, snap *Snapshot) error {
	if f.gate != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return fmt.Errorf("disk full")
	}
	f.saves = append(f.saves, snap)
	return nil
}

func (f *fakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeStore) save(i int) *Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[i]
}

// testRetry keeps failing writes fast enough for tests.
func testRetry() RetryConfig {
	return RetryConfig{
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		MaxElapsedTime:      50 * time.Millisecond,
		Multiplier:          2.0,
		RandomizationFactor: 0,
	}
}

func snapN(n int64) *Snapshot {
	return &Snapshot{Todos: []*task.Task{}, NextID: n}
}

func awaitSave(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for save result")
		return nil
	}
}

func TestWriterSave(t *testing.T) {
	fs := &fakeStore{}
	w := NewWriter(context.Background(), fs, log.New(io.Discard), testRetry())
	defer w.Close()

	if err := awaitSave(t, w.Save(snapN(2))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if fs.saveCount() != 1 {
		t.Fatalf("store saw %d saves, want 1", fs.saveCount())
	}
	if fs.save(0).NextID != 2 {
		t.Errorf("saved NextID = %d, want 2", fs.save(0).NextID)
	}
}

// TestWriterCoalesces verifies saves queued behind an in-flight write
// collapse into a single write of the newest snapshot.
func TestWriterCoalesces(t *testing.T) {
	fs := &fakeStore{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	w := NewWriter(context.Background(), fs, log.New(io.Discard), testRetry())
	defer w.Close()

	ch1 := w.Save(snapN(1))

	// First write is now held inside the store.
	<-fs.entered

	ch2 := w.Save(snapN(2))
	ch3 := w.Save(snapN(3))
	close(fs.gate)

	for i, ch := range []<-chan error{ch1, ch2, ch3} {
		if err := awaitSave(t, ch); err != nil {
			t.Fatalf("save %d error = %v", i+1, err)
		}
	}

	if got := fs.saveCount(); got != 2 {
		t.Fatalf("store saw %d writes, want 2", got)
	}
	if fs.save(0).NextID != 1 {
		t.Errorf("first write NextID = %d, want 1", fs.save(0).NextID)
	}
	// The coalesced write carries the newest snapshot only.
	if fs.save(1).NextID != 3 {
		t.Errorf("second write NextID = %d, want 3", fs.save(1).NextID)
	}
}

// TestWriterFailureFansOut verifies every coalesced caller receives the
// failed write's error.
func TestWriterFailureFansOut(t *testing.T) {
	fs := &fakeStore{failAll: true, gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	w := NewWriter(context.Background(), fs, log.New(io.Discard), testRetry())
	defer w.Close()

	ch1 := w.Save(snapN(1))
	<-fs.entered
	ch2 := w.Save(snapN(2))
	ch3 := w.Save(snapN(3))
	close(fs.gate)

	if err := awaitSave(t, ch1); err == nil {
		t.Fatal("expected first save to fail")
	}
	err2 := awaitSave(t, ch2)
	err3 := awaitSave(t, ch3)
	if err2 == nil || err3 == nil {
		t.Fatal("expected coalesced saves to fail")
	}
	// Both waiters ride the same write and see the same error.
	if err2 != err3 {
		t.Errorf("coalesced savers saw different errors: %v vs %v", err2, err3)
	}
}

func TestWriterSaveAfterClose(t *testing.T) {
	fs := &fakeStore{}
	w := NewWriter(context.Background(), fs, log.New(io.Discard), testRetry())
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := awaitSave(t, w.Save(snapN(1))); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("Save() after close error = %v, want %v", err, ErrWriterClosed)
	}
}

// TestWriterCloseFlushes verifies Close writes the queued snapshot before
// shutting the store.
func TestWriterCloseFlushes(t *testing.T) {
	fs := &fakeStore{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	w := NewWriter(context.Background(), fs, log.New(io.Discard), testRetry())

	ch1 := w.Save(snapN(1))
	<-fs.entered
	ch2 := w.Save(snapN(2))

	closed := make(chan error, 1)
	go func() {
		closed <- w.Close()
	}()

	close(fs.gate)

	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for Close")
	}

	if err := awaitSave(t, ch1); err != nil {
		t.Errorf("first save error = %v", err)
	}
	if err := awaitSave(t, ch2); err != nil {
		t.Errorf("queued save error = %v", err)
	}
	if got := fs.saveCount(); got != 2 {
		t.Errorf("store saw %d writes, want 2", got)
	}
	if fs.closes != 1 {
		t.Errorf("store closed %d times, want 1", fs.closes)
	}
}

func TestWriterCloseIdempotent(t *testing.T) {
	fs := &fakeStore{}
	w := NewWriter(context.Background(), fs, log.New(io.Discard), testRetry())

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if fs.closes != 1 {
		t.Errorf("store closed %d times, want 1", fs.closes)
	}
}

// TestWriterContextCancel verifies lifecycle cancellation stops the writer
// and later saves are refused.
func TestWriterContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fs := &fakeStore{}
	w := NewWriter(ctx, fs, log.New(io.Discard), testRetry())
	defer w.Close()

	cancel()

	// The loop observes cancellation asynchronously; poll briefly.
	deadline := time.After(2 * time.Second)
	for {
		err := awaitSave(t, w.Save(snapN(1)))
		if errors.Is(err, ErrWriterClosed) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("writer still accepting saves after cancel, last err = %v", err)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
