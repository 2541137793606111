// Package queue implements the in-process, mutex-guarded write-behind
// buffer that coalesces LogEntry records into transactional batch
// inserts, grounded in the teacher's RequestLogService flush loop but
// generalized from Redis-staged JSON blobs down to spec.md §4.6's simpler
// in-memory model (this core's queue is explicitly instance-scoped, not a
// second persistence tier).
package queue

import (
	"sync"
	"time"

	"logcore/internal/storage"
	"logcore/internal/types"

	"github.com/sirupsen/logrus"
)

// DefaultBatchSize and DefaultFlushInterval mirror spec.md §4.6's defaults.
const (
	DefaultBatchSize     = 100
	DefaultFlushInterval = time.Second
)

// Storer is the subset of storage.Store the queue needs, so tests can
// substitute a fake without a real database.
type Storer interface {
	InsertBatch(entries []*types.LogEntry) (int, error)
}

var _ Storer = (*storage.Store)(nil)

// WriteQueue is a mutex-guarded growable buffer plus a size/time flush
// policy (spec.md §4.6). It holds no capacity cap; backpressure is the
// caller's responsibility if storage falls behind.
type WriteQueue struct {
	mu            sync.Mutex
	store         Storer
	batchSize     int
	flushInterval time.Duration
	buf           []*types.LogEntry
	lastFlush     time.Time
	now           func() time.Time
}

// New builds a WriteQueue bound to store, with the given batch size and
// flush interval.
func New(store Storer, batchSize int, flushInterval time.Duration) *WriteQueue {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	return &WriteQueue{
		store:         store,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		now:           time.Now,
		lastFlush:     time.Now(),
	}
}

// Len returns the number of entries currently staged.
func (q *WriteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Enqueue appends one entry and flushes immediately, while still holding
// the lock, if the buffer has reached batch_size.
func (q *WriteQueue) Enqueue(e *types.LogEntry) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.buf = append(q.buf, e)
	if len(q.buf) >= q.batchSize {
		return q.flushLocked()
	}
	return 0, nil
}

// EnqueueBatch appends many entries in one lock acquisition, then applies
// the same size-triggered flush check.
func (q *WriteQueue) EnqueueBatch(es []*types.LogEntry) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.buf = append(q.buf, es...)
	if len(q.buf) >= q.batchSize {
		return q.flushLocked()
	}
	return 0, nil
}

// ShouldFlush reports whether the buffer is non-empty and either the flush
// interval has elapsed or the buffer has reached batch_size.
func (q *WriteQueue) ShouldFlush() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shouldFlushLocked()
}

func (q *WriteQueue) shouldFlushLocked() bool {
	if len(q.buf) == 0 {
		return false
	}
	return q.now().Sub(q.lastFlush) >= q.flushInterval || len(q.buf) >= q.batchSize
}

// TryFlush flushes only if ShouldFlush reports true; otherwise it is a
// no-op, returning (0, nil).
func (q *WriteQueue) TryFlush() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.shouldFlushLocked() {
		return 0, nil
	}
	return q.flushLocked()
}

// ForceFlush flushes unconditionally, including an empty buffer (a no-op
// write in that case, per spec.md §8's forceFlush idempotence property).
func (q *WriteQueue) ForceFlush() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.flushLocked()
}

// flushLocked hands the staged entries to storage, clears the buffer
// (retaining its capacity), and resets last_flush. Caller must hold mu.
func (q *WriteQueue) flushLocked() (int, error) {
	if len(q.buf) == 0 {
		q.lastFlush = q.now()
		return 0, nil
	}

	batch := q.buf
	written, err := q.store.InsertBatch(batch)
	q.buf = q.buf[:0]
	q.lastFlush = q.now()
	if err != nil {
		return written, err
	}
	return written, nil
}

// Close performs a best-effort final flush, suppressing any error, the
// way spec.md §4.6 describes the queue's destructor behavior.
func (q *WriteQueue) Close() {
	if _, err := q.ForceFlush(); err != nil {
		logrus.WithError(err).Warn("queue: final flush on close failed")
	}
}
