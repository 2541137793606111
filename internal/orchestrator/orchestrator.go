// Package orchestrator implements the server lifecycle: bringing up the
// configured receivers, running the cooperative poll loop that drains
// them into the write queue, and reporting aggregate counters, grounded
// in the teacher's app.App lifecycle (atomic running flag, ordered
// startup/teardown, parallel shutdown of independent resources).
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"logcore/internal/queue"
	"logcore/internal/types"

	"github.com/sirupsen/logrus"
)

// pollInterval is the sleep between poll loop iterations, to avoid a busy
// spin while still giving datagram receivers low latency (spec.md §4.7).
const pollInterval = time.Millisecond

// reportInterval is how often the main loop logs aggregate counters.
const reportInterval = 10 * time.Second

// Counters holds the atomic aggregate counts spec.md §4.7 names. queued is
// not stored here: it is read live from the queue on each report.
type Counters struct {
	Received   atomic.Int64
	Written    atomic.Int64
	Errors     atomic.Int64
	BatchCount atomic.Int64
}

// namedReceiver pairs a receiver with whether its Start failure aborts
// startup (required) or only disables that receiver.
type namedReceiver struct {
	receiver types.Receiver
	required bool
}

// Server owns one Storage (via the queue), the enabled receivers, and the
// poll loop that ties them together. Lifecycle state is {Stopped,
// Running} guarded by an atomic boolean, per spec.md §4.7.
type Server struct {
	queue *queue.WriteQueue

	mu       sync.Mutex
	order    []namedReceiver
	active   []types.Receiver
	running  atomic.Bool
	stopCh   chan struct{}
	loopDone chan struct{}

	counters Counters
}

// New builds a Server over the given write queue. Receivers are attached
// with Attach in startup order (syslog, HTTP, SNMP per spec.md §4.7)
// before Start is called.
func New(q *queue.WriteQueue) *Server {
	return &Server{queue: q}
}

// Attach registers a receiver to be started, in the order Attach is
// called. required controls whether a Start failure aborts the whole
// server (syslog, HTTP) or is logged and skipped (SNMP, per spec.md §4.7:
// "SNMP failure is non-fatal").
func (s *Server) Attach(r types.Receiver, required bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, namedReceiver{receiver: r, required: required})
}

// Start brings up every attached receiver in order. A required receiver's
// Start failure aborts startup and tears down whatever already started; a
// non-required receiver's failure is logged and that receiver is simply
// left out of the active set (spec.md §4.7's "disables that receiver").
func (s *Server) Start() error {
	s.mu.Lock()
	order := append([]namedReceiver(nil), s.order...)
	s.mu.Unlock()

	var active []types.Receiver
	for _, nr := range order {
		if err := nr.receiver.Start(); err != nil {
			if nr.required {
				for i := len(active) - 1; i >= 0; i-- {
					_ = active[i].Stop()
				}
				return err
			}
			logrus.WithField("receiver", nr.receiver.Name()).WithError(err).
				Warn("receiver failed to start, disabling")
			continue
		}
		active = append(active, nr.receiver)
	}

	s.mu.Lock()
	s.active = active
	s.mu.Unlock()

	s.running.Store(true)
	s.stopCh = make(chan struct{})
	s.loopDone = make(chan struct{})
	go s.loop()

	return nil
}

// loop is the single cooperative poll loop: one non-blocking round per
// receiver, then tryFlush the queue, then sleep pollInterval. A separate
// ticker reports counters every reportInterval.
func (s *Server) loop() {
	defer close(s.loopDone)

	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.report()
		default:
		}

		s.pollOnce()

		select {
		case <-s.stopCh:
			return
		case <-time.After(pollInterval):
		}
	}
}

func (s *Server) pollOnce() {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	for _, r := range active {
		before := s.queue.Len()
		if err := r.PollOnce(); err != nil {
			s.counters.Errors.Add(1)
			logrus.WithField("receiver", r.Name()).WithError(err).Debug("poll error")
			continue
		}
		if s.queue.Len() > before {
			s.counters.Received.Add(int64(s.queue.Len() - before))
		}
	}

	written, err := s.queue.TryFlush()
	if err != nil {
		s.counters.Errors.Add(1)
		logrus.WithError(err).Warn("queue flush failed")
		return
	}
	if written > 0 {
		s.counters.Written.Add(int64(written))
		s.counters.BatchCount.Add(1)
	}
}

func (s *Server) report() {
	logrus.WithFields(logrus.Fields{
		"received":    s.counters.Received.Load(),
		"written":     s.counters.Written.Load(),
		"errors":      s.counters.Errors.Load(),
		"batch_count": s.counters.BatchCount.Load(),
		"queued":      s.queue.Len(),
	}).Info("orchestrator status")
}

// Snapshot returns the current aggregate counts.
func (s *Server) Snapshot() (received, written, errs, batches int64) {
	return s.counters.Received.Load(), s.counters.Written.Load(), s.counters.Errors.Load(), s.counters.BatchCount.Load()
}

// Running reports whether the server is currently in the Running state.
func (s *Server) Running() bool { return s.running.Load() }

// Stop flips the running flag, stops the poll loop, tears receivers down
// in reverse start order, and drains the queue via ForceFlush (the
// queue's "destructor" per spec.md §4.7). ctx bounds how long Stop waits
// for the poll loop to notice the stop signal; receiver teardown and the
// final flush are not themselves bounded by ctx since neither is expected
// to block.
func (s *Server) Stop(ctx context.Context) {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stopCh)

	select {
	case <-s.loopDone:
	case <-ctx.Done():
		logrus.Warn("orchestrator: poll loop did not stop before shutdown deadline")
	}

	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	for i := len(active) - 1; i >= 0; i-- {
		r := active[i]
		if err := r.Stop(); err != nil {
			logrus.WithField("receiver", r.Name()).WithError(err).Warn("error stopping receiver")
		}
	}

	s.queue.Close()
	s.report()
}
