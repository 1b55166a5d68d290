package goSession

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// auditDispatcher moves events from request goroutines to a single sink worker.
type auditDispatcher struct {
	sink       AuditSink
	logger     *zap.Logger
	dropIfFull bool

	queue    chan AuditEvent
	stop     chan struct{}
	stopOnce sync.Once

	// mu guards closing queue: senders hold it shared, Close takes it exclusively.
	mu     sync.RWMutex
	closed bool
	worker sync.WaitGroup

	dropped atomic.Uint64
	failed  atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *zap.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &auditDispatcher{
		sink:       sink,
		logger:     logger,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
	}
	d.worker.Add(1)
	go d.run()
	return d
}

// run delivers until the queue is closed and empty.
func (d *auditDispatcher) run() {
	defer d.worker.Done()
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *auditDispatcher) deliver(event AuditEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.logger.Error("audit sink panicked",
				zap.String("event_type", event.EventType),
				zap.Any("panic", r),
			)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit queues event. With dropIfFull a full queue drops the event and counts it. Otherwise
// Emit waits for room until ctx is done or the dispatcher starts closing.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	select {
	case d.queue <- event:
	case <-done:
	case <-d.stop:
	}
}

// Close wakes blocked senders, refuses new events and waits until every queued event has
// reached the sink.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	// stop must close before taking mu: blocked senders hold the read lock.
	d.stopOnce.Do(func() { close(d.stop) })

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.worker.Wait()
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Failed returns how many events panicked inside the sink.
func (d *auditDispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
