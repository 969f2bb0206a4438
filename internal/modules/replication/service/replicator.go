package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"flux/internal/modules/replication/domain"
	replicationout "flux/internal/modules/replication/port/out"
	"flux/internal/platform/metrics"
)

// Replicator forwards records to a sink from a single background worker.
// Local writes never wait on it: Enqueue drops when the queue is full.
type Replicator struct {
	sink    replicationout.Sink
	policy  domain.Policy
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics

	// sendMu is held shared by senders and exclusively by Close, so the
	// queue is never written after it is closed.
	sendMu sync.RWMutex
	closed bool
	queue  chan domain.Record

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	statsMu sync.Mutex
	stats   domain.Stats
}

type Option func(*Replicator)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Replicator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Replicator) { r.metrics = m }
}

func NewReplicator(sink replicationout.Sink, policy domain.Policy, opts ...Option) *Replicator {
	policy = policy.Normalize()
	r := &Replicator{
		sink:   sink,
		policy: policy,
		logger: zap.NewNop(),
		queue:  make(chan domain.Record, policy.QueueSize),
		done:   make(chan struct{}),
	}
	if policy.PushesPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(policy.PushesPerSecond), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stats.Sink = sink.Name()
	return r
}

// Start launches the worker. Later calls are no-ops. Cancelling ctx stops
// the worker and drops whatever is still queued.
func (r *Replicator) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		r.cancel = cancel
		go r.run(runCtx)
	})
}

func (r *Replicator) Enqueue(record domain.Record) bool {
	r.sendMu.RLock()
	defer r.sendMu.RUnlock()
	if r.closed {
		r.drop(1, "queue closed")
		return false
	}
	select {
	case r.queue <- record:
		r.metrics.SetReplicationQueue(len(r.queue))
		return true
	default:
		r.drop(1, "queue full")
		return false
	}
}

// Submit blocks until the record is queued or ctx is done.
func (r *Replicator) Submit(ctx context.Context, record domain.Record) error {
	r.sendMu.RLock()
	defer r.sendMu.RUnlock()
	if r.closed {
		return domain.ErrQueueClosed
	}
	select {
	case r.queue <- record:
		r.metrics.SetReplicationQueue(len(r.queue))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Replicator) Stats() domain.Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	stats := r.stats
	stats.Queued = len(r.queue)
	return stats
}

// Close stops intake and waits for the worker to flush the queue. When ctx
// expires first the worker is cancelled and the remainder is dropped.
func (r *Replicator) Close(ctx context.Context) error {
	r.sendMu.Lock()
	if r.closed {
		r.sendMu.Unlock()
		<-r.done
		return nil
	}
	r.closed = true
	close(r.queue)
	r.sendMu.Unlock()

	r.Start(context.Background())

	var waitErr error
	select {
	case <-r.done:
	case <-ctx.Done():
		r.cancel()
		<-r.done
		waitErr = fmt.Errorf("flush replication queue: %w", ctx.Err())
	}
	r.cancel()
	if err := r.sink.Close(); err != nil {
		waitErr = errors.Join(waitErr, fmt.Errorf("close %s sink: %w", r.sink.Name(), err))
	}
	return waitErr
}

func (r *Replicator) run(ctx context.Context) {
	defer close(r.done)
	for {
		var first domain.Record
		select {
		case <-ctx.Done():
			r.discardQueued()
			return
		case record, ok := <-r.queue:
			if !ok {
				return
			}
			first = record
		}
		batch, open := r.fill(first)
		r.metrics.SetReplicationQueue(len(r.queue))
		r.push(ctx, batch)
		if !open {
			return
		}
	}
}

// fill tops up a batch without waiting. open is false once the queue has
// been closed and emptied.
func (r *Replicator) fill(first domain.Record) ([]domain.Record, bool) {
	batch := make([]domain.Record, 0, r.policy.BatchSize)
	batch = append(batch, first)
	for len(batch) < r.policy.BatchSize {
		select {
		case record, ok := <-r.queue:
			if !ok {
				return batch, false
			}
			batch = append(batch, record)
		default:
			return batch, true
		}
	}
	return batch, true
}

func (r *Replicator) push(ctx context.Context, batch []domain.Record) {
	for attempt := 1; ; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				r.drop(len(batch), "worker stopped")
				return
			}
		}
		err := r.sink.Push(ctx, batch)
		if err == nil {
			r.metrics.ReplicationPush("ok")
			r.statsMu.Lock()
			r.stats.Pushed += len(batch)
			r.statsMu.Unlock()
			return
		}
		r.metrics.ReplicationPush("error")
		r.statsMu.Lock()
		r.stats.Failures++
		r.statsMu.Unlock()
		if attempt >= r.policy.MaxAttempts {
			r.logger.Error("replication batch abandoned",
				zap.String("sink", r.sink.Name()),
				zap.Int("records", len(batch)),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			r.drop(len(batch), "")
			return
		}
		wait := r.policy.Backoff(attempt)
		r.logger.Warn("replication push failed",
			zap.String("sink", r.sink.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			r.drop(len(batch), "worker stopped")
			return
		}
	}
}

func (r *Replicator) discardQueued() {
	n := 0
	for {
		select {
		case _, ok := <-r.queue:
			if !ok {
				r.drop(n, "worker stopped")
				return
			}
			n++
		default:
			r.drop(n, "worker stopped")
			return
		}
	}
}

func (r *Replicator) drop(n int, reason string) {
	if n <= 0 {
		return
	}
	r.metrics.ReplicationDrop(n)
	r.statsMu.Lock()
	r.stats.Dropped += n
	r.statsMu.Unlock()
	if reason != "" {
		r.logger.Warn("replication records dropped", zap.Int("records", n), zap.String("reason", reason))
	}
}
