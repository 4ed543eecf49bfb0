package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursehub/marketplace/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	maxAttempts    = 3
	retryBackoff   = 200 * time.Millisecond
)

// ErrStopped is returned by Stop when called twice.
var ErrStopped = errors.New("dispatcher already stopped")

// Granter applies one enrollment grant.
type Granter interface {
	Grant(ctx context.Context, grant ports.EnrollmentGrant) error
}

// Recorder observes the dispatcher. Outcome is "granted", "retry" or "dropped".
type Recorder interface {
	GrantProcessed(outcome string)
	QueueDepth(depth int)
}

type nopRecorder struct{}

func (nopRecorder) GrantProcessed(string) {}
func (nopRecorder) QueueDepth(int)        {}

// Dispatcher hands enrollment grants to a fixed set of workers, sharded by
// user id so grants for one user are applied in order.
type Dispatcher struct {
	workers []chan ports.EnrollmentGrant
	granter Granter
	rec     Recorder
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. rec may be nil.
func NewDispatcher(numWorkers int, granter Granter, rec Recorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	d := &Dispatcher{
		workers: make([]chan ports.EnrollmentGrant, numWorkers),
		granter: granter,
		rec:     rec,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.EnrollmentGrant, channelBuffer)
	}
	return d
}

// Start launches the workers. ctx is passed to every Grant call; cancelling it
// abandons whatever is still queued.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue queues a grant on the worker owning its user without blocking.
// Grants that find that worker's buffer full, or arrive after Stop, are
// dropped and logged with their payment id.
func (d *Dispatcher) Enqueue(grant ports.EnrollmentGrant) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.drop(grant, "dispatcher stopped, grant dropped")
		return
	}
	select {
	case d.workers[d.shardIndex(grant.UserID)] <- grant:
		d.rec.QueueDepth(d.depth())
	default:
		d.drop(grant, "worker queue full, grant dropped")
	}
}

func (d *Dispatcher) drop(grant ports.EnrollmentGrant, msg string) {
	d.log.Warn().
		Str("user_id", grant.UserID).
		Str("course_id", grant.CourseID).
		Str("payment_id", grant.PaymentID).
		Msg(msg)
	d.rec.GrantProcessed("dropped")
}

// Stop closes the queues and waits for the workers to drain them, or for ctx
// to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrStopped
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) depth() int {
	n := 0
	for _, ch := range d.workers {
		n += len(ch)
	}
	return n
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.EnrollmentGrant) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case grant, ok := <-ch:
			if !ok {
				return
			}
			d.process(ctx, id, grant)
			d.rec.QueueDepth(d.depth())
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, workerID int, grant ports.EnrollmentGrant) {
	if err := d.grantWithRetry(ctx, grant); err != nil {
		d.rec.GrantProcessed("dropped")
		d.log.Error().Err(err).
			Str("user_id", grant.UserID).
			Str("course_id", grant.CourseID).
			Str("payment_id", grant.PaymentID).
			Int("worker_id", workerID).
			Msg("enrollment grant failed")
		return
	}
	d.rec.GrantProcessed("granted")
}

func (d *Dispatcher) grantWithRetry(ctx context.Context, grant ports.EnrollmentGrant) error {
	for attempt := 1; ; attempt++ {
		err := d.granter.Grant(ctx, grant)
		if err == nil || attempt == maxAttempts {
			return err
		}
		d.rec.GrantProcessed("retry")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
}
