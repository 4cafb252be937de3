package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/primar/console/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	jobTimeout     = 15 * time.Second
)

var (
	ErrQueueFull   = errors.New("recurrence queue full")
	ErrQueueClosed = errors.New("recurrence queue closed")
)

// Materializer creates the follow-up of a completed recurring task.
type Materializer interface {
	Materialize(ctx context.Context, task *domain.Task) (*domain.Task, bool, error)
}

// Dispatcher routes completed recurring tasks to a fixed set of workers using
// hashing on the task id, so one task's jobs are handled in order by one worker.
type Dispatcher struct {
	workers []chan *domain.Task
	service Materializer
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service Materializer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan *domain.Task, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.Task, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled or
// after Shutdown drains their queues.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Schedule queues task without blocking.
func (d *Dispatcher) Schedule(task *domain.Task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	clone := *task
	select {
	case d.workers[d.shardIndex(task.ID)] <- &clone:
		return nil
	default:
		return ErrQueueFull
	}
}

// shardIndex maps a task id deterministically to a worker index.
func (d *Dispatcher) shardIndex(taskID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

// Shutdown stops accepting jobs and waits for queued ones until ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
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

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan *domain.Task) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-ch:
			if !ok {
				return
			}
			d.process(ctx, id, task)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, task *domain.Task) {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	if _, _, err := d.service.Materialize(jobCtx, task); err != nil {
		d.log.Error().Err(err).
			Str("task_id", task.ID).
			Int("worker_id", id).
			Msg("recurrence materialization failed")
	}
}
