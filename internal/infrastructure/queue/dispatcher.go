package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
	"github.com/techpress/publishing-api/internal/pkg/metrics"
)

const (
	defaultWorkers      = 4
	defaultBuffer       = 256
	defaultWriteTimeout = 5 * time.Second
)

// Config sizes the dispatcher. Zero values fall back to the defaults.
type Config struct {
	Workers      int
	Buffer       int
	WriteTimeout time.Duration
}

// Dispatcher persists audit entries on a fixed set of workers. Entries are
// sharded on the resource id, so entries about one resource are written in
// the order they were recorded. Delivery is at-most-once: a full worker
// channel drops the entry and a failed insert is not retried.
type Dispatcher struct {
	workers      []chan *domain.AuditEntry
	repo         ports.AuditRepository
	writeTimeout time.Duration
	log          zerolog.Logger
	wg           sync.WaitGroup
}

var _ ports.AuditSink = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher writing to repo.
func NewDispatcher(cfg Config, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	d := &Dispatcher{
		workers:      make([]chan *domain.AuditEntry, cfg.Workers),
		repo:         repo,
		writeTimeout: cfg.WriteTimeout,
		log:          log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.AuditEntry, cfg.Buffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// flushes what is already buffered and exits; Wait blocks until then.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands the entry to the worker owning its resource. It never blocks
// and reports false when that worker's channel is full.
func (d *Dispatcher) Enqueue(entry *domain.AuditEntry) bool {
	idx := d.shardIndex(shardKey(entry))
	ch := d.workers[idx]
	select {
	case ch <- entry:
		metrics.AuditEntriesTotal.WithLabelValues("queued").Inc()
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(ch)))
		return true
	default:
		metrics.AuditEntriesTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

func shardKey(entry *domain.AuditEntry) string {
	if entry.ResourceID != "" {
		return entry.ResourceID
	}
	return entry.ID
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan *domain.AuditEntry) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			metrics.AuditQueueDepth.WithLabelValues(label).Set(0)
			return
		case entry := <-ch:
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.write(id, entry)
		}
	}
}

func (d *Dispatcher) drain(id int, ch <-chan *domain.AuditEntry) {
	for {
		select {
		case entry := <-ch:
			d.write(id, entry)
		default:
			return
		}
	}
}

// write persists one entry on a fresh context so that request cancellation
// and shutdown do not abort an insert already in flight.
func (d *Dispatcher) write(id int, entry *domain.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()

	start := time.Now()
	err := d.repo.Insert(ctx, entry)
	metrics.AuditWriteDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AuditEntriesTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("audit_id", entry.ID).
			Str("action", string(entry.Action)).
			Int("worker_id", id).
			Msg("audit entry write failed")
		return
	}
	metrics.AuditEntriesTotal.WithLabelValues("written").Inc()
}
