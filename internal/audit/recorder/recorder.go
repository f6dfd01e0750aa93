// Package recorder writes audit entries in the background so that a slow or
// failing log table never delays or fails the mutation being audited.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/projects-backend/internal/audit/domain"
	"github.com/GoSim-25-26J-441/projects-backend/internal/logging"
	"github.com/GoSim-25-26J-441/projects-backend/internal/metrics"
)

const (
	DefaultQueueSize    = 256
	DefaultWriteTimeout = 5 * time.Second
)

// Store is the persistence side of the recorder.
type Store interface {
	Create(ctx context.Context, op domain.Operation, table string, oldData, newData []byte, description string) error
}

type Options struct {
	QueueSize    int
	WriteTimeout time.Duration
}

type record struct {
	op          domain.Operation
	table       string
	oldData     []byte
	newData     []byte
	description string
}

type Recorder struct {
	store        Store
	metrics      *metrics.Metrics
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan record
	done   chan struct{}
}

// New starts the background writer. Call Close to drain it.
func New(store Store, m *metrics.Metrics, opts Options) *Recorder {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}

	r := &Recorder{
		store:        store,
		metrics:      m,
		writeTimeout: opts.WriteTimeout,
		queue:        make(chan record, opts.QueueSize),
		done:         make(chan struct{}),
	}
	go r.run()
	return r
}

// Record snapshots the entry and queues it. It never blocks on the database
// and never reports an error; failures are logged and counted.
func (r *Recorder) Record(ctx context.Context, e domain.Entry) {
	rec := record{
		op:          e.Operation,
		table:       e.TableName,
		description: e.Description,
		oldData:     snapshot(e.OldData),
		newData:     snapshot(e.NewData),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		logging.FromContext(ctx).Error("audit entry dropped: recorder closed", "operation", e.Operation, "table", e.TableName)
		r.metrics.AuditDropped()
		return
	}

	select {
	case r.queue <- rec:
	default:
		logging.FromContext(ctx).Error("audit entry dropped: queue full", "operation", e.Operation, "table", e.TableName, "queue_size", cap(r.queue))
		r.metrics.AuditDropped()
	}
}

// Close stops accepting entries and waits until queued entries are written
// or ctx expires.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("audit recorder: drain interrupted"), ctx.Err())
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		r.write(rec)
	}
}

func (r *Recorder) write(rec record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.store.Create(ctx, rec.op, rec.table, rec.oldData, rec.newData, rec.description); err != nil {
		slog.Error("audit write failed", "operation", rec.op, "table", rec.table, "error", err)
		r.metrics.AuditFailed()
		return
	}
	r.metrics.AuditWritten()
}

// snapshot encodes v immediately so later mutation of the caller's value
// cannot leak into the stored entry.
func snapshot(v any) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("audit snapshot encode failed", "error", err)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	return b
}
