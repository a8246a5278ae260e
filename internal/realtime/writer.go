package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WriteOp is one fire-and-forget partial update against the feed. Each op
// is dispatched independently: a failed op is logged and dropped, sibling
// ops in the same batch are not rolled back.
type WriteOp struct {
	OpID       string
	Collection string
	DocID      string
	Partial    map[string]interface{}
}

type writeWorker struct {
	id         int
	workerPool chan chan WriteOp
	jobChannel chan WriteOp
	logger     *slog.Logger
}

func newWriteWorker(id int, workerPool chan chan WriteOp, logger *slog.Logger) *writeWorker {
	return &writeWorker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan WriteOp),
		logger:     logger,
	}
}

func (w *writeWorker) start(ctx context.Context, wg *sync.WaitGroup, processFunc func(WriteOp)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.jobChannel

			select {
			case op := <-w.jobChannel:
				w.logger.Debug("write worker processing op", "worker_id", w.id, "op_id", op.OpID)
				processFunc(op)
			case <-ctx.Done():
				w.logger.Debug("write worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// Writer dispatches feed writes through a worker pool so callers are never
// blocked on store round-trips.
type Writer struct {
	feed   Feed
	logger *slog.Logger

	jobQueue     chan WriteOp
	workerPool   chan chan WriteOp
	maxWorkers   int
	writeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type WriterConfig struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

func NewWriter(feed Feed, config WriterConfig, logger *slog.Logger) *Writer {
	ctx, cancel := context.WithCancel(context.Background())

	workers := config.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	timeout := config.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	w := &Writer{
		feed:         feed,
		logger:       logger,
		maxWorkers:   workers,
		jobQueue:     make(chan WriteOp, queueSize),
		workerPool:   make(chan chan WriteOp, workers),
		writeTimeout: timeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	w.startWorkerPool()

	return w
}

func (w *Writer) startWorkerPool() {
	w.once.Do(func() {
		for i := 0; i < w.maxWorkers; i++ {
			worker := newWriteWorker(i, w.workerPool, w.logger)
			worker.start(w.ctx, &w.wg, w.processWriteOp)
		}

		go w.dispatch()

		w.logger.Info("feed write pool started",
			"workers", w.maxWorkers,
			"queue_size", cap(w.jobQueue))
	})
}

func (w *Writer) dispatch() {
	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case op := <-w.jobQueue:
			select {
			case jobChannel := <-w.workerPool:
				select {
				case jobChannel <- op:
				case <-w.ctx.Done():
					w.logger.Info("write dispatcher shutting down")
					return
				}
			case <-w.ctx.Done():
				w.logger.Info("write dispatcher shutting down")
				return
			}
		case <-w.ctx.Done():
			w.logger.Info("write dispatcher shutting down")
			return
		}
	}
}

// Enqueue queues an op without blocking. A full queue drops the op: the
// feed write contract is best-effort, callers detect no-ops by re-reading
// state from their subscription.
func (w *Writer) Enqueue(op WriteOp) bool {
	if op.OpID == "" {
		op.OpID = uuid.NewString()
	}

	select {
	case w.jobQueue <- op:
		return true
	default:
		w.logger.Warn("write queue full, dropping op",
			"op_id", op.OpID,
			"collection", op.Collection,
			"doc_id", op.DocID)
		return false
	}
}

func (w *Writer) processWriteOp(op WriteOp) {
	ctx, cancel := context.WithTimeout(w.ctx, w.writeTimeout)
	defer cancel()

	if err := w.feed.Update(ctx, op.Collection, op.DocID, op.Partial); err != nil {
		w.logger.Error("feed write failed",
			"op_id", op.OpID,
			"collection", op.Collection,
			"doc_id", op.DocID,
			"error", err)
		return
	}

	w.logger.Debug("feed write applied",
		"op_id", op.OpID,
		"collection", op.Collection,
		"doc_id", op.DocID)
}

func (w *Writer) Shutdown() {
	w.logger.Info("shutting down feed writer")
	w.cancel()
	w.wg.Wait()
	w.logger.Info("feed writer shutdown complete")
}
