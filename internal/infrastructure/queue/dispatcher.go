package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/schoolcanteen/canteen-system/internal/api/metrics"
	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes wallet snapshots to a fixed set of workers using
// consistent hashing on the account id, so snapshots of one account are
// handled in arrival order while different accounts proceed in parallel.
type Dispatcher struct {
	workers []chan domain.Wallet
	handler ports.WalletChangeHandler
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, handler ports.WalletChangeHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Wallet, numWorkers),
		handler: handler,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Wallet, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a snapshot to the worker owning its account. When that
// worker's buffer is full the snapshot is dropped: sessions resynchronise on
// their next write or load, and a newer snapshot supersedes it anyway.
func (d *Dispatcher) Enqueue(w domain.Wallet) {
	id := d.shardIndex(w.AccountID)
	select {
	case d.workers[id] <- w:
		metrics.FeedQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(d.workers[id])))
	default:
		metrics.WalletPushesTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("account_id", w.AccountID).
			Int64("version", w.Version).
			Int("worker_id", id).
			Msg("wallet feed worker saturated, snapshot dropped")
	}
}

// shardIndex maps an account id deterministically to a worker index.
func (d *Dispatcher) shardIndex(accountID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Wallet) {
	depth := metrics.FeedQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case w, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			if err := d.handler.HandleWalletChange(ctx, w); err != nil {
				d.log.Error().Err(err).
					Str("account_id", w.AccountID).
					Int("worker_id", id).
					Msg("wallet change handling failed")
			}
		}
	}
}
