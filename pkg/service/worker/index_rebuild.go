package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/utils/errutil"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

// Rebuilder rebuilds the vector index from the persistent store.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// IndexRebuildWorker periodically rebuilds the in-memory vector index from
// the persistent store. This repairs index drift caused by crashes between
// a store write and the corresponding index update, or by writes from
// other server instances.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - A rebuild transiently shrinks search results while the index refills
type IndexRebuildWorker struct {
	rebuilder Rebuilder
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewIndexRebuildWorker creates a worker that rebuilds the index every interval.
func NewIndexRebuildWorker(rebuilder Rebuilder, interval time.Duration) *IndexRebuildWorker {
	return &IndexRebuildWorker{
		rebuilder: rebuilder,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background rebuild loop. It does not block, and it does
// not run an immediate rebuild; callers rebuild once before serving traffic.
func (w *IndexRebuildWorker) Start(ctx context.Context) error {
	logging.Default().Info("Index rebuild worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *IndexRebuildWorker) Stop() {
	logging.Default().Info("Index rebuild worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Index rebuild worker stopped")
}

func (w *IndexRebuildWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			if err := w.rebuilder.Rebuild(ctx); err != nil {
				// Report and continue worker
				_ = errutil.Handle(ctx, err, "index rebuild failed (will retry next interval)")
				continue
			}
			logging.Default().Info("Index rebuild completed",
				"duration", time.Since(start).String())

		case <-w.stopCh:
			logging.Default().Info("Index rebuild worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Index rebuild worker context cancelled")
			return
		}
	}
}
