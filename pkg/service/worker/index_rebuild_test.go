package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/service/worker"
)

type countingRebuilder struct {
	count atomic.Int64
}

func (r *countingRebuilder) Rebuild(ctx context.Context) error {
	r.count.Add(1)
	return nil
}

func TestIndexRebuildWorker(t *testing.T) {
	rebuilder := &countingRebuilder{}
	w := worker.NewIndexRebuildWorker(rebuilder, 10*time.Millisecond)

	gt.NoError(t, w.Start(context.Background()))

	deadline := time.Now().Add(2 * time.Second)
	for rebuilder.count.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	w.Stop()

	got := rebuilder.count.Load()
	gt.Bool(t, got >= 2).True()

	// No further rebuilds after Stop
	time.Sleep(30 * time.Millisecond)
	gt.Value(t, rebuilder.count.Load()).Equal(got)
}

type failingRebuilder struct {
	count atomic.Int64
}

func (r *failingRebuilder) Rebuild(ctx context.Context) error {
	r.count.Add(1)
	return goerr.New("store unavailable")
}

func TestIndexRebuildWorkerContinuesAfterFailure(t *testing.T) {
	rebuilder := &failingRebuilder{}
	w := worker.NewIndexRebuildWorker(rebuilder, 10*time.Millisecond)

	gt.NoError(t, w.Start(context.Background()))

	deadline := time.Now().Add(2 * time.Second)
	for rebuilder.count.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	w.Stop()

	// A failing rebuild is retried on the next tick, not fatal to the loop.
	gt.Bool(t, rebuilder.count.Load() >= 2).True()
}

func TestIndexRebuildWorkerStopBeforeTick(t *testing.T) {
	rebuilder := &countingRebuilder{}
	w := worker.NewIndexRebuildWorker(rebuilder, time.Hour)

	gt.NoError(t, w.Start(context.Background()))
	w.Stop()

	gt.Value(t, rebuilder.count.Load()).Equal(0)
}
