// internal/app/system/workers/overduesweep.go
package workers

import (
	"context"
	"sync"
	"time"

	taskstore "github.com/astren-app/astren/internal/app/store/tasks"
	"go.uber.org/zap"
)

// OverdueSweep is a background worker that materializes the derived
// "vencida" state: pending tasks whose due date has passed are flipped so
// queries that filter by estado see them without recomputing.
type OverdueSweep struct {
	tasks    *taskstore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewOverdueSweep creates a new overdue sweep worker.
func NewOverdueSweep(tasks *taskstore.Store, logger *zap.Logger, interval time.Duration) *OverdueSweep {
	return &OverdueSweep{
		tasks:    tasks,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *OverdueSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("overdue sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *OverdueSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("overdue sweep worker stopped")
}

func (w *OverdueSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *OverdueSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.tasks.MarkOverdue(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error("failed to mark overdue tasks", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("marked overdue tasks", zap.Int64("count", count))
	}
}
