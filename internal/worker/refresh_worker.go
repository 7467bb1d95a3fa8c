package worker

import (
	"context"
	"log"
	"time"

	"neowatch/internal/service"
)

// RefreshWorker periodically reloads the NEO and close-approach
// datasets so long-running deployments pick up new snapshots.
type RefreshWorker struct {
	service  service.NEOService
	interval time.Duration
	stopChan chan struct{}
	running  bool
}

func NewRefreshWorker(service service.NEOService, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (w *RefreshWorker) Start() {
	if w.running {
		return
	}

	w.running = true
	log.Printf("Refresh Worker started with interval %v", w.interval)

	go w.run()
}

func (w *RefreshWorker) Stop() {
	if !w.running {
		return
	}

	close(w.stopChan)
	w.running = false
	log.Println("Refresh Worker stopped")
}

func (w *RefreshWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refresh()
		case <-w.stopChan:
			return
		}
	}
}

func (w *RefreshWorker) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Println("Refresh Worker: reloading datasets...")

	if err := w.service.Reload(ctx); err != nil {
		log.Printf("Refresh Worker error: %v", err)
		return
	}
	log.Println("Refresh Worker: datasets reloaded")
}
