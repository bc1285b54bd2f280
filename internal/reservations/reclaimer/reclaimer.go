package reclaimer

import (
	"context"
	"sync"
	"time"

	"bookstay/internal/reservations/service"
	"bookstay/pkg/config"
)

// Reclaimer periodically sweeps expired pending reservations and releases
// their dates back to the pool. One sweep runs at a time; if a sweep is still
// in flight when the ticker fires, that tick is skipped.
type Reclaimer struct {
	svc      service.ReservationService
	cfg      *config.Config
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func New(svc service.ReservationService, cfg *config.Config) *Reclaimer {
	return &Reclaimer{
		svc:      svc,
		cfg:      cfg,
		interval: cfg.ReclaimInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Reclaimer) Start() {
	go r.run()
}

func (r *Reclaimer) run() {
	defer close(r.done)

	r.cfg.Log.Info("Reclaimer started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reclaimer) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()

	started := time.Now()
	reclaimed, err := r.svc.ReclaimExpired(ctx)
	if err != nil {
		r.cfg.Log.Error("Reclaim sweep failed", "error", err)
		return
	}

	if reclaimed > 0 {
		r.cfg.Log.Info("Reclaim sweep completed",
			"reclaimed", reclaimed,
			"duration", time.Since(started),
		)
	}
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (r *Reclaimer) Stop() {
	r.once.Do(func() {
		close(r.stop)
		<-r.done
	})
}
