package rotator

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	movesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gorotor_moves_total",
		Help: "Completed axis motions, labeled by axis.",
	}, []string{"axis"})

	moveSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gorotor_move_seconds",
		Help:    "Duration of blocking axis motions in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// DefaultPeriod is the scheduler cadence when none is configured.
const DefaultPeriod = 100 * time.Millisecond

// Scheduler polls the store on a fixed cadence and drives any axis whose
// target changed since the last applied motion.  It runs on its own
// goroutine so a multi-second move never starves the network listeners.
type Scheduler struct {
	store  *Store
	period time.Duration
}

// NewScheduler returns a scheduler over the store.
func NewScheduler(store *Store, period time.Duration) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Scheduler{store: store, period: period}
}

// Run blocks until ctx is cancelled, ticking at the configured period.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick processes both axes sequentially, azimuth before elevation.
// Elevation motion in a tick therefore waits out any azimuth motion
// started in the same tick; one motion thread is the accepted trade-off.
func (s *Scheduler) Tick(ctx context.Context) {
	for _, name := range []string{AZ, EL} {
		if !s.store.HasPending(name) {
			continue
		}
		deg := s.store.MarkApplied(name)
		drv := s.store.Driver(name)
		if err := drv.Enable(); err != nil {
			log.Printf("enable %s: %v", name, err)
			continue
		}
		start := time.Now()
		if err := drv.RunTo(ctx, deg); err != nil {
			log.Printf("drive %s to %d: %v", name, deg, err)
		} else {
			movesTotal.WithLabelValues(name).Inc()
			moveSeconds.Observe(time.Since(start).Seconds())
		}
		if err := drv.Disable(); err != nil {
			log.Printf("disable %s: %v", name, err)
		}
	}
}
