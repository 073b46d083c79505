package axis

import (
	"context"
	"sync/atomic"
	"time"
)

// Sim is an in-memory Mover for the mock backend and tests.  With
// StepsPerSecond <= 0 moves complete instantly; otherwise the step counter
// advances one step at a time so concurrent reads see in-flight positions.
type Sim struct {
	StepsPerSecond float64

	pos     atomic.Int64
	enabled atomic.Bool
}

func (s *Sim) Enable() error {
	s.enabled.Store(true)
	return nil
}

func (s *Sim) Disable() error {
	s.enabled.Store(false)
	return nil
}

// Enabled reports whether the coils are powered.  Test hook.
func (s *Sim) Enabled() bool {
	return s.enabled.Load()
}

func (s *Sim) CurrentSteps() int {
	return int(s.pos.Load())
}

func (s *Sim) RunTo(ctx context.Context, target int) error {
	if s.StepsPerSecond <= 0 {
		s.pos.Store(int64(target))
		return nil
	}
	interval := time.Duration(float64(time.Second) / s.StepsPerSecond)
	for {
		cur := s.pos.Load()
		if cur == int64(target) {
			return nil
		}
		inc := int64(1)
		if cur > int64(target) {
			inc = -1
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
			s.pos.Add(inc)
		}
	}
}
