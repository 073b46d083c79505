package rotator_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamlab/gorotor/axis"
	"github.com/hamlab/gorotor/rotator"
	"github.com/hamlab/gorotor/util"
)

// countingMover wraps a Sim and counts RunTo invocations.
type countingMover struct {
	axis.Sim
	runs atomic.Int64
}

func (c *countingMover) RunTo(ctx context.Context, target int) error {
	c.runs.Add(1)
	return c.Sim.RunTo(ctx, target)
}

func newTestStore() (*rotator.Store, *countingMover, *countingMover) {
	azm := &countingMover{}
	elm := &countingMover{}
	st := rotator.NewStore(
		axis.New(rotator.AZ, 10, azm),
		axis.New(rotator.EL, 10, elm),
		util.Limiter{Min: 0, Max: 360},
		util.Limiter{Min: 0, Max: 70},
	)
	return st, azm, elm
}

func TestSetTargetClamps(t *testing.T) {
	st, _, _ := newTestStore()
	cases := []struct {
		axis string
		in   int
		want int
	}{
		{rotator.AZ, 180, 180},
		{rotator.AZ, 400, 360},
		{rotator.AZ, -10, 0},
		{rotator.EL, 45, 45},
		{rotator.EL, 71, 70},
		{rotator.EL, -1, 0},
	}
	for _, tc := range cases {
		st.SetTarget(tc.axis, tc.in)
		if got := st.Target(tc.axis); got != tc.want {
			t.Errorf("SetTarget(%s, %d): target = %d, want %d", tc.axis, tc.in, got, tc.want)
		}
	}
}

func TestSetPositionBoundary(t *testing.T) {
	st, _, _ := newTestStore()
	st.SetPosition(400, -10)
	az, el := st.Targets()
	if az != 360 || el != 0 {
		t.Errorf("Targets = (%d, %d), want (360, 0)", az, el)
	}
}

func TestPendingAndMarkApplied(t *testing.T) {
	st, _, _ := newTestStore()
	if st.HasPending(rotator.AZ) {
		t.Error("fresh store should have no pending motion")
	}
	st.SetTarget(rotator.AZ, 90)
	if !st.HasPending(rotator.AZ) {
		t.Error("target change should mark the axis pending")
	}
	if got := st.MarkApplied(rotator.AZ); got != 90 {
		t.Errorf("MarkApplied = %d, want 90", got)
	}
	if st.HasPending(rotator.AZ) {
		t.Error("MarkApplied should clear pending state")
	}
	// a command arriving after the claim is a fresh pending delta
	st.SetTarget(rotator.AZ, 100)
	if !st.HasPending(rotator.AZ) {
		t.Error("new target during a move should be pending again")
	}
}

func TestCurrentDegreesReportsPhysicalNotTarget(t *testing.T) {
	st, _, _ := newTestStore()
	st.SetPosition(180, 45)
	az, el := st.Position()
	if az != 0 || el != 0 {
		t.Errorf("Position before any motion = (%d, %d), want (0, 0)", az, el)
	}
}

func TestTickDrivesPendingAxes(t *testing.T) {
	st, azm, elm := newTestStore()
	sched := rotator.NewScheduler(st, rotator.DefaultPeriod)

	st.SetPosition(180, 45)
	sched.Tick(context.Background())

	az, el := st.Position()
	if az != 180 || el != 45 {
		t.Errorf("Position after tick = (%d, %d), want (180, 45)", az, el)
	}
	if azm.runs.Load() != 1 || elm.runs.Load() != 1 {
		t.Errorf("runs = (%d, %d), want (1, 1)", azm.runs.Load(), elm.runs.Load())
	}
}

func TestRepeatedSetPositionIsIdempotent(t *testing.T) {
	st, azm, elm := newTestStore()
	sched := rotator.NewScheduler(st, rotator.DefaultPeriod)

	st.SetPosition(180, 45)
	sched.Tick(context.Background())
	st.SetPosition(180, 45)
	sched.Tick(context.Background())

	if azm.runs.Load() != 1 || elm.runs.Load() != 1 {
		t.Errorf("second identical command should be a no-op, runs = (%d, %d)",
			azm.runs.Load(), elm.runs.Load())
	}
}

func TestTickSkipsIdleAxis(t *testing.T) {
	st, azm, elm := newTestStore()
	sched := rotator.NewScheduler(st, rotator.DefaultPeriod)

	st.SetTarget(rotator.EL, 30)
	sched.Tick(context.Background())

	if azm.runs.Load() != 0 {
		t.Errorf("azimuth should not move, runs = %d", azm.runs.Load())
	}
	if elm.runs.Load() != 1 {
		t.Errorf("elevation should move once, runs = %d", elm.runs.Load())
	}
}

func TestCoilsDisabledAfterMotion(t *testing.T) {
	st, azm, _ := newTestStore()
	sched := rotator.NewScheduler(st, rotator.DefaultPeriod)

	st.SetTarget(rotator.AZ, 10)
	sched.Tick(context.Background())

	if azm.Enabled() {
		t.Error("coils should be de-powered after the move completes")
	}
}

func TestRunAppliesTargetsOnCadence(t *testing.T) {
	st, _, _ := newTestStore()
	sched := rotator.NewScheduler(st, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	st.SetPosition(90, 20)
	deadline := time.After(2 * time.Second)
	for {
		az, el := st.Position()
		if az == 90 && el == 20 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("scheduler never applied targets, position = (%d, %d)", az, el)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
