package axis

import (
	"math"
	"testing"
	"time"
)

// fakePanDrive records speed commands.
type fakePanDrive struct {
	speeds []float64
	stops  int
}

func (f *fakePanDrive) SetSpeed(speed float64) error {
	f.speeds = append(f.speeds, speed)
	return nil
}

func (f *fakePanDrive) Stop() error {
	f.stops++
	return nil
}

func (f *fakePanDrive) last() float64 {
	if len(f.speeds) == 0 {
		return 0
	}
	return f.speeds[len(f.speeds)-1]
}

var testPanCfg = PanConfig{
	LimitDeg:         135,
	MinSpeed:         0.15,
	DegPerSec:        60,
	SlowSpeed:        0.30,
	HomeToleranceDeg: 5,
}

func newTestPan() (*Pan, *fakePanDrive) {
	drive := &fakePanDrive{}
	return NewPan(drive, testPanCfg), drive
}

func TestPan_SetSpeedClampsToUnit(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"above +1", 2.5, 1},
		{"below -1", -3, -1},
		{"in range", 0.5, 0.5},
		{"negative in range", -0.8, -0.8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, drive := newTestPan()
			if err := p.SetSpeed(tc.in); err != nil {
				t.Fatalf("SetSpeed: %v", err)
			}
			if got := drive.last(); got != tc.want {
				t.Errorf("drive speed = %v, want %v", got, tc.want)
			}
			if p.Speed() != tc.want {
				t.Errorf("Speed() = %v, want %v", p.Speed(), tc.want)
			}
		})
	}
}

func TestPan_SubThresholdSnapsToZero(t *testing.T) {
	for _, v := range []float64{0.05, -0.1, 0.149, -0.149} {
		p, drive := newTestPan()
		p.SetSpeed(v)
		if got := drive.last(); got != 0 {
			t.Errorf("SetSpeed(%v): drive speed = %v, want 0 (below min speed)", v, got)
		}
	}
}

func TestPan_LimitBlocksOutwardCommands(t *testing.T) {
	p, drive := newTestPan()

	// Drive to the positive limit: 0.8 × 60°/s needs ~2.8 s.
	p.SetSpeed(0.8)
	for i := 0; i < 200; i++ {
		p.UpdatePosition(20 * time.Millisecond)
	}
	if p.PositionDeg() != 135 {
		t.Fatalf("position = %v, want clamped at 135", p.PositionDeg())
	}

	if err := p.SetSpeed(0.8); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	if got := drive.last(); got != 0 {
		t.Errorf("outward command at +limit = %v, want 0", got)
	}

	if err := p.SetSpeed(-0.5); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	if got := drive.last(); got != -0.5 {
		t.Errorf("inward command at +limit = %v, want -0.5 applied unchanged", got)
	}
}

func TestPan_NegativeLimitSymmetric(t *testing.T) {
	p, drive := newTestPan()

	p.SetSpeed(-1)
	for i := 0; i < 300; i++ {
		p.UpdatePosition(20 * time.Millisecond)
	}
	if p.PositionDeg() != -135 {
		t.Fatalf("position = %v, want clamped at -135", p.PositionDeg())
	}

	p.SetSpeed(-0.7)
	if got := drive.last(); got != 0 {
		t.Errorf("outward command at -limit = %v, want 0", got)
	}
	p.SetSpeed(0.7)
	if got := drive.last(); got != 0.7 {
		t.Errorf("inward command at -limit = %v, want 0.7", got)
	}
}

func TestPan_UpdatePositionIntegrates(t *testing.T) {
	p, _ := newTestPan()
	p.SetSpeed(0.5)
	p.UpdatePosition(time.Second)
	// 0.5 × 60°/s × 1 s = 30°
	if got := p.PositionDeg(); math.Abs(got-30) > 1e-9 {
		t.Errorf("position = %v, want 30", got)
	}
}

func TestPan_PositionNeverExceedsLimits(t *testing.T) {
	p, _ := newTestPan()
	// Arbitrary command/time sequence; the estimate must stay within ±135.
	seq := []struct {
		speed float64
		dt    time.Duration
	}{
		{1, 10 * time.Second},
		{-1, 30 * time.Second},
		{0.4, 3 * time.Second},
		{1, 500 * time.Second},
		{-0.2, time.Second},
	}
	for _, s := range seq {
		p.SetSpeed(s.speed)
		p.UpdatePosition(s.dt)
		if pos := p.PositionDeg(); pos > 135 || pos < -135 {
			t.Fatalf("position %v outside [-135, 135]", pos)
		}
	}
}

func TestPan_ParkHome(t *testing.T) {
	p, drive := newTestPan()

	// Within tolerance: done immediately, axis stopped.
	done, err := p.ParkHome()
	if err != nil {
		t.Fatalf("ParkHome: %v", err)
	}
	if !done {
		t.Error("ParkHome at home should report done")
	}
	if drive.stops == 0 {
		t.Error("ParkHome at home should stop the axis")
	}

	// Away from home: drives at slow speed toward zero until done.
	p.SetSpeed(1)
	for i := 0; i < 50; i++ {
		p.UpdatePosition(20 * time.Millisecond) // → 60°
	}

	steps := 0
	for {
		done, err := p.ParkHome()
		if err != nil {
			t.Fatalf("ParkHome: %v", err)
		}
		if done {
			break
		}
		if got := drive.last(); got != -testPanCfg.SlowSpeed {
			t.Fatalf("homing speed = %v, want %v", got, -testPanCfg.SlowSpeed)
		}
		p.UpdatePosition(20 * time.Millisecond)
		if steps++; steps > 10000 {
			t.Fatal("ParkHome never converged")
		}
	}
	if math.Abs(p.PositionDeg()) >= testPanCfg.HomeToleranceDeg {
		t.Errorf("parked position = %v, want within ±%v", p.PositionDeg(), testPanCfg.HomeToleranceDeg)
	}
}

func TestPan_ResetPosition(t *testing.T) {
	p, _ := newTestPan()
	p.SetSpeed(1)
	p.UpdatePosition(time.Second)
	if p.PositionDeg() == 0 {
		t.Fatal("setup: position should be nonzero")
	}
	p.ResetPosition()
	if p.PositionDeg() != 0 {
		t.Errorf("position after reset = %v, want 0", p.PositionDeg())
	}
}

func TestPan_WithinLimits(t *testing.T) {
	p, _ := newTestPan()
	if !p.WithinLimits() {
		t.Error("fresh controller should be within limits")
	}
	p.SetSpeed(1)
	for i := 0; i < 300; i++ {
		p.UpdatePosition(20 * time.Millisecond)
	}
	if p.WithinLimits() {
		t.Error("at the clamp the controller is not strictly within limits")
	}
}
