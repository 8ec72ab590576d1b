package axis

import (
	"math"
	"time"

	"github.com/cjeanneret/SentryGo/internal/debug"
)

// PanDrive is the actuator sink for the pan axis, satisfied by
// *servo.Continuous.
type PanDrive interface {
	SetSpeed(speed float64) error
	Stop() error
}

// PanConfig holds the pan axis tuning.
type PanConfig struct {
	LimitDeg         float64 // software rotation limit (± from center), cable protection
	MinSpeed         float64 // commands below this are snapped to 0 (gear backlash)
	DegPerSec        float64 // full-speed angular rate, for dead reckoning
	SlowSpeed        float64 // speed used when driving home
	HomeToleranceDeg float64 // ParkHome reports done within this of center
}

// Pan controls the continuous-rotation pan axis. The axis has no positional
// feedback: the position is a pure integral of commanded speed, and all
// limiting is advisory based on that estimate.
type Pan struct {
	drive PanDrive
	cfg   PanConfig

	speed       float64 // last commanded normalized speed
	positionDeg float64 // estimated absolute angle from home
}

// NewPan creates a pan controller, stopped at an estimated position of 0°.
func NewPan(drive PanDrive, cfg PanConfig) *Pan {
	p := &Pan{drive: drive, cfg: cfg}
	_ = drive.Stop()
	return p
}

// SetSpeed commands a normalized pan speed: -1.0 = full CCW (left),
// +1.0 = full CW (right). The value is clamped to [-1, 1]; magnitudes below
// the minimum-speed threshold are snapped to 0, and commands that would push
// past a software limit are forced to 0.
func (p *Pan) SetSpeed(speed float64) error {
	if speed > 1 {
		speed = 1
	}
	if speed < -1 {
		speed = -1
	}

	if math.Abs(speed) < p.cfg.MinSpeed {
		speed = 0
	}

	if p.positionDeg >= p.cfg.LimitDeg && speed > 0 {
		speed = 0
	}
	if p.positionDeg <= -p.cfg.LimitDeg && speed < 0 {
		speed = 0
	}

	p.speed = speed
	return p.drive.SetSpeed(speed)
}

// Stop halts the pan axis immediately.
func (p *Pan) Stop() error {
	p.speed = 0
	return p.drive.Stop()
}

// UpdatePosition integrates the commanded speed over dt to keep the
// dead-reckoned position estimate current. Call once per loop tick.
// The result is hard-clamped to the software limits as a safety net
// against accumulation drift.
func (p *Pan) UpdatePosition(dt time.Duration) {
	p.positionDeg += p.speed * p.cfg.DegPerSec * dt.Seconds()

	if p.positionDeg > p.cfg.LimitDeg {
		p.positionDeg = p.cfg.LimitDeg
	}
	if p.positionDeg < -p.cfg.LimitDeg {
		p.positionDeg = -p.cfg.LimitDeg
	}
}

// PositionDeg returns the estimated angular position (degrees, 0 = home).
func (p *Pan) PositionDeg() float64 {
	return p.positionDeg
}

// Speed returns the last commanded normalized speed.
func (p *Pan) Speed() float64 {
	return p.speed
}

// WithinLimits reports whether the estimate is strictly inside the
// software limits.
func (p *Pan) WithinLimits() bool {
	return p.positionDeg > -p.cfg.LimitDeg && p.positionDeg < p.cfg.LimitDeg
}

// ParkHome drives toward the estimated home position at slow speed.
// Non-blocking: call once per loop tick until it returns true.
func (p *Pan) ParkHome() (bool, error) {
	if math.Abs(p.positionDeg) < p.cfg.HomeToleranceDeg {
		return true, p.Stop()
	}

	homeSpeed := p.cfg.SlowSpeed
	if p.positionDeg > 0 {
		homeSpeed = -homeSpeed
	}
	return false, p.SetSpeed(homeSpeed)
}

// ResetPosition zeros the position estimate. Used when recovering from
// Parked, where the platform is assumed at or near home.
func (p *Pan) ResetPosition() {
	debug.Verbose("Pan: position estimate re-zeroed (was %.1f)", p.positionDeg)
	p.positionDeg = 0
}
