package track

import (
	"time"

	"github.com/cjeanneret/SentryGo/internal/logic/axis"
	"github.com/cjeanneret/SentryGo/internal/logic/sensor"
)

// Config holds the tracking speeds and the near-center heuristic window.
type Config struct {
	FastSpeed      float64       // pan speed when the beacon is far off-center
	SlowSpeed      float64       // pan speed when the beacon is nearly centered
	ApproachMemory time.Duration // opposing-channel recency window for "near center"
	TiltStepDeg    int           // tilt step per update
}

// Engine computes proportional pan/tilt commands from filtered readings.
//
// Pan uses a dead band (both or neither horizontal channel active → hold)
// and two speeds: if the opposing channel fired within ApproachMemory the
// beacon must be near center, so the slow speed gives smooth convergence.
// Tilt uses the same dead band over the vertical pair and forwards a
// single step to the tilt controller's rate-limited Nudge.
type Engine struct {
	pan  *axis.Pan
	tilt *axis.Tilt
	cfg  Config

	lastLeftActive  time.Time
	lastRightActive time.Time
}

// NewEngine binds the engine to its axis controllers. With either
// controller nil the engine is a no-op.
func NewEngine(pan *axis.Pan, tilt *axis.Tilt, cfg Config) *Engine {
	return &Engine{pan: pan, tilt: tilt, cfg: cfg}
}

// Update runs one tracking iteration. Call once per loop tick while the
// signal monitor reports Tracking.
func (e *Engine) Update(now time.Time, r sensor.Reading) error {
	if e.pan == nil || e.tilt == nil {
		return nil
	}

	if err := e.pan.SetSpeed(e.panSpeed(now, r)); err != nil {
		return err
	}

	if delta := e.tiltDelta(r); delta != 0 {
		if _, err := e.tilt.Nudge(now, delta); err != nil {
			return err
		}
	}
	return nil
}

// Halt stops the pan axis. Tilt holds its last angle on its own — a
// discrete position is stable without continuous driving.
func (e *Engine) Halt() error {
	if e.pan == nil {
		return nil
	}
	return e.pan.Stop()
}

// panSpeed returns the signed normalized pan command.
// Convention: negative = left (CCW), positive = right (CW).
func (e *Engine) panSpeed(now time.Time, r sensor.Reading) float64 {
	left := r.Left == sensor.Active
	right := r.Right == sensor.Active

	if left {
		e.lastLeftActive = now
	}
	if right {
		e.lastRightActive = now
	}

	// Dead band: both active (centered) or neither (no information) → hold.
	if left == right {
		return 0
	}

	// If the opposing channel fired recently the beacon is near center.
	var nearCenter bool
	if left {
		nearCenter = !e.lastRightActive.IsZero() && now.Sub(e.lastRightActive) < e.cfg.ApproachMemory
	} else {
		nearCenter = !e.lastLeftActive.IsZero() && now.Sub(e.lastLeftActive) < e.cfg.ApproachMemory
	}

	speed := e.cfg.FastSpeed
	if nearCenter {
		speed = e.cfg.SlowSpeed
	}

	if left {
		return -speed
	}
	return speed
}

// tiltDelta returns the tilt step: +StepDeg = up, -StepDeg = down, 0 = hold.
// No recency memory on this axis; the tilt controller rate-limits instead.
func (e *Engine) tiltDelta(r sensor.Reading) int {
	top := r.Top == sensor.Active
	bottom := r.Bottom == sensor.Active

	if top == bottom {
		return 0
	}
	if top {
		return e.cfg.TiltStepDeg
	}
	return -e.cfg.TiltStepDeg
}
