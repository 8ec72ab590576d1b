package axis

import "time"

// TiltDrive is the actuator sink for the tilt axis, satisfied by
// *servo.Positional.
type TiltDrive interface {
	SetAngle(deg float64) error
}

// TiltConfig holds the tilt axis tuning.
type TiltConfig struct {
	MinDeg  int
	MaxDeg  int
	HomeDeg int
	ScanDeg int
	StepDeg int           // maximum adjustment per nudge
	Holdoff time.Duration // minimum time between applied nudges
}

// Tilt controls the positional tilt axis. Rate limiting in Nudge converts
// the per-tick stream of step requests into a bounded angular velocity so a
// geared positional servo does not oscillate.
type Tilt struct {
	drive TiltDrive
	cfg   TiltConfig

	angle    int
	lastStep time.Time
}

// NewTilt creates a tilt controller and drives the axis to home.
func NewTilt(drive TiltDrive, cfg TiltConfig, now time.Time) *Tilt {
	t := &Tilt{drive: drive, cfg: cfg, lastStep: now}
	t.angle = cfg.HomeDeg
	_ = drive.SetAngle(float64(t.angle))
	return t
}

// SetAngle drives the axis to an absolute angle, clamped to [MinDeg, MaxDeg].
func (t *Tilt) SetAngle(deg int) error {
	deg = t.clamp(deg)
	t.angle = deg
	return t.drive.SetAngle(float64(deg))
}

// Nudge applies a relative step, rate limited by the holdoff. Returns false
// without moving if the holdoff since the last applied step has not elapsed.
// The step magnitude is clamped to StepDeg, the resulting angle to the range.
func (t *Tilt) Nudge(now time.Time, delta int) (bool, error) {
	if now.Sub(t.lastStep) < t.cfg.Holdoff {
		return false, nil
	}

	if delta > t.cfg.StepDeg {
		delta = t.cfg.StepDeg
	}
	if delta < -t.cfg.StepDeg {
		delta = -t.cfg.StepDeg
	}

	t.angle = t.clamp(t.angle + delta)
	t.lastStep = now
	return true, t.drive.SetAngle(float64(t.angle))
}

// Angle returns the current absolute angle in degrees.
func (t *Tilt) Angle() int {
	return t.angle
}

// ParkHome drives the axis to the home angle.
func (t *Tilt) ParkHome() error {
	return t.SetAngle(t.cfg.HomeDeg)
}

// GoScan drives the axis to the mid-range scan angle used while searching.
func (t *Tilt) GoScan() error {
	return t.SetAngle(t.cfg.ScanDeg)
}

func (t *Tilt) clamp(deg int) int {
	if deg < t.cfg.MinDeg {
		return t.cfg.MinDeg
	}
	if deg > t.cfg.MaxDeg {
		return t.cfg.MaxDeg
	}
	return deg
}
