package servo

import (
	"time"

	"github.com/cjeanneret/SentryGo/internal/debug"
	"github.com/cjeanneret/SentryGo/internal/hw/gpio"
)

// ContinuousConfig holds the hardware configuration for a continuous-rotation
// servo (e.g. a modified MG996R). Pulse widths are per-servo calibration values.
type ContinuousConfig struct {
	Pin          int
	StopPulse    time.Duration // pulse width for "stopped", typically 1500 µs
	CWFullPulse  time.Duration // pulse width for full-speed clockwise
	CCWFullPulse time.Duration // pulse width for full-speed counter-clockwise
}

// Continuous drives a continuous-rotation servo with a normalized speed input.
type Continuous struct {
	gpio gpio.Driver
	cfg  ContinuousConfig
}

// NewContinuous creates a continuous-rotation servo controller.
// Zero pulse widths default to 1500/1300/1700 µs. The servo starts stopped.
func NewContinuous(g gpio.Driver, cfg ContinuousConfig) *Continuous {
	if cfg.StopPulse <= 0 {
		cfg.StopPulse = 1500 * time.Microsecond
	}
	if cfg.CWFullPulse <= 0 {
		cfg.CWFullPulse = 1300 * time.Microsecond
	}
	if cfg.CCWFullPulse <= 0 {
		cfg.CCWFullPulse = 1700 * time.Microsecond
	}

	_ = g.SetupPin(cfg.Pin, gpio.Servo)

	s := &Continuous{gpio: g, cfg: cfg}
	_ = s.Stop()
	return s
}

// SetSpeed drives the servo at a normalized speed:
// -1.0 = full CCW, 0.0 = stop, +1.0 = full CW.
// The caller is expected to pass a value already clamped to [-1, 1].
func (s *Continuous) SetSpeed(speed float64) error {
	debug.Servo("pan", debug.Fmt("speed=%.2f", speed))
	return s.gpio.WriteServoPulse(s.cfg.Pin, s.speedToPulse(speed))
}

// Stop halts the servo immediately.
func (s *Continuous) Stop() error {
	return s.gpio.WriteServoPulse(s.cfg.Pin, s.cfg.StopPulse)
}

// speedToPulse interpolates a normalized speed to a pulse width:
// -1.0 → CCWFullPulse, 0.0 → StopPulse, +1.0 → CWFullPulse.
func (s *Continuous) speedToPulse(speed float64) time.Duration {
	if speed >= 0 {
		return s.cfg.StopPulse - time.Duration(speed*float64(s.cfg.StopPulse-s.cfg.CWFullPulse))
	}
	return s.cfg.StopPulse + time.Duration(-speed*float64(s.cfg.CCWFullPulse-s.cfg.StopPulse))
}

// PositionalConfig holds the hardware configuration for a standard
// positional servo.
type PositionalConfig struct {
	Pin       int
	MinPulse  time.Duration // pulse width at 0°, typically 700 µs
	MaxPulse  time.Duration // pulse width at full travel, typically 2200 µs
	TravelDeg float64       // angular travel from MinPulse to MaxPulse
}

// Positional drives a standard servo to absolute angles.
type Positional struct {
	gpio gpio.Driver
	cfg  PositionalConfig
}

// NewPositional creates a positional servo controller.
// Zero values default to 700 µs / 2200 µs over 180°.
func NewPositional(g gpio.Driver, cfg PositionalConfig) *Positional {
	if cfg.MinPulse <= 0 {
		cfg.MinPulse = 700 * time.Microsecond
	}
	if cfg.MaxPulse <= 0 {
		cfg.MaxPulse = 2200 * time.Microsecond
	}
	if cfg.TravelDeg <= 0 {
		cfg.TravelDeg = 180
	}

	_ = g.SetupPin(cfg.Pin, gpio.Servo)

	return &Positional{gpio: g, cfg: cfg}
}

// SetAngle drives the servo to the given angle in degrees.
// Angles outside [0, TravelDeg] are clamped.
func (s *Positional) SetAngle(deg float64) error {
	if deg < 0 {
		deg = 0
	}
	if deg > s.cfg.TravelDeg {
		deg = s.cfg.TravelDeg
	}
	debug.Servo("tilt", debug.Fmt("angle=%.0f", deg))
	return s.gpio.WriteServoPulse(s.cfg.Pin, s.angleToPulse(deg))
}

func (s *Positional) angleToPulse(deg float64) time.Duration {
	span := float64(s.cfg.MaxPulse - s.cfg.MinPulse)
	return s.cfg.MinPulse + time.Duration(deg/s.cfg.TravelDeg*span)
}
