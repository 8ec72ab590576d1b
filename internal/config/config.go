package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SensorConfig holds the four detector input pins and filter tuning.
// The TSOP detectors are active-low: the pin reads LOW while a 38 kHz
// modulated signal is present.
type SensorConfig struct {
	TopPin    int `yaml:"top_pin"`
	BottomPin int `yaml:"bottom_pin"`
	LeftPin   int `yaml:"left_pin"`
	RightPin  int `yaml:"right_pin"`

	FilterWindow    int `yaml:"filter_window"`    // rolling majority-vote window size
	FilterThreshold int `yaml:"filter_threshold"` // detections in window to count as active
	SaturatedMs     int `yaml:"saturated_ms"`     // continuous detection before flagging saturated
}

// PanConfig describes the continuous-rotation pan servo and tracking speeds.
type PanConfig struct {
	ServoPin       int `yaml:"servo_pin"`
	StopPulseUs    int `yaml:"stop_pulse_us"`     // per-servo "stopped" calibration
	CWFullPulseUs  int `yaml:"cw_full_pulse_us"`  // full-speed clockwise
	CCWFullPulseUs int `yaml:"ccw_full_pulse_us"` // full-speed counter-clockwise

	LimitDeg         float64 `yaml:"limit_deg"`          // software rotation limit (± from center)
	MinSpeed         float64 `yaml:"min_speed"`          // commands below this produce no motion (backlash)
	DegPerSec        float64 `yaml:"deg_per_sec"`        // full-speed angular rate, for dead reckoning
	FastSpeed        float64 `yaml:"fast_speed"`         // tracking speed when beacon is far off-center
	SlowSpeed        float64 `yaml:"slow_speed"`         // tracking speed when beacon is near center
	ApproachMemoryMs int     `yaml:"approach_memory_ms"` // opposing-channel recency window for "near center"
	HomeToleranceDeg float64 `yaml:"home_tolerance_deg"` // parkHome considers itself done within this
}

// TiltConfig describes the positional tilt servo and its stepping limits.
type TiltConfig struct {
	ServoPin   int `yaml:"servo_pin"`
	MinPulseUs int `yaml:"min_pulse_us"`
	MaxPulseUs int `yaml:"max_pulse_us"`
	TravelDeg  int `yaml:"travel_deg"`

	MinDeg    int `yaml:"min_deg"`
	MaxDeg    int `yaml:"max_deg"`
	HomeDeg   int `yaml:"home_deg"`
	ScanDeg   int `yaml:"scan_deg"`
	StepDeg   int `yaml:"step_deg"`   // max adjustment per nudge
	HoldoffMs int `yaml:"holdoff_ms"` // minimum time between applied nudges
}

// MonitorConfig holds the signal-loss state machine timeouts and the
// status LED.
type MonitorConfig struct {
	StatusLEDPin int `yaml:"status_led_pin"`
	HoldoffMs    int `yaml:"holdoff_ms"` // hysteresis after last detection before loss timers apply
	SearchMs     int `yaml:"search_ms"`  // no signal for this long → SEARCHING
	ParkMs       int `yaml:"park_ms"`    // no signal for this long → PARKED
	BlinkMs      int `yaml:"blink_ms"`   // LED half-period while SEARCHING
}

// SearchConfig tunes the sweep performed while SEARCHING.
type SearchConfig struct {
	SweepDeg   float64 `yaml:"sweep_deg"`   // sweep half-angle from center
	SweepSpeed float64 `yaml:"sweep_speed"` // normalized sweep speed
}

// BeaconConfig is the emitter's fixed burst-timing contract. The turret
// does not generate the carrier; these values only describe what the
// detectors are expected to see (and feed the timing tests).
type BeaconConfig struct {
	CarrierHz      int `yaml:"carrier_hz"`
	BurstOnUs      int `yaml:"burst_on_us"`
	BurstOffUs     int `yaml:"burst_off_us"`
	BurstsPerCycle int `yaml:"bursts_per_cycle"`
	CycleMs        int `yaml:"cycle_ms"` // wake interval between burst trains
}

// DefaultsConfig contains generic runtime parameters.
type DefaultsConfig struct {
	LoopPeriodMs int  `yaml:"loop_period_ms"` // control loop tick period
	DebugLevel   int  `yaml:"debug_level"`    // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO     bool `yaml:"mock_gpio"`      // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Sensors  SensorConfig   `yaml:"sensors"`
	Pan      PanConfig      `yaml:"pan"`
	Tilt     TiltConfig     `yaml:"tilt"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Search   SearchConfig   `yaml:"search"`
	Beacon   BeaconConfig   `yaml:"beacon"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero values with sensible defaults and validates
// the cross-field constraints that clamping cannot repair at runtime.
func (c *Config) applyDefaults() error {
	// Sensor filter
	if c.Sensors.FilterWindow <= 0 {
		c.Sensors.FilterWindow = 8
	}
	if c.Sensors.FilterThreshold <= 0 {
		c.Sensors.FilterThreshold = 6
	}
	if c.Sensors.FilterThreshold > c.Sensors.FilterWindow {
		return fmt.Errorf("filter_threshold (%d) must be <= filter_window (%d)",
			c.Sensors.FilterThreshold, c.Sensors.FilterWindow)
	}
	if c.Sensors.SaturatedMs <= 0 {
		c.Sensors.SaturatedMs = 2000
	}

	// Pan
	if c.Pan.StopPulseUs <= 0 {
		c.Pan.StopPulseUs = 1500
	}
	if c.Pan.CWFullPulseUs <= 0 {
		c.Pan.CWFullPulseUs = 1300
	}
	if c.Pan.CCWFullPulseUs <= 0 {
		c.Pan.CCWFullPulseUs = 1700
	}
	if c.Pan.LimitDeg <= 0 {
		c.Pan.LimitDeg = 135
	}
	if c.Pan.MinSpeed <= 0 {
		c.Pan.MinSpeed = 0.15
	}
	if c.Pan.MinSpeed >= 1 {
		return fmt.Errorf("pan min_speed must be < 1.0, got %.2f", c.Pan.MinSpeed)
	}
	if c.Pan.DegPerSec <= 0 {
		c.Pan.DegPerSec = 60
	}
	if c.Pan.FastSpeed <= 0 {
		c.Pan.FastSpeed = 0.80
	}
	if c.Pan.SlowSpeed <= 0 {
		c.Pan.SlowSpeed = 0.30
	}
	if c.Pan.FastSpeed > 1 || c.Pan.SlowSpeed > 1 {
		return fmt.Errorf("pan speeds must be <= 1.0, got fast=%.2f slow=%.2f",
			c.Pan.FastSpeed, c.Pan.SlowSpeed)
	}
	if c.Pan.ApproachMemoryMs <= 0 {
		c.Pan.ApproachMemoryMs = 750
	}
	if c.Pan.HomeToleranceDeg <= 0 {
		c.Pan.HomeToleranceDeg = 5
	}

	// Tilt
	if c.Tilt.MaxDeg <= 0 {
		c.Tilt.MaxDeg = 45
	}
	if c.Tilt.MinDeg < 0 {
		return fmt.Errorf("tilt min_deg must be >= 0, got %d", c.Tilt.MinDeg)
	}
	if c.Tilt.MaxDeg <= c.Tilt.MinDeg {
		return fmt.Errorf("tilt max_deg (%d) must be > min_deg (%d)", c.Tilt.MaxDeg, c.Tilt.MinDeg)
	}
	if c.Tilt.HomeDeg < c.Tilt.MinDeg || c.Tilt.HomeDeg > c.Tilt.MaxDeg {
		return fmt.Errorf("tilt home_deg (%d) outside [%d, %d]", c.Tilt.HomeDeg, c.Tilt.MinDeg, c.Tilt.MaxDeg)
	}
	if c.Tilt.ScanDeg == 0 {
		c.Tilt.ScanDeg = 20
	}
	if c.Tilt.ScanDeg < c.Tilt.MinDeg || c.Tilt.ScanDeg > c.Tilt.MaxDeg {
		return fmt.Errorf("tilt scan_deg (%d) outside [%d, %d]", c.Tilt.ScanDeg, c.Tilt.MinDeg, c.Tilt.MaxDeg)
	}
	if c.Tilt.StepDeg <= 0 {
		c.Tilt.StepDeg = 1
	}
	if c.Tilt.HoldoffMs <= 0 {
		c.Tilt.HoldoffMs = 100
	}

	// Monitor
	if c.Monitor.HoldoffMs <= 0 {
		c.Monitor.HoldoffMs = 500
	}
	if c.Monitor.SearchMs <= 0 {
		c.Monitor.SearchMs = 3000
	}
	if c.Monitor.ParkMs <= 0 {
		c.Monitor.ParkMs = 15000
	}
	if c.Monitor.SearchMs <= c.Monitor.HoldoffMs {
		return fmt.Errorf("monitor search_ms (%d) must be > holdoff_ms (%d)",
			c.Monitor.SearchMs, c.Monitor.HoldoffMs)
	}
	if c.Monitor.ParkMs <= c.Monitor.SearchMs {
		return fmt.Errorf("monitor park_ms (%d) must be > search_ms (%d)",
			c.Monitor.ParkMs, c.Monitor.SearchMs)
	}
	if c.Monitor.BlinkMs <= 0 {
		c.Monitor.BlinkMs = 500
	}

	// Search
	if c.Search.SweepDeg <= 0 {
		c.Search.SweepDeg = 90
	}
	if c.Search.SweepDeg > c.Pan.LimitDeg {
		return fmt.Errorf("search sweep_deg (%.1f) must be <= pan limit_deg (%.1f)",
			c.Search.SweepDeg, c.Pan.LimitDeg)
	}
	if c.Search.SweepSpeed <= 0 {
		c.Search.SweepSpeed = 0.25
	}

	// Beacon timing contract
	if c.Beacon.CarrierHz <= 0 {
		c.Beacon.CarrierHz = 38000
	}
	if c.Beacon.BurstOnUs <= 0 {
		c.Beacon.BurstOnUs = 600
	}
	if c.Beacon.BurstOffUs <= 0 {
		c.Beacon.BurstOffUs = 600
	}
	if c.Beacon.BurstsPerCycle <= 0 {
		c.Beacon.BurstsPerCycle = 5
	}
	if c.Beacon.CycleMs <= 0 {
		c.Beacon.CycleMs = 120
	}

	// Defaults
	if c.Defaults.LoopPeriodMs <= 0 {
		c.Defaults.LoopPeriodMs = 20
	}

	return nil
}

// LoopPeriod returns the control loop tick period.
func (c *Config) LoopPeriod() time.Duration {
	return time.Duration(c.Defaults.LoopPeriodMs) * time.Millisecond
}

// SaturationDuration returns the continuous-detection duration after which
// a channel is flagged as saturated.
func (c *Config) SaturationDuration() time.Duration {
	return time.Duration(c.Sensors.SaturatedMs) * time.Millisecond
}

// SignalHoldoff returns the hysteresis window after the last detection.
func (c *Config) SignalHoldoff() time.Duration {
	return time.Duration(c.Monitor.HoldoffMs) * time.Millisecond
}

// SearchTimeout returns the signal-loss duration before SEARCHING.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Monitor.SearchMs) * time.Millisecond
}

// ParkTimeout returns the signal-loss duration before PARKED.
func (c *Config) ParkTimeout() time.Duration {
	return time.Duration(c.Monitor.ParkMs) * time.Millisecond
}

// BlinkHalfPeriod returns the status LED blink half-period for SEARCHING.
func (c *Config) BlinkHalfPeriod() time.Duration {
	return time.Duration(c.Monitor.BlinkMs) * time.Millisecond
}

// ApproachMemory returns the opposing-channel recency window used by the
// near-center pan heuristic.
func (c *Config) ApproachMemory() time.Duration {
	return time.Duration(c.Pan.ApproachMemoryMs) * time.Millisecond
}

// TiltHoldoff returns the minimum time between applied tilt nudges.
func (c *Config) TiltHoldoff() time.Duration {
	return time.Duration(c.Tilt.HoldoffMs) * time.Millisecond
}

// PanStopPulse returns the pan servo "stopped" pulse width.
func (c *Config) PanStopPulse() time.Duration {
	return time.Duration(c.Pan.StopPulseUs) * time.Microsecond
}

// PanCWFullPulse returns the pan servo full-speed clockwise pulse width.
func (c *Config) PanCWFullPulse() time.Duration {
	return time.Duration(c.Pan.CWFullPulseUs) * time.Microsecond
}

// PanCCWFullPulse returns the pan servo full-speed counter-clockwise pulse width.
func (c *Config) PanCCWFullPulse() time.Duration {
	return time.Duration(c.Pan.CCWFullPulseUs) * time.Microsecond
}

// TiltMinPulse returns the tilt servo minimum pulse width.
func (c *Config) TiltMinPulse() time.Duration {
	return time.Duration(c.Tilt.MinPulseUs) * time.Microsecond
}

// TiltMaxPulse returns the tilt servo maximum pulse width.
func (c *Config) TiltMaxPulse() time.Duration {
	return time.Duration(c.Tilt.MaxPulseUs) * time.Microsecond
}
