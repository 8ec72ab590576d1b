package loop

import (
	"context"
	"time"

	"github.com/cjeanneret/SentryGo/internal/debug"
	"github.com/cjeanneret/SentryGo/internal/logic/axis"
	"github.com/cjeanneret/SentryGo/internal/logic/monitor"
	"github.com/cjeanneret/SentryGo/internal/logic/sensor"
	"github.com/cjeanneret/SentryGo/internal/logic/track"
)

// statusInterval throttles the live status line to ~2 Hz.
const statusInterval = 500 * time.Millisecond

// Config holds the loop period and search-sweep tuning.
type Config struct {
	Period     time.Duration // tick period (nominal 20 ms)
	SweepDeg   float64       // search sweep half-angle from center
	SweepSpeed float64       // normalized sweep speed
}

// Loop runs the control pipeline. Per tick, in strict order: sample and
// filter sensors, update the signal monitor, run one-time state-entry
// actions, dispatch on mode, integrate the pan position, update the status
// indicator. All state is single-writer and touched only from Tick, so no
// locking is needed.
type Loop struct {
	cfg       Config
	sensors   *sensor.Array
	mon       *monitor.Monitor
	indicator *monitor.Indicator
	engine    *track.Engine
	pan       *axis.Pan
	tilt      *axis.Tilt

	sweepCW    bool // current search sweep direction
	lastStatus time.Time

	// onStatus, if set, receives a snapshot at the status interval.
	// Called from the loop goroutine; the receiver must not block.
	onStatus func(Snapshot)
}

// New wires the loop to its components.
func New(cfg Config, sensors *sensor.Array, mon *monitor.Monitor,
	indicator *monitor.Indicator, engine *track.Engine,
	pan *axis.Pan, tilt *axis.Tilt) *Loop {
	return &Loop{
		cfg:       cfg,
		sensors:   sensors,
		mon:       mon,
		indicator: indicator,
		engine:    engine,
		pan:       pan,
		tilt:      tilt,
		sweepCW:   true,
	}
}

// Tick executes one pipeline iteration at the given instant.
func (l *Loop) Tick(now time.Time) error {
	// 1. Sample sensors into the filters.
	if err := l.sensors.Update(); err != nil {
		return err
	}
	reading := l.sensors.Filtered()

	// 2. Signal monitor.
	l.mon.Update(now, reading.AnyActive())
	state := l.mon.State()

	// 3. One-time state-entry actions.
	if l.mon.StateChanged() {
		if err := l.onEnter(state, l.mon.PreviousState()); err != nil {
			return err
		}
	}

	// 4. Mode dispatch.
	var err error
	switch state {
	case monitor.Tracking:
		err = l.engine.Update(now, reading)
	case monitor.Searching:
		err = l.search()
	case monitor.Parked:
		err = l.park()
	}
	if err != nil {
		return err
	}

	// 5. Dead-reckoning position integration, every tick regardless of mode.
	l.pan.UpdatePosition(l.cfg.Period)

	// 6. Status indicator.
	if err := l.indicator.Update(now, state); err != nil {
		return err
	}

	if now.Sub(l.lastStatus) >= statusInterval {
		l.lastStatus = now
		debug.Status(state.String(), l.pan.PositionDeg(), l.tilt.Angle(),
			reading.Top == sensor.Active, reading.Bottom == sensor.Active,
			reading.Left == sensor.Active, reading.Right == sensor.Active)
		if l.onStatus != nil {
			l.onStatus(l.snapshot(state, reading))
		}
	}

	return nil
}

// OnStatus registers a callback for throttled status snapshots.
// Set it before Run; the callback runs on the loop goroutine.
func (l *Loop) OnStatus(fn func(Snapshot)) {
	l.onStatus = fn
}

// Run ticks the loop at the configured period until ctx is cancelled.
// A stalled tick is the concern of an external watchdog; the loop itself
// performs no timeout recovery.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.engine.Halt()
		case now := <-ticker.C:
			if err := l.Tick(now); err != nil {
				return err
			}
		}
	}
}

// onEnter runs the one-time action for a state transition.
func (l *Loop) onEnter(state, prev monitor.State) error {
	debug.Transition(prev.String(), state.String())

	switch state {
	case monitor.Tracking:
		// Coming from Parked the position estimate may have drifted while
		// stationary; the platform parked at home, so 0° is the best guess.
		if prev == monitor.Parked {
			l.pan.ResetPosition()
		}
	case monitor.Searching:
		if err := l.engine.Halt(); err != nil {
			return err
		}
		// Start the sweep toward center so it stays roughly symmetric.
		l.sweepCW = l.pan.PositionDeg() <= 0
	case monitor.Parked:
		return l.engine.Halt()
	}
	return nil
}

// search sweeps the pan axis slowly between ±SweepDeg with the tilt axis
// held at the scan angle.
func (l *Loop) search() error {
	if err := l.tilt.GoScan(); err != nil {
		return err
	}

	if l.sweepCW {
		if err := l.pan.SetSpeed(l.cfg.SweepSpeed); err != nil {
			return err
		}
		if l.pan.PositionDeg() >= l.cfg.SweepDeg {
			l.sweepCW = false
		}
		return nil
	}

	if err := l.pan.SetSpeed(-l.cfg.SweepSpeed); err != nil {
		return err
	}
	if l.pan.PositionDeg() <= -l.cfg.SweepDeg {
		l.sweepCW = true
	}
	return nil
}

// park drives both axes home. Pan is polled each tick until it reports done.
func (l *Loop) park() error {
	if _, err := l.pan.ParkHome(); err != nil {
		return err
	}
	return l.tilt.ParkHome()
}

// snapshot builds the point-in-time view published to the web status page.
func (l *Loop) snapshot(state monitor.State, reading sensor.Reading) Snapshot {
	return Snapshot{
		State:     state.String(),
		PanDeg:    l.pan.PositionDeg(),
		TiltDeg:   l.tilt.Angle(),
		Direction: reading.Direction().String(),
		Top:       reading.Top.String(),
		Bottom:    reading.Bottom.String(),
		Left:      reading.Left.String(),
		Right:     reading.Right.String(),
	}
}

// Snapshot is a point-in-time view of the controller, JSON-ready.
type Snapshot struct {
	State     string  `json:"state"`
	PanDeg    float64 `json:"pan_deg"`
	TiltDeg   int     `json:"tilt_deg"`
	Direction string  `json:"direction"`
	Top       string  `json:"top"`
	Bottom    string  `json:"bottom"`
	Left      string  `json:"left"`
	Right     string  `json:"right"`
}
