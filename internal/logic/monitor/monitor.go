package monitor

import "time"

// State is the signal-presence state.
type State int

const (
	Tracking  State = iota // signal seen recently, normal tracking
	Searching              // signal lost, sweeping for it
	Parked                 // signal lost for long, everything at home
)

func (s State) String() string {
	switch s {
	case Tracking:
		return "TRACKING"
	case Searching:
		return "SEARCHING"
	case Parked:
		return "PARKED"
	default:
		return "UNKNOWN"
	}
}

// Config holds the signal-loss timeouts. All three are measured from the
// last true detection, not from a separate "signal lost" event, so the
// holdoff naturally absorbs brief gaps.
type Config struct {
	Holdoff       time.Duration // hysteresis window; state unchanged within it
	SearchTimeout time.Duration // elapsed >= this → Searching
	ParkTimeout   time.Duration // elapsed >= this → Parked
}

// Monitor is the signal-loss state machine. It starts in Tracking.
type Monitor struct {
	cfg        Config
	state      State
	prev       State
	lastSignal time.Time
}

// New creates a monitor in the Tracking state, with the detection timer
// anchored at now.
func New(cfg Config, now time.Time) *Monitor {
	return &Monitor{
		cfg:        cfg,
		state:      Tracking,
		prev:       Tracking,
		lastSignal: now,
	}
}

// Update feeds the monitor with the current detection status.
// Call once per loop tick. The pre-update state is snapshotted so the
// caller can detect transitions via StateChanged.
func (m *Monitor) Update(now time.Time, anySignal bool) {
	m.prev = m.state

	if anySignal {
		m.lastSignal = now
		// Any detection immediately returns us to Tracking, from any state.
		m.state = Tracking
		return
	}

	elapsed := now.Sub(m.lastSignal)

	// Within the hysteresis window: brief dropouts do not move the machine.
	if elapsed < m.cfg.Holdoff {
		return
	}

	switch {
	case elapsed >= m.cfg.ParkTimeout:
		m.state = Parked
	case elapsed >= m.cfg.SearchTimeout:
		m.state = Searching
	}
	// else: past holdoff but before the search threshold — stay put.
}

// State returns the current state.
func (m *Monitor) State() State {
	return m.state
}

// PreviousState returns the state before the most recent Update.
func (m *Monitor) PreviousState() State {
	return m.prev
}

// StateChanged reports whether the most recent Update changed the state.
func (m *Monitor) StateChanged() bool {
	return m.state != m.prev
}
