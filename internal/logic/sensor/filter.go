package sensor

import "time"

// ChannelState is the filtered state of one detector channel.
type ChannelState int

const (
	Inactive  ChannelState = iota // no signal
	Active                        // signal detected
	Saturated                     // continuously active for too long — ignored
)

func (s ChannelState) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Saturated:
		return "saturated"
	default:
		return "unknown"
	}
}

// Filter debounces one detector channel with a rolling majority vote and
// guards against a channel stuck active (ambient interference, reflective
// surfaces). The window always holds exactly the most recent samples; the
// active count is maintained incrementally so evaluation is O(1).
type Filter struct {
	window      []bool
	index       int
	activeCount int

	activeRun     time.Duration // consecutive-active duration
	saturated     bool
	tickPeriod    time.Duration
	saturateAfter time.Duration

	threshold int
}

// NewFilter creates a channel filter.
// window is the rolling sample count, threshold the number of active samples
// within the window required to report Active. tickPeriod is the sampling
// interval, saturateAfter the continuous-active duration that flags the
// channel as saturated.
func NewFilter(window, threshold int, tickPeriod, saturateAfter time.Duration) *Filter {
	if window < 1 {
		window = 1
	}
	if threshold < 1 {
		threshold = 1
	}
	if threshold > window {
		threshold = window
	}
	return &Filter{
		window:        make([]bool, window),
		threshold:     threshold,
		tickPeriod:    tickPeriod,
		saturateAfter: saturateAfter,
	}
}

// Sample pushes one raw detection into the window, overwriting the oldest
// sample, and advances the saturation tracking. A single inactive sample
// clears the saturation run immediately — there is no gradual decay.
func (f *Filter) Sample(active bool) {
	if f.window[f.index] {
		f.activeCount--
	}
	f.window[f.index] = active
	if active {
		f.activeCount++
	}
	f.index = (f.index + 1) % len(f.window)

	if active {
		f.activeRun += f.tickPeriod
		if f.activeRun >= f.saturateAfter {
			f.saturated = true
		}
	} else {
		f.activeRun = 0
		f.saturated = false
	}
}

// Evaluate returns the filtered channel state. Saturated overrides Active;
// a count of exactly the threshold counts as Active.
func (f *Filter) Evaluate() ChannelState {
	if f.saturated {
		return Saturated
	}
	if f.activeCount >= f.threshold {
		return Active
	}
	return Inactive
}

// Reset clears the window and saturation tracking.
func (f *Filter) Reset() {
	for i := range f.window {
		f.window[i] = false
	}
	f.index = 0
	f.activeCount = 0
	f.activeRun = 0
	f.saturated = false
}
