// Package beacon describes the emitter's fixed burst-timing contract.
//
// The beacon is external to this controller: a periodic carrier generator
// with no framing or addressing. Its timing is modelled here only so the
// test harness can reason about what the detectors are expected to see —
// nothing in this package generates a carrier or drives hardware.
package beacon

import "time"

// Timing is the emitter's transmit pattern: a train of carrier bursts
// followed by a sleep interval, repeated indefinitely.
type Timing struct {
	CarrierHz      int           // modulation frequency the detectors demodulate
	BurstOn        time.Duration // carrier ON per burst
	BurstOff       time.Duration // silent gap after each burst
	BurstsPerCycle int           // ON/OFF pairs per wake cycle
	CycleInterval  time.Duration // sleep between burst trains
}

// Default is the production beacon pattern: 38 kHz carrier,
// 5 × (600 µs on + 600 µs off) every ~120 ms.
var Default = Timing{
	CarrierHz:      38000,
	BurstOn:        600 * time.Microsecond,
	BurstOff:       600 * time.Microsecond,
	BurstsPerCycle: 5,
	CycleInterval:  120 * time.Millisecond,
}

// ActiveWindow returns the duration of one burst train (carrier activity
// including the inter-burst gaps).
func (t Timing) ActiveWindow() time.Duration {
	return time.Duration(t.BurstsPerCycle) * (t.BurstOn + t.BurstOff)
}

// Period returns the full cycle duration: one burst train plus the sleep.
func (t Timing) Period() time.Duration {
	return t.ActiveWindow() + t.CycleInterval
}

// DutyCycle returns the fraction of a cycle the carrier is actually on.
func (t Timing) DutyCycle() float64 {
	on := time.Duration(t.BurstsPerCycle) * t.BurstOn
	return float64(on) / float64(t.Period())
}

// CarrierPeriod returns the period of a single carrier oscillation.
func (t Timing) CarrierPeriod() time.Duration {
	if t.CarrierHz <= 0 {
		return 0
	}
	return time.Duration(int64(time.Second) / int64(t.CarrierHz))
}

// ActiveAt reports whether the carrier is on at offset d into a cycle.
// Offsets past the cycle period wrap around.
func (t Timing) ActiveAt(d time.Duration) bool {
	period := t.Period()
	if period <= 0 {
		return false
	}
	d = d % period
	if d >= t.ActiveWindow() {
		return false // sleeping
	}
	return d%(t.BurstOn+t.BurstOff) < t.BurstOn
}

// DetectableAt reports whether a detector sampled at offset d into a cycle
// sees the burst train. Real detector packages stretch each burst by tens
// of microseconds, so any offset inside the active window reads as
// detection; the inter-burst gaps are shorter than the detector's output
// hold time.
func (t Timing) DetectableAt(d time.Duration) bool {
	period := t.Period()
	if period <= 0 {
		return false
	}
	return d%period < t.ActiveWindow()
}
