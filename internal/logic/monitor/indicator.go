package monitor

import (
	"time"

	"github.com/cjeanneret/SentryGo/internal/hw/gpio"
)

// Sink is anything that can show the tri-state status:
// solid = Tracking, blinking = Searching, off = Parked.
type Sink interface {
	SetLit(on bool) error
}

// Indicator drives a Sink from the monitor state, handling blink timing
// internally. Update it once per loop tick regardless of mode.
type Indicator struct {
	sink      Sink
	blinkHalf time.Duration
	lastBlink time.Time
	lit       bool
}

// NewIndicator creates an indicator with the given blink half-period.
// The sink starts lit, matching the monitor's initial Tracking state.
func NewIndicator(sink Sink, blinkHalf time.Duration, now time.Time) *Indicator {
	ind := &Indicator{
		sink:      sink,
		blinkHalf: blinkHalf,
		lastBlink: now,
	}
	ind.lit = true
	_ = sink.SetLit(true)
	return ind
}

// Update reflects the given state on the sink.
func (i *Indicator) Update(now time.Time, state State) error {
	switch state {
	case Tracking:
		i.lit = true
	case Searching:
		if now.Sub(i.lastBlink) >= i.blinkHalf {
			i.lit = !i.lit
			i.lastBlink = now
		}
	case Parked:
		i.lit = false
	}
	return i.sink.SetLit(i.lit)
}

// LEDSink drives a status LED on a GPIO output pin.
type LEDSink struct {
	gpio gpio.Driver
	pin  int
}

// NewLEDSink configures the LED pin as an output.
func NewLEDSink(g gpio.Driver, pin int) (*LEDSink, error) {
	if err := g.SetupPin(pin, gpio.Output); err != nil {
		return nil, err
	}
	return &LEDSink{gpio: g, pin: pin}, nil
}

func (l *LEDSink) SetLit(on bool) error {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	return l.gpio.WritePin(l.pin, level)
}
