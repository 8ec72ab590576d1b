package sensor

import (
	"time"

	"github.com/cjeanneret/SentryGo/internal/hw/gpio"
)

// ArrayConfig holds the detector pins and filter tuning for the sensor cross.
type ArrayConfig struct {
	TopPin    int
	BottomPin int
	LeftPin   int
	RightPin  int

	FilterWindow    int
	FilterThreshold int
	TickPeriod      time.Duration
	SaturateAfter   time.Duration
}

// Array samples the four directional detectors behind the divider walls and
// feeds each through its own majority-vote filter.
type Array struct {
	gpio    gpio.Driver
	pins    [4]int // [0]=top, [1]=bottom, [2]=left, [3]=right
	filters [4]*Filter
}

// NewArray creates the sensor array and configures the detector pins as
// pulled-up inputs (the detectors drive the line LOW on detection).
func NewArray(g gpio.Driver, cfg ArrayConfig) (*Array, error) {
	a := &Array{
		gpio: g,
		pins: [4]int{cfg.TopPin, cfg.BottomPin, cfg.LeftPin, cfg.RightPin},
	}
	for i := range a.filters {
		a.filters[i] = NewFilter(cfg.FilterWindow, cfg.FilterThreshold, cfg.TickPeriod, cfg.SaturateAfter)
	}
	for _, pin := range a.pins {
		if err := g.SetupPin(pin, gpio.InputPullup); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Update samples all four detectors once and pushes the results into the
// filters. Call once per loop tick.
func (a *Array) Update() error {
	for i, pin := range a.pins {
		level, err := a.gpio.ReadPin(pin)
		if err != nil {
			return err
		}
		// Active-low: LOW = signal detected.
		a.filters[i].Sample(level == gpio.Low)
	}
	return nil
}

// Filtered returns the debounced four-channel reading.
func (a *Array) Filtered() Reading {
	return Reading{
		Top:    a.filters[0].Evaluate(),
		Bottom: a.filters[1].Evaluate(),
		Left:   a.filters[2].Evaluate(),
		Right:  a.filters[3].Evaluate(),
	}
}

// Direction derives the coarse bearing from the current filtered reading.
func (a *Array) Direction() Direction {
	return a.Filtered().Direction()
}
