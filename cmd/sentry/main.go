package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/cjeanneret/SentryGo/internal/config"
	"github.com/cjeanneret/SentryGo/internal/debug"
	"github.com/cjeanneret/SentryGo/internal/hw/gpio"
	"github.com/cjeanneret/SentryGo/internal/hw/servo"
	"github.com/cjeanneret/SentryGo/internal/logic/axis"
	"github.com/cjeanneret/SentryGo/internal/logic/loop"
	"github.com/cjeanneret/SentryGo/internal/logic/monitor"
	"github.com/cjeanneret/SentryGo/internal/logic/sensor"
	"github.com/cjeanneret/SentryGo/internal/logic/track"
	"github.com/cjeanneret/SentryGo/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "serve status page on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	debugLevel := flag.Int("debug", -1, "override debug level (0-4, -1 = use config)")
	mockGPIO := flag.Bool("mock", false, "force mock GPIO driver (development mode)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if *debugLevel >= 0 {
		cfg.Defaults.DebugLevel = *debugLevel
	}
	if *mockGPIO {
		cfg.Defaults.MockGPIO = true
	}

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Loop period", cfg.LoopPeriod())

	// Initialize GPIO driver
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	controller, err := buildController(gpioDriver, cfg)
	if err != nil {
		log.Fatalf("init controller failed: %v", err)
	}

	if port := webPort.port(); port > 0 {
		broadcaster := web.NewBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		srv := web.NewServer(fmt.Sprintf(":%d", port), broadcaster)
		controller.OnStatus(srv.Handlers().SetSnapshot)

		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("web server: %v", err)
				cancel()
			}
		}()
	}

	debug.Summary("Ready. Waiting for beacon signal.")
	if err := controller.Run(ctx); err != nil {
		log.Fatalf("control loop: %v", err)
	}
}

// buildController wires sensors, monitor, axes and tracking engine into the
// control loop.
func buildController(g gpio.Driver, cfg *config.Config) (*loop.Loop, error) {
	now := time.Now()

	debug.Step(2, "Initializing sensor array")
	sensors, err := sensor.NewArray(g, sensor.ArrayConfig{
		TopPin:          cfg.Sensors.TopPin,
		BottomPin:       cfg.Sensors.BottomPin,
		LeftPin:         cfg.Sensors.LeftPin,
		RightPin:        cfg.Sensors.RightPin,
		FilterWindow:    cfg.Sensors.FilterWindow,
		FilterThreshold: cfg.Sensors.FilterThreshold,
		TickPeriod:      cfg.LoopPeriod(),
		SaturateAfter:   cfg.SaturationDuration(),
	})
	if err != nil {
		return nil, fmt.Errorf("sensor array: %w", err)
	}
	debug.PrintStruct("Sensor config", cfg.Sensors)

	debug.Step(3, "Initializing servos")
	panServo := servo.NewContinuous(g, servo.ContinuousConfig{
		Pin:          cfg.Pan.ServoPin,
		StopPulse:    cfg.PanStopPulse(),
		CWFullPulse:  cfg.PanCWFullPulse(),
		CCWFullPulse: cfg.PanCCWFullPulse(),
	})
	tiltServo := servo.NewPositional(g, servo.PositionalConfig{
		Pin:       cfg.Tilt.ServoPin,
		MinPulse:  cfg.TiltMinPulse(),
		MaxPulse:  cfg.TiltMaxPulse(),
		TravelDeg: float64(cfg.Tilt.TravelDeg),
	})

	debug.Step(4, "Initializing axis controllers")
	pan := axis.NewPan(panServo, axis.PanConfig{
		LimitDeg:         cfg.Pan.LimitDeg,
		MinSpeed:         cfg.Pan.MinSpeed,
		DegPerSec:        cfg.Pan.DegPerSec,
		SlowSpeed:        cfg.Pan.SlowSpeed,
		HomeToleranceDeg: cfg.Pan.HomeToleranceDeg,
	})
	tilt := axis.NewTilt(tiltServo, axis.TiltConfig{
		MinDeg:  cfg.Tilt.MinDeg,
		MaxDeg:  cfg.Tilt.MaxDeg,
		HomeDeg: cfg.Tilt.HomeDeg,
		ScanDeg: cfg.Tilt.ScanDeg,
		StepDeg: cfg.Tilt.StepDeg,
		Holdoff: cfg.TiltHoldoff(),
	}, now)

	debug.Step(5, "Initializing signal monitor")
	mon := monitor.New(monitor.Config{
		Holdoff:       cfg.SignalHoldoff(),
		SearchTimeout: cfg.SearchTimeout(),
		ParkTimeout:   cfg.ParkTimeout(),
	}, now)
	led, err := monitor.NewLEDSink(g, cfg.Monitor.StatusLEDPin)
	if err != nil {
		return nil, fmt.Errorf("status LED: %w", err)
	}
	indicator := monitor.NewIndicator(led, cfg.BlinkHalfPeriod(), now)

	engine := track.NewEngine(pan, tilt, track.Config{
		FastSpeed:      cfg.Pan.FastSpeed,
		SlowSpeed:      cfg.Pan.SlowSpeed,
		ApproachMemory: cfg.ApproachMemory(),
		TiltStepDeg:    cfg.Tilt.StepDeg,
	})

	return loop.New(loop.Config{
		Period:     cfg.LoopPeriod(),
		SweepDeg:   cfg.Search.SweepDeg,
		SweepSpeed: cfg.Search.SweepSpeed,
	}, sensors, mon, indicator, engine, pan, tilt), nil
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
