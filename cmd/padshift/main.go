// Command padshift reads game controllers, classifies button and trigger
// input into bound actions and publishes them to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sweeney/padshift/internal/button"
	"github.com/sweeney/padshift/internal/device"
	"github.com/sweeney/padshift/internal/logging"
	"github.com/sweeney/padshift/internal/mqtt"
	"github.com/sweeney/padshift/internal/pad"
	"github.com/sweeney/padshift/internal/profile"
	"github.com/sweeney/padshift/internal/status"
	"github.com/sweeney/padshift/internal/web"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "padshift",
		Usage: "map controller input to actions over MQTT",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "device",
				Usage:   "evdev `PATH` of a controller; repeat for the halves of a split controller",
				EnvVars: []string{"PADSHIFT_DEVICE"},
			},
			&cli.StringFlag{
				Name:    "gpio-chip",
				Value:   "gpiochip0",
				Usage:   "GPIO character device for --gpio-pins",
				EnvVars: []string{"PADSHIFT_GPIO_CHIP"},
			},
			&cli.StringFlag{
				Name:    "gpio-pins",
				Usage:   "buttons wired to GPIO lines, e.g. `S=17,E=27,ZL=22`",
				EnvVars: []string{"PADSHIFT_GPIO_PINS"},
			},
			&cli.DurationFlag{
				Name:    "poll",
				Value:   pad.DefaultTick,
				Usage:   "controller polling interval",
				EnvVars: []string{"PADSHIFT_POLL"},
			},
			&cli.DurationFlag{
				Name:    "tick",
				Usage:   "tick time assumed by trigger effect ramps (0 uses --poll)",
				EnvVars: []string{"PADSHIFT_TICK"},
			},
			&cli.StringFlag{
				Name:    "broker",
				Value:   "tcp://localhost:1883",
				Usage:   "MQTT broker address",
				EnvVars: []string{"PADSHIFT_BROKER"},
			},
			&cli.StringFlag{
				Name:    "client-id",
				Value:   mqtt.DefaultClientID,
				Usage:   "MQTT client ID",
				EnvVars: []string{"PADSHIFT_CLIENT_ID"},
			},
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "binding profile `FILE`, reloaded on change",
				EnvVars: []string{"PADSHIFT_PROFILE"},
			},
			&cli.StringFlag{
				Name:    "http",
				Value:   ":8080",
				Usage:   "HTTP status address (empty to disable)",
				EnvVars: []string{"PADSHIFT_HTTP"},
			},
			&cli.DurationFlag{
				Name:    "heartbeat",
				Value:   15 * time.Minute,
				Usage:   "heartbeat interval (0 to disable)",
				EnvVars: []string{"PADSHIFT_HEARTBEAT"},
			},
			&cli.BoolFlag{
				Name:    "digital-triggers",
				Usage:   "treat every trigger as a plain switch",
				EnvVars: []string{"PADSHIFT_DIGITAL_TRIGGERS"},
			},
			&cli.BoolFlag{
				Name:    "adaptive-triggers",
				Usage:   "controllers render trigger resistance effects",
				EnvVars: []string{"PADSHIFT_ADAPTIVE_TRIGGERS"},
			},
			&cli.BoolFlag{
				Name:    "print-state",
				Usage:   "print the current controller state and exit",
				EnvVars: []string{"PADSHIFT_PRINT_STATE"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				EnvVars: []string{"PADSHIFT_DEBUG"},
			},
		},
		Action: run,
	}
}

// input is one controller feeding its Pad.
type input struct {
	reader device.Reader
	pad    *pad.Pad
}

func run(c *cli.Context) (err error) {
	logger, err := logging.NewLogger("padshift", c.Bool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	readers, err := openReaders(c)
	if err != nil {
		return err
	}
	defer func() {
		for _, r := range readers {
			err = multierr.Append(err, r.Close())
		}
	}()

	if c.Bool("print-state") {
		return printState(readers)
	}

	clk := clock.New()
	poll := c.Duration("poll")
	tick := c.Duration("tick")
	if tick <= 0 {
		tick = poll
	}

	session := pad.NewSession(logger.Named("pad"), pad.WithTick(tick))
	inputs := make([]input, 0, len(readers))
	names := make([]string, 0, len(readers))
	for _, r := range readers {
		info := r.Info()
		if c.Bool("digital-triggers") {
			info.DigitalTriggers = true
		}
		p := pad.NewPad(session, info)
		if len(p.Inputs()) == 0 {
			logger.Warnw("controller has no unclaimed inputs", "device", info.Name)
		}
		inputs = append(inputs, input{reader: r, pad: p})
		names = append(names, info.Name)
	}

	tracker := status.NewTracker(clk, status.Config{
		PollMs:      poll.Milliseconds(),
		TickMs:      tick.Milliseconds(),
		HeartbeatMs: c.Duration("heartbeat").Milliseconds(),
		Broker:      c.String("broker"),
		HTTPAddr:    c.String("http"),
		Profile:     c.String("profile"),
	})
	tracker.SetDevices(names)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if path := c.String("profile"); path != "" {
		w, werr := watchProfile(ctx, path, session, tracker, clk, logger.Named("profile"))
		if werr != nil {
			return werr
		}
		defer func() { err = multierr.Append(err, w.Close()) }()
	}

	publisher := mqtt.NewRealPublisher(mqtt.Config{
		Broker:   c.String("broker"),
		ClientID: c.String("client-id"),
	}, logger.Named("mqtt"))
	defer publisher.Close()

	// Publish startup event with full status snapshot
	tracker.Update(session.Snapshot())
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logger.Errorw("failed to publish startup event", "error", err)
	}

	if addr := c.String("http"); addr != "" {
		srv := web.New(addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorw("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Infow("http status server listening", "addr", addr)
	}

	logger.Infow("started", "devices", names, "poll", poll, "tick", tick, "broker", c.String("broker"))

	ticker := clk.Ticker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopConfig{
		log:       logger,
		clock:     clk,
		session:   session,
		inputs:    inputs,
		publisher: publisher,
		conn:      publisher,
		tracker:   tracker,
		heartbeat: c.Duration("heartbeat"),
	}, ticker.C, sigCh)
}

// watchProfile applies the profile at path and keeps applying it as the
// file changes, until ctx is done.
func watchProfile(ctx context.Context, path string, session *pad.Session, tracker *status.Tracker, clk clock.Clock, logger *zap.SugaredLogger) (*profile.Watcher, error) {
	apply := func(p *profile.Profile) {
		session.Rebind(p.Mappings, p.Table)
		tracker.ProfileLoaded(clk.Now())
	}

	p, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	apply(p)

	w, err := profile.NewWatcher(path, clk, logger, apply)
	if err != nil {
		return nil, err
	}
	go w.Run(ctx)
	return w, nil
}

// openReaders opens every configured controller. On error the readers
// already opened are closed.
func openReaders(c *cli.Context) ([]device.Reader, error) {
	var readers []device.Reader
	fail := func(err error) ([]device.Reader, error) {
		for _, r := range readers {
			err = multierr.Append(err, r.Close())
		}
		return nil, err
	}

	for _, path := range c.StringSlice("device") {
		r, err := device.NewEvdevReader(path, c.Bool("adaptive-triggers"))
		if err != nil {
			return fail(fmt.Errorf("init device: %w", err))
		}
		readers = append(readers, r)
	}
	if spec := c.String("gpio-pins"); spec != "" {
		pins, err := device.ParsePins(spec)
		if err != nil {
			return fail(fmt.Errorf("gpio pins: %w", err))
		}
		r, err := device.NewGPIOReader(c.String("gpio-chip"), pins)
		if err != nil {
			return fail(fmt.Errorf("init gpio: %w", err))
		}
		readers = append(readers, r)
	}
	if len(readers) == 0 {
		return nil, errors.New("no controller configured: use --device or --gpio-pins")
	}
	return readers, nil
}

func printState(readers []device.Reader) error {
	for _, r := range readers {
		smp, err := r.Read()
		if err != nil {
			return fmt.Errorf("read %s: %w", r.Info().Name, err)
		}
		fmt.Println(formatSample(r.Info(), smp))
	}
	return nil
}

// formatSample renders a sample as "name: S E ZL=0.40 ZR=0.00".
func formatSample(info device.Info, smp device.Sample) string {
	var b strings.Builder
	b.WriteString(info.Name)
	b.WriteString(":")
	pressed := 0
	for _, id := range info.Buttons {
		switch id {
		case button.ZL:
			fmt.Fprintf(&b, " ZL=%.2f", smp.Left)
		case button.ZR:
			fmt.Fprintf(&b, " ZR=%.2f", smp.Right)
		default:
			if smp.Buttons.Has(id) {
				b.WriteString(" " + id.String())
				pressed++
			}
		}
	}
	if pressed == 0 {
		b.WriteString(" (no buttons)")
	}
	return b.String()
}

type loopConfig struct {
	log       *zap.SugaredLogger
	clock     clock.Clock
	session   *pad.Session
	inputs    []input
	publisher mqtt.Publisher
	conn      mqtt.ConnectionStatus
	tracker   *status.Tracker
	heartbeat time.Duration
}

func runLoop(cfg loopConfig, tick <-chan time.Time, sig <-chan os.Signal) error {
	log := cfg.log
	lastHeartbeat := cfg.clock.Now()

	for {
		select {
		case s := <-sig:
			log.Infow("shutting down", "signal", s.String())
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: cfg.clock.Now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if cfg.tracker != nil {
				cfg.refresh()
				event.RawPayload = status.FormatStatusEvent(cfg.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := cfg.publisher.PublishSystem(event); err != nil {
				log.Errorw("failed to publish shutdown event", "error", err)
			}
			return nil

		case t := <-tick:
			for _, in := range cfg.inputs {
				smp, err := in.reader.Read()
				if err != nil {
					log.Errorw("controller read error", "device", in.pad.Name(), "error", err)
					continue
				}
				cfg.publish(t, in.pad.Tick(t, smp))
			}

			if cfg.tracker == nil {
				continue
			}
			cfg.refresh()

			if cfg.heartbeat > 0 && t.Sub(lastHeartbeat) >= cfg.heartbeat {
				lastHeartbeat = t
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					cfg.tracker.SetNetwork(net)
				}
				snap := cfg.tracker.Snapshot()
				log.Infow("heartbeat", "uptime", snap.Uptime(), "presses", snap.Pad.Counts.Press, "faults", snap.Pad.Faults)
				hb := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := cfg.publisher.PublishSystem(hb); err != nil {
					log.Errorw("heartbeat publish error", "error", err)
				}
			}
		}
	}
}

// publish sends one tick's output. Publish failures are logged and the
// loop carries on.
func (cfg loopConfig) publish(t time.Time, r pad.Result) {
	for _, a := range r.Actions {
		cfg.log.Debugw("action", "kind", a.Kind, "binding", a.Binding, "button", a.Button.String(), "combo", a.Combo)
		if err := cfg.publisher.Publish(a); err != nil {
			cfg.log.Errorw("publish error", "error", err)
		}
	}
	for _, e := range r.Effects {
		if err := cfg.publisher.PublishHaptic(mqtt.HapticEvent{Timestamp: t, Side: e.Side, Effect: e.Effect}); err != nil {
			cfg.log.Errorw("haptic publish error", "error", err)
		}
	}
	for _, a := range r.Axes {
		if err := cfg.publisher.PublishAxis(mqtt.AxisEvent{Timestamp: t, Side: a.Side, Position: a.Position}); err != nil {
			cfg.log.Errorw("axis publish error", "error", err)
		}
	}
}

// refresh updates the status tracker for HTTP and heartbeat consumers.
func (cfg loopConfig) refresh() {
	cfg.tracker.Update(cfg.session.Snapshot())
	if cfg.conn != nil {
		cfg.tracker.SetMQTTConnected(cfg.conn.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
