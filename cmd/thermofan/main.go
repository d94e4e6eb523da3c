// Command thermofan drives a fan relay from a DHT11 reading and shows the
// temperature on a two-digit multiplexed seven-segment display.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/thermofan/internal/config"
	"github.com/sweeney/thermofan/internal/controller"
	"github.com/sweeney/thermofan/internal/diag"
	"github.com/sweeney/thermofan/internal/gpio"
	"github.com/sweeney/thermofan/internal/logic"
	"github.com/sweeney/thermofan/internal/mqtt"
	"github.com/sweeney/thermofan/internal/sensor"
	"github.com/sweeney/thermofan/internal/status"
	"github.com/sweeney/thermofan/internal/tick"
	"github.com/sweeney/thermofan/internal/web"
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("fatal: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type options struct {
	cfg         config.File
	printState  bool
	printWiring bool
	sim         bool
}

// parseFlags loads the config file and applies explicitly set flags over it.
func parseFlags(args []string) (options, error) {
	d := config.Default()
	fs := flag.NewFlagSet("thermofan", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "YAML config file (missing file means defaults)")
	quantum := fs.Duration("quantum", d.Quantum, "Scheduler quantum; the display task runs every quantum")
	threshold := fs.Int("threshold", d.ThresholdF, "Fan threshold in degrees F")
	sensorInterval := fs.Duration("sensor-interval", d.SensorInterval, "Minimum time between sensor reads")
	broker := fs.String("broker", d.Broker, "MQTT broker address")
	heartbeat := fs.Duration("heartbeat", d.Heartbeat, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", d.HTTP, "HTTP status address (empty to disable)")
	chip := fs.String("chip", d.Chip, "GPIO chip name")
	iio := fs.String("iio", d.IIO, "IIO device directory of the DHT11")
	printState := fs.Bool("print-state", false, "Read the sensor once, print it and exit")
	printWiring := fs.Bool("print-wiring", false, "Print the pin table and exit")
	sim := fs.Bool("sim", false, "Run against simulated GPIO and sensor")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return options{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "quantum":
			cfg.Quantum = *quantum
			cfg.DisplayPeriod = *quantum
		case "threshold":
			cfg.ThresholdF = *threshold
		case "sensor-interval":
			cfg.SensorInterval = *sensorInterval
		case "broker":
			cfg.Broker = *broker
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP = *httpAddr
		case "chip":
			cfg.Chip = *chip
		case "iio":
			cfg.IIO = *iio
		}
	})

	return options{
		cfg:         cfg,
		printState:  *printState,
		printWiring: *printWiring,
		sim:         *sim,
	}, nil
}

func run(opts options) error {
	cfg := opts.cfg
	wiring := cfg.GPIOWiring()

	if opts.printWiring {
		return printWiring(os.Stdout, wiring)
	}

	// Initialize sensor
	var sens sensor.Sensor
	if opts.sim {
		sens = sensor.NewSimSensor(22, 26, 0.5)
	} else {
		iio, err := sensor.NewIIOSensor(cfg.IIO)
		if err != nil {
			return fmt.Errorf("init sensor: %w", err)
		}
		sens = iio
	}

	// Print state mode
	if opts.printState {
		return printState(os.Stdout, sens, cfg.ThresholdF)
	}

	// The control loop must only ever wait on the tick.
	sens = sensor.NewAsync(sens)

	// Initialize GPIO with every output in its safe level
	var writer gpio.Writer
	if opts.sim {
		fw := gpio.NewFakeWriter()
		fw.NoHistory = true
		writer = fw
	} else {
		w, err := gpio.NewRealWriter(cfg.Chip, initialLevels(wiring, cfg.DigitActiveLow))
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		writer = w
	}
	defer writer.Close()

	start := time.Now()
	ctrl, err := controller.New(cfg.Controller(), start,
		gpio.NewRelay(writer, wiring.Relay),
		gpio.NewDisplay(writer, wiring, cfg.DigitActiveLow),
		sens,
		diag.NewConsole(os.Stdout, false),
	)
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	// Initialize MQTT
	bootID := uuid.New().String()
	publisher := mqtt.NewRealPublisher(cfg.Broker, "thermofan-"+bootID[:8])
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(start, bootID, status.Config{
		QuantumMs:        cfg.Quantum.Milliseconds(),
		ThermalPeriodMs:  cfg.ThermalPeriod.Milliseconds(),
		DisplayPeriodMs:  cfg.DisplayPeriod.Milliseconds(),
		SensorIntervalMs: cfg.SensorInterval.Milliseconds(),
		HeartbeatMs:      cfg.Heartbeat.Milliseconds(),
		ThresholdF:       cfg.ThresholdF,
		Broker:           cfg.Broker,
		HTTPPort:         cfg.HTTP,
		Simulated:        opts.sim,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	source := tick.New()
	if err := source.Arm(cfg.Quantum); err != nil {
		return fmt.Errorf("arm tick source: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return source.Run(ctx)
	})

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown(context.Background())
		})
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: boot=%s quantum=%v threshold=%dF sensor-interval=%v broker=%s heartbeat=%v sim=%v",
		bootID, cfg.Quantum, cfg.ThresholdF, cfg.SensorInterval, cfg.Broker, cfg.Heartbeat, opts.sim)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g.Go(func() error {
		defer cancel()
		return runLoop(ctx, ctrl, writer, publisher, publisher, tracker, cfg.Heartbeat, source.Overruns, time.Now, source.C(), sigCh)
	})

	return g.Wait()
}

// runLoop is the control loop. Each tick it polls the sensor gate, advances
// the scheduler one quantum and forwards what the tasks produced. It returns
// after a shutdown signal or when ctx is done, leaving the relay low and the
// display dark.
func runLoop(ctx context.Context, ctrl *controller.Controller, writer gpio.Writer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, overruns func() uint64, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(now())
	sensorFailing := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			shutdown(ctrl, writer, publisher, mqttStatus, tracker, overruns, now(), signalName)
			return nil

		case <-ctx.Done():
			log.Printf("stopping: %v", context.Cause(ctx))
			shutdown(ctrl, writer, publisher, mqttStatus, tracker, overruns, now(), "STOPPED")
			return nil

		case <-tick:
			t := now()
			ctrl.Poll(t)
			ctrl.Tick(t)

			for _, event := range ctrl.DrainEvents() {
				log.Printf("event: %s (temp=%dF threshold=%dF)", event.Type, event.TempF, event.ThresholdF)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if err := writer.Err(); err != nil {
				log.Printf("gpio write error: %v", err)
			}

			st := ctrl.State()
			if st.SensorErr != nil && !sensorFailing {
				log.Printf("sensor read failed, retrying every tick: %v", st.SensorErr)
			} else if st.SensorErr == nil && sensorFailing {
				log.Printf("sensor recovered")
			}
			sensorFailing = st.SensorErr != nil

			counts := st.Counts
			counts.TickOverruns = overruns()

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(st, counts.TickOverruns)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if hbData := hb.Check(t, heartbeat, counts); hbData != nil {
				log.Printf("heartbeat: uptime=%v fan_on=%d fan_off=%d reads=%d errors=%d overruns=%d",
					hbData.Uptime, hbData.Counts.FanOn, hbData.Counts.FanOff,
					hbData.Counts.SensorReads, hbData.Counts.SensorErrors, hbData.Counts.TickOverruns)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// shutdown leaves the outputs safe and publishes the retained SHUTDOWN event.
func shutdown(ctrl *controller.Controller, writer gpio.Writer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, overruns func() uint64, t time.Time, reason string) {
	ctrl.Shutdown()
	if err := writer.Err(); err != nil {
		log.Printf("gpio write error during shutdown: %v", err)
	}

	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if tracker != nil {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		tracker.Update(ctrl.State(), overruns())
		event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

// initialLevels is the level every output is requested at: relay low,
// segments low, both digit commons off.
func initialLevels(w gpio.Wiring, activeLow bool) map[int]bool {
	levels := make(map[int]bool, 10)
	for _, p := range w.Segments {
		levels[p] = false
	}
	levels[w.Ones] = activeLow
	levels[w.Tens] = activeLow
	levels[w.Relay] = false
	return levels
}

func printState(out io.Writer, s sensor.Sensor, thresholdF int) error {
	r, err := s.Measure()
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	tempF := logic.Fahrenheit(r.TempC)
	state, _ := logic.NextThermal(logic.ThermalIdle, tempF, thresholdF)
	fmt.Fprintf(out, "Temperature: %dF (%.1fC), Humidity: %.0f%%, Fan: %s\n", tempF, r.TempC, r.Humidity, state)
	return nil
}

var segmentNames = [7]string{"a", "b", "c", "d", "e", "f", "g"}

func printWiring(out io.Writer, w gpio.Wiring) error {
	table := tablewriter.NewWriter(out)
	table.Header("Signal", "Line")
	for k, p := range w.Segments {
		if err := table.Append("segment "+segmentNames[k], fmt.Sprint(p)); err != nil {
			return err
		}
	}
	rows := [][2]string{
		{"ones common", fmt.Sprint(w.Ones)},
		{"tens common", fmt.Sprint(w.Tens)},
		{"relay", fmt.Sprint(w.Relay)},
		{"sensor (dht11)", fmt.Sprint(w.Sensor)},
	}
	for _, r := range rows {
		if err := table.Append(r[0], r[1]); err != nil {
			return err
		}
	}
	return table.Render()
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

// networkEnvFile is the pi-helper env file. Values there win over the
// process environment.
var networkEnvFile = "/run/pi-helper.env"

func readNetworkInfo() *status.NetworkInfo {
	// A missing file leaves env nil and every lookup falls through.
	env, _ := godotenv.Read(networkEnvFile)
	get := func(key string) string {
		if v, ok := env[key]; ok {
			return v
		}
		return os.Getenv(key)
	}

	s := get(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       get(envNetworkType),
		IP:         get(envNetworkIP),
		Status:     s,
		Gateway:    get(envNetworkGateway),
		WifiStatus: get(envNetworkWifiStatus),
		SSID:       get(envNetworkWifiSSID),
	}
}
