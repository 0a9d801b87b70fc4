package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/caarlos0/env/v11"
	"github.com/cenkalti/backoff/v4"
	logp "github.com/charmbracelet/log"
	totalconnect "github.com/craigjmidwinter/total-connect-client"
	"github.com/craigjmidwinter/total-connect-client/tc2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed index.html
var index []byte

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "homekit",
})

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Executor runs fn against the bridged location, holding the client for the
// duration of the call.
type Executor = func(fn func(loc *totalconnect.Location) error) error

const manufacturer = "Resideo"

func main() {
	log.Info(
		"homekit-totalconnect",
		"version", version,
		"commit", commit,
		"date", date,
		"info", "Homekit bridge for Total Connect alarm systems",
	)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(
			"could not parse env",
			"err",
			strings.TrimPrefix(strings.ReplaceAll(err.Error(), "; ", "\n"), "env: ")+"\n",
		)
	}
	if level, err := logp.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("invalid log level", "level", cfg.LogLevel, "err", err)
	}

	creds, err := cfg.credentials()
	if err != nil {
		log.Fatal("could not load credentials", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cli, err := login(ctx, cfg, creds)
	if err != nil {
		log.Fatal("could not log in", "err", err)
	}

	loc, err := pickLocation(cli, cfg.Location)
	if err != nil {
		log.Fatal("could not find location", "err", err)
	}
	log.Info(
		"got alarm system information",
		"location", loc.ID,
		"name", loc.Name,
		"state", loc.ArmingState,
		"partitions", len(loc.Partitions),
		"zones", allZoneConfigs(cfg.allZones(loc)).String(),
	)

	var clientLock sync.Mutex
	execute := func(fn func(loc *totalconnect.Location) error) error {
		t := time.Now()
		clientLock.Lock()
		defer clientLock.Unlock()
		log.Debugf("got client lock after %s", time.Since(t))

		bo := backoff.NewExponentialBackOff()
		bo.MaxInterval = time.Second * 5
		bo.MaxElapsedTime = time.Minute

		return backoff.RetryNotify(func() error {
			requestCounter.Inc()
			defer func() { loggedInGauge.Set(boolToFloat(cli.IsLoggedIn())) }()
			if err := fn(loc); err != nil {
				requestErrorCounter.Inc()
				if permanent(err) {
					return backoff.Permanent(err)
				}
				return err
			}
			return nil
		}, backoff.WithContext(bo, ctx), func(err error, _ time.Duration) {
			log.Error("command to total connect failed", "err", err)
		})
	}

	pub, err := newPublisher(cfg.MQTTBroker, cfg.MQTTTopic)
	if err != nil {
		log.Error("mqtt disabled", "err", err)
	}
	defer pub.Close()

	bridge := accessory.NewBridge(accessory.Info{
		Name:         "Alarm Bridge",
		Manufacturer: manufacturer,
		Firmware:     version,
	})

	alarm := NewSecuritySystem(accessory.Info{
		Name:         loc.Name,
		SerialNumber: fmt.Sprintf("%d", loc.SecurityDeviceID),
		Manufacturer: manufacturer,
		Model:        "Total Connect",
		Firmware:     version,
	}, execute)
	alarm.Id = 2

	// registry reads happen under the client lock, like every call
	var sensors AlarmSensors
	_ = execute(func(loc *totalconnect.Location) error {
		alarm.Update(loc)
		if state := getAlarmState(loc); state >= 0 && state < 4 {
			err := alarm.SecuritySystem.SecuritySystemTargetState.SetValue(state)
			log.Info("set target state", "state", state, "err", err)
		}
		sensors = setupZones(execute, cfg, loc)
		if err := pub.Publish(loc); err != nil {
			log.Warn("could not publish state", "err", err)
		}
		return nil
	})

	go func() {
		tick := time.NewTicker(cfg.PollInterval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
			}
			if err := execute(func(loc *totalconnect.Location) error {
				if err := loc.Refresh(ctx); err != nil {
					return err
				}
				alarm.Update(loc)
				sensors.Update(loc)
				if err := pub.Publish(loc); err != nil {
					log.Warn("could not publish state", "err", err)
				}
				return nil
			}); err != nil {
				log.Error("could not get status", "err", err)
			}
		}
	}()

	fs := hap.NewFsStore("./db")

	server, err := hap.NewServer(fs, bridge.A, securityAccessories(sensors, alarm)...)
	if err != nil {
		log.Fatal("fail to create server", "error", err)
	}
	server.Addr = cfg.Address
	server.ServeMux().Handle("/metrics", promhttp.Handler())
	server.ServeMux().Handle("/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		state := [5]string{
			"Armed: Stay",
			"Armed: Away",
			"Armed: Night",
			"Disarmed",
			"Alarm Triggered",
		}[alarm.SecuritySystem.SecuritySystemCurrentState.Value()]

		var items []PageItem
		for _, zone := range sensors {
			z := PageItem{
				Number:     zone.Number,
				Name:       zone.Name(),
				Tamper:     zone.Tamper.Value() == 1,
				LowBattery: zone.LowBattery.Value() == 1,
			}
			if zone.Motion != nil {
				z.Open = zone.Motion.MotionDetected.Value()
			} else if zone.Contact != nil {
				z.Open = zone.Contact.ContactSensorState.Value() == 1
			}
			if zone.Bypass != nil {
				z.Bypassed = !zone.Bypass.On.Value()
			}
			items = append(items, z)
		}

		tpl := template.Must(template.New("index").Parse(string(index)))
		_ = tpl.Execute(w, struct {
			Location string
			State    string
			Zones    []PageItem
		}{
			Location: alarm.Name(),
			State:    state,
			Zones:    items,
		})
	}))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("stopping server")
		signal.Stop(c)
		cancel()
	}()

	log.Info("starting server", "addr", server.Addr)
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to close server", "err", err)
	}

	clientLock.Lock()
	defer clientLock.Unlock()
	logoutCtx, logoutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer logoutCancel()
	if err := cli.LogOut(logoutCtx); err != nil {
		log.Error("could not log out", "err", err)
	}
}

// login retries until the service answers, giving up at once when the
// credentials are rejected.
func login(ctx context.Context, cfg Config, creds totalconnect.Credentials) (*totalconnect.Client, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = time.Second * 30
	bo.MaxElapsedTime = 5 * time.Minute

	var cli *totalconnect.Client
	err := backoff.RetryNotify(func() error {
		var err error
		cli, err = totalconnect.New(
			ctx,
			tc2.New(cfg.BaseURL),
			creds,
			totalconnect.WithLogger(log.WithPrefix("totalconnect")),
			totalconnect.WithRetryDelay(cfg.RetryDelay),
		)
		if err != nil && permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx), func(err error, d time.Duration) {
		log.Warn("could not log in, retrying", "in", d, "err", err)
	})
	return cli, err
}

func pickLocation(cli *totalconnect.Client, id int) (*totalconnect.Location, error) {
	if id == 0 {
		locs := cli.Locations()
		if len(locs) == 0 {
			return nil, errors.New("account has no locations")
		}
		return locs[0], nil
	}
	loc, ok := cli.Location(id)
	if !ok {
		return nil, fmt.Errorf("location %d not found in %v", id, cli.LocationIDs())
	}
	return loc, nil
}

// permanent reports errors that retrying cannot fix. The client already
// retried transient failures before returning ErrServiceUnavailable.
func permanent(err error) bool {
	return errors.Is(err, totalconnect.ErrAuthentication) ||
		errors.Is(err, totalconnect.ErrServiceUnavailable) ||
		errors.Is(err, totalconnect.ErrBadResultCode) ||
		errors.Is(err, totalconnect.ErrUsercodeInvalid) ||
		errors.Is(err, totalconnect.ErrUsercodeUnavailable) ||
		errors.Is(err, totalconnect.ErrFeatureNotSupported) ||
		errors.Is(err, totalconnect.ErrFailedToBypassZone) ||
		errors.Is(err, totalconnect.ErrCommandFailed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func securityAccessories(sensors AlarmSensors, alarm *SecuritySystem) []*accessory.A {
	result := []*accessory.A{
		alarm.A,
	}
	for _, c := range sensors {
		result = append(result, c.A)
	}
	return result
}

type PageItem struct {
	Number     int
	Name       string
	Open       bool
	Tamper     bool
	Bypassed   bool
	LowBattery bool
}
