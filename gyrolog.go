package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	c "lautenbacher.net/gyrolog/config"
	"lautenbacher.net/gyrolog/gyro"
	"lautenbacher.net/gyrolog/hardware"
	"lautenbacher.net/gyrolog/logging"
	pl "lautenbacher.net/gyrolog/platform"
	"lautenbacher.net/gyrolog/rpi"
	"lautenbacher.net/gyrolog/tui"
	u "lautenbacher.net/gyrolog/util"
)

type App struct {
	ossignal    chan os.Signal
	platform    pl.Platform
	conf        *c.Config
	device      *gyro.Device
	log         *slog.Logger
	bindConsole func(io.Writer) error
	interval    *u.Latest[time.Duration]
	stopsignal  chan struct{}
	shutdownWg  sync.WaitGroup
	web         *http.Server
}

func NewApp(ossignal chan os.Signal) *App {
	return &App{
		ossignal:    ossignal,
		log:         logging.For(logging.DefaultTarget),
		bindConsole: logging.Init,
		interval:    u.NewLatest[time.Duration](),
		stopsignal:  make(chan struct{}),
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfile string
	var realhw bool

	root := &cobra.Command{
		Use:          "gyrolog",
		Short:        "Log I3G4250D angular rate samples to a console",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfile, "config", c.CONFILE, "configuration file")
	root.PersistentFlags().BoolVar(&realhw, "realhw", false, "use the real SPI bus instead of the simulation")

	run := &cobra.Command{
		Use:   "run",
		Short: "Initialise the gyroscope and log samples until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cfile, realhw)
			if err != nil {
				return err
			}
			ossignal := make(chan os.Signal, 1)
			signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer signal.Stop(ossignal)
			return NewApp(ossignal).Run(conf)
		},
	}

	probe := &cobra.Command{
		Use:   "probe",
		Short: "Print the identity and temperature reported by the gyroscope",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cfile, realhw)
			if err != nil {
				return err
			}
			return probeDevice(cmd, conf)
		},
	}

	root.AddCommand(run, probe)
	return root
}

func loadConfig(cfile string, realhw bool) (*c.Config, error) {
	conf, err := c.ReadConfig(cfile)
	if err != nil {
		return nil, err
	}
	conf.RealHW = realhw
	return conf, nil
}

// probeDevice reads WHO_AM_I and OUT_TEMP without configuring the sensor.
func probeDevice(cmd *cobra.Command, conf *c.Config) error {
	var port gyro.Port
	var cs gyro.Pin
	if conf.RealHW {
		p := rpi.NewPlatform(conf)
		if err := p.Start(); err != nil {
			return err
		}
		defer p.Stop()
		port, cs = p.Bus(), p.ChipSelect()
	} else {
		sim := hardware.NewSimulatedGyro(byte(conf.Hardware.Simulation.DeviceID), conf.Hardware.Simulation.Seed)
		port, cs = hardware.NewPort(sim), sim
	}

	dev := gyro.New(port, cs)
	id := dev.WhoAmI()
	fmt.Fprintf(cmd.OutOrStdout(), "WHO_AM_I: 0x%02X\n", id)
	if id != gyro.DeviceID {
		return &gyro.UnexpectedDeviceError{Got: id}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OUT_TEMP: %d\n", dev.Temperature())
	return nil
}

// Run brings up the platform, binds the console logger, configures the
// gyroscope and samples it until a termination signal arrives.
func (a *App) Run(conf *c.Config) error {
	a.conf = conf
	if a.platform == nil {
		if conf.RealHW {
			a.platform = rpi.NewPlatform(conf)
		} else {
			a.platform = tui.NewPlatform(a.ossignal, conf)
		}
	}
	if err := a.platform.Start(); err != nil {
		return fmt.Errorf("start platform: %w", err)
	}
	defer a.platform.Stop()

	if err := a.bindConsole(a.platform.Console()); err != nil {
		return err
	}
	if err := a.startDevice(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if conf.Configfile != "" {
		err := c.Watch(ctx, conf.Configfile, func(nc *c.Config) {
			a.interval.Send(nc.Sampling.Interval)
		})
		if err != nil {
			a.log.Warn("Config file will not be reloaded", "error", err)
		}
	}
	a.startWebServer()

	a.shutdownWg.Add(1)
	go a.sampler(conf.Sampling.Interval)

	a.waitForSignal()
	a.shutdown()
	return nil
}

// startDevice probes and configures the gyroscope. Nothing is written to the
// sensor when the identity check fails.
func (a *App) startDevice() error {
	a.device = gyro.New(a.platform.Bus(), a.platform.ChipSelect())
	if err := a.device.Configure(); err != nil {
		a.log.Error("Gyroscope initialisation failed", "error", err)
		return err
	}
	a.log.Debug("Gyroscope configured", "temperature", a.device.Temperature())
	return nil
}

func (a *App) startWebServer() {
	if a.conf.Web.Address == "" || a.conf.Configfile == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", c.ConfigHandler(a.conf.Configfile))
	a.web = &http.Server{Addr: a.conf.Web.Address, Handler: mux}

	go func() {
		a.log.Info("Starting web server", "address", a.conf.Web.Address)
		if err := a.web.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Web server failed", "error", err)
		}
	}()
}

func (a *App) waitForSignal() {
	for sig := range a.ossignal {
		if sig != syscall.SIGHUP {
			a.log.Info("Received signal, shutting down", "signal", sig)
			return
		}
		conf, err := c.ReadConfig(a.conf.Configfile)
		if err != nil {
			a.log.Warn("Reload failed, keeping current config", "error", err)
			continue
		}
		a.interval.Send(conf.Sampling.Interval)
	}
}

func (a *App) shutdown() {
	close(a.stopsignal)
	if a.web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.web.Shutdown(ctx); err != nil {
			a.log.Warn("Web server shutdown", "error", err)
		}
	}
	a.shutdownWg.Wait()
}

// sampler reads one sample per tick and logs it. Interval changes take
// effect on the next tick.
func (a *App) sampler(interval time.Duration) {
	defer a.shutdownWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopsignal:
			return
		case <-a.interval.Channel():
			if d, ok := a.interval.Take(); ok && d != interval {
				interval = d
				ticker.Reset(d)
				a.log.Info("Sampling interval changed", "interval", d)
			}
		case <-ticker.C:
			sample := a.device.Read()
			a.log.Info(sample.String())
			a.platform.ShowSample(sample)
		}
	}
}
